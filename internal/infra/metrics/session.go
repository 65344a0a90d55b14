package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(stateStoreRequestsTotal, sessionLockBusyTotal, telegramRateLimitTriggeredTotal, telegramUpdatesTotal)
}

var (
	stateStoreRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "state_store_requests_total",
			Help: "State lookups by result (hit, miss, error).",
		},
		[]string{"result"},
	)

	sessionLockBusyTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "session_lock_busy_total",
			Help: "Events dropped because another worker held the session lock.",
		},
	)

	telegramRateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_rate_limit_triggered_total",
			Help: "Total number of times users have been rate-limited.",
		},
	)

	telegramUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_total",
			Help: "Incoming Telegram updates by source (polling, webhook) and kind.",
		},
		[]string{"source", "kind"},
	)
)

func IncStateLookup(result string) {
	stateStoreRequestsTotal.WithLabelValues(norm(result)).Inc()
}

func IncSessionBusy() {
	sessionLockBusyTotal.Inc()
}

func IncRateLimitTriggered() {
	telegramRateLimitTriggeredTotal.Inc()
}

func IncTelegramUpdate(source, kind string) {
	telegramUpdatesTotal.WithLabelValues(norm(source), norm(kind)).Inc()
}
