package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		conversationEventsTotal,
		conversationTransitionsTotal,
		conversationDispatchSeconds,
	)
}

var (
	conversationEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_events_total",
			Help: "Inbound events by state they were dispatched in and outcome (ok, failed, fatal).",
		},
		[]string{"state", "kind", "outcome"},
	)

	conversationTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_transitions_total",
			Help: "Persisted state transitions.",
		},
		[]string{"from", "to"},
	)

	conversationDispatchSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "conversation_dispatch_seconds",
			Help:    "Time spent handling one event, backend calls and rendering included.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
		},
		[]string{"state"},
	)
)

func IncConversationEvent(state, kind, outcome string) {
	conversationEventsTotal.WithLabelValues(state, norm(kind), norm(outcome)).Inc()
}

func IncTransition(from, to string) {
	conversationTransitionsTotal.WithLabelValues(from, to).Inc()
}

func ObserveDispatch(state string, seconds float64) {
	conversationDispatchSeconds.WithLabelValues(state).Observe(seconds)
}
