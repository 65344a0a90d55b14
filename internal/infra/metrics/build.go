package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(buildInfo, startTime)
}

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Always 1; labels identify the running build.",
		},
		[]string{"version", "commit", "go_version"},
	)
	startTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "process_start_unix_seconds",
		Help: "Unix time the bot process started.",
	})
)

// SetBuildInfo is called once from main after MustRegister.
func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit, runtime.Version()).Set(1)
	startTime.Set(float64(time.Now().Unix()))
}
