package progress

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	overallPercent = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vaultops",
		Name:      "progress_percent",
		Help:      "Overall setup progress across all phases (0-100).",
	})

	phasePercent = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "vaultops",
		Name:      "phase_percent",
		Help:      "Per-phase setup progress (0-100).",
	}, []string{"phase"})

	serviceUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "vaultops",
		Name:      "service_up",
		Help:      "Whether a probed service answered its health URL (1 or 0).",
	}, []string{"service"})
)

// publishMetrics mirrors a snapshot into the Prometheus gauges.
func publishMetrics(s Snapshot) {
	overallPercent.Set(s.Overall)
	for _, phase := range s.Phases {
		phasePercent.WithLabelValues(phase.Name).Set(phase.Percent)
	}
	for _, svc := range s.Services {
		val := 0.0
		if svc.Healthy {
			val = 1
		}
		serviceUp.WithLabelValues(svc.Name).Set(val)
	}
}
