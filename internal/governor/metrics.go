package governor

import "github.com/prometheus/client_golang/prometheus"

var (
	evictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ravend",
		Subsystem: "governor",
		Name:      "evictions_total",
		Help:      "Total cache entries evicted to free memory",
	})

	loadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ravend",
		Subsystem: "governor",
		Name:      "loads_total",
		Help:      "Total successful model admissions",
	})

	admissionsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ravend",
		Subsystem: "governor",
		Name:      "admissions_rejected_total",
		Help:      "Admissions rejected because the budget cannot fit the model",
	})

	residentBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ravend",
		Subsystem: "governor",
		Name:      "resident_bytes",
		Help:      "Bytes currently counted against the memory budget",
	})
)

func init() {
	prometheus.MustRegister(evictionsTotal, loadsTotal, admissionsRejected, residentBytes)
}
