package disktier

import "github.com/prometheus/client_golang/prometheus"

// Stats is a point-in-time snapshot of disk-tier activity.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Sets      uint64
	Removes   uint64
	Evictions uint64
	Count     int64
	Cost      int64
}

type metrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	sets      prometheus.Counter
	removes   prometheus.Counter
	evictions prometheus.Counter
	count     prometheus.Gauge
	cost      prometheus.Gauge
}

func newMetrics(namespace, subsystem string) *metrics {
	return &metrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "hits_total",
			Help: "Number of disk-tier reads that found a live key.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "misses_total",
			Help: "Number of disk-tier reads that found no live key.",
		}),
		sets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "sets_total",
			Help: "Number of disk-tier writes.",
		}),
		removes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "removes_total",
			Help: "Number of explicit disk-tier removals.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "evictions_total",
			Help: "Number of rows evicted by trimming.",
		}),
		count: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "entries",
			Help: "Current number of live rows.",
		}),
		cost: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "cost_bytes",
			Help: "Current sum of blob sizes.",
		}),
	}
}

func (m *metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.hits, m.misses, m.sets, m.removes, m.evictions, m.count, m.cost,
	}
}
