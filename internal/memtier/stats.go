package memtier

import "github.com/prometheus/client_golang/prometheus"

// Stats is a point-in-time snapshot of tier activity, generalizing the
// teacher's plain hit/miss/eviction counters to include cost/count so
// callers don't need a second round trip to read TotalCount/TotalCost.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Sets      uint64
	Removes   uint64
	Evictions uint64
	Count     int64
	Cost      int64
}

// metrics wraps the same counters as Prometheus instruments, registered by
// the embedder (the library never touches a global registry itself).
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
			Help: "Number of memory-tier reads that found a live key.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "misses_total",
			Help: "Number of memory-tier reads that found no live key.",
		}),
		sets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "sets_total",
			Help: "Number of memory-tier writes.",
		}),
		removes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "removes_total",
			Help: "Number of explicit memory-tier removals.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "evictions_total",
			Help: "Number of entries evicted by trimming.",
		}),
		count: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "entries",
			Help: "Current number of live entries.",
		}),
		cost: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "cost_bytes",
			Help: "Current sum of entry costs.",
		}),
	}
}

// Collectors returns the Prometheus instruments backing this tier, for the
// embedder to register on its own registry.
func (m *metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.hits, m.misses, m.sets, m.removes, m.evictions, m.count, m.cost,
	}
}
