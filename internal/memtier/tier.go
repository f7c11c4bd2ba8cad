package memtier

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Tier is a concurrent, cost-bounded, age-bounded LRU. It is the engine
// behind component B of the cache: the hash map + doubly linked list pairing
// is the teacher's Cache generalized with cost accounting, age trimming, a
// background trimmer that runs in a fixed order, pressure hooks, and
// controlled release of evicted values.
//
// A single mutex protects the index and counters; no I/O ever happens while
// it is held, and it is never held across a user-supplied callback.
type Tier struct {
	mu  sync.Mutex
	idx *index

	totalCost int64

	countLimit   int64
	costLimit    int64
	ageLimit     time.Duration
	trimInterval time.Duration

	clearOnLowMem bool
	clearOnBG     bool
	onLowMemory   func(*Tier)
	onBackground  func(*Tier)
	inCallback    atomic.Bool // guards OnLowMemory/OnBackground against self re-entry only

	rel    *releaser
	logger zerolog.Logger // used by rel to log release errors; §7 never surfaces them to callers

	stats   Stats
	statsMu sync.Mutex
	metrics *metrics

	stopCh chan struct{}
	stopOn sync.Once
}

// New builds a Tier and starts its background trimmer, matching the
// teacher's New(opts...) -> startJanitor() sequencing.
func New(opts ...Option) *Tier {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	t := &Tier{
		idx:           newIndex(),
		countLimit:    cfg.countLimit,
		costLimit:     cfg.costLimit,
		ageLimit:      cfg.ageLimit,
		trimInterval:  cfg.trimInterval,
		clearOnLowMem: cfg.clearOnLowMem,
		clearOnBG:     cfg.clearOnBG,
		onLowMemory:   cfg.onLowMemory,
		onBackground:  cfg.onBackground,
		rel:           newReleaser(cfg.mainThread, cfg.async, cfg.dispatch, cfg.logger),
		logger:        cfg.logger,
		stopCh:        make(chan struct{}),
	}
	if cfg.registerMetric {
		t.metrics = newMetrics(cfg.namespace, cfg.subsystem)
	}
	t.startJanitor()
	return t
}

// Collectors exposes the Prometheus instruments backing this tier, for the
// embedder to register on its own registry. Returns nil if WithoutMetrics
// was used.
func (t *Tier) Collectors() []prometheus.Collector {
	if t.metrics == nil {
		return nil
	}
	return t.metrics.Collectors()
}

// Contains reports whether key is present. The age limit is not checked
// here; an over-age entry counts as present until a trim removes it. It does
// not update recency, matching the read-only contract in §4.B.
func (t *Tier) Contains(key string) bool {
	if key == "" {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.idx.get(key)
	return ok
}

// Get returns the value for key and moves it to the front of the LRU list.
// A missing or empty key reports ok=false (§7: KeyInvalid is a no-op, not
// an error).
func (t *Tier) Get(key string) (value any, ok bool) {
	if key == "" {
		return nil, false
	}
	t.mu.Lock()
	el, found := t.idx.get(key)
	if !found {
		t.mu.Unlock()
		t.bumpMiss()
		return nil, false
	}
	e := el.Value.(*entry)
	e.accessTime = time.Now()
	t.idx.moveToFront(el)
	v := e.value
	t.mu.Unlock()
	t.bumpHit()
	return v, true
}

// Set inserts or replaces key with value and the given cost. A nil value is
// equivalent to Remove, per §4.B. On replace, the old cost is subtracted
// before the new cost is added.
func (t *Tier) Set(key string, value any, cost int64) {
	if key == "" {
		return
	}
	if value == nil {
		t.Remove(key)
		return
	}
	if cost < 0 {
		cost = 0
	}

	t.mu.Lock()
	if el, found := t.idx.get(key); found {
		e := el.Value.(*entry)
		t.totalCost += cost - e.cost
		e.value = value
		e.cost = cost
		e.accessTime = time.Now()
		t.idx.moveToFront(el)
		t.mu.Unlock()
		t.bumpSet()
		t.syncGauges()
		return
	}

	e := &entry{key: key, value: value, cost: cost, accessTime: time.Now()}
	t.idx.insertFront(e)
	t.totalCost += cost
	evicted := t.enforceCountLocked()
	t.mu.Unlock()

	t.bumpEviction(len(evicted))
	for _, v := range evicted {
		t.rel.release(v, releaseValue)
	}
	t.bumpSet()
	t.syncGauges()
}

// Remove deletes key, releasing its value per the configured release policy.
func (t *Tier) Remove(key string) {
	if key == "" {
		return
	}
	t.mu.Lock()
	el, found := t.idx.get(key)
	if !found {
		t.mu.Unlock()
		return
	}
	e := t.idx.removeNode(el)
	t.totalCost -= e.cost
	t.mu.Unlock()

	t.rel.release(e.value, releaseValue)
	t.bumpRemove()
	t.syncGauges()
}

// Clear empties the tier, releasing every held value per the configured
// release policy.
func (t *Tier) Clear() {
	t.mu.Lock()
	var values []any
	for el := t.idx.back(); el != nil; el = t.idx.back() {
		e := t.idx.removeNode(el)
		values = append(values, e.value)
	}
	t.totalCost = 0
	t.mu.Unlock()

	for _, v := range values {
		t.rel.release(v, releaseValue)
	}
	t.syncGauges()
}

// TotalCount returns the number of live entries.
func (t *Tier) TotalCount() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return int64(t.idx.len())
}

// TotalCost returns the sum of entry costs.
func (t *Tier) TotalCost() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalCost
}

// Stats returns a point-in-time snapshot of hit/miss/eviction counters.
func (t *Tier) Stats() Stats {
	t.statsMu.Lock()
	s := t.stats
	t.statsMu.Unlock()
	s.Count = t.TotalCount()
	s.Cost = t.TotalCost()
	return s
}

// Stop halts the background trimmer and release worker. It must be called
// once per Tier lifecycle, matching the teacher's Stop() contract.
func (t *Tier) Stop() {
	t.stopOn.Do(func() {
		close(t.stopCh)
		t.rel.stop()
	})
}

func (t *Tier) bumpHit() {
	t.statsMu.Lock()
	t.stats.Hits++
	t.statsMu.Unlock()
	if t.metrics != nil {
		t.metrics.hits.Inc()
	}
}

func (t *Tier) bumpMiss() {
	t.statsMu.Lock()
	t.stats.Misses++
	t.statsMu.Unlock()
	if t.metrics != nil {
		t.metrics.misses.Inc()
	}
}

func (t *Tier) bumpSet() {
	t.statsMu.Lock()
	t.stats.Sets++
	t.statsMu.Unlock()
	if t.metrics != nil {
		t.metrics.sets.Inc()
	}
}

func (t *Tier) bumpRemove() {
	t.statsMu.Lock()
	t.stats.Removes++
	t.statsMu.Unlock()
	if t.metrics != nil {
		t.metrics.removes.Inc()
	}
}

func (t *Tier) bumpEviction(n int) {
	if n <= 0 {
		return
	}
	t.statsMu.Lock()
	t.stats.Evictions += uint64(n)
	t.statsMu.Unlock()
	if t.metrics != nil {
		t.metrics.evictions.Add(float64(n))
	}
}

func (t *Tier) syncGauges() {
	if t.metrics == nil {
		return
	}
	t.metrics.count.Set(float64(t.TotalCount()))
	t.metrics.cost.Set(float64(t.TotalCost()))
}

// enforceCountLocked evicts from the tail while over countLimit, returning
// the evicted values so the caller can release them after dropping t.mu.
// Caller must hold t.mu.
func (t *Tier) enforceCountLocked() []any {
	if t.countLimit <= 0 {
		return nil
	}
	var evicted []any
	for int64(t.idx.len()) > t.countLimit {
		e := t.idx.popTail()
		if e == nil {
			break
		}
		t.totalCost -= e.cost
		evicted = append(evicted, e.value)
	}
	return evicted
}
