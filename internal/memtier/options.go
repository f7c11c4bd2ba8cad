package memtier

import (
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Tier at construction time, mirroring the functional
// options pattern the teacher uses for its Cache.
type Option func(*config)

type config struct {
	countLimit     int64
	costLimit      int64
	ageLimit       time.Duration
	trimInterval   time.Duration
	clearOnLowMem  bool
	clearOnBG      bool
	mainThread     bool
	async          bool
	dispatch       func(func())
	onLowMemory    func(*Tier)
	onBackground   func(*Tier)
	logger         zerolog.Logger
	namespace      string
	subsystem      string
	registerMetric bool
}

func defaultConfig() *config {
	return &config{
		trimInterval:   5 * time.Second,
		clearOnLowMem:  true,
		clearOnBG:      true,
		mainThread:     false,
		async:          true,
		logger:         zerolog.Nop(),
		namespace:      "duocache",
		subsystem:      "memory",
		registerMetric: true,
	}
}

// WithCountLimit bounds the number of live entries. Zero/negative means unlimited.
func WithCountLimit(n int64) Option { return func(c *config) { c.countLimit = n } }

// WithCostLimit bounds the sum of entry costs. Zero/negative means unlimited.
func WithCostLimit(n int64) Option { return func(c *config) { c.costLimit = n } }

// WithAgeLimit bounds how long an entry may go unaccessed before it is
// eligible for trimming. Zero means unlimited.
func WithAgeLimit(d time.Duration) Option { return func(c *config) { c.ageLimit = d } }

// WithAutoTrimInterval sets the background trimmer's period. Default 5s.
func WithAutoTrimInterval(d time.Duration) Option {
	return func(c *config) { c.trimInterval = d }
}

// WithClearOnLowMemory toggles whether OnLowMemory() clears the tier. Default true.
func WithClearOnLowMemory(v bool) Option { return func(c *config) { c.clearOnLowMem = v } }

// WithClearOnBackground toggles whether OnBackground() clears the tier. Default true.
func WithClearOnBackground(v bool) Option { return func(c *config) { c.clearOnBG = v } }

// WithReleaseOnMainThread routes final value release through dispatch instead
// of releasing inline or on the async worker. Takes precedence over
// WithReleaseAsynchronously when both are set, per §4.B.
func WithReleaseOnMainThread(dispatch func(func())) Option {
	return func(c *config) { c.mainThread = true; c.dispatch = dispatch }
}

// WithReleaseAsynchronously toggles whether evicted values are released on a
// background worker rather than synchronously on the caller's goroutine.
// Default true.
func WithReleaseAsynchronously(v bool) Option { return func(c *config) { c.async = v } }

// WithLowMemoryCallback registers a callback invoked by OnLowMemory, after
// the clear when clearing on low memory is enabled.
func WithLowMemoryCallback(fn func(*Tier)) Option {
	return func(c *config) { c.onLowMemory = fn }
}

// WithBackgroundCallback registers a callback invoked by OnBackground, after
// the clear when clearing on background is enabled.
func WithBackgroundCallback(fn func(*Tier)) Option {
	return func(c *config) { c.onBackground = fn }
}

// WithLogger sets the logger used for errors encountered during trimming
// and background release, which per §7 are never propagated to callers.
func WithLogger(l zerolog.Logger) Option { return func(c *config) { c.logger = l } }

// WithMetricsNames overrides the Prometheus namespace/subsystem used when
// naming this tier's instruments. Useful when more than one Tier lives in
// the same process.
func WithMetricsNames(namespace, subsystem string) Option {
	return func(c *config) { c.namespace = namespace; c.subsystem = subsystem }
}

// WithoutMetrics disables Prometheus instrument creation entirely.
func WithoutMetrics() Option { return func(c *config) { c.registerMetric = false } }
