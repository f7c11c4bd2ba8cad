package disktier

import (
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Tier at construction time.
type Option func(*config)

type config struct {
	countLimit     int64
	costLimit      int64
	ageLimit       time.Duration
	trimInterval   time.Duration
	freeSpaceFloor int64
	inlineThresh   int64
	logger         zerolog.Logger
	namespace      string
	subsystem      string
	registerMetric bool
}

const defaultInlineThreshold = 20 * 1024 // 20 KiB, per §4.D / §6

func defaultConfig() *config {
	return &config{
		trimInterval:   60 * time.Second,
		inlineThresh:   defaultInlineThreshold,
		logger:         zerolog.Nop(),
		namespace:      "duocache",
		subsystem:      "disk",
		registerMetric: true,
	}
}

// WithCountLimit bounds the number of rows. Zero/negative means unlimited.
func WithCountLimit(n int64) Option { return func(c *config) { c.countLimit = n } }

// WithCostLimit bounds the sum of blob sizes in bytes. Zero/negative means unlimited.
func WithCostLimit(n int64) Option { return func(c *config) { c.costLimit = n } }

// WithAgeLimit bounds how long a row may go unaccessed. Zero means unlimited.
func WithAgeLimit(d time.Duration) Option { return func(c *config) { c.ageLimit = d } }

// WithAutoTrimInterval sets the background trimmer's period. Default 60s.
func WithAutoTrimInterval(d time.Duration) Option { return func(c *config) { c.trimInterval = d } }

// WithFreeDiskSpaceLimit sets the floor, in bytes, below which the
// background trimmer starts evicting regardless of the other limits.
// Zero (the default) disables the check.
func WithFreeDiskSpaceLimit(bytes int64) Option {
	return func(c *config) { c.freeSpaceFloor = bytes }
}

// WithInlineThreshold sets the byte size at or below which values are
// stored inline in the manifest row rather than as an external file.
// Default 20480 (20 KiB).
func WithInlineThreshold(bytes int64) Option { return func(c *config) { c.inlineThresh = bytes } }

// WithLogger sets the logger used for errors encountered during trimming
// and background dispatch, which per §7 are never propagated to callers.
func WithLogger(l zerolog.Logger) Option { return func(c *config) { c.logger = l } }

// WithMetricsNames overrides the Prometheus namespace/subsystem used when
// naming this tier's instruments.
func WithMetricsNames(namespace, subsystem string) Option {
	return func(c *config) { c.namespace = namespace; c.subsystem = subsystem }
}

// WithoutMetrics disables Prometheus instrument creation entirely.
func WithoutMetrics() Option { return func(c *config) { c.registerMetric = false } }
