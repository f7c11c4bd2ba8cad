package duocache

import (
	"github.com/rs/zerolog"

	"github.com/duocache/duocache/internal/disktier"
	"github.com/duocache/duocache/internal/memtier"
)

// Option configures a Cache at construction time. Tier-specific tuning
// (count/cost/age limits, trim intervals, release policy, and so on) is
// expressed by forwarding the corresponding memtier.Option/disktier.Option
// values, rather than the facade re-declaring every one of them — the
// teacher's functional-options idiom, one level up.
type Option func(*settings)

type settings struct {
	memOpts  []memtier.Option
	diskOpts []disktier.Option
	logger   zerolog.Logger
}

func defaultSettings() *settings {
	return &settings{logger: zerolog.Nop()}
}

// WithMemoryOptions forwards options to the in-process tier.
func WithMemoryOptions(opts ...memtier.Option) Option {
	return func(s *settings) { s.memOpts = append(s.memOpts, opts...) }
}

// WithDiskOptions forwards options to the persistent tier.
func WithDiskOptions(opts ...disktier.Option) Option {
	return func(s *settings) { s.diskOpts = append(s.diskOpts, opts...) }
}

// WithLogger sets the logger used for facade-level diagnostics (lock-file
// handling, decode errors on promotion) and is also threaded down to both
// tiers unless they're given their own via WithMemoryOptions/WithDiskOptions.
func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = l
		// Prepended so a tier's own WithLogger wins wherever it appears.
		s.memOpts = append([]memtier.Option{memtier.WithLogger(l)}, s.memOpts...)
		s.diskOpts = append([]disktier.Option{disktier.WithLogger(l)}, s.diskOpts...)
	}
}
