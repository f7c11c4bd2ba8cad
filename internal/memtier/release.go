package memtier

import "github.com/rs/zerolog"

// releaser decides, for a given Tier configuration, how the final reference
// to an evicted value is dropped. Go has no destructors, so "release" here
// means "stop holding the reference" — but callers that store io.Closer-like
// values in the cache rely on the timing of when that happens, which is why
// the tier honors release_on_main_thread / release_asynchronously rather
// than just letting the garbage collector sort it out whenever.
type releaser struct {
	mainThread bool
	async      bool
	dispatch   func(func()) // required when mainThread is true
	queue      chan func()  // backs the async path
	done       chan struct{}
	logger     zerolog.Logger
}

const releaseQueueSize = 256

func newReleaser(mainThread, async bool, dispatch func(func()), logger zerolog.Logger) *releaser {
	r := &releaser{
		mainThread: mainThread,
		async:      async,
		dispatch:   dispatch,
		done:       make(chan struct{}),
		logger:     logger,
	}
	if async && !mainThread {
		r.queue = make(chan func(), releaseQueueSize)
		go r.drain()
	}
	return r
}

func (r *releaser) drain() {
	for {
		select {
		case fn := <-r.queue:
			fn()
		case <-r.done:
			// Drain whatever is left without blocking further producers.
			for {
				select {
				case fn := <-r.queue:
					fn()
				default:
					return
				}
			}
		}
	}
}

// release drops the final reference to value using drop, routed through
// whichever executor the tier is configured for. release never returns an
// error — §7 policy routes release failures to logging, not to the caller —
// so drop's own error is logged here rather than discarded.
func (r *releaser) release(value any, drop func(any) error) {
	run := func() {
		if err := drop(value); err != nil {
			r.logger.Warn().Err(err).Msg("memtier: value release failed")
		}
	}
	if r.mainThread && r.dispatch != nil {
		// release_on_main_thread wins over release_asynchronously per §4.B.
		r.dispatch(run)
		return
	}
	if r.async && r.queue != nil {
		select {
		case r.queue <- run:
		default:
			// Queue full: drop synchronously to preserve caller progress
			// rather than block remove()/trim() on a slow consumer.
			run()
		}
		return
	}
	run()
}

func (r *releaser) stop() {
	close(r.done)
}

// releaseValue drops the final reference to an evicted value. Values that
// implement io.Closer-shaped cleanup (Close() error or Close()) are closed,
// and any error from Close() error is propagated to the caller for logging;
// anything else is simply let go, relying on the garbage collector.
func releaseValue(v any) error {
	switch c := v.(type) {
	case interface{ Close() error }:
		return c.Close()
	case interface{ Close() }:
		c.Close()
	}
	return nil
}
