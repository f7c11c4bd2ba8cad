package memtier

import "time"

// startJanitor launches the background trimmer, matching the teacher's
// ticker-plus-stop-channel shape. Unlike the teacher (which only expires by
// TTL), each tick here runs all three trims in the order §4.B specifies:
// cost, then count, then age.
func (t *Tier) startJanitor() {
	if t.trimInterval <= 0 {
		return
	}
	ticker := time.NewTicker(t.trimInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.autoTrim()
			case <-t.stopCh:
				return
			}
		}
	}()
}

// autoTrim runs one trimming pass. Missed ticks coalesce naturally: a slow
// consumer just sees a bigger gap between evaluations, not a backlog of
// passes to replay.
func (t *Tier) autoTrim() {
	if t.costLimit > 0 {
		t.TrimToCost(t.costLimit)
	}
	if t.countLimit > 0 {
		t.TrimToCount(t.countLimit)
	}
	if t.ageLimit > 0 {
		t.TrimToAge(t.ageLimit)
	}
}

// OnLowMemory clears the tier (if configured to) and invokes the
// low-memory callback, in that order per §4.B. inCallback only guards
// against OnLowMemory/OnBackground re-entering themselves (a callback that
// turns around and calls OnLowMemory again); ordinary Get/Set/Remove calls
// from unrelated goroutines are never blocked by it. A callback calling
// back into the tier's own Get/Set/Remove/Contains from the invoking
// goroutine remains documented undefined behavior (§7 Reentrancy), not
// something this guard enforces.
func (t *Tier) OnLowMemory() {
	if t.reentered() {
		return
	}
	if t.clearOnLowMem {
		t.Clear()
	}
	if t.onLowMemory == nil {
		return
	}
	t.inCallback.Store(true)
	defer t.inCallback.Store(false)
	t.onLowMemory(t)
}

// OnBackground clears the tier (if configured to) and invokes the
// background callback, in that order per §4.B. See OnLowMemory for what
// the reentrancy guard does and does not cover.
func (t *Tier) OnBackground() {
	if t.reentered() {
		return
	}
	if t.clearOnBG {
		t.Clear()
	}
	if t.onBackground == nil {
		return
	}
	t.inCallback.Store(true)
	defer t.inCallback.Store(false)
	t.onBackground(t)
}

// reentered reports whether a pressure callback (OnLowMemory/OnBackground)
// is currently running, so a callback that calls OnLowMemory/OnBackground
// again doesn't recurse into Clear a second time. It does not gate any
// other Tier method.
func (t *Tier) reentered() bool {
	return t.inCallback.Load()
}
