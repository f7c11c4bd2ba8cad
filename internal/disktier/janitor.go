package disktier

import "time"

// startJanitor launches the background trimmer: cost, then count, then
// age, same order as the memory tier, plus a free-disk-space floor check
// that's specific to this tier (§4.E).
func (t *Tier) startJanitor() {
	if t.trimInterval <= 0 {
		return
	}
	ticker := time.NewTicker(t.trimInterval)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
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
	if t.freeSpaceFloor > 0 {
		t.enforceFreeSpaceFloor()
	}
}

// enforceFreeSpaceFloor evicts the single oldest batch repeatedly while
// free space on the tier's volume is below the configured floor. It stops
// silently if the platform can't report free space, stops with a logged
// warning (per §7) when there is nothing left to evict, and otherwise gives
// up after 64 passes rather than spinning forever.
func (t *Tier) enforceFreeSpaceFloor() {
	for i := 0; i < 64; i++ {
		free, ok := freeBytes(t.root)
		if !ok {
			return
		}
		if free >= t.freeSpaceFloor {
			return
		}
		t.mu.Lock()
		batch, err := t.man.lruBatch(lruBatchSize)
		t.mu.Unlock()
		if err != nil || len(batch) == 0 {
			t.logger.Warn().Msg("disktier: free-space floor breached with nothing left to evict")
			return
		}
		for _, c := range batch {
			t.evictCandidate(c)
		}
		t.bumpEviction(len(batch))
	}
	t.syncGauges()
}
