package disktier

import "time"

// evictCandidate deletes the row for c and, if it had an external file,
// moves that file to trash. Caller must not hold t.mu.
func (t *Tier) evictCandidate(c lruCandidate) {
	t.mu.Lock()
	t.man.delete(c.Key)
	t.mu.Unlock()
	if c.Filename.Valid {
		if err := t.files.remove(c.Filename.String); err != nil {
			t.logger.Warn().Err(err).Msg("disktier: failed to trash evicted blob")
		}
	}
}

// TrimToCount evicts rows, oldest-access-first and in batches of
// lruBatchSize, until at most n remain (§4.E, §8 property 3).
func (t *Tier) TrimToCount(n int64) {
	evicted := 0
	for {
		count := t.TotalCount()
		if count <= n {
			break
		}
		t.mu.Lock()
		batch, err := t.man.lruBatch(lruBatchSize)
		t.mu.Unlock()
		if err != nil || len(batch) == 0 {
			break
		}
		for _, c := range batch {
			if t.TotalCount() <= n {
				break
			}
			t.evictCandidate(c)
			evicted++
		}
	}
	t.bumpEviction(evicted)
	t.syncGauges()
}

// TrimToCost evicts rows, oldest-access-first and in batches, until total
// blob size is at most c (§4.E, §8 property 3).
func (t *Tier) TrimToCost(c int64) {
	evicted := 0
	for {
		cost := t.TotalCost()
		if cost <= c {
			break
		}
		t.mu.Lock()
		batch, err := t.man.lruBatch(lruBatchSize)
		t.mu.Unlock()
		if err != nil || len(batch) == 0 {
			break
		}
		for _, cand := range batch {
			if t.TotalCost() <= c {
				break
			}
			t.evictCandidate(cand)
			evicted++
		}
	}
	t.bumpEviction(evicted)
	t.syncGauges()
}

// TrimToAge deletes every row with last_access_time older than age,
// per §4.E.
func (t *Tier) TrimToAge(age time.Duration) {
	if age <= 0 {
		return
	}
	cutoff := time.Now().Add(-age)
	t.mu.Lock()
	batch, err := t.man.olderThan(cutoff)
	t.mu.Unlock()
	if err != nil {
		t.logger.Warn().Err(err).Msg("disktier: age-trim query failed")
		return
	}
	for _, c := range batch {
		t.evictCandidate(c)
	}
	t.bumpEviction(len(batch))
	t.syncGauges()
}
