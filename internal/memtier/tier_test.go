package memtier

import (
	"sync"
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	tier := New(WithAutoTrimInterval(0))
	defer tier.Stop()

	tier.Set("a", "b", 1)

	val, found := tier.Get("a")
	if !found {
		t.Fatal("expected key to be found")
	}
	if val != "b" {
		t.Fatalf("expected 'b', got %v", val)
	}
}

func TestGetMissingKey(t *testing.T) {
	tier := New(WithAutoTrimInterval(0))
	defer tier.Stop()

	if _, found := tier.Get("nope"); found {
		t.Fatal("expected miss for unset key")
	}
}

func TestSetNilIsRemove(t *testing.T) {
	tier := New(WithAutoTrimInterval(0))
	defer tier.Stop()

	tier.Set("a", "b", 1)
	tier.Set("a", nil, 0)

	if tier.Contains("a") {
		t.Fatal("expected key removed after nil Set")
	}
	if tier.TotalCount() != 0 {
		t.Fatalf("expected count 0, got %d", tier.TotalCount())
	}
}

func TestEmptyKeyIsNoOp(t *testing.T) {
	tier := New(WithAutoTrimInterval(0))
	defer tier.Stop()

	tier.Set("", "x", 1)
	if tier.TotalCount() != 0 {
		t.Fatalf("expected empty key to be rejected, count=%d", tier.TotalCount())
	}
	if _, found := tier.Get(""); found {
		t.Fatal("expected empty key lookup to miss")
	}
}

func TestLRUOrderOnGet(t *testing.T) {
	tier := New(WithCountLimit(2), WithAutoTrimInterval(0))
	defer tier.Stop()

	tier.Set("a", 1, 1)
	tier.Set("b", 2, 1)
	tier.Get("a") // a is now more recent than b
	tier.Set("c", 3, 1)

	if tier.Contains("b") {
		t.Fatal("expected b evicted as least-recently-used")
	}
	if !tier.Contains("a") || !tier.Contains("c") {
		t.Fatal("expected a and c to remain")
	}
}

func TestTrimToCount(t *testing.T) {
	tier := New(WithAutoTrimInterval(0))
	defer tier.Stop()

	tier.Set("a", "1", 1)
	tier.Set("b", "2", 1)
	tier.Set("c", "3", 1)
	tier.TrimToCount(2)

	if tier.TotalCount() != 2 {
		t.Fatalf("expected 2 entries left, got %d", tier.TotalCount())
	}
	if tier.Contains("a") {
		t.Fatal("expected oldest entry a to be evicted")
	}
	if !tier.Contains("b") || !tier.Contains("c") {
		t.Fatal("expected b and c to remain")
	}
}

func TestTrimToCost(t *testing.T) {
	tier := New(WithAutoTrimInterval(0))
	defer tier.Stop()

	tier.Set("a", "1", 5)
	tier.Set("b", "2", 5)
	tier.Set("c", "3", 5)
	tier.TrimToCost(10)

	if tier.TotalCost() > 10 {
		t.Fatalf("expected cost <= 10, got %d", tier.TotalCost())
	}
	if tier.Contains("a") {
		t.Fatal("expected oldest entry a to be evicted")
	}
}

func TestTrimToAge(t *testing.T) {
	tier := New(WithAutoTrimInterval(0))
	defer tier.Stop()

	tier.Set("old", "1", 1)
	time.Sleep(20 * time.Millisecond)
	tier.Set("new", "2", 1)

	tier.TrimToAge(10 * time.Millisecond)

	if tier.Contains("old") {
		t.Fatal("expected old entry evicted by age")
	}
	if !tier.Contains("new") {
		t.Fatal("expected new entry to remain")
	}
}

func TestCountLimitEviction(t *testing.T) {
	tier := New(WithCountLimit(2), WithAutoTrimInterval(0))
	defer tier.Stop()

	tier.Set("a", 1, 1)
	tier.Set("b", 2, 1)
	tier.Set("c", 3, 1)

	if tier.TotalCount() != 2 {
		t.Fatalf("expected count capped at 2, got %d", tier.TotalCount())
	}
	if tier.Contains("a") {
		t.Fatal("expected a evicted on overflow")
	}
}

func TestClear(t *testing.T) {
	tier := New(WithAutoTrimInterval(0))
	defer tier.Stop()

	tier.Set("a", 1, 1)
	tier.Set("b", 2, 1)
	tier.Clear()

	if tier.TotalCount() != 0 || tier.TotalCost() != 0 {
		t.Fatalf("expected empty tier after Clear, count=%d cost=%d", tier.TotalCount(), tier.TotalCost())
	}
}

func TestStatsHitsAndMisses(t *testing.T) {
	tier := New(WithAutoTrimInterval(0))
	defer tier.Stop()

	tier.Set("a", 1, 1)
	tier.Get("a")
	tier.Get("missing")

	s := tier.Stats()
	if s.Hits != 1 {
		t.Fatalf("expected 1 hit, got %d", s.Hits)
	}
	if s.Misses != 1 {
		t.Fatalf("expected 1 miss, got %d", s.Misses)
	}
}

func TestReleaseOnRemove(t *testing.T) {
	var released int32
	var mu sync.Mutex

	tier := New(WithAutoTrimInterval(0), WithReleaseAsynchronously(false))
	defer tier.Stop()

	tier.Set("a", &closerStub{onClose: func() {
		mu.Lock()
		released++
		mu.Unlock()
	}}, 1)
	tier.Remove("a")

	mu.Lock()
	defer mu.Unlock()
	if released != 1 {
		t.Fatalf("expected synchronous release, got released=%d", released)
	}
}

func TestLowMemoryCallbackRunsAfterClear(t *testing.T) {
	var sawEmpty bool
	done := make(chan struct{})

	tier := New(WithAutoTrimInterval(0), WithLowMemoryCallback(func(tr *Tier) {
		sawEmpty = tr.TotalCount() == 0
		close(done)
	}))
	defer tier.Stop()

	tier.Set("a", 1, 1)
	tier.OnLowMemory()
	<-done

	if !sawEmpty {
		t.Fatal("expected tier to be empty inside low-memory callback")
	}
}

func TestConcurrentAccess(t *testing.T) {
	tier := New(WithCountLimit(1000), WithAutoTrimInterval(0))
	defer tier.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 2000; j++ {
				key := string(rune('a' + base))
				tier.Set(key, j, 1)
				tier.Get(key)
				if j%7 == 0 {
					tier.Remove(key)
				}
			}
		}(i)
	}
	wg.Wait()
}

type closerStub struct {
	onClose func()
}

func (c *closerStub) Close() { c.onClose() }
