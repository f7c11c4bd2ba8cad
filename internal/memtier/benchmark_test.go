package memtier

import "testing"

func BenchmarkSet(b *testing.B) {
	tier := New(WithAutoTrimInterval(0))
	defer tier.Stop()

	for i := 0; i < b.N; i++ {
		tier.Set("key", "value", 1)
	}
}

func BenchmarkGetHit(b *testing.B) {
	tier := New(WithAutoTrimInterval(0))
	defer tier.Stop()
	tier.Set("key", "value", 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tier.Get("key")
	}
}

func BenchmarkSetParallel(b *testing.B) {
	tier := New(WithAutoTrimInterval(0), WithCountLimit(10000))
	defer tier.Stop()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			tier.Set("key", "value", 1)
		}
	})
}
