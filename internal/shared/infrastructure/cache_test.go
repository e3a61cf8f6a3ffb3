package infrastructure

import (
	"fmt"
	"testing"
	"time"
)

func TestInMemoryCacheSetGet(t *testing.T) {
	cache := NewInMemoryCache()
	cache.Set("key", "value", 5*time.Minute)

	got, ok := cache.Get("key")
	if !ok {
		t.Fatal("expected key to be present")
	}
	if got != "value" {
		t.Fatalf("got %v, want value", got)
	}
}

func TestInMemoryCacheExpiration(t *testing.T) {
	cache := NewInMemoryCache()
	cache.Set("key", "value", -1*time.Second) // already expired

	if _, ok := cache.Get("key"); ok {
		t.Fatal("expected expired entry to be a miss")
	}
	if cache.Has("key") {
		t.Fatal("Has must not report expired entries")
	}
}

func TestInMemoryCacheDeleteAndClear(t *testing.T) {
	cache := NewInMemoryCache()
	cache.Set("a", 1, 5*time.Minute)
	cache.Set("b", 2, 5*time.Minute)

	cache.Delete("a")
	if cache.Has("a") {
		t.Fatal("expected a to be deleted")
	}
	if !cache.Has("b") {
		t.Fatal("expected b to survive the delete")
	}

	cache.Clear()
	if cache.Has("b") {
		t.Fatal("expected clear to drop everything")
	}
}

func TestShardedCacheRoutesAllKeys(t *testing.T) {
	cache := NewShardedCache(16)

	for i := 0; i < 100; i++ {
		cache.Set(fmt.Sprintf("key%d", i), i, 5*time.Minute)
	}
	for i := 0; i < 100; i++ {
		got, ok := cache.Get(fmt.Sprintf("key%d", i))
		if !ok || got != i {
			t.Fatalf("key%d: got %v, %v", i, got, ok)
		}
	}

	cache.Clear()
	for i := 0; i < 100; i++ {
		if cache.Has(fmt.Sprintf("key%d", i)) {
			t.Fatalf("key%d survived Clear", i)
		}
	}
}

func TestShardedCacheRejectsNonPowerOfTwo(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for shardCount 3")
		}
	}()
	NewShardedCache(3)
}

func TestKeyBuilder(t *testing.T) {
	key := NewKeyBuilder().
		Add("sales").
		Add("ds-1").
		AddTime(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)).
		AddInt(30).
		AddBool(true).
		Build()

	want := "sales:ds-1:2024-05-01:30:true"
	if key != want {
		t.Fatalf("got %q, want %q", key, want)
	}
}

func BenchmarkShardedCacheGet(b *testing.B) {
	cache := NewShardedCache(16)
	cache.Set("key", "value", 5*time.Minute)

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = cache.Get("key")
		}
	})
}

func BenchmarkKeyBuilder(b *testing.B) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = NewKeyBuilder().
			Add("sales").
			Add("ds-1").
			AddTime(day).
			Build()
	}
}
