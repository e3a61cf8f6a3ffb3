package infrastructure

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// CacheEntry is a stored value with an expiration deadline.
type CacheEntry struct {
	Value      interface{}
	Expiration time.Time
}

// IsExpired reports whether the entry is past its deadline.
func (e CacheEntry) IsExpired() bool {
	return time.Now().After(e.Expiration)
}

// Cache abstracts the in-memory cache so services and collaborator
// decorators can be tested with a fake.
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, ttl time.Duration)
	Delete(key string)
	Clear()
	Has(key string) bool
}

// InMemoryCache is a TTL cache guarded by a RWMutex.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry
}

// NewInMemoryCache creates an in-memory cache and starts its janitor.
func NewInMemoryCache() *InMemoryCache {
	cache := &InMemoryCache{
		entries: make(map[string]CacheEntry),
	}
	go cache.cleanupExpired()
	return cache
}

// Get returns the live value for key, if any.
func (c *InMemoryCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || entry.IsExpired() {
		return nil, false
	}
	return entry.Value, true
}

// Set stores value under key for the given TTL.
func (c *InMemoryCache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = CacheEntry{
		Value:      value,
		Expiration: time.Now().Add(ttl),
	}
}

// Delete removes key from the cache.
func (c *InMemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Clear drops every entry.
func (c *InMemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]CacheEntry)
}

// Has reports whether key holds a live value.
func (c *InMemoryCache) Has(key string) bool {
	_, exists := c.Get(key)
	return exists
}

// cleanupExpired periodically evicts expired entries.
func (c *InMemoryCache) cleanupExpired() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		for key, entry := range c.entries {
			if entry.IsExpired() {
				delete(c.entries, key)
			}
		}
		c.mu.Unlock()
	}
}

// ShardedCache spreads keys over several InMemoryCaches to reduce lock
// contention when per-window computations run in parallel.
type ShardedCache struct {
	shards    []*InMemoryCache
	shardMask uint32
}

// NewShardedCache creates a cache with shardCount shards.
// shardCount must be a power of 2.
func NewShardedCache(shardCount int) *ShardedCache {
	if shardCount <= 0 || (shardCount&(shardCount-1)) != 0 {
		panic("shardCount must be a power of 2")
	}

	shards := make([]*InMemoryCache, shardCount)
	for i := 0; i < shardCount; i++ {
		shards[i] = NewInMemoryCache()
	}

	return &ShardedCache{
		shards:    shards,
		shardMask: uint32(shardCount - 1),
	}
}

func (sc *ShardedCache) getShard(key string) *InMemoryCache {
	hash := fnv32(key)
	return sc.shards[hash&sc.shardMask]
}

// Get returns the live value for key, if any.
func (sc *ShardedCache) Get(key string) (interface{}, bool) {
	return sc.getShard(key).Get(key)
}

// Set stores value under key for the given TTL.
func (sc *ShardedCache) Set(key string, value interface{}, ttl time.Duration) {
	sc.getShard(key).Set(key, value, ttl)
}

// Delete removes key from its shard.
func (sc *ShardedCache) Delete(key string) {
	sc.getShard(key).Delete(key)
}

// Clear drops every entry in every shard.
func (sc *ShardedCache) Clear() {
	for _, shard := range sc.shards {
		shard.Clear()
	}
}

// Has reports whether key holds a live value.
func (sc *ShardedCache) Has(key string) bool {
	return sc.getShard(key).Has(key)
}

// fnv32 is FNV-1a, used only to pick a shard.
func fnv32(key string) uint32 {
	hash := uint32(2166136261)
	const prime32 = uint32(16777619)
	for i := 0; i < len(key); i++ {
		hash ^= uint32(key[i])
		hash *= prime32
	}
	return hash
}

// KeyBuilder assembles colon-separated cache keys without intermediate
// string allocations.
type KeyBuilder struct {
	b strings.Builder
}

// NewKeyBuilder creates an empty key builder.
func NewKeyBuilder() *KeyBuilder {
	kb := &KeyBuilder{}
	kb.b.Grow(64)
	return kb
}

// Add appends a string part.
func (kb *KeyBuilder) Add(part string) *KeyBuilder {
	if kb.b.Len() > 0 {
		kb.b.WriteByte(':')
	}
	kb.b.WriteString(part)
	return kb
}

// AddInt appends an integer part.
func (kb *KeyBuilder) AddInt(value int) *KeyBuilder {
	return kb.Add(strconv.Itoa(value))
}

// AddTime appends a day-granularity timestamp part.
func (kb *KeyBuilder) AddTime(t time.Time) *KeyBuilder {
	return kb.Add(t.Format("2006-01-02"))
}

// AddBool appends a boolean part.
func (kb *KeyBuilder) AddBool(v bool) *KeyBuilder {
	return kb.Add(strconv.FormatBool(v))
}

// Build returns the assembled key.
func (kb *KeyBuilder) Build() string {
	return kb.b.String()
}
