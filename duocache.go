package duocache

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/duocache/duocache/internal/disktier"
	"github.com/duocache/duocache/internal/memtier"
)

// Codec supplies the object <-> bytes conversion the facade itself never
// performs (§1 Out of scope, §6 Serialization). Decode errors on
// promotion from disk are treated as BackendCorrupt: logged, and the read
// reported as a miss.
type Codec struct {
	Encode func(value any) ([]byte, error)
	Decode func(data []byte) (any, error)
}

// Cache composes an in-process memtier.Tier with a persistent
// disktier.Tier into the read-through/write-through facade described in
// §4.F.
type Cache struct {
	mem    *memtier.Tier
	disk   *disktier.Tier
	codec  Codec
	logger zerolog.Logger
	lock   *lockFile
	pool   *asyncPool
}

// Open opens (creating if needed) a cache identified by name, resolved
// against the conventional per-application cache directory
// (os.UserCacheDir()/name), per §4.F's "by name" construction form.
func Open(name string, codec Codec, opts ...Option) (*Cache, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return OpenPath(filepath.Join(base, name), codec, opts...)
}

// OpenPath opens (creating if needed) a cache rooted at an absolute
// directory path, per §4.F's "by path" construction form. Two live
// instances opened on the same path are undefined behavior (§9); an
// advisory LOCK file is written to help catch the mistake, not prevent it.
func OpenPath(path string, codec Codec, opts ...Option) (*Cache, error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, errors.Wrap(ErrBackendUnavailable, err.Error())
	}

	lock, err := acquireLock(path, s.logger)
	if err != nil {
		return nil, errors.Wrap(ErrBackendUnavailable, err.Error())
	}

	disk, err := disktier.Open(path, s.diskOpts...)
	if err != nil {
		lock.release()
		return nil, err
	}

	mem := memtier.New(s.memOpts...)

	return &Cache{
		mem:    mem,
		disk:   disk,
		codec:  codec,
		logger: s.logger,
		lock:   lock,
		pool:   newAsyncPool(),
	}, nil
}

// Contains reports whether key is present in either tier; a memory hit
// short-circuits without consulting disk (§4.F).
func (c *Cache) Contains(key string) bool {
	if key == "" {
		return false
	}
	if c.mem.Contains(key) {
		return true
	}
	return c.disk.Contains(key)
}

// Get returns the value for key. A memory hit returns immediately; on a
// memory miss, disk is consulted and, on a disk hit, the decoded value is
// promoted into memory before returning (§4.F, §8 property 5).
func (c *Cache) Get(key string) (any, bool) {
	if key == "" {
		return nil, false
	}
	if v, ok := c.mem.Get(key); ok {
		return v, true
	}

	data, ok := c.disk.Get(key)
	if !ok {
		return nil, false
	}

	value, err := c.codec.Decode(data)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("duocache: decode failed on disk promotion, treating as miss")
		return nil, false
	}

	// Promotion costs by encoded byte length, not the original Set cost,
	// which is gone once the memory tier evicted the entry; a round-trip
	// through disk can therefore change a key's memory-tier cost.
	c.mem.Set(key, value, int64(len(data)))
	return value, true
}

// Set writes value through to both tiers (§4.F). cost weights the memory
// tier's accounting; the disk tier's cost is always the encoded byte
// length. A nil value is equivalent to Remove.
func (c *Cache) Set(key string, value any, cost int64) error {
	if key == "" {
		return nil
	}
	if value == nil {
		c.Remove(key)
		return nil
	}

	data, err := c.codec.Encode(value)
	if err != nil {
		return err
	}

	c.mem.Set(key, value, cost)
	return c.disk.Set(key, data, nil)
}

// Remove deletes key from both tiers.
func (c *Cache) Remove(key string) {
	if key == "" {
		return
	}
	c.mem.Remove(key)
	c.disk.Remove(key)
}

// Clear empties both tiers.
func (c *Cache) Clear() {
	c.mem.Clear()
	c.disk.Clear()
}

// TrimToCount applies n to the memory tier and the disk tier independently.
func (c *Cache) TrimToCount(n int64) {
	c.mem.TrimToCount(n)
	c.disk.TrimToCount(n)
}

// TrimToCost applies cost to the memory tier and the disk tier independently.
func (c *Cache) TrimToCost(cost int64) {
	c.mem.TrimToCost(cost)
	c.disk.TrimToCost(cost)
}

// TrimToAge applies age to the memory tier and the disk tier independently.
func (c *Cache) TrimToAge(age time.Duration) {
	c.mem.TrimToAge(age)
	c.disk.TrimToAge(age)
}

// Stats is a point-in-time snapshot of both tiers' activity counters.
type Stats struct {
	Memory memtier.Stats
	Disk   disktier.Stats
}

// Stats returns a snapshot of both tiers.
func (c *Cache) Stats() Stats {
	return Stats{Memory: c.mem.Stats(), Disk: c.disk.Stats()}
}

// Flush issues a WAL checkpoint on the disk tier (§4.C).
func (c *Cache) Flush() error {
	return c.disk.Flush()
}

// OnLowMemory forwards the host's low-memory signal to the memory tier (§4.B).
func (c *Cache) OnLowMemory() { c.mem.OnLowMemory() }

// OnBackground forwards the host's backgrounding signal to the memory tier (§4.B).
func (c *Cache) OnBackground() { c.mem.OnBackground() }

// Collectors exposes the Prometheus instruments backing both tiers, for
// the embedder to register on its own registry.
func (c *Cache) Collectors() []prometheus.Collector {
	return append(c.mem.Collectors(), c.disk.Collectors()...)
}

// Close stops both tiers' background workers, flushes the disk manifest,
// and releases the advisory lock file.
func (c *Cache) Close() error {
	c.pool.stop()
	c.mem.Stop()
	err := c.disk.Close()
	c.lock.release()
	return err
}
