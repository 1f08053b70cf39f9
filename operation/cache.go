// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package operation // import "go.opentelemetry.io/dependency-collector/operation"

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/elastic/go-freelru"
	log "github.com/sirupsen/logrus"
	"github.com/zeebo/xxh3"

	"go.opentelemetry.io/dependency-collector/metrics"
	"go.opentelemetry.io/dependency-collector/periodiccaller"
)

// Times is the subset of times.IntervalsAndTimers used by Cache.
type Times interface {
	CacheLifetime() time.Duration
	SweepInterval() time.Duration
}

// Statistics holds the internal counters of a Cache.
type Statistics struct {
	// Number of times for a hit of a cache entry.
	Hit uint64
	// Number of times for a miss of a cache entry.
	Miss uint64
	// Number of elements that were added to the cache.
	Added uint64
	// Number of elements that were removed from the cache, for any reason.
	Deleted uint64
	// Number of elements that were purged by the sweep after their lifetime ended.
	Expired uint64
}

// Cache maps numeric call identifiers to in-progress records. Entries that were
// not touched for the configured lifetime are purged by a background sweep, which
// bounds memory when an end notification never arrives.
//
// Storing under an existing id replaces the record.
type Cache struct {
	// mu guards lru. Critical sections are constant time except for the sweep.
	mu       sync.Mutex
	lru      *lru.LRU[int64, *Record]
	lifetime time.Duration

	stopSweep func()
	closeOnce sync.Once

	hit     atomic.Uint64
	miss    atomic.Uint64
	added   atomic.Uint64
	deleted atomic.Uint64
	expired atomic.Uint64
}

func hashID(id int64) uint32 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(id))
	return uint32(xxh3.Hash(b[:]))
}

// NewCache creates a Cache holding at most capacity records and starts its
// eviction sweep. The sweep runs until ctx is canceled or Close is called.
func NewCache(ctx context.Context, capacity uint32, intervals Times) (*Cache, error) {
	l, err := lru.New[int64, *Record](capacity, hashID)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation cache: %w", err)
	}
	lifetime := intervals.CacheLifetime()
	// Do not hold unmatched begins indefinitely.
	l.SetLifetime(lifetime)

	c := &Cache{
		lru:      l,
		lifetime: lifetime,
	}
	c.stopSweep = periodiccaller.Start(ctx, intervals.SweepInterval(), c.sweep)
	return c, nil
}

// Store inserts or overwrites the record for id and resets its eviction clock.
func (c *Cache) Store(id int64, rec *Record) error {
	if rec.empty() {
		return fmt.Errorf("%w: empty record for id %d", ErrInvalidArgument, id)
	}

	c.mu.Lock()
	evicted := c.lru.Add(id, rec)
	c.mu.Unlock()

	c.added.Add(1)
	if evicted {
		c.deleted.Add(1)
	}
	return nil
}

// StoreIfAbsent stores rec for id unless a live record already exists. It returns
// the record that is live for id afterwards and whether rec was stored.
func (c *Cache) StoreIfAbsent(id int64, rec *Record) (actual *Record, stored bool, err error) {
	if rec.empty() {
		return nil, false, fmt.Errorf("%w: empty record for id %d", ErrInvalidArgument, id)
	}

	c.mu.Lock()
	if cur, ok := c.lru.GetAndRefresh(id, c.lifetime); ok {
		c.mu.Unlock()
		return cur, false, nil
	}
	evicted := c.lru.Add(id, rec)
	c.mu.Unlock()

	c.added.Add(1)
	if evicted {
		c.deleted.Add(1)
	}
	return rec, true, nil
}

// Get returns the record for id and refreshes its eviction clock.
func (c *Cache) Get(id int64) (*Record, bool) {
	c.mu.Lock()
	rec, ok := c.lru.GetAndRefresh(id, c.lifetime)
	c.mu.Unlock()

	if ok {
		c.hit.Add(1)
	} else {
		c.miss.Add(1)
	}
	return rec, ok
}

// Remove removes the record for id and reports whether one was present.
func (c *Cache) Remove(id int64) bool {
	c.mu.Lock()
	present := c.lru.Remove(id)
	c.mu.Unlock()

	if present {
		c.deleted.Add(1)
	}
	return present
}

// CompareAndRemove removes the record for id only if it is rec.
func (c *Cache) CompareAndRemove(id int64, rec *Record) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.lru.Peek(id)
	if !ok || cur != rec {
		return false
	}
	if c.lru.Remove(id) {
		c.deleted.Add(1)
		return true
	}
	return false
}

// Len returns the number of records, including expired ones not yet swept.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Statistics returns the internal counters of the cache.
func (c *Cache) Statistics() Statistics {
	return Statistics{
		Hit:     c.hit.Load(),
		Miss:    c.miss.Load(),
		Added:   c.added.Load(),
		Deleted: c.deleted.Load(),
		Expired: c.expired.Load(),
	}
}

// Sweep purges all records whose lifetime ended and returns their number.
// It is called periodically by the background sweep.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	before := c.lru.Len()
	c.lru.PurgeExpired()
	purged := before - c.lru.Len()
	c.mu.Unlock()

	if purged > 0 {
		c.expired.Add(uint64(purged))
		c.deleted.Add(uint64(purged))
	}
	return purged
}

func (c *Cache) sweep() {
	n := c.Sweep()
	if n > 0 {
		metrics.Add(metrics.IDOperationCacheExpired, metrics.MetricValue(n))
		log.Debugf("Purged %d expired operations", n)
	}
	metrics.Add(metrics.IDOperationCacheSize, metrics.MetricValue(c.Len()))
}

// Close stops the background sweep. The cache must not be used afterwards.
func (c *Cache) Close() {
	c.closeOnce.Do(c.stopSweep)
}
