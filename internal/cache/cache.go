package cache

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/2beens/gymsession/internal/telemetry/metrics"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTTL       = 5 * time.Minute
	DefaultSizeBytes = 32 * 1024 * 1024
	// freecache refuses to allocate less than that
	minSizeBytes = 512 * 1024
	// every stored value starts with its expiry time, in unix nanoseconds
	expiryStampSize = 8
)

type Stats struct {
	Valid   int `json:"valid"`
	Expired int `json:"expired"`
	Total   int `json:"total"`
}

type Params struct {
	TTL       time.Duration
	SizeBytes int
	// Clock is used for entry timestamps and expiry checks; time.Now when nil.
	Clock   func() time.Time
	Metrics *metrics.Manager
}

// ResponseCache is a time-boxed store for read-mostly backend responses.
// Entries are evicted lazily: an expired entry is dropped by the Get that finds it.
// There is no background sweep.
type ResponseCache struct {
	store          *freecache.Cache
	ttl            time.Duration
	clock          func() time.Time
	metricsManager *metrics.Manager

	// mu makes generation checks atomic with writes and invalidations
	mu         sync.Mutex
	generation uint64
}

// clockTimer adapts a clock func to freecache's seconds based timer
type clockTimer struct {
	now func() time.Time
}

func (t clockTimer) Now() uint32 {
	return uint32(t.now().Unix())
}

func New(params Params) *ResponseCache {
	ttl := params.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	size := params.SizeBytes
	if size <= 0 {
		size = DefaultSizeBytes
	}
	if size < minSizeBytes {
		size = minSizeBytes
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}

	return &ResponseCache{
		store:          freecache.NewCacheCustomTimer(size, clockTimer{now: clock}),
		ttl:            ttl,
		clock:          clock,
		metricsManager: params.Metrics,
	}
}

func (c *ResponseCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the payload stored under key, if present and not expired.
func (c *ResponseCache) Get(key string) ([]byte, bool) {
	entry, err := c.store.Get([]byte(key))
	if err != nil {
		log.Tracef("response cache miss [%s]: %s", key, err)
		c.countMiss()
		return nil, false
	}

	payload, valid := c.unwrap(entry)
	if !valid {
		log.Tracef("response cache miss [%s]: expired", key)
		c.store.Del([]byte(key))
		c.countMiss()
		return nil, false
	}

	log.Tracef("response cache hit [%s]", key)
	if c.metricsManager != nil {
		c.metricsManager.CounterCacheHits.Inc()
	}
	return payload, true
}

func (c *ResponseCache) countMiss() {
	if c.metricsManager != nil {
		c.metricsManager.CounterCacheMisses.Inc()
	}
}

// unwrap splits a stored entry into its payload, and tells if it is still valid.
func (c *ResponseCache) unwrap(entry []byte) ([]byte, bool) {
	if len(entry) < expiryStampSize {
		return nil, false
	}
	expiresAt := int64(binary.BigEndian.Uint64(entry[:expiryStampSize]))
	return entry[expiryStampSize:], c.clock().UnixNano() < expiresAt
}

func (c *ResponseCache) Put(key string, payload []byte) error {
	return c.PutWithTTL(key, payload, c.ttl)
}

func (c *ResponseCache) PutWithTTL(key string, payload []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set(key, payload, ttl)
}

// Generation changes on every invalidation. Read it before starting a fetch
// and hand it to PutIfCurrent once the fetch returns.
func (c *ResponseCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// PutIfCurrent stores the payload only if no invalidation happened since
// generation was read. A fetch that started before a write must not
// re-populate the cache with pre-write data.
func (c *ResponseCache) PutIfCurrent(key string, payload []byte, generation uint64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != generation {
		log.Debugf("response cache: skip stale write for [%s]", key)
		return false, nil
	}
	if err := c.set(key, payload, c.ttl); err != nil {
		return false, err
	}
	return true, nil
}

func (c *ResponseCache) set(key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	entry := make([]byte, expiryStampSize+len(payload))
	binary.BigEndian.PutUint64(entry, uint64(c.clock().Add(ttl).UnixNano()))
	copy(entry[expiryStampSize:], payload)

	if err := c.store.Set([]byte(key), entry, ttlSeconds(ttl)); err != nil {
		return fmt.Errorf("cache set [%s]: %w", key, err)
	}
	if c.metricsManager != nil {
		c.metricsManager.GaugeCacheEntries.Set(float64(c.store.EntryCount()))
	}
	return nil
}

// Invalidate removes every entry whose key contains substring, and returns
// the number of removed entries.
func (c *ResponseCache) Invalidate(substring string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++

	var toRemove [][]byte
	it := c.store.NewIterator()
	for entry := it.Next(); entry != nil; entry = it.Next() {
		if strings.Contains(string(entry.Key), substring) {
			toRemove = append(toRemove, entry.Key)
		}
	}

	removed := 0
	for _, key := range toRemove {
		if c.store.Del(key) {
			removed++
		}
	}

	log.Debugf("response cache: invalidated %d entries matching [%s]", removed, substring)
	if c.metricsManager != nil {
		c.metricsManager.CounterCacheInvalidations.Add(float64(removed))
		c.metricsManager.GaugeCacheEntries.Set(float64(c.store.EntryCount()))
	}
	return removed
}

func (c *ResponseCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++

	total := c.store.EntryCount()
	c.store.Clear()
	log.Debugf("response cache: cleared %d entries", total)
	if c.metricsManager != nil {
		c.metricsManager.CounterCacheInvalidations.Add(float64(total))
		c.metricsManager.GaugeCacheEntries.Set(0)
	}
}

// Stats counts entries without evicting anything. Expired entries which
// were not read since they expired are still held, and counted as expired.
func (c *ResponseCache) Stats() Stats {
	valid := 0
	it := c.store.NewIterator()
	for entry := it.Next(); entry != nil; entry = it.Next() {
		if _, ok := c.unwrap(entry.Value); ok {
			valid++
		}
	}

	total := int(c.store.EntryCount())
	expired := total - valid
	if expired < 0 {
		expired = 0
	}
	return Stats{
		Valid:   valid,
		Expired: expired,
		Total:   total,
	}
}

// ttlSeconds is the freecache expiry, a hard bound only. freecache counts in
// whole seconds of the clock, so entries are held one second longer and the
// exact expiry stamp decides validity.
func ttlSeconds(ttl time.Duration) int {
	return int(math.Ceil(ttl.Seconds())) + 1
}
