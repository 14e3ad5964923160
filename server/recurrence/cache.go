package recurrence

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/meonghae/profile-service/server/storage"
	"github.com/robfig/cron/v3"
)

const opExpand = "expand"

// CacheEntry represents a cached expansion result
type CacheEntry struct {
	Result     interface{}
	ExpiresAt  time.Time
	AccessedAt time.Time
}

// RecurrenceCache caches window expansions keyed by schedule policy and
// window bounds.
type RecurrenceCache struct {
	entries    map[string]*CacheEntry
	mutex      sync.RWMutex
	ttl        time.Duration
	maxEntries int
	scheduler  *cron.Cron
	now        func() time.Time
	logger     *slog.Logger
}

// CacheConfig holds configuration for the recurrence cache
type CacheConfig struct {
	TTL             time.Duration // How long entries stay valid
	MaxEntries      int           // Maximum number of entries before cleanup
	CleanupInterval time.Duration // How often to run cleanup
	// CleanupSpec is a cron spec for cleanup runs. It overrides
	// CleanupInterval when set.
	CleanupSpec string
}

// DefaultCacheConfig provides sensible defaults for recurrence caching
var DefaultCacheConfig = CacheConfig{
	TTL:             15 * time.Minute,
	MaxEntries:      1000,
	CleanupInterval: 5 * time.Minute,
}

// cleanupSpec returns the cron spec the cleanup job runs on, or "" when no
// periodic cleanup is configured.
func (c CacheConfig) cleanupSpec() string {
	if c.CleanupSpec != "" {
		return c.CleanupSpec
	}
	if c.CleanupInterval > 0 {
		return "@every " + c.CleanupInterval.String()
	}
	return ""
}

// NewRecurrenceCache creates a new recurrence cache with the given
// configuration and starts its cleanup job.
func NewRecurrenceCache(config CacheConfig, logger *slog.Logger) *RecurrenceCache {
	if logger == nil {
		logger = discardLogger()
	}
	cache := &RecurrenceCache{
		entries:    make(map[string]*CacheEntry),
		ttl:        config.TTL,
		maxEntries: config.MaxEntries,
		now:        time.Now,
		logger:     logger,
	}

	if spec := config.cleanupSpec(); spec != "" {
		scheduler := cron.New()
		if _, err := scheduler.AddFunc(spec, cache.runCleanup); err != nil {
			logger.Error("invalid cache cleanup schedule, periodic cleanup disabled", "spec", spec, "error", err)
		} else {
			cache.scheduler = scheduler
			scheduler.Start()
		}
	}

	return cache
}

// generateCacheKey hashes every schedule field that affects expansion
// together with the window bounds.
func (c *RecurrenceCache) generateCacheKey(operation string, s storage.Schedule, rangeStart, rangeEnd time.Time) string {
	hasher := sha256.New()

	hasher.Write([]byte(operation))
	hasher.Write([]byte(strconv.FormatInt(s.ID, 10)))
	hasher.Write([]byte(s.ScheduleTime.Format(time.RFC3339Nano)))
	hasher.Write([]byte(s.ScheduleTime.Location().String()))
	hasher.Write([]byte(s.ScheduleEndTime.Format(time.RFC3339Nano)))
	hasher.Write([]byte(strconv.FormatBool(s.HasRepeat)))
	hasher.Write([]byte(strconv.Itoa(int(s.CycleType))))
	hasher.Write([]byte(strconv.Itoa(s.Cycle)))
	hasher.Write([]byte(rangeStart.Format(time.RFC3339Nano)))
	hasher.Write([]byte(rangeEnd.Format(time.RFC3339Nano)))

	return fmt.Sprintf("%x", hasher.Sum(nil))
}

// Get retrieves a cached result if it exists and hasn't expired
func (c *RecurrenceCache) Get(operation string, s storage.Schedule, rangeStart, rangeEnd time.Time) (interface{}, bool) {
	key := c.generateCacheKey(operation, s, rangeStart, rangeEnd)

	c.mutex.RLock()
	entry, exists := c.entries[key]
	c.mutex.RUnlock()

	if !exists {
		return nil, false
	}

	now := c.now()
	if now.After(entry.ExpiresAt) {
		c.mutex.Lock()
		delete(c.entries, key)
		c.mutex.Unlock()
		return nil, false
	}

	c.mutex.Lock()
	entry.AccessedAt = now
	c.mutex.Unlock()

	return entry.Result, true
}

// Set stores a result in the cache
func (c *RecurrenceCache) Set(operation string, s storage.Schedule, rangeStart, rangeEnd time.Time, result interface{}) {
	key := c.generateCacheKey(operation, s, rangeStart, rangeEnd)
	now := c.now()

	entry := &CacheEntry{
		Result:     result,
		ExpiresAt:  now.Add(c.ttl),
		AccessedAt: now,
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = entry

	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.cleanup()
	}
}

func (c *RecurrenceCache) runCleanup() {
	c.mutex.Lock()
	before := len(c.entries)
	c.cleanup()
	after := len(c.entries)
	c.mutex.Unlock()

	if before != after {
		c.logger.Debug("recurrence cache cleanup", "removed", before-after, "remaining", after)
	}
}

// cleanup removes expired entries, then the least recently accessed ones
// while over the limit. Callers hold the write lock.
func (c *RecurrenceCache) cleanup() {
	now := c.now()

	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
		}
	}

	if c.maxEntries <= 0 || len(c.entries) <= c.maxEntries {
		return
	}

	type keyAccess struct {
		key        string
		accessedAt time.Time
	}
	keyAccessList := make([]keyAccess, 0, len(c.entries))
	for key, entry := range c.entries {
		keyAccessList = append(keyAccessList, keyAccess{key: key, accessedAt: entry.AccessedAt})
	}
	sort.Slice(keyAccessList, func(i, j int) bool {
		return keyAccessList[i].accessedAt.Before(keyAccessList[j].accessedAt)
	})

	entriesToRemove := len(c.entries) - c.maxEntries
	for i := 0; i < entriesToRemove; i++ {
		delete(c.entries, keyAccessList[i].key)
	}
}

// Close stops the cleanup job and clears the cache
func (c *RecurrenceCache) Close() {
	if c.scheduler != nil {
		<-c.scheduler.Stop().Done()
	}
	c.mutex.Lock()
	c.entries = make(map[string]*CacheEntry)
	c.mutex.Unlock()
}

// Stats returns cache statistics
func (c *RecurrenceCache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entryCount := len(c.entries)
	expiredCount := 0
	now := c.now()

	for _, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			expiredCount++
		}
	}

	return CacheStats{
		TotalEntries:   entryCount,
		ExpiredEntries: expiredCount,
		ActiveEntries:  entryCount - expiredCount,
	}
}

// CacheStats provides information about cache performance
type CacheStats struct {
	TotalEntries   int
	ExpiredEntries int
	ActiveEntries  int
}
