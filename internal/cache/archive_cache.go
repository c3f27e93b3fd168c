package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/cases"

	"github.com/irfndi/exohunter-go/internal/telemetry"
	"github.com/irfndi/exohunter-go/pkg/nasa"
)

const archivePrefix = "exoplanet:"

// ArchiveCacheEntry is a cached archive lookup with metadata.
type ArchiveCacheEntry struct {
	Result    nasa.LookupResult `json:"result"`
	CachedAt  time.Time         `json:"cached_at"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// ArchiveCacheStats tracks cache performance metrics.
type ArchiveCacheStats struct {
	Backend string `json:"backend"`
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
	Sets    int64  `json:"sets"`
	Entries int64  `json:"entries"`
}

// HitRate returns hits over lookups as a percentage.
func (s ArchiveCacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// ArchiveCache stores NASA Exoplanet Archive lookups keyed by planet name.
type ArchiveCache interface {
	Get(ctx context.Context, name string) (*nasa.LookupResult, bool)
	Set(ctx context.Context, name string, result *nasa.LookupResult)
	Clear(ctx context.Context) (int, error)
	GetStats() ArchiveCacheStats
}

// CacheKey normalises a planet name so "Kepler-452 b", "kepler-452  B" and
// " KEPLER-452 b " share an entry. Casers hold state, so one is built per call.
func CacheKey(name string) string {
	return archivePrefix + cases.Fold().String(strings.Join(strings.Fields(name), " "))
}

// NewArchiveCache returns a Redis cache when a client is available and an
// in-memory cache otherwise.
func NewArchiveCache(client *redis.Client, ttl time.Duration, logger *logrus.Logger) ArchiveCache {
	if client == nil {
		return NewInMemoryArchiveCache(ttl)
	}
	return NewRedisArchiveCache(client, ttl, logger)
}

type counters struct {
	mu     sync.RWMutex
	hits   int64
	misses int64
	sets   int64
}

func (c *counters) hit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}

func (c *counters) miss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}

func (c *counters) set() {
	c.mu.Lock()
	c.sets++
	c.mu.Unlock()
}

func (c *counters) snapshot(backend string, entries int64) ArchiveCacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ArchiveCacheStats{Backend: backend, Hits: c.hits, Misses: c.misses, Sets: c.sets, Entries: entries}
}

// RedisArchiveCache implements ArchiveCache on Redis.
type RedisArchiveCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
	stats  counters
}

// NewRedisArchiveCache creates a new Redis-based archive cache
func NewRedisArchiveCache(redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) *RedisArchiveCache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RedisArchiveCache{redis: redisClient, ttl: ttl, logger: logger}
}

// Get retrieves a cached lookup. Redis errors count as misses.
func (c *RedisArchiveCache) Get(ctx context.Context, name string) (*nasa.LookupResult, bool) {
	key := CacheKey(name)
	ctx, span := telemetry.StartSpan(ctx, telemetry.GetCacheTracer(), "cache.get",
		attribute.String("cache.key", key))
	defer span.End()

	data, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.stats.miss()
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Redis error reading archive cache")
		telemetry.RecordError(span, err)
		c.stats.miss()
		return nil, false
	}

	var entry ArchiveCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Discarding undecodable archive cache entry")
		c.stats.miss()
		return nil, false
	}

	c.stats.hit()
	span.SetAttributes(attribute.Bool("cache.hit", true))
	return &entry.Result, true
}

// Set stores a lookup under the folded planet name.
func (c *RedisArchiveCache) Set(ctx context.Context, name string, result *nasa.LookupResult) {
	if result == nil {
		return
	}
	key := CacheKey(name)
	ctx, span := telemetry.StartSpan(ctx, telemetry.GetCacheTracer(), "cache.set",
		attribute.String("cache.key", key))
	defer span.End()

	now := time.Now()
	data, err := json.Marshal(ArchiveCacheEntry{Result: *result, CachedAt: now, ExpiresAt: now.Add(c.ttl)})
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Error("Error serializing archive lookup")
		return
	}

	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Redis error writing archive cache")
		telemetry.RecordError(span, err)
		return
	}
	c.stats.set()
	c.logger.WithFields(logrus.Fields{"key": key, "rows": len(result.Data), "ttl": c.ttl}).Debug("Cached archive lookup")
}

// Clear removes every archive entry and returns how many were deleted.
func (c *RedisArchiveCache) Clear(ctx context.Context) (int, error) {
	keys, err := c.keys(ctx)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("error clearing archive cache: %w", err)
	}
	c.logger.WithField("entries", len(keys)).Info("Cleared archive cache")
	return len(keys), nil
}

func (c *RedisArchiveCache) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.redis.Scan(ctx, 0, archivePrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("error scanning archive cache keys: %w", err)
	}
	return keys, nil
}

// GetStats returns current cache statistics
func (c *RedisArchiveCache) GetStats() ArchiveCacheStats {
	var entries int64
	if keys, err := c.keys(context.Background()); err == nil {
		entries = int64(len(keys))
	}
	return c.stats.snapshot("redis", entries)
}

// InMemoryArchiveCache is the process-local fallback used without Redis.
type InMemoryArchiveCache struct {
	mu      sync.RWMutex
	entries map[string]ArchiveCacheEntry
	ttl     time.Duration
	now     func() time.Time
	stats   counters
}

// NewInMemoryArchiveCache creates an empty in-memory cache.
func NewInMemoryArchiveCache(ttl time.Duration) *InMemoryArchiveCache {
	return &InMemoryArchiveCache{
		entries: make(map[string]ArchiveCacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *InMemoryArchiveCache) Get(_ context.Context, name string) (*nasa.LookupResult, bool) {
	key := CacheKey(name)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.ExpiresAt) {
		if ok {
			c.mu.Lock()
			delete(c.entries, key)
			c.mu.Unlock()
		}
		c.stats.miss()
		return nil, false
	}

	c.stats.hit()
	result := entry.Result
	return &result, true
}

func (c *InMemoryArchiveCache) Set(_ context.Context, name string, result *nasa.LookupResult) {
	if result == nil {
		return
	}
	now := c.now()
	c.mu.Lock()
	c.entries[CacheKey(name)] = ArchiveCacheEntry{Result: *result, CachedAt: now, ExpiresAt: now.Add(c.ttl)}
	c.mu.Unlock()
	c.stats.set()
}

func (c *InMemoryArchiveCache) Clear(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]ArchiveCacheEntry)
	return n, nil
}

func (c *InMemoryArchiveCache) GetStats() ArchiveCacheStats {
	c.mu.RLock()
	entries := int64(len(c.entries))
	c.mu.RUnlock()
	return c.stats.snapshot("memory", entries)
}
