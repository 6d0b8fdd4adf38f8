// internal/cache/analytics_cache.go
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yellow444/shelfmetrics/internal/config"
	"github.com/yellow444/shelfmetrics/internal/domain"
)

const (
	analyticsRowsKeyPrefix = "analytics:rows"
	analyticsScanBatchSize = 100

	defaultResultTTL = time.Minute
	redisDialTimeout = 5 * time.Second
)

// QueryKey identifies one cached query result. The snapshot version is part of
// the key, so rows computed against a superseded dataset are never served after
// a refresh.
type QueryKey struct {
	StartTs         int64
	EndTs           int64
	SnapshotVersion int64
}

// AnalyticsCache caches ranked result rows per query window and snapshot.
type AnalyticsCache interface {
	GetRows(ctx context.Context, key QueryKey) ([]domain.ItemRow, bool, error)
	SetRows(ctx context.Context, key QueryKey, rows []domain.ItemRow) error
	InvalidateAll(ctx context.Context) error
}

type redisAnalyticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopAnalyticsCache struct{}

// NewAnalyticsCache returns a redis-backed cache when enabled in config, a noop
// cache otherwise.
func NewAnalyticsCache(cfg config.CacheConfig) (AnalyticsCache, error) {
	if !cfg.Enabled {
		return &noopAnalyticsCache{}, nil
	}

	client, err := connectRedis(cfg)
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(cfg.ResultTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultResultTTL
	}

	return &redisAnalyticsCache{client: client, ttl: ttl}, nil
}

// connectRedis dials and pings redis. REDIS_URL wins over the host/port pair.
func connectRedis(cfg config.CacheConfig) (*redis.Client, error) {
	var opts *redis.Options
	if cfg.RedisURL != "" {
		parsed, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func NewNoopAnalyticsCache() AnalyticsCache {
	return &noopAnalyticsCache{}
}

func (c *redisAnalyticsCache) GetRows(ctx context.Context, key QueryKey) ([]domain.ItemRow, bool, error) {
	payload, err := c.client.Get(ctx, buildRowsKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var rows []domain.ItemRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, false, fmt.Errorf("decode analytics rows cache: %w", err)
	}
	return rows, true, nil
}

func (c *redisAnalyticsCache) SetRows(ctx context.Context, key QueryKey, rows []domain.ItemRow) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode analytics rows cache: %w", err)
	}

	if err := c.client.Set(ctx, buildRowsKey(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// InvalidateAll removes every cached result row set. Runs after each snapshot
// publication; stale entries would otherwise only age out via TTL.
func (c *redisAnalyticsCache) InvalidateAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, analyticsRowsKeyPrefix+"*", analyticsScanBatchSize).Iterator()

	batch := make([]string, 0, analyticsScanBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis delete failed: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= analyticsScanBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	return flush()
}

func (n *noopAnalyticsCache) GetRows(ctx context.Context, key QueryKey) ([]domain.ItemRow, bool, error) {
	return nil, false, nil
}

func (n *noopAnalyticsCache) SetRows(ctx context.Context, key QueryKey, rows []domain.ItemRow) error {
	return nil
}

func (n *noopAnalyticsCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildRowsKey(key QueryKey) string {
	raw := fmt.Sprintf("start=%d|end=%d|version=%d", key.StartTs, key.EndTs, key.SnapshotVersion)
	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s:%s", analyticsRowsKeyPrefix, hex.EncodeToString(sum[:]))
}
