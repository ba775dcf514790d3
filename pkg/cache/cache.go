// pkg/cache/cache.go
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"idadmin/pkg/config"
)

func MustRedis(cfg config.Config, log *zap.SugaredLogger) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalw("redis parse", "err", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(context.Background()).Err(); err != nil {
		log.Fatalw("redis ping", "err", err)
	}
	log.Infow("redis ready", "addr", opts.Addr)
	return cli
}

// CutoffCache holds recently fetched revocation cutoffs so the gateway's
// verify endpoint does not hit the backend once per request for the same
// account. The TTL bounds revocation staleness; keep it short.
type CutoffCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCutoffCache(rdb *redis.Client, ttl time.Duration) *CutoffCache {
	return &CutoffCache{rdb: rdb, ttl: ttl}
}

func (c *CutoffCache) key(uid string) string { return "idadmin:cutoff:" + uid }

// Get returns the cached cutoff millis for uid. Misses (and a nil redis
// client) report false.
func (c *CutoffCache) Get(ctx context.Context, uid string) (int64, bool) {
	if c == nil || c.rdb == nil {
		return 0, false
	}
	v, err := c.rdb.Get(ctx, c.key(uid)).Result()
	if err != nil {
		return 0, false
	}
	millis, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return millis, true
}

// Set records the cutoff millis for uid.
func (c *CutoffCache) Set(ctx context.Context, uid string, millis int64) {
	if c == nil || c.rdb == nil {
		return
	}
	_ = c.rdb.Set(ctx, c.key(uid), strconv.FormatInt(millis, 10), c.ttl).Err()
}
