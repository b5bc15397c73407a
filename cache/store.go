package cache

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/wndudzz6/github-profile-api/config"
)

// Store is the key value backend shared by the revalidation cache and the
// per-profile cache. A zero ttl means the entry never expires.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetEx(ctx context.Context, key string, ttl time.Duration, value string) error
}

// NewStore selects the backend from configuration. Redis without a URL falls
// back to the in-process store, the service stays usable without any external
// dependency.
func NewStore(cfg config.CacheConfig) (Store, error) {
	if cfg.Backend == "redis" {
		if cfg.RedisURL == "" {
			log.Warn("redis cache backend selected without a redis url, falling back to the in-memory store")
			return NewMemoryStore(), nil
		}

		return NewRedisStore(cfg.RedisURL)
	}

	return NewMemoryStore(), nil
}
