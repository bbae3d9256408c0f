package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	redisad "ted_dashboard/internal/adapters/redis"
	"ted_dashboard/internal/adapters/tedapi"
	"ted_dashboard/internal/app"
	"ted_dashboard/internal/domain"
)

// NewQueryService wires the API client and, when configured, the Redis
// cache. The returned close func releases the cache connection.
func NewQueryService(ctx context.Context, cfg Config) (*app.QueryService, func(), error) {
	client, err := tedapi.New(tedapi.Options{
		BaseURL: cfg.APIBase,
		APIKey:  cfg.APIKey,
		RPS:     cfg.APIRPS,
		Retries: cfg.APIRetries,
		Timeout: cfg.APITimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("api client: %w", err)
	}

	var cache domain.Cache
	closeFn := func() {}
	if cfg.CacheEnabled() {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, "tenders:")
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := rc.Ping(pctx); err != nil {
			// a cold cache is not fatal; serve straight from the API
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, cache disabled")
			_ = rc.Close()
		} else {
			log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.CacheTTL).Msg("redis cache enabled")
			cache = rc
			closeFn = func() { _ = rc.Close() }
		}
	}
	return app.NewQueryService(client, cache, cfg.CacheTTL), closeFn, nil
}
