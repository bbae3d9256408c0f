package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"ted_dashboard/internal/domain"
)

const trendsKey = "trends"

// QueryService reads pages and trends from the notices API through an
// optional read-through cache. Concurrent misses for the same key share one
// upstream call.
type QueryService struct {
	src      domain.NoticeSource
	cache    domain.Cache
	cacheTTL time.Duration
	group    singleflight.Group
}

func NewQueryService(src domain.NoticeSource, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{src: src, cache: c, cacheTTL: ttl}
}

// List dispatches on q.Source; it has the ListFunc signature.
func (s *QueryService) List(ctx context.Context, q domain.NoticeQuery) (domain.NoticePage, error) {
	if q.Source == domain.SourceLive {
		return s.SearchLive(ctx, q)
	}
	return s.ListNotices(ctx, q)
}

func (s *QueryService) ListNotices(ctx context.Context, q domain.NoticeQuery) (domain.NoticePage, error) {
	q.Source = domain.SourceStored
	return cached(ctx, s, "notices:"+q.Key(), func(ctx context.Context) (domain.NoticePage, error) {
		return s.src.ListNotices(ctx, q)
	})
}

func (s *QueryService) SearchLive(ctx context.Context, q domain.NoticeQuery) (domain.NoticePage, error) {
	q.Source = domain.SourceLive
	return cached(ctx, s, "notices:"+q.Key(), func(ctx context.Context) (domain.NoticePage, error) {
		return s.src.SearchLive(ctx, q)
	})
}

func (s *QueryService) Trends(ctx context.Context) (domain.Trends, error) {
	return cached(ctx, s, trendsKey, s.src.Trends)
}

func (s *QueryService) cacheEnabled() bool {
	return s.cache != nil && s.cacheTTL > 0
}

// cached serves key from cache or loads it once; errors are never cached.
func cached[T any](ctx context.Context, s *QueryService, key string, load func(context.Context) (T, error)) (T, error) {
	var out T
	if s.cacheEnabled() {
		if ok, err := s.cache.Get(ctx, key, &out); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		} else if ok {
			return out, nil
		}
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		res, err := load(ctx)
		if err != nil {
			return res, err
		}
		if s.cacheEnabled() {
			if err := s.cache.Set(ctx, key, res, int(s.cacheTTL.Seconds())); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("cache set failed")
			}
		}
		return res, nil
	})
	if err != nil {
		var zero T
		return zero, fmt.Errorf("load %s: %w", key, err)
	}
	if shared {
		log.Debug().Str("key", key).Msg("shared upstream call")
	}
	return v.(T), nil
}
