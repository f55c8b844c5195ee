package marketdata

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"FinNarrative/internal/domain/models"
	drepo "FinNarrative/internal/domain/repository"
	"FinNarrative/internal/service/cache"
	applogger "FinNarrative/pkg/logger"
)

// CachedSource caches bar histories and coalesces concurrent fetches of the
// same (symbol, n).
type CachedSource struct {
	next  drepo.NamedSource
	cache cache.BytesCache
	ttl   time.Duration
	group singleflight.Group
	log   *applogger.Logger
}

func NewCachedSource(next drepo.NamedSource, c cache.BytesCache, ttl time.Duration, log *applogger.Logger) *CachedSource {
	return &CachedSource{next: next, cache: c, ttl: ttl, log: log.Component("marketdata")}
}

func (s *CachedSource) Name() string { return s.next.Name() }

func (s *CachedSource) DailyBars(ctx context.Context, symbol string, n int) ([]models.DailyBar, error) {
	key := cache.Key("bars", s.next.Name(), symbol, n)

	var bars []models.DailyBar
	if ok, err := cache.GetValue(ctx, s.cache, key, &bars); err != nil {
		s.log.Warn("bar cache read failed", applogger.String("key", key), applogger.Error(err))
	} else if ok {
		return bars, nil
	}

	ch := s.group.DoChan(key, func() (interface{}, error) {
		// detached so one caller's cancellation does not fail the others
		fetchCtx := context.WithoutCancel(ctx)
		bars, err := s.next.DailyBars(fetchCtx, symbol, n)
		if err != nil {
			return nil, err
		}
		if err := cache.SetValue(fetchCtx, s.cache, key, bars, s.ttl); err != nil {
			s.log.Warn("bar cache write failed", applogger.String("key", key), applogger.Error(err))
		}
		return bars, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]models.DailyBar), nil
	}
}
