package support

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/dgraph-io/ristretto"

	"github.com/plugfox/helpdesk-server/internal/auth"
	config "github.com/plugfox/helpdesk-server/internal/config"
	apperr "github.com/plugfox/helpdesk-server/internal/errors"
	"github.com/plugfox/helpdesk-server/internal/model"
	"github.com/plugfox/helpdesk-server/internal/storage"
)

const (
	cacheKeyTop    = "top"
	cacheKeySystem = "system"
)

// Dashboard is the statistics bundle shown to moderators.
type Dashboard struct {
	Moderator *model.ModeratorStats
	Top       []model.TopModerator
	System    *model.SystemOverview
}

// StatsAggregator serves read-only rollups, cached for a short time.
type StatsAggregator struct {
	db     *storage.Storage
	config config.StatsConfig
	cache  *ristretto.Cache[string, any]
}

// NewStatsAggregator creates the aggregator. A zero cache TTL disables caching.
func NewStatsAggregator(db *storage.Storage, cfg config.StatsConfig) (*StatsAggregator, error) {
	if cfg.TopLimit <= 0 {
		cfg.TopLimit = 10
	}
	if cfg.DefaultResponseTime <= 0 {
		cfg.DefaultResponseTime = 45
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &StatsAggregator{db: db, config: cfg, cache: cache}, nil
}

// ModeratorStats returns the rollup of one moderator, zero valued when the
// moderator has no activity.
func (a *StatsAggregator) ModeratorStats(ctx context.Context, id model.UserID) (*model.ModeratorStats, error) {
	return cached(a, "moderator:"+strconv.FormatInt(id.ToInt64(), 10), func() (*model.ModeratorStats, error) {
		return a.db.ModeratorStats(ctx, id)
	})
}

// TopModerators returns the leaderboard.
func (a *StatsAggregator) TopModerators(ctx context.Context) ([]model.TopModerator, error) {
	return cached(a, cacheKeyTop, func() ([]model.TopModerator, error) {
		return a.db.TopModerators(ctx, a.config.TopLimit)
	})
}

// SystemOverview returns system wide counters with the satisfaction score
// derived from the average rating.
func (a *StatsAggregator) SystemOverview(ctx context.Context) (*model.SystemOverview, error) {
	return cached(a, cacheKeySystem, func() (*model.SystemOverview, error) {
		stats, err := a.db.SystemStats(ctx)
		if err != nil {
			return nil, err
		}

		overview := &model.SystemOverview{
			TotalTickets:        stats.TotalTickets,
			OpenTickets:         stats.OpenTickets,
			ClosedToday:         stats.ClosedToday,
			AverageResponseTime: int64(a.config.DefaultResponseTime),
		}
		if stats.AverageResponseTime.Valid {
			overview.AverageResponseTime = int64(math.Round(stats.AverageResponseTime.Float64))
		}
		if stats.AverageRating.Valid {
			overview.Satisfaction = satisfaction(stats.AverageRating.Float64)
		}
		return overview, nil
	})
}

// Dashboard bundles the statistics for a moderator. The caller's own stats
// are shown unless moderatorID selects another moderator.
func (a *StatsAggregator) Dashboard(ctx context.Context, caller *auth.Identity, moderatorID *model.UserID) (*Dashboard, error) {
	if err := requireModerator(ctx, a.db, caller); err != nil {
		return nil, err
	}
	id := caller.UserID
	if moderatorID != nil {
		if *moderatorID <= 0 {
			return nil, apperr.Validation("invalid moderator_id")
		}
		id = *moderatorID
	}

	moderator, err := a.ModeratorStats(ctx, id)
	if err != nil {
		return nil, err
	}
	top, err := a.TopModerators(ctx)
	if err != nil {
		return nil, err
	}
	system, err := a.SystemOverview(ctx)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Moderator: moderator, Top: top, System: system}, nil
}

// Invalidate drops every cached rollup.
func (a *StatsAggregator) Invalidate() {
	a.cache.Clear()
}

// Close stops the cache goroutines.
func (a *StatsAggregator) Close() {
	a.cache.Close()
}

func cached[T any](a *StatsAggregator, key string, load func() (T, error)) (T, error) {
	if a.config.CacheTTL > 0 {
		if value, ok := a.cache.Get(key); ok {
			typed, ok := value.(T)
			if !ok {
				return typed, apperr.WrapUnexpectedType(fmt.Sprintf("%T", typed), value)
			}
			return typed, nil
		}
	}

	value, err := load()
	if err != nil {
		return value, err
	}
	if a.config.CacheTTL > 0 {
		a.cache.SetWithTTL(key, value, 1, a.config.CacheTTL)
		a.cache.Wait()
	}
	return value, nil
}

// satisfaction maps an average rating on the 1..5 scale to 0..100.
func satisfaction(avg float64) float64 {
	return math.Max(0, math.Min(100, avg*100/5))
}

