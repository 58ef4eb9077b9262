package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-engine/internal/domain"
	"github.com/simaogato/portfolio-engine/internal/logger"
)

// ProjectionCache caches computed projection series in Redis.
//
// Cache failures are never fatal: a miss or a Redis error degrades to
// recomputing the series. Previews with draft changes must never be
// cached; the handler only consults the cache for plain GET requests.
type ProjectionCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewProjectionCache creates a new ProjectionCache instance
func NewProjectionCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *ProjectionCache {
	return &ProjectionCache{client: client, ttl: ttl, log: log}
}

// Key builds the cache key for a projection request.
func Key(portfolioID uuid.UUID, start, end time.Time, totalOverride *decimal.Decimal) string {
	override := "-"
	if totalOverride != nil {
		override = totalOverride.String()
	}
	return fmt.Sprintf("projection:%s:%s:%s:%s",
		portfolioID, start.Format("2006-01-02"), end.Format("2006-01-02"), override)
}

type cachedPoint struct {
	Date  string `json:"date"`
	Total string `json:"total"`
}

// Get returns the cached series for a key, or false on miss or error.
func (c *ProjectionCache) Get(ctx context.Context, key string) ([]domain.ProjectionPoint, bool) {
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warnw("projection cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	var cached []cachedPoint
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		c.log.Warnw("dropping undecodable projection cache entry", "key", key, "error", err)
		return nil, false
	}

	points := make([]domain.ProjectionPoint, 0, len(cached))
	for _, point := range cached {
		date, err := time.Parse("2006-01-02", point.Date)
		if err != nil {
			return nil, false
		}
		total, err := decimal.NewFromString(point.Total)
		if err != nil {
			return nil, false
		}
		points = append(points, domain.ProjectionPoint{Date: date, Total: total})
	}
	return points, true
}

// Set stores a computed series under a key with the configured TTL.
func (c *ProjectionCache) Set(ctx context.Context, key string, points []domain.ProjectionPoint) {
	cached := make([]cachedPoint, 0, len(points))
	for _, point := range points {
		cached = append(cached, cachedPoint{
			Date:  point.Date.Format("2006-01-02"),
			Total: point.Total.String(),
		})
	}

	raw, err := json.Marshal(cached)
	if err != nil {
		c.log.Warnw("failed to encode projection series for cache", "key", key, "error", err)
		return
	}

	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warnw("projection cache write failed", "key", key, "error", err)
	}
}

// InvalidatePortfolio drops every cached series of a portfolio. Called
// after asset or planned-change writes.
func (c *ProjectionCache) InvalidatePortfolio(ctx context.Context, portfolioID uuid.UUID) {
	pattern := fmt.Sprintf("projection:%s:*", portfolioID)
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.log.Warnw("projection cache invalidation failed", "portfolio_id", portfolioID, "error", err)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.log.Warnw("projection cache delete failed", "portfolio_id", portfolioID, "error", err)
				return
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}
