package cache

import (
	"context"
	"time"

	"github.com/google/uuid"

	"propnest/internal/model"
)

const (
	BuildingsCacheTTL  = 10 * time.Minute
	ShortlistCacheTTL  = 30 * time.Minute
	RateLimitWindowTTL = 1 * time.Minute
)

func BuildingsKey() string {
	return "buildings:all"
}

func ShortlistKey(userID uuid.UUID) string {
	return "shortlist:user:" + userID.String()
}

func RateLimitKey(scope, clientIP string) string {
	return "ratelimit:" + scope + ":ip:" + clientIP
}

// GetBuildings returns the cached building list or ErrCacheMiss
func (c *Cache) GetBuildings(ctx context.Context) ([]model.Building, error) {
	var buildings []model.Building
	if err := c.Get(ctx, BuildingsKey(), &buildings); err != nil {
		return nil, err
	}
	return buildings, nil
}

func (c *Cache) SetBuildings(ctx context.Context, buildings []model.Building) error {
	return c.Set(ctx, BuildingsKey(), buildings, BuildingsCacheTTL)
}

func (c *Cache) InvalidateBuildings(ctx context.Context) error {
	return c.Delete(ctx, BuildingsKey())
}

// GetShortlist returns the cached shortlisted building ids or ErrCacheMiss
func (c *Cache) GetShortlist(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var ids []string
	if err := c.Get(ctx, ShortlistKey(userID), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *Cache) SetShortlist(ctx context.Context, userID uuid.UUID, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return c.Set(ctx, ShortlistKey(userID), ids, ShortlistCacheTTL)
}

func (c *Cache) InvalidateShortlist(ctx context.Context, userID uuid.UUID) error {
	return c.Delete(ctx, ShortlistKey(userID))
}

// Allow counts a hit for clientIP in scope and reports whether it is within limit
func (c *Cache) Allow(ctx context.Context, scope, clientIP string, limit int64) (bool, error) {
	n, err := c.IncrementWithExpiry(ctx, RateLimitKey(scope, clientIP), RateLimitWindowTTL)
	if err != nil {
		return false, err
	}
	return n <= limit, nil
}
