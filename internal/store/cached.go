package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"obra-patrimonio/internal/models"

	"go.uber.org/zap"
)

const (
	keyStatuses  = "statuses"
	keySites     = "sites"
	keyAssets    = "assets"
	keyMovements = "movements"
	keyRentals   = "rentals"
)

var allKeys = []string{keyStatuses, keySites, keyAssets, keyMovements, keyRentals}

// Cached serves table reads from a KV for up to ttl and drops every cached
// table after a successful write. A cache failure degrades to a direct read.
type Cached struct {
	inner Store
	kv    KV
	ttl   time.Duration
	log   *zap.Logger
}

var _ Store = (*Cached)(nil)

func NewCached(inner Store, kv KV, ttl time.Duration, log *zap.Logger) *Cached {
	return &Cached{inner: inner, kv: kv, ttl: ttl, log: log}
}

// Inner returns the uncached store, for reads that guard a write.
func (c *Cached) Inner() Store { return c.inner }

func cachedRead[T any](ctx context.Context, c *Cached, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if raw, err := c.kv.Get(ctx, key); err == nil {
		var rows []T
		if err := json.Unmarshal([]byte(raw), &rows); err == nil {
			return rows, nil
		}
		c.log.Warn("discarding undecodable cache entry", zap.String("key", key))
	} else if !errors.Is(err, ErrMiss) {
		c.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	rows, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(rows); err == nil {
		if err := c.kv.Set(ctx, key, string(raw), c.ttl); err != nil {
			c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return rows, nil
}

func (c *Cached) invalidate(ctx context.Context, err error) error {
	if err != nil {
		return err
	}
	if derr := c.kv.Delete(ctx, allKeys...); derr != nil {
		c.log.Warn("cache invalidation failed", zap.Error(derr))
	}
	return nil
}

func (c *Cached) Statuses(ctx context.Context) ([]models.Status, error) {
	return cachedRead(ctx, c, keyStatuses, c.inner.Statuses)
}

func (c *Cached) Sites(ctx context.Context) ([]models.Site, error) {
	return cachedRead(ctx, c, keySites, c.inner.Sites)
}

func (c *Cached) Assets(ctx context.Context) ([]models.Asset, error) {
	return cachedRead(ctx, c, keyAssets, c.inner.Assets)
}

func (c *Cached) Movements(ctx context.Context) ([]models.Movement, error) {
	return cachedRead(ctx, c, keyMovements, c.inner.Movements)
}

func (c *Cached) Rentals(ctx context.Context) ([]models.Rental, error) {
	return cachedRead(ctx, c, keyRentals, c.inner.Rentals)
}

func (c *Cached) AuditLogs(ctx context.Context, site string, limit int) ([]models.AuditLog, error) {
	return c.inner.AuditLogs(ctx, site, limit)
}

func (c *Cached) InsertAsset(ctx context.Context, a *models.Asset) error {
	return c.invalidate(ctx, c.inner.InsertAsset(ctx, a))
}

func (c *Cached) UpdateAsset(ctx context.Context, a *models.Asset) error {
	return c.invalidate(ctx, c.inner.UpdateAsset(ctx, a))
}

func (c *Cached) UpdateAssetStatus(ctx context.Context, id uint, status string) error {
	return c.invalidate(ctx, c.inner.UpdateAssetStatus(ctx, id, status))
}

func (c *Cached) DeleteAsset(ctx context.Context, id uint) error {
	return c.invalidate(ctx, c.inner.DeleteAsset(ctx, id))
}

func (c *Cached) InsertMovement(ctx context.Context, m *models.Movement) error {
	return c.invalidate(ctx, c.inner.InsertMovement(ctx, m))
}

func (c *Cached) InsertRental(ctx context.Context, r *models.Rental) error {
	return c.invalidate(ctx, c.inner.InsertRental(ctx, r))
}

func (c *Cached) UpdateRental(ctx context.Context, r *models.Rental) error {
	return c.invalidate(ctx, c.inner.UpdateRental(ctx, r))
}

func (c *Cached) DeleteRental(ctx context.Context, id uint) error {
	return c.invalidate(ctx, c.inner.DeleteRental(ctx, id))
}

// InsertAudit does not touch any cached table.
func (c *Cached) InsertAudit(ctx context.Context, e *models.AuditLog) error {
	return c.inner.InsertAudit(ctx, e)
}
