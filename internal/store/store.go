package store

import (
	"context"

	"obra-patrimonio/internal/models"
)

// Store is the persistence collaborator. Read methods return whole tables in
// insertion order; writers overwrite whole rows.
type Store interface {
	Statuses(ctx context.Context) ([]models.Status, error)
	Sites(ctx context.Context) ([]models.Site, error)
	Assets(ctx context.Context) ([]models.Asset, error)
	Movements(ctx context.Context) ([]models.Movement, error)
	Rentals(ctx context.Context) ([]models.Rental, error)
	AuditLogs(ctx context.Context, site string, limit int) ([]models.AuditLog, error)

	InsertAsset(ctx context.Context, a *models.Asset) error
	UpdateAsset(ctx context.Context, a *models.Asset) error
	UpdateAssetStatus(ctx context.Context, id uint, status string) error
	DeleteAsset(ctx context.Context, id uint) error

	InsertMovement(ctx context.Context, m *models.Movement) error

	InsertRental(ctx context.Context, r *models.Rental) error
	UpdateRental(ctx context.Context, r *models.Rental) error
	DeleteRental(ctx context.Context, id uint) error

	InsertAudit(ctx context.Context, e *models.AuditLog) error
}
