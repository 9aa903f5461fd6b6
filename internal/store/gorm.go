package store

import (
	"context"
	"errors"

	"obra-patrimonio/internal/database"
	"obra-patrimonio/internal/models"
	"obra-patrimonio/internal/registry"

	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &registry.StoreError{Op: op, Err: err}
}

func readAll[T any](ctx context.Context, db *gorm.DB, op string) ([]T, error) {
	var rows []T
	if err := db.WithContext(ctx).Order("id asc").Find(&rows).Error; err != nil {
		return nil, wrap(op, err)
	}
	return rows, nil
}

func (s *GormStore) Statuses(ctx context.Context) ([]models.Status, error) {
	return readAll[models.Status](ctx, s.db, "read statuses")
}

func (s *GormStore) Sites(ctx context.Context) ([]models.Site, error) {
	return readAll[models.Site](ctx, s.db, "read sites")
}

func (s *GormStore) Assets(ctx context.Context) ([]models.Asset, error) {
	return readAll[models.Asset](ctx, s.db, "read assets")
}

func (s *GormStore) Movements(ctx context.Context) ([]models.Movement, error) {
	return readAll[models.Movement](ctx, s.db, "read movements")
}

func (s *GormStore) Rentals(ctx context.Context) ([]models.Rental, error) {
	return readAll[models.Rental](ctx, s.db, "read rentals")
}

func (s *GormStore) AuditLogs(ctx context.Context, site string, limit int) ([]models.AuditLog, error) {
	logs, err := database.RecentAuditLogs(s.db.WithContext(ctx), site, limit)
	return logs, wrap("read audit logs", err)
}

func (s *GormStore) InsertAsset(ctx context.Context, a *models.Asset) error {
	err := s.db.WithContext(ctx).Create(a).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &registry.DuplicateTagError{Site: a.Site, Tag: a.Tag}
	}
	return wrap("insert asset", err)
}

func (s *GormStore) UpdateAsset(ctx context.Context, a *models.Asset) error {
	err := s.db.WithContext(ctx).Save(a).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &registry.DuplicateTagError{Site: a.Site, Tag: a.Tag}
	}
	return wrap("update asset", err)
}

func (s *GormStore) UpdateAssetStatus(ctx context.Context, id uint, status string) error {
	res := s.db.WithContext(ctx).Model(&models.Asset{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return wrap("update asset status", res.Error)
	}
	if res.RowsAffected == 0 {
		return registry.ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteAsset(ctx context.Context, id uint) error {
	return deleteByID[models.Asset](ctx, s.db, id, "delete asset")
}

func (s *GormStore) InsertMovement(ctx context.Context, m *models.Movement) error {
	return wrap("insert movement", s.db.WithContext(ctx).Create(m).Error)
}

func (s *GormStore) InsertRental(ctx context.Context, r *models.Rental) error {
	return wrap("insert rental", s.db.WithContext(ctx).Create(r).Error)
}

func (s *GormStore) UpdateRental(ctx context.Context, r *models.Rental) error {
	return wrap("update rental", s.db.WithContext(ctx).Save(r).Error)
}

func (s *GormStore) DeleteRental(ctx context.Context, id uint) error {
	return deleteByID[models.Rental](ctx, s.db, id, "delete rental")
}

func (s *GormStore) InsertAudit(ctx context.Context, e *models.AuditLog) error {
	return wrap("insert audit log", database.CreateAuditLog(s.db.WithContext(ctx), e))
}

func deleteByID[T any](ctx context.Context, db *gorm.DB, id uint, op string) error {
	res := db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return wrap(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return registry.ErrNotFound
	}
	return nil
}
