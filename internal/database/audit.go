package database

import (
	"errors"

	"obra-patrimonio/internal/models"

	"gorm.io/gorm"
)

// CreateAuditLog appends one entry to the audit journal.
func CreateAuditLog(db *gorm.DB, entry *models.AuditLog) error {
	if db == nil {
		return errors.New("audit: no database")
	}
	return db.Create(entry).Error
}

// RecentAuditLogs returns the newest entries first; site "" means all sites.
func RecentAuditLogs(db *gorm.DB, site string, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	q := db.Order("created_at desc, id desc").Limit(limit)
	if site != "" {
		q = q.Where("site = ?", site)
	}
	err := q.Find(&logs).Error
	return logs, err
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
