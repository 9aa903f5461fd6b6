package database

import (
	"fmt"
	"time"

	"obra-patrimonio/internal/models"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const maxAttempts = 10

var retryDelay = 2 * time.Second

// Open connects to the database, retrying while it comes up, and runs
// migrations. driver is "postgres" or "sqlite".
func Open(driver, dsn string, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	gcfg := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	}

	var (
		db  *gorm.DB
		err error
	)
	for i := 1; i <= maxAttempts; i++ {
		log.Info("connecting to database", zap.String("driver", driver), zap.Int("attempt", i), zap.Int("max_attempts", maxAttempts))

		db, err = gorm.Open(dialector, gcfg)
		if err == nil {
			break
		}
		log.Warn("failed to connect to database", zap.Error(err))
		time.Sleep(retryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("connect after %d attempts: %w", maxAttempts, err)
	}

	if driver == "sqlite" {
		// every new connection to ":memory:" is a new, empty database
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("connected to database", zap.String("driver", driver))
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Site{},
		&models.Status{},
		&models.Asset{},
		&models.Movement{},
		&models.Rental{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// SeedStatuses inserts the configured status labels that are not present yet.
func SeedStatuses(db *gorm.DB, labels []string, log *zap.Logger) error {
	for _, label := range labels {
		var count int64
		if err := db.Model(&models.Status{}).Where("name = ?", label).Count(&count).Error; err != nil {
			return fmt.Errorf("check status %s: %w", label, err)
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&models.Status{Name: label}).Error; err != nil {
			return fmt.Errorf("create status %s: %w", label, err)
		}
		log.Info("created status", zap.String("status", label))
	}
	return nil
}

// SeedSites makes sure every configured site exists and that its stored hash
// matches the configured access code. Codes are never stored in clear.
func SeedSites(db *gorm.DB, codes map[string]string, log *zap.Logger) error {
	for name, code := range codes {
		var site models.Site
		err := db.Where("name = ?", name).First(&site).Error
		switch {
		case err == nil:
			if site.AccessCodeHash != "" &&
				bcrypt.CompareHashAndPassword([]byte(site.AccessCodeHash), []byte(code)) == nil {
				continue
			}
		case errorsIsNotFound(err):
			site = models.Site{Name: name}
		default:
			return fmt.Errorf("check site %s: %w", name, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash access code for %s: %w", name, err)
		}
		site.AccessCodeHash = string(hash)

		if err := db.Save(&site).Error; err != nil {
			return fmt.Errorf("save site %s: %w", name, err)
		}
		log.Info("configured site access code", zap.String("site", name))
	}
	return nil
}
