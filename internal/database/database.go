package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mx-space/pagecraft/internal/config"
	"github.com/mx-space/pagecraft/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the configured database and optionally runs auto-migration
// and the settings seed.
func Connect(cfg *config.AppConfig, autoMigrate bool) (*gorm.DB, error) {
	db, err := openDB(cfg, resolveLogLevel(cfg))
	if err != nil {
		return nil, err
	}

	if autoMigrate {
		if err := Migrate(db); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		if err := SeedSettings(db, cfg.Site.DefaultName); err != nil {
			return nil, fmt.Errorf("seed settings: %w", err)
		}
	}
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func resolveLogLevel(cfg *config.AppConfig) logger.LogLevel {
	if cfg.IsDev() {
		return logger.Info
	}
	return logger.Warn
}

func openDB(cfg *config.AppConfig, logLevel logger.LogLevel) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	}

	switch cfg.Database.Driver {
	case config.DriverSQLite:
		return openSQLite(cfg.DSN, gormCfg)
	case config.DriverMySQL:
		db, err := gorm.Open(mysql.New(mysql.Config{
			DSN:               cfg.DSN,
			DefaultStringSize: 191,
		}), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func openSQLite(dsn string, gormCfg *gorm.Config) (*gorm.DB, error) {
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		path := config.ResolveRuntimePath(dsn, "data")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on"
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single connection also keeps :memory: databases alive.
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Migrate runs GORM auto-migration for all models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.UserModel{},
		&models.UserRole{},
		&models.UserSession{},
		&models.PageModel{},
		&models.ContentBlockModel{},
		&models.SiteSettingsModel{},
	)
}

// SeedSettings provisions the settings row if it does not exist yet.
func SeedSettings(db *gorm.DB, siteName string) error {
	var existing models.SiteSettingsModel
	err := db.First(&existing, "id = ?", models.SiteSettingsID).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	name := strings.TrimSpace(siteName)
	if name == "" {
		name = "My Site"
	}
	row := models.SiteSettingsModel{SiteName: name}
	row.ID = models.SiteSettingsID
	return db.Create(&row).Error
}
