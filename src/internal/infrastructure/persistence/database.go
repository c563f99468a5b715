package persistence

import (
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/config"
	affiliatestore "github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/persistence/affiliate"
	partnerstore "github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/persistence/partner"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Open connects to the configured database and brings the schema up to date.
//
// PostgreSQL runs the embedded goose migrations (foreign keys, cascades).
// SQLite, used for development and tests, is migrated from the GORM models.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("open db: unsupported driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(zap.NewStdLog(log.Named("gorm")), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if cfg.Driver == "sqlite" && strings.Contains(cfg.DSN, ":memory:") {
		// Each pooled connection would otherwise get its own empty database.
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := Migrate(db, cfg.Driver); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	log.Info("database ready", zap.String("driver", cfg.Driver))
	return db, nil
}

// Migrate applies the schema for driver.
func Migrate(db *gorm.DB, driver string) error {
	if driver != "postgres" {
		if err := db.AutoMigrate(Models()...); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(sqlDB, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Models lists every persisted model of the service.
func Models() []interface{} {
	models := affiliatestore.Models()
	return append(models, partnerstore.Models()...)
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	}
	return gormlogger.Warn
}
