package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver       string
	URL          string // DSN for postgres, file path or ":memory:" for sqlite
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	MaxOpenConns int
	LogLevel     logger.LogLevel
}

// DSN builds the postgres connection string when no URL is configured.
func (c Config) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.Host, c.User, c.Password, c.Name, c.Port,
	)
}

func Connect(cfg Config) (*gorm.DB, error) {
	level := cfg.LogLevel
	if level == 0 {
		level = logger.Warn
	}
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	gormCfg := &gorm.Config{
		Logger:         newLogger,
		PrepareStmt:    false,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	switch cfg.Driver {
	case DriverSQLite:
		return openSQLite(cfg, gormCfg)
	case DriverPostgres, "":
		return openPostgres(cfg, gormCfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}

func openPostgres(cfg Config, gormCfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // pgbouncer/Supabase transaction mode
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 100
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func openSQLite(cfg Config, gormCfg *gorm.Config) (*gorm.DB, error) {
	path := cfg.URL
	if path == "" {
		path = "inventory.db"
	}
	path = strings.TrimPrefix(path, "sqlite://")

	dsn := path
	if path != ":memory:" {
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// sqlite allows a single writer; one connection serialises units of work
	// and keeps ":memory:" databases shared.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, err
	}

	return db, nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
