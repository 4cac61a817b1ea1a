package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"sopdesk/logger"
	"sopdesk/models"
)

// MemoryDSN selects a private in-memory sqlite database.
const MemoryDSN = "memory"

// SlowQueryThreshold is the duration above which gorm logs a query as slow.
const SlowQueryThreshold = 200 * time.Millisecond

// gormWriter routes gorm's logger output through zap.
type gormWriter struct {
	log *logger.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.SugaredLogger.Infof(format, args...)
}

// Open connects to the configured database.
// For sqlite, "memory" (or an empty DSN) opens an in-memory database pinned
// to a single connection; any other DSN is a file path.
func Open(driver, dsn, logLevel string, log *logger.Logger) (*gorm.DB, error) {
	dbLog := log.With("component", "Database")

	gormConfig := &gorm.Config{
		Logger: gormlogger.New(gormWriter{log: dbLog}, gormlogger.Config{
			SlowThreshold:             SlowQueryThreshold,
			LogLevel:                  parseLogLevel(logLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		}),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch strings.ToLower(driver) {
	case "postgres":
		dbLog.Info("connecting to postgres")
		db, err = gorm.Open(postgres.Open(dsn), gormConfig)
	case "sqlite", "":
		db, err = openSQLite(dsn, gormConfig, dbLog)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		dbLog.Error("failed to connect to database", "driver", driver, "error", err)
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	dbLog.Info("database connection established", "driver", driver)
	return db, nil
}

func openSQLite(dsn string, gormConfig *gorm.Config, log *logger.Logger) (*gorm.DB, error) {
	if dsn == MemoryDSN || dsn == "" {
		log.Info("initializing in-memory sqlite database")
		db, err := gorm.Open(sqlite.Open("file::memory:"), gormConfig)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// Every new connection to :memory: is a fresh database.
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}

	dbDir := filepath.Dir(dsn)
	if dbDir != "." && dbDir != "/" {
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %q: %w", dbDir, err)
		}
	}
	log.Info("initializing file-based sqlite database", "path", dsn)
	return gorm.Open(sqlite.Open(dsn), gormConfig)
}

// Migrate creates or updates every table the service uses.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Category{},
		&models.Tag{},
		&models.User{},
		&models.SOP{},
		&models.SOPTag{},
		&models.SOPStep{},
		&models.SOPVersion{},
		&models.LearningPath{},
		&models.LearningPathItem{},
		&models.UserProgress{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

// Ping checks that the database answers within the timeout.
func Ping(ctx context.Context, db *gorm.DB, timeout time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func parseLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
