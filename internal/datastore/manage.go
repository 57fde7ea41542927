package datastore

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSlowQueryThreshold defines the duration after which a query is
// considered slow and logged at warn level.
const DefaultSlowQueryThreshold = 1 * time.Second

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() gormlogger.Interface {
	return gormlogger.New(&gormLogWriter{}, gormlogger.Config{
		SlowThreshold:             DefaultSlowQueryThreshold,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// gormLogWriter adapts GORM's printf-style logging onto the package logger.
type gormLogWriter struct{}

func (w *gormLogWriter) Printf(format string, args ...any) {
	getLogger().Warn(fmt.Sprintf(format, args...))
}

// performAutoMigration runs GORM auto-migration for all models and logs the
// outcome.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(
		&Patient{},
		&BodyLocation{},
		&DiagnosisEntry{},
		&Recommendation{},
		&AnalysisRecord{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}

	if debug {
		getLogger().Debug("Database connection initialized",
			"db_type", dbType,
			"connection", connectionInfo)
	}
	return nil
}
