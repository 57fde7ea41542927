// Package datastore provides logging infrastructure for database operations
package datastore

import (
	"log/slog"
	"sync"

	"github.com/dermascan/dermascan-go/internal/logging"
)

var (
	serviceLogger *slog.Logger
	loggerOnce    sync.Once
)

// getLogger returns the datastore package logger.
func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		serviceLogger = logging.ForService("datastore")
		if serviceLogger == nil {
			serviceLogger = slog.Default()
		}
	})
	return serviceLogger
}
