// Package dermnet provides logging for the dermnet package.
package dermnet

import (
	"log/slog"
	"sync"

	"github.com/dermascan/dermascan-go/internal/logging"
)

var (
	serviceLogger *slog.Logger
	loggerOnce    sync.Once
)

// getLogger returns the dermnet package logger.
func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		serviceLogger = logging.ForService("dermnet")
		if serviceLogger == nil {
			serviceLogger = slog.Default()
		}
	})
	return serviceLogger
}
