package imageproc

import (
	"log/slog"
	"sync"

	"github.com/dermascan/dermascan-go/internal/logging"
)

var (
	serviceLogger *slog.Logger
	loggerOnce    sync.Once
)

// getLogger returns the package logger scoped to the imageproc service.
func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		serviceLogger = logging.ForService("imageproc")
		if serviceLogger == nil {
			serviceLogger = slog.Default()
		}
	})
	return serviceLogger
}
