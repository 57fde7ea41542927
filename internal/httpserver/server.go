// internal/httpserver/server.go
package httpserver

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dermascan/dermascan-go/internal/analysis"
	"github.com/dermascan/dermascan-go/internal/api"
	"github.com/dermascan/dermascan-go/internal/conf"
	"github.com/dermascan/dermascan-go/internal/datastore"
	"github.com/dermascan/dermascan-go/internal/logging"
	"github.com/dermascan/dermascan-go/internal/observability"
)

// shutdownTimeout bounds how long in-flight requests may run during shutdown.
const shutdownTimeout = 10 * time.Second

// Server encapsulates Echo server and related configurations.
type Server struct {
	Echo     *echo.Echo
	DS       datastore.Interface
	Settings *conf.Settings
	Pipeline *analysis.Pipeline
	API      *api.Controller

	metrics *observability.Metrics
}

// New initializes a new HTTP server with the given datastore and pipeline.
func New(settings *conf.Settings, dataStore datastore.Interface, pipeline *analysis.Pipeline, metrics *observability.Metrics) *Server {
	configureDefaultSettings(settings)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		Echo:     e,
		DS:       dataStore,
		Settings: settings,
		Pipeline: pipeline,
		metrics:  metrics,
	}

	s.API = api.New(e, dataStore, settings, pipeline, log.Default(), metrics, true)

	return s
}

// Start begins listening and serving HTTP requests.
func (s *Server) Start() {
	errChan := make(chan error)

	go func() {
		if err := s.Echo.Start(":" + s.Settings.WebServer.Port); err != nil {
			errChan <- err
		}
	}()

	go handleServerError(errChan)

	fmt.Printf("HTTP server started on port %s\n", s.Settings.WebServer.Port)
}

// Shutdown stops the HTTP server, allowing in-flight requests to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.API.Shutdown()
	return s.Echo.Shutdown(ctx)
}

// configureDefaultSettings sets default values for server settings.
func configureDefaultSettings(settings *conf.Settings) {
	if settings.WebServer.Port == "" {
		settings.WebServer.Port = "8090"
	}
}

// handleServerError listens for server errors and handles them.
func handleServerError(errChan chan error) {
	for err := range errChan {
		log.Printf("Server error: %v", err)
	}
}

// Serve wires the full service and blocks until an interrupt or termination
// signal arrives, then shuts down gracefully.
func Serve(settings *conf.Settings) error {
	logger := logging.ForService("httpserver")

	metrics, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	pipeline, store, err := analysis.Bootstrap(settings, metrics, true)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil && logger != nil {
			logger.Error("failed to close datastore", "error", err)
		}
	}()

	server := New(settings, store, pipeline, metrics)
	server.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	if logger != nil {
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(ctx)
}
