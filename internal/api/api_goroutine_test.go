// api_goroutine_test.go: verifies controller construction and shutdown do
// not leak goroutines.

package api

import (
	"io"
	"log"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dermascan/dermascan-go/internal/analysis"
	"github.com/dermascan/dermascan-go/internal/catalog"
	"github.com/dermascan/dermascan-go/internal/conf"
	"github.com/dermascan/dermascan-go/internal/datastore"
	"github.com/dermascan/dermascan-go/internal/dermnet"
)

func TestControllerShutdownLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreTopFunction("testing.(*T).Run"),
		goleak.IgnoreTopFunction("runtime.gopark"),
		// Background janitors with their own lifecycles
		goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
		// Database connection pool goroutines
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)

	t.Chdir(t.TempDir())

	settings := &conf.Settings{}
	settings.DermNET.InputSize = 224
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = t.TempDir() + "/test.db"

	store := datastore.New(settings)
	require.NoError(t, store.Open())

	cat := catalog.New(store, dermnet.ClassTable())
	require.NoError(t, cat.Load())

	pipeline := analysis.New(settings, nil, cat, store, nil)

	e := echo.New()
	controller := New(e, store, settings, pipeline, log.New(io.Discard, "", 0), nil, true)

	controller.Shutdown()
	assert.NoError(t, store.Close())
}
