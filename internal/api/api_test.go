// api_test.go: Package api provides tests for API endpoints.

package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dermascan/dermascan-go/internal/analysis"
	"github.com/dermascan/dermascan-go/internal/catalog"
	"github.com/dermascan/dermascan-go/internal/conf"
	"github.com/dermascan/dermascan-go/internal/datastore"
	"github.com/dermascan/dermascan-go/internal/dermnet"
	"github.com/dermascan/dermascan-go/internal/imageproc"
)

// stubClassifier stands in for the TFLite-backed model.
type stubClassifier struct {
	classes []dermnet.Class
	probs   []float32
}

func (s *stubClassifier) Predict(tensor *imageproc.Tensor) ([]float32, error) {
	return s.probs, nil
}

func (s *stubClassifier) Classes() []dermnet.Class {
	return s.classes
}

func stubProbs(code string) []float32 {
	codes := dermnet.ClassCodes()
	probs := make([]float32, len(codes))
	for i, c := range codes {
		if c == code {
			probs[i] = 0.9
		} else {
			probs[i] = 0.1 / float32(len(codes)-1)
		}
	}
	return probs
}

// setupTestEnvironment creates a controller backed by a temporary SQLite
// database and a stubbed classifier predicting the given class.
func setupTestEnvironment(t *testing.T, classifier dermnet.Classifier) (*echo.Echo, *Controller) {
	t.Helper()
	t.Chdir(t.TempDir())

	settings := &conf.Settings{}
	settings.DermNET.InputSize = 224
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = t.TempDir() + "/test.db"

	store := datastore.New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	cat := catalog.New(store, dermnet.ClassTable())
	require.NoError(t, cat.Load())

	pipeline := analysis.New(settings, classifier, cat, store, nil)

	e := echo.New()
	controller := New(e, store, settings, pipeline, log.New(io.Discard, "", 0), nil, true)
	t.Cleanup(controller.Shutdown)

	return e, controller
}

func melClassifier() *stubClassifier {
	return &stubClassifier{classes: dermnet.ClassTable(), probs: stubProbs("MEL")}
}

// analyzeForm builds a multipart submission with the given fields. An empty
// filename omits the image part entirely.
func analyzeForm(t *testing.T, filename, username, location string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if filename != "" {
		part, err := writer.CreateFormFile("image", filename)
		require.NoError(t, err)
		img := image.NewRGBA(image.Rect(0, 0, 32, 32))
		for y := 0; y < 32; y++ {
			for x := 0; x < 32; x++ {
				img.Set(x, y, color.RGBA{R: 140, G: 100, B: 80, A: 255})
			}
		}
		require.NoError(t, png.Encode(part, img))
	}
	require.NoError(t, writer.WriteField("username", username))
	require.NoError(t, writer.WriteField("location", location))
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func TestHealthCheck(t *testing.T) {
	e, controller := setupTestEnvironment(t, melClassifier())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/health")

	require.NoError(t, controller.HealthCheck(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, true, response["model_loaded"])
	assert.Equal(t, "connected", response["database_status"])
}

func TestHealthCheckDegradedWithoutModel(t *testing.T) {
	e, controller := setupTestEnvironment(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.HealthCheck(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "degraded", response["status"])
	assert.Equal(t, false, response["model_loaded"])
}

func TestPostAnalyze(t *testing.T) {
	e, _ := setupTestEnvironment(t, melClassifier())

	body, contentType := analyzeForm(t, "lesion.png", "alice", "Arm")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var result analysis.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "MEL", result.ClassCode)
	assert.Equal(t, "URGENT", string(result.Tier))
	assert.NotEmpty(t, result.Recommendations)
	assert.NotZero(t, result.RecordID)
}

func TestPostAnalyzeMissingImage(t *testing.T) {
	e, _ := setupTestEnvironment(t, melClassifier())

	body, contentType := analyzeForm(t, "", "alice", "Arm")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.NotEmpty(t, errResp.CorrelationID)
}

func TestPostAnalyzeMissingUsername(t *testing.T) {
	e, _ := setupTestEnvironment(t, melClassifier())

	body, contentType := analyzeForm(t, "lesion.png", "", "Arm")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostAnalyzeModelUnavailable(t *testing.T) {
	e, _ := setupTestEnvironment(t, nil)

	body, contentType := analyzeForm(t, "lesion.png", "alice", "Arm")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetHistory(t *testing.T) {
	e, _ := setupTestEnvironment(t, melClassifier())

	body, contentType := analyzeForm(t, "lesion.png", "alice", "Arm")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	e.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/history", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var entries []analysis.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].PatientUsername)
	assert.Equal(t, "MEL", entries[0].DiagnosisCode)

	// Second call is served from the cache with the same content
	rec2 := httptest.NewRecorder()
	e.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/api/v1/history", http.NoBody))
	assert.Equal(t, http.StatusOK, rec2.Code)
	assert.JSONEq(t, rec.Body.String(), rec2.Body.String())
}

func TestGetCatalog(t *testing.T) {
	e, _ := setupTestEnvironment(t, melClassifier())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var entries []catalogEntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, len(dermnet.ClassCodes()))
	for _, entry := range entries {
		assert.NotEmpty(t, entry.Recommendations, "entry %s has no recommendations", entry.Code)
	}
}

func TestPostReseed(t *testing.T) {
	e, _ := setupTestEnvironment(t, melClassifier())

	// Record one analysis, then reseed; history must come back empty.
	body, contentType := analyzeForm(t, "lesion.png", "alice", "Arm")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	e.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/catalog/reseed", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/history", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)

	var entries []analysis.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Empty(t, entries)
}
