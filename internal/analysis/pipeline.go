// Package analysis orchestrates the diagnostic inference pipeline: image
// normalization, classifier invocation, class mapping, catalog lookup,
// reference entity resolution and record persistence.
package analysis

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dermascan/dermascan-go/internal/catalog"
	"github.com/dermascan/dermascan-go/internal/conf"
	"github.com/dermascan/dermascan-go/internal/datastore"
	"github.com/dermascan/dermascan-go/internal/dermnet"
	"github.com/dermascan/dermascan-go/internal/errors"
	"github.com/dermascan/dermascan-go/internal/imageproc"
	"github.com/dermascan/dermascan-go/internal/logging"
	"github.com/dermascan/dermascan-go/internal/observability"
	"github.com/dermascan/dermascan-go/internal/triage"
)

// Request is one analysis submission.
type Request struct {
	ImageData       []byte
	ImageName       string // original upload filename, may be empty
	PatientUsername string // required, non-empty
	BodyLocation    string // optional free text
}

// Result is the outcome of one successful analysis.
type Result struct {
	RecordID        uint         `json:"recordId"`
	ClassCode       string       `json:"classCode"`
	ClassLabel      string       `json:"classLabel"`
	Confidence      float64      `json:"confidence"` // percentage, 0-100
	Description     string       `json:"description,omitempty"`
	Recommendations []string     `json:"recommendations"`
	Tier            triage.Level `json:"severityTier"`
	Timestamp       time.Time    `json:"timestamp"`
}

// HistoryEntry is a stored record expanded for display, with its derived
// urgency tier.
type HistoryEntry struct {
	datastore.AnalysisView
	Tier triage.Level `json:"severityTier"`
}

// Pipeline wires the classifier, catalog and datastore into the analysis
// flow. The classifier handle is immutable after construction; a nil
// classifier makes every Analyze call fail fast as service-not-ready.
type Pipeline struct {
	settings   *conf.Settings
	classifier dermnet.Classifier
	catalog    *catalog.Catalog
	store      datastore.Interface
	metrics    *observability.Metrics

	logOnce sync.Once
	log     *slog.Logger
}

// New creates a pipeline. metrics may be nil.
func New(settings *conf.Settings, classifier dermnet.Classifier, cat *catalog.Catalog, store datastore.Interface, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		settings:   settings,
		classifier: classifier,
		catalog:    cat,
		store:      store,
		metrics:    metrics,
	}
}

func (p *Pipeline) logger() *slog.Logger {
	p.logOnce.Do(func() {
		p.log = logging.ForService("analysis")
		if p.log == nil {
			p.log = slog.Default()
		}
	})
	return p.log
}

// Ready reports whether the pipeline can serve analyses.
func (p *Pipeline) Ready() bool {
	return p.classifier != nil
}

// Analyze runs the full pipeline for one submission. Nothing is persisted
// unless every stage succeeds; a failed analysis leaves no partial record.
func (p *Pipeline) Analyze(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	result, err := p.analyze(ctx, req)
	if err != nil {
		p.countError(err)
		return nil, err
	}

	if p.metrics != nil {
		p.metrics.AnalysisTotal.WithLabelValues(result.ClassCode).Inc()
		p.metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	}

	p.logger().Info("analysis recorded",
		"record_id", result.RecordID,
		"class_code", result.ClassCode,
		"confidence", result.Confidence,
		"tier", result.Tier,
		"duration_ms", time.Since(start).Milliseconds())

	return result, nil
}

func (p *Pipeline) analyze(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.PatientUsername) == "" {
		return nil, errors.Newf("patient username is required").
			Component("analysis").
			Category(errors.CategoryValidation).
			Build()
	}

	if p.classifier == nil {
		return nil, errors.New(errors.ErrModelNotLoaded).
			Component("analysis").
			Category(errors.CategoryState).
			Build()
	}

	tensor, err := imageproc.Normalize(req.ImageData, p.settings.DermNET.InputSize)
	if err != nil {
		return nil, err
	}

	inferenceStart := time.Now()
	probs, err := p.classifier.Predict(tensor)
	if err != nil {
		return nil, err
	}
	if p.metrics != nil {
		p.metrics.InferenceDuration.Observe(time.Since(inferenceStart).Seconds())
	}

	prediction, err := dermnet.MapPrediction(p.classifier.Classes(), probs)
	if err != nil {
		return nil, err
	}

	record := &datastore.AnalysisRecord{
		ImageName:     storedImageName(req.ImageName),
		Confidence:    prediction.Confidence,
		Timestamp:     time.Now().UTC(),
		DiagnosisCode: prediction.Code,
	}

	result := &Result{
		ClassCode:       prediction.Code,
		ClassLabel:      prediction.Label,
		Confidence:      prediction.Confidence,
		Recommendations: []string{},
		Tier:            triage.Routine,
		Timestamp:       record.Timestamp,
	}

	// The snapshot feeds the response only. The record's diagnosis
	// reference is resolved by code inside the SaveAnalysis transaction,
	// where it cannot go stale under a concurrent reseed.
	if entry, ok := p.catalog.Lookup(prediction.Code); ok {
		result.Description = entry.Description
		result.Tier = triage.ForSeverity(entry.Severity)

		recs := triage.OrderRecommendations(p.catalog.Recommendations(entry.ID),
			func(r datastore.Recommendation) bool { return r.Urgent })
		for _, rec := range recs {
			result.Recommendations = append(result.Recommendations, rec.Text)
		}
	}

	if location := strings.TrimSpace(req.BodyLocation); location != "" {
		// Locations are shared across submissions, commit the row before
		// the record transaction so concurrent submitters reuse it.
		bodyLocation, err := p.store.GetOrCreateBodyLocation(location)
		if err != nil {
			return nil, err
		}
		record.BodyLocationID = &bodyLocation.ID
	}

	if err := p.store.SaveAnalysis(strings.TrimSpace(req.PatientUsername), record); err != nil {
		return nil, err
	}
	result.RecordID = record.ID

	return result, nil
}

// History returns past analyses, most recent first, with urgency tiers
// derived from the stored severity.
func (p *Pipeline) History(limit int) ([]HistoryEntry, error) {
	views, err := p.store.History(limit)
	if err != nil {
		return nil, err
	}
	entries := make([]HistoryEntry, 0, len(views))
	for _, view := range views {
		tier := triage.Routine
		if view.DiagnosisCode != "" {
			tier = triage.ForSeverity(view.Severity)
		}
		entries = append(entries, HistoryEntry{AnalysisView: view, Tier: tier})
	}
	return entries, nil
}

// Reseed rebuilds the diagnosis catalog. Destructive; excluded against
// concurrent analysis recording by the datastore.
func (p *Pipeline) Reseed() error {
	return p.catalog.Reseed()
}

func (p *Pipeline) countError(err error) {
	if p.metrics == nil {
		return
	}
	category := string(errors.CategoryGeneric)
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		category = ee.GetCategory()
	}
	p.metrics.AnalysisErrors.WithLabelValues(category).Inc()
}

// storedImageName produces the name the upload is recorded under. A fresh
// identifier keeps records unique even when users upload files with the
// same name.
func storedImageName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".jpg"
	}
	return uuid.New().String() + ext
}
