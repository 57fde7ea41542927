// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/dermascan/dermascan-go/internal/conf"
	"github.com/dermascan/dermascan-go/internal/errors"
)

// Interface abstracts the underlying database implementation and defines
// the operations the analysis pipeline and API depend on.
type Interface interface {
	Open() error
	Close() error

	// Reference entity resolution
	GetOrCreateBodyLocation(name string) (BodyLocation, error)

	// Analysis recording and retrieval
	SaveAnalysis(patientUsername string, record *AnalysisRecord) error
	History(limit int) ([]AnalysisView, error)

	// Catalog persistence
	ReplaceCatalog(entries []DiagnosisEntry, recommendations map[string][]Recommendation) error
	CatalogEntries() ([]DiagnosisEntry, error)
	RecommendationsForEntry(entryID uint) ([]Recommendation, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB

	// maintenanceMu lets catalog reseeding exclude concurrent analysis
	// recording: writers of analysis rows take the read side, the
	// destructive catalog replacement takes the write side.
	maintenanceMu sync.RWMutex
}

// New creates a new datastore instance based on the provided settings.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		return nil
	}
}

// isDuplicateKeyError reports whether err is a unique constraint violation.
// GORM's error translation covers both dialects; the string checks catch
// drivers that bypass translation.
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry")
}

// getOrCreatePatient looks a patient up by username inside the given
// transaction, creating the row on first reference. The read-then-write
// sequence is not atomic against concurrent identical requests, so a
// duplicate-key failure on insert is recovered by re-reading the row the
// concurrent writer committed.
func getOrCreatePatient(db *gorm.DB, username string) (Patient, error) {
	if username == "" {
		return Patient{}, errors.Newf("patient username must not be empty").
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}

	var patient Patient
	err := db.Where("username = ?", username).First(&patient).Error
	if err == nil {
		return patient, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Patient{}, fmt.Errorf("looking up patient %q: %w", username, err)
	}

	patient = Patient{Username: username}
	if err := db.Create(&patient).Error; err != nil {
		if isDuplicateKeyError(err) {
			// A concurrent submission created the row between our read
			// and write, use theirs.
			if rerr := db.Where("username = ?", username).First(&patient).Error; rerr != nil {
				return Patient{}, fmt.Errorf("re-reading patient %q after conflict: %w", username, rerr)
			}
			return patient, nil
		}
		return Patient{}, fmt.Errorf("creating patient %q: %w", username, err)
	}
	return patient, nil
}

// GetOrCreateBodyLocation resolves a body location by name, creating and
// committing it immediately on first reference. Locations are reused
// across concurrent submissions, so the row is durable before the owning
// analysis record insert proceeds.
func (ds *DataStore) GetOrCreateBodyLocation(name string) (BodyLocation, error) {
	if name == "" {
		return BodyLocation{}, errors.Newf("body location name must not be empty").
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}

	var location BodyLocation
	err := ds.DB.Where("name = ?", name).First(&location).Error
	if err == nil {
		return location, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return BodyLocation{}, fmt.Errorf("looking up body location %q: %w", name, err)
	}

	location = BodyLocation{Name: name}
	if err := ds.DB.Create(&location).Error; err != nil {
		if isDuplicateKeyError(err) {
			if rerr := ds.DB.Where("name = ?", name).First(&location).Error; rerr != nil {
				return BodyLocation{}, fmt.Errorf("re-reading body location %q after conflict: %w", name, rerr)
			}
			return location, nil
		}
		return BodyLocation{}, fmt.Errorf("creating body location %q: %w", name, err)
	}
	return location, nil
}

const (
	saveRetryAttempts = 5
	saveRetryDelay    = 50 * time.Millisecond
)

// isDatabaseLockedError reports whether err is SQLite lock contention
// between concurrent write transactions. Safe to retry once the competing
// transaction has finished.
func isDatabaseLockedError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "database is locked")
}

// SaveAnalysis resolves the patient and the diagnosis reference and
// persists the analysis record in a single transaction. Either everything
// succeeds or nothing is written. The maintenance read lock is held for
// the whole unit of work, so catalog reseeding cannot delete rows the
// record is about to reference. Lock contention between concurrent
// SQLite writers is retried with backoff.
func (ds *DataStore) SaveAnalysis(patientUsername string, record *AnalysisRecord) error {
	ds.maintenanceMu.RLock()
	defer ds.maintenanceMu.RUnlock()

	var err error
	for attempt := 0; attempt < saveRetryAttempts; attempt++ {
		if err = ds.saveAnalysis(patientUsername, record); err == nil || !isDatabaseLockedError(err) {
			return err
		}
		time.Sleep(saveRetryDelay * time.Duration(attempt+1))
	}
	return err
}

func (ds *DataStore) saveAnalysis(patientUsername string, record *AnalysisRecord) error {
	record.ID = 0
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		patient, err := getOrCreatePatient(tx, patientUsername)
		if err != nil {
			return err
		}
		record.PatientID = patient.ID

		// The diagnosis reference is resolved by code here, not taken from
		// the caller: only inside this transaction is the current catalog
		// row guaranteed to survive until commit.
		record.DiagnosisEntryID = nil
		if record.DiagnosisCode != "" {
			var entry DiagnosisEntry
			err := tx.Where("code = ?", record.DiagnosisCode).First(&entry).Error
			switch {
			case err == nil:
				record.DiagnosisEntryID = &entry.ID
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return fmt.Errorf("resolving diagnosis entry %q: %w", record.DiagnosisCode, err)
			}
		}

		if err := tx.Create(record).Error; err != nil {
			return errors.New(fmt.Errorf("saving analysis record: %w", err)).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("image_name", record.ImageName).
				Build()
		}
		return nil
	})
}

// History returns past analysis records with their reference entities
// expanded, most recent first. The ordering is stable: records sharing a
// timestamp fall back to identifier ascending so displayed history is
// reproducible.
func (ds *DataStore) History(limit int) ([]AnalysisView, error) {
	var views []AnalysisView
	query := ds.DB.Model(&AnalysisRecord{}).
		Select("analysis_records.id, analysis_records.image_name, analysis_records.confidence, analysis_records.timestamp, " +
			"patients.username AS patient_username, " +
			"body_locations.name AS body_location_name, " +
			"diagnosis_entries.code AS diagnosis_code, " +
			"diagnosis_entries.description AS diagnosis_description, " +
			"diagnosis_entries.severity AS severity").
		Joins("JOIN patients ON patients.id = analysis_records.patient_id").
		Joins("LEFT JOIN body_locations ON body_locations.id = analysis_records.body_location_id").
		Joins("LEFT JOIN diagnosis_entries ON diagnosis_entries.id = analysis_records.diagnosis_entry_id").
		Order("analysis_records.timestamp DESC, analysis_records.id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(&views).Error; err != nil {
		return nil, errors.New(fmt.Errorf("querying analysis history: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return views, nil
}

// ReplaceCatalog atomically swaps the diagnosis catalog for the given seed
// set. All existing entries, recommendations and analysis records that
// reference them are cleared first; this is a maintenance operation and
// excludes concurrent analysis recording for its duration.
func (ds *DataStore) ReplaceCatalog(entries []DiagnosisEntry, recommendations map[string][]Recommendation) error {
	ds.maintenanceMu.Lock()
	defer ds.maintenanceMu.Unlock()

	return ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&AnalysisRecord{}).Error; err != nil {
			return fmt.Errorf("clearing analysis records: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&Recommendation{}).Error; err != nil {
			return fmt.Errorf("clearing recommendations: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&DiagnosisEntry{}).Error; err != nil {
			return fmt.Errorf("clearing diagnosis entries: %w", err)
		}

		for i := range entries {
			entry := &entries[i]
			if err := tx.Create(entry).Error; err != nil {
				return fmt.Errorf("seeding diagnosis entry %q: %w", entry.Code, err)
			}
			for _, rec := range recommendations[entry.Code] {
				rec.DiagnosisEntryID = entry.ID
				if err := tx.Create(&rec).Error; err != nil {
					return fmt.Errorf("seeding recommendation for %q: %w", entry.Code, err)
				}
			}
		}
		return nil
	})
}

// CatalogEntries returns all diagnosis entries ordered by code.
func (ds *DataStore) CatalogEntries() ([]DiagnosisEntry, error) {
	var entries []DiagnosisEntry
	if err := ds.DB.Order("code ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("loading diagnosis entries: %w", err)
	}
	return entries, nil
}

// RecommendationsForEntry returns the recommendations owned by one catalog
// entry, urgent text first, then by insertion order.
func (ds *DataStore) RecommendationsForEntry(entryID uint) ([]Recommendation, error) {
	var recs []Recommendation
	if err := ds.DB.Where("diagnosis_entry_id = ?", entryID).
		Order("urgent DESC, id ASC").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("loading recommendations for entry %d: %w", entryID, err)
	}
	return recs, nil
}
