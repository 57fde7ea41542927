// model.go this code defines the data model for the application
package datastore

import "time"

// Patient represents a person whose lesions are analyzed. Created on the
// first analysis referencing an unseen username, never updated or deleted.
// The unique index on Username is what closes the get-or-create race.
type Patient struct {
	ID       uint    `gorm:"primaryKey"`
	Username string  `gorm:"uniqueIndex;not null;size:80"`
	Email    *string `gorm:"uniqueIndex;size:120"` // optional, unique when present
}

// BodyLocation is a reference entity for where on the body a lesion sits.
// Immutable after creation.
type BodyLocation struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;not null;size:100"`
}

// DiagnosisEntry maps a classifier class code to curated clinical text and
// a severity score. Rows exist only through catalog seeding and are
// read-only until the next reseed.
type DiagnosisEntry struct {
	ID          uint   `gorm:"primaryKey"`
	Code        string `gorm:"uniqueIndex;not null;size:20"`
	Description string `gorm:"type:text"`
	Severity    int    `gorm:"not null"` // integer >= 1, fixed at seed time
}

// Recommendation is clinical advice attached to exactly one catalog entry.
// Urgent text sorts ahead of routine text when an entry carries several.
type Recommendation struct {
	ID               uint   `gorm:"primaryKey"`
	Text             string `gorm:"type:text"`
	Urgent           bool   `gorm:"not null"`
	DiagnosisEntryID uint   `gorm:"index;not null"`
}

// AnalysisRecord links one classified submission to its reference entities
// by identifier. Insert-only, no update path exists. Confidence is a
// percentage in the 0-100 range.
type AnalysisRecord struct {
	ID               uint      `gorm:"primaryKey"`
	ImageName        string    `gorm:"size:100;not null"`
	Confidence       float64   `gorm:"not null"`
	Timestamp        time.Time `gorm:"index:idx_records_timestamp;not null"` // server-assigned capture time
	PatientID        uint      `gorm:"index;not null"`
	BodyLocationID   *uint     `gorm:"index"`
	DiagnosisEntryID *uint     `gorm:"index"` // nil when the predicted class has no catalog entry

	// DiagnosisCode carries the predicted class code into SaveAnalysis,
	// which resolves DiagnosisEntryID from it inside the record
	// transaction. A reseed replaces catalog rows wholesale, so an entry
	// ID captured outside that transaction can go stale before commit.
	DiagnosisCode string `gorm:"-"`
}

// AnalysisView is an AnalysisRecord with its reference entities expanded
// for display. Populated by explicit joins, not ORM navigation.
type AnalysisView struct {
	ID                   uint      `json:"id"`
	ImageName            string    `json:"imageName"`
	Confidence           float64   `json:"confidence"`
	Timestamp            time.Time `json:"timestamp"`
	PatientUsername      string    `json:"patientUsername"`
	BodyLocationName     string    `json:"bodyLocationName,omitempty"`
	DiagnosisCode        string    `json:"diagnosisCode,omitempty"`
	DiagnosisDescription string    `json:"diagnosisDescription,omitempty"`
	Severity             int       `json:"severity,omitempty"`
}
