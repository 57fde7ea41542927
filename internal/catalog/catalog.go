// Package catalog maintains the curated diagnosis reference data.
package catalog

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dermascan/dermascan-go/internal/datastore"
	"github.com/dermascan/dermascan-go/internal/dermnet"
	"github.com/dermascan/dermascan-go/internal/errors"
	"github.com/dermascan/dermascan-go/internal/logging"
)

// snapshot is one immutable version of the catalog. Lookups read whichever
// snapshot is current; reseeding builds a new one and swaps the pointer, so
// readers never observe a half-rebuilt catalog.
type snapshot struct {
	byCode          map[string]datastore.DiagnosisEntry
	recommendations map[uint][]datastore.Recommendation
}

// Catalog is the seeded mapping from class codes to clinical reference
// entries, backed by the datastore and served from an in-memory snapshot.
type Catalog struct {
	store   datastore.Interface
	classes []dermnet.Class
	current atomic.Pointer[snapshot]

	logOnce sync.Once
	log     *slog.Logger
}

// New creates a catalog over the given store for the given class table.
// Call Load or Reseed before serving lookups.
func New(store datastore.Interface, classes []dermnet.Class) *Catalog {
	return &Catalog{store: store, classes: classes}
}

func (c *Catalog) logger() *slog.Logger {
	c.logOnce.Do(func() {
		c.log = logging.ForService("catalog")
		if c.log == nil {
			c.log = slog.Default()
		}
	})
	return c.log
}

// Load builds the in-memory snapshot from the rows already in the store,
// seeding the catalog first if the store is empty. Called at startup.
func (c *Catalog) Load() error {
	entries, err := c.store.CatalogEntries()
	if err != nil {
		return errors.Wrap(err).
			Component("catalog").
			Category(errors.CategoryCatalog).
			Build()
	}
	if len(entries) == 0 {
		c.logger().Info("catalog empty, seeding initial reference data")
		return c.Reseed()
	}
	return c.refresh(entries)
}

// Reseed destructively replaces the catalog with the fixed seed set derived
// from the class table, then swaps the snapshot readers use. End state is
// identical on every run. The datastore serializes this against in-flight
// analysis recording.
func (c *Catalog) Reseed() error {
	entries, recommendations := seedSet(c.classes)

	if err := c.store.ReplaceCatalog(entries, recommendations); err != nil {
		return errors.Wrap(err).
			Component("catalog").
			Category(errors.CategoryCatalog).
			Build()
	}

	stored, err := c.store.CatalogEntries()
	if err != nil {
		return errors.Wrap(err).
			Component("catalog").
			Category(errors.CategoryCatalog).
			Build()
	}

	if err := c.refresh(stored); err != nil {
		return err
	}

	c.logger().Info("catalog reseeded", "entries", len(stored))
	return nil
}

// refresh builds a new snapshot from the given entries and atomically
// points lookups at it.
func (c *Catalog) refresh(entries []datastore.DiagnosisEntry) error {
	snap := &snapshot{
		byCode:          make(map[string]datastore.DiagnosisEntry, len(entries)),
		recommendations: make(map[uint][]datastore.Recommendation, len(entries)),
	}
	for _, entry := range entries {
		recs, err := c.store.RecommendationsForEntry(entry.ID)
		if err != nil {
			return errors.Wrap(err).
				Component("catalog").
				Category(errors.CategoryCatalog).
				Context("code", entry.Code).
				Build()
		}
		snap.byCode[entry.Code] = entry
		snap.recommendations[entry.ID] = recs
	}
	c.current.Store(snap)
	return nil
}

// Lookup returns the catalog entry for a class code. Absence is not an
// error: the model predicted a class with no curated clinical entry and the
// analysis record simply carries no diagnosis reference.
func (c *Catalog) Lookup(code string) (datastore.DiagnosisEntry, bool) {
	snap := c.current.Load()
	if snap == nil {
		return datastore.DiagnosisEntry{}, false
	}
	entry, ok := snap.byCode[code]
	return entry, ok
}

// Recommendations returns the recommendation rows for a catalog entry,
// urgent text first.
func (c *Catalog) Recommendations(entryID uint) []datastore.Recommendation {
	snap := c.current.Load()
	if snap == nil {
		return nil
	}
	return snap.recommendations[entryID]
}
