package analysis

import (
	"github.com/dermascan/dermascan-go/internal/catalog"
	"github.com/dermascan/dermascan-go/internal/conf"
	"github.com/dermascan/dermascan-go/internal/datastore"
	"github.com/dermascan/dermascan-go/internal/dermnet"
	"github.com/dermascan/dermascan-go/internal/errors"
	"github.com/dermascan/dermascan-go/internal/observability"
)

// Bootstrap opens the datastore, seeds or adopts the diagnosis catalog and
// assembles the analysis pipeline. With withModel false the classifier is
// skipped; the pipeline then serves history and catalog maintenance only.
// The caller owns the returned datastore and must Close it.
func Bootstrap(settings *conf.Settings, metrics *observability.Metrics, withModel bool) (*Pipeline, datastore.Interface, error) {
	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return nil, nil, err
	}

	var classifier dermnet.Classifier
	classes := dermnet.ClassTable()
	if withModel {
		model, err := dermnet.New(settings)
		if err != nil {
			if closeErr := store.Close(); closeErr != nil {
				err = errors.Join(err, closeErr)
			}
			return nil, nil, err
		}
		classifier = model
		classes = model.Classes()
		if metrics != nil {
			metrics.ModelLoadedGauge.Set(1)
		}
	} else if settings.DermNET.LabelPath != "" {
		// Seed-only runs must still honor a custom class table, or the
		// seeded catalog codes would not match the serving class table.
		external, err := dermnet.LoadClassTable(settings.DermNET.LabelPath)
		if err != nil {
			if closeErr := store.Close(); closeErr != nil {
				err = errors.Join(err, closeErr)
			}
			return nil, nil, err
		}
		classes = external
	}

	cat := catalog.New(store, classes)
	if err := cat.Load(); err != nil {
		if closeErr := store.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return nil, nil, err
	}

	return New(settings, classifier, cat, store, metrics), store, nil
}
