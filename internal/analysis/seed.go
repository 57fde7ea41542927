package analysis

import (
	"github.com/dermascan/dermascan-go/internal/conf"
)

// ReseedCatalog rebuilds the diagnosis catalog from the active class
// table (the configured label file, or the built-in table), removing
// stored analyses in the process. The classifier is not loaded for this.
func ReseedCatalog(settings *conf.Settings) error {
	pipeline, store, err := Bootstrap(settings, nil, false)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			pipeline.logger().Error("failed to close datastore", "error", err)
		}
	}()

	if err := pipeline.Reseed(); err != nil {
		return err
	}

	pipeline.logger().Info("diagnosis catalog reseeded")
	return nil
}
