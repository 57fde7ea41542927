package dermnet

import (
	"github.com/dermascan/dermascan-go/internal/imageproc"
)

// Classifier is the port the analysis pipeline talks to. One normalized
// tensor in, one probability vector out, one entry per class in the
// classifier's class table. The vector is trusted as-is, implementations
// do not re-normalize.
type Classifier interface {
	// Predict runs inference on a single-image batch tensor. It must be
	// safe for concurrent use. Implementations fail fast with
	// errors.ErrModelNotLoaded when the backend is unavailable.
	Predict(tensor *imageproc.Tensor) ([]float32, error)

	// Classes returns the ordered class table this classifier predicts over.
	Classes() []Class
}
