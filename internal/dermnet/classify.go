package dermnet

import (
	"github.com/dermascan/dermascan-go/internal/errors"
)

// Prediction is the mapped result of one classifier invocation.
// Confidence is a percentage in the 0-100 range; the probability to
// percentage conversion happens here and nowhere else.
type Prediction struct {
	Code       string
	Label      string
	Confidence float64
}

// MapPrediction turns a probability vector into a class code, label and
// confidence percentage using the given ordered class table. The maximum
// probability wins, ties break to the lowest index.
func MapPrediction(table []Class, probs []float32) (Prediction, error) {
	if len(table) == 0 || len(probs) != len(table) {
		return Prediction{}, errors.New(errors.ErrClassTableMismatch).
			Component("dermnet").
			Category(errors.CategoryValidation).
			Context("class_count", len(table)).
			Context("probability_count", len(probs)).
			Build()
	}

	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}

	confidence := float64(probs[best]) * 100.0
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	return Prediction{
		Code:       table[best].Code,
		Label:      table[best].Label,
		Confidence: confidence,
	}, nil
}
