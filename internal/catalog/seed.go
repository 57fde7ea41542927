package catalog

import (
	"github.com/dermascan/dermascan-go/internal/datastore"
	"github.com/dermascan/dermascan-go/internal/dermnet"
)

// highRiskCodes are the malignant and pre-malignant categories. They seed
// with maximum severity and an urgent recommendation; everything else in
// the class table seeds as benign.
var highRiskCodes = map[string]bool{
	"MEL":   true,
	"BCC":   true,
	"AKIEC": true,
}

const (
	highSeverity = 10
	lowSeverity  = 1

	urgentRecommendation  = "Consult a dermatologist as soon as possible. Do not delay; early treatment of malignant and pre-malignant lesions greatly improves outcomes."
	routineRecommendation = "No urgent action needed. Monitor the lesion for changes in size, shape or color and mention it at your next routine checkup."
)

// descriptions holds the curated clinical text per class code. Codes
// missing here fall back to the class label.
var descriptions = map[string]string{
	"AKIEC": "Actinic keratosis / intraepithelial carcinoma: a rough, scaly patch caused by sun damage that can progress to squamous cell carcinoma.",
	"BCC":   "Basal cell carcinoma: the most common form of skin cancer, slow growing and locally invasive.",
	"BKL":   "Benign keratosis: a harmless pigmented growth such as a seborrheic keratosis or solar lentigo.",
	"DF":    "Dermatofibroma: a common benign fibrous skin nodule, usually on the legs.",
	"MEL":   "Melanoma: a malignant tumor of the melanocytes and the most dangerous form of skin cancer.",
	"NV":    "Melanocytic nevus: a common mole, a benign accumulation of pigment cells.",
	"VASC":  "Vascular lesion: a benign growth of blood vessels such as an angioma or pyogenic granuloma.",
}

// seedSet derives the fixed catalog seed from the given class table: one
// entry per class code, at least one recommendation per entry, severity
// partitioned by the high-risk code set.
func seedSet(classes []dermnet.Class) (entries []datastore.DiagnosisEntry, recommendations map[string][]datastore.Recommendation) {
	recommendations = make(map[string][]datastore.Recommendation, len(classes))
	for _, class := range classes {
		description, ok := descriptions[class.Code]
		if !ok {
			description = class.Label
		}

		severity := lowSeverity
		rec := datastore.Recommendation{Text: routineRecommendation, Urgent: false}
		if highRiskCodes[class.Code] {
			severity = highSeverity
			rec = datastore.Recommendation{Text: urgentRecommendation, Urgent: true}
		}

		entries = append(entries, datastore.DiagnosisEntry{
			Code:        class.Code,
			Description: description,
			Severity:    severity,
		})
		recommendations[class.Code] = []datastore.Recommendation{rec}
	}
	return entries, recommendations
}
