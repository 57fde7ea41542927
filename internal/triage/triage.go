// Package triage derives urgency tiers from diagnosis severity scores.
package triage

// Level is the urgency bucket assigned to a diagnosis.
type Level string

const (
	// Urgent lesions need prompt clinical follow-up.
	Urgent Level = "URGENT"
	// Routine lesions are monitored on a normal schedule.
	Routine Level = "ROUTINE"
)

// urgentThreshold is the severity score above which a diagnosis tiers as urgent.
const urgentThreshold = 5

// ForSeverity maps a catalog severity score to an urgency tier.
func ForSeverity(severity int) Level {
	if severity > urgentThreshold {
		return Urgent
	}
	return Routine
}

// OrderRecommendations returns recs with urgent entries ahead of routine
// ones, preserving relative order within each group. The current catalog
// seeds one recommendation per entry, but display ordering must hold when
// more are added.
func OrderRecommendations[T any](recs []T, isUrgent func(T) bool) []T {
	ordered := make([]T, 0, len(recs))
	for _, r := range recs {
		if isUrgent(r) {
			ordered = append(ordered, r)
		}
	}
	for _, r := range recs {
		if !isUrgent(r) {
			ordered = append(ordered, r)
		}
	}
	return ordered
}
