package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForSeverity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		severity int
		want     Level
	}{
		{"minimum severity", 1, Routine},
		{"at threshold", 5, Routine},
		{"just above threshold", 6, Urgent},
		{"maximum severity", 10, Urgent},
		{"zero", 0, Routine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ForSeverity(tt.severity))
		})
	}
}

type rec struct {
	text   string
	urgent bool
}

func TestOrderRecommendationsUrgentFirst(t *testing.T) {
	t.Parallel()

	recs := []rec{
		{"monitor yearly", false},
		{"see a dermatologist now", true},
		{"use sunscreen", false},
		{"schedule a biopsy", true},
	}

	ordered := OrderRecommendations(recs, func(r rec) bool { return r.urgent })

	assert.Equal(t, []rec{
		{"see a dermatologist now", true},
		{"schedule a biopsy", true},
		{"monitor yearly", false},
		{"use sunscreen", false},
	}, ordered)
}

func TestOrderRecommendationsEmpty(t *testing.T) {
	t.Parallel()

	ordered := OrderRecommendations(nil, func(r rec) bool { return r.urgent })
	assert.Empty(t, ordered)
}
