package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLeadTimeDays(t *testing.T) {
	tests := []struct {
		name        string
		matType     string
		subtype     string
		wantDays    int
		wantTracked bool
	}{
		{"composite key", "exterior_panel", "pvc", 40, true},
		{"composite key is case insensitive on subtype", "exterior_panel", "Aluminium", 40, true},
		{"trim okoume", "trim", "okoume", 20, true},
		{"falls back to type", "glass", "tempered", 20, true},
		{"type without subtype", "jamb_kit", "", 20, true},
		{"unknown type uses default", "special_interior_panel", "", DefaultLeadTimeDays, true},
		{"unknown composite falls to default", "trim", "pvc", DefaultLeadTimeDays, true},
		{"laminate is not tracked", "exterior_panel", "laminate", 0, false},
		{"laminate any case", "trim", " LAMINATE ", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, tracked := LeadTimeDays(tt.matType, tt.subtype)
			assert.Equal(t, tt.wantTracked, tracked)
			assert.Equal(t, tt.wantDays, days)
		})
	}
}

func TestSuggestDelivery(t *testing.T) {
	ordered := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)

	got, ok := SuggestDelivery("exterior_panel", "mdf", ordered)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 22, 0, 0, 0, 0, time.UTC), got)

	_, ok = SuggestDelivery("exterior_panel", "laminate", ordered)
	assert.False(t, ok)
}

func TestRequiresPaint(t *testing.T) {
	tests := []struct {
		exterior string
		interior string
		want     bool
	}{
		{"brown", "white", false},
		{"Brown", "WHITE", false},
		{"", "", false},
		{"brown", "", false},
		{"RAL 7016", "white", true},
		{"white", "green", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RequiresPaint(tt.exterior, tt.interior), "%q/%q", tt.exterior, tt.interior)
	}
}

func TestMaterialTypeValid(t *testing.T) {
	for _, mt := range MaterialTypes {
		assert.True(t, mt.Valid(), mt)
	}
	assert.False(t, MaterialType("laminate").Valid())
	assert.False(t, MaterialType("").Valid())
}
