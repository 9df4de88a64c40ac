package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildFeatures(t *testing.T) {
	names := []string{
		"All Cause",
		"Jurisdiction of Occurrence_Texas",
		"Jurisdiction of Occurrence_Ohio",
		"Natural Cause",
		"Septicemia (A40-A41)",
		"MMWR Week",
	}
	record := StateRecord{Fields: map[string]float64{
		"Natural Cause":      3700,
		"septicemia_a40_a41": 55,
		"unrelated":          9,
	}}

	got := BuildFeatures(names, "Texas", record, 4200)

	assert.Equal(t, Features{
		"All Cause":                        4200,
		"Jurisdiction of Occurrence_Texas": 1,
		"Jurisdiction of Occurrence_Ohio":  0,
		"Natural Cause":                    3700,
		"Septicemia (A40-A41)":             55,
		"MMWR Week":                        0,
	}, got)
}

func TestBuildFeaturesFeedsTree(t *testing.T) {
	tree := parse(t, allCauseTree)

	features := BuildFeatures(tree.FeatureNames, "Ohio", StateRecord{}, 65000)
	pred, err := tree.Classify(features)
	assert.NoError(t, err)
	assert.Equal(t, 1, pred.Class)
}

func TestFoldKey(t *testing.T) {
	assert.Equal(t, foldKey("All Cause"), foldKey("all_cause"))
	assert.Equal(t, foldKey("COVID-19 (U071)"), foldKey("covid19u071"))
	assert.NotEqual(t, foldKey("Heart"), foldKey("Hearts"))
}

func TestJurisdictions(t *testing.T) {
	tree := parse(t, allCauseTree)
	table := ProfileTable{"Vermont": {}, "Alaska": {}}

	assert.Equal(t, []string{"Ohio", "Texas"}, Jurisdictions(tree.FeatureNames, table))
	assert.Equal(t, []string{"Alaska", "Vermont"}, Jurisdictions([]string{"All Cause"}, table))
	assert.Empty(t, Jurisdictions(nil, nil))
}

func TestMatchJurisdiction(t *testing.T) {
	names := []string{"All Cause", JurisdictionPrefix + "New York", JurisdictionPrefix + "New York City"}

	tests := []struct {
		in, want string
		ok       bool
	}{
		{"New York", "New York", true},
		{"new york", "New York", true},
		{"NEW_YORK_CITY", "New York City", true},
		{"Boston", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := MatchJurisdiction(names, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
