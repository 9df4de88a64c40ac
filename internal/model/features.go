package model

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// JurisdictionPrefix marks one-hot jurisdiction features in a tree's
// feature names.
const JurisdictionPrefix = "Jurisdiction of Occurrence_"

// currentValueMarker identifies the feature that receives the observed value.
const currentValueMarker = "all cause"

// BuildFeatures assembles the feature vector for one jurisdiction:
//   - JurisdictionPrefix features are 1 for the selected jurisdiction, else 0;
//   - a feature whose name contains "all cause" takes currentValue;
//   - any other feature is read from the record by exact or folded name,
//     defaulting to 0.
func BuildFeatures(featureNames []string, jurisdiction string, record StateRecord, currentValue float64) Features {
	features := make(Features, len(featureNames))
	for _, name := range featureNames {
		switch {
		case strings.HasPrefix(name, JurisdictionPrefix):
			if strings.TrimPrefix(name, JurisdictionPrefix) == jurisdiction {
				features[name] = 1
			} else {
				features[name] = 0
			}
		case strings.Contains(strings.ToLower(name), currentValueMarker):
			features[name] = currentValue
		default:
			features[name] = recordValue(record.Fields, name)
		}
	}
	return features
}

func recordValue(fields map[string]float64, name string) float64 {
	if v, ok := fields[name]; ok {
		return v
	}
	want := foldKey(name)
	for k, v := range fields {
		if foldKey(k) == want {
			return v
		}
	}
	return 0
}

// foldKey case-folds s and drops everything but letters and digits, so
// "All Cause" and "all_cause" compare equal.
func foldKey(s string) string {
	folded := cases.Fold().String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, folded)
}

// MatchJurisdiction finds the tree's spelling of a jurisdiction among the
// JurisdictionPrefix features, exactly or by folded key.
func MatchJurisdiction(featureNames []string, jurisdiction string) (string, bool) {
	want := foldKey(jurisdiction)
	var folded string
	for _, name := range featureNames {
		if !strings.HasPrefix(name, JurisdictionPrefix) {
			continue
		}
		j := strings.TrimPrefix(name, JurisdictionPrefix)
		if j == jurisdiction {
			return j, true
		}
		if folded == "" && want != "" && foldKey(j) == want {
			folded = j
		}
	}
	return folded, folded != ""
}

// Jurisdictions lists the selectable jurisdictions: those named by
// JurisdictionPrefix features, or the table's keys when the tree has none.
func Jurisdictions(featureNames []string, table ProfileTable) []string {
	var out []string
	for _, name := range featureNames {
		if strings.HasPrefix(name, JurisdictionPrefix) {
			out = append(out, strings.TrimPrefix(name, JurisdictionPrefix))
		}
	}
	if len(out) == 0 {
		for name := range table {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
