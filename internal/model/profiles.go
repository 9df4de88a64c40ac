package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

type baselineJSON struct {
	Mean *float64 `json:"mean"`
	Std  *float64 `json:"std"`
}

// LoadProfiles reads a profile table from a JSON file.
func LoadProfiles(path string) (ProfileTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profiles: %w", err)
	}
	defer f.Close()

	return ParseProfiles(f)
}

// ParseProfiles decodes a JSON object keyed by jurisdiction. Each record may
// carry its baseline as {"baseline": {"mean", "std"}} or as flat
// "baseline_mean"/"baseline_std" fields, with an optional "threshold_std"
// multiplier. Every numeric top-level field is also kept in Fields.
func ParseProfiles(r io.Reader) (ProfileTable, error) {
	var raw map[string]map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}

	table := make(ProfileTable, len(raw))
	for name, fields := range raw {
		rec, err := parseRecord(fields)
		if err != nil {
			return nil, fmt.Errorf("failed to parse profile %q: %w", name, err)
		}
		table[name] = rec
	}
	return table, nil
}

func parseRecord(fields map[string]json.RawMessage) (StateRecord, error) {
	rec := StateRecord{Fields: make(map[string]float64, len(fields))}
	for k, v := range fields {
		var n *float64
		if json.Unmarshal(v, &n) == nil && n != nil {
			rec.Fields[k] = *n
		}
	}

	var mean, std float64
	if msg, ok := fields["baseline"]; ok {
		var b baselineJSON
		if err := json.Unmarshal(msg, &b); err != nil {
			return StateRecord{}, fmt.Errorf("bad baseline: %w", err)
		}
		if b.Mean != nil {
			mean = *b.Mean
		}
		if b.Std != nil {
			std = *b.Std
		}
	}
	if mean == 0 || std == 0 {
		mean, std = rec.Fields["baseline_mean"], rec.Fields["baseline_std"]
	}
	if mean == 0 || std == 0 {
		return rec, nil
	}

	// Only an absent or null threshold_std takes the default; an explicit 0
	// is kept.
	multiplier := DefaultThresholdMultiplier
	if m, ok := rec.Fields["threshold_std"]; ok {
		multiplier = m
	}
	rec.Profile = &StateProfile{Mean: mean, StdDev: std, ThresholdMultiplier: multiplier}
	return rec, nil
}

// Lookup returns the record for a jurisdiction along with the table key that
// matched, trying the name exactly first and then by folded key.
func (t ProfileTable) Lookup(jurisdiction string) (string, StateRecord, bool) {
	if rec, ok := t[jurisdiction]; ok {
		return jurisdiction, rec, true
	}
	want := foldKey(jurisdiction)
	if want == "" {
		return "", StateRecord{}, false
	}
	for k, rec := range t {
		if foldKey(k) == want {
			return k, rec, true
		}
	}
	return "", StateRecord{}, false
}
