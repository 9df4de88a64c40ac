package model

import "math"

// MinFallbackThreshold is the floor of the emergency threshold when no state
// profile is available.
const MinFallbackThreshold = 100

// Evaluate classifies features with the tree and applies the emergency
// threshold rule to currentValue. profile may be nil.
//
// The threshold rule overrides the tree: the decision is an emergency when
// either the tree predicts class 1 or currentValue exceeds the threshold.
// Result.Rule tells which of the two fired.
func Evaluate(tree *Tree, features Features, profile *StateProfile, currentValue float64) (Result, error) {
	return EvaluateWith(tree, features, profile, currentValue)
}

// EvaluateWith is Evaluate for any Classifier.
func EvaluateWith(c Classifier, features Features, profile *StateProfile, currentValue float64) (Result, error) {
	if c == nil {
		return Result{}, ErrNilClassifier
	}
	pred, err := c.Classify(features)
	if err != nil {
		return Result{}, err
	}
	return Decide(pred, profile, currentValue), nil
}

// EmergencyThreshold is Mean + ThresholdMultiplier*StdDev for a profile, or
// max(currentValue*2, 100) without one.
func EmergencyThreshold(profile *StateProfile, currentValue float64) float64 {
	if profile != nil {
		return profile.Threshold()
	}
	return math.Max(currentValue*2, MinFallbackThreshold)
}

// Decide combines a prediction with the threshold rule.
func Decide(pred Prediction, profile *StateProfile, currentValue float64) Result {
	threshold := EmergencyThreshold(profile, currentValue)

	byTree := pred.Class == 1
	byThreshold := currentValue > threshold

	res := Result{
		EmergencyThreshold: threshold,
		TreeClass:          pred.Class,
	}
	switch {
	case byTree && byThreshold:
		res.Rule = RuleBoth
	case byTree:
		res.Rule = RuleTree
	case byThreshold:
		res.Rule = RuleThreshold
	}
	if res.Rule != RuleNone {
		res.Decision = Emergency
	}

	confidence := pred.Probability
	if profile != nil && profile.StdDev > 0 {
		res.ZScore = (currentValue - threshold) / profile.StdDev
		confidence = math.Max(confidence, sigmoid(res.ZScore))
	}
	res.Confidence = clamp(confidence*100, 0, 100)

	return res
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}

// Risk buckets a weekly death count.
type Risk string

const (
	RiskLow      Risk = "Low"
	RiskMedium   Risk = "Medium"
	RiskHigh     Risk = "High"
	RiskVeryHigh Risk = "Very High"
)

// RiskCategory buckets a weekly count: below 50k Low, below 60k Medium,
// below 70k High, otherwise Very High.
func RiskCategory(weekly float64) Risk {
	switch {
	case weekly < 50000:
		return RiskLow
	case weekly < 60000:
		return RiskMedium
	case weekly < 70000:
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}
