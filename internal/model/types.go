package model

// Features maps feature names to values. Names the map does not hold read as 0.
type Features map[string]float64

// Value returns the named feature, or 0 when it is absent.
func (f Features) Value(name string) float64 {
	return f[name]
}

// Node is either a *Split or a *Leaf.
type Node interface {
	isNode()
}

// Split routes a feature vector left when Features[Feature] <= Threshold,
// right otherwise.
type Split struct {
	Feature   string
	Threshold float64
	Left      Node
	Right     Node
}

// Leaf terminates a path with a class label and an optional per-class
// probability distribution.
type Leaf struct {
	Class         int
	Probabilities []float64
}

func (*Split) isNode() {}
func (*Leaf) isNode()  {}

// Tree is a precomputed binary decision tree together with the feature names
// it was trained on.
type Tree struct {
	FeatureNames []string
	Root         Node
}

// Prediction is what a Classifier produced for one feature vector.
type Prediction struct {
	Class int
	// Probability of Class, in [0,1].
	Probability float64
}

// Classifier predicts a binary class for a feature vector.
type Classifier interface {
	Classify(features Features) (Prediction, error)
}

// StateProfile holds a jurisdiction's baseline statistics.
type StateProfile struct {
	Mean                float64
	StdDev              float64
	ThresholdMultiplier float64
}

// DefaultThresholdMultiplier is used when a profile record omits threshold_std.
const DefaultThresholdMultiplier = 2.0

// Threshold returns Mean + ThresholdMultiplier*StdDev. A zero multiplier
// puts the threshold at the mean.
func (p StateProfile) Threshold() float64 {
	return p.Mean + p.ThresholdMultiplier*p.StdDev
}

// StateRecord is one jurisdiction's entry in the profile table.
type StateRecord struct {
	Profile *StateProfile
	Fields  map[string]float64
}

// ProfileTable is keyed by jurisdiction name.
type ProfileTable map[string]StateRecord

// Decision is the final emergency call.
type Decision int

const (
	NoEmergency Decision = iota
	Emergency
)

func (d Decision) String() string {
	if d == Emergency {
		return "Declare Emergency"
	}
	return "No Emergency"
}

// MarshalText renders the decision label.
func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Rule reports which rule made the decision an emergency.
type Rule int

const (
	RuleNone Rule = iota
	RuleTree
	RuleThreshold
	RuleBoth
)

func (r Rule) String() string {
	switch r {
	case RuleTree:
		return "tree"
	case RuleThreshold:
		return "threshold"
	case RuleBoth:
		return "tree+threshold"
	default:
		return "none"
	}
}

// MarshalText renders the rule name.
func (r Rule) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Result is the outcome of one evaluation.
type Result struct {
	Decision Decision `json:"decision"`
	// Confidence is a percentage in [0,100].
	Confidence         float64 `json:"confidence"`
	EmergencyThreshold float64 `json:"emergency_threshold"`
	TreeClass          int     `json:"tree_class"`
	Rule               Rule    `json:"rule"`
	// ZScore is (value - threshold) / StdDev. Zero when no profile applies.
	ZScore float64 `json:"z_score"`
}

// Metadata describes an ONNX-exported tree: the feature order of its input
// row and the tensor names to bind.
type Metadata struct {
	FeatureNames      []string `json:"feature_names"`
	InputName         string   `json:"input_name"`
	LabelName         string   `json:"label_name"`
	ProbabilitiesName string   `json:"probabilities_name"`
}
