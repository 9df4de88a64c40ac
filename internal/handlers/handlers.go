package handlers

import (
	"fmt"
	"image"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/Brownie44l1/predictkit/internal/imaging"
	"github.com/Brownie44l1/predictkit/internal/model"
)

// PredictionRequest is one emergency query. CurrentValue is the observed
// weekly count; it is a pointer so an absent value can be told from zero.
type PredictionRequest struct {
	Jurisdiction string   `json:"jurisdiction"`
	CurrentValue *float64 `json:"current_value"`
}

// PredictionResponse is what the shell renders.
type PredictionResponse struct {
	Jurisdiction       string         `json:"jurisdiction"`
	CurrentValue       float64        `json:"current_value"`
	Decision           model.Decision `json:"decision"`
	Confidence         float64        `json:"confidence"`
	EmergencyThreshold float64        `json:"emergency_threshold"`
	TreeClass          int            `json:"tree_class"`
	Rule               model.Rule     `json:"rule"`
	Risk               model.Risk     `json:"risk"`
	HasProfile         bool           `json:"has_profile"`
}

// Options tunes image handling.
type Options struct {
	// MaxDimension downsizes sources larger than this before transforming.
	// Zero keeps the original size.
	MaxDimension int
}

type Handler struct {
	classifier   model.Classifier
	featureNames []string
	profiles     model.ProfileTable
	opts         Options
	logger       *zap.Logger
}

// NewHandler wires a classifier and profile table. featureNames drives
// feature assembly and the jurisdiction list. A nil logger discards output.
func NewHandler(classifier model.Classifier, featureNames []string, profiles model.ProfileTable, logger *zap.Logger, opts Options) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		classifier:   classifier,
		featureNames: featureNames,
		profiles:     profiles,
		opts:         opts,
		logger:       logger,
	}
}

// Jurisdictions lists the jurisdictions a request may name.
func (h *Handler) Jurisdictions() []string {
	return model.Jurisdictions(h.featureNames, h.profiles)
}

func (h *Handler) Predict(req PredictionRequest) (*PredictionResponse, error) {
	jurisdiction := strings.TrimSpace(req.Jurisdiction)
	if jurisdiction == "" {
		return nil, &model.MissingInputError{Field: "jurisdiction", Reason: "please select a state"}
	}
	if req.CurrentValue == nil {
		return nil, &model.MissingInputError{Field: "current_value", Reason: "please enter a valid number of deaths"}
	}
	value := *req.CurrentValue
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, &model.InvalidInputError{Field: "current_value", Reason: "must be a finite number"}
	}
	if value < 0 {
		return nil, &model.InvalidInputError{Field: "current_value", Reason: "deaths cannot be negative"}
	}
	if h.classifier == nil {
		return nil, model.ErrNilClassifier
	}

	// Prefer the tree's spelling so the one-hot features line up, then the
	// profile table's.
	name, known := model.MatchJurisdiction(h.featureNames, jurisdiction)
	if !known {
		name = jurisdiction
	}
	key, record, ok := h.profiles.Lookup(name)
	if !ok && !known {
		return nil, &model.MissingInputError{Field: "jurisdiction", Reason: fmt.Sprintf("%q not found in dataset", jurisdiction)}
	}
	if !known {
		name = key
	}
	jurisdiction = name

	features := model.BuildFeatures(h.featureNames, jurisdiction, record, value)
	result, err := model.EvaluateWith(h.classifier, features, record.Profile, value)
	if err != nil {
		h.logger.Error("Evaluation failed",
			zap.String("jurisdiction", jurisdiction),
			zap.Error(err))
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}

	if result.Rule == model.RuleThreshold {
		h.logger.Info("Threshold rule overrode tree prediction",
			zap.String("jurisdiction", jurisdiction),
			zap.Float64("value", value),
			zap.Float64("threshold", result.EmergencyThreshold))
	}
	h.logger.Debug("Evaluated",
		zap.String("jurisdiction", jurisdiction),
		zap.Stringer("decision", result.Decision),
		zap.Stringer("rule", result.Rule),
		zap.Float64("confidence", result.Confidence))

	return &PredictionResponse{
		Jurisdiction:       jurisdiction,
		CurrentValue:       value,
		Decision:           result.Decision,
		Confidence:         result.Confidence,
		EmergencyThreshold: result.EmergencyThreshold,
		TreeClass:          result.TreeClass,
		Rule:               result.Rule,
		Risk:               model.RiskCategory(value),
		HasProfile:         record.Profile != nil,
	}, nil
}

// preprocessImage fits the source to the configured size and copies it into
// a raster.
func (h *Handler) preprocessImage(img image.Image) *imaging.Raster {
	b := img.Bounds()
	fitted := imaging.Fit(img, h.opts.MaxDimension)
	if fb := fitted.Bounds(); fb.Dx() != b.Dx() || fb.Dy() != b.Dy() {
		h.logger.Debug("Resized source",
			zap.Int("width", b.Dx()), zap.Int("height", b.Dy()),
			zap.Int("new_width", fb.Dx()), zap.Int("new_height", fb.Dy()))
	}
	return imaging.FromImage(fitted)
}

// TransformImage applies one transform to a decoded image.
func (h *Handler) TransformImage(img image.Image, kind imaging.Kind, amount float64) (*image.NRGBA, error) {
	if img == nil {
		return nil, imaging.ErrNoImageLoaded
	}
	var ed imaging.Editor
	if err := ed.Load(h.preprocessImage(img)); err != nil {
		return nil, err
	}
	out, err := ed.Apply(kind, amount)
	if err != nil {
		return nil, err
	}
	return out.Image(), nil
}
