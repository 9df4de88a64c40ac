package model

import (
	"encoding/json"
	"fmt"
	"os"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	defaultInputName         = "input"
	defaultLabelName         = "label"
	defaultProbabilitiesName = "probabilities"
)

// Session serves a decision tree exported to ONNX. Input and output tensors
// are bound once, so a Session must not be used from several goroutines at
// the same time.
type Session struct {
	session     *ort.AdvancedSession
	Metadata    Metadata
	inputTensor *ort.Tensor[float32]
	labelTensor *ort.Tensor[int64]
	probsTensor *ort.Tensor[float32]
}

// LoadMetadata reads the sidecar describing an exported model.
func LoadMetadata(metadataPath string) (Metadata, error) {
	metaFile, err := os.ReadFile(metadataPath)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(metaFile, &metadata); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if len(metadata.FeatureNames) == 0 {
		return Metadata{}, fmt.Errorf("metadata lists no feature_names")
	}
	if metadata.InputName == "" {
		metadata.InputName = defaultInputName
	}
	if metadata.LabelName == "" {
		metadata.LabelName = defaultLabelName
	}
	if metadata.ProbabilitiesName == "" {
		metadata.ProbabilitiesName = defaultProbabilitiesName
	}
	return metadata, nil
}

// NewSession loads an ONNX classifier. libraryPath points at the onnxruntime
// shared library; empty uses the runtime's default lookup.
func NewSession(modelPath, metadataPath, libraryPath string) (*Session, error) {
	metadata, err := LoadMetadata(metadataPath)
	if err != nil {
		return nil, err
	}

	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	s := &Session{Metadata: metadata}

	s.inputTensor, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(metadata.FeatureNames))))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	s.labelTensor, err = ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create label tensor: %w", err)
	}

	s.probsTensor, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 2))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create probabilities tensor: %w", err)
	}

	s.session, err = ort.NewAdvancedSession(modelPath,
		[]string{metadata.InputName}, []string{metadata.LabelName, metadata.ProbabilitiesName},
		[]ort.ArbitraryTensor{s.inputTensor}, []ort.ArbitraryTensor{s.labelTensor, s.probsTensor},
		nil)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return s, nil
}

// Classify runs the model on one row ordered by Metadata.FeatureNames.
func (s *Session) Classify(features Features) (Prediction, error) {
	copy(s.inputTensor.GetData(), s.Row(features))

	if err := s.session.Run(); err != nil {
		return Prediction{}, fmt.Errorf("inference failed: %w", err)
	}

	class := int(s.labelTensor.GetData()[0])
	if class != 0 && class != 1 {
		return Prediction{}, fmt.Errorf("model returned class %d", class)
	}
	probs := s.probsTensor.GetData()

	return Prediction{Class: class, Probability: float64(probs[class])}, nil
}

// Row lays features out in model input order.
func (s *Session) Row(features Features) []float32 {
	row := make([]float32, len(s.Metadata.FeatureNames))
	for i, name := range s.Metadata.FeatureNames {
		row[i] = float32(features.Value(name))
	}
	return row
}

// Close releases the tensors, the session, and the runtime environment.
func (s *Session) Close() {
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.labelTensor != nil {
		s.labelTensor.Destroy()
	}
	if s.probsTensor != nil {
		s.probsTensor.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}
	ort.DestroyEnvironment()
}
