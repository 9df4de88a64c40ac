package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Brownie44l1/predictkit/internal/handlers"
	"github.com/Brownie44l1/predictkit/internal/model"
)

var (
	evalState    string
	evalValue    float64
	evalJSON     bool
	treePath     string
	profilesPath string
	onnxModel    string
	onnxMetadata string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Decide whether a weekly death count warrants an emergency",
	Long: `Walks the decision tree for the selected jurisdiction and compares the
value with the jurisdiction's statistical emergency threshold
(mean + threshold_std * std, or max(2 * value, 100) without a baseline).
Either rule alone is enough to declare an emergency; the output names the
rule that fired.

Example:
  predictkit evaluate --state Texas --value 5200`,
	Args: cobra.NoArgs,
	RunE: runEvaluate,
}

var jurisdictionsCmd = &cobra.Command{
	Use:   "jurisdictions",
	Short: "List the jurisdictions the model knows",
	Args:  cobra.NoArgs,
	RunE:  runJurisdictions,
}

func init() {
	for _, cmd := range []*cobra.Command{evaluateCmd, jurisdictionsCmd} {
		cmd.Flags().StringVar(&treePath, "tree", "", "decision tree JSON (overrides config)")
		cmd.Flags().StringVar(&profilesPath, "profiles", "", "jurisdiction baseline JSON (overrides config)")
		cmd.Flags().StringVar(&onnxModel, "onnx-model", "", "ONNX-exported tree to use instead of the JSON tree")
		cmd.Flags().StringVar(&onnxMetadata, "onnx-metadata", "", "metadata JSON for --onnx-model")
	}
	evaluateCmd.Flags().StringVarP(&evalState, "state", "s", "", "jurisdiction to evaluate")
	evaluateCmd.Flags().Float64VarP(&evalValue, "value", "n", 0, "current weekly death count")
	evaluateCmd.Flags().BoolVar(&evalJSON, "json", false, "print the result as JSON")
}

func applyModelFlags() {
	if treePath != "" {
		cfg.TreePath = treePath
	}
	if profilesPath != "" {
		cfg.ProfilesPath = profilesPath
	}
	if onnxModel != "" {
		cfg.ONNX.ModelPath = onnxModel
	}
	if onnxMetadata != "" {
		cfg.ONNX.MetadataPath = onnxMetadata
	}
}

// newPredictionHandler loads the classifier and profile table named by cfg.
// The returned func releases the classifier.
func newPredictionHandler() (*handlers.Handler, func(), error) {
	applyModelFlags()

	var (
		classifier   model.Classifier
		featureNames []string
		closeFn      = func() {}
	)
	if cfg.ONNX.Enabled() {
		logger.Info("Loading ONNX model", zap.String("path", cfg.ONNX.ModelPath))
		session, err := model.NewSession(cfg.ONNX.ModelPath, cfg.ONNX.MetadataPath, cfg.ONNX.LibraryPath)
		if err != nil {
			return nil, nil, err
		}
		classifier, featureNames, closeFn = session, session.Metadata.FeatureNames, session.Close
	} else {
		logger.Debug("Loading tree", zap.String("path", cfg.TreePath))
		tree, err := model.LoadTree(cfg.TreePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("Tree loaded",
			zap.Int("features", len(tree.FeatureNames)),
			zap.Int("depth", tree.Depth()))
		classifier, featureNames = tree, tree.FeatureNames
	}

	var profiles model.ProfileTable
	if cfg.ProfilesPath != "" {
		var err error
		profiles, err = model.LoadProfiles(cfg.ProfilesPath)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		logger.Debug("Profiles loaded", zap.Int("jurisdictions", len(profiles)))
	}

	h := handlers.NewHandler(classifier, featureNames, profiles, logger,
		handlers.Options{MaxDimension: cfg.MaxDimension})
	return h, closeFn, nil
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	h, closeFn, err := newPredictionHandler()
	if err != nil {
		return err
	}
	defer closeFn()

	req := handlers.PredictionRequest{Jurisdiction: evalState}
	if cmd.Flags().Changed("value") {
		v := evalValue
		req.CurrentValue = &v
	}

	resp, err := h.Predict(req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if evalJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printPrediction(out, resp)
	return nil
}

func printPrediction(w io.Writer, resp *handlers.PredictionResponse) {
	fmt.Fprintf(w, "Jurisdiction:        %s\n", resp.Jurisdiction)
	fmt.Fprintf(w, "Current deaths:      %.0f (%s risk)\n", resp.CurrentValue, resp.Risk)
	fmt.Fprintf(w, "Decision:            %s\n", resp.Decision)
	fmt.Fprintf(w, "Confidence:          %.1f%%\n", resp.Confidence)
	fmt.Fprintf(w, "Emergency threshold: %.0f\n", resp.EmergencyThreshold)
	fmt.Fprintf(w, "Rule:                %s\n", resp.Rule)
	if !resp.HasProfile {
		fmt.Fprintln(w, "Note: no baseline for this jurisdiction; threshold is max(2 x value, 100).")
	}
}

func runJurisdictions(cmd *cobra.Command, args []string) error {
	h, closeFn, err := newPredictionHandler()
	if err != nil {
		return err
	}
	defer closeFn()

	for _, j := range h.Jurisdictions() {
		fmt.Fprintln(cmd.OutOrStdout(), j)
	}
	return nil
}
