package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Brownie44l1/predictkit/internal/handlers"
	"github.com/Brownie44l1/predictkit/internal/imaging"
)

var (
	transformKind   string
	transformAmount float64
	maxDimension    int
	batchOutDir     string
	batchFormat     string
	batchWorkers    int
)

func kindNames() string {
	names := make([]string, 0, len(imaging.Kinds()))
	for _, k := range imaging.Kinds() {
		names = append(names, k.String())
	}
	return strings.Join(names, ", ")
}

var transformCmd = &cobra.Command{
	Use:   "transform [input] [output]",
	Short: "Apply one color transform to an image",
	Long: `Applies a single transform to the input image and writes the result.
The output format follows the output file's extension (png, jpeg, bmp, tiff).

Transforms and their --amount:
  grayscale   ignored
  sepia       ignored
  hue-rotate  degrees (default 36)
  brightness  -255..255 added to each channel
  saturation  -100..100 percent
  contrast    -255..255

Example:
  predictkit transform --kind saturation --amount 40 photo.jpg vivid.png`,
	Args: cobra.ExactArgs(2),
	RunE: runTransform,
}

var batchCmd = &cobra.Command{
	Use:   "batch [inputs...]",
	Short: "Apply one color transform to many images",
	Long: `Applies the same transform to every input and writes each result into
--out under the input's base name. Inputs are processed concurrently.

Example:
  predictkit batch --kind grayscale --out gray/ photos/*.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	for _, cmd := range []*cobra.Command{transformCmd, batchCmd} {
		cmd.Flags().StringVarP(&transformKind, "kind", "k", "", "transform: "+kindNames())
		cmd.Flags().Float64VarP(&transformAmount, "amount", "a", 0, "transform amount (see help)")
		cmd.Flags().IntVar(&maxDimension, "max-dimension", 0, "downsize images whose longer side exceeds this")
		_ = cmd.MarkFlagRequired("kind")
	}
	batchCmd.Flags().StringVarP(&batchOutDir, "out", "o", "", "output directory")
	batchCmd.Flags().StringVar(&batchFormat, "format", "", "output format (default: keep input extension)")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "concurrent jobs (default from config)")
	_ = batchCmd.MarkFlagRequired("out")
}

// resolveTransform parses --kind and picks the amount: the flag when set,
// otherwise the transform's default.
func resolveTransform(cmd *cobra.Command) (imaging.Kind, float64, error) {
	kind, err := imaging.ParseKind(transformKind)
	if err != nil {
		return 0, 0, fmt.Errorf("%w (valid: %s)", err, kindNames())
	}
	amount := imaging.DefaultAmount(kind)
	if cmd.Flags().Changed("amount") {
		amount = transformAmount
	}
	return kind, amount, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newImageHandler(cmd *cobra.Command) *handlers.Handler {
	if cmd.Flags().Changed("max-dimension") {
		cfg.MaxDimension = maxDimension
	}
	return handlers.NewHandler(nil, nil, nil, logger, handlers.Options{MaxDimension: cfg.MaxDimension})
}

func runTransform(cmd *cobra.Command, args []string) error {
	kind, amount, err := resolveTransform(cmd)
	if err != nil {
		return err
	}
	h := newImageHandler(cmd)

	job := handlers.Job{Input: args[0], Output: args[1], Kind: kind, Amount: amount}
	if err := h.TransformFile(commandContext(cmd), job); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", job.Output, kind)
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	kind, amount, err := resolveTransform(cmd)
	if err != nil {
		return err
	}
	h := newImageHandler(cmd)

	workers := cfg.Workers
	if cmd.Flags().Changed("workers") {
		workers = batchWorkers
	}

	jobs := make([]handlers.Job, 0, len(args))
	for _, in := range args {
		jobs = append(jobs, handlers.Job{
			Input:  in,
			Output: handlers.OutputPath(batchOutDir, in, batchFormat),
			Kind:   kind,
			Amount: amount,
		})
	}

	if err := h.Batch(commandContext(cmd), jobs, workers); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d images to %s (%s)\n", len(jobs), batchOutDir, kind)
	return nil
}
