package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Brownie44l1/predictkit/internal/imaging"
)

// ErrOutputCollision is returned by Batch when two jobs share an output path.
var ErrOutputCollision = errors.New("output path collision")

// Job transforms one file. The output format follows Output's extension.
type Job struct {
	Input  string
	Output string
	Kind   imaging.Kind
	Amount float64
}

// TransformFile decodes Input, applies the transform and writes Output.
// The source is read fresh on every call.
func (h *Handler) TransformFile(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	in, err := os.Open(job.Input)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", job.Input, err)
	}
	defer in.Close()

	img, format, err := imaging.Decode(in)
	if err != nil {
		return fmt.Errorf("%s: %w", job.Input, err)
	}
	h.logger.Debug("Decoded image",
		zap.String("path", job.Input),
		zap.String("format", format),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))

	out, err := h.TransformImage(img, job.Kind, job.Amount)
	if err != nil {
		return fmt.Errorf("%s: %w", job.Input, err)
	}

	if dir := filepath.Dir(job.Output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	f, err := os.Create(job.Output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", job.Output, err)
	}
	if err := imaging.Encode(f, out, imaging.FormatFromPath(job.Output)); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", job.Output, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", job.Output, err)
	}

	h.logger.Info("Transformed image",
		zap.String("input", job.Input),
		zap.String("output", job.Output),
		zap.Stringer("kind", job.Kind),
		zap.Float64("amount", job.Amount))
	return nil
}

// Batch runs jobs with at most workers in flight (GOMAXPROCS when workers
// <= 0). Each job is independent; the first failure cancels the rest. Jobs
// that would write the same output are rejected before any work starts.
func (h *Handler) Batch(ctx context.Context, jobs []Job, workers int) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	seen := make(map[string]string, len(jobs))
	for _, job := range jobs {
		out := filepath.Clean(job.Output)
		if prev, ok := seen[out]; ok {
			return fmt.Errorf("%w: %s and %s both write %s", ErrOutputCollision, prev, job.Input, job.Output)
		}
		seen[out] = job.Input
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for _, job := range jobs {
		eg.Go(func() error {
			return h.TransformFile(egCtx, job)
		})
	}
	if err := eg.Wait(); err != nil {
		h.logger.Error("Batch failed", zap.Int("jobs", len(jobs)), zap.Error(err))
		return err
	}
	return nil
}

// OutputPath places input's base name in dir with an extension naming the
// format Encode will write: ext when given, otherwise the input's own
// extension mapped onto a writable format (so a.gif becomes a.png).
func OutputPath(dir, input, ext string) string {
	base := filepath.Base(input)
	inExt := filepath.Ext(base)
	if ext == "" {
		ext = inExt
	}
	return filepath.Join(dir, base[:len(base)-len(inExt)]+"."+imaging.NormalizeFormat(ext))
}
