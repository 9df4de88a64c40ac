package imaging

import (
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(c color.NRGBA) *Raster {
	r := NewRaster(1, 1)
	r.Set(0, 0, c)
	return r
}

// gradient covers a spread of colors, including grays, primaries and
// translucent pixels.
func gradient() *Raster {
	r := NewRaster(16, 16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			r.Set(x, y, color.NRGBA{
				R: uint8(x * 17),
				G: uint8(y * 17),
				B: uint8((x*y + 3*x) % 256),
				A: uint8(255 - x*y%128),
			})
		}
	}
	r.Set(0, 0, color.NRGBA{128, 128, 128, 255})
	r.Set(1, 0, color.NRGBA{255, 0, 0, 255})
	r.Set(2, 0, color.NRGBA{0, 0, 0, 0})
	return r
}

func apply(t *testing.T, src *Raster, kind Kind, amount float64) *Raster {
	t.Helper()
	out, err := Apply(src, kind, amount)
	require.NoError(t, err)
	return out
}

func TestSepiaFixture(t *testing.T) {
	out := apply(t, solid(color.NRGBA{200, 100, 50, 255}), Sepia, 0)
	assert.Equal(t, color.NRGBA{165, 147, 114, 255}, out.At(0, 0))
}

func TestSepiaClampsAt255(t *testing.T) {
	out := apply(t, solid(color.NRGBA{255, 255, 255, 255}), Sepia, 0)
	assert.Equal(t, color.NRGBA{255, 255, 239, 255}, out.At(0, 0))
}

func TestGrayscale(t *testing.T) {
	out := apply(t, solid(color.NRGBA{255, 0, 0, 7}), Grayscale, 0)
	assert.Equal(t, color.NRGBA{54, 54, 54, 7}, out.At(0, 0))

	out = apply(t, solid(color.NRGBA{10, 200, 30, 255}), Grayscale, 0)
	// 2.126 + 143.04 + 2.166 = 147.332
	assert.Equal(t, color.NRGBA{147, 147, 147, 255}, out.At(0, 0))
}

func TestGrayscaleIdempotent(t *testing.T) {
	once := apply(t, gradient(), Grayscale, 0)
	twice := apply(t, once, Grayscale, 0)
	assert.True(t, once.Equal(twice))
}

func TestZeroAmountIsIdentity(t *testing.T) {
	src := gradient()
	for _, kind := range []Kind{Brightness, Saturation, Contrast, HueRotate} {
		t.Run(kind.String(), func(t *testing.T) {
			out := apply(t, src, kind, 0)
			assert.True(t, src.Equal(out))
			assert.NotSame(t, src, out)
		})
	}
}

func TestAdjustmentsAreNotIdempotent(t *testing.T) {
	src := solid(color.NRGBA{100, 150, 200, 255})

	b10 := apply(t, src, Brightness, 10)
	assert.Equal(t, color.NRGBA{110, 160, 210, 255}, b10.At(0, 0))
	b10b10 := apply(t, b10, Brightness, 10)
	assert.False(t, b10.Equal(b10b10))

	// Recomputing from the source is stable.
	assert.True(t, b10.Equal(apply(t, src, Brightness, 10)))

	s := apply(t, src, Saturation, 50)
	assert.False(t, s.Equal(apply(t, s, Saturation, 50)))

	sp := apply(t, src, Sepia, 0)
	assert.False(t, sp.Equal(apply(t, sp, Sepia, 0)))
}

func TestApplyDoesNotMutateSource(t *testing.T) {
	src := gradient()
	snapshot := src.Clone()
	for _, kind := range Kinds() {
		_ = apply(t, src, kind, 40)
	}
	assert.True(t, src.Equal(snapshot))
}

func TestAlphaPassesThrough(t *testing.T) {
	src := gradient()
	for _, kind := range Kinds() {
		out := apply(t, src, kind, 25)
		for i := 3; i < len(src.Pix); i += 4 {
			require.Equal(t, src.Pix[i], out.Pix[i], "%v alpha at %d", kind, i)
		}
	}
}

func TestBrightnessClamps(t *testing.T) {
	src := solid(color.NRGBA{10, 128, 250, 255})
	assert.Equal(t, color.NRGBA{110, 228, 255, 255}, apply(t, src, Brightness, 100).At(0, 0))
	assert.Equal(t, color.NRGBA{0, 28, 150, 255}, apply(t, src, Brightness, -100).At(0, 0))
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, apply(t, src, Brightness, 1000).At(0, 0))
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, apply(t, src, Brightness, -1000).At(0, 0))
}

func TestSaturation(t *testing.T) {
	src := solid(color.NRGBA{100, 150, 200, 255})

	gray := apply(t, src, Saturation, -100).At(0, 0)
	assert.Equal(t, gray.R, gray.G)
	assert.Equal(t, gray.G, gray.B)
	assert.Equal(t, uint8(150), gray.R, "lightness is kept")

	// Doubling saturation of s=0.5, l≈0.588 reaches s=1.
	assert.Equal(t, color.NRGBA{50, 150, 250, 255}, apply(t, src, Saturation, 100).At(0, 0))

	// Gray pixels have nothing to saturate.
	g := solid(color.NRGBA{90, 90, 90, 255})
	assert.True(t, g.Equal(apply(t, g, Saturation, 100)))
}

func TestHueRotate(t *testing.T) {
	red := solid(color.NRGBA{255, 0, 0, 255})

	assert.Equal(t, color.NRGBA{0, 255, 0, 255}, apply(t, red, HueRotate, 120).At(0, 0))
	assert.Equal(t, color.NRGBA{0, 0, 255, 255}, apply(t, red, HueRotate, -120).At(0, 0))
	assert.True(t, red.Equal(apply(t, red, HueRotate, 360)))

	// The default shift is a tenth of a turn: red moves to orange.
	assert.Equal(t, color.NRGBA{255, 153, 0, 255}, apply(t, red, HueRotate, DefaultAmount(HueRotate)).At(0, 0))
}

func TestContrast(t *testing.T) {
	src := solid(color.NRGBA{64, 128, 192, 255})

	flat := apply(t, src, Contrast, -255).At(0, 0)
	assert.Equal(t, color.NRGBA{128, 128, 128, 255}, flat)

	hard := apply(t, src, Contrast, 255).At(0, 0)
	assert.Equal(t, color.NRGBA{0, 128, 255, 255}, hard)

	more := apply(t, src, Contrast, 50).At(0, 0)
	assert.Less(t, more.R, uint8(64))
	assert.Greater(t, more.B, uint8(192))
}

func TestApplyErrors(t *testing.T) {
	_, err := Apply(nil, Grayscale, 0)
	assert.ErrorIs(t, err, ErrNoImageLoaded)

	empty := &Raster{}
	out, err := Apply(empty, Sepia, 0)
	require.NoError(t, err)
	assert.Same(t, empty, out)

	_, err = Apply(&Raster{Width: 2, Height: 2, Pix: make([]uint8, 3)}, Sepia, 0)
	assert.ErrorIs(t, err, ErrBadBuffer)

	_, err = Apply(gradient(), Kind(42), 0)
	assert.ErrorIs(t, err, ErrUnknownKind)

	for _, kind := range []Kind{HueRotate, Brightness, Saturation, Contrast} {
		for _, amount := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
			out, err := Apply(gradient(), kind, amount)
			assert.ErrorIs(t, err, ErrBadAmount, "%v %v", kind, amount)
			assert.Nil(t, out)
		}
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"grayscale":             Grayscale,
		"Greyscale":             Grayscale,
		"sepia":                 Sepia,
		"Sepia Tone":            Sepia,
		"hue":                   HueRotate,
		"hue_rotate":            HueRotate,
		"Hue Rotation":          HueRotate,
		"BRIGHTNESS":            Brightness,
		"Saturation Adjustment": Saturation,
		" contrast ":            Contrast,
	}
	for in, want := range tests {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKind("blur")
	assert.True(t, errors.Is(err, ErrUnknownKind))

	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	assert.Equal(t, "Kind(42)", Kind(42).String())
}
