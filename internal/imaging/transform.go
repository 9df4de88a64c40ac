package imaging

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrNoImageLoaded = errors.New("no image loaded")
	ErrUnknownKind   = errors.New("unknown transform")
	ErrBadBuffer     = errors.New("pixel buffer does not match dimensions")
	ErrBadAmount     = errors.New("amount must be a finite number")
)

// Kind selects a transform.
type Kind int

const (
	Grayscale Kind = iota
	Sepia
	HueRotate
	Brightness
	Saturation
	Contrast
)

var kindNames = [...]string{
	Grayscale:  "grayscale",
	Sepia:      "sepia",
	HueRotate:  "hue-rotate",
	Brightness: "brightness",
	Saturation: "saturation",
	Contrast:   "contrast",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Kinds lists every transform in display order.
func Kinds() []Kind {
	return []Kind{Grayscale, Sepia, HueRotate, Brightness, Saturation, Contrast}
}

// ParseKind resolves a transform name, ignoring case, spaces and
// underscores.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("_", "-", " ", "-").Replace(n)
	switch n {
	case "grayscale", "greyscale", "gray", "grey":
		return Grayscale, nil
	case "sepia", "sepia-tone":
		return Sepia, nil
	case "hue-rotate", "hue", "huerotate", "hue-rotation":
		return HueRotate, nil
	case "brightness":
		return Brightness, nil
	case "saturation", "saturation-adjustment":
		return Saturation, nil
	case "contrast", "contrast-adjustment":
		return Contrast, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Luma coefficients (ITU-R BT.709).
const (
	LumaR = 0.2126
	LumaG = 0.7152
	LumaB = 0.0722
)

// Sepia matrix rows produce R', G', B' from R, G, B.
var sepiaMatrix = [3][3]float64{
	{0.393, 0.769, 0.189},
	{0.349, 0.686, 0.168},
	{0.272, 0.534, 0.131},
}

// DefaultHueShift is the hue rotation in degrees used when none is given
// (a tenth of a turn).
const DefaultHueShift = 36.0

// Parameter ranges. Amounts outside them are clamped.
const (
	MaxBrightness = 255.0
	MaxSaturation = 100.0
	MaxContrast   = 255.0
)

// DefaultAmount is the amount to use for kind when the caller has none.
func DefaultAmount(kind Kind) float64 {
	if kind == HueRotate {
		return DefaultHueShift
	}
	return 0
}

type pixelFunc func(r, g, b uint8) (uint8, uint8, uint8)

// Apply runs one transform over src and returns a new raster. amount is
// degrees for HueRotate, an additive offset for Brightness, a percentage
// for Saturation and a contrast level for Contrast; Grayscale and Sepia
// ignore it. A zero amount leaves adjustable transforms as an exact copy.
//
// A nil src fails with ErrNoImageLoaded. A zero-sized src is returned as is.
// NaN and infinite amounts fail with ErrBadAmount.
func Apply(src *Raster, kind Kind, amount float64) (*Raster, error) {
	if src == nil {
		return nil, ErrNoImageLoaded
	}
	if src.Empty() {
		return src, nil
	}
	if !src.valid() {
		return nil, fmt.Errorf("%w: %dx%d with %d bytes", ErrBadBuffer, src.Width, src.Height, len(src.Pix))
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, fmt.Errorf("%w, got %v", ErrBadAmount, amount)
	}

	var fn pixelFunc
	switch kind {
	case Grayscale:
		fn = grayscale
	case Sepia:
		fn = sepia
	case HueRotate:
		if amount == 0 {
			return src.Clone(), nil
		}
		fn = hueRotate(amount / 360)
	case Brightness:
		if amount == 0 {
			return src.Clone(), nil
		}
		fn = lut(brightnessTable(clampAmount(amount, MaxBrightness)))
	case Saturation:
		if amount == 0 {
			return src.Clone(), nil
		}
		fn = saturate(1 + clampAmount(amount, MaxSaturation)/100)
	case Contrast:
		if amount == 0 {
			return src.Clone(), nil
		}
		fn = lut(contrastTable(clampAmount(amount, MaxContrast)))
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}

	out := &Raster{Width: src.Width, Height: src.Height, Pix: make([]uint8, len(src.Pix))}
	for i := 0; i < len(src.Pix); i += 4 {
		in := src.Pix[i : i+4 : i+4]
		o := out.Pix[i : i+4 : i+4]
		o[0], o[1], o[2] = fn(in[0], in[1], in[2])
		o[3] = in[3]
	}
	return out, nil
}

func clampAmount(v, limit float64) float64 {
	return math.Min(math.Max(v, -limit), limit)
}

func grayscale(r, g, b uint8) (uint8, uint8, uint8) {
	y := toByte(LumaR*float64(r) + LumaG*float64(g) + LumaB*float64(b))
	return y, y, y
}

func sepia(r, g, b uint8) (uint8, uint8, uint8) {
	rf, gf, bf := float64(r), float64(g), float64(b)
	m := &sepiaMatrix
	return toByte(m[0][0]*rf + m[0][1]*gf + m[0][2]*bf),
		toByte(m[1][0]*rf + m[1][1]*gf + m[1][2]*bf),
		toByte(m[2][0]*rf + m[2][1]*gf + m[2][2]*bf)
}

// hueRotate shifts hue by turns (1.0 is a full rotation).
func hueRotate(turns float64) pixelFunc {
	return func(r, g, b uint8) (uint8, uint8, uint8) {
		h, s, l := RGBToHSL(r, g, b)
		return HSLToRGB(h+turns, s, l)
	}
}

func saturate(factor float64) pixelFunc {
	return func(r, g, b uint8) (uint8, uint8, uint8) {
		h, s, l := RGBToHSL(r, g, b)
		return HSLToRGB(h, clampUnit(s*factor), l)
	}
}

// lut applies the same 256-entry table to every color channel.
func lut(table *[256]uint8) pixelFunc {
	return func(r, g, b uint8) (uint8, uint8, uint8) {
		return table[r], table[g], table[b]
	}
}

func brightnessTable(offset float64) *[256]uint8 {
	var t [256]uint8
	for i := range t {
		t[i] = toByte(float64(i) + offset)
	}
	return &t
}

// contrastTable maps v to f*(v-128)+128 with f = 259(c+255) / 255(259-c).
func contrastTable(c float64) *[256]uint8 {
	f := (259 * (c + 255)) / (255 * (259 - c))
	var t [256]uint8
	for i := range t {
		t[i] = toByte(f*(float64(i)-128) + 128)
	}
	return &t
}
