package imaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func TestHSLRoundTrip(t *testing.T) {
	step := 3
	if testing.Short() {
		step = 15
	}
	for r := 0; r <= 255; r += step {
		for g := 0; g <= 255; g += step {
			for b := 0; b <= 255; b += step {
				h, s, l := RGBToHSL(uint8(r), uint8(g), uint8(b))
				r2, g2, b2 := HSLToRGB(h, s, l)
				if absDiff(uint8(r), r2) > 1 || absDiff(uint8(g), g2) > 1 || absDiff(uint8(b), b2) > 1 {
					t.Fatalf("round trip (%d,%d,%d) -> (%v,%v,%v) -> (%d,%d,%d)", r, g, b, h, s, l, r2, g2, b2)
				}
			}
		}
	}
}

func TestRGBToHSL(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		h, s, l float64
	}{
		{"black", 0, 0, 0, 0, 0, 0},
		{"white", 255, 255, 255, 0, 0, 1},
		{"gray", 128, 128, 128, 0, 0, 128.0 / 255},
		{"red", 255, 0, 0, 0, 1, 0.5},
		{"green", 0, 255, 0, 1.0 / 3, 1, 0.5},
		{"blue", 0, 0, 255, 2.0 / 3, 1, 0.5},
		{"magenta", 255, 0, 255, 5.0 / 6, 1, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, s, l := RGBToHSL(tt.r, tt.g, tt.b)
			assert.InDelta(t, tt.h, h, 1e-9)
			assert.InDelta(t, tt.s, s, 1e-9)
			assert.InDelta(t, tt.l, l, 1e-9)
		})
	}
}

func TestHSLToRGBSextants(t *testing.T) {
	tests := []struct {
		h       float64
		r, g, b uint8
	}{
		{0, 255, 0, 0},
		{1.0 / 6, 255, 255, 0},
		{2.0 / 6, 0, 255, 0},
		{3.0 / 6, 0, 255, 255},
		{4.0 / 6, 0, 0, 255},
		{5.0 / 6, 255, 0, 255},
		{1, 255, 0, 0},
		{-1.0 / 6, 255, 0, 255},
	}
	for _, tt := range tests {
		r, g, b := HSLToRGB(tt.h, 1, 0.5)
		assert.Equal(t, [3]uint8{tt.r, tt.g, tt.b}, [3]uint8{r, g, b}, "hue %v", tt.h)
	}
}

func TestHSLToRGBClampsInputs(t *testing.T) {
	r, g, b := HSLToRGB(0, 2, 0.5)
	assert.Equal(t, [3]uint8{255, 0, 0}, [3]uint8{r, g, b})

	r, g, b = HSLToRGB(0.3, 0.5, 1.5)
	assert.Equal(t, [3]uint8{255, 255, 255}, [3]uint8{r, g, b})
}
