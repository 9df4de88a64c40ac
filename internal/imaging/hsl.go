package imaging

import "math"

// RGBToHSL converts 8-bit RGB to hue, saturation and lightness, each in
// [0,1]. Achromatic colors (max == min) have zero hue and saturation.
func RGBToHSL(r, g, b uint8) (h, s, l float64) {
	rf := float64(r) / 255
	gf := float64(g) / 255
	bf := float64(b) / 255

	hi := math.Max(rf, math.Max(gf, bf))
	lo := math.Min(rf, math.Min(gf, bf))
	l = (hi + lo) / 2
	if hi == lo {
		return 0, 0, l
	}

	d := hi - lo
	if l > 0.5 {
		s = d / (2 - hi - lo)
	} else {
		s = d / (hi + lo)
	}

	switch hi {
	case rf:
		h = (gf - bf) / d
		if gf < bf {
			h += 6
		}
	case gf:
		h = (bf-rf)/d + 2
	default:
		h = (rf-gf)/d + 4
	}
	return h / 6, s, l
}

// HSLToRGB converts hue, saturation and lightness in [0,1] back to 8-bit
// RGB. Hue wraps; saturation and lightness are clamped.
func HSLToRGB(h, s, l float64) (r, g, b uint8) {
	h = wrapUnit(h)
	s = clampUnit(s)
	l = clampUnit(l)

	if s == 0 {
		v := toByte(l * 255)
		return v, v, v
	}

	c := (1 - math.Abs(2*l-1)) * s
	hp := h * 6
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	m := l - c/2

	var rf, gf, bf float64
	switch int(hp) {
	case 0:
		rf, gf, bf = c, x, 0
	case 1:
		rf, gf, bf = x, c, 0
	case 2:
		rf, gf, bf = 0, c, x
	case 3:
		rf, gf, bf = 0, x, c
	case 4:
		rf, gf, bf = x, 0, c
	default:
		rf, gf, bf = c, 0, x
	}
	return toByte((rf + m) * 255), toByte((gf + m) * 255), toByte((bf + m) * 255)
}

func wrapUnit(v float64) float64 {
	v = math.Mod(v, 1)
	if v < 0 {
		v++
	}
	if v >= 1 {
		v = 0
	}
	return v
}

func clampUnit(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

// toByte rounds to the nearest integer and clamps to [0,255].
func toByte(v float64) uint8 {
	v = math.Round(v)
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
