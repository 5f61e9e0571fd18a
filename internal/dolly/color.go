package dolly

import "math"

// RGB holds 8-bit color channels.
type RGB struct {
	R, G, B uint8
}

// HSLToRGB converts hue (degrees), saturation and lightness (percent).
func HSLToRGB(h, s, l float64) RGB {
	h = WrapDegrees(h)
	s = clamp(s, 0, 100) / 100
	l = clamp(l, 0, 100) / 100

	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return RGB{R: toByte(r + m), G: toByte(g + m), B: toByte(b + m)}
}

// RGBToHSL is the inverse of HSLToRGB, rounded to whole units.
func RGBToHSL(c RGB) (h, s, l float64) {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	l = (maxC + minC) / 2

	if maxC != minC {
		d := maxC - minC
		if l > 0.5 {
			s = d / (2 - maxC - minC)
		} else {
			s = d / (maxC + minC)
		}
		switch maxC {
		case r:
			h = (g - b) / d
			if g < b {
				h += 6
			}
		case g:
			h = (b-r)/d + 2
		default:
			h = (r-g)/d + 4
		}
		h /= 6
	}
	return math.Round(h * 360), math.Round(s * 100), math.Round(l * 100)
}

// SetKeyColor sets the point's chroma key from an RGB color.
func (p *Point) SetKeyColor(c RGB) {
	p.Hue, p.Saturation, p.Lightness = RGBToHSL(c)
}

// KeyColor returns the point's chroma key as RGB.
func (p Point) KeyColor() RGB {
	return HSLToRGB(p.Hue, p.Saturation, p.Lightness)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func toByte(v float64) uint8 {
	return uint8(math.Round(clamp(v, 0, 1) * 255))
}
