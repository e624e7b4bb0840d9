package render

import (
	"image/color"
	"math"
)

// Fixed palette.
var (
	backgroundColor  = color.RGBA{0x27, 0x28, 0x22, 0xff}
	gridColor        = color.RGBA{0x3e, 0x3d, 0x32, 0xff}
	healthBackground = color.RGBA{0xbb, 0x5e, 0x5b, 0xff}
	healthForeground = color.RGBA{0x85, 0xb3, 0x6b, 0xff}
	pointsForeground = color.RGBA{0xff, 0xee, 0x70, 0xff}
	pointsBackground = BorderColor(pointsForeground)
	nameColor        = color.RGBA{0xf8, 0xf8, 0xf2, 0xff}
	nameShadow       = color.RGBA{0x22, 0x22, 0x22, 0xff}
	gameOverColor    = color.RGBA{0xf9, 0x26, 0x72, 0xff}
)

// BorderColor returns a darker, more saturated shade of c for outlines.
func BorderColor(c color.RGBA) color.RGBA {
	h, s, v := rgbToHSV(c)
	s = math.Min(s*2.9, 1)
	v *= 0.75
	return hsvToRGB(h, s, v, c.A)
}

// Tinted multiplies c by a gray level, as a sprite tint does.
func Tinted(c color.RGBA, level uint8) color.RGBA {
	m := func(v uint8) uint8 { return uint8(uint16(v) * uint16(level) / 255) }
	return color.RGBA{R: m(c.R), G: m(c.G), B: m(c.B), A: c.A}
}

// withAlpha scales a color's alpha by a in [0,1]. The result is
// non-premultiplied, which is what gg's SetColor expects from NRGBA.
func withAlpha(c color.RGBA, a float64) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(float64(c.A) * clamp01(a)))}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func rgbToHSV(c color.RGBA) (h, s, v float64) {
	r, g, b := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255
	hi := math.Max(r, math.Max(g, b))
	lo := math.Min(r, math.Min(g, b))
	d := hi - lo

	switch {
	case d == 0:
		h = 0
	case hi == r:
		h = 60 * math.Mod((g-b)/d, 6)
	case hi == g:
		h = 60 * ((b-r)/d + 2)
	default:
		h = 60 * ((r-g)/d + 4)
	}
	if h < 0 {
		h += 360
	}
	if hi > 0 {
		s = d / hi
	}
	return h, s, hi
}

func hsvToRGB(h, s, v float64, a uint8) color.RGBA {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

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

	to := func(f float64) uint8 { return uint8(math.Round((f + m) * 255)) }
	return color.RGBA{R: to(r), G: to(g), B: to(b), A: a}
}
