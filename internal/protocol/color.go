package protocol

import (
	"fmt"
	"image/color"
	"strings"
)

// ParseColor parses a server color. The server sends "0xRRGGBB"; "#RRGGBB"
// and bare "RRGGBB" are accepted too.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(hex, "0x"), strings.HasPrefix(hex, "0X"):
		hex = hex[2:]
	case strings.HasPrefix(hex, "#"):
		hex = hex[1:]
	}

	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("bad color %q", s)
	}

	var c [3]uint8
	for i := 0; i < 3; i++ {
		hi, ok1 := nibble(hex[2*i])
		lo, ok2 := nibble(hex[2*i+1])
		if !ok1 || !ok2 {
			return color.RGBA{}, fmt.Errorf("bad color %q", s)
		}
		c[i] = hi<<4 | lo
	}
	return color.RGBA{R: c[0], G: c[1], B: c[2], A: 255}, nil
}

// MustParseColor is ParseColor for values already validated. Invalid input
// yields opaque white.
func MustParseColor(s string) color.RGBA {
	c, err := ParseColor(s)
	if err != nil {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return c
}

func nibble(b byte) (uint8, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}
