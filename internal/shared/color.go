package shared

import (
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// NormalizeHex parses a CSS hex color ("#abc", "aabbcc", "#AABBCC") and returns it as lower-case "#rrggbb".
func NormalizeHex(s string) (string, bool) {
	c, ok := parseHex(s)
	if !ok {
		return "", false
	}
	return c.Hex(), true
}

// HexColor parses a CSS hex color into an opaque [color.NRGBA], returning fallback when s is not a color.
func HexColor(s string, fallback color.NRGBA) color.NRGBA {
	c, ok := parseHex(s)
	if !ok {
		return fallback
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

func parseHex(s string) (colorful.Color, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return colorful.Color{}, false
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) != 4 && len(s) != 7 {
		return colorful.Color{}, false
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, false
	}
	return c, true
}
