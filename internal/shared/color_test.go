package shared

import (
	"image/color"
	"testing"
)

func TestNormalizeHex(t *testing.T) {
	tc := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "#F5F5F5", want: "#f5f5f5", ok: true},
		{in: "fcd34d", want: "#fcd34d", ok: true},
		{in: "#fff", want: "#ffffff", ok: true},
		{in: " #1e293b ", want: "#1e293b", ok: true},
		{in: "blue", ok: false},
		{in: "", ok: false},
		{in: "#12345", ok: false},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeHex(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("NormalizeHex(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestHexColor(t *testing.T) {
	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

	if got := HexColor("#f5f5f5", white); got != (color.NRGBA{R: 0xf5, G: 0xf5, B: 0xf5, A: 0xff}) {
		t.Errorf("HexColor(#f5f5f5) = %v", got)
	}
	if got := HexColor("not-a-color", white); got != white {
		t.Errorf("expected fallback, got %v", got)
	}
	if got := HexColor("", white); got != white {
		t.Errorf("expected fallback for empty, got %v", got)
	}
}
