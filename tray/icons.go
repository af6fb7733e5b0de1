package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
)

// Tray icons are drawn at startup. Idle icons are monochrome so macOS can
// use them as template images.
var (
	iconIdle      = draw(22, micGlyph(color.Black, nil))
	iconIdleHi    = draw(44, micGlyph(color.Black, nil))
	iconListening = draw(44, micGlyph(color.White, red))
	iconError     = draw(44, badged(micGlyph(color.Black, nil), amber))
)

var (
	red   = color.RGBA{R: 220, G: 38, B: 38, A: 255}
	amber = color.RGBA{R: 245, G: 158, B: 11, A: 255}
)

// shader returns the color of the point (x, y), both in [0, 1], or nil for
// transparent.
type shader func(x, y float64) color.Color

func draw(size int, sh shader) []byte {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	s := float64(size)
	for py := range size {
		for px := range size {
			if c := sh((float64(px)+0.5)/s, (float64(py)+0.5)/s); c != nil {
				img.Set(px, py, c)
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic("tray icon: " + err.Error())
	}
	return buf.Bytes()
}

// micGlyph is a microphone capsule on its stand, optionally on a disc.
func micGlyph(ink color.Color, disc color.Color) shader {
	return func(x, y float64) color.Color {
		dx, dy := x-0.5, y-0.5
		if disc != nil && math.Hypot(dx, dy) > 0.48 {
			return nil
		}
		// capsule: a vertical stadium
		cy := min(max(y, 0.28), 0.48)
		capsule := math.Hypot(dx, y-cy) <= 0.12
		// cradle: the lower half of a ring around the capsule
		r := math.Hypot(dx, y-0.48)
		cradle := y >= 0.48 && r >= 0.18 && r <= 0.24
		stem := math.Abs(dx) <= 0.03 && y >= 0.7 && y <= 0.82
		base := math.Abs(dx) <= 0.14 && y >= 0.8 && y <= 0.86
		switch {
		case capsule || cradle || stem || base:
			return ink
		case disc != nil:
			return disc
		}
		return nil
	}
}

// badged overlays an exclamation badge in the lower right corner.
func badged(sh shader, fill color.Color) shader {
	const r, cx, cy = 0.22, 0.76, 0.76
	return func(x, y float64) color.Color {
		if math.Hypot(x-cx, y-cy) > r {
			return sh(x, y)
		}
		if math.Abs(x-cx) <= 0.035 {
			if (y >= cy-0.14 && y <= cy+0.04) || (y >= cy+0.08 && y <= cy+0.13) {
				return color.Black
			}
		}
		return fill
	}
}
