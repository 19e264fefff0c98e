package game

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/crazy3lf/colorconv"
)

// hslColor converts HSL (hue: degrees, saturation/lightness: percent) with
// an alpha in [0, 1] to a premultiplied color.
func hslColor(h, s, l, alpha float64) color.RGBA {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	r, g, b, err := colorconv.HSLToRGB(h, clamp01(s/100), clamp01(l/100))
	if err != nil {
		return color.RGBA{}
	}
	a := clamp01(alpha)
	return color.RGBA{
		R: uint8(float64(r) * a),
		G: uint8(float64(g) * a),
		B: uint8(float64(b) * a),
		A: uint8(255 * a),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// formatDuration formats a duration as MM:SS
func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
