package render

import (
	"image"
	"image/color"
	"math"
	"time"

	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
)

// moonRaster is the working resolution of the moon before it is scaled down.
const moonRaster = 1000

var epactOffsets = [12]int{0, 2, 0, 2, 2, 4, 5, 6, 7, 8, 9, 10}

// MoonAge approximates the lunar age in days (0..29) from the 19-year Metonic cycle.
func MoonAge(date time.Time) int {
	golden := mod(date.Year()-11, 19)
	return mod(golden*11+epactOffsets[int(date.Month())-1]+date.Day(), 30)
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}

// Moon draws the moon for the given age: a lit disc with the dark part filled
// scanline by scanline along the terminator, then scaled to size pixels.
func Moon(age, size int, aa bool, light, dark color.Color) *image.RGBA {
	const side = moonRaster + 2
	r := float64(moonRaster / 2)

	img := image.NewRGBA(image.Rect(0, 0, side, side))
	gc := draw2dimg.NewGraphicContext(img)

	gc.SetFillColor(light)
	draw2dkit.Ellipse(gc, r+0.5, r+0.5, r-0.5, r-0.5)
	gc.Fill()

	gc.SetFillColor(dark)
	for _, s := range terminator(age, r) {
		draw2dkit.Rectangle(gc, s.x0, s.y, s.x1, s.y+1)
	}
	gc.Fill()

	if size <= 0 {
		return img
	}
	return Resize(img, size, size, aa)
}

type span struct {
	y, x0, x1 float64
}

// terminator returns the dark span of every row of a disc of radius r.
func terminator(age int, r float64) []span {
	theta := float64(age) / 14.765 * math.Pi
	spans := make([]span, 0, int(2*r))
	for y := -r; y < r; y++ {
		alpha := math.Acos(y / r)
		x := r * math.Sin(alpha)
		length := r * math.Cos(theta) * math.Sin(alpha)

		s := span{y: r + y}
		if age < 15 {
			s.x0, s.x1 = r-x, r+length
		} else {
			s.x0, s.x1 = r-length, r+x
		}
		spans = append(spans, s)
	}
	return spans
}

// MoonDarkFraction is the share of the disc the terminator leaves dark.
func MoonDarkFraction(age int) float64 {
	r := float64(moonRaster / 2)
	var dark, total float64
	for _, s := range terminator(age, r) {
		dark += s.x1 - s.x0
		total += 2 * math.Sqrt(math.Max(0, r*r-(s.y-r)*(s.y-r)))
	}
	if total == 0 {
		return 0
	}
	return math.Min(1, dark/total)
}
