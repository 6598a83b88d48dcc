package render

import (
	"image"
	"math"
)

// The layout is written against this reference surface.
const (
	RefWidth  = 800
	RefHeight = 480

	margin = 10
)

// Geometry maps reference layout coordinates onto the physical display.
type Geometry struct {
	DisplayWidth  int
	DisplayHeight int
	// Surface is the drawing area every layer is rendered on.
	SurfaceWidth  int
	SurfaceHeight int
	Zoom          float64
	// Offset centres the surface on the display.
	Offset image.Point
}

// NewGeometry derives the surface and zoom for a display. Landscape and portrait
// displays fit the reference layout by its limiting side; square displays keep a
// 4:3 band, so the layout is shrunk to three quarters of the width.
func NewGeometry(width, height int) Geometry {
	if width <= 0 || height <= 0 {
		width, height = RefWidth, RefHeight
	}

	w, h := float64(width), float64(height)
	var zoom float64
	if width == height {
		zoom = math.Round(w*3/4/RefWidth*100) / 100
	} else {
		zoom = math.Min(w/RefWidth, h/RefHeight)
	}
	if zoom <= 0 {
		zoom = 0.01
	}

	sw := int(math.Min(w, math.Round(RefWidth*zoom)))
	sh := int(math.Min(h, math.Round(RefHeight*zoom)))

	return Geometry{
		DisplayWidth:  width,
		DisplayHeight: height,
		SurfaceWidth:  sw,
		SurfaceHeight: sh,
		Zoom:          zoom,
		Offset:        image.Pt((width-sw)/2, (height-sh)/2),
	}
}

// Surface returns the bounds of a layer.
func (g Geometry) Surface() image.Rectangle {
	return image.Rect(0, 0, g.SurfaceWidth, g.SurfaceHeight)
}

// Display returns the bounds of the physical display.
func (g Geometry) Display() image.Rectangle {
	return image.Rect(0, 0, g.DisplayWidth, g.DisplayHeight)
}

// Scale converts a reference length to surface pixels.
func (g Geometry) Scale(v float64) int {
	return int(v * g.Zoom)
}

// LeftX places content at the left margin, pushed right by offset.
func (g Geometry) LeftX(offset float64) int {
	return int(margin*g.Zoom + offset*g.Zoom)
}

// RightX places content of the given pixel width against the right margin,
// pushed left by offset.
func (g Geometry) RightX(width int, offset float64) int {
	return int(float64(g.SurfaceWidth) - float64(width) - margin*g.Zoom - offset*g.Zoom)
}

// CenterX splits the surface into parts columns and centres content of the
// given pixel width in column part (0-based), shifted by offset.
func (g Geometry) CenterX(width, parts, part int, offset float64) int {
	if parts <= 0 {
		parts = 1
	}
	col := float64(g.SurfaceWidth) / float64(parts)
	return int(col/2 + col*float64(part) - float64(width)/2 + offset*g.Zoom)
}
