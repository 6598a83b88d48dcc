package render

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Canvas draws onto one layer using reference coordinates.
type Canvas struct {
	Dst draw.Image
	Geo Geometry
	AA  bool
}

// Placement is content measured and waiting for a horizontal position.
type Placement struct {
	width int
	c     Canvas
	draw  func(x int)
}

func (p Placement) Left(offset float64) int {
	x := p.c.Geo.LeftX(offset)
	p.draw(x)
	return x
}

func (p Placement) Right(offset float64) int {
	x := p.c.Geo.RightX(p.width, offset)
	p.draw(x)
	return x
}

func (p Placement) Center(parts, part int, offset float64) int {
	x := p.c.Geo.CenterX(p.width, parts, part, offset)
	p.draw(x)
	return x
}

// Width is the measured extent in surface pixels.
func (p Placement) Width() int {
	return p.width
}

// Text measures s; y is the top edge of the text box in reference units.
func (c Canvas) Text(s string, face font.Face, col color.Color, y float64) Placement {
	width := font.MeasureString(face, s).Ceil()
	top := c.Geo.Scale(y)
	return Placement{
		width: width,
		c:     c,
		draw: func(x int) {
			drawString(c.Dst, s, face, col, x, top)
		},
	}
}

func drawString(dst draw.Image, s string, face font.Face, col color.Color, x, top int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, top+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
}

// Image scales img so its longer side is size reference units; y is its top edge.
func (c Canvas) Image(img image.Image, size float64, y float64) Placement {
	scaled := c.Fit(img, size)
	top := c.Geo.Scale(y)
	return Placement{
		width: scaled.Bounds().Dx(),
		c:     c,
		draw: func(x int) {
			c.blit(scaled, x, top)
		},
	}
}

// ImageAt scales img to size and draws it at reference position (x, y).
func (c Canvas) ImageAt(img image.Image, size float64, x, y float64) {
	c.blit(c.Fit(img, size), c.Geo.Scale(x), c.Geo.Scale(y))
}

func (c Canvas) blit(img image.Image, x, y int) {
	b := img.Bounds()
	r := image.Rect(x, y, x+b.Dx(), y+b.Dy())
	draw.Draw(c.Dst, r, img, b.Min, draw.Over)
}

// Fit scales img so its longer side measures size reference units, keeping the aspect ratio.
func (c Canvas) Fit(img image.Image, size float64) image.Image {
	target := c.Geo.Scale(size)
	b := img.Bounds()
	if target <= 0 || b.Dx() == 0 || b.Dy() == 0 {
		return img
	}

	w, h := target, target
	if b.Dx() >= b.Dy() {
		h = target * b.Dy() / b.Dx()
	} else {
		w = target * b.Dx() / b.Dy()
	}
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	return Resize(img, w, h, c.AA)
}

// Resize scales src to w x h; Catmull-Rom when aa is set, approximate bilinear otherwise.
func Resize(src image.Image, w, h int, aa bool) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	var scaler xdraw.Scaler = xdraw.ApproxBiLinear
	if aa {
		scaler = xdraw.CatmullRom
	}
	scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}

// FillRect fills a rectangle given in reference units.
func (c Canvas) FillRect(x0, y0, x1, y1 float64, col color.Color) {
	z := c.Geo.Zoom
	r := image.Rect(int(x0*z), int(y0*z), int(x1*z), int(y1*z))
	draw.Draw(c.Dst, r, image.NewUniform(col), image.Point{}, draw.Src)
}
