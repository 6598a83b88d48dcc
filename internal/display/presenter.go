package display

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/i474232898/weatherpi-dashboard/internal/config"
	"github.com/i474232898/weatherpi-dashboard/internal/logger"
	"github.com/i474232898/weatherpi-dashboard/internal/store"
)

// Presenter kinds accepted in display.presenter.
const (
	PresenterPNG  = "png"
	PresenterEPD  = "epd"
	PresenterNone = "none"
)

// Presenter puts a finished frame on the physical target.
type Presenter interface {
	// Bounds is the size frames are scaled to before Present.
	Bounds() image.Rectangle
	Present(img image.Image) error
	Close() error
}

// NewPresenter opens the presenter named in cfg. A failure here is fatal for the caller.
func NewPresenter(cfg config.DisplayConfig, log *logger.Logger) (Presenter, error) {
	bounds := image.Rect(0, 0, cfg.Width, cfg.Height)
	switch cfg.Presenter {
	case PresenterPNG:
		return NewPNGPresenter(cfg.Output, bounds), nil
	case PresenterEPD:
		return OpenEPD(log)
	case PresenterNone, "":
		return NopPresenter{Rect: bounds}, nil
	default:
		return nil, fmt.Errorf("unknown presenter %q", cfg.Presenter)
	}
}

// PNGPresenter writes every frame to a PNG file. It stands in for a framebuffer
// on desktops and headless hosts.
type PNGPresenter struct {
	path   string
	bounds image.Rectangle
	enc    png.Encoder
	buf    bytes.Buffer
}

func NewPNGPresenter(path string, bounds image.Rectangle) *PNGPresenter {
	return &PNGPresenter{
		path:   path,
		bounds: bounds,
		enc:    png.Encoder{CompressionLevel: png.BestSpeed},
	}
}

func (p *PNGPresenter) Bounds() image.Rectangle { return p.bounds }

func (p *PNGPresenter) Present(img image.Image) error {
	p.buf.Reset()
	if err := p.enc.Encode(&p.buf, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return store.WriteFileAtomic(p.path, p.buf.Bytes(), 0o644)
}

func (p *PNGPresenter) Close() error { return nil }

// NopPresenter discards frames. Useful in server mode where only the exported JPEG matters.
type NopPresenter struct {
	Rect image.Rectangle
}

func (n NopPresenter) Bounds() image.Rectangle { return n.Rect }

func (n NopPresenter) Present(image.Image) error { return nil }

func (n NopPresenter) Close() error { return nil }
