package display

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/devices/v3/waveshare2in13v4"
	"periph.io/x/host/v3"

	"github.com/i474232898/weatherpi-dashboard/internal/logger"
)

// EPDPresenter drives a Waveshare 2.13" v4 e-paper HAT. The panel is mounted
// in landscape, so frames are rotated into the controller's portrait buffer.
// The panel is put to sleep after every update and only redrawn when the
// 1-bit image changes.
type EPDPresenter struct {
	port     spi.PortCloser
	dev      *waveshare2in13v4.Dev
	log      *logger.Logger
	sleeping bool
	last     []byte
}

// OpenEPD initialises the periph host drivers, opens the default SPI port and clears the panel.
func OpenEPD(log *logger.Logger) (*EPDPresenter, error) {
	if log == nil {
		log = logger.Nop()
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	port, err := spireg.Open("")
	if err != nil {
		return nil, fmt.Errorf("open spi: %w", err)
	}

	opts := waveshare2in13v4.EPD2in13v4
	dev, err := waveshare2in13v4.NewHat(port, &opts)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("open e-paper hat: %w", err)
	}
	if err := dev.Init(); err != nil {
		port.Close()
		return nil, fmt.Errorf("init e-paper: %w", err)
	}
	if err := dev.Clear(color.White); err != nil {
		port.Close()
		return nil, fmt.Errorf("clear e-paper: %w", err)
	}

	return &EPDPresenter{port: port, dev: dev, log: log.Named("epd")}, nil
}

// Bounds is the landscape size of the panel.
func (e *EPDPresenter) Bounds() image.Rectangle {
	b := e.dev.Bounds()
	return image.Rect(0, 0, b.Dy(), b.Dx())
}

func (e *EPDPresenter) Present(img image.Image) error {
	portrait := toPortrait(img)
	buf := image1bit.NewVerticalLSB(e.dev.Bounds())
	draw.Draw(buf, buf.Bounds(), portrait, image.Point{}, draw.Src)

	if bytes.Equal(buf.Pix, e.last) {
		return nil
	}

	if e.sleeping {
		if err := e.dev.Init(); err != nil {
			return fmt.Errorf("wake e-paper: %w", err)
		}
		e.sleeping = false
	}
	if err := e.dev.Draw(e.dev.Bounds(), buf, image.Point{}); err != nil {
		return fmt.Errorf("draw e-paper: %w", err)
	}
	e.last = buf.Pix

	if err := e.dev.Sleep(); err != nil {
		e.log.Warnw("e-paper sleep failed", "error", err)
		return nil
	}
	e.sleeping = true
	return nil
}

// Close blanks the panel and releases the SPI port.
func (e *EPDPresenter) Close() error {
	if e.sleeping {
		if err := e.dev.Init(); err != nil {
			e.log.Warnw("e-paper wake for shutdown failed", "error", err)
		}
	}
	if err := e.dev.Clear(color.White); err != nil {
		e.log.Warnw("e-paper clear failed", "error", err)
	}
	if err := e.dev.Sleep(); err != nil {
		e.log.Warnw("e-paper sleep failed", "error", err)
	}
	if err := e.dev.Halt(); err != nil {
		e.log.Warnw("e-paper halt failed", "error", err)
	}
	return e.port.Close()
}

// toPortrait turns a landscape image a quarter clockwise into a grayscale
// image of swapped dimensions.
func toPortrait(src image.Image) *image.Gray {
	b := src.Bounds()
	w, h := b.Dy(), b.Dx()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.GrayModel.Convert(src.At(b.Min.X+y, b.Min.Y+b.Dy()-1-x))
			dst.SetGray(x, y, c.(color.Gray))
		}
	}
	return dst
}
