package render

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// MissingAssetError is returned when an icon id has no loaded image.
type MissingAssetError struct {
	ID string
}

func (e *MissingAssetError) Error() string {
	return fmt.Sprintf("asset %q not found", e.ID)
}

// Registry maps logical icon ids ("c01d", "sunrise", "unknown") to decoded images.
// It is built once at startup and read-only afterwards.
type Registry struct {
	icons   map[string]image.Image
	skipped []string
}

// NewRegistry wraps an in-memory set of icons.
func NewRegistry(icons map[string]image.Image) *Registry {
	if icons == nil {
		icons = make(map[string]image.Image)
	}
	return &Registry{icons: icons}
}

// LoadRegistry decodes every png, jpeg, gif and svg file in dir. The id is the
// file name up to the first dot. Files that fail to decode are skipped and
// reported by Skipped.
func LoadRegistry(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read icon dir: %w", err)
	}

	r := NewRegistry(nil)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		id, _, _ := strings.Cut(name, ".")
		if id == "" {
			continue
		}
		if _, dup := r.icons[id]; dup {
			continue
		}

		img, err := loadImage(filepath.Join(dir, name))
		if err != nil {
			r.skipped = append(r.skipped, name)
			continue
		}
		r.icons[id] = img
	}
	return r, nil
}

func loadImage(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var img image.Image
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		img, err = png.Decode(bytes.NewReader(data))
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(bytes.NewReader(data))
	case ".gif":
		img, err = gif.Decode(bytes.NewReader(data))
	case ".svg":
		return rasterizeSVG(data)
	default:
		return nil, fmt.Errorf("unsupported image format: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba, nil
}

// rasterizeSVG renders an icon at its view box size. Icons are scaled again
// when placed, so the view box only needs to be reasonably large.
func rasterizeSVG(data []byte) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	w, h := int(icon.ViewBox.W), int(icon.ViewBox.H)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("svg has an empty view box")
	}
	// Small view boxes are rendered at 256px on the long side to keep detail.
	if s := 256.0 / float64(max(w, h)); s > 1 {
		w, h = int(float64(w)*s), int(float64(h)*s)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	icon.SetTarget(0, 0, float64(w), float64(h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1.0)
	return rgba, nil
}

// Has reports whether id is loaded.
func (r *Registry) Has(id string) bool {
	_, ok := r.icons[id]
	return ok
}

// Icon returns the image for id or a *MissingAssetError.
func (r *Registry) Icon(id string) (image.Image, error) {
	img, ok := r.icons[id]
	if !ok {
		return nil, &MissingAssetError{ID: id}
	}
	return img, nil
}

// IDs lists the loaded ids in order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.icons))
	for id := range r.icons {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Skipped lists files that were present but could not be decoded.
func (r *Registry) Skipped() []string {
	return r.skipped
}
