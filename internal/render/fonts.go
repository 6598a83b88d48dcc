package render

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// Style selects the regular or bold typeface.
type Style int

const (
	Regular Style = iota
	Bold
)

type faceKey struct {
	style Style
	size  float64
}

// Fonts hands out sized faces of the two configured typefaces.
// A typeface that could not be loaded falls back to basicfont.Face7x13.
type Fonts struct {
	regular *opentype.Font
	bold    *opentype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

// LoadFonts parses dir/regular and dir/bold. A missing file is not an error,
// a file that exists but cannot be parsed is.
func LoadFonts(dir, regular, bold string) (*Fonts, error) {
	f := &Fonts{faces: make(map[faceKey]font.Face)}

	var err error
	if f.regular, err = parseFont(filepath.Join(dir, regular)); err != nil {
		return f, err
	}
	if f.bold, err = parseFont(filepath.Join(dir, bold)); err != nil {
		return f, err
	}
	if f.bold == nil {
		f.bold = f.regular
	}
	return f, nil
}

// FallbackFonts uses the built-in bitmap face for every size.
func FallbackFonts() *Fonts {
	return &Fonts{faces: make(map[faceKey]font.Face)}
}

func parseFont(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return f, nil
}

// Scalable reports whether a real typeface was loaded.
func (f *Fonts) Scalable() bool {
	return f.regular != nil
}

// Face returns a cached face of the given style and pixel size.
func (f *Fonts) Face(style Style, size float64) font.Face {
	src := f.regular
	if style == Bold {
		src = f.bold
	}
	if src == nil || size <= 0 {
		return basicfont.Face7x13
	}

	key := faceKey{style: style, size: size}

	f.mu.Lock()
	defer f.mu.Unlock()
	if face, ok := f.faces[key]; ok {
		return face
	}
	face, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	f.faces[key] = face
	return face
}
