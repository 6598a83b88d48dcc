// Package frame holds the most recently exported dashboard frame as JPEG.
package frame

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"sync/atomic"

	"github.com/i474232898/weatherpi-dashboard/internal/store"
)

// ErrNoFrame is returned before the first export.
var ErrNoFrame = errors.New("no frame exported yet")

const defaultQuality = 90

// Store keeps the last exported frame in memory and mirrors it to a file.
// Export is called by the display loop, Latest by HTTP handlers.
type Store struct {
	path    string
	quality int
	latest  atomic.Pointer[[]byte]
}

// NewStore creates a frame store. An empty path keeps frames in memory only.
func NewStore(path string) *Store {
	return &Store{path: path, quality: defaultQuality}
}

// Export encodes img as JPEG and publishes it.
func (s *Store) Export(img image.Image) error {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.quality}); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	data := buf.Bytes()
	s.latest.Store(&data)

	if s.path == "" {
		return nil
	}
	if err := store.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Latest returns the last exported JPEG.
func (s *Store) Latest() ([]byte, error) {
	data := s.latest.Load()
	if data == nil {
		return nil, ErrNoFrame
	}
	return *data, nil
}

// Path returns the file frames are mirrored to.
func (s *Store) Path() string {
	return s.path
}
