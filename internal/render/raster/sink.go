package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
)

// PNGDir writes each frame to dir as frame_NNNN.png.
type PNGDir struct {
	dir     string
	encoder png.Encoder
}

// NewPNGDir creates dir if needed.
func NewPNGDir(dir string) (*PNGDir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create frame dir: %w", err)
	}
	return &PNGDir{dir: dir, encoder: png.Encoder{CompressionLevel: png.BestSpeed}}, nil
}

// Path returns the file a frame number is written to.
func (d *PNGDir) Path(number int) string {
	return filepath.Join(d.dir, fmt.Sprintf("frame_%04d.png", number))
}

func (d *PNGDir) WriteFrame(ctx context.Context, number int, img *image.RGBA) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Create(d.Path(number))
	if err != nil {
		return err
	}
	if err := d.encoder.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode frame %d: %w", number, err)
	}
	return f.Close()
}

// Latest keeps only the most recent frame, for previews.
type Latest struct {
	mu     sync.RWMutex
	number int
	img    *image.RGBA
}

func (l *Latest) WriteFrame(_ context.Context, number int, img *image.RGBA) error {
	l.mu.Lock()
	l.number, l.img = number, img
	l.mu.Unlock()
	return nil
}

// Frame returns the latest frame and its number; img is nil before the
// first frame.
func (l *Latest) Frame() (number int, img *image.RGBA) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.number, l.img
}

// PNG encodes the latest frame.
func (l *Latest) PNG() ([]byte, error) {
	_, img := l.Frame()
	if img == nil {
		return nil, fmt.Errorf("no frame rendered yet")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
