package video

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// PNGSink writes every frame as a numbered PNG inside a directory
type PNGSink struct {
	dir     string
	frames  int
	encoder png.Encoder
}

func NewPNGSink(dir string) (*PNGSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create frame directory: %w", err)
	}
	return &PNGSink{dir: dir, encoder: png.Encoder{CompressionLevel: png.BestSpeed}}, nil
}

// FramePath is the file the n-th frame (0-based) is written to
func (s *PNGSink) FramePath(n int) string {
	return filepath.Join(s.dir, fmt.Sprintf("frame_%05d.png", n+1))
}

func (s *PNGSink) WriteFrame(img image.Image) error {
	f, err := os.Create(s.FramePath(s.frames))
	if err != nil {
		return err
	}
	if err := s.encoder.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode frame %d: %w", s.frames, err)
	}
	s.frames++
	return f.Close()
}

func (s *PNGSink) Close() error { return nil }

// Frames is the number of frames written so far
func (s *PNGSink) Frames() int { return s.frames }
