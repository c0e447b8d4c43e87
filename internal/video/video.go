package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
)

// Sink consumes rendered frames in order
type Sink interface {
	WriteFrame(img image.Image) error
	Close() error
}

// EncodeParams configures an ffmpeg encode of a raw RGBA stream
type EncodeParams struct {
	Width   int
	Height  int
	FPS     int
	Filter  string
	Encoder string
	Quality int
}

// FFmpegSink streams raw RGBA frames into an ffmpeg process
type FFmpegSink struct {
	path   string
	params EncodeParams
	log    zerolog.Logger

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	frames int
	busy   time.Duration
}

// NewFFmpegSink starts ffmpeg writing to path. The process lives until Close.
func NewFFmpegSink(ctx context.Context, path string, params EncodeParams, log zerolog.Logger) (*FFmpegSink, error) {
	s := &FFmpegSink{path: path, params: params, log: log}

	s.cmd = exec.CommandContext(ctx, "ffmpeg", BuildArgs(path, params)...)
	s.cmd.Stderr = &s.stderr

	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	s.stdin = stdin

	if err := s.cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}
	log.Debug().Str("encoder", params.Encoder).Str("output", path).Msg("ffmpeg started")
	return s, nil
}

// BuildArgs returns the ffmpeg command line for a raw RGBA stdin stream
func BuildArgs(path string, p EncodeParams) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", fmt.Sprintf("%d", p.FPS),
		"-i", "-",
	}
	if p.Filter != "" {
		args = append(args, "-vf", p.Filter)
	}
	args = append(args,
		"-r", fmt.Sprintf("%d", p.FPS),
		"-pix_fmt", "yuv420p",
		"-c:v", p.Encoder,
	)
	args = append(args, QualityArgs(p.Encoder, p.Quality)...)
	return append(args, path)
}

// QualityArgs maps a quality value onto the encoder's own rate control
func QualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox ignores -q:v on many builds; use bitrate. 75 -> 7.5 Mbit/s
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default: // libx264
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

func (s *FFmpegSink) WriteFrame(img image.Image) error {
	start := time.Now()
	defer func() { s.busy += time.Since(start) }()

	if b := img.Bounds(); b.Dx() != s.params.Width || b.Dy() != s.params.Height {
		return fmt.Errorf("frame %d is %dx%d, stream is %dx%d", s.frames, b.Dx(), b.Dy(), s.params.Width, s.params.Height)
	}
	if err := writeRawRGBA(s.stdin, img); err != nil {
		return fmt.Errorf("write raw error: %w", err)
	}
	s.frames++
	return nil
}

// Close flushes stdin and waits for ffmpeg to finish the file
func (s *FFmpegSink) Close() error {
	s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %v, output: %s", err, s.stderr.String())
	}
	s.log.Info().Int("frames", s.frames).Str("output", s.path).Msg("video encoded")
	return nil
}

// Busy is the time spent blocked writing into ffmpeg
func (s *FFmpegSink) Busy() time.Duration { return s.busy }

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}
