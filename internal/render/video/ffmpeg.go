// Package video encodes rasterized frames by piping PNGs to ffmpeg.
package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported video format")
	ErrClosed            = errors.New("encoder closed")
)

// Format is an output container.
type Format string

const (
	MP4  Format = "mp4"
	GIF  Format = "gif"
	WebM Format = "webm"
)

// ParseFormat validates s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case MP4, GIF, WebM:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q (must be mp4, gif, or webm)", ErrUnsupportedFormat, s)
}

// ContentType is the MIME type of the encoded file.
func (f Format) ContentType() string {
	switch f {
	case GIF:
		return "image/gif"
	case WebM:
		return "video/webm"
	default:
		return "video/mp4"
	}
}

// Args builds the ffmpeg arguments that read PNG frames from stdin and
// write output.
func Args(format Format, fps float64, output string) ([]string, error) {
	rate := strconv.FormatFloat(fps, 'f', -1, 64)
	args := []string{"-y", "-f", "image2pipe", "-c:v", "png", "-framerate", rate, "-i", "-"}
	switch format {
	case MP4:
		args = append(args,
			"-c:v", "libx264",
			"-pix_fmt", "yuv420p",
			"-crf", "18",
			"-preset", "fast",
			"-movflags", "+faststart",
		)
	case GIF:
		// Single pass: generate the palette and apply it in one filter graph.
		args = append(args,
			"-filter_complex", "split[a][b];[a]palettegen=stats_mode=diff[p];[b][p]paletteuse=dither=bayer:bayer_scale=5:diff_mode=rectangle",
		)
	case WebM:
		args = append(args,
			"-c:v", "libvpx-vp9",
			"-crf", "30",
			"-b:v", "0",
			"-pix_fmt", "yuva420p",
		)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return append(args, output), nil
}

// Options configures an Encoder.
type Options struct {
	FFmpegPath string
	Format     Format
	FPS        float64
	Output     string
	Logger     *slog.Logger
}

// Encoder is a frame sink feeding a running ffmpeg process. Frames are
// encoded on a separate goroutine; Close flushes them and waits for ffmpeg.
type Encoder struct {
	frames chan *image.RGBA
	ctx    context.Context
	group  *errgroup.Group
	logger *slog.Logger
	output string

	sendMu    sync.Mutex
	closed    bool
	closeOnce sync.Once
	closeErr  error

	mu      sync.Mutex
	written int
}

// Start launches ffmpeg. Cancelling ctx kills it.
func Start(ctx context.Context, opts Options) (*Encoder, error) {
	args, err := Args(opts.Format, opts.FPS, opts.Output)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	path := opts.FFmpegPath
	if path == "" {
		path = "ffmpeg"
	}

	g, gctx := errgroup.WithContext(ctx)
	cmd := exec.CommandContext(gctx, path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	e := &Encoder{
		frames: make(chan *image.RGBA, 4),
		ctx:    gctx,
		group:  g,
		logger: logger,
		output: opts.Output,
	}
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	g.Go(func() error {
		defer stdin.Close()
		for {
			select {
			case img, ok := <-e.frames:
				if !ok {
					return nil
				}
				if err := enc.Encode(stdin, img); err != nil {
					return fmt.Errorf("pipe frame: %w", err)
				}
				e.mu.Lock()
				e.written++
				e.mu.Unlock()
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})
	g.Go(func() error {
		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("ffmpeg: %v: %s", err, stderr.String())
		}
		return nil
	})

	logger.Info("video encode started", "format", opts.Format, "fps", opts.FPS, "output", opts.Output)
	return e, nil
}

func (e *Encoder) WriteFrame(ctx context.Context, _ int, img *image.RGBA) error {
	e.sendMu.Lock()
	if e.closed {
		e.sendMu.Unlock()
		return ErrClosed
	}
	select {
	case e.frames <- img:
		e.sendMu.Unlock()
		return nil
	case <-ctx.Done():
		e.sendMu.Unlock()
		return ctx.Err()
	case <-e.ctx.Done():
		e.sendMu.Unlock()
	}
	// ffmpeg or the frame pipe failed; surface its error.
	if err := e.Close(); err != nil {
		return err
	}
	return ErrClosed
}

// Close ends the frame stream and waits for ffmpeg to finish the file.
// It is safe to call more than once.
func (e *Encoder) Close() error {
	e.closeOnce.Do(func() {
		e.sendMu.Lock()
		e.closed = true
		close(e.frames)
		e.sendMu.Unlock()

		e.closeErr = e.group.Wait()
		if e.closeErr != nil {
			e.logger.Error("video encode failed", "error", e.closeErr)
			return
		}
		e.logger.Info("video encode complete", "output", e.output, "frames", e.Written())
	})
	return e.closeErr
}

// Written reports how many frames reached ffmpeg.
func (e *Encoder) Written() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.written
}
