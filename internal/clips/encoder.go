package clips

import (
	"context"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Video is the output format of one clip.
type Video struct {
	Width   int
	Height  int
	FPS     int
	Frames  int
	BitRate int // bits per second
}

// Duration is the playback length of v.
func (v Video) Duration() time.Duration {
	if v.FPS <= 0 {
		return 0
	}
	return time.Duration(v.Frames) * time.Second / time.Duration(v.FPS)
}

// FrameWriter accepts frames in order. Close finishes the file and reports
// any encoder failure.
type FrameWriter interface {
	WriteFrame(img *image.RGBA) error
	Close() error
}

// Encoder opens a FrameWriter that produces an MP4 at dest.
type Encoder interface {
	Open(ctx context.Context, dest string, v Video) (FrameWriter, error)
}

// FFmpeg encodes raw RGBA frames to H.264 MP4 by piping them to ffmpeg.
// Requires ffmpeg in PATH unless Path is set.
type FFmpeg struct {
	Path  string
	Codec string // default libx264
}

func (e FFmpeg) bin() string {
	if e.Path != "" {
		return e.Path
	}
	return "ffmpeg"
}

func (e FFmpeg) args(dest string, v Video) []string {
	codec := e.Codec
	if codec == "" {
		codec = "libx264"
	}
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", v.Width, v.Height),
		"-r", strconv.Itoa(v.FPS),
		"-i", "-",
		"-c:v", codec,
		"-pix_fmt", "yuv420p",
		"-b:v", strconv.Itoa(v.BitRate),
		"-movflags", "+faststart",
		"-f", "mp4",
		dest,
	}
}

func (e FFmpeg) Open(ctx context.Context, dest string, v Video) (FrameWriter, error) {
	if v.Width <= 0 || v.Height <= 0 || v.FPS <= 0 {
		return nil, fmt.Errorf("invalid video %dx%d@%d", v.Width, v.Height, v.FPS)
	}
	cmd := exec.CommandContext(ctx, e.bin(), e.args(dest, v)...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdin: %w", err)
	}
	stderr := &tailBuffer{max: 4 << 10}
	cmd.Stdout = nil
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w", err)
	}
	return &ffmpegWriter{cmd: cmd, stdin: stdin, stderr: stderr, v: v}, nil
}

type ffmpegWriter struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *tailBuffer
	v      Video
	closed bool
}

func (w *ffmpegWriter) WriteFrame(img *image.RGBA) error {
	b := img.Bounds()
	if b.Dx() != w.v.Width || b.Dy() != w.v.Height {
		return fmt.Errorf("frame %dx%d, want %dx%d", b.Dx(), b.Dy(), w.v.Width, w.v.Height)
	}
	if img.Stride == 4*b.Dx() {
		_, err := w.stdin.Write(img.Pix[:4*b.Dx()*b.Dy()])
		return err
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		if _, err := w.stdin.Write(img.Pix[off : off+4*b.Dx()]); err != nil {
			return err
		}
	}
	return nil
}

func (w *ffmpegWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.stdin.Close()
	if err := w.cmd.Wait(); err != nil {
		if msg := strings.TrimSpace(w.stderr.String()); msg != "" {
			return fmt.Errorf("ffmpeg: %w: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return string(t.buf) }
