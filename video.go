package termplay

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// videoSource streams frames from an ffmpeg rawvideo pipe. ffmpeg does the
// decoding and the scaling (parameterized by the geometry computed at open
// time); this side only slices fixed-size RGBA buffers off the pipe.
type videoSource struct {
	filename   string
	geom       ScaledGeometry
	frameDelay time.Duration

	cmd    *exec.Cmd
	stdout io.ReadCloser
	cancel context.CancelFunc
}

func newVideoSource(filename string, opts *DisplayOptions) (*videoSource, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	nativeW, nativeH, frameDelay, err := probeVideo(filename)
	if err != nil {
		return nil, err
	}

	s := &videoSource{
		filename:   filename,
		geom:       CalcScaleToFit(nativeW, nativeH, opts),
		frameDelay: frameDelay,
	}

	if err := s.start(); err != nil {
		return nil, err
	}

	return s, nil
}

// probeVideo asks ffprobe for the native dimensions and frame rate of the
// first video stream.
func probeVideo(filename string) (w, h int, frameDelay time.Duration, err error) {
	if _, lookErr := exec.LookPath("ffprobe"); lookErr != nil {
		return 0, 0, 0, fmt.Errorf("ffprobe not found in PATH: %w", lookErr)
	}

	out, err := exec.Command(
		"ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,avg_frame_rate",
		"-of", "csv=p=0",
		filename,
	).Output()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("probing %s: %w", filename, err)
	}

	return parseProbeOutput(string(bytes.TrimSpace(out)))
}

// parseProbeOutput parses ffprobe csv output of the form
// "width,height,num/den", e.g. "1920,1080,30000/1001".
func parseProbeOutput(out string) (w, h int, frameDelay time.Duration, err error) {
	fields := strings.Split(strings.TrimSpace(out), ",")
	if len(fields) < 3 {
		return 0, 0, 0, fmt.Errorf("unexpected ffprobe output %q", out)
	}

	w, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bad width in %q", out)
	}
	h, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bad height in %q", out)
	}
	if w < 1 || h < 1 {
		return 0, 0, 0, fmt.Errorf("degenerate video size %dx%d", w, h)
	}

	frameDelay = 40 * time.Millisecond // 25fps fallback
	if num, den, ok := strings.Cut(fields[2], "/"); ok {
		n, nerr := strconv.ParseFloat(num, 64)
		d, derr := strconv.ParseFloat(den, 64)
		if nerr == nil && derr == nil && n > 0 && d > 0 {
			frameDelay = time.Duration(float64(time.Second) * d / n)
		}
	}

	return w, h, frameDelay, nil
}

func (s *videoSource) start() error {
	ctx, cancel := context.WithCancel(context.Background())

	input := s.filename
	if input == "-" {
		input = "pipe:0"
	}

	//nolint:gosec // filename is a user-provided CLI argument.
	cmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-v", "error",
		"-i", input,
		"-vf", fmt.Sprintf("scale=%d:%d", s.geom.Width, s.geom.Height),
		"-pix_fmt", "rgba",
		"-f", "rawvideo",
		"pipe:1",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("creating stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("starting ffmpeg: %w", err)
	}

	s.cmd = cmd
	s.stdout = stdout
	s.cancel = cancel

	return nil
}

func (s *videoSource) Filename() string         { return s.filename }
func (s *videoSource) Geometry() ScaledGeometry { return s.geom }

// DefaultLoops is 1: videos play through once unless --loops says otherwise.
func (s *videoSource) DefaultLoops() int { return 1 }

func (s *videoSource) NextFrame() (*Frame, error) {
	frameSize := s.geom.Width * s.geom.Height * 4
	buf := make([]byte, frameSize)

	_, err := io.ReadFull(s.stdout, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("reading frame: %w", err)
	}

	return &Frame{
		Image: &image.RGBA{
			Pix:    buf,
			Stride: s.geom.Width * 4,
			Rect:   image.Rect(0, 0, s.geom.Width, s.geom.Height),
		},
		Delay: s.frameDelay,
	}, nil
}

// Rewind restarts the ffmpeg pipe from the beginning of the file. A stream
// read from stdin is gone once consumed and cannot be rewound.
func (s *videoSource) Rewind() error {
	if s.filename == "-" {
		return fmt.Errorf("cannot rewind stdin stream")
	}
	s.stop()
	return s.start()
}

func (s *videoSource) Close() error {
	s.stop()
	return nil
}

func (s *videoSource) stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.cmd != nil {
		//nolint:errcheck // exit status is expected to be non-zero after cancellation
		s.cmd.Wait()
	}
	s.cmd = nil
	s.stdout = nil
	s.cancel = nil
}
