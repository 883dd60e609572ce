package termplay

import (
	"errors"
	"fmt"
	"image"
	"time"
)

// ErrNoSource is returned when a file could not be opened by any enabled
// decode backend. It is recoverable; the caller reports the filename and
// moves on to the next input.
var ErrNoSource = errors.New("no decoder could open file")

// Frame is one decoded, pre-scaled picture ready for the sink.
type Frame struct {
	Image *image.RGBA

	// Delay is how long the frame should stay on screen before the next
	// one is decoded. Zero means no intrinsic pacing.
	Delay time.Duration

	// LoopWrap marks the first frame of a new cycle of an animated
	// source. The sequencer counts loops at these boundaries.
	LoopWrap bool
}

// FrameSource produces scaled frames from one input file. A source is created
// per filename, driven until a stop condition, then closed; it is never
// reused.
type FrameSource interface {
	// Filename returns the input path the source was opened from.
	Filename() string

	// Geometry returns the target size computed once at load time.
	// Frame dimensions do not change within one source.
	Geometry() ScaledGeometry

	// NextFrame decodes the next frame. It returns io.EOF when the
	// stream is exhausted and does not loop by itself.
	NextFrame() (*Frame, error)

	// DefaultLoops is the loop count used when the caller did not ask
	// for one: LoopsForever for animated images, 1 for stills and
	// videos.
	DefaultLoops() int

	Close() error
}

// Rewinder is implemented by sources that can restart from their first frame
// after reporting io.EOF. The sequencer uses it to run videos through
// multiple loops.
type Rewinder interface {
	Rewind() error
}

// OpenSource probes the given file and returns a playable source.
//
// Image decoding is attempted first when enabled: it is cheaper and the
// common case. Video decoding is the fallback, or the only attempt when
// image probing is disabled (useful when streaming a video from stdin).
// The target geometry is fixed here, via CalcScaleToFit, for the whole
// lifetime of the source.
func OpenSource(filename string, opts *DisplayOptions, tryImage, tryVideo bool) (FrameSource, error) {
	var probeErr error

	if tryImage {
		src, err := newImageSource(filename, opts)
		if err == nil {
			return src, nil
		}
		probeErr = err
	}

	if tryVideo {
		src, err := newVideoSource(filename, opts)
		if err == nil {
			return src, nil
		}
		if probeErr == nil {
			probeErr = err
		}
	}

	if probeErr == nil {
		probeErr = errors.New("all decode backends disabled")
	}

	return nil, fmt.Errorf("%s: %w: %v", filename, ErrNoSource, probeErr)
}
