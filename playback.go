package termplay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Sentinels for the playback ceilings. Each limit is independent; playback
// stops at the first one reached.
const (
	// LoopsForever disables the loop ceiling.
	LoopsForever = -1

	// LoopsDefault defers to the source: animated images loop forever,
	// stills and videos play once.
	LoopsDefault = 0
)

// Limits bounds how long and how often a source is played.
type Limits struct {
	// Loops is the number of full cycles. LoopsForever means unbounded,
	// LoopsDefault picks the source's own default.
	Loops int

	// Frames caps the number of emitted frames; 0 means unbounded.
	Frames int

	// Duration caps wall-clock playback time per source; 0 means
	// unbounded.
	Duration time.Duration

	// InterImage is the pause between input files, applied by the caller
	// after each source finishes.
	InterImage time.Duration
}

// StopReason says why playback of one source ended.
type StopReason int

const (
	// StopCancelled: the external cancellation was observed. Not an
	// error; a normal early termination.
	StopCancelled StopReason = iota

	// StopDurationExceeded: wall-clock ceiling hit.
	StopDurationExceeded

	// StopFrameLimit: emitted frame count ceiling hit.
	StopFrameLimit

	// StopLoopLimit: loop ceiling hit at a loop boundary.
	StopLoopLimit

	// StopExhausted: the source reported end of stream and cannot loop.
	StopExhausted

	// StopDecodeError: a mid-stream decode failure ended this source.
	// Subsequent input files are unaffected.
	StopDecodeError
)

func (r StopReason) String() string {
	switch r {
	case StopCancelled:
		return "cancelled"
	case StopDurationExceeded:
		return "duration exceeded"
	case StopFrameLimit:
		return "frame limit reached"
	case StopLoopLimit:
		return "loop limit reached"
	case StopExhausted:
		return "source exhausted"
	case StopDecodeError:
		return "decode error"
	}
	return fmt.Sprintf("StopReason(%d)", int(r))
}

// RenderFunc receives every emitted frame, already scaled to the source's
// target geometry.
type RenderFunc func(filename string, frame *Frame)

// Sequencer drives one source through decode/render cycles until a stop
// condition fires. It owns the pacing; the render callback must not block
// beyond the work of writing the frame out.
type Sequencer struct {
	src    FrameSource
	limits Limits
	render RenderFunc
}

func NewSequencer(src FrameSource, limits Limits, render RenderFunc) *Sequencer {
	return &Sequencer{src: src, limits: limits, render: render}
}

// Play runs the source to completion. Stop conditions are evaluated each
// cycle in fixed order: cancellation, duration, frame limit, loop limit (at
// loop boundaries only), exhaustion. Cancellation is cooperative: the context
// is polled after every emitted frame and after every delay, so a pending
// cancellation is honored within one frame-delay granularity.
//
// The returned error is non-nil only for StopDecodeError.
func (s *Sequencer) Play(ctx context.Context) (StopReason, error) {
	maxLoops := s.limits.Loops
	if maxLoops == LoopsDefault {
		maxLoops = s.src.DefaultLoops()
	}
	// Showing exactly one frame behaves like a static image, never
	// cycling.
	if s.limits.Frames == 1 {
		maxLoops = 1
	}

	start := time.Now()
	framesEmitted := 0
	loopsDone := 0

	for {
		if ctx.Err() != nil {
			return StopCancelled, nil
		}
		if s.limits.Duration > 0 && time.Since(start) >= s.limits.Duration {
			return StopDurationExceeded, nil
		}
		if s.limits.Frames > 0 && framesEmitted >= s.limits.Frames {
			return StopFrameLimit, nil
		}

		frame, err := s.src.NextFrame()
		if errors.Is(err, io.EOF) {
			// End of stream is the loop boundary for sources that
			// loop by rewinding rather than by wrapping in place.
			loopsDone++
			rew, canRewind := s.src.(Rewinder)
			if !canRewind {
				return StopExhausted, nil
			}
			if maxLoops != LoopsForever && loopsDone >= maxLoops {
				return StopLoopLimit, nil
			}
			if err := rew.Rewind(); err != nil {
				return StopDecodeError, fmt.Errorf("%s: rewind: %w", s.src.Filename(), err)
			}
			continue
		}
		if err != nil {
			return StopDecodeError, fmt.Errorf("%s: %w", s.src.Filename(), err)
		}

		// A wrap flag on the incoming frame marks the start of the
		// next cycle; the loop ceiling is checked before that frame
		// is shown.
		if frame.LoopWrap && framesEmitted > 0 {
			loopsDone++
			if maxLoops != LoopsForever && loopsDone >= maxLoops {
				return StopLoopLimit, nil
			}
		}

		s.render(s.src.Filename(), frame)
		framesEmitted++

		if frame.Delay > 0 {
			delay := frame.Delay
			if s.limits.Duration > 0 {
				if remaining := s.limits.Duration - time.Since(start); remaining < delay {
					delay = remaining
				}
			}
			sleepContext(ctx, delay)
		}
	}
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
