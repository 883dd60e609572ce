package termplay

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource hands out a fixed frame list. With cycle set it wraps in place
// like an animated image, flagging the wrap; otherwise it reports io.EOF
// after the last frame.
type fakeSource struct {
	frames       []*Frame
	idx          int
	cycle        bool
	failAt       int // frame index that returns a decode error; -1 = never
	defaultLoops int
}

func newFakeSource(n int, cycle bool) *fakeSource {
	frames := make([]*Frame, n)
	for i := range frames {
		frames[i] = &Frame{Image: image.NewRGBA(image.Rect(0, 0, 1, 1))}
	}
	defaultLoops := 1
	if cycle {
		defaultLoops = LoopsForever
	}
	return &fakeSource{frames: frames, cycle: cycle, failAt: -1, defaultLoops: defaultLoops}
}

func (f *fakeSource) Filename() string         { return "fake" }
func (f *fakeSource) Geometry() ScaledGeometry { return ScaledGeometry{Width: 1, Height: 1} }
func (f *fakeSource) DefaultLoops() int        { return f.defaultLoops }
func (f *fakeSource) Close() error             { return nil }

func (f *fakeSource) NextFrame() (*Frame, error) {
	if f.failAt >= 0 && f.idx == f.failAt {
		return nil, fmt.Errorf("truncated stream")
	}
	wrap := false
	if f.idx >= len(f.frames) {
		if !f.cycle {
			return nil, io.EOF
		}
		f.idx = 0
		wrap = true
	}
	fr := f.frames[f.idx]
	f.idx++
	return &Frame{Image: fr.Image, Delay: fr.Delay, LoopWrap: wrap}, nil
}

// rewindableSource emulates a video: linear playback, restartable.
type rewindableSource struct {
	*fakeSource
	rewinds int
}

func (r *rewindableSource) Rewind() error {
	r.idx = 0
	r.rewinds++
	return nil
}

func countingRender(n *int) RenderFunc {
	return func(string, *Frame) { *n++ }
}

func TestPlayCancelledBeforeFirstFrame(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rendered := 0
	seq := NewSequencer(newFakeSource(3, true), Limits{}, countingRender(&rendered))

	reason, err := seq.Play(ctx)
	require.NoError(t, err)
	assert.Equal(t, StopCancelled, reason)
	assert.Zero(t, rendered)
}

func TestPlayStillImageExhausts(t *testing.T) {
	rendered := 0
	src := newFakeSource(1, false)
	src.defaultLoops = 1

	// Unbounded loops must not keep a non-looping source alive.
	seq := NewSequencer(src, Limits{Loops: LoopsForever}, countingRender(&rendered))

	reason, err := seq.Play(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopExhausted, reason)
	assert.Equal(t, 1, rendered)
}

func TestPlayFrameLimit(t *testing.T) {
	rendered := 0
	seq := NewSequencer(newFakeSource(3, true), Limits{Frames: 5}, countingRender(&rendered))

	reason, err := seq.Play(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopFrameLimit, reason)
	assert.Equal(t, 5, rendered)
}

func TestPlayLoopLimitAtWrapBoundary(t *testing.T) {
	rendered := 0
	seq := NewSequencer(newFakeSource(3, true), Limits{Loops: 2}, countingRender(&rendered))

	reason, err := seq.Play(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopLoopLimit, reason)
	// Two full cycles, the wrapped frame of the third is never shown.
	assert.Equal(t, 6, rendered)
}

func TestPlaySingleFrameForcesSingleLoop(t *testing.T) {
	rendered := 0
	seq := NewSequencer(newFakeSource(4, true), Limits{Loops: LoopsForever, Frames: 1}, countingRender(&rendered))

	reason, err := seq.Play(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopFrameLimit, reason)
	assert.Equal(t, 1, rendered)
}

func TestPlayDurationLimit(t *testing.T) {
	src := newFakeSource(3, true)
	for _, f := range src.frames {
		f.Delay = 10 * time.Millisecond
	}

	rendered := 0
	seq := NewSequencer(src, Limits{Duration: 35 * time.Millisecond}, countingRender(&rendered))

	reason, err := seq.Play(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopDurationExceeded, reason)
	assert.Greater(t, rendered, 0)
}

func TestPlayDecodeErrorStopsSource(t *testing.T) {
	src := newFakeSource(5, false)
	src.failAt = 2

	rendered := 0
	seq := NewSequencer(src, Limits{}, countingRender(&rendered))

	reason, err := seq.Play(context.Background())
	assert.Equal(t, StopDecodeError, reason)
	assert.Error(t, err)
	assert.Equal(t, 2, rendered)
}

func TestPlayRewindableSourceLoops(t *testing.T) {
	src := &rewindableSource{fakeSource: newFakeSource(2, false)}

	rendered := 0
	seq := NewSequencer(src, Limits{Loops: 3}, countingRender(&rendered))

	reason, err := seq.Play(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopLoopLimit, reason)
	assert.Equal(t, 6, rendered)
	assert.Equal(t, 2, src.rewinds)
}

func TestPlayCancellationDuringDelay(t *testing.T) {
	src := newFakeSource(2, true)
	for _, f := range src.frames {
		f.Delay = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	rendered := 0
	seq := NewSequencer(src, Limits{}, countingRender(&rendered))

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	reason, err := seq.Play(ctx)
	require.NoError(t, err)
	assert.Equal(t, StopCancelled, reason)
	assert.Equal(t, 1, rendered)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPlayRewindFailureIsDecodeError(t *testing.T) {
	src := &failingRewindSource{fakeSource: newFakeSource(1, false)}

	seq := NewSequencer(src, Limits{Loops: 2}, func(string, *Frame) {})
	reason, err := seq.Play(context.Background())
	assert.Equal(t, StopDecodeError, reason)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, io.EOF))
}

type failingRewindSource struct{ *fakeSource }

func (f *failingRewindSource) Rewind() error { return fmt.Errorf("pipe gone") }

func TestStopReasonString(t *testing.T) {
	assert.Equal(t, "cancelled", StopCancelled.String())
	assert.Equal(t, "source exhausted", StopExhausted.String())
	assert.Equal(t, "loop limit reached", StopLoopLimit.String())
}
