package termplay

import (
	"image"
	"io"
	"strings"

	"github.com/charmbracelet/x/mosaic"
)

// HalfblocksSink renders frames as truecolor half-block characters: each
// terminal cell shows two vertical pixels via the foreground and background
// colors of "▀". It works on any truecolor terminal and is the fallback when
// no graphics protocol is available.
type HalfblocksSink struct {
	*cursorTracker
	dither bool
}

func NewHalfblocksSink(out io.Writer, dither bool) *HalfblocksSink {
	return &HalfblocksSink{cursorTracker: newCursorTracker(out), dither: dither}
}

// CellSize is 1x2: one column per pixel, two pixels per row.
func (s *HalfblocksSink) CellSize() (int, int) { return 1, 2 }

func (s *HalfblocksSink) WriteFrame(img *image.RGBA, xPx, yPx int) error {
	cols := img.Bounds().Dx()
	rows := (img.Bounds().Dy() + 1) / 2

	m := mosaic.New().Dither(s.dither).Width(cols).Height(rows)
	lines := strings.Split(strings.TrimRight(m.Render(img), "\n"), "\n")

	s.mu.Lock()
	defer s.mu.Unlock()

	startRow := yPx / 2
	for i, line := range lines {
		s.moveToRow(startRow + i)
		s.moveRight(xPx)
		s.out.WriteString(line)
		s.out.WriteString("\x1b[0m")
	}
	if bottom := startRow + len(lines); bottom > s.highest {
		s.highest = bottom
	}

	return s.out.Flush()
}

func (s *HalfblocksSink) WriteTitle(text string, xPx, yPx int) error {
	return s.writeTitleLine(text, xPx, yPx/2, 0)
}

func (s *HalfblocksSink) HideCursor() { s.hideCursor() }
func (s *HalfblocksSink) ShowCursor() { s.showCursor() }
func (s *HalfblocksSink) Finish() error {
	return s.finish()
}
