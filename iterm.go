package termplay

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
)

// ITerm2Sink uses the iTerm2 inline image escape (OSC 1337). Also understood
// by WezTerm, mintty and VS Code's terminal.
type ITerm2Sink struct {
	*cursorTracker
	cellW, cellH int
}

func NewITerm2Sink(out io.Writer) *ITerm2Sink {
	cw, ch := QueryCellPixelSize()
	return &ITerm2Sink{cursorTracker: newCursorTracker(out), cellW: cw, cellH: ch}
}

func (s *ITerm2Sink) CellSize() (int, int) { return s.cellW, s.cellH }

func (s *ITerm2Sink) WriteFrame(img *image.RGBA, xPx, yPx int) error {
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row := yPx / s.cellH
	col := xPx / s.cellW
	rows := (img.Bounds().Dy() + s.cellH - 1) / s.cellH

	s.moveToRow(row)
	s.moveRight(col)

	seq := fmt.Sprintf(
		"\x1b]1337;File=inline=1;size=%d;width=%dpx;height=%dpx;preserveAspectRatio=0:%s\a",
		pngBuf.Len(), img.Bounds().Dx(), img.Bounds().Dy(), base64Encode(pngBuf.Bytes()),
	)
	s.out.WriteString(wrapTmuxPassthrough(seq))
	s.out.WriteString("\r")

	// iTerm2 scrolls the cursor below the image after drawing it.
	s.row = row + rows
	if s.row > s.highest {
		s.highest = s.row
	}

	return s.out.Flush()
}

func (s *ITerm2Sink) WriteTitle(text string, xPx, yPx int) error {
	return s.writeTitleLine(text, xPx/s.cellW, yPx/s.cellH, 0)
}

func (s *ITerm2Sink) HideCursor() { s.hideCursor() }
func (s *ITerm2Sink) ShowCursor() { s.showCursor() }
func (s *ITerm2Sink) Finish() error {
	return s.finish()
}
