package termplay

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
)

// KittySink speaks the kitty graphics protocol using direct placement
// (a=T). Frames are sent as chunked base64 PNG; C=1 keeps the cursor where
// it is so placement stays under our control during animations.
type KittySink struct {
	*cursorTracker
	cellW, cellH int
}

func NewKittySink(out io.Writer) *KittySink {
	cw, ch := QueryCellPixelSize()
	return &KittySink{cursorTracker: newCursorTracker(out), cellW: cw, cellH: ch}
}

func (s *KittySink) CellSize() (int, int) { return s.cellW, s.cellH }

func (s *KittySink) WriteFrame(img *image.RGBA, xPx, yPx int) error {
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	chunks := chunkedBase64Encode(pngBuf.Bytes())

	s.mu.Lock()
	defer s.mu.Unlock()

	row := yPx / s.cellH
	col := xPx / s.cellW
	rows := (img.Bounds().Dy() + s.cellH - 1) / s.cellH

	s.moveToRow(row)
	s.moveRight(col)

	for i, chunk := range chunks {
		var ctrl string
		switch {
		case len(chunks) == 1:
			ctrl = "a=T,f=100,q=1,C=1"
		case i == 0:
			ctrl = "a=T,f=100,q=1,C=1,m=1"
		case i == len(chunks)-1:
			ctrl = "m=0"
		default:
			ctrl = "m=1"
		}
		seq := fmt.Sprintf("\x1b_G%s;%s\x1b\\", ctrl, chunk)
		s.out.WriteString(wrapTmuxPassthrough(seq))
	}

	s.out.WriteString("\r")
	if bottom := row + rows; bottom > s.highest {
		s.highest = bottom
	}

	return s.out.Flush()
}

func (s *KittySink) WriteTitle(text string, xPx, yPx int) error {
	return s.writeTitleLine(text, xPx/s.cellW, yPx/s.cellH, 0)
}

func (s *KittySink) HideCursor() { s.hideCursor() }
func (s *KittySink) ShowCursor() { s.showCursor() }
func (s *KittySink) Finish() error {
	return s.finish()
}
