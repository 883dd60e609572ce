package termplay

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/makeworld-the-better-one/dither/v2"
	"github.com/mattn/go-sixel"
	"github.com/soniakeys/quant/median"
)

// Sixel palettes are small and the encoder is slow; 256 colors is the
// practical ceiling.
const sixelPaletteSize = 256

// SixelSink emits frames as DEC sixel graphics. Frames are quantized to an
// optimized median-cut palette and dithered before encoding, which looks
// considerably better than letting the encoder pick colors naively.
type SixelSink struct {
	*cursorTracker
	cellW, cellH int
}

func NewSixelSink(out io.Writer) *SixelSink {
	cw, ch := QueryCellPixelSize()
	return &SixelSink{cursorTracker: newCursorTracker(out), cellW: cw, cellH: ch}
}

func (s *SixelSink) CellSize() (int, int) { return s.cellW, s.cellH }

func (s *SixelSink) WriteFrame(img *image.RGBA, xPx, yPx int) error {
	quantizer := median.Quantizer(sixelPaletteSize)
	palette := quantizer.Palette(img).ColorPalette()

	ditherer := dither.NewDitherer(palette)
	ditherer.Matrix = dither.Stucki
	processed := ditherer.Dither(img)

	var buf bytes.Buffer
	enc := sixel.NewEncoder(&buf)
	enc.Colors = sixelPaletteSize
	enc.Dither = false // already done with the optimized palette
	if err := enc.Encode(processed); err != nil {
		return fmt.Errorf("encoding sixel: %w", err)
	}
	if buf.Len() == 0 {
		return fmt.Errorf("sixel encoding produced empty output")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row := yPx / s.cellH
	col := xPx / s.cellW
	rows := (img.Bounds().Dy() + s.cellH - 1) / s.cellH

	s.moveToRow(row)
	s.moveRight(col)
	s.out.WriteString(wrapTmuxPassthrough(buf.String()))
	s.out.WriteString("\r")
	s.row = row + rows
	if s.row > s.highest {
		s.highest = s.row
	}

	return s.out.Flush()
}

func (s *SixelSink) WriteTitle(text string, xPx, yPx int) error {
	return s.writeTitleLine(text, xPx/s.cellW, yPx/s.cellH, 0)
}

func (s *SixelSink) HideCursor() { s.hideCursor() }
func (s *SixelSink) ShowCursor() { s.showCursor() }
func (s *SixelSink) Finish() error {
	return s.finish()
}
