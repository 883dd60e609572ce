package termplay

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"strings"
	"sync"
)

// Sink writes composed frames to the terminal. Coordinates are terminal
// pixels relative to the canvas origin (the cursor position at startup);
// each implementation converts them to character cells using its own cell
// density. Writes are serialized by construction: sources play one at a
// time and the sequencer never emits concurrently.
type Sink interface {
	// CellSize reports how many canvas pixels one terminal cell covers
	// horizontally and vertically.
	CellSize() (w, h int)

	// WriteFrame places img with its top-left corner at the given pixel
	// offset.
	WriteFrame(img *image.RGBA, xPx, yPx int) error

	// WriteTitle places a single line of text at the given pixel offset.
	WriteTitle(text string, xPx, yPx int) error

	// HideCursor / ShowCursor toggle terminal cursor visibility.
	HideCursor()
	ShowCursor()

	// Finish moves the cursor below everything drawn so the shell prompt
	// lands on a fresh line.
	Finish() error
}

// cursorTracker keeps the cursor row bookkeeping shared by all sinks. Rows
// are counted from the canvas origin; moving up uses CUU, moving down emits
// newlines so the terminal scrolls when the canvas extends past the bottom.
type cursorTracker struct {
	mu      sync.Mutex
	out     *bufio.Writer
	row     int // current cursor row, relative to origin
	highest int // lowest row ever drawn to (max row + height)
}

func newCursorTracker(w io.Writer) *cursorTracker {
	return &cursorTracker{out: bufio.NewWriterSize(w, 1<<16)}
}

// moveToRow positions the cursor at the start of the given row.
func (c *cursorTracker) moveToRow(row int) {
	if row < c.row {
		fmt.Fprintf(c.out, "\x1b[%dA", c.row-row)
	} else if row > c.row {
		c.out.WriteString(strings.Repeat("\n", row-c.row))
	}
	c.out.WriteString("\r")
	c.row = row
}

// moveRight advances the cursor by n columns from the line start.
func (c *cursorTracker) moveRight(n int) {
	if n > 0 {
		fmt.Fprintf(c.out, "\x1b[%dC", n)
	}
}

func (c *cursorTracker) advance(rows int) {
	c.row += rows
	if c.row > c.highest {
		c.highest = c.row
	}
}

func (c *cursorTracker) hideCursor() {
	c.out.WriteString("\x1b[?25l")
	c.out.Flush()
}

func (c *cursorTracker) showCursor() {
	c.out.WriteString("\x1b[?25h")
	c.out.Flush()
}

func (c *cursorTracker) finish() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.moveToRow(c.highest)
	c.out.WriteString("\n")
	c.row++
	return c.out.Flush()
}

// writeTitleLine renders a title at a cell position, truncated to the cell
// width so it cannot bleed into a neighbor.
func (c *cursorTracker) writeTitleLine(text string, col, row, maxCols int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if maxCols > 0 && len(text) > maxCols {
		text = text[:maxCols]
	}

	c.moveToRow(row)
	c.moveRight(col)
	c.out.WriteString(text)
	c.out.WriteString("\r")
	// No newline was emitted; the cursor stays on the title row.
	if row+1 > c.highest {
		c.highest = row + 1
	}

	return c.out.Flush()
}
