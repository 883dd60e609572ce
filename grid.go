package termplay

import "fmt"

// Cell is one sub-rectangle of the terminal canvas, in terminal pixels.
type Cell struct {
	Index  int
	X, Y   int
	Width  int
	Height int
}

// Grid partitions the canvas into cols x rows equally sized cells. Remainder
// pixels from the integer division are unused, not redistributed, so cells
// never overlap and a cell-sized frame never bleeds into a neighbor.
type Grid struct {
	cols, rows   int
	cellW, cellH int
	cells        []Cell
}

// NewGrid builds the placement table. cols and rows must both be >= 1 and
// the per-cell size must come out to at least one pixel on each axis.
func NewGrid(canvasW, canvasH, cols, rows int) (*Grid, error) {
	if cols < 1 || rows < 1 {
		return nil, fmt.Errorf("grid %dx%d: cols and rows must be >= 1", cols, rows)
	}

	cellW := canvasW / cols
	cellH := canvasH / rows
	if cellW < 1 || cellH < 1 {
		return nil, fmt.Errorf("grid %dx%d does not fit in %dx%d canvas", cols, rows, canvasW, canvasH)
	}

	g := &Grid{cols: cols, rows: rows, cellW: cellW, cellH: cellH}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			g.cells = append(g.cells, Cell{
				Index:  r*cols + c,
				X:      c * cellW,
				Y:      r * cellH,
				Width:  cellW,
				Height: cellH,
			})
		}
	}

	return g, nil
}

// CellSize returns the per-cell pixel bounds. This is exactly the display
// constraint each source is scaled against, keeping scaling and tiling
// consistent.
func (g *Grid) CellSize() (w, h int) { return g.cellW, g.cellH }

// Cell assigns grid cells to sources in row-major input order. When there
// are more sources than cells, cells are reused round-robin; sources still
// play one at a time.
func (g *Grid) Cell(sourceIndex int) Cell {
	return g.cells[sourceIndex%len(g.cells)]
}

func (g *Grid) Cells() []Cell { return g.cells }

// Compositor places frames of sequentially playing sources into their grid
// cells and forwards them to the sink.
type Compositor struct {
	grid *Grid
	sink Sink
	opts *DisplayOptions

	writeErr error
}

func NewCompositor(grid *Grid, sink Sink, opts *DisplayOptions) *Compositor {
	return &Compositor{grid: grid, sink: sink, opts: opts}
}

// Err returns the first sink write failure seen by any render callback, nil
// if every frame went out cleanly.
func (c *Compositor) Err() error { return c.writeErr }

// RenderFunc returns the per-source render callback for the source at the
// given input position. The first frame also writes the filename title when
// that is enabled; every frame is placed at the cell offset, horizontally
// centered inside the cell if asked for.
func (c *Compositor) RenderFunc(sourceIndex int) RenderFunc {
	cell := c.grid.Cell(sourceIndex)
	titled := false

	// With titles on, each grid row carries one text row above its
	// images. A text row is one terminal cell tall, whatever pixel
	// density the sink reports.
	titleRows := 0
	if c.opts.ShowFilename {
		titleRows = 1
	}
	_, cellH := c.sink.CellSize()
	row := cell.Y / c.grid.cellH
	yOffset := cell.Y + (row+1)*titleRows*cellH
	titleY := cell.Y + row*titleRows*cellH

	return func(filename string, frame *Frame) {
		x := cell.X
		if c.opts.Center && frame.Image.Bounds().Dx() < cell.Width {
			x += (cell.Width - frame.Image.Bounds().Dx()) / 2
		}

		if titleRows > 0 && !titled {
			titled = true
			title := filename
			if cellW, _ := c.sink.CellSize(); cellW > 0 {
				if maxCols := cell.Width / cellW; len(title) > maxCols {
					title = title[:maxCols]
				}
			}
			//nolint:errcheck // titles are cosmetic; frame errors are surfaced below
			c.sink.WriteTitle(title, cell.X, titleY)
		}

		if err := c.sink.WriteFrame(frame.Image, x, yOffset); err != nil && c.writeErr == nil {
			c.writeErr = err
		}
	}
}
