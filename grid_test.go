package termplay

import (
	"fmt"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGridPartition(t *testing.T) {
	grid, err := NewGrid(100, 50, 2, 1)
	require.NoError(t, err)

	w, h := grid.CellSize()
	assert.Equal(t, 50, w)
	assert.Equal(t, 50, h)

	cells := grid.Cells()
	require.Len(t, cells, 2)
	assert.Equal(t, Cell{Index: 0, X: 0, Y: 0, Width: 50, Height: 50}, cells[0])
	assert.Equal(t, Cell{Index: 1, X: 50, Y: 0, Width: 50, Height: 50}, cells[1])
}

func TestNewGridRemainderUnused(t *testing.T) {
	grid, err := NewGrid(101, 51, 3, 2)
	require.NoError(t, err)

	w, h := grid.CellSize()
	assert.Equal(t, 33, w)
	assert.Equal(t, 25, h)

	cells := grid.Cells()
	require.Len(t, cells, 6)
	// Row-major order.
	assert.Equal(t, 33, cells[1].X)
	assert.Equal(t, 0, cells[1].Y)
	assert.Equal(t, 0, cells[3].X)
	assert.Equal(t, 25, cells[3].Y)
	// The remainder pixel is not redistributed.
	last := cells[5]
	assert.LessOrEqual(t, last.X+last.Width, 101)
	assert.LessOrEqual(t, last.Y+last.Height, 51)
}

func TestNewGridValidation(t *testing.T) {
	_, err := NewGrid(100, 50, 0, 1)
	assert.Error(t, err)

	_, err = NewGrid(100, 50, 1, 0)
	assert.Error(t, err)

	// More cells than pixels cannot produce >= 1 px cells.
	_, err = NewGrid(2, 2, 10, 10)
	assert.Error(t, err)
}

func TestGridCellRoundRobin(t *testing.T) {
	grid, err := NewGrid(100, 50, 2, 1)
	require.NoError(t, err)

	assert.Equal(t, 0, grid.Cell(0).Index)
	assert.Equal(t, 1, grid.Cell(1).Index)
	assert.Equal(t, 0, grid.Cell(2).Index)
	assert.Equal(t, 1, grid.Cell(3).Index)
}

// recordingSink captures placements instead of writing escape sequences.
// The zero value reports halfblock cell density.
type recordingSink struct {
	cellW, cellH int
	frames       []placement
	titles       []placement
}

type placement struct {
	x, y int
	w, h int
	text string
}

func (r *recordingSink) CellSize() (int, int) {
	if r.cellW == 0 {
		return 1, 2
	}
	return r.cellW, r.cellH
}

func (r *recordingSink) WriteFrame(img *image.RGBA, x, y int) error {
	r.frames = append(r.frames, placement{x: x, y: y, w: img.Bounds().Dx(), h: img.Bounds().Dy()})
	return nil
}

func (r *recordingSink) WriteTitle(text string, x, y int) error {
	r.titles = append(r.titles, placement{x: x, y: y, text: text})
	return nil
}

func (r *recordingSink) HideCursor()   {}
func (r *recordingSink) ShowCursor()   {}
func (r *recordingSink) Finish() error { return nil }

func frameOf(w, h int) *Frame {
	return &Frame{Image: image.NewRGBA(image.Rect(0, 0, w, h))}
}

func TestCompositorPlacesFramesAtCellOffsets(t *testing.T) {
	grid, err := NewGrid(100, 50, 2, 1)
	require.NoError(t, err)

	sink := &recordingSink{}
	opts := &DisplayOptions{Width: 50, Height: 50}
	comp := NewCompositor(grid, sink, opts)

	comp.RenderFunc(0)("a.png", frameOf(50, 50))
	comp.RenderFunc(1)("b.png", frameOf(50, 50))

	require.Len(t, sink.frames, 2)
	assert.Equal(t, placement{x: 0, y: 0, w: 50, h: 50}, sink.frames[0])
	assert.Equal(t, placement{x: 50, y: 0, w: 50, h: 50}, sink.frames[1])
	assert.Empty(t, sink.titles)
}

func TestCompositorCentersNarrowFrames(t *testing.T) {
	grid, err := NewGrid(100, 50, 1, 1)
	require.NoError(t, err)

	sink := &recordingSink{}
	opts := &DisplayOptions{Width: 100, Height: 50, Center: true}
	comp := NewCompositor(grid, sink, opts)

	comp.RenderFunc(0)("a.png", frameOf(40, 50))

	require.Len(t, sink.frames, 1)
	assert.Equal(t, 30, sink.frames[0].x)
}

func TestCompositorWritesTitleOnce(t *testing.T) {
	grid, err := NewGrid(100, 48, 2, 2)
	require.NoError(t, err)

	sink := &recordingSink{}
	opts := &DisplayOptions{Width: 50, Height: 24, ShowFilename: true}
	comp := NewCompositor(grid, sink, opts)

	render := comp.RenderFunc(3) // bottom-right cell
	render("some/long/filename.png", frameOf(50, 24))
	render("some/long/filename.png", frameOf(50, 24))

	require.Len(t, sink.titles, 1)
	require.Len(t, sink.frames, 2)

	// The second grid row carries one extra text row (2 px) above it.
	assert.Equal(t, 24+2, sink.titles[0].y)
	assert.Equal(t, 24+4, sink.frames[0].y)
	assert.Equal(t, 50, sink.titles[0].x)
}

func TestCompositorTitleRowWithGraphicsCells(t *testing.T) {
	grid, err := NewGrid(64, 64, 1, 2)
	require.NoError(t, err)

	// Graphics protocol sinks report real pixel cell density. The title
	// still has to land on its own terminal row, above the frame.
	sink := &recordingSink{cellW: 8, cellH: 16}
	opts := &DisplayOptions{Width: 64, Height: 32, ShowFilename: true}
	comp := NewCompositor(grid, sink, opts)

	comp.RenderFunc(0)("top.png", frameOf(64, 32))
	comp.RenderFunc(1)("bottom.png", frameOf(64, 32))

	require.Len(t, sink.titles, 2)
	require.Len(t, sink.frames, 2)

	for i := range sink.titles {
		titleRow := sink.titles[i].y / sink.cellH
		frameRow := sink.frames[i].y / sink.cellH
		assert.NotEqual(t, titleRow, frameRow, "cell %d", i)
		assert.Less(t, titleRow, frameRow, "cell %d", i)
	}

	// Each grid row shifts down by one terminal cell per title above it.
	assert.Equal(t, 0, sink.titles[0].y)
	assert.Equal(t, 16, sink.frames[0].y)
	assert.Equal(t, 32+16, sink.titles[1].y)
	assert.Equal(t, 32+32, sink.frames[1].y)
}

type failingSink struct {
	recordingSink
	calls int
}

func (f *failingSink) WriteFrame(img *image.RGBA, x, y int) error {
	f.calls++
	return fmt.Errorf("write %d: broken pipe", f.calls)
}

func TestCompositorRecordsFirstWriteError(t *testing.T) {
	grid, err := NewGrid(100, 50, 1, 1)
	require.NoError(t, err)

	sink := &failingSink{}
	comp := NewCompositor(grid, sink, &DisplayOptions{Width: 100, Height: 50})
	require.NoError(t, comp.Err())

	render := comp.RenderFunc(0)
	render("a.png", frameOf(100, 50))
	render("a.png", frameOf(100, 50))

	require.Error(t, comp.Err())
	assert.EqualError(t, comp.Err(), "write 1: broken pipe")
}

func TestCompositorTruncatesTitleToCell(t *testing.T) {
	grid, err := NewGrid(20, 20, 2, 1)
	require.NoError(t, err)

	sink := &recordingSink{}
	opts := &DisplayOptions{Width: 10, Height: 20, ShowFilename: true}
	comp := NewCompositor(grid, sink, opts)

	comp.RenderFunc(0)("a-very-long-filename.gif", frameOf(10, 18))

	require.Len(t, sink.titles, 1)
	assert.Len(t, sink.titles[0].text, 10)
}
