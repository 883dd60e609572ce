package termplay

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/term"
)

// Cell pixel density assumed when the terminal won't answer a size query.
const (
	fallbackCellWidth  = 8
	fallbackCellHeight = 16
)

// TermSize is the probed terminal geometry in halfblock pixels: one column
// is one pixel wide, one row is two pixels tall. One row is reserved for the
// shell prompt.
type TermSize struct {
	Cols   int
	Rows   int
	Width  int
	Height int
	Valid  bool
}

// DetermineTermSize probes every fd that might be connected to a tty. With
// output piped, stderr or stdin usually still is one.
func DetermineTermSize() TermSize {
	for _, f := range []*os.File{os.Stdout, os.Stderr, os.Stdin} {
		if cols, rows, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 && rows > 0 {
			return TermSize{
				Cols:   cols,
				Rows:   rows,
				Width:  cols,
				Height: 2 * (rows - 1),
				Valid:  true,
			}
		}
	}
	return TermSize{Width: -1, Height: -1}
}

// QueryCellPixelSize asks the terminal how many pixels one character cell
// covers (CSI 16 t). Graphics protocol sinks need this to translate canvas
// pixels into cursor positions. Falls back to 8x16 when the terminal stays
// silent.
func QueryCellPixelSize() (w, h int) {
	w, h = fallbackCellWidth, fallbackCellHeight

	if fileInfo, _ := os.Stdin.Stat(); (fileInfo.Mode() & os.ModeCharDevice) == 0 {
		return w, h
	}

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return w, h
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	fmt.Fprint(os.Stdout, "\x1b[16t")

	responseChan := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, readErr := os.Stdin.Read(buf)
		if readErr != nil {
			responseChan <- nil
			return
		}
		responseChan <- buf[:n]
	}()

	select {
	case response := <-responseChan:
		// Response format: ESC [ 6 ; height ; width t
		var ph, pw int
		if _, scanErr := fmt.Sscanf(string(response), "\x1b[6;%d;%dt", &ph, &pw); scanErr == nil && pw > 0 && ph > 0 {
			return pw, ph
		}
	case <-time.After(200 * time.Millisecond):
	}

	return w, h
}
