/*
Copyright © 2024 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	clihander "github.com/apex/log/handlers/cli"
	"github.com/blacktop/go-termplay"
	"github.com/spf13/cobra"
)

// Exit codes, kept in sync with the man page.
const (
	exitSuccess      = 0
	exitReadError    = 1
	exitParamError   = 2
	exitNotATerminal = 3
)

var (
	verbose      bool
	geometry     string
	gridSpec     string
	waitSecs     float64
	durationSecs float64
	loops        int
	frames       int
	upscale      bool
	fitWidth     bool
	noAntialias  bool
	background   string
	center       bool
	showTitle    bool
	showCursor   bool
	forceVideo   bool
	forceImage   bool
	scrollSpec   string
	deltaMove    string
	protocolName string
	ditherBlocks bool
)

func init() {
	log.SetHandler(clihander.Default)

	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	rootCmd.Flags().StringVarP(&geometry, "geometry", "g", "", "Output pixel geometry <w>x<h> (default from terminal)")
	rootCmd.Flags().StringVar(&gridSpec, "grid", "", "Arrange images in a <cols>[x<rows>] grid (contact sheet)")
	rootCmd.Flags().Float64VarP(&waitSecs, "wait", "w", 0, "Seconds to wait between images")
	rootCmd.Flags().Float64VarP(&durationSecs, "duration", "t", 0, "Stop after this time, no matter what --loops or --frames say")
	rootCmd.Flags().IntVar(&loops, "loops", termplay.LoopsDefault, "Number of runs through a full cycle; -1 means forever")
	rootCmd.Flags().IntVar(&frames, "frames", 0, "Only render first num frames")
	rootCmd.Flags().BoolVarP(&upscale, "upscale", "U", false, "Scale up images smaller than the display")
	rootCmd.Flags().BoolVarP(&fitWidth, "fit-width", "W", false, "Scale to fit width of terminal (default: fit width and height)")
	rootCmd.Flags().BoolVarP(&noAntialias, "no-antialias", "a", false, "Switch off antialiasing")
	rootCmd.Flags().StringVarP(&background, "background", "b", "", "Background color for transparent images")
	rootCmd.Flags().BoolVarP(&center, "center", "C", false, "Center image horizontally")
	rootCmd.Flags().BoolVarP(&showTitle, "title", "F", false, "Print filename before showing images")
	rootCmd.Flags().BoolVarP(&showCursor, "show-cursor", "E", false, "Don't hide the cursor while showing images")
	rootCmd.Flags().BoolVarP(&forceVideo, "video", "V", false, "This is a video, don't attempt image decoding (useful for stdin streams)")
	rootCmd.Flags().BoolVarP(&forceImage, "image", "I", false, "This is an image, don't attempt video decoding")
	rootCmd.Flags().StringVar(&scrollSpec, "scroll", "", "Scroll horizontally (optionally: delay in ms)")
	rootCmd.Flags().Lookup("scroll").NoOptDefVal = "60"
	rootCmd.Flags().StringVar(&deltaMove, "delta-move", "1:0", "Delta x and y per scroll step <dx>:<dy>")
	rootCmd.Flags().StringVarP(&protocolName, "protocol", "p", "auto", "Output protocol: auto, halfblocks, sixel, kitty, iterm2")
	rootCmd.Flags().BoolVar(&ditherBlocks, "dither", false, "Dither halfblock output")
}

var rootCmd = &cobra.Command{
	Use:           "termplay [flags] <image/video> [<image/video>...]",
	Short:         "Play images, GIFs and videos in your terminal",
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exitError{code: run(args)}
	},
}

// exitError smuggles the process exit code out of cobra.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit code %d", e.code) }

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return exitSuccess
	}
	if ee, ok := err.(exitError); ok {
		if ee.code == exitSuccess {
			return exitSuccess
		}
		return ee.code
	}
	log.Error(err.Error())
	return exitParamError
}

func run(args []string) int {
	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	protocol, err := termplay.ParseProtocol(protocolName)
	if err != nil {
		log.Error(err.Error())
		return exitParamError
	}

	sink, err := termplay.NewSink(protocol, os.Stdout, ditherBlocks)
	if err != nil {
		log.Error(err.Error())
		return exitParamError
	}
	cellW, cellH := sink.CellSize()

	// Resolve the canvas geometry: explicit -g wins, otherwise it comes
	// from the terminal. One row stays reserved for the prompt.
	termSize := termplay.DetermineTermSize()
	canvasW := termSize.Cols * cellW
	canvasH := (termSize.Rows - 1) * cellH

	if geometry != "" {
		canvasW, canvasH, err = parsePair(geometry, "x")
		if err != nil {
			log.Errorf("invalid size spec %q", geometry)
			return exitParamError
		}
	} else if !termSize.Valid {
		log.Error("failed to read size from terminal; please supply -g<width>x<height> directly")
		return exitNotATerminal
	}

	if canvasW < 1 || canvasH < 1 {
		log.Errorf("%dx%d is a rather unusual size", canvasW, canvasH)
		return exitNotATerminal
	}

	gridCols, gridRows := 1, 1
	if gridSpec != "" {
		gridCols, gridRows, err = parseGrid(gridSpec)
		if err != nil {
			log.Errorf("invalid grid spec %q", gridSpec)
			return exitParamError
		}
	}

	scroll, scrollDelay, err := parseScroll(scrollSpec)
	if err != nil {
		log.Error(err.Error())
		return exitParamError
	}
	scrollDX, scrollDY := 1, 0
	if deltaMove != "" {
		scrollDX, scrollDY, err = parsePair(deltaMove, ":")
		if err != nil {
			log.Errorf("invalid delta-move %q: need <dx>:<dy>, e.g. 1:0", deltaMove)
			return exitParamError
		}
	}

	// There is no scroll if there is no movement.
	if scroll && scrollDX == 0 && scrollDY == 0 {
		log.Warn("scrolling chosen, but dx:dy = 0:0; just showing image, no scroll")
		scroll = false
	}

	opts := termplay.DisplayOptions{
		Upscale:      upscale,
		Antialias:    !noAntialias,
		Center:       center,
		ShowFilename: showTitle,
		Background:   background,
		Scroll:       scroll,
		ScrollDelay:  scrollDelay,
		ScrollDX:     scrollDX,
		ScrollDY:     scrollDY,
	}

	// Scrolling in one direction has infinite space there, so fill the
	// screen fully in the other direction.
	opts.FillWidth = fitWidth || (scroll && scrollDY != 0)
	opts.FillHeight = scroll && scrollDX != 0

	// Filename titles take one text row per grid row out of the canvas.
	if showTitle {
		canvasH -= gridRows * cellH
	}

	grid, err := termplay.NewGrid(canvasW, canvasH, gridCols, gridRows)
	if err != nil {
		log.Error(err.Error())
		return exitParamError
	}

	// Each source gets scaled against its cell, so frames can never
	// overflow into a neighbor.
	opts.Width, opts.Height = grid.CellSize()
	log.Debugf("canvas %dx%d px, grid %dx%d, cell %dx%d px, protocol %s",
		canvasW, canvasH, gridCols, gridRows, opts.Width, opts.Height, protocol)

	limits := termplay.Limits{
		Loops:      loops,
		Frames:     frames,
		Duration:   time.Duration(durationSecs * float64(time.Second)),
		InterImage: time.Duration(waitSecs * float64(time.Second)),
	}

	tryImage := !forceVideo
	tryVideo := !forceImage

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !showCursor {
		sink.HideCursor()
		defer sink.ShowCursor()
	}
	defer sink.Finish()

	comp := termplay.NewCompositor(grid, sink, &opts)

	anyFailed := false
	for i, filename := range args {
		if ctx.Err() != nil {
			break
		}

		src, err := termplay.OpenSource(filename, &opts, tryImage, tryVideo)
		if err != nil {
			log.WithError(err).Errorf("%s: couldn't load", filename)
			if filename == "-" && !forceVideo {
				log.Info("if this is a video on stdin, use -V to skip image probing")
			}
			anyFailed = true
			continue
		}

		geom := src.Geometry()
		log.Debugf("%s: target %dx%d (scaled=%t)", filename, geom.Width, geom.Height, geom.Scaled)

		seq := termplay.NewSequencer(src, limits, comp.RenderFunc(i))
		reason, playErr := seq.Play(ctx)
		if playErr != nil {
			log.WithError(playErr).Errorf("%s: playback failed", filename)
			anyFailed = true
		}
		log.Debugf("%s: stopped (%s)", filename, reason)

		if err := src.Close(); err != nil {
			log.WithError(err).Debugf("%s: close", filename)
		}

		if limits.InterImage > 0 && i < len(args)-1 && ctx.Err() == nil {
			select {
			case <-ctx.Done():
			case <-time.After(limits.InterImage):
			}
		}
	}

	if ctx.Err() != nil {
		// Make Ctrl-C appear on a new line.
		fmt.Println()
	}

	if err := comp.Err(); err != nil {
		log.WithError(err).Error("writing to terminal failed")
		anyFailed = true
	}

	if anyFailed {
		return exitReadError
	}
	return exitSuccess
}
