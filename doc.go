/*
Package termplay plays images, animated GIFs and videos inside a terminal.

Frames are decoded by pluggable backends (stdlib and x/image decoders for
images, an ffmpeg rawvideo pipe for videos), scaled once at load time to fit
the display constraints, sequenced under loop / frame-count / wall-clock
ceilings, and written to the terminal through a protocol sink: truecolor
half-blocks everywhere, kitty graphics, sixel or iTerm2 inline images where
supported.

# Basic usage

	opts := &termplay.DisplayOptions{Width: 80, Height: 46, Antialias: true}

	src, err := termplay.OpenSource("cat.gif", opts, true, true)
	if err != nil {
		return err
	}
	defer src.Close()

	sink, err := termplay.NewSink(termplay.Auto, os.Stdout, false)
	if err != nil {
		return err
	}

	seq := termplay.NewSequencer(src, termplay.Limits{Loops: 2},
		func(_ string, f *termplay.Frame) {
			sink.WriteFrame(f.Image, 0, 0)
		})
	reason, err := seq.Play(ctx)

# Grids

Multiple inputs can share the terminal as a contact sheet. A Grid partitions
the canvas into equally sized cells, each cell's size becomes the display
constraint for the source assigned to it, and a Compositor hands out
per-source render callbacks that place frames at the right offset:

	grid, _ := termplay.NewGrid(160, 92, 2, 2)
	comp := termplay.NewCompositor(grid, sink, opts)
	seq := termplay.NewSequencer(src, limits, comp.RenderFunc(0))

Sources always play one after another; the sequencer owns pacing and polls
the context after every frame and delay, so Ctrl-C takes effect within one
frame delay.
*/
package termplay
