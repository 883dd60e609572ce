package termplay

import (
	"math"
	"time"
)

// DisplayOptions describes the constraints a frame has to be fitted into.
// Width and Height are in terminal pixels (one column is one pixel wide, one
// row is two pixels tall in halfblock rendering). They must both be >= 1 by
// the time a source is opened; an unknown terminal size is an error resolved
// by the caller, never a zero default.
type DisplayOptions struct {
	Width  int
	Height int

	// FillWidth/FillHeight pick which axis dominates the scale factor.
	// Neither set means classic "contain" letterboxing.
	FillWidth  bool
	FillHeight bool

	// Upscale allows images smaller than the display to be blown up.
	Upscale bool

	// Antialias selects a smoothing interpolation; off means nearest
	// neighbor, which keeps pixel art crisp.
	Antialias bool

	// Center offsets a frame horizontally inside its grid cell.
	Center bool

	// ShowFilename reserves a text row above each grid cell.
	ShowFilename bool

	// Background is composited under transparent pixels ("" keeps them
	// black). Accepts #rgb, #rrggbb or a small set of named colors.
	Background string

	// Scroll turns a still image into a wrap-around marquee.
	Scroll      bool
	ScrollDelay time.Duration
	ScrollDX    int
	ScrollDY    int
}

// ScaledGeometry is the target size computed for a source at load time.
// Scaled is true iff either dimension differs from the native size.
type ScaledGeometry struct {
	Width  int
	Height int
	Scaled bool
}

// CalcScaleToFit computes the target size for an image of imgW x imgH under
// the given constraints. It is pure: same inputs, same outputs, no side
// effects.
//
// With both fill flags the larger fraction wins (maximize coverage, may
// overflow the other axis; wanted for diagonal scrolling). With exactly one
// fill flag the filled axis is the hard constraint and the other may overflow.
// With neither, the smaller fraction wins and the image fits entirely inside
// the box. Dimensions are clamped to >= 1, never zero.
func CalcScaleToFit(imgW, imgH int, opts *DisplayOptions) ScaledGeometry {
	widthFraction := float64(opts.Width) / float64(imgW)
	heightFraction := float64(opts.Height) / float64(imgH)

	// If the image already fits and upscaling wasn't asked for, leave it
	// alone. A filled axis counts as unconstrained here.
	if !opts.Upscale &&
		(opts.FillHeight || widthFraction > 1.0) &&
		(opts.FillWidth || heightFraction > 1.0) {
		return ScaledGeometry{Width: imgW, Height: imgH}
	}

	targetW := opts.Width
	targetH := opts.Height

	switch {
	case opts.FillWidth && opts.FillHeight:
		larger := math.Max(widthFraction, heightFraction)
		targetW = int(math.Round(larger * float64(imgW)))
		targetH = int(math.Round(larger * float64(imgH)))
	case opts.FillHeight:
		// Height is the hard constraint, width may exceed the box.
		targetW = int(math.Round(heightFraction * float64(imgW)))
	case opts.FillWidth:
		targetH = int(math.Round(widthFraction * float64(imgH)))
	default:
		smaller := math.Min(widthFraction, heightFraction)
		targetW = int(math.Round(smaller * float64(imgW)))
		targetH = int(math.Round(smaller * float64(imgH)))
	}

	// Don't scale down to nothing.
	if targetW <= 0 {
		targetW = 1
	}
	if targetH <= 0 {
		targetH = 1
	}

	return ScaledGeometry{
		Width:  targetW,
		Height: targetH,
		Scaled: targetW != imgW || targetH != imgH,
	}
}
