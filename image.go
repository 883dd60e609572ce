package termplay

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"os"
	"strings"
	"time"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Delay used for GIF frames that don't carry one. Browsers and most viewers
// treat zero-delay frames as 100ms.
const defaultFrameDelay = 100 * time.Millisecond

// imageSource plays still and animated images. All frames are decoded,
// composed and scaled once at load time; NextFrame only hands them out.
type imageSource struct {
	filename string
	geom     ScaledGeometry
	frames   []*Frame
	next     int
	animated bool

	// Marquee scrolling synthesizes window frames out of the scaled
	// image instead of handing out the preloaded ones.
	scroll      bool
	content     *image.RGBA
	winW, winH  int
	offX, offY  int
	dx, dy      int
	scrollDelay time.Duration
	started     bool
}

func newImageSource(filename string, opts *DisplayOptions) (*imageSource, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", filename, err)
	}

	var background color.Color
	if opts.Background != "" {
		background, err = ParseColor(opts.Background)
		if err != nil {
			return nil, err
		}
	}

	src := &imageSource{filename: filename}

	if format == "gif" {
		err = src.loadGIF(data, opts, background)
	} else {
		err = src.loadStill(data, opts, background)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filename, err)
	}

	if opts.Scroll && (opts.ScrollDX != 0 || opts.ScrollDY != 0) {
		src.setupScroll(opts)
	}

	return src, nil
}

func (s *imageSource) loadStill(data []byte, opts *DisplayOptions, background color.Color) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}

	bounds := img.Bounds()
	s.geom = CalcScaleToFit(bounds.Dx(), bounds.Dy(), opts)

	composed := composeOverBackground(img, background)
	s.frames = []*Frame{{
		Image: scaleFrame(composed, s.geom.Width, s.geom.Height, opts.Antialias, s.filename, 0),
	}}

	return nil
}

func (s *imageSource) loadGIF(data []byte, opts *DisplayOptions, background color.Color) error {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if len(g.Image) == 0 {
		return fmt.Errorf("no frames")
	}

	nativeW, nativeH := g.Config.Width, g.Config.Height
	if nativeW == 0 || nativeH == 0 {
		b := g.Image[0].Bounds()
		nativeW, nativeH = b.Dx(), b.Dy()
	}
	s.geom = CalcScaleToFit(nativeW, nativeH, opts)
	s.animated = len(g.Image) > 1

	// GIF frames are partial updates; compose them onto a running canvas
	// honoring the per-frame disposal mode.
	canvas := image.NewRGBA(image.Rect(0, 0, nativeW, nativeH))
	if background != nil {
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	}

	for i, paletted := range g.Image {
		var restore *image.RGBA
		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalPrevious {
			restore = cloneRGBA(canvas)
		}

		draw.Draw(canvas, paletted.Bounds(), paletted, paletted.Bounds().Min, draw.Over)

		delay := defaultFrameDelay
		if i < len(g.Delay) && g.Delay[i] > 0 {
			delay = time.Duration(g.Delay[i]) * 10 * time.Millisecond
		}

		s.frames = append(s.frames, &Frame{
			Image: scaleFrame(cloneRGBA(canvas), s.geom.Width, s.geom.Height, opts.Antialias, s.filename, i),
			Delay: delay,
		})

		if i < len(g.Disposal) {
			switch g.Disposal[i] {
			case gif.DisposalBackground:
				clear := image.Transparent
				if background != nil {
					clear = image.NewUniform(background)
				}
				draw.Draw(canvas, paletted.Bounds(), clear, image.Point{}, draw.Src)
			case gif.DisposalPrevious:
				canvas = restore
			}
		}
	}

	return nil
}

// setupScroll switches the source into marquee mode: the scaled image becomes
// wrap-around content behind a window no larger than the display box.
func (s *imageSource) setupScroll(opts *DisplayOptions) {
	s.scroll = true
	s.content = s.frames[0].Image
	s.dx, s.dy = opts.ScrollDX, opts.ScrollDY
	s.scrollDelay = opts.ScrollDelay
	if s.scrollDelay <= 0 {
		s.scrollDelay = 60 * time.Millisecond
	}
	s.winW = min(opts.Width, s.geom.Width)
	s.winH = min(opts.Height, s.geom.Height)
}

func (s *imageSource) Filename() string         { return s.filename }
func (s *imageSource) Geometry() ScaledGeometry { return s.geom }

func (s *imageSource) DefaultLoops() int {
	if s.animated || s.scroll {
		return LoopsForever
	}
	return 1
}

func (s *imageSource) NextFrame() (*Frame, error) {
	if s.scroll {
		return s.nextScrollFrame(), nil
	}

	if !s.animated {
		if s.next > 0 {
			return nil, io.EOF
		}
		s.next++
		return s.frames[0], nil
	}

	wrap := false
	if s.next >= len(s.frames) {
		s.next = 0
		wrap = true
	}
	f := s.frames[s.next]
	s.next++

	return &Frame{Image: f.Image, Delay: f.Delay, LoopWrap: wrap}, nil
}

func (s *imageSource) nextScrollFrame() *Frame {
	wrap := s.started && s.offX == 0 && s.offY == 0

	window := image.NewRGBA(image.Rect(0, 0, s.winW, s.winH))
	cw := s.content.Bounds().Dx()
	ch := s.content.Bounds().Dy()

	// The window may straddle the wrap seam on both axes; up to four
	// copies of the content cover it.
	for _, shiftX := range []int{0, cw} {
		for _, shiftY := range []int{0, ch} {
			target := image.Rect(-s.offX+shiftX, -s.offY+shiftY,
				-s.offX+shiftX+cw, -s.offY+shiftY+ch)
			draw.Draw(window, target, s.content, s.content.Bounds().Min, draw.Src)
		}
	}

	s.offX = mod(s.offX+s.dx, cw)
	s.offY = mod(s.offY+s.dy, ch)
	s.started = true

	return &Frame{Image: window, Delay: s.scrollDelay, LoopWrap: wrap}
}

func (s *imageSource) Close() error { return nil }

// ParseColor understands #rgb, #rrggbb and a handful of names. Used for the
// background shown under transparent images.
func ParseColor(spec string) (color.Color, error) {
	named := map[string]color.RGBA{
		"black":   {0, 0, 0, 255},
		"white":   {255, 255, 255, 255},
		"red":     {255, 0, 0, 255},
		"green":   {0, 255, 0, 255},
		"blue":    {0, 0, 255, 255},
		"yellow":  {255, 255, 0, 255},
		"cyan":    {0, 255, 255, 255},
		"magenta": {255, 0, 255, 255},
		"gray":    {128, 128, 128, 255},
		"grey":    {128, 128, 128, 255},
	}
	if c, ok := named[strings.ToLower(spec)]; ok {
		return c, nil
	}

	var r, g, b uint8
	switch {
	case len(spec) == 7 && spec[0] == '#':
		if _, err := fmt.Sscanf(spec, "#%02x%02x%02x", &r, &g, &b); err != nil {
			return nil, fmt.Errorf("invalid color %q", spec)
		}
	case len(spec) == 4 && spec[0] == '#':
		if _, err := fmt.Sscanf(spec, "#%1x%1x%1x", &r, &g, &b); err != nil {
			return nil, fmt.Errorf("invalid color %q", spec)
		}
		r, g, b = r*17, g*17, b*17
	default:
		return nil, fmt.Errorf("invalid color %q", spec)
	}

	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

func composeOverBackground(img image.Image, background color.Color) image.Image {
	if background == nil {
		return img
	}
	bounds := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Over)
	return out
}

func cloneRGBA(img *image.RGBA) *image.RGBA {
	out := image.NewRGBA(img.Rect)
	copy(out.Pix, img.Pix)
	return out
}

func mod(a, m int) int {
	if m <= 0 {
		return 0
	}
	a %= m
	if a < 0 {
		a += m
	}
	return a
}
