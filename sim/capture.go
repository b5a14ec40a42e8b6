package sim

import (
	"image"
	"image/color"
)

// Fallback mode size used before any frame has completed (SCREEN5).
const (
	FallbackWidth  = 256
	FallbackHeight = 212
)

// DefaultSampleDiv is the default pixel subsample ratio: the video pins
// are sampled once every 4th half-cycle to approximate the pixel rate of
// the faster internal clock.
const DefaultSampleDiv = 4

// capturedPixel is one recorded sample.
type capturedPixel struct {
	x, y    int
	r, g, b uint8
}

// Capture reconstructs discrete frames from the model's continuous video
// output. It observes VSync, HSync and DispEn on a fixed subsample of
// half-cycles, accumulates pixels while the active condition holds, steps
// the scanline cursor on the trailing edge of the active condition, and
// finalizes a frame on the falling edge of VSync.
//
// Frame width and height are discovered from the observed signal
// activity, not assumed from a mode table.
type Capture struct {
	model     Model
	sampleDiv int
	tick      int

	x, y       int
	maxX, maxY int
	pixels     []capturedPixel

	prevVSync  uint8
	prevActive bool

	frameCount int
	lastFrame  *image.RGBA

	// hooks are invoked with each finalized frame, in order.
	hooks []func(frame *image.RGBA, index int)
}

// NewCapture creates a frame-capture observer sampling every sampleDiv-th
// half-cycle.
func NewCapture(model Model, sampleDiv int) *Capture {
	if sampleDiv < 1 {
		sampleDiv = DefaultSampleDiv
	}
	return &Capture{model: model, sampleDiv: sampleDiv}
}

// AddFrameHook registers a callback invoked with every completed frame.
func (c *Capture) AddFrameHook(fn func(frame *image.RGBA, index int)) {
	c.hooks = append(c.hooks, fn)
}

// HalfCycle implements HalfCycleObserver.
func (c *Capture) HalfCycle(timePS uint64) {
	c.tick++
	if c.tick < c.sampleDiv {
		return
	}
	c.tick = 0

	pins := c.model.Pins()
	vsync := pins.VSync
	active := pins.HSync != 0 && pins.DispEn != 0

	// Falling edge of VSync closes the frame.
	if c.prevVSync != 0 && vsync == 0 {
		c.finalize()
	}

	if active {
		c.pixels = append(c.pixels, capturedPixel{
			x: c.x, y: c.y,
			r: pins.R, g: pins.G, b: pins.B,
		})
		if c.x > c.maxX {
			c.maxX = c.x
		}
		if c.y > c.maxY {
			c.maxY = c.y
		}
		c.x++
	} else if c.prevActive {
		// End of scanline.
		c.x = 0
		c.y++
	}

	c.prevVSync = vsync
	c.prevActive = active
}

// finalize turns the accumulated pixel set into an immutable frame sized
// to the observed extents and resets the accumulator. An empty set yields
// no frame and just resets state.
func (c *Capture) finalize() {
	if len(c.pixels) > 0 {
		img := image.NewRGBA(image.Rect(0, 0, c.maxX+1, c.maxY+1))
		for _, px := range c.pixels {
			img.SetRGBA(px.x, px.y, color.RGBA{R: px.r, G: px.g, B: px.b, A: 0xFF})
		}
		c.lastFrame = img
		c.frameCount++
		for _, hook := range c.hooks {
			hook(img, c.frameCount)
		}
	}

	c.pixels = c.pixels[:0]
	c.x = 0
	c.y = 0
	c.maxX = 0
	c.maxY = 0
}

// FrameCount returns the number of completed frames.
func (c *Capture) FrameCount() int { return c.frameCount }

// LastFrame returns the most recently completed frame, or nil if no frame
// has completed yet.
func (c *Capture) LastFrame() *image.RGBA { return c.lastFrame }

// FrameSize returns the dimensions of the most recent frame, or the
// fallback mode size when no frame has completed.
func (c *Capture) FrameSize() (w, h int) {
	if c.lastFrame == nil {
		return FallbackWidth, FallbackHeight
	}
	b := c.lastFrame.Bounds()
	return b.Dx(), b.Dy()
}

// PendingPixels returns the number of pixels accumulated toward the
// current frame.
func (c *Capture) PendingPixels() int { return len(c.pixels) }
