package sim

import "testing"

// feed applies video pin levels and runs one capture sample.
func feed(c *Capture, m *stubModel, vsync, hsync, dispEn uint8, r, g, b uint8) {
	m.pins.VSync = vsync
	m.pins.HSync = hsync
	m.pins.DispEn = dispEn
	m.pins.R = r
	m.pins.G = g
	m.pins.B = b
	c.HalfCycle(0)
}

// feedFrame plays one whole frame waveform: rows scanlines of cols active
// pixels each, a blank gap, then a vsync pulse ending in a falling edge.
func feedFrame(c *Capture, m *stubModel, cols, rows int, color func(x, y int) (r, g, b uint8)) {
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			r, g, b := color(x, y)
			feed(c, m, 0, 1, 1, r, g, b)
		}
		// Horizontal blank ends the scanline.
		feed(c, m, 0, 0, 1, 0, 0, 0)
	}
	feed(c, m, 1, 0, 0, 0, 0, 0)
	feed(c, m, 0, 0, 0, 0, 0, 0)
}

func TestCapture_FrameGeometryAndPixels(t *testing.T) {
	m := &stubModel{}
	c := NewCapture(m, 1)

	color := func(x, y int) (uint8, uint8, uint8) {
		return uint8(x + 1), uint8(y + 1), 0x40
	}
	feedFrame(c, m, 4, 3, color)

	if c.FrameCount() != 1 {
		t.Fatalf("expected 1 completed frame, got %d", c.FrameCount())
	}
	frame := c.LastFrame()
	if frame == nil {
		t.Fatal("no frame image emitted")
	}
	b := frame.Bounds()
	if b.Dx() != 4 || b.Dy() != 3 {
		t.Fatalf("expected 4x3 frame, got %dx%d", b.Dx(), b.Dy())
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			px := frame.RGBAAt(x, y)
			wr, wg, wb := color(x, y)
			if px.R != wr || px.G != wg || px.B != wb {
				t.Errorf("pixel (%d,%d): expected %02X%02X%02X, got %02X%02X%02X",
					x, y, wr, wg, wb, px.R, px.G, px.B)
			}
		}
	}
}

func TestCapture_FirstPixelAfterVSync(t *testing.T) {
	m := &stubModel{}
	c := NewCapture(m, 1)

	// Partial junk before the first vsync; it belongs to an incomplete
	// frame and must not leak into the next one.
	feed(c, m, 0, 1, 1, 0xEE, 0xEE, 0xEE)
	feed(c, m, 1, 0, 0, 0, 0, 0)
	feed(c, m, 0, 0, 0, 0, 0, 0)

	feedFrame(c, m, 2, 2, func(x, y int) (uint8, uint8, uint8) {
		return 0x10, 0x20, 0x30
	})

	frame := c.LastFrame()
	b := frame.Bounds()
	if b.Dx() != 2 || b.Dy() != 2 {
		t.Fatalf("expected 2x2 frame, got %dx%d", b.Dx(), b.Dy())
	}
	if px := frame.RGBAAt(0, 0); px.R != 0x10 {
		t.Errorf("pixel (0,0): expected R=0x10 from the first post-vsync span, got %02X", px.R)
	}
}

func TestCapture_EmptyFrameResetsOnly(t *testing.T) {
	m := &stubModel{}
	c := NewCapture(m, 1)

	// Two vsync pulses with the display disabled throughout.
	for i := 0; i < 2; i++ {
		feed(c, m, 0, 0, 0, 0, 0, 0)
		feed(c, m, 1, 0, 0, 0, 0, 0)
		feed(c, m, 0, 0, 0, 0, 0, 0)
	}

	if c.FrameCount() != 0 {
		t.Errorf("empty accumulations must not count as frames, got %d", c.FrameCount())
	}
	if c.LastFrame() != nil {
		t.Error("empty accumulation produced an image")
	}
}

func TestCapture_ScanlineCursor(t *testing.T) {
	m := &stubModel{}
	c := NewCapture(m, 1)

	// Two active spans separated by a blank gap: the second span must
	// land on the next scanline at x=0.
	feed(c, m, 0, 1, 1, 1, 1, 1)
	feed(c, m, 0, 1, 1, 2, 2, 2)
	feed(c, m, 0, 0, 1, 0, 0, 0)
	feed(c, m, 0, 0, 1, 0, 0, 0)
	feed(c, m, 0, 1, 1, 3, 3, 3)

	feed(c, m, 1, 0, 0, 0, 0, 0)
	feed(c, m, 0, 0, 0, 0, 0, 0)

	frame := c.LastFrame()
	b := frame.Bounds()
	if b.Dx() != 2 || b.Dy() != 2 {
		t.Fatalf("expected 2x2 frame, got %dx%d", b.Dx(), b.Dy())
	}
	if px := frame.RGBAAt(0, 1); px.R != 3 {
		t.Errorf("pixel (0,1): expected the post-gap pixel (R=3), got R=%d", px.R)
	}
	if px := frame.RGBAAt(1, 0); px.R != 2 {
		t.Errorf("pixel (1,0): expected R=2, got R=%d", px.R)
	}
}

func TestCapture_Subsampling(t *testing.T) {
	m := &stubModel{}
	c := NewCapture(m, 4)

	// Only every 4th half-cycle is examined.
	m.pins.HSync = 1
	m.pins.DispEn = 1
	for i := 0; i < 16; i++ {
		m.pins.R = uint8(i)
		c.HalfCycle(0)
	}

	if got := c.PendingPixels(); got != 4 {
		t.Errorf("expected 4 sampled pixels from 16 half-cycles at divisor 4, got %d", got)
	}
}

func TestCapture_FrameSizeFallback(t *testing.T) {
	m := &stubModel{}
	c := NewCapture(m, 1)

	w, h := c.FrameSize()
	if w != FallbackWidth || h != FallbackHeight {
		t.Errorf("expected fallback %dx%d before any frame, got %dx%d",
			FallbackWidth, FallbackHeight, w, h)
	}
}
