// Package ebiten provides a live Ebiten viewer for captured frames.
package ebiten

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/user-none/vdpsim/ui"
)

// Viewer implements ebiten.Game, displaying the most recent frame
// published by the simulation goroutine. The simulation runs on its own
// goroutine; the Ebiten thread only renders the shared framebuffer.
type Viewer struct {
	framebuffer *ui.SharedFramebuffer
	control     *ui.SimControl

	offscreen *ebiten.Image           // Offscreen buffer for native resolution rendering
	drawOpts  ebiten.DrawImageOptions // Pre-allocated draw options to avoid per-frame allocation
}

// NewViewer creates a viewer over the given shared framebuffer and
// control.
func NewViewer(fb *ui.SharedFramebuffer, control *ui.SimControl) *Viewer {
	return &Viewer{
		framebuffer: fb,
		control:     control,
	}
}

// Update implements ebiten.Game. Space toggles pause.
func (v *Viewer) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeySpace) {
		if !v.control.IsPaused() {
			v.control.RequestPause()
		}
	} else if v.control.IsPaused() {
		v.control.RequestResume()
	}
	return nil
}

// Draw implements ebiten.Game: renders the shared framebuffer scaled to
// the window, preserving aspect ratio.
func (v *Viewer) Draw(screen *ebiten.Image) {
	pixels, width, height := v.framebuffer.Read()
	if pixels == nil || width == 0 || height == 0 {
		return
	}

	// Create or resize offscreen buffer if needed
	if v.offscreen == nil || v.offscreen.Bounds().Dx() != width || v.offscreen.Bounds().Dy() != height {
		v.offscreen = ebiten.NewImage(width, height)
	}

	v.offscreen.WritePixels(pixels)

	// Calculate scaling to fit window while preserving aspect ratio
	screenW, screenH := screen.Bounds().Dx(), screen.Bounds().Dy()
	nativeW := float64(width)
	nativeH := float64(height)

	scaleX := float64(screenW) / nativeW
	scaleY := float64(screenH) / nativeH
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}

	scaledW := nativeW * scale
	scaledH := nativeH * scale
	offsetX := (float64(screenW) - scaledW) / 2
	offsetY := (float64(screenH) - scaledH) / 2

	v.drawOpts = ebiten.DrawImageOptions{}
	v.drawOpts.GeoM.Scale(scale, scale)
	v.drawOpts.GeoM.Translate(offsetX, offsetY)
	v.drawOpts.Filter = ebiten.FilterNearest
	screen.DrawImage(v.offscreen, &v.drawOpts)
}

// Layout implements ebiten.Game.
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}
