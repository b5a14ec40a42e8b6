// Package ui holds the shared state between the simulation goroutine and
// the Ebiten display thread.
package ui

import (
	"image"
	"sync"
)

// SharedFramebuffer holds pixel data written by the simulation goroutine
// and read by Ebiten's Draw() method. Uses separate write and read buffers
// so the simulation can publish a new frame while Draw uses the read copy.
// Frame dimensions are discovered at runtime, so the buffers grow to fit.
type SharedFramebuffer struct {
	mu          sync.Mutex
	writePixels []byte // Written by sim goroutine under lock
	readPixels  []byte // Snapshot copied on Read for safe external use
	width       int
	height      int
}

// NewSharedFramebuffer creates an empty framebuffer.
func NewSharedFramebuffer() *SharedFramebuffer {
	return &SharedFramebuffer{}
}

// Publish copies a completed frame from the simulation goroutine.
func (sf *SharedFramebuffer) Publish(frame *image.RGBA) {
	b := frame.Bounds()
	n := len(frame.Pix)

	sf.mu.Lock()
	if n > cap(sf.writePixels) {
		sf.writePixels = make([]byte, n)
	}
	sf.writePixels = sf.writePixels[:n]
	copy(sf.writePixels, frame.Pix)
	sf.width = b.Dx()
	sf.height = b.Dy()
	sf.mu.Unlock()
}

// Read returns a snapshot of the current frame. Copies the write buffer
// into the read buffer under the lock, then returns the read buffer which
// is safe to use without holding the lock. Returns nil pixels when no
// frame has been published yet.
func (sf *SharedFramebuffer) Read() (pixels []byte, width, height int) {
	sf.mu.Lock()
	width = sf.width
	height = sf.height
	n := len(sf.writePixels)
	if n > 0 {
		if n > cap(sf.readPixels) {
			sf.readPixels = make([]byte, n)
		}
		sf.readPixels = sf.readPixels[:n]
		copy(sf.readPixels, sf.writePixels)
		pixels = sf.readPixels
	}
	sf.mu.Unlock()
	return
}
