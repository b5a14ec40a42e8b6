package sim

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"
)

// SaveFramePNG writes a captured frame to path as PNG.
func SaveFramePNG(frame *image.RGBA, path string) error {
	return saveFrame(frame, path, png.Encode)
}

// SaveFrameBMP writes a captured frame to path as BMP, the format the
// original inspection tooling consumed.
func SaveFrameBMP(frame *image.RGBA, path string) error {
	return saveFrame(frame, path, bmp.Encode)
}

func saveFrame(frame *image.RGBA, path string, encode func(w io.Writer, img image.Image) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save frame: %w", err)
	}
	if err := encode(f, frame); err != nil {
		f.Close()
		return fmt.Errorf("save frame %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("save frame %s: %w", path, err)
	}
	return nil
}

// FrameExporter writes each completed frame to a directory, keyed by
// frame number. Write failures are reported as warnings and do not stop
// the simulation: export affects observability, not correctness.
type FrameExporter struct {
	dir    string
	useBMP bool
}

// NewFrameExporter creates an exporter writing frame_NNNN files into dir.
// Set useBMP for BMP output instead of PNG.
func NewFrameExporter(dir string, useBMP bool) (*FrameExporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("frame export dir: %w", err)
	}
	return &FrameExporter{dir: dir, useBMP: useBMP}, nil
}

// Attach registers the exporter as the capture's frame hook.
func (e *FrameExporter) Attach(c *Capture) {
	c.AddFrameHook(e.writeFrame)
}

func (e *FrameExporter) writeFrame(frame *image.RGBA, index int) {
	var path string
	var err error
	if e.useBMP {
		path = filepath.Join(e.dir, fmt.Sprintf("frame_%04d.bmp", index))
		err = SaveFrameBMP(frame, path)
	} else {
		path = filepath.Join(e.dir, fmt.Sprintf("frame_%04d.png", index))
		err = SaveFramePNG(frame, path)
	}
	if err != nil {
		log.Printf("sim: frame export failed: %v", err)
	}
}
