// Package cli runs scripted simulation scenarios, headless or with the
// live frame viewer.
package cli

import (
	"fmt"
	"image"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	simbridge "github.com/user-none/vdpsim/bridge/ebiten"
	"github.com/user-none/vdpsim/script"
	"github.com/user-none/vdpsim/sim"
	"github.com/user-none/vdpsim/ui"
)

// Options selects what a run executes and records.
type Options struct {
	ScriptPath  string // replay CSV scenario
	LuaPath     string // Lua scenario
	TracePath   string // VCD waveform output
	FrameDir    string // per-frame image export directory
	BMP         bool   // export BMP instead of PNG
	ExtraCycles int    // cycles to run after the scenario completes
	Display     bool   // live frame viewer
}

// Runner executes a scenario against a harness. With the display enabled
// the simulation runs on a dedicated goroutine and the Ebiten thread
// renders completed frames from the shared framebuffer.
type Runner struct {
	harness *sim.Harness
	opts    Options

	control           *ui.SimControl
	sharedFramebuffer *ui.SharedFramebuffer
	simDone           chan struct{}
}

// NewRunner creates a runner for the given harness.
func NewRunner(h *sim.Harness, opts Options) *Runner {
	return &Runner{
		harness:           h,
		opts:              opts,
		control:           ui.NewSimControl(),
		sharedFramebuffer: ui.NewSharedFramebuffer(),
		simDone:           make(chan struct{}),
	}
}

// Run executes the scenario. Blocks until the scenario finishes
// (headless) or the viewer window closes (display).
func (r *Runner) Run() error {
	if err := r.setupOutputs(); err != nil {
		return err
	}
	defer r.harness.Release()

	if !r.opts.Display {
		return r.scenario()
	}

	// Publish each completed frame to the viewer.
	r.harness.Capture().AddFrameHook(func(frame *image.RGBA, index int) {
		r.sharedFramebuffer.Publish(frame)
	})

	go r.simulationLoop()

	w, h := r.harness.Capture().FrameSize()
	ebiten.SetWindowSize(w*2, h*2)
	ebiten.SetWindowTitle("vdpsim")
	viewer := simbridge.NewViewer(r.sharedFramebuffer, r.control)
	err := ebiten.RunGame(viewer)

	r.control.Stop()
	<-r.simDone
	return err
}

// setupOutputs wires trace and frame export. Both are observability only:
// failures are warnings, the simulation continues without the output.
func (r *Runner) setupOutputs() error {
	if r.opts.TracePath != "" {
		if err := r.harness.EnableTrace(r.opts.TracePath); err != nil {
			log.Printf("Warning: %v (trace not available)", err)
		}
	}
	if r.opts.FrameDir != "" {
		exporter, err := sim.NewFrameExporter(r.opts.FrameDir, r.opts.BMP)
		if err != nil {
			log.Printf("Warning: %v (frame export not available)", err)
		} else {
			exporter.Attach(r.harness.Capture())
		}
	}
	return nil
}

// scenario resets the model and executes the configured scripts.
func (r *Runner) scenario() error {
	r.harness.Reset()

	if r.opts.ScriptPath != "" {
		f, err := os.Open(r.opts.ScriptPath)
		if err != nil {
			return fmt.Errorf("open scenario: %w", err)
		}
		ops, err := sim.ParseScript(f)
		f.Close()
		if err != nil {
			return err
		}
		r.harness.Replay(ops)
	}

	if r.opts.LuaPath != "" {
		if err := script.Run(r.harness, r.opts.LuaPath); err != nil {
			return err
		}
	}

	r.harness.StepCycles(r.opts.ExtraCycles)
	return nil
}

// simulationLoop runs on a dedicated goroutine when the display is
// enabled: execute the scenario, then keep the clock running so the
// viewer shows live frames until the window closes.
func (r *Runner) simulationLoop() {
	defer close(r.simDone)

	if err := r.scenario(); err != nil {
		log.Printf("scenario failed: %v", err)
		return
	}

	const chunk = 10000 // full cycles per pause/stop check
	for r.control.CheckPause() {
		r.harness.StepCycles(chunk)
	}
}
