package sim

import (
	"fmt"
	"log"
	"os"
)

// DefaultWaitCap bounds busy-wait polling before a transaction proceeds
// anyway.
const DefaultWaitCap = 1000

// Config holds the harness parameters. Zero values select defaults.
type Config struct {
	HalfCyclePS  uint64    // half-cycle duration in picoseconds
	SlotClockDiv int       // half-cycles per slot-clock half-period
	VRAMWords    int       // shadow-memory size in 32-bit words
	ReadLatency  int       // read-pipeline depth in half-cycles
	SampleDiv    int       // video subsample ratio in half-cycles
	Timing       BusTiming // slot-bus transaction timing
	WaitCap      int       // busy-wait safety cap in full cycles
	ResetCycles  int       // full cycles per reset phase
	Verbose      bool      // per-transaction diagnostic logging
}

// DefaultConfig returns the stock configuration matching the original
// testbench.
func DefaultConfig() Config {
	return Config{
		HalfCyclePS:  DefaultHalfCyclePS,
		SlotClockDiv: DefaultSlotClockDiv,
		VRAMWords:    DefaultVRAMWords,
		ReadLatency:  DefaultReadLatency,
		SampleDiv:    DefaultSampleDiv,
		Timing:       DefaultBusTiming(),
		WaitCap:      DefaultWaitCap,
		ResetCycles:  8,
	}
}

// Harness is one simulation session: the model under test plus the clock
// engine, shadow-memory bridge, frame capture and optional waveform
// tracer, with an explicit lifecycle so multiple sessions can coexist.
type Harness struct {
	cfg     Config
	model   Model
	clock   *Clock
	vram    *VRAM
	capture *Capture

	tracer    *Tracer
	traceFile *os.File
}

// New creates a harness around the given model. The model's pins are set
// to idle levels and the model is evaluated once so its outputs are
// consistent before the first step.
func New(model Model, cfg Config) *Harness {
	def := DefaultConfig()
	if cfg.HalfCyclePS == 0 {
		cfg.HalfCyclePS = def.HalfCyclePS
	}
	if cfg.SlotClockDiv == 0 {
		cfg.SlotClockDiv = def.SlotClockDiv
	}
	if cfg.VRAMWords == 0 {
		cfg.VRAMWords = def.VRAMWords
	}
	if cfg.ReadLatency == 0 {
		cfg.ReadLatency = def.ReadLatency
	}
	if cfg.SampleDiv == 0 {
		cfg.SampleDiv = def.SampleDiv
	}
	if cfg.Timing == (BusTiming{}) {
		cfg.Timing = def.Timing
	}
	if cfg.WaitCap == 0 {
		cfg.WaitCap = def.WaitCap
	}
	if cfg.ResetCycles == 0 {
		cfg.ResetCycles = def.ResetCycles
	}

	h := &Harness{
		cfg:     cfg,
		model:   model,
		clock:   NewClock(model, cfg.HalfCyclePS, cfg.SlotClockDiv),
		vram:    NewVRAM(model, cfg.VRAMWords, cfg.ReadLatency),
		capture: NewCapture(model, cfg.SampleDiv),
	}

	// Memory bridge before video capture: both must reflect the same
	// evaluation, and the bridge feeds read data back to the model.
	h.clock.AddObserver(h.vram)
	h.clock.AddObserver(h.capture)

	pins := model.Pins()
	pins.SlotResetN = 0
	idleBus(pins)
	pins.DipSW = 0
	pins.Button = 0
	model.Evaluate()

	return h
}

// Release closes any open trace output. The harness must not be used
// after Release.
func (h *Harness) Release() {
	h.CloseTrace()
}

// Reset pulses the model's reset: reset asserted for the configured cycle
// count, then deasserted for the same count.
func (h *Harness) Reset() {
	pins := h.model.Pins()

	pins.SlotResetN = 0
	for i := 0; i < h.cfg.ResetCycles; i++ {
		h.clock.StepCycle()
	}

	pins.SlotResetN = 1
	for i := 0; i < h.cfg.ResetCycles; i++ {
		h.clock.StepCycle()
	}
}

// StepCycle advances one full clock period.
func (h *Harness) StepCycle() { h.clock.StepCycle() }

// StepCycles advances n full clock periods.
func (h *Harness) StepCycles(n int) {
	for i := 0; i < n; i++ {
		h.clock.StepCycle()
	}
}

// StepHalf advances one half-cycle at the given clock level.
func (h *Harness) StepHalf(level uint8) { h.clock.StepHalf(level) }

// TimePS returns the current simulated time in picoseconds.
func (h *Harness) TimePS() uint64 { return h.clock.TimePS() }

// Busy reports whether the model's wait flag is asserted.
func (h *Harness) Busy() bool { return h.model.Pins().SlotWait != 0 }

// Model returns the model under test.
func (h *Harness) Model() Model { return h.model }

// Clock returns the clock engine.
func (h *Harness) Clock() *Clock { return h.clock }

// VRAM returns the shadow-memory bridge.
func (h *Harness) VRAM() *VRAM { return h.vram }

// Capture returns the frame-capture observer.
func (h *Harness) Capture() *Capture { return h.capture }

// FrameCount returns the number of completed frames.
func (h *Harness) FrameCount() int { return h.capture.FrameCount() }

// SetVerbose toggles per-transaction diagnostic logging.
func (h *Harness) SetVerbose(v bool) { h.cfg.Verbose = v }

// SetButton sets the model's button input pins (2 bits).
func (h *Harness) SetButton(v uint8) {
	h.model.Pins().Button = v & 0x03
}

// SetDipSW sets the model's DIP switch input pins (2 bits).
func (h *Harness) SetDipSW(v uint8) {
	h.model.Pins().DipSW = v & 0x03
}

// EnableTrace opens a VCD waveform trace at path. Tracing failure affects
// observability only, so callers typically log the error and continue.
func (h *Harness) EnableTrace(path string) error {
	if h.tracer != nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open trace: %w", err)
	}
	tracer, err := NewTracer(f, h.model, h.cfg.HalfCyclePS)
	if err != nil {
		f.Close()
		return fmt.Errorf("start trace: %w", err)
	}
	h.traceFile = f
	h.tracer = tracer
	h.clock.AddObserver(tracer)
	return nil
}

// CloseTrace flushes and closes the waveform trace, if open.
func (h *Harness) CloseTrace() {
	if h.tracer == nil {
		return
	}
	if err := h.tracer.Flush(); err != nil {
		log.Printf("sim: trace flush failed: %v", err)
	}
	if h.traceFile != nil {
		h.traceFile.Close()
		h.traceFile = nil
	}
	h.tracer.disable()
	h.tracer = nil
}

// logf emits a diagnostic line when verbose logging is enabled.
func (h *Harness) logf(format string, args ...any) {
	if h.cfg.Verbose {
		log.Printf(format, args...)
	}
}
