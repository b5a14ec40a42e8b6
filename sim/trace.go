package sim

import (
	"bufio"
	"fmt"
	"io"
)

// vcdSignal describes one traced pin: its declared name, bit width, and a
// getter reading the current value from the pin struct.
type vcdSignal struct {
	name  string
	width int
	get   func(p *Pins) uint32
}

// traceSignals is the fixed set of pins recorded in the waveform, in
// declaration order.
var traceSignals = []vcdSignal{
	{"clk", 1, func(p *Pins) uint32 { return uint32(p.Clk) }},
	{"slot_clk", 1, func(p *Pins) uint32 { return uint32(p.SlotClk) }},
	{"slot_reset_n", 1, func(p *Pins) uint32 { return uint32(p.SlotResetN) }},
	{"slot_iorq_n", 1, func(p *Pins) uint32 { return uint32(p.SlotIORQn) }},
	{"slot_rd_n", 1, func(p *Pins) uint32 { return uint32(p.SlotRDn) }},
	{"slot_wr_n", 1, func(p *Pins) uint32 { return uint32(p.SlotWRn) }},
	{"slot_a", 8, func(p *Pins) uint32 { return uint32(p.SlotAddr) }},
	{"slot_data_out", 8, func(p *Pins) uint32 { return uint32(p.SlotDataOut) }},
	{"slot_data_in", 8, func(p *Pins) uint32 { return uint32(p.SlotDataIn) }},
	{"cpu_drive_en", 1, func(p *Pins) uint32 { return uint32(p.CPUDriveEn) }},
	{"slot_wait", 1, func(p *Pins) uint32 { return uint32(p.SlotWait) }},
	{"vram_addr", 18, func(p *Pins) uint32 { return p.VRAMAddr }},
	{"vram_wdata", 32, func(p *Pins) uint32 { return p.VRAMWData }},
	{"vram_valid", 1, func(p *Pins) uint32 { return uint32(p.VRAMValid) }},
	{"vram_write", 1, func(p *Pins) uint32 { return uint32(p.VRAMWrite) }},
	{"vram_rdata", 32, func(p *Pins) uint32 { return p.VRAMRData }},
	{"vram_rdata_en", 1, func(p *Pins) uint32 { return uint32(p.VRAMRDataEn) }},
	{"display_r", 8, func(p *Pins) uint32 { return uint32(p.R) }},
	{"display_g", 8, func(p *Pins) uint32 { return uint32(p.G) }},
	{"display_b", 8, func(p *Pins) uint32 { return uint32(p.B) }},
	{"hsync", 1, func(p *Pins) uint32 { return uint32(p.HSync) }},
	{"vsync", 1, func(p *Pins) uint32 { return uint32(p.VSync) }},
	{"display_en", 1, func(p *Pins) uint32 { return uint32(p.DispEn) }},
}

// Tracer writes a VCD waveform of the model's pins, one dump per
// half-cycle timestamp. Timestamps are deduplicated: at most one dump per
// simulated time point.
type Tracer struct {
	model   Model
	w       *bufio.Writer
	last    []uint32
	lastDo  uint64
	dumped  bool
	enabled bool
	err     error
}

// NewTracer writes a VCD header to w and returns a tracer that can be
// registered as a half-cycle observer.
func NewTracer(w io.Writer, model Model, halfCyclePS uint64) (*Tracer, error) {
	t := &Tracer{
		model:   model,
		w:       bufio.NewWriter(w),
		last:    make([]uint32, len(traceSignals)),
		enabled: true,
	}

	fmt.Fprintf(t.w, "$timescale 1ps $end\n")
	fmt.Fprintf(t.w, "$comment half_cycle_ps=%d $end\n", halfCyclePS)
	fmt.Fprintf(t.w, "$scope module harness $end\n")
	for i, sig := range traceSignals {
		fmt.Fprintf(t.w, "$var wire %d %s %s $end\n", sig.width, idCode(i), sig.name)
	}
	fmt.Fprintf(t.w, "$upscope $end\n$enddefinitions $end\n")
	if err := t.w.Flush(); err != nil {
		return nil, err
	}
	return t, nil
}

// idCode returns the VCD identifier code for signal index i.
func idCode(i int) string {
	const first = '!' // printable VCD id range starts at '!'
	if i < 94 {
		return string(rune(first + i))
	}
	return string(rune(first+i/94-1)) + string(rune(first+i%94))
}

// HalfCycle implements HalfCycleObserver: dumps changed signal values at
// the current timestamp.
func (t *Tracer) HalfCycle(timePS uint64) {
	if !t.enabled || t.err != nil {
		return
	}
	if t.dumped && timePS == t.lastDo {
		return
	}

	pins := t.model.Pins()
	wroteTime := false
	for i, sig := range traceSignals {
		val := sig.get(pins)
		if t.dumped && val == t.last[i] {
			continue
		}
		if !wroteTime {
			fmt.Fprintf(t.w, "#%d\n", timePS)
			wroteTime = true
		}
		if sig.width == 1 {
			fmt.Fprintf(t.w, "%d%s\n", val&1, idCode(i))
		} else {
			fmt.Fprintf(t.w, "b%b %s\n", val, idCode(i))
		}
		t.last[i] = val
	}

	t.lastDo = timePS
	t.dumped = true
}

// Flush writes any buffered output.
func (t *Tracer) Flush() error {
	if t.err != nil {
		return t.err
	}
	return t.w.Flush()
}

// disable stops the tracer without unregistering it from the clock.
func (t *Tracer) disable() { t.enabled = false }
