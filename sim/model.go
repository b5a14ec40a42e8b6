// Package sim is a cycle-stepping test harness for a simulated VDP
// cartridge. It owns simulated time, drives the cartridge's slot-bus pins
// through Z80-style I/O cycles, mirrors the model's internal VRAM bus into
// a shadow memory, and reconstructs video frames from the model's per-pixel
// output stream. The hardware model itself is a black box behind the Model
// interface.
package sim

// Pins is the external pin interface of the cartridge model. The harness
// drives the input pins and reads the output pins; Model.Evaluate settles
// outputs from the current input levels.
//
// Pin groups:
//
//	Clk/Clk14M/SlotClk  clocks (SlotClk is derived, visibility only)
//	SlotResetN          active-low reset
//	SlotIORQn/RDn/WRn   slot-bus strobes (active low)
//	SlotAddr            8-bit I/O port address
//	SlotDataOut         byte the harness drives onto the shared data bus
//	SlotDataIn          byte the model drives onto the shared data bus
//	SlotDataDir         1 = data bus is an input to the harness
//	CPUDriveEn          harness is actively driving the data bus
//	SlotWait            model busy flag; transactions poll this
//	VRAM*               internal memory-bus pins observed by the bridge
//	R/G/B + syncs       per-pixel video output observed by frame capture
type Pins struct {
	// Clocks and reset, driven by the clock engine.
	Clk     uint8
	Clk14M  uint8
	SlotClk uint8

	SlotResetN uint8

	// Slot bus, driven by the bus transaction engine.
	SlotIORQn   uint8
	SlotRDn     uint8
	SlotWRn     uint8
	SlotAddr    uint8
	SlotDataOut uint8
	SlotDataDir uint8
	CPUDriveEn  uint8

	DipSW  uint8
	Button uint8

	// VRAM read response, driven by the shadow-memory bridge.
	VRAMRData   uint32
	VRAMRDataEn uint8

	// Outputs driven by the model.
	SlotWait   uint8
	SlotDataIn uint8

	// Internal VRAM bus, driven by the model.
	VRAMAddr  uint32
	VRAMWData uint32
	VRAMValid uint8
	VRAMWrite uint8
	VRAMMask  uint8

	// Video output, driven by the model.
	R      uint8
	G      uint8
	B      uint8
	HSync  uint8
	VSync  uint8
	DispEn uint8
}

// Model is the black-box hardware model under test. Evaluate must be
// called after any input pin change so the output pins reflect the new
// levels; the clock engine does this once per half-cycle.
type Model interface {
	Pins() *Pins
	Evaluate()
}
