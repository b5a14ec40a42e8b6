package sim

import "log"

// BusTiming holds the phase boundaries of one slot-bus I/O transaction,
// expressed in half-cycle counts. Each count is consumed as one full
// clock period of hold time, matching the original testbench convention.
// The defaults come from ModelSim measurements with generous margin.
type BusTiming struct {
	AddrSetup    int // address/data stable before strobes assert
	StrobeWidth  int // /WR or /RD held low
	RequestDelay int // strobe release to /IORQ release
	RequestWidth int // /IORQ hold after strobe release
	Recovery     int // idle bus after release
}

// DefaultBusTiming returns the stock Z80-style I/O cycle timing.
func DefaultBusTiming() BusTiming {
	return BusTiming{
		AddrSetup:    30,
		StrobeWidth:  40,
		RequestDelay: 4,
		RequestWidth: 8,
		Recovery:     16,
	}
}

// total returns the transaction length in hold counts.
func (t BusTiming) total() int {
	return t.AddrSetup + t.StrobeWidth + t.RequestDelay + t.RequestWidth + t.Recovery
}

// BusStep is one entry of a transaction schedule: at Offset hold counts
// from the start of the transaction, Apply changes pin levels. Sample, if
// set, captures the shared data bus instead; a Sample step at the same
// offset as a pin change runs in list order, so placing it before the
// strobe-release step samples while the strobes are still asserted.
type BusStep struct {
	Offset int
	Name   string
	Apply  func(p *Pins)
	Sample bool
}

// Schedule is the full ordered pin program for one bus transaction. It is
// a flat, auditable description of the timing diagram: setup, strobe and
// release windows are offsets into a single half-cycle timeline rather
// than separate timers.
type Schedule []BusStep

// idleBus returns all strobes released and the data bus undriven.
func idleBus(p *Pins) {
	p.SlotIORQn = 1
	p.SlotWRn = 1
	p.SlotRDn = 1
	p.SlotDataDir = 1
	p.CPUDriveEn = 0
	p.SlotAddr = 0
	p.SlotDataOut = 0
}

// WriteSchedule builds the pin program for an I/O port write.
func (t BusTiming) WriteSchedule(port, data uint8) Schedule {
	o1 := t.AddrSetup
	o2 := o1 + t.StrobeWidth
	o3 := o2 + t.RequestDelay
	o4 := o3 + t.RequestWidth
	return Schedule{
		{Offset: 0, Name: "drive", Apply: func(p *Pins) {
			idleBus(p)
			p.SlotAddr = port
			p.SlotDataOut = data
			p.SlotDataDir = 0
			p.CPUDriveEn = 1
		}},
		{Offset: o1, Name: "assert-strobes", Apply: func(p *Pins) {
			p.SlotWRn = 0
			p.SlotIORQn = 0
		}},
		{Offset: o2, Name: "release-wr", Apply: func(p *Pins) {
			p.SlotWRn = 1
		}},
		{Offset: o3, Name: "release-iorq", Apply: func(p *Pins) {
			p.SlotIORQn = 1
		}},
		{Offset: o4, Name: "release-bus", Apply: func(p *Pins) {
			p.CPUDriveEn = 0
			p.SlotDataDir = 1
		}},
	}
}

// ReadSchedule builds the pin program for an I/O port read. The data bus
// is sampled at the end of the strobe window, before the strobes release.
func (t BusTiming) ReadSchedule(port uint8) Schedule {
	o1 := t.AddrSetup
	o2 := o1 + t.StrobeWidth
	o3 := o2 + t.RequestDelay
	o4 := o3 + t.RequestWidth
	return Schedule{
		{Offset: 0, Name: "drive", Apply: func(p *Pins) {
			idleBus(p)
			p.SlotAddr = port
			p.SlotDataDir = 1
			p.CPUDriveEn = 0
		}},
		{Offset: o1, Name: "assert-strobes", Apply: func(p *Pins) {
			p.SlotRDn = 0
			p.SlotIORQn = 0
		}},
		{Offset: o2, Name: "sample", Sample: true},
		{Offset: o2, Name: "release-rd", Apply: func(p *Pins) {
			p.SlotRDn = 1
		}},
		{Offset: o3, Name: "release-iorq", Apply: func(p *Pins) {
			p.SlotIORQn = 1
		}},
		{Offset: o4, Name: "release-bus", Apply: func(p *Pins) {
			p.SlotAddr = 0
		}},
	}
}

// WritePort performs one I/O port write over the slot bus. The bus is
// left idle on return.
func (h *Harness) WritePort(port, data uint8) {
	h.waitReady()
	h.runSchedule(h.cfg.Timing.WriteSchedule(port, data))
	h.logf("write_io: port=0x%02X data=0x%02X time=%dps", port, data, h.clock.TimePS())
}

// ReadPort performs one I/O port read over the slot bus and returns the
// byte the model drove onto the shared data bus. The bus is left idle on
// return.
func (h *Harness) ReadPort(port uint8) uint8 {
	h.waitReady()
	val := h.runSchedule(h.cfg.Timing.ReadSchedule(port))
	h.logf("read_io: port=0x%02X data=0x%02X time=%dps", port, val, h.clock.TimePS())
	return val
}

// runSchedule executes a schedule against the model: at each hold count it
// applies the due steps in order, then advances one full clock period.
// Returns the sampled data byte, if the schedule contains a sample step.
func (h *Harness) runSchedule(sched Schedule) uint8 {
	pins := h.model.Pins()
	total := h.cfg.Timing.total()
	var sampled uint8

	next := 0
	for offset := 0; offset < total; offset++ {
		for next < len(sched) && sched[next].Offset == offset {
			step := sched[next]
			if step.Sample {
				sampled = pins.SlotDataIn
			} else {
				step.Apply(pins)
			}
			next++
		}
		h.clock.StepCycle()
	}
	return sampled
}

// waitReady advances the clock while the model's wait flag is asserted,
// bounded by the configured safety cap. Exceeding the cap is reported but
// not fatal: aborting mid-protocol would leave the bus inconsistent for
// later transactions, so the transaction proceeds anyway.
func (h *Harness) waitReady() {
	pins := h.model.Pins()
	for i := 0; pins.SlotWait != 0; i++ {
		if i >= h.cfg.WaitCap {
			log.Printf("sim: wait did not clear after %d cycles, proceeding", h.cfg.WaitCap)
			return
		}
		h.clock.StepCycle()
	}
}
