package sim

import "github.com/user-none/go-chip-z80"

// z80RAMSize is the address space of the scenario CPU (full 64KB).
const z80RAMSize = 0x10000

// Z80Bus implements z80.Bus for CPU-driven scenarios: a flat RAM holding
// the test program, with I/O instructions translated into harness bus
// transactions. Each OUT becomes a full slot-bus write cycle and each IN
// a full read cycle, so a real Z80 core can exercise the model the same
// way the MSX driver code would.
type Z80Bus struct {
	ram [z80RAMSize]byte
	h   *Harness
}

// NewZ80Bus creates a scenario bus backed by the given harness.
func NewZ80Bus(h *Harness) *Z80Bus {
	return &Z80Bus{h: h}
}

// Fetch reads an opcode byte during an M1 cycle. Scenario RAM has no
// M1-specific behavior, so this delegates to Read.
func (b *Z80Bus) Fetch(addr uint16) uint8 {
	return b.Read(addr)
}

// Read reads a byte from scenario RAM.
func (b *Z80Bus) Read(addr uint16) uint8 {
	return b.ram[addr]
}

// Write writes a byte to scenario RAM.
func (b *Z80Bus) Write(addr uint16, val uint8) {
	b.ram[addr] = val
}

// In performs an I/O port read as a slot-bus transaction.
func (b *Z80Bus) In(port uint16) uint8 {
	return b.h.ReadPort(uint8(port))
}

// Out performs an I/O port write as a slot-bus transaction.
func (b *Z80Bus) Out(port uint16, val uint8) {
	b.h.WritePort(uint8(port), val)
}

// CPUDriver runs a Z80 program against the harness.
type CPUDriver struct {
	cpu *z80.CPU
	bus *Z80Bus
}

// NewCPUDriver creates a Z80 scenario driver with the given program
// loaded at address 0. Execution starts at 0 (the Z80 reset vector).
func NewCPUDriver(h *Harness, program []byte) *CPUDriver {
	bus := NewZ80Bus(h)
	copy(bus.ram[:], program)
	return &CPUDriver{
		cpu: z80.New(bus),
		bus: bus,
	}
}

// Run executes instructions until the CPU halts or maxInstructions have
// been executed. Returns the number of instructions executed.
func (d *CPUDriver) Run(maxInstructions int) int {
	n := 0
	for n < maxInstructions && !d.cpu.Halted() {
		d.cpu.Step()
		n++
	}
	return n
}

// CPU returns the underlying Z80 core for register inspection.
func (d *CPUDriver) CPU() *z80.CPU { return d.cpu }

// Bus returns the scenario bus for RAM inspection.
func (d *CPUDriver) Bus() *Z80Bus { return d.bus }
