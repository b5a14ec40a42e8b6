package sim

// DefaultVRAMWords is the shadow-memory size in 32-bit words (128K words,
// matching the cartridge's SDRAM map).
const DefaultVRAMWords = 1 << 17

// DefaultReadLatency is the default depth of the read pipeline in
// half-cycles. The correct value is defined by whichever hardware model is
// plugged in, so it is a Config parameter rather than a constant.
const DefaultReadLatency = 2

// readSlot is one in-flight read request. Slot 0 is the pipeline head.
type readSlot struct {
	addr  uint32
	valid bool
}

// VRAM is the shadow-memory bridge: a flat word-addressable memory kept
// consistent with the model's internal VRAM bus, plus a fixed-depth read
// pipeline that supplies read responses with constant latency.
//
// Writes observed on the bus are applied immediately, masked per byte
// lane. Reads are enqueued and exit the pipeline exactly depth half-cycles
// later, in FIFO order; the response is presented to the model on the
// VRAMRData/VRAMRDataEn pins.
type VRAM struct {
	model Model
	words []uint32
	pipe  []readSlot
}

// NewVRAM creates a shadow memory of the given word count with the given
// read-pipeline depth.
func NewVRAM(model Model, wordCount, latency int) *VRAM {
	if wordCount <= 0 {
		wordCount = DefaultVRAMWords
	}
	if latency < 1 {
		latency = DefaultReadLatency
	}
	return &VRAM{
		model: model,
		words: make([]uint32, wordCount),
		pipe:  make([]readSlot, latency),
	}
}

// HalfCycle implements HalfCycleObserver. Runs after model evaluation:
// presents and advances the read pipeline, then samples the VRAM bus for
// a new write or read request.
func (m *VRAM) HalfCycle(timePS uint64) {
	pins := m.model.Pins()

	// Head of the pipeline supplies this half-cycle's read response.
	if head := m.pipe[0]; head.valid {
		pins.VRAMRData = m.Read(head.addr)
		pins.VRAMRDataEn = 1
	} else {
		pins.VRAMRDataEn = 0
	}
	copy(m.pipe, m.pipe[1:])
	m.pipe[len(m.pipe)-1] = readSlot{}

	if pins.VRAMValid == 0 {
		return
	}
	if pins.VRAMWrite != 0 {
		m.WriteMasked(pins.VRAMAddr, pins.VRAMWData, pins.VRAMMask)
	} else {
		m.enqueue(pins.VRAMAddr)
	}
}

// enqueue places a read request in the pipeline tail. The bus contract is
// at most one request per half-cycle and the tail is freed every
// half-cycle, so an occupied tail is a protocol violation.
func (m *VRAM) enqueue(addr uint32) {
	tail := len(m.pipe) - 1
	if m.pipe[tail].valid {
		panic("sim: VRAM read pipeline overflow")
	}
	m.pipe[tail] = readSlot{addr: addr, valid: true}
}

// Read returns the word at addr. Out-of-range reads return 0.
func (m *VRAM) Read(addr uint32) uint32 {
	if int(addr) >= len(m.words) {
		return 0
	}
	return m.words[addr]
}

// Write stores a full word at addr. Out-of-range writes are dropped.
func (m *VRAM) Write(addr uint32, data uint32) {
	m.WriteMasked(addr, data, 0x0F)
}

// WriteMasked stores data at addr under a per-byte-lane enable mask
// (bit i enables byte lane i). Out-of-range writes are dropped.
func (m *VRAM) WriteMasked(addr uint32, data uint32, mask uint8) {
	if int(addr) >= len(m.words) {
		return
	}
	cur := m.words[addr]
	for i := 0; i < 4; i++ {
		if mask&(1<<i) != 0 {
			shift := uint(i) * 8
			cur = cur&^(0xFF<<shift) | data&(0xFF<<shift)
		}
	}
	m.words[addr] = cur
}

// Buffer returns the backing word slice for inspection.
func (m *VRAM) Buffer() []uint32 { return m.words }

// Size returns the shadow-memory size in words.
func (m *VRAM) Size() int { return len(m.words) }

// Latency returns the read-pipeline depth in half-cycles.
func (m *VRAM) Latency() int { return len(m.pipe) }

// Pending returns the number of read requests currently in flight.
func (m *VRAM) Pending() int {
	n := 0
	for _, s := range m.pipe {
		if s.valid {
			n++
		}
	}
	return n
}
