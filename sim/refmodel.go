package sim

// RefConfig holds the geometry and timing of the reference model's
// raster and busy behavior.
type RefConfig struct {
	TotalCols  int // clock cycles per scanline
	TotalRows  int // scanlines per frame
	ActiveCols int // visible pixels per scanline
	ActiveRows int // visible scanlines
	VSyncRows  int // rows with VSync asserted at the end of the frame
	WaitCycles int // cycles SlotWait stays asserted after a strobe
}

// DefaultRefConfig returns a SCREEN5-like raster.
func DefaultRefConfig() RefConfig {
	return RefConfig{
		TotalCols:  342,
		TotalRows:  262,
		ActiveCols: 256,
		ActiveRows: 212,
		VSyncRows:  3,
		WaitCycles: 4,
	}
}

// vramOpKind tags the reference model's pending VRAM bus request.
type vramOpKind uint8

const (
	vramOpNone vramOpKind = iota
	vramOpWrite
	vramOpRead
)

// RefModel is a functional stand-in for the compiled RTL cartridge model.
// It decodes the slot-bus I/O protocol (two-byte control sequences on the
// control port, auto-incrementing data port), drives the internal VRAM bus
// pins one request per clock edge, generates a raster sync/RGB waveform,
// and asserts SlotWait briefly after each strobe.
//
// It exists so the harness, its tests and the CLI can run without linking
// a real RTL model; it is not a VDP implementation.
type RefModel struct {
	pins Pins
	cfg  RefConfig

	prevClk uint8
	prevWRn uint8
	prevRDn uint8

	regs        [64]uint8
	ctrlLatch   uint8
	ctrlPending bool

	vramAddr   uint32
	readBuffer uint8

	pendingOp   vramOpKind
	pendingAddr uint32
	pendingData uint8

	waitCount int

	col, row  int
	vsyncFlag bool
}

// NewRefModel creates a reference model with the default raster geometry.
func NewRefModel() *RefModel {
	return NewRefModelWith(DefaultRefConfig())
}

// NewRefModelWith creates a reference model with the given geometry.
func NewRefModelWith(cfg RefConfig) *RefModel {
	m := &RefModel{cfg: cfg}
	m.pins.SlotWRn = 1
	m.pins.SlotRDn = 1
	m.pins.SlotIORQn = 1
	m.prevWRn = 1
	m.prevRDn = 1
	return m
}

// Pins implements Model.
func (m *RefModel) Pins() *Pins { return &m.pins }

// Register returns the current value of internal register n. This is the
// register-mirroring output used by test scenarios.
func (m *RefModel) Register(n int) uint8 {
	return m.regs[n&0x3F]
}

// VRAMAddress returns the current VRAM access address.
func (m *RefModel) VRAMAddress() uint32 { return m.vramAddr }

// Evaluate implements Model: settles outputs from the current pin levels.
// Sequential behavior triggers on the rising clock edge; the VRAM bus
// request pins are held for exactly the high half-cycle.
func (m *RefModel) Evaluate() {
	p := &m.pins

	// Read response from the shadow-memory bridge.
	if p.VRAMRDataEn != 0 {
		m.readBuffer = uint8(p.VRAMRData)
	}

	rising := p.Clk == 1 && m.prevClk == 0
	falling := p.Clk == 0 && m.prevClk == 1
	m.prevClk = p.Clk

	if rising {
		if p.SlotResetN == 0 {
			m.reset()
		} else {
			m.risingEdge()
		}
	}
	if falling {
		// One request per edge: release the VRAM bus after the bridge
		// has seen it on the high half-cycle.
		p.VRAMValid = 0
		p.VRAMWrite = 0
	}

	// Combinational: drive the shared data bus during a read strobe.
	if p.SlotIORQn == 0 && p.SlotRDn == 0 {
		p.SlotDataIn = m.readValue(m.decodePort())
	}

	p.SlotWait = 0
	if m.waitCount > 0 {
		p.SlotWait = 1
	}
}

func (m *RefModel) reset() {
	m.regs = [64]uint8{}
	m.ctrlLatch = 0
	m.ctrlPending = false
	m.vramAddr = 0
	m.readBuffer = 0
	m.pendingOp = vramOpNone
	m.waitCount = 0
	m.col = 0
	m.row = 0
	m.vsyncFlag = false
	m.pins.VRAMValid = 0
	m.pins.SlotWait = 0
}

// risingEdge performs one clock of sequential behavior.
func (m *RefModel) risingEdge() {
	p := &m.pins

	if m.waitCount > 0 {
		m.waitCount--
	}

	// Present any pending VRAM request for this cycle.
	if m.pendingOp != vramOpNone {
		p.VRAMAddr = m.pendingAddr
		p.VRAMValid = 1
		if m.pendingOp == vramOpWrite {
			p.VRAMWrite = 1
			p.VRAMWData = uint32(m.pendingData)
			p.VRAMMask = 0x01
		} else {
			p.VRAMWrite = 0
		}
		m.pendingOp = vramOpNone
	}

	// Strobe edges, sampled synchronously.
	if p.SlotIORQn == 0 && p.SlotWRn == 1 && m.prevWRn == 0 {
		m.ioWrite(m.decodePort(), p.SlotDataOut)
	}
	if p.SlotIORQn == 0 && p.SlotRDn == 1 && m.prevRDn == 0 {
		m.ioReadDone(m.decodePort())
	}
	m.prevWRn = p.SlotWRn
	m.prevRDn = p.SlotRDn

	m.advanceRaster()
}

// decodePort maps the slot address to a port index, or -1 when the
// address is outside the cartridge's I/O window (0x88-0x8B).
func (m *RefModel) decodePort() int {
	if m.pins.SlotAddr&0xFC != 0x88 {
		return -1
	}
	return int(m.pins.SlotAddr & 0x03)
}

// ioWrite handles a completed write strobe.
func (m *RefModel) ioWrite(port int, data uint8) {
	switch port {
	case 0:
		// Data port: VRAM write at the current address, auto-increment.
		m.pendingOp = vramOpWrite
		m.pendingAddr = m.effectiveAddr()
		m.pendingData = data
		m.vramAddr = (m.vramAddr + 1) & 0x3FFF
		m.waitCount = m.cfg.WaitCycles
	case 1:
		m.controlWrite(data)
		m.waitCount = m.cfg.WaitCycles
	}
}

// controlWrite implements the two-byte control-port sequence: first byte
// is latched, second selects register write (10xxxxxx), VRAM write
// address setup (01xxxxxx) or VRAM read address setup (00xxxxxx).
func (m *RefModel) controlWrite(data uint8) {
	if !m.ctrlPending {
		m.ctrlLatch = data
		m.ctrlPending = true
		return
	}
	m.ctrlPending = false

	switch data & 0xC0 {
	case 0x80:
		m.regs[data&0x3F] = m.ctrlLatch
	case 0x40:
		m.vramAddr = uint32(data&0x3F)<<8 | uint32(m.ctrlLatch)
	default:
		m.vramAddr = uint32(data&0x3F)<<8 | uint32(m.ctrlLatch)
		// Read address setup prefetches the first byte.
		m.pendingOp = vramOpRead
		m.pendingAddr = m.effectiveAddr()
		m.vramAddr = (m.vramAddr + 1) & 0x3FFF
	}
}

// effectiveAddr combines register 14 (address bits 16:14) with the
// 14-bit access address.
func (m *RefModel) effectiveAddr() uint32 {
	return uint32(m.regs[14]&0x07)<<14 | m.vramAddr&0x3FFF
}

// ioReadDone handles the completion of a read strobe: the data port
// consumes the prefetch buffer and schedules the next prefetch, the
// control port read clears the status flags.
func (m *RefModel) ioReadDone(port int) {
	switch port {
	case 0:
		m.pendingOp = vramOpRead
		m.pendingAddr = m.effectiveAddr()
		m.vramAddr = (m.vramAddr + 1) & 0x3FFF
		m.waitCount = m.cfg.WaitCycles
	case 1:
		m.vsyncFlag = false
	}
}

// readValue returns the byte driven onto the data bus for a port read.
func (m *RefModel) readValue(port int) uint8 {
	switch port {
	case 0:
		return m.readBuffer
	case 1:
		var status uint8
		if m.vsyncFlag {
			status |= 0x80
		}
		return status
	default:
		return 0xFF
	}
}

// advanceRaster steps the raster counters one pixel clock and drives the
// video output pins.
func (m *RefModel) advanceRaster() {
	p := &m.pins

	m.col++
	if m.col >= m.cfg.TotalCols {
		m.col = 0
		m.row++
		if m.row >= m.cfg.TotalRows {
			m.row = 0
		}
		if m.row == m.cfg.TotalRows-m.cfg.VSyncRows {
			m.vsyncFlag = true
		}
	}

	hActive := m.col < m.cfg.ActiveCols
	vActive := m.row < m.cfg.ActiveRows

	p.HSync = 0
	if hActive {
		p.HSync = 1
	}
	p.DispEn = 0
	if vActive && m.displayEnabled() {
		p.DispEn = 1
	}
	p.VSync = 0
	if m.row >= m.cfg.TotalRows-m.cfg.VSyncRows {
		p.VSync = 1
	}

	if hActive && vActive {
		p.R = uint8(m.col)
		p.G = uint8(m.row)
		p.B = m.regs[7]
	} else {
		p.R = 0
		p.G = 0
		p.B = 0
	}
}

func (m *RefModel) displayEnabled() bool {
	return m.regs[1]&0x40 != 0
}
