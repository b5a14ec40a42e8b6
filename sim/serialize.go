package sim

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// Snapshot format constants
const (
	stateVersion    = 1
	stateMagic      = "VDPSimState\x00"
	stateHeaderSize = 18 // magic(12) + version(2) + dataCRC(4)
)

// Fixed serialization sizes for inline components
const (
	clockSerializeSize  = 23 // timePS(8) + halfCycles(8) + divCount(4) + level(1) + slotLevel(1) + lastEdge(1)
	captureFixedSize    = 26 // x,y,maxX,maxY(16) + tick(4) + prevVSync(1) + prevActive(1) + frameCount(4)
	pixelSerializeSize  = 11 // x(4) + y(4) + r,g,b(3)
	vramHeaderSize      = 5  // wordCount(4) + latency(1)
	pipeSlotSize        = 5  // addr(4) + valid(1)
	pixelCountFieldSize = 4
)

// boolByte converts a bool to a uint8 (0 or 1).
func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// SerializeSize returns the size in bytes of a snapshot of the current
// harness state. The pixel accumulator is variable, so this is a method.
func (h *Harness) SerializeSize() int {
	return stateHeaderSize +
		clockSerializeSize +
		vramHeaderSize + len(h.vram.words)*4 + len(h.vram.pipe)*pipeSlotSize +
		captureFixedSize + pixelCountFieldSize + len(h.capture.pixels)*pixelSerializeSize
}

// Serialize creates a snapshot of the harness-owned simulation state:
// clock counters, shadow memory, read pipeline and frame accumulator.
// Model-internal state is not included; snapshots of a live session are
// only meaningful when the model's own state can be reproduced (e.g. a
// snapshot taken right after Reset, or a model that is itself
// serializable).
func (h *Harness) Serialize() ([]byte, error) {
	data := make([]byte, h.SerializeSize())

	copy(data[0:12], stateMagic)
	binary.LittleEndian.PutUint16(data[12:14], stateVersion)

	offset := stateHeaderSize

	// Clock
	c := h.clock
	binary.LittleEndian.PutUint64(data[offset:], c.timePS)
	binary.LittleEndian.PutUint64(data[offset+8:], c.halfCycles)
	binary.LittleEndian.PutUint32(data[offset+16:], uint32(c.divCount))
	data[offset+20] = c.level
	data[offset+21] = c.slotLevel
	data[offset+22] = uint8(c.lastEdge)
	offset += clockSerializeSize

	// Shadow memory and pipeline
	m := h.vram
	binary.LittleEndian.PutUint32(data[offset:], uint32(len(m.words)))
	data[offset+4] = uint8(len(m.pipe))
	offset += vramHeaderSize
	for _, w := range m.words {
		binary.LittleEndian.PutUint32(data[offset:], w)
		offset += 4
	}
	for _, s := range m.pipe {
		binary.LittleEndian.PutUint32(data[offset:], s.addr)
		data[offset+4] = boolByte(s.valid)
		offset += pipeSlotSize
	}

	// Capture
	fc := h.capture
	binary.LittleEndian.PutUint32(data[offset:], uint32(fc.x))
	binary.LittleEndian.PutUint32(data[offset+4:], uint32(fc.y))
	binary.LittleEndian.PutUint32(data[offset+8:], uint32(fc.maxX))
	binary.LittleEndian.PutUint32(data[offset+12:], uint32(fc.maxY))
	binary.LittleEndian.PutUint32(data[offset+16:], uint32(fc.tick))
	data[offset+20] = fc.prevVSync
	data[offset+21] = boolByte(fc.prevActive)
	binary.LittleEndian.PutUint32(data[offset+22:], uint32(fc.frameCount))
	offset += captureFixedSize

	binary.LittleEndian.PutUint32(data[offset:], uint32(len(fc.pixels)))
	offset += pixelCountFieldSize
	for _, px := range fc.pixels {
		binary.LittleEndian.PutUint32(data[offset:], uint32(px.x))
		binary.LittleEndian.PutUint32(data[offset+4:], uint32(px.y))
		data[offset+8] = px.r
		data[offset+9] = px.g
		data[offset+10] = px.b
		offset += pixelSerializeSize
	}

	// CRC over everything after the header.
	crc := crc32.ChecksumIEEE(data[stateHeaderSize:])
	binary.LittleEndian.PutUint32(data[14:18], crc)

	return data, nil
}

// Deserialize restores a snapshot created by Serialize. The snapshot must
// match the harness configuration (shadow-memory size and pipeline
// depth).
func (h *Harness) Deserialize(data []byte) error {
	if len(data) < stateHeaderSize+clockSerializeSize+vramHeaderSize {
		return errors.New("snapshot too short")
	}
	if string(data[0:12]) != stateMagic {
		return errors.New("invalid snapshot magic")
	}
	if binary.LittleEndian.Uint16(data[12:14]) != stateVersion {
		return errors.New("unsupported snapshot version")
	}
	if binary.LittleEndian.Uint32(data[14:18]) != crc32.ChecksumIEEE(data[stateHeaderSize:]) {
		return errors.New("snapshot data is corrupted")
	}

	offset := stateHeaderSize

	c := h.clock
	timePS := binary.LittleEndian.Uint64(data[offset:])
	halfCycles := binary.LittleEndian.Uint64(data[offset+8:])
	divCount := int(binary.LittleEndian.Uint32(data[offset+16:]))
	level := data[offset+20]
	slotLevel := data[offset+21]
	lastEdge := Edge(data[offset+22])
	offset += clockSerializeSize

	wordCount := int(binary.LittleEndian.Uint32(data[offset:]))
	latency := int(data[offset+4])
	offset += vramHeaderSize
	if wordCount != len(h.vram.words) {
		return errors.New("snapshot is for a different shadow-memory size")
	}
	if latency != len(h.vram.pipe) {
		return errors.New("snapshot is for a different pipeline depth")
	}
	if len(data) < offset+wordCount*4+latency*pipeSlotSize+captureFixedSize+pixelCountFieldSize {
		return errors.New("snapshot too short")
	}

	c.timePS = timePS
	c.halfCycles = halfCycles
	c.divCount = divCount
	c.level = level
	c.slotLevel = slotLevel
	c.lastEdge = lastEdge

	m := h.vram
	for i := range m.words {
		m.words[i] = binary.LittleEndian.Uint32(data[offset:])
		offset += 4
	}
	for i := range m.pipe {
		m.pipe[i] = readSlot{
			addr:  binary.LittleEndian.Uint32(data[offset:]),
			valid: data[offset+4] != 0,
		}
		offset += pipeSlotSize
	}

	fc := h.capture
	fc.x = int(binary.LittleEndian.Uint32(data[offset:]))
	fc.y = int(binary.LittleEndian.Uint32(data[offset+4:]))
	fc.maxX = int(binary.LittleEndian.Uint32(data[offset+8:]))
	fc.maxY = int(binary.LittleEndian.Uint32(data[offset+12:]))
	fc.tick = int(binary.LittleEndian.Uint32(data[offset+16:]))
	fc.prevVSync = data[offset+20]
	fc.prevActive = data[offset+21] != 0
	fc.frameCount = int(binary.LittleEndian.Uint32(data[offset+22:]))
	offset += captureFixedSize

	pixelCount := int(binary.LittleEndian.Uint32(data[offset:]))
	offset += pixelCountFieldSize
	if len(data) < offset+pixelCount*pixelSerializeSize {
		return errors.New("snapshot too short")
	}
	fc.pixels = fc.pixels[:0]
	for i := 0; i < pixelCount; i++ {
		fc.pixels = append(fc.pixels, capturedPixel{
			x: int(binary.LittleEndian.Uint32(data[offset:])),
			y: int(binary.LittleEndian.Uint32(data[offset+4:])),
			r: data[offset+8],
			g: data[offset+9],
			b: data[offset+10],
		})
		offset += pixelSerializeSize
	}

	return nil
}
