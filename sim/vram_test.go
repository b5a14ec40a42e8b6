package sim

import "testing"

func TestVRAM_WriteMasked(t *testing.T) {
	m := &stubModel{}
	v := NewVRAM(m, 16, 2)

	v.Write(3, 0xAABBCCDD)

	tests := []struct {
		name string
		mask uint8
		data uint32
		want uint32
	}{
		{"low byte only", 0x01, 0x11223344, 0xAABBCC44},
		{"high byte only", 0x08, 0x55667788, 0x55BBCC44},
		{"middle bytes", 0x06, 0x99AABBCC, 0x55AABB44},
		{"all bytes", 0x0F, 0x01020304, 0x01020304},
		{"no bytes", 0x00, 0xFFFFFFFF, 0x01020304},
	}

	for _, tt := range tests {
		v.WriteMasked(3, tt.data, tt.mask)
		if got := v.Read(3); got != tt.want {
			t.Errorf("%s: expected %08X, got %08X", tt.name, tt.want, got)
		}
	}
}

func TestVRAM_OutOfRange(t *testing.T) {
	m := &stubModel{}
	v := NewVRAM(m, 16, 2)

	// Writes past the end are dropped, reads return 0.
	v.Write(100, 0xDEADBEEF)
	if got := v.Read(100); got != 0 {
		t.Errorf("out-of-range read: expected 0, got %08X", got)
	}
}

// request puts a read request on the bus pins and runs one half-cycle of
// the bridge.
func request(v *VRAM, m *stubModel, addr uint32) {
	m.pins.VRAMValid = 1
	m.pins.VRAMWrite = 0
	m.pins.VRAMAddr = addr
	v.HalfCycle(0)
	m.pins.VRAMValid = 0
}

// idle runs one half-cycle of the bridge with no bus activity.
func idle(v *VRAM, m *stubModel) {
	m.pins.VRAMValid = 0
	v.HalfCycle(0)
}

func TestVRAM_ReadLatencyAndFIFO(t *testing.T) {
	m := &stubModel{}
	v := NewVRAM(m, 16, 2)

	const a, b, c = 1, 2, 3
	v.Write(a, 0x11)
	v.Write(b, 0x22)
	v.Write(c, 0x33)

	// Three successive requests, one per half-cycle. With depth 2, each
	// response appears exactly two half-cycles after its request.
	request(v, m, a)
	if m.pins.VRAMRDataEn != 0 {
		t.Fatal("read data valid one half-cycle after request, expected latency 2")
	}
	request(v, m, b)
	if m.pins.VRAMRDataEn != 0 {
		t.Fatal("read data valid one half-cycle after first request")
	}
	request(v, m, c)
	if m.pins.VRAMRDataEn != 1 || m.pins.VRAMRData != 0x11 {
		t.Fatalf("expected response for A (0x11), got en=%d data=%08X",
			m.pins.VRAMRDataEn, m.pins.VRAMRData)
	}
	idle(v, m)
	if m.pins.VRAMRDataEn != 1 || m.pins.VRAMRData != 0x22 {
		t.Fatalf("expected response for B (0x22), got en=%d data=%08X",
			m.pins.VRAMRDataEn, m.pins.VRAMRData)
	}
	idle(v, m)
	if m.pins.VRAMRDataEn != 1 || m.pins.VRAMRData != 0x33 {
		t.Fatalf("expected response for C (0x33), got en=%d data=%08X",
			m.pins.VRAMRDataEn, m.pins.VRAMRData)
	}
	idle(v, m)
	if m.pins.VRAMRDataEn != 0 {
		t.Error("pipeline should be empty after all responses drained")
	}
}

func TestVRAM_WriteAppliesSameHalfCycle(t *testing.T) {
	m := &stubModel{}
	v := NewVRAM(m, 16, 2)

	m.pins.VRAMValid = 1
	m.pins.VRAMWrite = 1
	m.pins.VRAMAddr = 5
	m.pins.VRAMWData = 0xCAFE
	m.pins.VRAMMask = 0x0F
	v.HalfCycle(0)

	if got := v.Read(5); got != 0xCAFE {
		t.Errorf("write not applied immediately: expected 0xCAFE, got %08X", got)
	}
	if v.Pending() != 0 {
		t.Errorf("write must not enter the read pipeline, %d pending", v.Pending())
	}
}

func TestVRAM_PipelineOverflowPanics(t *testing.T) {
	m := &stubModel{}
	v := NewVRAM(m, 16, 2)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on pipeline overflow")
		}
	}()

	// Two requests into the tail without an intervening shift violates
	// the one-request-per-half-cycle bus contract.
	v.enqueue(1)
	v.enqueue(2)
}

func TestVRAM_Pending(t *testing.T) {
	m := &stubModel{}
	v := NewVRAM(m, 16, 4)

	request(v, m, 1)
	request(v, m, 2)
	if got := v.Pending(); got != 2 {
		t.Errorf("expected 2 pending requests, got %d", got)
	}
}
