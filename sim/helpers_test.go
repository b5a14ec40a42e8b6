package sim

// stubModel is a minimal Model for exercising the harness plumbing
// without any cartridge behavior. onEval, if set, runs inside Evaluate
// and can derive output pins from input pins.
type stubModel struct {
	pins   Pins
	evals  int
	onEval func(m *stubModel)
}

func (m *stubModel) Pins() *Pins { return &m.pins }

func (m *stubModel) Evaluate() {
	m.evals++
	if m.onEval != nil {
		m.onEval(m)
	}
}

// recorder is a half-cycle observer that records the timestamps it was
// given.
type recorder struct {
	times []uint64
	tag   string
	order *[]string
}

func (r *recorder) HalfCycle(timePS uint64) {
	r.times = append(r.times, timePS)
	if r.order != nil {
		*r.order = append(*r.order, r.tag)
	}
}

// newTestHarness builds a harness around a stub model with a small shadow
// memory, suitable for plumbing tests.
func newTestHarness(m Model) *Harness {
	return New(m, Config{
		VRAMWords:   256,
		ReadLatency: 2,
	})
}
