package sim

// Default clock parameters. The main clock targets the VDP internal clock
// (85.90908 MHz, one full period 11640 ps). The slot clock is a pure
// integer divider of the main clock: 12 half-cycles per slot half-period,
// about 3.58 MHz, and never drives model logic.
const (
	DefaultHalfCyclePS  = 5820
	DefaultSlotClockDiv = 12
)

// Edge describes the clock transition performed by the most recent
// half-cycle step.
type Edge int8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
)

// HalfCycleObserver is notified once per half-cycle, after the model has
// been evaluated and before simulated time advances. timePS is the
// timestamp of the half-cycle just evaluated.
type HalfCycleObserver interface {
	HalfCycle(timePS uint64)
}

// Clock owns simulated time and is the single driver of clock progression.
// Every half-cycle it applies the new clock level, toggles the derived
// slot clock at the configured divisor, evaluates the model exactly once,
// fans out to the registered observers in registration order, and then
// advances time by one half-cycle duration.
type Clock struct {
	model Model

	halfCyclePS uint64
	slotDiv     int

	timePS     uint64
	halfCycles uint64
	divCount   int

	level     uint8
	slotLevel uint8
	lastEdge  Edge

	observers []HalfCycleObserver
}

// NewClock creates a clock for the given model. halfCyclePS is the
// duration of one half-cycle in picoseconds; slotDiv is the number of
// half-cycles per slot-clock half-period.
func NewClock(model Model, halfCyclePS uint64, slotDiv int) *Clock {
	if halfCyclePS == 0 {
		halfCyclePS = DefaultHalfCyclePS
	}
	if slotDiv <= 0 {
		slotDiv = DefaultSlotClockDiv
	}
	c := &Clock{
		model:       model,
		halfCyclePS: halfCyclePS,
		slotDiv:     slotDiv,
	}
	pins := model.Pins()
	pins.Clk = 0
	pins.Clk14M = 0
	pins.SlotClk = 0
	return c
}

// AddObserver registers an observer invoked once per half-cycle. Observers
// run in registration order; the harness registers the shadow-memory
// bridge before frame capture so both see the same evaluation.
func (c *Clock) AddObserver(o HalfCycleObserver) {
	c.observers = append(c.observers, o)
}

// StepHalf advances the simulation by one half-cycle at the given clock
// level. The model is evaluated even if level matches the current clock
// state: observers must see outputs computed from the current pin levels,
// not the levels from the previous half-cycle.
func (c *Clock) StepHalf(level uint8) {
	if level != 0 {
		level = 1
	}
	switch {
	case level == 1 && c.level == 0:
		c.lastEdge = EdgeRising
	case level == 0 && c.level == 1:
		c.lastEdge = EdgeFalling
	}
	c.level = level

	pins := c.model.Pins()
	pins.Clk = level
	pins.Clk14M = level

	c.divCount++
	if c.divCount >= c.slotDiv {
		c.divCount = 0
		c.slotLevel ^= 1
		pins.SlotClk = c.slotLevel
	}

	c.model.Evaluate()
	for _, o := range c.observers {
		o.HalfCycle(c.timePS)
	}

	c.halfCycles++
	c.timePS += c.halfCyclePS
}

// StepCycle advances one full clock period: a high half-cycle followed by
// a low half-cycle.
func (c *Clock) StepCycle() {
	c.StepHalf(1)
	c.StepHalf(0)
}

// TimePS returns the current simulated time in picoseconds.
func (c *Clock) TimePS() uint64 { return c.timePS }

// HalfCycles returns the total number of half-cycle steps performed.
func (c *Clock) HalfCycles() uint64 { return c.halfCycles }

// Level returns the current primary clock level.
func (c *Clock) Level() uint8 { return c.level }

// SlotLevel returns the current derived slot-clock level.
func (c *Clock) SlotLevel() uint8 { return c.slotLevel }

// LastEdge returns the transition performed by the most recent step.
func (c *Clock) LastEdge() Edge { return c.lastEdge }
