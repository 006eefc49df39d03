package telemetry

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	arrivals      int
	completions   int
	abandoned     int
	roundsDone    int
	attacksBegan  int
	attacksEnded  int
	intrusions    int
	intruderExits int
	spiderVisits  int
	beeFills      int
	beeEmpties    int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec/dt + 0.5)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

func (c *Collector) RecordArrival()      { c.arrivals++ }
func (c *Collector) RecordCompletion()   { c.completions++ }
func (c *Collector) RecordAbandoned()    { c.abandoned++ }
func (c *Collector) RecordRoundDone()    { c.roundsDone++ }
func (c *Collector) RecordAttackBegan()  { c.attacksBegan++ }
func (c *Collector) RecordAttackEnded()  { c.attacksEnded++ }
func (c *Collector) RecordIntrusion()    { c.intrusions++ }
func (c *Collector) RecordIntruderExit() { c.intruderExits++ }
func (c *Collector) RecordSpiderVisit()  { c.spiderVisits++ }
func (c *Collector) RecordBeeFull()      { c.beeFills++ }
func (c *Collector) RecordBeeDepleted()  { c.beeEmpties++ }

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Sample is the colony state read at the end of a window.
type Sample struct {
	Working, Defending, Attacking, Returning, Disabled int

	HiveNectar      float64
	HiveFraction    float64
	SpiderNectar    float64
	FlowerNectar    float64
	DepletedFlowers int
	BeeNectar       []float64
	Underflows      int
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, s Sample) WindowStats {
	mean, std, p10, p50, p90 := ComputeNectarStats(s.BeeNectar)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Working:      s.Working,
		Defending:    s.Defending,
		Attacking:    s.Attacking,
		Returning:    s.Returning,
		DisabledBees: s.Disabled,

		Arrivals:      c.arrivals,
		Completions:   c.completions,
		Abandoned:     c.abandoned,
		RoundsDone:    c.roundsDone,
		AttacksBegan:  c.attacksBegan,
		AttacksEnded:  c.attacksEnded,
		Intrusions:    c.intrusions,
		IntruderExits: c.intruderExits,
		SpiderVisits:  c.spiderVisits,
		BeeFills:      c.beeFills,
		BeeEmpties:    c.beeEmpties,

		HiveNectar:      s.HiveNectar,
		HiveFraction:    s.HiveFraction,
		SpiderNectar:    s.SpiderNectar,
		FlowerNectar:    s.FlowerNectar,
		DepletedFlowers: s.DepletedFlowers,

		BeeNectarMean: mean,
		BeeNectarStd:  std,
		BeeNectarP10:  p10,
		BeeNectarP50:  p50,
		BeeNectarP90:  p90,

		Underflows: s.Underflows,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.arrivals = 0
	c.completions = 0
	c.abandoned = 0
	c.roundsDone = 0
	c.attacksBegan = 0
	c.attacksEnded = 0
	c.intrusions = 0
	c.intruderExits = 0
	c.spiderVisits = 0
	c.beeFills = 0
	c.beeEmpties = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
