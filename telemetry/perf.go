package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase is one stage of the simulation step.
type Phase uint8

const (
	PhaseMovement Phase = iota
	PhaseNectar
	PhaseZones
	PhaseBehavior
	PhaseTelemetry
	numPhases
)

var phaseNames = [numPhases]string{"movement", "nectar", "zones", "behavior", "telemetry"}

func (p Phase) String() string {
	if p < numPhases {
		return phaseNames[p]
	}
	return "unknown"
}

// tickSample is the timing and work done in one tick.
type tickSample struct {
	total  time.Duration
	phases [numPhases]time.Duration
	work   [numPhases]int
}

// PerfCollector times the step phases over a rolling window of ticks and
// counts the items each phase processed (movers, profiles, bees).
type PerfCollector struct {
	ring []tickSample
	next int
	n    int

	cur        tickSample
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool

	now func() time.Time
}

// NewPerfCollector creates a collector averaging over window ticks.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{ring: make([]tickSample, window), now: time.Now}
}

// StartTick begins timing a new simulation tick.
func (p *PerfCollector) StartTick() {
	p.cur = tickSample{}
	p.tickStart = p.now()
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and starts ph.
func (p *PerfCollector) StartPhase(ph Phase) {
	now := p.now()
	p.closePhase(now)
	p.phase, p.phaseStart, p.inPhase = ph, now, true
}

// AddWork records n items processed by ph in the current tick.
func (p *PerfCollector) AddWork(ph Phase, n int) {
	if ph < numPhases {
		p.cur.work[ph] += n
	}
}

// EndTick closes the tick and stores its sample.
func (p *PerfCollector) EndTick() {
	now := p.now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.tickStart)

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	if p.n < len(p.ring) {
		p.n++
	}
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase && p.phase < numPhases {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
	}
	p.inPhase = false
}

// PhaseStats summarises one phase over the window.
type PhaseStats struct {
	Avg     time.Duration // mean time per tick
	Pct     float64       // share of the mean tick
	Work    float64       // mean items per tick
	PerItem time.Duration // mean time per item, 0 when nothing was counted
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	Ticks          int
	AvgTick        time.Duration
	P95Tick        time.Duration
	MaxTick        time.Duration
	TicksPerSecond float64
	Phases         [numPhases]PhaseStats
}

// Phase returns the summary for ph.
func (s PerfStats) Phase(ph Phase) PhaseStats {
	if ph < numPhases {
		return s.Phases[ph]
	}
	return PhaseStats{}
}

// Stats summarises the samples currently in the window.
func (p *PerfCollector) Stats() PerfStats {
	if p.n == 0 {
		return PerfStats{}
	}

	ticks := make([]float64, p.n)
	var phaseSum [numPhases]time.Duration
	var workSum [numPhases]int
	for i, s := range p.ring[:p.n] {
		ticks[i] = float64(s.total)
		for ph := range numPhases {
			phaseSum[ph] += s.phases[ph]
			workSum[ph] += s.work[ph]
		}
	}
	slices.Sort(ticks)

	avg := stat.Mean(ticks, nil)
	out := PerfStats{
		Ticks:   p.n,
		AvgTick: time.Duration(avg),
		P95Tick: time.Duration(stat.Quantile(0.95, stat.Empirical, ticks, nil)),
		MaxTick: time.Duration(ticks[len(ticks)-1]),
	}
	if avg > 0 {
		out.TicksPerSecond = float64(time.Second) / avg
	}

	for ph := range numPhases {
		ps := PhaseStats{
			Avg:  phaseSum[ph] / time.Duration(p.n),
			Work: float64(workSum[ph]) / float64(p.n),
		}
		if avg > 0 {
			ps.Pct = float64(ps.Avg) * 100 / avg
		}
		if workSum[ph] > 0 {
			ps.PerItem = phaseSum[ph] / time.Duration(workSum[ph])
		}
		out.Phases[ph] = ps
	}
	return out
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("ticks", s.Ticks),
		slog.Int64("avg_tick_us", s.AvgTick.Microseconds()),
		slog.Int64("p95_tick_us", s.P95Tick.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTick.Microseconds()),
		slog.Int("ticks_per_sec", int(s.TicksPerSecond)),
	}
	for ph, ps := range s.Phases {
		if ps.Pct < 0.1 && ps.Work == 0 {
			continue
		}
		attrs = append(attrs, slog.Group(Phase(ph).String(),
			slog.Float64("pct", float64(int(ps.Pct*10))/10),
			slog.Float64("work", ps.Work),
			slog.Int64("ns_per_item", ps.PerItem.Nanoseconds()),
		))
	}
	return slog.GroupValue(attrs...)
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	slog.Info("perf", "perf", s)
}

// PerfStatsCSV is a flat row of perf.csv.
type PerfStatsCSV struct {
	WindowEnd       int32   `csv:"window_end"`
	AvgTickUS       int64   `csv:"avg_tick_us"`
	P95TickUS       int64   `csv:"p95_tick_us"`
	MaxTickUS       int64   `csv:"max_tick_us"`
	TicksPerSec     float64 `csv:"ticks_per_sec"`
	MovementPct     float64 `csv:"movement_pct"`
	NectarPct       float64 `csv:"nectar_pct"`
	ZonesPct        float64 `csv:"zones_pct"`
	BehaviorPct     float64 `csv:"behavior_pct"`
	TelemetryPct    float64 `csv:"telemetry_pct"`
	Movers          float64 `csv:"movers"`
	Profiles        float64 `csv:"profiles"`
	Bees            float64 `csv:"bees"`
	NectarNsPerItem int64   `csv:"nectar_ns_per_profile"`
	BeeNsPerItem    int64   `csv:"behavior_ns_per_bee"`
}

// ToCSV flattens the stats for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:       windowEnd,
		AvgTickUS:       s.AvgTick.Microseconds(),
		P95TickUS:       s.P95Tick.Microseconds(),
		MaxTickUS:       s.MaxTick.Microseconds(),
		TicksPerSec:     s.TicksPerSecond,
		MovementPct:     s.Phases[PhaseMovement].Pct,
		NectarPct:       s.Phases[PhaseNectar].Pct,
		ZonesPct:        s.Phases[PhaseZones].Pct,
		BehaviorPct:     s.Phases[PhaseBehavior].Pct,
		TelemetryPct:    s.Phases[PhaseTelemetry].Pct,
		Movers:          s.Phases[PhaseMovement].Work,
		Profiles:        s.Phases[PhaseNectar].Work,
		Bees:            s.Phases[PhaseBehavior].Work,
		NectarNsPerItem: s.Phases[PhaseNectar].PerItem.Nanoseconds(),
		BeeNsPerItem:    s.Phases[PhaseBehavior].PerItem.Nanoseconds(),
	}
}
