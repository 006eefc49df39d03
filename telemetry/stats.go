package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Bees by state at window end
	Working      int `csv:"working"`
	Defending    int `csv:"defending"`
	Attacking    int `csv:"attacking"`
	Returning    int `csv:"returning"`
	DisabledBees int `csv:"disabled"`

	// Events during window
	Arrivals      int `csv:"arrivals"`
	Completions   int `csv:"completions"`
	Abandoned     int `csv:"abandoned"`
	RoundsDone    int `csv:"rounds_done"`
	AttacksBegan  int `csv:"attacks_began"`
	AttacksEnded  int `csv:"attacks_ended"`
	Intrusions    int `csv:"intrusions"`
	IntruderExits int `csv:"intruder_exits"`
	SpiderVisits  int `csv:"spider_visits"`
	BeeFills      int `csv:"bee_fills"`   // bees reaching capacity
	BeeEmpties    int `csv:"bee_empties"` // bees running dry

	// Nectar (sampled at window end)
	HiveNectar      float64 `csv:"hive_nectar"`
	HiveFraction    float64 `csv:"hive_fraction"`
	SpiderNectar    float64 `csv:"spider_nectar"`
	FlowerNectar    float64 `csv:"flower_nectar"`
	DepletedFlowers int     `csv:"depleted_flowers"`

	BeeNectarMean float64 `csv:"bee_nectar_mean"`
	BeeNectarStd  float64 `csv:"bee_nectar_std"`
	BeeNectarP10  float64 `csv:"bee_nectar_p10"`
	BeeNectarP50  float64 `csv:"bee_nectar_p50"`
	BeeNectarP90  float64 `csv:"bee_nectar_p90"`

	// Cumulative reference-count underflows across all profiles
	Underflows int `csv:"underflows"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeNectarStats calculates mean, population std and percentiles.
func ComputeNectarStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean, std = stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("working", s.Working),
		slog.Int("defending", s.Defending),
		slog.Int("attacking", s.Attacking),
		slog.Int("returning", s.Returning),
		slog.Int("disabled", s.DisabledBees),
		slog.Int("arrivals", s.Arrivals),
		slog.Int("completions", s.Completions),
		slog.Int("abandoned", s.Abandoned),
		slog.Int("rounds_done", s.RoundsDone),
		slog.Int("attacks_began", s.AttacksBegan),
		slog.Int("attacks_ended", s.AttacksEnded),
		slog.Int("intrusions", s.Intrusions),
		slog.Int("intruder_exits", s.IntruderExits),
		slog.Int("spider_visits", s.SpiderVisits),
		slog.Int("bee_fills", s.BeeFills),
		slog.Int("bee_empties", s.BeeEmpties),
		slog.Float64("hive_nectar", s.HiveNectar),
		slog.Float64("hive_fraction", s.HiveFraction),
		slog.Float64("spider_nectar", s.SpiderNectar),
		slog.Float64("flower_nectar", s.FlowerNectar),
		slog.Int("depleted_flowers", s.DepletedFlowers),
		slog.Float64("bee_nectar_mean", s.BeeNectarMean),
		slog.Float64("bee_nectar_std", s.BeeNectarStd),
		slog.Float64("bee_nectar_p10", s.BeeNectarP10),
		slog.Float64("bee_nectar_p50", s.BeeNectarP50),
		slog.Float64("bee_nectar_p90", s.BeeNectarP90),
		slog.Int("underflows", s.Underflows),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
