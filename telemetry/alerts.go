package telemetry

import (
	"fmt"
	"log/slog"
)

// AlertType identifies the type of alert.
type AlertType string

const (
	AlertHiveLow          AlertType = "hive_low"
	AlertHiveDecline      AlertType = "hive_decline"
	AlertIntruderRepelled AlertType = "intruder_repelled"
	AlertCounterUnderflow AlertType = "counter_underflow"
)

// Alert represents an automatically raised colony alert.
type Alert struct {
	Type        AlertType `csv:"type"`
	Tick        int32     `csv:"tick"`
	Description string    `csv:"description"`
}

// LogAlert logs the alert using slog.
func (a Alert) LogAlert() {
	slog.Warn("alert",
		"type", string(a.Type),
		"tick", a.Tick,
		"description", a.Description,
	)
}

// AlertDetector watches window stats for colony conditions worth flagging.
type AlertDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	lowFraction float64

	// State tracking
	hiveLow               bool // latched until the hive recovers
	attacksSinceIntrusion int
	lastUnderflows        int
}

// NewAlertDetector creates a detector with the given history size.
// lowFraction is the hive fill fraction under which hive_low is raised.
func NewAlertDetector(historySize int, lowFraction float64) *AlertDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &AlertDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
		lowFraction: lowFraction,
	}
}

// Check analyzes the latest stats and returns any triggered alerts.
func (ad *AlertDetector) Check(stats WindowStats) []Alert {
	var alerts []Alert

	if a := ad.checkHiveLow(stats); a != nil {
		alerts = append(alerts, *a)
	}
	if a := ad.checkHiveDecline(stats); a != nil {
		alerts = append(alerts, *a)
	}
	if a := ad.checkIntruderRepelled(stats); a != nil {
		alerts = append(alerts, *a)
	}
	if a := ad.checkUnderflow(stats); a != nil {
		alerts = append(alerts, *a)
	}

	ad.addToHistory(stats)
	return alerts
}

func (ad *AlertDetector) addToHistory(stats WindowStats) {
	ad.history[ad.historyIdx] = stats
	ad.historyIdx = (ad.historyIdx + 1) % ad.historySize
	if ad.historyIdx == 0 {
		ad.historyFull = true
	}
}

func (ad *AlertDetector) getHistory() []WindowStats {
	if ad.historyFull {
		return ad.history
	}
	return ad.history[:ad.historyIdx]
}

// checkHiveLow fires once when the hive drops under the low fraction and
// re-arms when it climbs back above.
func (ad *AlertDetector) checkHiveLow(stats WindowStats) *Alert {
	if stats.HiveFraction >= ad.lowFraction {
		ad.hiveLow = false
		return nil
	}
	if ad.hiveLow {
		return nil
	}
	ad.hiveLow = true
	return &Alert{
		Type:        AlertHiveLow,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Hive at %.0f%% (threshold %.0f%%)", stats.HiveFraction*100, ad.lowFraction*100),
	}
}

// checkHiveDecline fires when hive nectar falls below 70% of its rolling average.
func (ad *AlertDetector) checkHiveDecline(stats WindowStats) *Alert {
	history := ad.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.HiveNectar
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.HiveNectar < avg*0.7 {
		return &Alert{
			Type:        AlertHiveDecline,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Hive nectar %.1f is %.0f%% of average (%.1f)", stats.HiveNectar, stats.HiveNectar/avg*100, avg),
		}
	}
	return nil
}

// checkIntruderRepelled fires when an intruder leaves after being attacked.
func (ad *AlertDetector) checkIntruderRepelled(stats WindowStats) *Alert {
	if stats.Intrusions > 0 {
		ad.attacksSinceIntrusion = 0
	}
	ad.attacksSinceIntrusion += stats.AttacksBegan

	if stats.IntruderExits == 0 || ad.attacksSinceIntrusion == 0 {
		return nil
	}
	attacks := ad.attacksSinceIntrusion
	ad.attacksSinceIntrusion = 0
	return &Alert{
		Type:        AlertIntruderRepelled,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Intruder left after %d attacks; spider holds %.1f", attacks, stats.SpiderNectar),
	}
}

// checkUnderflow fires whenever the cumulative underflow count grows.
func (ad *AlertDetector) checkUnderflow(stats WindowStats) *Alert {
	if stats.Underflows <= ad.lastUnderflows {
		return nil
	}
	delta := stats.Underflows - ad.lastUnderflows
	ad.lastUnderflows = stats.Underflows
	return &Alert{
		Type:        AlertCounterUnderflow,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d reference count underflows absorbed (total %d)", delta, stats.Underflows),
	}
}
