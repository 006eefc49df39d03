package telemetry

import (
	"testing"

	"github.com/pthm-cable/beehive/config"
)

func init() {
	config.MustInit("")
}

func hasAlert(alerts []Alert, typ AlertType) bool {
	for _, a := range alerts {
		if a.Type == typ {
			return true
		}
	}
	return false
}

func TestAlertDetector_HiveLowLatches(t *testing.T) {
	ad := NewAlertDetector(10, config.Cfg().Telemetry.HiveLowFraction)

	fractions := []float64{0.5, 0.2, 0.1, 0.6, 0.25}
	want := []bool{false, true, false, false, true}
	for i, f := range fractions {
		alerts := ad.Check(WindowStats{WindowEndTick: int32(i * 100), HiveFraction: f, HiveNectar: 500})
		if got := hasAlert(alerts, AlertHiveLow); got != want[i] {
			t.Errorf("window %d (fraction %.2f): hive_low=%v, want %v", i, f, got, want[i])
		}
	}
}

func TestAlertDetector_HiveDecline(t *testing.T) {
	ad := NewAlertDetector(10, 0)

	for i := 0; i < 4; i++ {
		alerts := ad.Check(WindowStats{WindowEndTick: int32(i * 100), HiveNectar: 500, HiveFraction: 0.5})
		if hasAlert(alerts, AlertHiveDecline) {
			t.Fatalf("decline raised on a steady hive at window %d", i)
		}
	}

	alerts := ad.Check(WindowStats{WindowEndTick: 400, HiveNectar: 300, HiveFraction: 0.3})
	if !hasAlert(alerts, AlertHiveDecline) {
		t.Error("expected hive_decline when nectar drops to 60% of average")
	}
}

func TestAlertDetector_IntruderRepelled(t *testing.T) {
	ad := NewAlertDetector(10, 0)

	// Intrusion without attacks then exit: nothing to report
	ad.Check(WindowStats{Intrusions: 1})
	if alerts := ad.Check(WindowStats{IntruderExits: 1}); hasAlert(alerts, AlertIntruderRepelled) {
		t.Error("repelled raised without any attack")
	}

	// Attacks spread over windows count toward the next exit
	ad.Check(WindowStats{Intrusions: 1, AttacksBegan: 2})
	ad.Check(WindowStats{AttacksBegan: 1})
	alerts := ad.Check(WindowStats{IntruderExits: 1, SpiderNectar: 42})
	if !hasAlert(alerts, AlertIntruderRepelled) {
		t.Fatal("expected intruder_repelled after attacks")
	}
	for _, a := range alerts {
		if a.Type == AlertIntruderRepelled && a.Description != "Intruder left after 3 attacks; spider holds 42.0" {
			t.Errorf("description = %q", a.Description)
		}
	}
}

func TestAlertDetector_Underflow(t *testing.T) {
	ad := NewAlertDetector(10, 0)

	counts := []int{0, 1, 1, 3}
	want := []bool{false, true, false, true}
	for i, n := range counts {
		alerts := ad.Check(WindowStats{Underflows: n})
		if got := hasAlert(alerts, AlertCounterUnderflow); got != want[i] {
			t.Errorf("window %d underflows=%d: alert=%v, want %v", i, n, got, want[i])
		}
	}
}
