package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/beehive/config"
)

func TestOutputManager_Disabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("expected nil manager for empty dir, got %v, %v", om, err)
	}
	// Methods on a nil manager are no-ops
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManager_WritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for i := 1; i <= 3; i++ {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: int32(i * 100), Working: i}); err != nil {
			t.Fatalf("WriteTelemetry: %v", err)
		}
	}
	if err := om.WritePerf(PerfStats{}, 100); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.WriteAlert(Alert{Type: AlertHiveLow, Tick: 300, Description: "low"}); err != nil {
		t.Fatalf("WriteAlert: %v", err)
	}
	if err := om.WriteAgents([]AgentRecord{{ID: 1, Personality: "worker", Rounds: 2}}); err != nil {
		t.Fatalf("WriteAgents: %v", err)
	}
	if err := om.WriteConfig(config.Cfg()); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "window_end,sim_time,working") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if strings.Count(string(data), "window_end") != 1 {
		t.Error("header written more than once")
	}

	alerts, _ := os.ReadFile(filepath.Join(dir, "alerts.csv"))
	if !strings.Contains(string(alerts), "hive_low,300,low") {
		t.Errorf("alerts.csv = %q", alerts)
	}

	agents, _ := os.ReadFile(filepath.Join(dir, "agents.csv"))
	if !strings.HasPrefix(string(agents), "id,personality,spawn_tick") {
		t.Errorf("agents.csv = %q", agents)
	}

	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("written config does not load: %v", err)
	}
}

func TestAgentLedger(t *testing.T) {
	l := NewAgentLedger()
	l.Register(2, "attacker", 0)
	l.Register(1, "worker", 0)

	l.RecordArrival(1)
	l.RecordCompletion(1, 40)
	l.RecordCompletion(1, -40)
	l.RecordRound(1)
	l.UpdateNectar(1, 40)
	l.UpdateNectar(1, 10)
	l.RecordAttack(2)
	l.RecordArrival(99) // unknown ids are ignored
	l.SetFinalState(1, "working")

	recs := l.Records()
	if len(recs) != 2 || recs[0].ID != 1 || recs[1].ID != 2 {
		t.Fatalf("records not ordered by id: %+v", recs)
	}
	w := recs[0]
	if w.Arrivals != 1 || w.Completions != 2 || w.Collected != 40 || w.Delivered != 40 || w.Rounds != 1 {
		t.Errorf("worker record = %+v", w)
	}
	if w.PeakNectar != 40 || w.FinalState != "working" {
		t.Errorf("peak/final = %v/%q", w.PeakNectar, w.FinalState)
	}
	if recs[1].Attacks != 1 {
		t.Errorf("attacker attacks = %d", recs[1].Attacks)
	}
}

func TestJournal_RoundTrip(t *testing.T) {
	if j, err := OpenJournal(""); j != nil || err != nil {
		t.Fatalf("expected nil journal for empty path, got %v, %v", j, err)
	}

	path := filepath.Join(t.TempDir(), "events.db")
	j, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}

	j.Record(NewAgentEvent(1, EventArrived, "bee 1", "flower 0", 0))
	j.Record(NewAgentEvent(5, EventCompleted, "bee 1", "flower 0", 40))
	j.Record(NewAlertEvent(Alert{Type: AlertHiveLow, Tick: 9, Description: "low"}))
	if j.Pending() != 3 {
		t.Fatalf("pending = %d, want 3", j.Pending())
	}
	if err := j.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if j.Pending() != 0 {
		t.Error("buffer not cleared after flush")
	}
	if err := j.SaveMeta("seed", "42"); err != nil {
		t.Fatalf("SaveMeta: %v", err)
	}

	events, err := j.RecentEvents(2)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(events) != 2 || events[0].Type != EventAlert || events[1].Amount != 40 {
		t.Errorf("recent events = %+v", events)
	}
	if n, err := j.CountByType(EventArrived); err != nil || n != 1 {
		t.Errorf("CountByType = %d, %v", n, err)
	}

	// Buffered events are written on close
	j.Record(NewAgentEvent(10, EventArrived, "bee 2", "flower 1", 0))
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	j, err = OpenJournal(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j.Close()
	if n, _ := j.CountByType(EventArrived); n != 2 {
		t.Errorf("arrivals after reopen = %d, want 2", n)
	}
	if v, err := j.GetMeta("seed"); err != nil || v != "42" {
		t.Errorf("GetMeta = %q, %v", v, err)
	}
}
