package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}

	for _, name := range []string{"bee", "flower", "hive", "spider"} {
		if _, ok := cfg.Profile(name); !ok {
			t.Errorf("default profile %q missing", name)
		}
	}
	if cfg.Bee.TimeAtObjective != 2.0 {
		t.Errorf("bee.time_at_objective = %v, want 2.0", cfg.Bee.TimeAtObjective)
	}
	if cfg.Bee.CrowdingLimit != 2 {
		t.Errorf("bee.crowding_limit = %v, want 2", cfg.Bee.CrowdingLimit)
	}
	if cfg.Derived.WindowTicks != 100 {
		t.Errorf("WindowTicks = %d, want 100 (5s at dt 0.05)", cfg.Derived.WindowTicks)
	}
	if len(cfg.Spider.Route) != 3 || cfg.Spider.Route[1].Wait != 12 {
		t.Errorf("spider route not decoded: %+v", cfg.Spider.Route)
	}
}

func TestLoad_OverlayKeepsUnsetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "colony.yaml")
	overlay := `
bee:
  speed: 9
profiles:
  spider:
    kind: thief
    capacity: 50
    receivers:
      - {from: hub, rate: 5, affects_self: true, affects_peer: true}
`
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Bee.Speed != 9 {
		t.Errorf("bee.speed = %v, want 9", cfg.Bee.Speed)
	}
	if cfg.Bee.WorkTolerance != 0.5 {
		t.Errorf("bee.work_tolerance = %v, want default 0.5", cfg.Bee.WorkTolerance)
	}
	if _, ok := cfg.Profile("flower"); !ok {
		t.Error("overlay dropped default flower profile")
	}
	spider, _ := cfg.Profile("spider")
	if spider.Capacity != 50 {
		t.Errorf("spider capacity = %v, want 50", spider.Capacity)
	}
	if got := spider.Receivers[0].PeerRateMultiplier; got != 1 {
		t.Errorf("unset peer_rate_multiplier = %v, want 1", got)
	}
}

func TestLoad_InvalidProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	overlay := `
profiles:
  broken:
    kind: hub
    capacity: 10
    start: 20
`
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error for start > capacity")
	}
	if !strings.Contains(err.Error(), `"broken"`) {
		t.Errorf("error %q does not name the profile", err)
	}
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("Load written config: %v", err)
	}
	if again.Hive.DetectionRadius != cfg.Hive.DetectionRadius {
		t.Errorf("detection radius = %v, want %v", again.Hive.DetectionRadius, cfg.Hive.DetectionRadius)
	}
	if len(again.Colony.Groups) != len(cfg.Colony.Groups) {
		t.Errorf("groups = %d, want %d", len(again.Colony.Groups), len(cfg.Colony.Groups))
	}
}

func TestLoad_ExplicitZeroPeerRateMultiplier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colony.yaml")
	overlay := `
profiles:
  spider:
    kind: thief
    capacity: 50
    receivers:
      - {from: hub, rate: 5, affects_self: true, affects_peer: true, peer_rate_multiplier: 0}
      - {from: collector, rate: 5, affects_self: true, affects_peer: true}
`
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	spider, _ := cfg.Profile("spider")
	if got := spider.Receivers[0].PeerRateMultiplier; got != 0 {
		t.Errorf("explicit peer_rate_multiplier = %v, want 0", got)
	}
	if got := spider.Receivers[1].PeerRateMultiplier; got != 1 {
		t.Errorf("unset peer_rate_multiplier = %v, want 1", got)
	}
}
