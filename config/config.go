// Package config provides configuration loading and access for the colony simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Sim       SimConfig                `yaml:"sim"`
	Hive      HiveConfig               `yaml:"hive"`
	Garden    GardenConfig             `yaml:"garden"`
	Colony    ColonyConfig             `yaml:"colony"`
	Bee       BeeConfig                `yaml:"bee"`
	Spider    SpiderConfig             `yaml:"spider"`
	Profiles  map[string]ProfileConfig `yaml:"profiles"`
	Indicator IndicatorConfig          `yaml:"indicator"`
	Telemetry TelemetryConfig          `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimConfig holds tick parameters.
type SimConfig struct {
	DT           float64 `yaml:"dt"`
	Seed         int64   `yaml:"seed"`
	GridCellSize float64 `yaml:"grid_cell_size"`
}

// Point is a location in world units. Y is up; the garden lies on the XZ plane.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// HiveConfig places the hive and sizes its two zones.
type HiveConfig struct {
	Position        Point   `yaml:"position"`
	DetectionRadius float64 `yaml:"detection_radius"` // intrusion zone
	CoreRadius      float64 `yaml:"core_radius"`      // spider objective
	Profile         string  `yaml:"profile"`
}

// GardenConfig controls flower placement. Explicit Flowers override generation.
type GardenConfig struct {
	Count       int     `yaml:"count"`
	RingRadius  float64 `yaml:"ring_radius"`
	RadiusNoise float64 `yaml:"radius_noise"` // fraction of ring radius
	NectarNoise float64 `yaml:"nectar_noise"` // fraction of starting nectar
	NoiseScale  float64 `yaml:"noise_scale"`
	Profile     string  `yaml:"profile"`
	Flowers     []Point `yaml:"flowers"`
}

// BeeGroup spawns Count bees with one personality.
type BeeGroup struct {
	Personality string `yaml:"personality"`
	Count       int    `yaml:"count"`
}

// ColonyConfig lists the bee groups spawned at the hive.
type ColonyConfig struct {
	Groups      []BeeGroup `yaml:"groups"`
	SpawnRadius float64    `yaml:"spawn_radius"`
}

// BeeConfig holds per-bee behavior parameters.
type BeeConfig struct {
	Speed              float64 `yaml:"speed"`
	StoppingDistance   float64 `yaml:"stopping_distance"`
	WorkTolerance      float64 `yaml:"work_tolerance"`
	IntruderTolerance  float64 `yaml:"intruder_tolerance"`
	TimeAtObjective    float64 `yaml:"time_at_objective"` // 0 disables the time limit
	MoveDelay          float64 `yaml:"move_delay"`        // arrival checks ignored after a new destination
	CrowdingLimit      int     `yaml:"crowding_limit"`    // 0 disables crowding skip
	ReturnWhenDone     bool    `yaml:"return_when_done"`
	RestartAfterReturn bool    `yaml:"restart_after_return"`
	Profile            string  `yaml:"profile"`
}

// Waypoint is one stop on the scripted spider route.
type Waypoint struct {
	Point `yaml:",inline"`
	Wait  float64 `yaml:"wait"` // seconds to dwell after arriving
}

// SpiderConfig holds the scripted intruder.
type SpiderConfig struct {
	Enabled bool       `yaml:"enabled"`
	Speed   float64    `yaml:"speed"`
	Profile string     `yaml:"profile"`
	Route   []Waypoint `yaml:"route"`
	Loop    bool       `yaml:"loop"`
}

// ReceiverConfig describes one receiver rule.
type ReceiverConfig struct {
	From               string  `yaml:"from"`
	Rate               float64 `yaml:"rate"`
	AffectsSelf        bool    `yaml:"affects_self"`
	AffectsPeer        bool    `yaml:"affects_peer"`
	PeerRateMultiplier float64 `yaml:"peer_rate_multiplier"`
}

// UnmarshalYAML defaults an absent peer_rate_multiplier to 1 so an explicit
// 0 still configures a drain-free rule.
func (r *ReceiverConfig) UnmarshalYAML(n *yaml.Node) error {
	type plain ReceiverConfig
	rc := plain{PeerRateMultiplier: 1}
	if err := n.Decode(&rc); err != nil {
		return err
	}
	*r = ReceiverConfig(rc)
	return nil
}

// SenderConfig describes one sender rule.
type SenderConfig struct {
	To          string  `yaml:"to"`
	Rate        float64 `yaml:"rate"`
	AffectsSelf bool    `yaml:"affects_self"`
}

// ProfileConfig is a named nectar profile template.
type ProfileConfig struct {
	Kind       string           `yaml:"kind"`
	Capacity   float64          `yaml:"capacity"`
	Start      float64          `yaml:"start"`
	LowPercent float64          `yaml:"low_percent"`
	Regenerate bool             `yaml:"regenerate"`
	RegenRate  float64          `yaml:"regen_rate"`
	Decay      bool             `yaml:"decay"`
	DecayRate  float64          `yaml:"decay_rate"`
	Receivers  []ReceiverConfig `yaml:"receivers"`
	Senders    []SenderConfig   `yaml:"senders"`
}

// IndicatorConfig holds the hex colour palette for nectar indicators.
type IndicatorConfig struct {
	Default     string `yaml:"default"`
	DefaultLow  string `yaml:"default_low"`
	Increase    string `yaml:"increase"`
	IncreaseLow string `yaml:"increase_low"`
	Decrease    string `yaml:"decrease"`
	DecreaseLow string `yaml:"decrease_low"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // seconds
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	AlertHistorySize    int     `yaml:"alert_history_size"`
	HiveLowFraction     float64 `yaml:"hive_low_fraction"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	WindowTicks  int32    // Telemetry.StatsWindow in ticks
	ProfileNames []string // sorted profile names
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	cfg.computeDerived()

	return cfg, nil
}

// Profile returns the named profile template.
func (c *Config) Profile(name string) (ProfileConfig, bool) {
	p, ok := c.Profiles[name]
	return p, ok
}

// Validate checks references between sections and basic ranges.
// Missing agent profiles are reported at spawn time instead, so that
// a misconfigured agent is disabled without stopping the simulation.
func (c *Config) Validate() error {
	var errs []error
	if c.Sim.DT <= 0 {
		errs = append(errs, fmt.Errorf("sim.dt must be positive, got %v", c.Sim.DT))
	}
	if c.Hive.CoreRadius > c.Hive.DetectionRadius {
		errs = append(errs, fmt.Errorf("hive.core_radius %v exceeds detection_radius %v",
			c.Hive.CoreRadius, c.Hive.DetectionRadius))
	}
	for name, p := range c.Profiles {
		if p.Capacity <= 0 {
			errs = append(errs, fmt.Errorf("profile %q: capacity must be positive", name))
		}
		if p.Start < 0 || p.Start > p.Capacity {
			errs = append(errs, fmt.Errorf("profile %q: start %v outside [0, %v]", name, p.Start, p.Capacity))
		}
		for i, r := range p.Receivers {
			if r.Rate < 0 || math.IsNaN(r.Rate) {
				errs = append(errs, fmt.Errorf("profile %q: receiver %d has invalid rate", name, i))
			}
			if r.PeerRateMultiplier < 0 || math.IsNaN(r.PeerRateMultiplier) {
				errs = append(errs, fmt.Errorf("profile %q: receiver %d has invalid peer_rate_multiplier", name, i))
			}
		}
		for i, s := range p.Senders {
			if s.Rate < 0 || math.IsNaN(s.Rate) {
				errs = append(errs, fmt.Errorf("profile %q: sender %d has invalid rate", name, i))
			}
		}
	}
	return errors.Join(errs...)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	if c.Telemetry.StatsWindow > 0 {
		c.Derived.WindowTicks = int32(math.Round(c.Telemetry.StatsWindow / c.Sim.DT))
	}
	if c.Derived.WindowTicks < 1 {
		c.Derived.WindowTicks = 1
	}

	for name, p := range c.Profiles {
		if p.LowPercent == 0 {
			p.LowPercent = 30
		}
		c.Profiles[name] = p
	}

	c.Derived.ProfileNames = make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		c.Derived.ProfileNames = append(c.Derived.ProfileNames, name)
	}
	sort.Strings(c.Derived.ProfileNames)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
