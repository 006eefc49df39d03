// Package game wires the colony simulation: it owns the ECS world, spawns
// the hive, garden, bees and spider, and runs the per-tick phases.
package game

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/beehive/colony"
	"github.com/pthm-cable/beehive/components"
	"github.com/pthm-cable/beehive/config"
	"github.com/pthm-cable/beehive/nectar"
	"github.com/pthm-cable/beehive/systems"
	"github.com/pthm-cable/beehive/telemetry"
)

// Options configures a run.
type Options struct {
	Seed           int64   // 0 uses sim.seed from config
	LogStats       bool    // log window stats, perf and alerts
	StatsWindowSec float64 // 0 uses telemetry.stats_window
	OutputDir      string  // CSV output, empty disables
	EventsDB       string  // SQLite event journal, empty disables
	StepsPerUpdate int     // ticks per UpdateHeadless call
	Logger         *slog.Logger
	StatsCallback  func(telemetry.WindowStats)
}

// Game holds the complete simulation state.
type Game struct {
	cfg  *config.Config
	log  *slog.Logger
	seed int64

	world *ecs.World

	// Entity mappers
	staticMapper *ecs.Map3[components.Position, components.Nectar, components.Agent]
	moverMapper  *ecs.Map4[components.Position, components.Nav, components.Nectar, components.Agent]
	agentFilter  *ecs.Filter2[components.Position, components.Agent]

	// Individual component mappers for lookups
	posMap    *ecs.Map1[components.Position]
	navMap    *ecs.Map1[components.Nav]
	nectarMap *ecs.Map1[components.Nectar]

	// Systems
	movement    *systems.MovementSystem
	integrator  *systems.NectarSystem
	spatialGrid *systems.SpatialGrid
	neighbors   []systems.Neighbor

	templates map[string]nectar.Template
	palette   nectar.Palette

	// Colony
	hive    *entityTarget
	flowers []*entityTarget
	bees    []*beeHandle
	spider  *spiderHandle
	monitor *colony.Monitor

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	alertDetector *telemetry.AlertDetector
	ledger        *telemetry.AgentLedger
	outputManager *telemetry.OutputManager
	journal       *telemetry.Journal
	logStats      bool
	statsCallback func(telemetry.WindowStats)

	// State
	tick           int32
	stepsPerUpdate int
}

// NewGameWithOptions builds the world described by cfg. Misconfigured bees
// or a misconfigured spider are disabled and logged; a missing hive or
// flower profile is an error.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Sim.Seed
	}
	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}
	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}

	templates, err := nectar.Templates(cfg)
	if err != nil {
		return nil, fmt.Errorf("building nectar templates: %w", err)
	}

	world := ecs.NewWorld()
	g := &Game{
		cfg:            cfg,
		log:            log,
		seed:           seed,
		world:          world,
		staticMapper:   ecs.NewMap3[components.Position, components.Nectar, components.Agent](world),
		moverMapper:    ecs.NewMap4[components.Position, components.Nav, components.Nectar, components.Agent](world),
		agentFilter:    ecs.NewFilter2[components.Position, components.Agent](world),
		posMap:         ecs.NewMap1[components.Position](world),
		navMap:         ecs.NewMap1[components.Nav](world),
		nectarMap:      ecs.NewMap1[components.Nectar](world),
		movement:       systems.NewMovementSystem(world),
		integrator:     systems.NewNectarSystem(world),
		templates:      templates,
		palette:        nectar.PaletteFromConfig(cfg.Indicator),
		collector:      telemetry.NewCollector(statsWindow, cfg.Sim.DT),
		perfCollector:  telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		alertDetector:  telemetry.NewAlertDetector(cfg.Telemetry.AlertHistorySize, cfg.Telemetry.HiveLowFraction),
		ledger:         telemetry.NewAgentLedger(),
		logStats:       opts.LogStats,
		statsCallback:  opts.StatsCallback,
		stepsPerUpdate: steps,
	}
	g.monitor = colony.NewMonitor(log)

	if g.outputManager, err = telemetry.NewOutputManager(opts.OutputDir); err != nil {
		return nil, err
	}
	if err := g.outputManager.WriteConfig(cfg); err != nil {
		g.outputManager.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}
	if g.journal, err = telemetry.OpenJournal(opts.EventsDB); err != nil {
		g.outputManager.Close()
		return nil, err
	}

	if err := g.spawnWorld(); err != nil {
		g.outputManager.Close()
		g.journal.Close()
		return nil, err
	}

	if err := g.journal.SaveMeta("seed", strconv.FormatInt(seed, 10)); err != nil {
		log.Error("failed to write journal meta", "error", err)
	}
	log.Info("colony ready",
		"flowers", len(g.flowers),
		"bees", len(g.bees),
		"spider", g.spider != nil,
		"seed", seed,
	)
	return g, nil
}

// UpdateHeadless runs StepsPerUpdate simulation ticks.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.simulationStep()
	}
}

// Step runs a single simulation tick.
func (g *Game) Step() {
	g.simulationStep()
}

// RunFor runs ticks until sec simulated seconds have elapsed.
func (g *Game) RunFor(sec float64) {
	n := int(sec/g.cfg.Sim.DT + 0.5)
	for i := 0; i < n; i++ {
		g.simulationStep()
	}
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 { return g.tick }

// SimTime returns the simulated time in seconds.
func (g *Game) SimTime() float64 { return float64(g.tick) * g.cfg.Sim.DT }

// Monitor returns the hive's intrusion monitor.
func (g *Game) Monitor() *colony.Monitor { return g.monitor }

// Ledger returns the per-bee ledger.
func (g *Game) Ledger() *telemetry.AgentLedger { return g.ledger }

// HiveProfile returns the hive's nectar profile.
func (g *Game) HiveProfile() *nectar.Profile { return g.hive.Profile() }

// FlowerCount returns the number of flowers spawned, removed ones included.
func (g *Game) FlowerCount() int { return len(g.flowers) }

// Flower returns flower i as a target, or nil if i is out of range.
func (g *Game) Flower(i int) colony.Target {
	if i < 0 || i >= len(g.flowers) {
		return nil
	}
	return g.flowers[i]
}

// Bees returns the bees that were spawned successfully, in id order.
func (g *Game) Bees() []*colony.Bee {
	out := make([]*colony.Bee, 0, len(g.bees))
	for _, h := range g.bees {
		if h.bee != nil {
			out = append(out, h.bee)
		}
	}
	return out
}

// Bee returns the bee with the given id, or nil.
func (g *Game) Bee(id int) *colony.Bee {
	for _, h := range g.bees {
		if h.id == id {
			return h.bee
		}
	}
	return nil
}

// Spider returns the intruder, or nil if disabled.
func (g *Game) Spider() *colony.Spider {
	if g.spider == nil {
		return nil
	}
	return g.spider.spider
}

// Unload writes the agent ledger and closes all outputs.
func (g *Game) Unload() error {
	for _, h := range g.bees {
		if h.bee != nil && !h.bee.Disabled() {
			g.ledger.SetFinalState(h.id, h.bee.State().String())
		}
	}

	var errs []error
	if err := g.outputManager.WriteAgents(g.ledger.Records()); err != nil {
		errs = append(errs, err)
	}
	if err := g.outputManager.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := g.journal.SaveMeta("final_tick", strconv.Itoa(int(g.tick))); err != nil {
		errs = append(errs, err)
	}
	if err := g.journal.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
