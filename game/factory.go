package game

import (
	"fmt"
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/beehive/colony"
	"github.com/pthm-cable/beehive/components"
	"github.com/pthm-cable/beehive/nectar"
	"github.com/pthm-cable/beehive/systems"
	"github.com/pthm-cable/beehive/telemetry"
)

// beeHandle ties a bee to its entity. bee is nil when it failed to spawn.
type beeHandle struct {
	id     int
	name   string
	entity ecs.Entity
	bee    *colony.Bee

	// Quantity at the last arrival, to attribute completed exchanges
	arrivalNectar float64
}

// spiderHandle ties the spider to its entity and zone edge state.
type spiderHandle struct {
	entity ecs.Entity
	spider *colony.Spider
	route  *routeDriver

	inZone, inCore bool
}

// spawnWorld creates the hive, garden, colony and spider, then sizes the
// spatial grid to cover them.
func (g *Game) spawnWorld() error {
	if err := g.spawnHive(); err != nil {
		return err
	}
	if err := g.spawnGarden(); err != nil {
		return err
	}
	g.spawnColony()
	g.spawnSpider()

	points := []r3.Vec{g.hive.Location()}
	for _, f := range g.flowers {
		points = append(points, f.Location())
	}
	for _, w := range g.cfg.Spider.Route {
		points = append(points, waypointVec(w))
	}
	lo, hi := systems.Bounds(g.cfg.Hive.DetectionRadius, points...)
	g.spatialGrid = systems.NewSpatialGrid(lo, hi, g.cfg.Sim.GridCellSize)
	return nil
}

// newProfile instantiates the named template.
func (g *Game) newProfile(name string) (*nectar.Profile, error) {
	t, ok := g.templates[name]
	if !ok {
		return nil, fmt.Errorf("profile %q not defined", name)
	}
	return nectar.NewProfile(t), nil
}

func (g *Game) spawnHive() error {
	cfg := g.cfg.Hive
	profile, err := g.newProfile(cfg.Profile)
	if err != nil {
		return fmt.Errorf("hive: %w", err)
	}
	pos := components.Position{X: cfg.Position.X, Y: cfg.Position.Y, Z: cfg.Position.Z}
	e := g.staticMapper.NewEntity(&pos, &components.Nectar{Profile: profile}, &components.Agent{Role: components.RoleHive})
	g.hive = newEntityTarget(g, e, components.RoleHive, 0)
	return nil
}

func (g *Game) spawnGarden() error {
	tmpl, ok := g.templates[g.cfg.Garden.Profile]
	if !ok {
		return fmt.Errorf("garden: profile %q not defined", g.cfg.Garden.Profile)
	}

	sites := systems.LayoutGarden(g.cfg.Garden, g.hive.Location(), g.seed)
	for i, site := range sites {
		profile := nectar.NewProfile(tmpl)
		if site.NectarScale != 1 {
			profile.SetQuantity(tmpl.Start * site.NectarScale)
		}
		pos := components.Position{}
		pos.Set(site.Position)
		e := g.staticMapper.NewEntity(&pos, &components.Nectar{Profile: profile}, &components.Agent{Role: components.RoleFlower, Index: i})

		g.flowers = append(g.flowers, newEntityTarget(g, e, components.RoleFlower, i))
	}
	return nil
}

// spawnColony creates the bee groups around the hive. A bee that cannot be
// configured keeps its entity but is disabled.
func (g *Game) spawnColony() {
	total := 0
	for _, grp := range g.cfg.Colony.Groups {
		total += grp.Count
	}
	center := g.hive.Location()

	id := 0
	for _, grp := range g.cfg.Colony.Groups {
		personality, perr := colony.ParsePersonality(grp.Personality)
		for n := 0; n < grp.Count; n++ {
			id++
			angle := 2 * math.Pi * float64(id-1) / float64(total)
			start := r3.Add(center, r3.Vec{
				X: math.Cos(angle) * g.cfg.Colony.SpawnRadius,
				Z: math.Sin(angle) * g.cfg.Colony.SpawnRadius,
			})

			g.ledger.Register(id, grp.Personality, g.tick)
			h := g.spawnBee(id, start)
			g.bees = append(g.bees, h)

			if perr != nil {
				g.disableBee(h, &colony.ConfigurationError{Agent: h.name, Reason: perr.Error()})
				continue
			}
			if h.bee == nil {
				continue
			}
			if err := h.bee.SetPersonality(personality); err != nil {
				g.log.Error("failed to set personality", "bee", id, "error", err)
			}
		}
	}

	for _, h := range g.bees {
		if h.bee == nil {
			continue
		}
		g.monitor.Subscribe(h.bee)
		h.bee.Start()
	}
}

// spawnBee creates one bee entity. On a configuration error the handle is
// returned with a nil bee and the failure is recorded.
func (g *Game) spawnBee(id int, start r3.Vec) *beeHandle {
	cfg := g.cfg.Bee
	h := &beeHandle{id: id, name: fmt.Sprintf("bee %d", id)}

	profile, perr := g.newProfile(cfg.Profile)
	pos := components.Position{}
	pos.Set(start)
	h.entity = g.moverMapper.NewEntity(
		&pos,
		&components.Nav{Speed: cfg.Speed, StoppingDistance: cfg.StoppingDistance},
		&components.Nectar{Profile: profile},
		&components.Agent{Role: components.RoleBee, Index: id},
	)

	bee, err := colony.NewBee(id, colony.Worker, cfg, colony.BeeDeps{
		Nav:        &entityNav{g: g, entity: h.entity},
		Profile:    profile,
		Hive:       g.hive,
		Objectives: colony.ObjectiveFunc(g.liveObjectives),
		Signals:    g.beeSignals(h),
		Logger:     g.log,
	})
	if err != nil {
		if perr != nil {
			err = fmt.Errorf("%w: %v", err, perr)
		}
		g.disableBee(h, err)
		return h
	}
	h.bee = bee
	return h
}

// disableBee records a bee that will not run and stops its entity.
func (g *Game) disableBee(h *beeHandle, err error) {
	g.log.Error("bee disabled", "bee", h.id, "error", err)

	if h.bee != nil {
		g.monitor.Unsubscribe(h.bee)
		h.bee.Retire()
		h.bee = nil
	}
	if g.world.Alive(h.entity) {
		g.nectarMap.Get(h.entity).Profile = nil
		g.navMap.Get(h.entity).Active = false
	}
	g.ledger.RecordDisabled(h.id)
	g.journal.Record(telemetry.Event{
		Tick:   g.tick,
		Type:   telemetry.EventAgentDisabled,
		Agent:  h.name,
		Detail: err.Error(),
	})
}

// spawnSpider creates the scripted intruder at the first route waypoint.
func (g *Game) spawnSpider() {
	cfg := g.cfg.Spider
	if !cfg.Enabled {
		return
	}
	if len(cfg.Route) == 0 {
		g.log.Error("spider disabled", "error", &colony.ConfigurationError{Agent: "spider", Reason: "empty route"})
		return
	}

	profile, perr := g.newProfile(cfg.Profile)
	pos := components.Position{}
	pos.Set(waypointVec(cfg.Route[0]))
	e := g.moverMapper.NewEntity(
		&pos,
		&components.Nav{Speed: cfg.Speed},
		&components.Nectar{Profile: profile},
		&components.Agent{Role: components.RoleSpider},
	)
	nav := &entityNav{g: g, entity: e}

	spider, err := colony.NewSpider(nav, profile, g.hive, g.spiderSignals(), g.log)
	if err != nil {
		if perr != nil {
			err = fmt.Errorf("%w: %v", err, perr)
		}
		g.log.Error("spider disabled", "error", err)
		g.journal.Record(telemetry.Event{Tick: g.tick, Type: telemetry.EventAgentDisabled, Agent: "spider", Detail: err.Error()})
		g.world.RemoveEntity(e)
		return
	}
	g.nectarMap.Get(e).Stall = spider.Stalled

	g.spider = &spiderHandle{
		entity: e,
		spider: spider,
		route:  newRouteDriver(nav, cfg.Route, cfg.Loop),
	}
}

// liveObjectives returns the flowers that still exist, in spawn order.
func (g *Game) liveObjectives() []colony.Target {
	out := make([]colony.Target, 0, len(g.flowers))
	for _, f := range g.flowers {
		if f.Alive() {
			out = append(out, f)
		}
	}
	return out
}
