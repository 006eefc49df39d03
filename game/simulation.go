package game

import (
	"github.com/pthm-cable/beehive/components"
	"github.com/pthm-cable/beehive/telemetry"
)

// simulationStep runs one tick: movement, then nectar integration, then
// zone detection, then bee decisions, then telemetry.
func (g *Game) simulationStep() {
	dt := g.cfg.Sim.DT
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseMovement)
	if g.spider != nil {
		g.spider.route.Update(dt)
	}
	g.perfCollector.AddWork(telemetry.PhaseMovement, g.movement.Update(dt))

	g.perfCollector.StartPhase(telemetry.PhaseNectar)
	g.perfCollector.AddWork(telemetry.PhaseNectar, g.integrator.Update(dt))

	g.perfCollector.StartPhase(telemetry.PhaseZones)
	g.perfCollector.AddWork(telemetry.PhaseZones, g.updateSpatialGrid())
	g.updateZones()

	g.perfCollector.StartPhase(telemetry.PhaseBehavior)
	g.perfCollector.AddWork(telemetry.PhaseBehavior, g.updateBees(dt))

	g.tick++

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.perfCollector.EndTick()
}

// updateSpatialGrid rebuilds the intruder index and returns how many
// entities it holds.
func (g *Game) updateSpatialGrid() int {
	g.spatialGrid.Clear()

	n := 0
	query := g.agentFilter.Query()
	for query.Next() {
		pos, agent := query.Get()
		if agent.Role == components.RoleSpider {
			g.spatialGrid.Insert(query.Entity(), pos.Vec())
			n++
		}
	}
	return n
}

// updateZones fires the hive's zone edges for the spider. Edges are applied
// core exit first and core entry last, so the monitor never sees the
// spider at its objective while crossing the outer zone.
func (g *Game) updateZones() {
	sp := g.spider
	if sp == nil {
		return
	}

	hive := g.hive.Location()
	detect := g.cfg.Hive.DetectionRadius
	core := g.cfg.Hive.CoreRadius

	inZone, inCore := false, false
	g.neighbors = g.spatialGrid.QueryRadiusInto(g.neighbors[:0], hive, detect, g.hive.entity, g.posMap)
	for _, n := range g.neighbors {
		if n.E != sp.entity {
			continue
		}
		inZone = true
		inCore = n.DistSq <= core*core
	}

	if sp.inCore && !inCore {
		sp.spider.ExitHive()
	}
	if !sp.inZone && inZone && g.monitor.Enter(sp.spider) {
		g.collector.RecordIntrusion()
		g.journal.Record(telemetry.NewAgentEvent(g.tick, telemetry.EventIntruderEntered, "spider", g.hive.Name(), 0))
	}
	if sp.inZone && !inZone && g.monitor.Exit(sp.spider) {
		g.collector.RecordIntruderExit()
		g.journal.Record(telemetry.NewAgentEvent(g.tick, telemetry.EventIntruderExited, "spider", g.hive.Name(), 0))
	}
	if !sp.inCore && inCore {
		sp.spider.EnterHive()
	}
	sp.inZone, sp.inCore = inZone, inCore
}

// updateBees runs each bee's decisions and tracks its nectar peak. Returns
// the number of bees updated.
func (g *Game) updateBees(dt float64) int {
	n := 0
	for _, h := range g.bees {
		if h.bee == nil || h.bee.Disabled() {
			continue
		}
		h.bee.Update(dt)
		g.ledger.UpdateNectar(h.id, h.bee.Profile().Quantity())
		n++
	}
	return n
}
