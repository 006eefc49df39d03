package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/beehive/colony"
	"github.com/pthm-cable/beehive/components"
	"github.com/pthm-cable/beehive/telemetry"
)

// targetName labels a target for the journal.
func targetName(t colony.Target) string {
	switch v := t.(type) {
	case nil:
		return ""
	case *entityTarget:
		return v.Name()
	case *colony.Spider:
		return "spider"
	}
	return "unknown"
}

// beeSignals routes a bee's notifications into the collector, ledger and
// journal.
func (g *Game) beeSignals(h *beeHandle) colony.BeeSignals {
	event := func(typ telemetry.EventType, b *colony.Bee, t colony.Target) {
		g.journal.Record(telemetry.NewAgentEvent(g.tick, typ, h.name, targetName(t), b.Profile().Quantity()))
	}

	return colony.BeeSignals{
		Arrived: func(b *colony.Bee, t colony.Target) {
			h.arrivalNectar = b.Profile().Quantity()
			g.collector.RecordArrival()
			g.ledger.RecordArrival(h.id)
			event(telemetry.EventArrived, b, t)
		},
		Completed: func(b *colony.Bee, t colony.Target) {
			q := b.Profile().Quantity()
			g.collector.RecordCompletion()
			g.ledger.RecordCompletion(h.id, q-h.arrivalNectar)
			h.arrivalNectar = q
			event(telemetry.EventCompleted, b, t)
		},
		Abandoned: func(b *colony.Bee, t colony.Target) {
			g.collector.RecordAbandoned()
			g.ledger.RecordAbandoned(h.id)
			event(telemetry.EventAbandoned, b, t)
		},
		AllComplete: func(b *colony.Bee) {
			g.collector.RecordRoundDone()
			g.ledger.RecordRound(h.id)
			event(telemetry.EventAllComplete, b, nil)
		},
		AttackBegan: func(b *colony.Bee, t colony.Target) {
			g.collector.RecordAttackBegan()
			g.ledger.RecordAttack(h.id)
			event(telemetry.EventAttackBegan, b, t)
		},
		AttackEnded: func(b *colony.Bee, t colony.Target) {
			g.collector.RecordAttackEnded()
			event(telemetry.EventAttackEnded, b, t)
		},
		Full: func(b *colony.Bee) {
			g.collector.RecordBeeFull()
			event(telemetry.EventBeeFull, b, b.Target())
		},
		Depleted: func(b *colony.Bee) {
			g.collector.RecordBeeDepleted()
			event(telemetry.EventBeeDepleted, b, b.Target())
		},
		ObjectivesReceived: func(b *colony.Bee, n int) {
			g.log.Debug("objectives received", "bee", h.id, "count", n)
			g.journal.Record(telemetry.Event{
				Tick:   g.tick,
				Type:   telemetry.EventObjectives,
				Agent:  h.name,
				Amount: b.Profile().Quantity(),
				Detail: fmt.Sprintf("%d objectives", n),
			})
		},
	}
}

// spiderSignals records the spider's hive visits.
func (g *Game) spiderSignals() colony.SpiderSignals {
	return colony.SpiderSignals{
		EnteredHive: func(s *colony.Spider) {
			g.collector.RecordSpiderVisit()
			g.journal.Record(telemetry.NewAgentEvent(g.tick, telemetry.EventSpiderEntered, "spider", g.hive.Name(), s.Profile().Quantity()))
		},
		ExitedHive: func(s *colony.Spider) {
			g.journal.Record(telemetry.NewAgentEvent(g.tick, telemetry.EventSpiderExited, "spider", g.hive.Name(), s.Profile().Quantity()))
		},
		StartBeingAttacked: func(s *colony.Spider) {
			g.log.Debug("spider under attack", "nectar", s.Profile().Quantity())
		},
		EndBeingAttacked: func(s *colony.Spider) {
			g.log.Debug("spider attack over", "nectar", s.Profile().Quantity())
		},
		Full: func(s *colony.Spider) {
			g.log.Info("spider gorged", "nectar", s.Profile().Quantity())
		},
	}
}

// flushTelemetry checks if the stats window should be flushed and raises alerts.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.Sample())
	perfStats := g.perfCollector.Stats()

	// Call stats callback if provided
	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
		g.logIndicators()
	}

	// Write to CSV if output manager is enabled
	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	for _, a := range g.alertDetector.Check(stats) {
		if g.logStats {
			a.LogAlert()
		}
		if g.outputManager != nil {
			if err := g.outputManager.WriteAlert(a); err != nil {
				slog.Error("failed to write alert", "error", err)
			}
		}
		g.journal.Record(telemetry.NewAlertEvent(a))
	}

	if err := g.journal.Flush(); err != nil {
		slog.Error("failed to flush journal", "error", err)
	}
}

// Sample reads the colony state for a stats window.
func (g *Game) Sample() telemetry.Sample {
	var s telemetry.Sample

	for _, h := range g.bees {
		if h.bee == nil || h.bee.Disabled() {
			s.Disabled++
			continue
		}
		switch h.bee.State() {
		case colony.Working:
			s.Working++
		case colony.Defence:
			s.Defending++
		case colony.Attack:
			s.Attacking++
		case colony.ReturnToHive:
			s.Returning++
		}
		s.BeeNectar = append(s.BeeNectar, h.bee.Profile().Quantity())
	}

	if hp := g.hive.Profile(); hp != nil {
		s.HiveNectar = hp.Quantity()
		s.HiveFraction = hp.Fraction()
	}
	if sp := g.Spider(); sp != nil {
		s.SpiderNectar = sp.Profile().Quantity()
	}

	query := g.agentFilter.Query()
	for query.Next() {
		_, agent := query.Get()
		p := g.nectarMap.Get(query.Entity()).Profile
		if p == nil {
			continue
		}
		s.Underflows += p.Underflows()
		if agent.Role == components.RoleFlower {
			s.FlowerNectar += p.Quantity()
			if p.Depleted() {
				s.DepletedFlowers++
			}
		}
	}
	return s
}
