package game

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/beehive/colony"
	"github.com/pthm-cable/beehive/telemetry"
)

// ErrRemoved is returned when removing a flower or bee a second time.
var ErrRemoved = errors.New("game: already removed")

// RemoveFlower destroys flower i. Its profile is detached first so open
// flows release only the bee's side; bees holding it as an objective
// skip it on their next check.
func (g *Game) RemoveFlower(i int) error {
	if i < 0 || i >= len(g.flowers) {
		return fmt.Errorf("flower %d: %w", i, colony.ErrInvalidIndex)
	}
	f := g.flowers[i]
	if !f.Alive() {
		return fmt.Errorf("%s: %w", f.Name(), ErrRemoved)
	}

	f.Location() // latch last position
	if p := f.Profile(); p != nil {
		p.Detach()
	}
	g.world.RemoveEntity(f.entity)

	g.log.Info("flower removed", "flower", i)
	g.journal.Record(telemetry.NewAgentEvent(g.tick, telemetry.EventFlowerRemoved, f.Name(), "", 0))
	return nil
}

// RefreshObjectives has every active bee re-query the live flower list.
// Bees whose current flower changed head for the new one.
func (g *Game) RefreshObjectives() {
	for _, h := range g.bees {
		if h.bee != nil && !h.bee.Disabled() {
			h.bee.RefreshObjectives()
		}
	}
}

// RetireBee stops bee id for good: its flows are released and it no longer
// answers intrusions.
func (g *Game) RetireBee(id int) error {
	for _, h := range g.bees {
		if h.id != id {
			continue
		}
		if h.bee == nil || h.bee.Disabled() {
			return fmt.Errorf("%s: %w", h.name, ErrRemoved)
		}
		g.monitor.Unsubscribe(h.bee)
		h.bee.Retire()
		g.ledger.SetFinalState(id, "retired")
		g.log.Info("bee retired", "bee", id)
		return nil
	}
	return fmt.Errorf("bee %d: %w", id, colony.ErrInvalidIndex)
}
