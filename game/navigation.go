package game

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/beehive/components"
	"github.com/pthm-cable/beehive/nectar"
)

// entityNav drives an entity's Nav component. The movement system does the
// actual stepping.
type entityNav struct {
	g      *Game
	entity ecs.Entity
}

func (n *entityNav) SetDestination(p r3.Vec) {
	if !n.g.world.Alive(n.entity) {
		return
	}
	nav := n.g.navMap.Get(n.entity)
	nav.Destination = p
	nav.Active = true
}

func (n *entityNav) CancelMovement() {
	if !n.g.world.Alive(n.entity) {
		return
	}
	n.g.navMap.Get(n.entity).Active = false
}

// RemainingDistance is zero when no destination is set.
func (n *entityNav) RemainingDistance() float64 {
	if !n.g.world.Alive(n.entity) {
		return 0
	}
	nav := n.g.navMap.Get(n.entity)
	if !nav.Active {
		return 0
	}
	return r3.Norm(r3.Sub(nav.Destination, n.g.posMap.Get(n.entity).Vec()))
}

// HasPath reports whether the entity is still travelling.
func (n *entityNav) HasPath() bool {
	if !n.g.world.Alive(n.entity) {
		return false
	}
	nav := n.g.navMap.Get(n.entity)
	return nav.Active && n.RemainingDistance() > nav.StoppingDistance
}

func (n *entityNav) Position() r3.Vec {
	if !n.g.world.Alive(n.entity) {
		return r3.Vec{}
	}
	return n.g.posMap.Get(n.entity).Vec()
}

// entityTarget exposes a hive or flower entity to agents. Once the entity
// is removed the target keeps its last location and reports no profile.
type entityTarget struct {
	g      *Game
	entity ecs.Entity
	name   string
	last   r3.Vec
}

func newEntityTarget(g *Game, e ecs.Entity, role components.Role, index int) *entityTarget {
	name := role.String()
	if role == components.RoleFlower {
		name = fmt.Sprintf("flower %d", index)
	}
	return &entityTarget{g: g, entity: e, name: name, last: g.posMap.Get(e).Vec()}
}

func (t *entityTarget) Location() r3.Vec {
	if t.g.world.Alive(t.entity) {
		t.last = t.g.posMap.Get(t.entity).Vec()
	}
	return t.last
}

func (t *entityTarget) Profile() *nectar.Profile {
	if !t.g.world.Alive(t.entity) {
		return nil
	}
	return t.g.nectarMap.Get(t.entity).Profile
}

func (t *entityTarget) Alive() bool  { return t.g.world.Alive(t.entity) }
func (t *entityTarget) Name() string { return t.name }
