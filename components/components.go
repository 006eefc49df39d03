// Package components defines ECS components for the colony simulation.
package components

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/beehive/nectar"
)

// Position represents an entity's world position. Y is up.
type Position struct {
	X, Y, Z float64
}

// Vec returns the position as a vector.
func (p Position) Vec() r3.Vec { return r3.Vec{X: p.X, Y: p.Y, Z: p.Z} }

// Set copies v into the position.
func (p *Position) Set(v r3.Vec) { p.X, p.Y, p.Z = v.X, v.Y, v.Z }

// Nav is a straight-line movement order.
type Nav struct {
	Destination      r3.Vec
	Speed            float64
	StoppingDistance float64
	Active           bool
}

// Nectar attaches a nectar profile to an entity.
// Stall, when set, pauses integration while it reports true.
type Nectar struct {
	Profile *nectar.Profile
	Stall   func() bool
}

// Role identifies what an entity is in the colony.
type Role uint8

const (
	RoleHive Role = iota
	RoleFlower
	RoleBee
	RoleSpider
)

func (r Role) String() string {
	switch r {
	case RoleHive:
		return "hive"
	case RoleFlower:
		return "flower"
	case RoleBee:
		return "bee"
	case RoleSpider:
		return "spider"
	}
	return "unknown"
}

// Agent tags an entity with its role and a per-role index
// (flower index, bee id).
type Agent struct {
	Role  Role
	Index int
}
