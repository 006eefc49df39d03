package systems

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/beehive/components"
)

// MovementSystem moves navigating entities in a straight line toward their
// destination, stopping StoppingDistance short of it.
type MovementSystem struct {
	filter ecs.Filter2[components.Position, components.Nav]
}

// NewMovementSystem creates a new movement system.
func NewMovementSystem(w *ecs.World) *MovementSystem {
	return &MovementSystem{
		filter: *ecs.NewFilter2[components.Position, components.Nav](w),
	}
}

// Update advances every active mover by one tick.
func (s *MovementSystem) Update(dt float64) int {
	n := 0
	query := s.filter.Query()
	for query.Next() {
		pos, nav := query.Get()
		if !nav.Active {
			continue
		}
		next, _ := Step(pos.Vec(), nav.Destination, nav.Speed*dt, nav.StoppingDistance)
		pos.Set(next)
		n++
	}
	return n
}

// Step moves from toward to by at most maxStep, never closer than stop.
// It reports whether the mover is now within stop of the destination.
func Step(from, to r3.Vec, maxStep, stop float64) (r3.Vec, bool) {
	d := r3.Sub(to, from)
	dist := r3.Norm(d)
	if dist <= stop {
		return from, true
	}
	travel := dist - stop
	if maxStep < travel {
		return r3.Add(from, r3.Scale(maxStep/dist, d)), false
	}
	return r3.Add(from, r3.Scale(travel/dist, d)), true
}
