package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/beehive/components"
)

// NectarSystem integrates every nectar profile once per tick.
type NectarSystem struct {
	filter ecs.Filter1[components.Nectar]
}

// NewNectarSystem creates a new nectar system.
func NewNectarSystem(w *ecs.World) *NectarSystem {
	return &NectarSystem{
		filter: *ecs.NewFilter1[components.Nectar](w),
	}
}

// Update integrates all profiles over dt. Stalled holders are skipped.
// Returns the number of profiles integrated.
func (s *NectarSystem) Update(dt float64) int {
	n := 0
	query := s.filter.Query()
	for query.Next() {
		nc := query.Get()
		if nc.Profile == nil || nc.Profile.Detached() {
			continue
		}
		if nc.Stall != nil && nc.Stall() {
			continue
		}
		nc.Profile.Integrate(dt)
		n++
	}
	return n
}
