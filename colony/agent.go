// Package colony implements the behavior of hive members: the bee state
// machine, the spider intruder and the hive's intrusion monitor. Agents see
// the world only through the Navigator, Target and ObjectiveSource
// interfaces supplied by the composition root.
package colony

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/beehive/nectar"
)

var (
	// ErrInvalidIndex is returned for objective indices outside the list.
	ErrInvalidIndex = errors.New("colony: objective index out of range")
	// ErrPersonalityLocked is returned when changing personality after Start.
	ErrPersonalityLocked = errors.New("colony: personality is fixed once started")
)

// ConfigurationError reports an agent that cannot run. The agent is
// disabled; the rest of the simulation continues.
type ConfigurationError struct {
	Agent  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("colony: %s misconfigured: %s", e.Agent, e.Reason)
}

// Navigator moves an agent. Path finding is the implementation's concern.
type Navigator interface {
	SetDestination(p r3.Vec)
	CancelMovement()
	RemainingDistance() float64
	HasPath() bool
	Position() r3.Vec
}

// Target is anything an agent can travel to and exchange nectar with.
// Profile returns nil once the target's owner has been destroyed.
type Target interface {
	Location() r3.Vec
	Profile() *nectar.Profile
}

// ObjectiveSource supplies the ordered objective list.
type ObjectiveSource interface {
	Objectives() []Target
}

// ObjectiveFunc adapts a function to ObjectiveSource.
type ObjectiveFunc func() []Target

func (f ObjectiveFunc) Objectives() []Target { return f() }

// distance is the Euclidean distance between a and b.
func distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// profileOf returns t's profile, or nil for a missing or stale target.
func profileOf(t Target) *nectar.Profile {
	if t == nil {
		return nil
	}
	p := t.Profile()
	if p == nil || p.Detached() {
		return nil
	}
	return p
}
