// Package nectar implements the typed resource flow between colony members:
// per-holder profiles, the transfer rules that match two profiles, and the
// reference counts that keep shared profiles consistent.
package nectar

import "fmt"

// Kind classifies a profile for rule matching.
type Kind uint8

const (
	KindNone Kind = iota
	KindCollector
	KindThief
	KindDistributor
	KindHub
)

var kindNames = [...]string{
	KindNone:        "none",
	KindCollector:   "collector",
	KindThief:       "thief",
	KindDistributor: "distributor",
	KindHub:         "hub",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind converts a config name to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return KindNone, fmt.Errorf("unknown nectar kind %q", s)
}

// State is the flow state of a profile.
type State uint8

const (
	StateIdle State = iota
	StateIncreasing
	StateDecreasing
	StateDepleted
	StateFull
)

var stateNames = [...]string{
	StateIdle:       "idle",
	StateIncreasing: "increasing",
	StateDecreasing: "decreasing",
	StateDepleted:   "depleted",
	StateFull:       "full",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}
