package colony

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/beehive/nectar"
)

// SpiderSignals are the spider's outbound notifications. Any field may be nil.
type SpiderSignals struct {
	EnteredHive        func(s *Spider)
	ExitedHive         func(s *Spider)
	StartBeingAttacked func(s *Spider)
	EndBeingAttacked   func(s *Spider)
	Full, Depleted     func(s *Spider)
}

// Spider steals from the hive while inside its core and is drained by
// attacking bees.
type Spider struct {
	nav     Navigator
	profile *nectar.Profile
	hive    Target
	sig     SpiderSignals
	log     *slog.Logger

	atObjective    bool
	beingAttacked  bool
	objective      *nectar.Profile // hive profile from the last visit
	flow           *nectar.Flow
	pendingForfeit bool
}

// NewSpider builds the intruder. A missing profile, navigator or hive is a
// *ConfigurationError.
func NewSpider(nav Navigator, profile *nectar.Profile, hive Target, sig SpiderSignals, log *slog.Logger) (*Spider, error) {
	switch {
	case profile == nil:
		return nil, &ConfigurationError{Agent: "spider", Reason: "no nectar profile"}
	case nav == nil:
		return nil, &ConfigurationError{Agent: "spider", Reason: "no navigator"}
	case hive == nil:
		return nil, &ConfigurationError{Agent: "spider", Reason: "no hive"}
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Spider{nav: nav, profile: profile, hive: hive, sig: sig, log: log.With("agent", "spider")}
	profile.Watch(nectar.Hooks{
		SendersActive: func(_ *nectar.Profile, active bool) {
			if active {
				s.beginBeingAttacked()
			} else {
				s.endBeingAttacked()
			}
		},
		Full: func(*nectar.Profile) {
			if s.sig.Full != nil {
				s.sig.Full(s)
			}
		},
		Depleted: func(*nectar.Profile) {
			if s.sig.Depleted != nil {
				s.sig.Depleted(s)
			}
		},
	})
	return s, nil
}

func (s *Spider) Location() r3.Vec         { return s.nav.Position() }
func (s *Spider) Profile() *nectar.Profile { return s.profile }
func (s *Spider) AtObjective() bool        { return s.atObjective }
func (s *Spider) BeingAttacked() bool      { return s.beingAttacked }
func (s *Spider) Flow() *nectar.Flow       { return s.flow }

// EnterHive starts stealing from the hive. Ignored while already inside.
func (s *Spider) EnterHive() {
	if s.atObjective {
		return
	}
	s.atObjective = true
	s.settleForfeit()
	s.objective = profileOf(s.hive)

	f, err := nectar.Establish(s.profile, s.objective)
	if err != nil {
		s.log.Debug("no flow at hive", "err", err)
	}
	s.flow = f
	if s.sig.EnteredHive != nil {
		s.sig.EnteredHive(s)
	}
}

// ExitHive stops stealing. Unless the spider is being attacked its profile
// goes idle. One sender reference on the hive is returned on every exit,
// including when an attack already returned it; the surplus shows up in the
// hive profile's Underflows.
func (s *Spider) ExitHive() {
	if !s.atObjective {
		return
	}
	s.atObjective = false
	if !s.beingAttacked {
		s.profile.SetFlowState(nectar.StateIdle)
		s.flow.Forfeit()
		s.flow = nil
	} else {
		s.pendingForfeit = true
	}
	if s.objective != nil && !s.objective.Detached() {
		s.objective.AdjustSenders(-1)
	}
	if s.sig.ExitedHive != nil {
		s.sig.ExitedHive(s)
	}
}

// Stalled reports whether integration should pause: the spider cannot
// fill while the hive it steals from is empty.
func (s *Spider) Stalled() bool {
	return s.profile.State() == nectar.StateIncreasing && s.objective != nil && s.objective.Depleted()
}

// beginBeingAttacked latches the attacked flag and returns one sender
// reference to the hive of the last visit, so the hive stops draining. The
// return happens even after the spider has left; the hive absorbs it as an
// underflow.
func (s *Spider) beginBeingAttacked() bool {
	if s.beingAttacked {
		return false
	}
	s.beingAttacked = true
	if s.objective != nil && !s.objective.Detached() {
		s.objective.AdjustSenders(-1)
	}
	if s.sig.StartBeingAttacked != nil {
		s.sig.StartBeingAttacked(s)
	}
	return true
}

func (s *Spider) endBeingAttacked() bool {
	if !s.beingAttacked {
		return false
	}
	s.beingAttacked = false
	if !s.atObjective {
		s.settleForfeit()
	}
	if s.sig.EndBeingAttacked != nil {
		s.sig.EndBeingAttacked(s)
	}
	return true
}

// settleForfeit drops the spider's own side of a flow left open by an exit
// during an attack.
func (s *Spider) settleForfeit() {
	if !s.pendingForfeit {
		return
	}
	s.pendingForfeit = false
	s.flow.Forfeit()
	s.flow = nil
}
