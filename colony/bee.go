package colony

import (
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/beehive/config"
	"github.com/pthm-cable/beehive/nectar"
)

// Personality decides how a bee answers an intrusion.
type Personality uint8

const (
	Worker   Personality = iota // defends the nearer objective
	Attacker                    // pursues the intruder
	Queen                       // ignores intrusions
)

func (p Personality) String() string {
	switch p {
	case Worker:
		return "worker"
	case Attacker:
		return "attacker"
	case Queen:
		return "queen"
	default:
		return fmt.Sprintf("Personality(%d)", p)
	}
}

// ParsePersonality converts a config name to a Personality.
func ParsePersonality(s string) (Personality, error) {
	switch s {
	case "worker":
		return Worker, nil
	case "attacker":
		return Attacker, nil
	case "queen":
		return Queen, nil
	}
	return Worker, fmt.Errorf("unknown personality %q", s)
}

// State is the bee's behavior state.
type State uint8

const (
	Working State = iota
	Defence
	Attack
	ReturnToHive
)

func (s State) String() string {
	switch s {
	case Working:
		return "working"
	case Defence:
		return "defence"
	case Attack:
		return "attack"
	case ReturnToHive:
		return "return_to_hive"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// ErrNotWorking is returned when assigning an objective outside Working.
var ErrNotWorking = errors.New("colony: objectives are assigned only while working")

// BeeSignals are the bee's outbound notifications. Any field may be nil.
type BeeSignals struct {
	Arrived            func(b *Bee, t Target)
	Completed          func(b *Bee, t Target)
	Abandoned          func(b *Bee, t Target)
	AllComplete        func(b *Bee)
	ObjectivesReceived func(b *Bee, n int)
	StateChanged       func(b *Bee, from, to State)
	AttackBegan        func(b *Bee, t Target)
	AttackEnded        func(b *Bee, t Target)
	Full               func(b *Bee)
	Depleted           func(b *Bee)
}

// BeeDeps are the capabilities a bee is constructed with.
type BeeDeps struct {
	Nav        Navigator
	Profile    *nectar.Profile
	Hive       Target
	Objectives ObjectiveSource
	Signals    BeeSignals
	Logger     *slog.Logger
}

// Bee is one colony member. It works through an ordered objective list,
// exchanging nectar at each, and answers intrusions by personality.
type Bee struct {
	id          int
	cfg         config.BeeConfig
	personality Personality
	started     bool
	disabled    bool

	nav     Navigator
	profile *nectar.Profile
	hive    Target
	source  ObjectiveSource
	sig     BeeSignals
	log     *slog.Logger

	objectives    []Target
	current, last int

	state, prior State
	intruder     Target
	guard        Target
	attacking    bool

	flow        *nectar.Flow
	flowTarget  Target
	attackFlow  *nectar.Flow
	atObjective bool
	settle      float64 // seconds left before arrival checks resume
	timeLimit   bool
}

// NewBee builds a bee. A missing profile, navigator or hive is a
// *ConfigurationError and no bee is returned.
func NewBee(id int, personality Personality, cfg config.BeeConfig, deps BeeDeps) (*Bee, error) {
	name := fmt.Sprintf("bee %d", id)
	switch {
	case deps.Profile == nil:
		return nil, &ConfigurationError{Agent: name, Reason: "no nectar profile"}
	case deps.Nav == nil:
		return nil, &ConfigurationError{Agent: name, Reason: "no navigator"}
	case deps.Hive == nil:
		return nil, &ConfigurationError{Agent: name, Reason: "no hive"}
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	b := &Bee{
		id:          id,
		cfg:         cfg,
		personality: personality,
		nav:         deps.Nav,
		profile:     deps.Profile,
		hive:        deps.Hive,
		source:      deps.Objectives,
		sig:         deps.Signals,
		log:         log.With("bee", id),
	}
	b.profile.Watch(nectar.Hooks{
		Full: func(*nectar.Profile) {
			if b.sig.Full != nil {
				b.sig.Full(b)
			}
		},
		Depleted: func(*nectar.Profile) {
			if b.sig.Depleted != nil {
				b.sig.Depleted(b)
			}
		},
	})
	return b, nil
}

func (b *Bee) ID() int                  { return b.id }
func (b *Bee) Personality() Personality { return b.personality }
func (b *Bee) State() State             { return b.state }
func (b *Bee) PriorState() State        { return b.prior }
func (b *Bee) CurrentIndex() int        { return b.current }
func (b *Bee) LastIndex() int           { return b.last }
func (b *Bee) Attacking() bool          { return b.attacking }
func (b *Bee) AtObjective() bool        { return b.atObjective }
func (b *Bee) Profile() *nectar.Profile { return b.profile }
func (b *Bee) Flow() *nectar.Flow       { return b.flow }
func (b *Bee) Disabled() bool           { return b.disabled }
func (b *Bee) NumObjectives() int       { return len(b.objectives) }
func (b *Bee) Position() r3.Vec         { return b.nav.Position() }
func (b *Bee) Intruder() Target         { return b.intruder }

// SetPersonality changes the personality before Start.
func (b *Bee) SetPersonality(p Personality) error {
	if b.started {
		return ErrPersonalityLocked
	}
	b.personality = p
	return nil
}

// Start fetches the objective list and heads for the first objective.
func (b *Bee) Start() {
	if b.started || b.disabled {
		return
	}
	b.started = true
	b.state, b.prior = Working, Working
	b.loadObjectives()
	b.timeLimit = b.cfg.TimeAtObjective > 0
	b.resumeObjective()
}

// RefreshObjectives re-queries the objective source. Indices that no longer
// fit the list reset to the first objective. A working bee whose current
// objective changed drops its flow and heads for the new one.
func (b *Bee) RefreshObjectives() {
	if b.disabled {
		return
	}
	prev := b.objectiveAt(b.current)
	b.loadObjectives()
	if !b.started || b.state != Working || b.objectiveAt(b.current) == prev {
		return
	}
	b.log.Debug("objective changed on refresh", "objective", b.current)
	b.releaseFlow()
	b.resumeObjective()
}

func (b *Bee) loadObjectives() {
	if b.source == nil {
		b.objectives = nil
	} else {
		b.objectives = append(b.objectives[:0], b.source.Objectives()...)
	}
	if b.current >= len(b.objectives) {
		b.current = 0
	}
	if b.last >= len(b.objectives) {
		b.last = 0
	}
	if b.sig.ObjectivesReceived != nil {
		b.sig.ObjectivesReceived(b, len(b.objectives))
	}
}

// Target returns what the bee is currently heading for or holding.
func (b *Bee) Target() Target {
	switch b.state {
	case Working:
		return b.objectiveAt(b.current)
	case Defence:
		return b.guard
	case Attack:
		return b.intruder
	case ReturnToHive:
		return b.hive
	}
	return nil
}

// AssignObjective sends a working bee to objective i.
func (b *Bee) AssignObjective(i int) error {
	if b.disabled {
		return nil
	}
	if b.state != Working {
		return ErrNotWorking
	}
	return b.assignWorkObjective(i)
}

// ReturnToHive abandons the current objective and heads home.
func (b *Bee) ReturnToHive() {
	if b.disabled || !b.started {
		return
	}
	b.setState(ReturnToHive)
}

// IntruderEntered answers an intrusion: attackers pursue, workers defend
// and queens carry on.
func (b *Bee) IntruderEntered(in Intruder) {
	if b.disabled || !b.started {
		return
	}
	var next State
	switch b.personality {
	case Attacker:
		next = Attack
	case Worker:
		next = Defence
	default:
		return
	}
	b.intruder = in
	if b.state != Attack && b.state != Defence {
		b.prior = b.state
	}
	b.setState(next)
}

// IntruderExited restores the state held before the intrusion.
func (b *Bee) IntruderExited(in Intruder) {
	if b.disabled || !b.started || b.personality == Queen {
		return
	}
	if b.state == Attack || b.state == Defence {
		b.setState(b.prior)
	}
	b.endAttack()
	b.intruder, b.guard = nil, nil
}

// Update runs the per-tick checks after nectar has integrated: flow
// completion, pursuit, crowding and arrival.
func (b *Bee) Update(dt float64) {
	if b.disabled || !b.started {
		return
	}
	if b.settle > 0 {
		b.settle -= dt
	}

	b.evaluateFlow()

	if b.state == Attack {
		b.pursue()
		return
	}
	b.checkCrowding()
	b.checkArrival()
}

// Retire releases every flow and stops the bee.
func (b *Bee) Retire() {
	if b.disabled {
		return
	}
	b.endAttack()
	b.releaseFlow()
	b.nav.CancelMovement()
	b.disabled = true
}

func (b *Bee) setState(next State) {
	if next == b.state {
		return
	}
	b.endAttack()
	from := b.state

	switch next {
	case Working:
		b.state = next
		b.resumeObjective()
	case Defence:
		b.abandon()
		b.state = next
		b.guard = b.nearerObjective()
		if b.guard != nil {
			b.moveTo(b.guard)
		} else {
			b.nav.CancelMovement()
		}
	case Attack:
		b.abandon()
		b.state = next
		if b.intruder != nil {
			b.nav.SetDestination(b.intruder.Location())
			b.atObjective = false
		}
	case ReturnToHive:
		b.abandon()
		b.timeLimit = false
		b.state = next
		b.moveTo(b.hive)
	}

	b.log.Debug("bee state", "from", from, "to", next, "objective", b.current)
	if b.sig.StateChanged != nil {
		b.sig.StateChanged(b, from, next)
	}
}

// abandon drops the active flow and idles the profile.
func (b *Bee) abandon() {
	t := b.Target()
	b.releaseFlow()
	b.profile.SetFlowState(nectar.StateIdle)
	if b.sig.Abandoned != nil && t != nil {
		b.sig.Abandoned(b, t)
	}
}

func (b *Bee) moveTo(t Target) {
	b.nav.SetDestination(t.Location())
	b.settle = b.cfg.MoveDelay
	b.atObjective = false
}

func (b *Bee) resumeObjective() {
	t := b.objectiveAt(b.current)
	if t == nil {
		b.nav.CancelMovement()
		return
	}
	b.moveTo(t)
}

func (b *Bee) assignWorkObjective(i int) error {
	if i < 0 || i >= len(b.objectives) {
		return ErrInvalidIndex
	}
	b.releaseFlow()
	b.last = b.current
	b.current = i
	b.resumeObjective()
	return nil
}

func (b *Bee) objectiveAt(i int) Target {
	if i < 0 || i >= len(b.objectives) {
		return nil
	}
	return b.objectives[i]
}

// nearerObjective picks the guard post for defence.
func (b *Bee) nearerObjective() Target {
	cur, last := b.objectiveAt(b.current), b.objectiveAt(b.last)
	if cur == nil || last == nil {
		if cur != nil {
			return cur
		}
		return last
	}
	pos := b.nav.Position()
	if preferLast(distance(pos, cur.Location()), distance(pos, last.Location())) {
		return last
	}
	return cur
}

// preferLast reports whether the previous objective is strictly closer.
// An exact tie keeps the current objective.
func preferLast(toCurrent, toLast float64) bool {
	return toLast < toCurrent
}

func (b *Bee) tolerance() float64 {
	if b.state == Attack {
		return b.cfg.StoppingDistance + b.cfg.IntruderTolerance
	}
	return b.cfg.StoppingDistance + b.cfg.WorkTolerance
}

func (b *Bee) checkArrival() {
	if b.atObjective || b.settle > 0 {
		return
	}
	t := b.Target()
	if t == nil || b.nav.RemainingDistance() >= b.tolerance() {
		return
	}
	b.atObjective = true
	if b.sig.Arrived != nil {
		b.sig.Arrived(b, t)
	}
	b.assignObjectiveOrder(t)
}

// assignObjectiveOrder starts the flow appropriate to the state on arrival.
func (b *Bee) assignObjectiveOrder(t Target) {
	switch b.state {
	case Working:
		b.timeLimit = b.cfg.TimeAtObjective > 0
		if profileOf(t) == nil {
			// The objective's owner is gone; move on.
			b.log.Debug("objective stale on arrival", "objective", b.current)
			b.advance()
			return
		}
		b.establish(t)
	case ReturnToHive:
		b.timeLimit = false
		b.establish(t)
	}
}

func (b *Bee) establish(t Target) {
	b.releaseFlow()
	f, err := nectar.Establish(b.profile, profileOf(t))
	if err != nil {
		b.log.Debug("no flow at objective", "state", b.state, "err", err)
		return
	}
	b.flow, b.flowTarget = f, t
}

func (b *Bee) releaseFlow() {
	if b.flow == nil {
		return
	}
	b.flow.Release()
	b.flow, b.flowTarget = nil, nil
}

// evaluateFlow completes the active flow when the bee is full, empty, out
// of time, or its peer is exhausted or gone.
func (b *Bee) evaluateFlow() {
	f := b.flow
	if f == nil {
		return
	}
	p := b.profile
	peer := f.Peer()
	switch {
	case f.SelfIncreasing() && p.Full():
		b.complete()
	case f.SelfDecreasing() && p.Depleted():
		p.SetFlowState(nectar.StateIdle)
		b.complete()
	case b.timeLimit && b.cfg.TimeAtObjective > 0 && p.Elapsed() >= b.cfg.TimeAtObjective:
		p.SetFlowState(nectar.StateIdle)
		b.complete()
	case peer.Detached() || (f.PeerDecreasing() && peer.Depleted()):
		p.SetFlowState(nectar.StateIdle)
		b.complete()
	}
}

func (b *Bee) complete() {
	t := b.flowTarget
	b.releaseFlow()
	if b.sig.Completed != nil {
		b.sig.Completed(b, t)
	}
	switch b.state {
	case Working:
		b.advance()
	case ReturnToHive:
		if b.cfg.RestartAfterReturn && len(b.objectives) > 0 {
			b.current, b.last = 0, 0
			b.setState(Working)
		}
	}
}

// advance moves to the next objective, or reports the list finished.
func (b *Bee) advance() {
	if b.current >= len(b.objectives)-1 {
		if b.sig.AllComplete != nil {
			b.sig.AllComplete(b)
		}
		if b.cfg.ReturnWhenDone {
			b.setState(ReturnToHive)
		}
		return
	}
	_ = b.assignWorkObjective(b.current + 1)
}

// checkCrowding skips an objective that already has enough bees draining it.
func (b *Bee) checkCrowding() {
	if b.state != Working || b.atObjective || b.cfg.CrowdingLimit <= 0 || !b.nav.HasPath() {
		return
	}
	p := profileOf(b.objectiveAt(b.current))
	if p == nil || p.Senders() < b.cfg.CrowdingLimit {
		return
	}
	if err := b.assignWorkObjective(b.current + 1); err == nil {
		b.log.Debug("objective crowded, skipping", "to", b.current)
	}
}

// pursue follows the intruder and latches attacking while in range.
func (b *Bee) pursue() {
	if profileOf(b.intruder) == nil {
		b.endAttack()
		return
	}
	b.nav.SetDestination(b.intruder.Location())
	if b.nav.RemainingDistance() < b.tolerance() {
		b.beginAttack()
	} else {
		b.endAttack()
	}
}

// beginAttack latches attacking and starts draining the intruder. Reports
// whether the edge fired.
func (b *Bee) beginAttack() bool {
	if b.attacking {
		return false
	}
	b.attacking = true
	f, err := nectar.Establish(b.profile, profileOf(b.intruder))
	if err != nil {
		b.log.Debug("attack has no flow", "err", err)
	}
	b.attackFlow = f
	if b.sig.AttackBegan != nil {
		b.sig.AttackBegan(b, b.intruder)
	}
	return true
}

// endAttack clears attacking and releases the drain on the intruder.
// Reports whether the edge fired.
func (b *Bee) endAttack() bool {
	if !b.attacking {
		return false
	}
	b.attacking = false
	b.attackFlow.Release()
	b.attackFlow = nil
	if b.sig.AttackEnded != nil {
		b.sig.AttackEnded(b, b.intruder)
	}
	return true
}
