package colony

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/beehive/config"
	"github.com/pthm-cable/beehive/nectar"
)

// fakeNav teleports on demand; RemainingDistance is the straight-line gap.
type fakeNav struct {
	pos, dest r3.Vec
	active    bool
}

func (n *fakeNav) SetDestination(p r3.Vec) { n.dest, n.active = p, true }
func (n *fakeNav) CancelMovement()         { n.active = false }
func (n *fakeNav) Position() r3.Vec        { return n.pos }
func (n *fakeNav) HasPath() bool           { return n.active && n.RemainingDistance() > 0 }

func (n *fakeNav) RemainingDistance() float64 {
	if !n.active {
		return 0
	}
	return distance(n.pos, n.dest)
}

func (n *fakeNav) arrive() { n.pos = n.dest }

type fakeTarget struct {
	pos r3.Vec
	p   *nectar.Profile
}

func (t *fakeTarget) Location() r3.Vec         { return t.pos }
func (t *fakeTarget) Profile() *nectar.Profile { return t.p }

type fakeIntruder struct {
	fakeTarget
	at bool
}

func (i *fakeIntruder) AtObjective() bool { return i.at }

func testBeeConfig() config.BeeConfig {
	return config.BeeConfig{
		Speed:             6,
		StoppingDistance:  0.5,
		WorkTolerance:     0.5,
		IntruderTolerance: 1.0,
		MoveDelay:         0.1,
		CrowdingLimit:     2,
	}
}

func profileTemplate(kind nectar.Kind, capacity, start float64) nectar.Template {
	return nectar.Template{Name: kind.String(), Kind: kind, Capacity: capacity, Start: start, LowPercent: 30}
}

func beeTemplate(capacity, start float64) nectar.Template {
	t := profileTemplate(nectar.KindCollector, capacity, start)
	t.Receivers = []nectar.Receiver{
		{From: nectar.KindDistributor, Rate: 20, AffectsSelf: true, AffectsPeer: true, PeerRateMultiplier: 1},
		{From: nectar.KindThief, Rate: 10, AffectsSelf: false, AffectsPeer: true, PeerRateMultiplier: 1.5},
	}
	t.Senders = []nectar.Sender{{To: nectar.KindHub, Rate: 40, AffectsSelf: true}}
	return t
}

func flowerAt(x, z, start float64) *fakeTarget {
	return &fakeTarget{
		pos: r3.Vec{X: x, Z: z},
		p:   nectar.NewProfile(profileTemplate(nectar.KindDistributor, 100, start)),
	}
}

func hiveTarget() *fakeTarget {
	return &fakeTarget{p: nectar.NewProfile(profileTemplate(nectar.KindHub, 1000, 500))}
}

// recorder counts bee signals.
type recorder struct {
	arrived, completed, abandoned, allComplete int
	attacksBegan, attacksEnded                 int
	full, depleted                             int
	objectives                                 []int
	transitions                                []State
}

func (r *recorder) signals() BeeSignals {
	return BeeSignals{
		Arrived:     func(*Bee, Target) { r.arrived++ },
		Completed:   func(*Bee, Target) { r.completed++ },
		Abandoned:   func(*Bee, Target) { r.abandoned++ },
		AllComplete: func(*Bee) { r.allComplete++ },
		AttackBegan: func(*Bee, Target) { r.attacksBegan++ },
		AttackEnded: func(*Bee, Target) { r.attacksEnded++ },
		Full:        func(*Bee) { r.full++ },
		Depleted:    func(*Bee) { r.depleted++ },
		ObjectivesReceived: func(_ *Bee, n int) {
			r.objectives = append(r.objectives, n)
		},
		StateChanged: func(_ *Bee, _, to State) {
			r.transitions = append(r.transitions, to)
		},
	}
}

type beeRig struct {
	bee  *Bee
	nav  *fakeNav
	rec  *recorder
	hive *fakeTarget
}

func newBeeRig(personality Personality, cfg config.BeeConfig, tmpl nectar.Template, objectives ...Target) (*beeRig, error) {
	rig := &beeRig{nav: &fakeNav{}, rec: &recorder{}, hive: hiveTarget()}
	b, err := NewBee(1, personality, cfg, BeeDeps{
		Nav:        rig.nav,
		Profile:    nectar.NewProfile(tmpl),
		Hive:       rig.hive,
		Objectives: ObjectiveFunc(func() []Target { return objectives }),
		Signals:    rig.rec.signals(),
	})
	if err != nil {
		return nil, err
	}
	rig.bee = b
	b.Start()
	return rig, nil
}

// arrive moves the bee onto its destination and runs past the move delay.
func (r *beeRig) arrive() {
	r.nav.arrive()
	r.bee.Update(0.25)
}

// tick integrates the given profiles and the bee's own, then updates the bee.
func (r *beeRig) tick(dt float64, others ...*nectar.Profile) {
	r.bee.Profile().Integrate(dt)
	for _, p := range others {
		p.Integrate(dt)
	}
	r.bee.Update(dt)
}
