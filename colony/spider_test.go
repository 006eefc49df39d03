package colony

import (
	"errors"
	"testing"

	"github.com/pthm-cable/beehive/nectar"
)

func spiderTemplate() nectar.Template {
	t := profileTemplate(nectar.KindThief, 400, 0)
	t.Receivers = []nectar.Receiver{
		{From: nectar.KindHub, Rate: 25, AffectsSelf: true, AffectsPeer: true, PeerRateMultiplier: 1.2},
	}
	return t
}

type spiderEvents struct {
	entered, exited, startAttacked, endAttacked int
}

func newTestSpider(t *testing.T) (*Spider, *fakeTarget, *spiderEvents) {
	t.Helper()
	hive := hiveTarget()
	ev := &spiderEvents{}
	s, err := NewSpider(&fakeNav{}, nectar.NewProfile(spiderTemplate()), hive, SpiderSignals{
		EnteredHive:        func(*Spider) { ev.entered++ },
		ExitedHive:         func(*Spider) { ev.exited++ },
		StartBeingAttacked: func(*Spider) { ev.startAttacked++ },
		EndBeingAttacked:   func(*Spider) { ev.endAttacked++ },
	}, nil)
	if err != nil {
		t.Fatalf("NewSpider: %v", err)
	}
	return s, hive, ev
}

// attack drains the spider the way an attacking bee does.
func attack(s *Spider) *nectar.Flow {
	bee := nectar.NewProfile(beeTemplate(100, 0))
	f, _ := nectar.Establish(bee, s.Profile())
	return f
}

func TestNewSpider_MissingProfile(t *testing.T) {
	_, err := NewSpider(&fakeNav{}, nil, hiveTarget(), SpiderSignals{}, nil)
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Errorf("err = %v, want *ConfigurationError", err)
	}
}

func TestSpider_VisitWithoutAttackIsBalanced(t *testing.T) {
	s, hive, ev := newTestSpider(t)

	s.EnterHive()
	s.EnterHive()
	if ev.entered != 1 || !s.AtObjective() {
		t.Fatalf("entered=%d at=%v, want one entry", ev.entered, s.AtObjective())
	}
	if hive.p.Senders() != 1 || hive.p.State() != nectar.StateDecreasing || hive.p.Rate() != 30 {
		t.Errorf("hive senders=%d state=%v rate=%v", hive.p.Senders(), hive.p.State(), hive.p.Rate())
	}
	if s.Profile().State() != nectar.StateIncreasing {
		t.Errorf("spider state = %v, want increasing", s.Profile().State())
	}

	s.ExitHive()
	if hive.p.Senders() != 0 || hive.p.Underflows() != 0 {
		t.Errorf("hive senders=%d underflows=%d after exit", hive.p.Senders(), hive.p.Underflows())
	}
	if s.Profile().State() != nectar.StateIdle || s.Profile().Receivers() != 0 {
		t.Errorf("spider %v receivers %d, want idle/0", s.Profile().State(), s.Profile().Receivers())
	}
}

func TestSpider_BeingAttackedEdges(t *testing.T) {
	s, hive, ev := newTestSpider(t)
	s.EnterHive()

	f1 := attack(s)
	f2 := attack(s)
	if !s.BeingAttacked() || ev.startAttacked != 1 {
		t.Fatalf("attacked=%v starts=%d, want one start edge", s.BeingAttacked(), ev.startAttacked)
	}
	if hive.p.Senders() != 0 {
		t.Errorf("hive still draining under attack: senders=%d", hive.p.Senders())
	}

	f1.Release()
	if ev.endAttacked != 0 {
		t.Error("end edge fired with an attacker remaining")
	}
	f2.Release()
	if s.BeingAttacked() || ev.endAttacked != 1 {
		t.Errorf("attacked=%v ends=%d, want one end edge", s.BeingAttacked(), ev.endAttacked)
	}
}

// Leaving while under attack returns the hive's sender reference a second
// time. The surplus decrement is absorbed and counted as an underflow.
func TestSpider_ExitDuringAttackDoubleDecrement(t *testing.T) {
	s, hive, _ := newTestSpider(t)
	s.EnterHive()
	f := attack(s)

	s.ExitHive()
	if hive.p.Senders() != 0 {
		t.Errorf("hive senders = %d, want 0", hive.p.Senders())
	}
	if hive.p.Underflows() != 1 {
		t.Errorf("hive underflows = %d, want 1", hive.p.Underflows())
	}
	if s.Profile().State() != nectar.StateDecreasing {
		t.Errorf("spider under attack went %v, want still decreasing", s.Profile().State())
	}

	f.Release()
	if s.Profile().Receivers() != 0 || s.Flow() != nil {
		t.Errorf("spider kept its hive flow after the attack ended")
	}
	if s.Profile().State() != nectar.StateIdle {
		t.Errorf("spider state = %v, want idle", s.Profile().State())
	}
}

func TestSpider_StallsOnEmptyHive(t *testing.T) {
	s, hive, _ := newTestSpider(t)
	s.EnterHive()
	if s.Stalled() {
		t.Fatal("stalled with a stocked hive")
	}
	hive.p.SetQuantity(0)
	if !s.Stalled() {
		t.Error("not stalled with an empty hive")
	}
}

func TestSpider_AttackAfterExitReturnsHiveReference(t *testing.T) {
	s, hive, _ := newTestSpider(t)

	f := attack(s)
	if hive.p.Senders() != 0 || hive.p.Underflows() != 0 {
		t.Fatalf("attack before any visit touched the hive: senders=%d underflows=%d",
			hive.p.Senders(), hive.p.Underflows())
	}
	f.Release()

	s.EnterHive()
	s.ExitHive()
	f = attack(s)
	defer f.Release()
	if hive.p.Senders() != 0 {
		t.Errorf("hive senders = %d, want 0", hive.p.Senders())
	}
	if hive.p.Underflows() != 1 {
		t.Errorf("hive underflows = %d, want 1 from the attack after exit", hive.p.Underflows())
	}
}
