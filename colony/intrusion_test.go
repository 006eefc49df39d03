package colony

import "testing"

type countingResponder struct {
	entered, exited int
}

func (r *countingResponder) IntruderEntered(Intruder) { r.entered++ }
func (r *countingResponder) IntruderExited(Intruder)  { r.exited++ }

func TestMonitor_EdgeTriggered(t *testing.T) {
	r := &countingResponder{}
	m := NewMonitor(nil, r)
	a, b := &fakeIntruder{}, &fakeIntruder{}

	if !m.Enter(a) {
		t.Fatal("first enter did not fire")
	}
	if m.Enter(a) || m.Enter(b) {
		t.Error("enter fired while an intruder is tracked")
	}
	if m.State() != IntruderDetected || m.Intruder() != a {
		t.Errorf("state=%v intruder=%v", m.State(), m.Intruder())
	}

	if m.Exit(b) {
		t.Error("exit fired for an untracked intruder")
	}
	if !m.Exit(a) {
		t.Error("exit did not fire for the tracked intruder")
	}
	if m.Exit(a) {
		t.Error("exit fired twice")
	}
	if r.entered != 1 || r.exited != 1 {
		t.Errorf("responder saw %d enters, %d exits; want 1/1", r.entered, r.exited)
	}
	if m.State() != NoIntruder {
		t.Errorf("state = %v, want no_intruder", m.State())
	}
}

func TestMonitor_IgnoresIntruderAtObjective(t *testing.T) {
	r := &countingResponder{}
	m := NewMonitor(nil, r)
	in := &fakeIntruder{at: true}

	if m.Enter(in) {
		t.Error("enter fired for an intruder at its objective")
	}

	in.at = false
	m.Enter(in)
	in.at = true
	if m.Exit(in) {
		t.Error("exit fired for an intruder at its objective")
	}
	if r.entered != 1 || r.exited != 0 {
		t.Errorf("enters=%d exits=%d, want 1/0", r.entered, r.exited)
	}
}

func TestMonitor_Unsubscribe(t *testing.T) {
	r1, r2 := &countingResponder{}, &countingResponder{}
	m := NewMonitor(nil, r1, r2)
	m.Unsubscribe(r1)
	m.Enter(&fakeIntruder{})
	if r1.entered != 0 || r2.entered != 1 {
		t.Errorf("r1=%d r2=%d, want 0/1", r1.entered, r2.entered)
	}
}

func TestMonitor_DrivesBees(t *testing.T) {
	worker := mustRig(t, Worker, flowerAt(10, 0, 80))
	attacker := mustRig(t, Attacker, flowerAt(10, 0, 80))
	m := NewMonitor(nil, worker.bee, attacker.bee)
	in := &fakeIntruder{}

	m.Enter(in)
	if worker.bee.State() != Defence || attacker.bee.State() != Attack {
		t.Errorf("states = %v/%v, want defence/attack", worker.bee.State(), attacker.bee.State())
	}
	m.Exit(in)
	if worker.bee.State() != Working || attacker.bee.State() != Working {
		t.Errorf("states = %v/%v, want working/working", worker.bee.State(), attacker.bee.State())
	}
}
