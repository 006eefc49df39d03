package nectar

// Hooks receive profile signals. Any field may be nil.
type Hooks struct {
	Full     func(p *Profile)
	Depleted func(p *Profile)
	// SendersActive fires on the 0 -> n and n -> 0 edges of the sender count.
	SendersActive func(p *Profile, active bool)
}

// Profile is one holder's nectar store and flow state.
//
// Quantity stays in [0, Capacity]. Reaching a bound forces StateDepleted or
// StateFull and leaving it returns to StateIdle. The receiver and sender
// counts are reference counts owned by the Flows that incremented them;
// either reaching zero ends the flow and returns to StateIdle, except that
// a full store stays full.
type Profile struct {
	tmpl Template

	quantity float64
	state    State
	rate     float64 // magnitude applied while increasing or decreasing
	elapsed  float64 // seconds since the last non-bound state assignment
	low      bool

	receivers  int
	senders    int
	underflows int
	detached   bool

	signalled State // bound whose signal has fired; StateIdle while off both bounds

	hooks []Hooks
}

// NewProfile builds a profile from a copy of t. The profile starts idle and
// no signal fires at construction. A starting quantity on a bound signals on
// the first SetQuantity that lands on that bound.
func NewProfile(t Template) *Profile {
	p := &Profile{tmpl: t.clone()}
	p.quantity = clampf(t.Start, 0, t.Capacity)
	p.low = p.computeLow()
	return p
}

// Watch registers hooks. Hooks fire in registration order.
func (p *Profile) Watch(h Hooks) {
	p.hooks = append(p.hooks, h)
}

func (p *Profile) Name() string       { return p.tmpl.Name }
func (p *Profile) Kind() Kind         { return p.tmpl.Kind }
func (p *Profile) Capacity() float64  { return p.tmpl.Capacity }
func (p *Profile) Quantity() float64  { return p.quantity }
func (p *Profile) State() State       { return p.state }
func (p *Profile) Rate() float64      { return p.rate }
func (p *Profile) Elapsed() float64   { return p.elapsed }
func (p *Profile) IsLow() bool        { return p.low }
func (p *Profile) Receivers() int     { return p.receivers }
func (p *Profile) Senders() int       { return p.senders }
func (p *Profile) Detached() bool     { return p.detached }
func (p *Profile) Template() Template { return p.tmpl.clone() }

// Underflows counts decrements that would have taken a reference count
// below zero; such decrements clamp at zero. A correct flow ledger keeps
// this at zero.
func (p *Profile) Underflows() int { return p.underflows }

// Depleted reports whether the store is empty.
func (p *Profile) Depleted() bool { return p.quantity <= 0 }

// Full reports whether the store is at capacity.
func (p *Profile) Full() bool { return p.quantity >= p.tmpl.Capacity }

// Fraction returns quantity/capacity in [0, 1].
func (p *Profile) Fraction() float64 {
	if p.tmpl.Capacity <= 0 {
		return 0
	}
	return p.quantity / p.tmpl.Capacity
}

// Detach marks the profile as belonging to a destroyed owner. Flows skip
// detached peers when releasing and the profile no longer integrates.
func (p *Profile) Detach() { p.detached = true }

// SetQuantity clamps v into [0, Capacity]. Landing on a bound forces the
// bound state; the signal fires once per stay on that bound.
func (p *Profile) SetQuantity(v float64) {
	p.quantity = clampf(v, 0, p.tmpl.Capacity)
	switch {
	case p.quantity <= 0:
		p.enterBound(StateDepleted)
	case p.quantity >= p.tmpl.Capacity:
		p.enterBound(StateFull)
	default:
		p.signalled = StateIdle
		if p.state == StateDepleted || p.state == StateFull {
			p.SetFlowState(StateIdle)
		}
	}
	p.low = p.computeLow()
}

// SetFlowState assigns s. Full and Depleted raise their signal; every other
// state restarts the elapsed timer.
func (p *Profile) SetFlowState(s State) {
	p.state = s
	switch s {
	case StateFull:
		p.rate = 0
		p.fireFull()
	case StateDepleted:
		p.rate = 0
		p.fireDepleted()
	case StateIdle:
		p.rate = 0
		p.elapsed = 0
	default:
		p.elapsed = 0
	}
	p.low = p.computeLow()
}

// AdjustReceivers adds delta to the receiver count and returns the new count.
func (p *Profile) AdjustReceivers(delta int) int {
	n := p.adjust(p.receivers, delta)
	prev := p.receivers
	p.receivers = n
	if prev > 0 && n == 0 {
		p.settle()
	}
	return n
}

// AdjustSenders adds delta to the sender count and returns the new count.
func (p *Profile) AdjustSenders(delta int) int {
	n := p.adjust(p.senders, delta)
	prev := p.senders
	p.senders = n
	switch {
	case prev == 0 && n > 0:
		p.fireSenders(true)
	case prev > 0 && n == 0:
		p.settle()
		p.fireSenders(false)
	}
	return n
}

// Integrate advances the profile by dt seconds. Regeneration and decay apply
// only while idle, or while full with no flow attached.
func (p *Profile) Integrate(dt float64) {
	if p.detached || dt <= 0 {
		return
	}
	switch p.state {
	case StateIncreasing:
		p.elapsed += dt
		p.SetQuantity(p.quantity + p.rate*dt)
	case StateDecreasing:
		p.elapsed += dt
		p.SetQuantity(p.quantity - p.rate*dt)
	case StateIdle, StateFull:
		if p.state == StateFull && (p.receivers > 0 || p.senders > 0) {
			return
		}
		var d float64
		if p.tmpl.Regenerate {
			d += p.tmpl.RegenRate * dt
		}
		if p.tmpl.Decay {
			d -= p.tmpl.DecayRate * dt
		}
		if d != 0 {
			p.SetQuantity(p.quantity + d)
		}
	}
}

// FindReceiver returns the first receiver rule accepting from k.
func (p *Profile) FindReceiver(k Kind) (Receiver, bool) {
	for _, r := range p.tmpl.Receivers {
		if r.From == k {
			return r, true
		}
	}
	return Receiver{}, false
}

// FindSender returns the first sender rule sending to k.
func (p *Profile) FindSender(k Kind) (Sender, bool) {
	for _, s := range p.tmpl.Senders {
		if s.To == k {
			return s, true
		}
	}
	return Sender{}, false
}

// settle returns the profile to idle when its last flow ends. A full store
// stays full so the holder keeps reporting what it achieved.
func (p *Profile) settle() {
	if p.state != StateFull {
		p.SetFlowState(StateIdle)
	}
}

// flow starts increasing or decreasing at rate.
func (p *Profile) flow(s State, rate float64) {
	p.SetFlowState(s)
	p.rate = rate
}

func (p *Profile) enterBound(s State) {
	p.state = s
	p.rate = 0
	if p.signalled == s {
		return
	}
	if s == StateFull {
		p.fireFull()
	} else {
		p.fireDepleted()
	}
}

// adjust clamps a reference count at zero, counting the overshoot.
func (p *Profile) adjust(cur, delta int) int {
	n := cur + delta
	if n < 0 {
		p.underflows++
		return 0
	}
	return n
}

func (p *Profile) computeLow() bool {
	return p.Fraction()*100 < p.tmpl.LowPercent
}

func (p *Profile) fireFull() {
	p.signalled = StateFull
	for _, h := range p.hooks {
		if h.Full != nil {
			h.Full(p)
		}
	}
}

func (p *Profile) fireDepleted() {
	p.signalled = StateDepleted
	for _, h := range p.hooks {
		if h.Depleted != nil {
			h.Depleted(p)
		}
	}
}

func (p *Profile) fireSenders(active bool) {
	for _, h := range p.hooks {
		if h.SendersActive != nil {
			h.SendersActive(p, active)
		}
	}
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
