package colony

import "log/slog"

// AlertState is the hive's intrusion alert.
type AlertState uint8

const (
	NoIntruder AlertState = iota
	IntruderDetected
)

func (a AlertState) String() string {
	if a == IntruderDetected {
		return "intruder_detected"
	}
	return "no_intruder"
}

// Intruder is a Target that may be sitting at its own objective. An
// intruder at its objective neither raises nor clears the alert.
type Intruder interface {
	Target
	AtObjective() bool
}

// Responder reacts to intrusion edges.
type Responder interface {
	IntruderEntered(in Intruder)
	IntruderExited(in Intruder)
}

// Monitor tracks at most one intruder in the hive's detection zone and
// notifies responders on the enter and exit edges only.
type Monitor struct {
	state      AlertState
	intruder   Intruder
	responders []Responder
	log        *slog.Logger
}

// NewMonitor returns a monitor notifying responders in the given order.
func NewMonitor(log *slog.Logger, responders ...Responder) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{responders: responders, log: log.With("component", "intrusion")}
}

func (m *Monitor) State() AlertState  { return m.state }
func (m *Monitor) Intruder() Intruder { return m.intruder }

// Subscribe adds a responder.
func (m *Monitor) Subscribe(r Responder) {
	m.responders = append(m.responders, r)
}

// Unsubscribe removes a responder.
func (m *Monitor) Unsubscribe(r Responder) {
	for i, x := range m.responders {
		if x == r {
			m.responders = append(m.responders[:i], m.responders[i+1:]...)
			return
		}
	}
}

// Enter raises the alert if the zone was empty. Reports whether the edge fired.
func (m *Monitor) Enter(in Intruder) bool {
	if in == nil || in.AtObjective() || m.state == IntruderDetected {
		return false
	}
	m.state = IntruderDetected
	m.intruder = in
	m.log.Info("intruder detected", "responders", len(m.responders))
	for _, r := range m.responders {
		r.IntruderEntered(in)
	}
	return true
}

// Exit clears the alert if in is the tracked intruder. Reports whether the
// edge fired.
func (m *Monitor) Exit(in Intruder) bool {
	if in == nil || in.AtObjective() || m.state != IntruderDetected || in != m.intruder {
		return false
	}
	m.state = NoIntruder
	m.intruder = nil
	m.log.Info("intruder left")
	for _, r := range m.responders {
		r.IntruderExited(in)
	}
	return true
}
