// Package telemetry provides colony statistics, alerts, CSV output and the
// event journal.
package telemetry

// EventType identifies telemetry events.
type EventType string

const (
	EventArrived         EventType = "arrived"
	EventCompleted       EventType = "completed"
	EventAbandoned       EventType = "abandoned"
	EventAllComplete     EventType = "all_complete"
	EventAttackBegan     EventType = "attack_began"
	EventAttackEnded     EventType = "attack_ended"
	EventBeeFull         EventType = "bee_full"
	EventBeeDepleted     EventType = "bee_depleted"
	EventObjectives      EventType = "objectives_received"
	EventIntruderEntered EventType = "intruder_entered"
	EventIntruderExited  EventType = "intruder_exited"
	EventSpiderEntered   EventType = "spider_entered_hive"
	EventSpiderExited    EventType = "spider_exited_hive"
	EventAgentDisabled   EventType = "agent_disabled"
	EventFlowerRemoved   EventType = "flower_removed"
	EventAlert           EventType = "alert"
)

// Event represents a single telemetry event.
type Event struct {
	Tick   int32     `db:"tick"`
	Type   EventType `db:"type"`
	Agent  string    `db:"agent"`  // "bee 3", "spider", "hive"
	Target string    `db:"target"` // "flower 2", "hive", "spider" or empty
	Amount float64   `db:"amount"` // agent nectar at the time of the event
	Detail string    `db:"detail"`
}

// NewAgentEvent creates an event raised by an agent against a target.
func NewAgentEvent(tick int32, typ EventType, agent, target string, amount float64) Event {
	return Event{
		Tick:   tick,
		Type:   typ,
		Agent:  agent,
		Target: target,
		Amount: amount,
	}
}

// NewAlertEvent wraps an alert for the journal.
func NewAlertEvent(a Alert) Event {
	return Event{
		Tick:   a.Tick,
		Type:   EventAlert,
		Agent:  "hive",
		Target: string(a.Type),
		Detail: a.Description,
	}
}
