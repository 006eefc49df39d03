package telemetry

import "sort"

// AgentRecord tracks per-bee tallies over a run.
type AgentRecord struct {
	ID          int     `csv:"id"`
	Personality string  `csv:"personality"`
	SpawnTick   int32   `csv:"spawn_tick"`
	Disabled    bool    `csv:"disabled"`
	Arrivals    int     `csv:"arrivals"`
	Completions int     `csv:"completions"`
	Abandoned   int     `csv:"abandoned"`
	Rounds      int     `csv:"rounds"`
	Attacks     int     `csv:"attacks"`
	Collected   float64 `csv:"collected"` // nectar gained at objectives
	Delivered   float64 `csv:"delivered"` // nectar handed to the hive
	PeakNectar  float64 `csv:"peak_nectar"`
	FinalState  string  `csv:"final_state"`
}

// AgentLedger manages per-bee records.
type AgentLedger struct {
	records map[int]*AgentRecord
}

// NewAgentLedger creates an empty ledger.
func NewAgentLedger() *AgentLedger {
	return &AgentLedger{
		records: make(map[int]*AgentRecord),
	}
}

// Register creates the record for a new bee.
func (l *AgentLedger) Register(id int, personality string, spawnTick int32) {
	l.records[id] = &AgentRecord{ID: id, Personality: personality, SpawnTick: spawnTick}
}

// Get returns the record for a bee, or nil if not found.
func (l *AgentLedger) Get(id int) *AgentRecord {
	return l.records[id]
}

// RecordDisabled marks a bee that could not be configured.
func (l *AgentLedger) RecordDisabled(id int) {
	if r := l.records[id]; r != nil {
		r.Disabled = true
	}
}

// RecordArrival increments the arrival count.
func (l *AgentLedger) RecordArrival(id int) {
	if r := l.records[id]; r != nil {
		r.Arrivals++
	}
}

// RecordAbandoned increments the abandoned count.
func (l *AgentLedger) RecordAbandoned(id int) {
	if r := l.records[id]; r != nil {
		r.Abandoned++
	}
}

// RecordRound increments the completed round count.
func (l *AgentLedger) RecordRound(id int) {
	if r := l.records[id]; r != nil {
		r.Rounds++
	}
}

// RecordAttack increments the attack count.
func (l *AgentLedger) RecordAttack(id int) {
	if r := l.records[id]; r != nil {
		r.Attacks++
	}
}

// RecordCompletion counts a completed flow and the nectar it moved. A
// positive change is collected nectar, a negative one was delivered.
func (l *AgentLedger) RecordCompletion(id int, change float64) {
	r := l.records[id]
	if r == nil {
		return
	}
	r.Completions++
	if change > 0 {
		r.Collected += change
	} else {
		r.Delivered -= change
	}
}

// UpdateNectar tracks peak nectar.
func (l *AgentLedger) UpdateNectar(id int, nectar float64) {
	if r := l.records[id]; r != nil && nectar > r.PeakNectar {
		r.PeakNectar = nectar
	}
}

// SetFinalState stores the bee's state name at the end of the run.
func (l *AgentLedger) SetFinalState(id int, state string) {
	if r := l.records[id]; r != nil {
		r.FinalState = state
	}
}

// Records returns copies of all records ordered by id.
func (l *AgentLedger) Records() []AgentRecord {
	out := make([]AgentRecord, 0, len(l.records))
	for _, r := range l.records {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of tracked bees.
func (l *AgentLedger) Count() int {
	return len(l.records)
}
