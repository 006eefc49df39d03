package nectar

import (
	"fmt"
	"slices"

	"github.com/pthm-cable/beehive/config"
)

// Receiver accepts nectar from profiles of kind From.
type Receiver struct {
	From               Kind
	Rate               float64
	AffectsSelf        bool    // self increases while the flow is active
	AffectsPeer        bool    // peer decreases while the flow is active
	PeerRateMultiplier float64 // peer drain = Rate * PeerRateMultiplier
}

// Sender pushes nectar to profiles of kind To.
type Sender struct {
	To          Kind
	Rate        float64
	AffectsSelf bool // self decreases while the flow is active
}

// Template is the immutable description a Profile is built from.
// It is a value type; NewProfile deep-copies its rule lists.
type Template struct {
	Name       string
	Kind       Kind
	Capacity   float64
	Start      float64
	LowPercent float64 // isLow when quantity/capacity*100 < LowPercent
	Regenerate bool
	RegenRate  float64
	Decay      bool
	DecayRate  float64
	Receivers  []Receiver
	Senders    []Sender
}

// TemplateFromConfig converts a named config profile into a Template.
func TemplateFromConfig(name string, pc config.ProfileConfig) (Template, error) {
	kind, err := ParseKind(pc.Kind)
	if err != nil {
		return Template{}, fmt.Errorf("profile %q: %w", name, err)
	}
	t := Template{
		Name:       name,
		Kind:       kind,
		Capacity:   pc.Capacity,
		Start:      pc.Start,
		LowPercent: pc.LowPercent,
		Regenerate: pc.Regenerate,
		RegenRate:  pc.RegenRate,
		Decay:      pc.Decay,
		DecayRate:  pc.DecayRate,
	}
	for i, rc := range pc.Receivers {
		from, err := ParseKind(rc.From)
		if err != nil {
			return Template{}, fmt.Errorf("profile %q receiver %d: %w", name, i, err)
		}
		t.Receivers = append(t.Receivers, Receiver{
			From:               from,
			Rate:               rc.Rate,
			AffectsSelf:        rc.AffectsSelf,
			AffectsPeer:        rc.AffectsPeer,
			PeerRateMultiplier: rc.PeerRateMultiplier,
		})
	}
	for i, sc := range pc.Senders {
		to, err := ParseKind(sc.To)
		if err != nil {
			return Template{}, fmt.Errorf("profile %q sender %d: %w", name, i, err)
		}
		t.Senders = append(t.Senders, Sender{To: to, Rate: sc.Rate, AffectsSelf: sc.AffectsSelf})
	}
	return t, nil
}

// Templates converts every profile in the config, keyed by name.
func Templates(cfg *config.Config) (map[string]Template, error) {
	out := make(map[string]Template, len(cfg.Profiles))
	for _, name := range cfg.Derived.ProfileNames {
		t, err := TemplateFromConfig(name, cfg.Profiles[name])
		if err != nil {
			return nil, err
		}
		out[name] = t
	}
	return out, nil
}

func (t Template) clone() Template {
	t.Receivers = slices.Clone(t.Receivers)
	t.Senders = slices.Clone(t.Senders)
	return t
}
