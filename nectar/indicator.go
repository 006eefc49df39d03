package nectar

import "github.com/pthm-cable/beehive/config"

// Tone is the semantic indicator category for a profile.
type Tone uint8

const (
	ToneDefault Tone = iota
	ToneIncrease
	ToneDecrease
)

func (t Tone) String() string {
	switch t {
	case ToneIncrease:
		return "increase"
	case ToneDecrease:
		return "decrease"
	default:
		return "default"
	}
}

// Indicator returns the tone for the current flow state and whether the
// low-nectar variant applies. Idle, full and depleted use the default tone.
func (p *Profile) Indicator() (Tone, bool) {
	switch p.state {
	case StateIncreasing:
		return ToneIncrease, p.low
	case StateDecreasing:
		return ToneDecrease, p.low
	default:
		return ToneDefault, p.low
	}
}

// Palette maps indicator tones to colours.
type Palette struct {
	Default, DefaultLow   string
	Increase, IncreaseLow string
	Decrease, DecreaseLow string
}

// PaletteFromConfig builds a Palette from the indicator section.
func PaletteFromConfig(ic config.IndicatorConfig) Palette {
	return Palette{
		Default: ic.Default, DefaultLow: ic.DefaultLow,
		Increase: ic.Increase, IncreaseLow: ic.IncreaseLow,
		Decrease: ic.Decrease, DecreaseLow: ic.DecreaseLow,
	}
}

// Color returns the colour for p's indicator.
func (pl Palette) Color(p *Profile) string {
	tone, low := p.Indicator()
	switch tone {
	case ToneIncrease:
		if low {
			return pl.IncreaseLow
		}
		return pl.Increase
	case ToneDecrease:
		if low {
			return pl.DecreaseLow
		}
		return pl.Decrease
	default:
		if low {
			return pl.DefaultLow
		}
		return pl.Default
	}
}
