package game

import (
	"log/slog"

	"github.com/pthm-cable/beehive/nectar"
)

// indicatorAttr describes one profile's indicator for the log.
func (g *Game) indicatorAttr(name string, p *nectar.Profile) slog.Attr {
	return slog.Group(name,
		"state", p.State().String(),
		"nectar", p.Quantity(),
		"color", g.palette.Color(p),
	)
}

// logIndicators logs the indicator colour of the hive, spider and each
// remaining flower.
func (g *Game) logIndicators() {
	attrs := make([]any, 0, len(g.flowers)+2)
	if hp := g.hive.Profile(); hp != nil {
		attrs = append(attrs, g.indicatorAttr("hive", hp))
	}
	if sp := g.Spider(); sp != nil {
		attrs = append(attrs, g.indicatorAttr("spider", sp.Profile()))
	}
	for _, f := range g.flowers {
		if p := f.Profile(); p != nil {
			attrs = append(attrs, g.indicatorAttr(f.Name(), p))
		}
	}
	g.log.Info("indicators", append([]any{"tick", g.tick}, attrs...)...)
}
