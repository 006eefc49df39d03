package systems

import (
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/beehive/components"
	"github.com/pthm-cable/beehive/config"
	"github.com/pthm-cable/beehive/nectar"
)

func init() {
	config.MustInit("")
}

func TestSpatialGrid_QueryRadius(t *testing.T) {
	w := ecs.NewWorld()
	posMap := ecs.NewMap1[components.Position](w)
	grid := NewSpatialGrid(r3.Vec{X: -50, Z: -50}, r3.Vec{X: 50, Z: 50}, 8)

	near := posMap.NewEntity(&components.Position{X: 3, Z: 4})
	far := posMap.NewEntity(&components.Position{X: 30, Z: 0})
	outside := posMap.NewEntity(&components.Position{X: 500, Z: 500}) // clamped into a border cell

	grid.Clear()
	for _, e := range []ecs.Entity{near, far, outside} {
		grid.Insert(e, posMap.Get(e).Vec())
	}

	got := grid.QueryRadiusInto(nil, r3.Vec{}, 5, ecs.Entity{}, posMap)
	if len(got) != 1 || got[0].E != near {
		t.Fatalf("expected only the near entity, got %d neighbors", len(got))
	}
	if math.Abs(got[0].DistSq-25) > 1e-9 {
		t.Errorf("expected DistSq 25, got %f", got[0].DistSq)
	}

	got = grid.QueryRadiusInto(got[:0], r3.Vec{X: 28}, 2, ecs.Entity{}, posMap)
	if len(got) != 1 || got[0].E != far {
		t.Fatalf("expected far entity within 2 of (28,0,0), got %d neighbors", len(got))
	}
	if d := got[0].Delta; d != (r3.Vec{X: 2}) {
		t.Errorf("delta = %v, want (2,0,0)", d)
	}

	// Clamped into the corner cell but tested against its true position
	if got := grid.QueryRadiusInto(nil, r3.Vec{X: 50, Z: 50}, 10, ecs.Entity{}, posMap); len(got) != 0 {
		t.Errorf("clamped entity reported near the corner: %d neighbors", len(got))
	}
}

func TestSpatialGrid_ExcludeAndClear(t *testing.T) {
	w := ecs.NewWorld()
	posMap := ecs.NewMap1[components.Position](w)
	grid := NewSpatialGrid(r3.Vec{}, r3.Vec{X: 16, Z: 16}, 4)

	a := posMap.NewEntity(&components.Position{X: 1, Z: 1})
	b := posMap.NewEntity(&components.Position{X: 2, Z: 1})
	grid.Insert(a, posMap.Get(a).Vec())
	grid.Insert(b, posMap.Get(b).Vec())

	got := grid.QueryRadiusInto(nil, r3.Vec{X: 1, Z: 1}, 3, a, posMap)
	if len(got) != 1 || got[0].E != b {
		t.Errorf("expected only b with a excluded, got %d", len(got))
	}

	grid.Clear()
	if got := grid.QueryRadiusInto(got[:0], r3.Vec{X: 1, Z: 1}, 3, ecs.Entity{}, posMap); len(got) != 0 {
		t.Errorf("expected empty grid after Clear, got %d", len(got))
	}
}

func TestStep(t *testing.T) {
	tests := []struct {
		name     string
		from, to r3.Vec
		maxStep  float64
		stop     float64
		want     r3.Vec
		arrived  bool
	}{
		{"partial", r3.Vec{}, r3.Vec{X: 10}, 2, 0.5, r3.Vec{X: 2}, false},
		{"lands at stopping distance", r3.Vec{X: 8}, r3.Vec{X: 10}, 5, 0.5, r3.Vec{X: 9.5}, true},
		{"already inside", r3.Vec{X: 9.8}, r3.Vec{X: 10}, 5, 0.5, r3.Vec{X: 9.8}, true},
		{"exact", r3.Vec{}, r3.Vec{Z: 3}, 3, 0, r3.Vec{Z: 3}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, arrived := Step(tt.from, tt.to, tt.maxStep, tt.stop)
			if r3.Norm(r3.Sub(got, tt.want)) > 1e-9 || arrived != tt.arrived {
				t.Errorf("Step = %v,%v; want %v,%v", got, arrived, tt.want, tt.arrived)
			}
		})
	}
}

func TestMovementSystem(t *testing.T) {
	w := ecs.NewWorld()
	mapper := ecs.NewMap2[components.Position, components.Nav](w)
	moving := mapper.NewEntity(
		&components.Position{},
		&components.Nav{Destination: r3.Vec{X: 10}, Speed: 4, StoppingDistance: 0.5, Active: true},
	)
	idle := mapper.NewEntity(
		&components.Position{X: 1},
		&components.Nav{Destination: r3.Vec{X: 10}, Speed: 4},
	)

	ms := NewMovementSystem(w)
	if n := ms.Update(0.5); n != 1 {
		t.Errorf("moved %d entities, want 1", n)
	}

	posMap := ecs.NewMap1[components.Position](w)
	if p := posMap.Get(moving); math.Abs(p.X-2) > 1e-9 {
		t.Errorf("expected mover at x=2, got %f", p.X)
	}
	if p := posMap.Get(idle); p.X != 1 {
		t.Errorf("inactive nav moved to x=%f", p.X)
	}

	for i := 0; i < 20; i++ {
		ms.Update(0.5)
	}
	if p := posMap.Get(moving); math.Abs(p.X-9.5) > 1e-9 {
		t.Errorf("expected mover to stop at x=9.5, got %f", p.X)
	}
}

func TestNectarSystem_SkipsStalled(t *testing.T) {
	w := ecs.NewWorld()
	nectarMap := ecs.NewMap1[components.Nectar](w)

	tmpl := nectar.Template{Name: "store", Kind: nectar.KindHub, Capacity: 100, Start: 50, Decay: true, DecayRate: 2}
	live := nectar.NewProfile(tmpl)
	stalled := nectar.NewProfile(tmpl)
	detached := nectar.NewProfile(tmpl)
	detached.Detach()

	nectarMap.NewEntity(&components.Nectar{Profile: live})
	nectarMap.NewEntity(&components.Nectar{Profile: stalled, Stall: func() bool { return true }})
	nectarMap.NewEntity(&components.Nectar{Profile: detached})

	n := NewNectarSystem(w).Update(1)
	if n != 1 {
		t.Errorf("expected 1 profile integrated, got %d", n)
	}
	if live.Quantity() != 48 {
		t.Errorf("expected live profile to decay to 48, got %f", live.Quantity())
	}
	if stalled.Quantity() != 50 || detached.Quantity() != 50 {
		t.Errorf("stalled/detached profiles changed: %f/%f", stalled.Quantity(), detached.Quantity())
	}
}

func TestLayoutGarden_Generated(t *testing.T) {
	cfg := config.Cfg().Garden
	center := r3.Vec{X: 5, Z: -5}

	a := LayoutGarden(cfg, center, 7)
	b := LayoutGarden(cfg, center, 7)
	if len(a) != cfg.Count {
		t.Fatalf("expected %d flowers, got %d", cfg.Count, len(a))
	}

	lo := cfg.RingRadius * (1 - cfg.RadiusNoise)
	hi := cfg.RingRadius * (1 + cfg.RadiusNoise)
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("flower %d differs between runs with the same seed", i)
		}
		r := r3.Norm(r3.Sub(a[i].Position, center))
		if r < lo-1e-9 || r > hi+1e-9 {
			t.Errorf("flower %d at radius %f, want [%f, %f]", i, r, lo, hi)
		}
		if a[i].NectarScale < 1-cfg.NectarNoise-1e-9 || a[i].NectarScale > 1+cfg.NectarNoise+1e-9 {
			t.Errorf("flower %d nectar scale %f out of range", i, a[i].NectarScale)
		}
	}
}

func TestLayoutGarden_Explicit(t *testing.T) {
	cfg := config.GardenConfig{Count: 9, Flowers: []config.Point{{X: 1, Z: 2}, {X: -3, Z: 4}}}
	sites := LayoutGarden(cfg, r3.Vec{}, 1)
	if len(sites) != 2 {
		t.Fatalf("expected explicit flowers to win, got %d sites", len(sites))
	}
	if sites[1].Position != (r3.Vec{X: -3, Z: 4}) || sites[1].NectarScale != 1 {
		t.Errorf("unexpected site %+v", sites[1])
	}
}

func TestBounds(t *testing.T) {
	lo, hi := Bounds(2, r3.Vec{X: 1, Z: -4}, r3.Vec{X: -3, Z: 6})
	if lo != (r3.Vec{X: -5, Z: -6}) || hi != (r3.Vec{X: 3, Z: 8}) {
		t.Errorf("Bounds = %v, %v", lo, hi)
	}
}
