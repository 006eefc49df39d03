package systems

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/beehive/config"
)

// FlowerSite is a generated flower placement.
type FlowerSite struct {
	Position    r3.Vec
	NectarScale float64 // multiplier on the profile's starting nectar
}

// LayoutGarden places flowers around center. Explicit positions in cfg are
// used as given; otherwise cfg.Count flowers are spread on a ring whose
// radius and starting nectar are jittered by simplex noise.
func LayoutGarden(cfg config.GardenConfig, center r3.Vec, seed int64) []FlowerSite {
	if len(cfg.Flowers) > 0 {
		sites := make([]FlowerSite, len(cfg.Flowers))
		for i, p := range cfg.Flowers {
			sites[i] = FlowerSite{Position: r3.Vec{X: p.X, Y: p.Y, Z: p.Z}, NectarScale: 1}
		}
		return sites
	}
	if cfg.Count <= 0 {
		return nil
	}

	radiusNoise := opensimplex.NewNormalized(seed)
	nectarNoise := opensimplex.NewNormalized(seed + 1)

	sites := make([]FlowerSite, cfg.Count)
	for i := range sites {
		angle := 2 * math.Pi * float64(i) / float64(cfg.Count)
		nx, nz := math.Cos(angle)*cfg.NoiseScale, math.Sin(angle)*cfg.NoiseScale

		// Normalized noise is in [0, 1]; map to [-1, 1]
		jitter := radiusNoise.Eval2(nx, nz)*2 - 1
		r := cfg.RingRadius * (1 + cfg.RadiusNoise*jitter)

		scale := 1 + cfg.NectarNoise*(nectarNoise.Eval2(nx, nz)*2-1)
		sites[i] = FlowerSite{
			Position:    r3.Add(center, r3.Vec{X: math.Cos(angle) * r, Z: math.Sin(angle) * r}),
			NectarScale: math.Max(scale, 0),
		}
	}
	return sites
}

// Bounds returns the XZ extent of the points, padded by margin.
func Bounds(margin float64, points ...r3.Vec) (lo, hi r3.Vec) {
	if len(points) == 0 {
		return r3.Vec{X: -margin, Z: -margin}, r3.Vec{X: margin, Z: margin}
	}
	lo, hi = points[0], points[0]
	for _, p := range points[1:] {
		lo.X, lo.Z = math.Min(lo.X, p.X), math.Min(lo.Z, p.Z)
		hi.X, hi.Z = math.Max(hi.X, p.X), math.Max(hi.Z, p.Z)
	}
	lo.X, lo.Z = lo.X-margin, lo.Z-margin
	hi.X, hi.Z = hi.X+margin, hi.Z+margin
	return lo, hi
}
