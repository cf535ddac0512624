package raymarch

import (
	"math"
	"testing"

	"github.com/erikoest/gamlenorge/internal/atlas"
	"github.com/erikoest/gamlenorge/internal/coord"
)

func flatAtlas(t *testing.T, value float64) *atlas.Atlas {
	t.Helper()
	// An Atlas with no tiles always misses Lookup, which March treats as
	// "left the map, assume sea level" — sufficient for flat-sea tests
	// without needing a real tile file on disk.
	a, err := atlas.NewFromDirectory(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewFromDirectory: %v", err)
	}
	_ = value
	return a
}

func baseParams() Params {
	drFactor := 1600.0 / (3.0 * math.Tan(0.6))
	return Params{
		MinDepth:                  0,
		MaxDepth:                  150000,
		Haziness:                  0.7,
		Rayleigh:                  1,
		GreenLimit:                800,
		SnowLimit:                 1100,
		WaterLevel:                0,
		SkyLum:                    1,
		WaterShininess:            0.5,
		WaterRipples:              1,
		WaterReflectionIterations: 0,
		DrMin:                     0.9,
		DrMax:                     30.0,
		DrFactor:                  drFactor,
		DrMinRange:                0.9 * drFactor,
		DrMaxRange:                30.0 * drFactor,
		SeaMinReflectionAngle:     0.5 * math.Pi / 180.0,
		VerticalAngleCorr:         0,
		R10:                       1000,
	}
}

func TestRenderFlatSeaMisses(t *testing.T) {
	a := flatAtlas(t, 0)
	m := &March{Fine: a, Coarse: a, P: baseParams()}

	observer := coord.Coord{E: 0, N: 0}
	rayEnd := coord.FromPolar(150000, 0).Add(observer)

	// A ray aimed well above the horizon should miss (h > 0 is satisfied
	// immediately since there is no land to fall below).
	_, ok := m.Render(0.1, 0, observer, 0, rayEnd)
	if ok {
		t.Errorf("expected ray aimed upward over an empty atlas to miss")
	}
}

func TestRenderDownwardHitsSeaLevel(t *testing.T) {
	a := flatAtlas(t, 0)
	m := &March{Fine: a, Coarse: a, P: baseParams()}

	observer := coord.Coord{E: 0, N: 0}
	rayEnd := coord.FromPolar(150000, 0).Add(observer)

	hit, ok := m.Render(-0.01, 0, observer, 10, rayEnd)
	if !ok {
		t.Fatalf("expected downward ray over empty atlas to hit sea level")
	}
	if hit.Dist <= 0 {
		t.Errorf("hit distance = %v, want > 0", hit.Dist)
	}
}

func TestSkyColorVariesWithAngle(t *testing.T) {
	a := flatAtlas(t, 0)
	m := &March{Fine: a, Coarse: a, P: baseParams()}

	horizon := m.SkyColor(0.01)
	zenith := m.SkyColor(math.Pi / 2)

	// Near the horizon the colour blends towards light sky blue and white
	// haze; at the zenith it is dark sky blue.
	if horizon == zenith {
		t.Errorf("expected sky colour to vary with angle")
	}
}

// TestRenderPromotesToFineResolutionOnce is scenario 5 (spec.md §8): the
// coarse atlas covers the whole ray path; the fine atlas has one tile that
// shares the hit point's coarse cell but does not itself cover the hit
// point (it sits further along the ray), and starts unloaded. The first
// detection inside r10 must trigger exactly one LoadImages rewind (loading
// every candidate sharing the cell, per spec.md §4.3, not just ones that
// cover the probe point) and then resolve the hit a few small adaptive
// steps later, landing within 50m plus a handful of step sizes of the
// first detection.
func TestRenderPromotesToFineResolutionOnce(t *testing.T) {
	const groundHeight = 50.0
	const observerHeight = 100.0
	const vAngle = -0.05

	coarse := atlas.NewSynthetic([]atlas.SyntheticTile{
		{MinE: 0, MinN: -1000, MaxE: 10000, MaxN: 1000, Height: groundHeight, PixelSize: 10},
	})
	fine := atlas.NewSynthetic([]atlas.SyntheticTile{
		// Shares the probe's coarse cell (10km cells) but its bbox starts
		// well past where the ray first crosses the terrain.
		{MinE: 3000, MinN: -1000, MaxE: 4000, MaxN: 1000, Height: groundHeight, PixelSize: 1, Lazy: true},
	})

	// Grab the lone fine tile via a probe lookup to assert load state
	// before/after without reaching into atlas internals.
	probeBeforeHit := coord.Coord{E: 1000, N: 0}
	if fine.HasImages(probeBeforeHit) {
		t.Fatalf("fine atlas reports images loaded before any render")
	}

	p := baseParams()
	p.R10 = 5000
	p.MaxDepth = 10000
	m := &March{Fine: fine, Coarse: coarse, P: p}

	observer := coord.Coord{E: 0, N: 0}
	rayEnd := coord.FromPolar(p.MaxDepth, 0).Add(observer)

	hit, ok := m.Render(vAngle, 0, observer, observerHeight, rayEnd)
	if !ok {
		t.Fatalf("expected ray to hit the flat coarse-covered terrain")
	}

	// The ray travels due east, so hit.Coord.E tracks along-ray distance;
	// the crossing (linearized) happens near observerHeight/-vAngle =
	// 2000m... but the terrain is flat at groundHeight, so the true
	// crossing is where h(r) first drops below groundHeight, well short
	// of the fine tile's 3000m start — bound loosely.
	if hit.Coord.E >= 3000 {
		t.Fatalf("expected hit before entering the fine tile's bbox (E=%v), got E=%v", 3000.0, hit.Coord.E)
	}

	if !fine.HasImages(probeBeforeHit) {
		t.Errorf("expected the fine tile sharing the hit's coarse cell to be loaded after render, even though its bbox never covered the hit point")
	}
}

func TestWaterColorUsesMinReflectionAngleFloor(t *testing.T) {
	a := flatAtlas(t, 0)
	p := baseParams()
	m := &March{Fine: a, Coarse: a, P: p}

	// dist/R_EARTH - angle is negative here, so the floor must apply and
	// the call must not panic or produce NaN.
	c := m.waterColor(100, 1.5, coord.Coord{E: 1000, N: 0}, 100)
	if math.IsNaN(c.R) || math.IsNaN(c.G) || math.IsNaN(c.B) {
		t.Errorf("waterColor produced NaN: %+v", c)
	}
}
