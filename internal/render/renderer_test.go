package render

import (
	"math"
	"testing"

	"github.com/erikoest/gamlenorge/internal/atlas"
	"github.com/erikoest/gamlenorge/internal/config"
	"github.com/erikoest/gamlenorge/internal/coord"
	"github.com/erikoest/gamlenorge/internal/raymarch"
)

// bigFlatTile returns a synthetic atlas with a single flat tile, large
// enough to cover every observer/target pair these tests use.
func bigFlatTile(height float64) *atlas.Atlas {
	return atlas.NewSynthetic([]atlas.SyntheticTile{
		{MinE: -200000, MinN: -200000, MaxE: 200000, MaxN: 200000, Height: height, PixelSize: 1000},
	})
}

func testConfig(observer, target string, observerOffset, targetOffset float64) config.Config {
	cfg := config.Defaults()
	cfg.Observer = observer
	cfg.Target = target
	cfg.ObserverHeightOffset = observerOffset
	cfg.TargetHeightOffset = targetOffset
	cfg.Width = 2
	cfg.Height = 1
	cfg.WidthAngle = 0.1
	cfg.MinDepth = 0
	cfg.MaxDepth = 150000
	cfg.WaterReflectionIterations = 0
	return cfg
}

// Scenario 1: flat sea, empty atlas, looking due east at the local
// tangent (observer height 0 means the curvature dip correction is itself
// 0) — the pixel must be sky coloured.
func TestScenarioFlatSeaEmptyAtlas(t *testing.T) {
	empty := atlas.NewSynthetic(nil)
	cfg := testConfig("0,0", "1000,0", 0, 0)
	cfg.Width, cfg.Height = 1, 1
	cfg.MaxDepth = 1000

	r, err := New(cfg, empty, empty)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if r.observerHeight != 0 {
		t.Fatalf("expected observer height 0 over an empty atlas, got %v", r.observerHeight)
	}

	const vAngle = 0.0 // due east at the local tangent, given observer height 0
	rayEnd := coord.FromPolar(cfg.MaxDepth, r.horizontalMiddleAngle).Add(r.observer)
	hit, ok := r.march.Render(vAngle, 0, r.observer, r.observerHeight, rayEnd)
	if ok {
		t.Fatalf("expected sky miss over an empty atlas, got hit %+v", hit)
	}
	col := r.march.FindColor(hit, ok, 0, vAngle)
	sky := r.march.SkyColor(vAngle)
	if col != sky {
		t.Errorf("expected sky colour %+v, got %+v", sky, col)
	}
}

// Scenario 2/3: a single flat tile at sea level produces the water path;
// the same geometry over a tile well above water_level produces the land
// path, and two pixels looking at slightly different bearings over the
// same flat tile agree with each other. A clearly downward pitch is used
// directly (rather than a Renderer-computed middle angle aimed at a
// floating target point) so the ray is guaranteed to reach the ground
// well inside max_depth regardless of curvature subtleties.
func TestScenarioFlatTileWaterVsLand(t *testing.T) {
	const vAngle = -0.05
	const observerHeightOffset = 10.0
	const maxDepth = 150000.0

	renderBothPixels := func(t *testing.T, tileHeight float64) [2][3]float64 {
		t.Helper()
		a := bigFlatTile(tileHeight)
		m := &raymarch.March{
			Fine:     a,
			Coarse:   a,
			Observer: coord.Coord{},
			P:        baseRayParams(maxDepth),
		}

		var colours [2][3]float64
		for x, hAngle := range [2]float64{-0.01, 0.01} {
			rayEnd := coord.FromPolar(maxDepth, hAngle)
			hit, ok := m.Render(vAngle, 0, coord.Coord{}, tileHeight+observerHeightOffset, rayEnd)
			if !ok {
				t.Fatalf("pixel %d: expected a ground hit over a flat tile", x)
			}
			col := m.FindColor(hit, ok, 0, vAngle)
			colours[x] = [3]float64{col.R, col.G, col.B}
		}
		if colours[0] != colours[1] {
			t.Errorf("expected both pixels over a flat tile to match: %v vs %v", colours[0], colours[1])
		}
		return colours
	}

	sea := renderBothPixels(t, 0)
	land := renderBothPixels(t, 500)

	if sea == land {
		t.Errorf("expected the water path (height=0) and land path (height=500) to shade differently")
	}
}

// baseRayParams mirrors the classification/atmosphere defaults in
// config.Defaults, for tests that drive raymarch.March directly.
func baseRayParams(maxDepth float64) raymarch.Params {
	widthAngle := 0.6
	width := 1600.0
	drFactor := width / (3.0 * math.Tan(widthAngle))
	drMin, drMax := 0.9, 30.0
	return raymarch.Params{
		MinDepth:                  0,
		MaxDepth:                  maxDepth,
		Haziness:                  0.7,
		Rayleigh:                  1,
		GreenLimit:                800,
		SnowLimit:                 1100,
		WaterLevel:                0,
		SkyLum:                    1,
		WaterShininess:            0.5,
		WaterRipples:              1,
		WaterReflectionIterations: 0,
		DrMin:                     drMin,
		DrMax:                     drMax,
		DrFactor:                  drFactor,
		DrMinRange:                drMin * drFactor,
		DrMaxRange:                drMax * drFactor,
		SeaMinReflectionAngle:     0.5 * math.Pi / 180.0,
		VerticalAngleCorr:         0,
		R10:                       8 * drFactor, // arbitrary for a single-atlas test; Fine==Coarse here
	}
}

// Scenario 4: curvature hiding. At low observer height a distant flat
// target is below the curved horizon: the central ray meets the ground
// well before the target's distance. Raising the observer exposes it: the
// central ray travels past the target before meeting the ground.
func TestScenarioCurvatureHiding(t *testing.T) {
	a := bigFlatTile(0)
	cfgLow := testConfig("0,0", "100000,0", 10, 10)
	cfgLow.MaxDepth = 150000

	rLow, err := New(cfgLow, a, a)
	if err != nil {
		t.Fatalf("New (low): %v", err)
	}
	rayEndLow := coord.FromPolar(cfgLow.MaxDepth, rLow.horizontalMiddleAngle).Add(rLow.observer)
	lowHit, lowOK := rLow.march.Render(rLow.verticalMiddleAngle, 0, rLow.observer, rLow.observerHeight, rayEndLow)

	cfgHigh := testConfig("0,0", "100000,0", 1000, 10)
	rHigh, err := New(cfgHigh, a, a)
	if err != nil {
		t.Fatalf("New (high): %v", err)
	}
	rayEndHigh := coord.FromPolar(cfgHigh.MaxDepth, rHigh.horizontalMiddleAngle).Add(rHigh.observer)
	highHit, highOK := rHigh.march.Render(rHigh.verticalMiddleAngle, 0, rHigh.observer, rHigh.observerHeight, rayEndHigh)

	const targetDist = 100000.0
	lowReaches := !lowOK || lowHit.Dist >= targetDist
	highReaches := !highOK || highHit.Dist >= targetDist
	if lowReaches || !highReaches {
		t.Errorf("expected earth curvature to change whether the central ray reaches the target as observer height rises from 10m to 1000m (low reaches=%v dist=%.0f, high reaches=%v dist=%.0f)", lowReaches, lowHit.Dist, highReaches, highHit.Dist)
	}
}

// Scenario 6: horizon mode returns the coordinate of the first terrain hit
// along the central bearing.
func TestScenarioFindHorizon(t *testing.T) {
	a := bigFlatTile(0)
	cfg := testConfig("0,0", "100000,0", 1000, 10)
	cfg.Width, cfg.Height = 1, 50

	r, err := New(cfg, a, a)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	hit, err := r.FindHorizon()
	if err != nil {
		t.Fatalf("FindHorizon: %v", err)
	}
	if math.IsNaN(hit.E) || math.IsNaN(hit.N) {
		t.Errorf("FindHorizon returned NaN coordinate: %+v", hit)
	}
}

func TestHorizontalMiddleAngleQuadrants(t *testing.T) {
	cases := []struct {
		name             string
		observer, target coord.Coord
		want             float64
	}{
		{"due_east", coord.Coord{}, coord.Coord{E: 1, N: 0}, 0},
		{"due_north", coord.Coord{}, coord.Coord{E: 0, N: 1}, math.Pi / 2},
		{"due_west", coord.Coord{}, coord.Coord{E: -1, N: 0}, math.Pi},
		{"due_south", coord.Coord{}, coord.Coord{E: 0, N: -1}, -math.Pi / 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := horizontalMiddleAngle(c.observer, c.target)
			if math.Abs(got-c.want) > 1e-9 {
				t.Errorf("horizontalMiddleAngle(%v, %v) = %v, want %v", c.observer, c.target, got, c.want)
			}
		})
	}
}

func TestVerticalMiddleAngleEqualHeightsDipsByHalfBeta(t *testing.T) {
	// For equal observer/target heights, two points at the same radius on
	// a circle are joined by a chord that tilts down from the observer's
	// local tangent by exactly half the subtended angle (beta/2): this
	// follows from the half-angle identity (1-cos(beta))/sin(beta) =
	// tan(beta/2) applied to the curvature formula.
	dist := 50000.0
	beta := dist / raymarch.REarth
	got := verticalMiddleAngle(coord.Coord{}, coord.Coord{E: dist, N: 0}, 100, 100)
	want := -beta / 2
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("verticalMiddleAngle for equal heights = %v, want %v", got, want)
	}
}
