// Package raymarch implements the curved-earth ray marcher and terrain/sky
// shading model: given a viewing angle it steps a ray outward from an
// observer, querying an elevation Atlas at each step, and resolves the
// first intersection (or sky) into a Color.
package raymarch

import (
	"math"
	"math/rand"

	"github.com/erikoest/gamlenorge/internal/atlas"
	"github.com/erikoest/gamlenorge/internal/color"
	"github.com/erikoest/gamlenorge/internal/coord"
)

// REarth is the sphere radius used for the curved-earth height model, in
// metres.
const REarth = 6371000.0

// skyHeightCeiling is the elevation, in metres, above which a ray is
// considered to have left the atmosphere rather than grazing terrain — the
// highest mainland terrain this model needs to resolve stays well below it.
const skyHeightCeiling = 2600.0

// horizonRewind is how far a ray steps back, in metres, when it crosses
// into the fine atlas's footprint before that atlas's tile body is loaded.
const horizonRewind = 50.0

// schlickR0 is the normal-incidence reflectance for water (refractive index
// 1.33): ((1.33-1)/(1.33+1))^2.
const schlickR0 = 0.0200593121995248

// Params bundles the per-render tunables that shape terrain classification,
// atmosphere, and water reflection. Field names and semantics mirror the
// configuration surface a caller loads once per run.
type Params struct {
	MinDepth, MaxDepth                 float64
	Haziness, Rayleigh                 float64
	GreenLimit, SnowLimit, WaterLevel  float64
	SkyLum                             float64
	WaterShininess, WaterRipples       float64
	WaterReflectionIterations          int
	DrMin, DrMax, DrFactor             float64
	DrMinRange, DrMaxRange             float64
	SeaMinReflectionAngle              float64
	VerticalAngleCorr                  float64
	R10                                float64
}

// March is the curved-earth ray marcher plus shading model. It holds two
// atlases — a fine-resolution one consulted near the observer, and a
// coarse one used everywhere else and as a fallback — plus the precomputed
// geometry and shading parameters for one render.
type March struct {
	Fine, Coarse *atlas.Atlas
	SunRay       coord.Coord3
	// Observer is the camera position for the whole scene. Water
	// reflection sub-rays need it even though their own ray origin is the
	// water hit point, since the reflection direction is defined relative
	// to the camera, not the hit.
	Observer coord.Coord
	P        Params
}

// Hit is a resolved ray intersection: the ground coordinate and the
// along-ray distance from the ray's own origin (not the observer).
type Hit struct {
	Coord coord.Coord
	Dist  float64
}

// Render traces v_angle from observer (at observer_height above the local
// ellipsoid) towards rayEnd and returns the first terrain intersection, or
// ok=false if the ray reaches max depth or exceeds the sky height ceiling
// first. passedDist is the distance already accumulated by a parent ray
// (nonzero for water-reflection sub-rays).
func (m *March) Render(vAngle, passedDist float64, observer coord.Coord, observerHeight float64, rayEnd coord.Coord) (Hit, bool) {
	r := m.P.MinDepth
	dir := rayEnd.Sub(observer)

	for r < m.P.MaxDepth {
		c := dir.Scale(r / m.P.MaxDepth).Add(observer)
		totalDist := passedDist + r

		beta := r / REarth
		alfa := beta + vAngle
		h := (REarth+observerHeight)*(math.Cos(beta)+math.Sin(beta)*math.Tan(alfa)) - REarth

		if h > skyHeightCeiling {
			return Hit{}, false
		}

		landHeight, found := m.lookupHeight(c, totalDist)
		if found {
			if h < landHeight {
				if totalDist < m.P.R10 {
					if m.Fine.HasTiles(c) && !m.Fine.HasImages(c) {
						_ = m.Fine.LoadImages(c)
						r -= horizonRewind
						if r < m.P.MinDepth {
							r = m.P.MinDepth
						}
						continue
					}
				}
				return Hit{Coord: c, Dist: r}, true
			}
		} else if h < 0.0 {
			// Left every atlas's coverage; assume sea level.
			return Hit{Coord: c, Dist: r}, true
		}

		switch {
		case totalDist < m.P.DrMinRange:
			r += m.P.DrMin
		case totalDist > m.P.DrMaxRange:
			r += m.P.DrMax
		default:
			r += totalDist / m.P.DrFactor
		}
	}

	return Hit{}, false
}

// lookupHeight tries the fine atlas first when close, falling back to the
// coarse atlas — the dual-resolution policy that keeps per-pixel cost low
// far from the observer while staying precise nearby.
func (m *March) lookupHeight(c coord.Coord, totalDist float64) (float64, bool) {
	if totalDist < m.P.R10 {
		if h, err := m.Fine.Lookup(c); err == nil {
			return h, true
		}
	}
	if h, err := m.Coarse.Lookup(c); err == nil {
		return h, true
	}
	return 0, false
}

func (m *March) lookupHeightGradient(c coord.Coord, totalDist float64) (h, dhde, dhdn float64, ok bool) {
	if totalDist < m.P.R10 {
		if h, dhde, dhdn, err := m.Fine.LookupWithGradient(c); err == nil {
			return h, dhde, dhdn, true
		}
	}
	if h, dhde, dhdn, err := m.Coarse.LookupWithGradient(c); err == nil {
		return h, dhde, dhdn, true
	}
	return 0, 0, 0, false
}

// FindColor resolves a ray's outcome (hit or miss) into a final Color.
func (m *March) FindColor(hit Hit, ok bool, passedDist, vAngle float64) color.Color {
	if !ok {
		return m.SkyColor(vAngle)
	}
	return m.LandColor(hit.Dist, passedDist+hit.Dist, vAngle, hit.Coord)
}

// SkyColor shades a ray that left the atmosphere without hitting terrain.
// angle is the ray's vertical viewing angle.
func (m *March) SkyColor(angle float64) color.Color {
	skyLum := 0.1 * m.P.SkyLum

	s := math.Sin(angle + m.P.VerticalAngleCorr)
	lum := math.Exp(skyLum * (1.0 - 1.0/s))
	haze := math.Exp(0.01 * m.P.Haziness * (1.0 - 1.0/s))

	blendedBlue := color.LightSkyBlue.Blend(color.DarkSkyBlue, lum)
	return color.White.Blend(blendedBlue, haze)
}

// LandColor shades a terrain hit, including the recursive water-reflection
// case. dist is the distance from the ray's own origin to the hit and drives
// the atmospheric falloff; totalDist is the accumulated distance from the
// original observer (used to choose the fine or coarse atlas and passed on
// to water-reflection rays); angle is the ray's vertical viewing angle; at is
// the hit coordinate.
func (m *March) LandColor(dist, totalDist, angle float64, at coord.Coord) color.Color {
	var height, dhde, dhdn float64
	if h, dx, dy, ok := m.lookupHeightGradient(at, totalDist); ok {
		height, dhde, dhdn = h, dx, dy
	}

	blueness := math.Exp(-m.P.Rayleigh * 0.00003 * dist)
	whiteness := math.Exp(-m.P.Haziness * 0.000002 * dist)

	grad := dhde*dhde + dhdn*dhdn

	var shaded color.Color
	if height <= m.P.WaterLevel {
		shaded = m.waterColor(dist, angle, at, totalDist)
	} else {
		shaded = m.landSurfaceColor(height, grad, dhde, dhdn)
	}

	blued := color.LandBlue.Blend(shaded, blueness)
	return color.White.Blend(blued, whiteness)
}

func (m *March) landSurfaceColor(height, grad, dhde, dhdn float64) color.Color {
	var landColor, darkColor color.Color

	if height-grad*200.0 > m.P.SnowLimit {
		landColor, darkColor = color.Snow, color.SnowDark
	} else {
		darkColor = color.LandDark
		if height+grad*100.0 > m.P.GreenLimit {
			landColor = color.Rock
		} else if grad > 0.8 {
			landColor = color.Rock
		} else {
			landColor = color.Forest
		}
	}

	// Surface normal of the local plane, with slope components negated so
	// it points "up" out of the terrain; shade is cos(angle) between it
	// and the sun ray, clamped so the far side of the terrain isn't lit.
	g := coord.Coord3{X: -dhde, Y: -dhdn, Z: 1.0}
	light := g.Dot(m.SunRay) / g.Abs()
	if light < 0 {
		light = 0
	}

	return darkColor.Blend(landColor, light)
}

func (m *March) waterColor(dist, angle float64, at coord.Coord, totalDist float64) color.Color {
	rAngle := dist/REarth - angle
	if rAngle < m.P.SeaMinReflectionAngle {
		rAngle = m.P.SeaMinReflectionAngle
	}

	seamix := color.Sea
	n := m.P.WaterReflectionIterations
	if n > 0 && m.P.WaterShininess != 0.0 {
		re2 := m.reflectionEndpoint(at)
		seamix = color.Sea.Blend(m.averageReflection(at, re2, rAngle, totalDist), m.P.WaterShininess)
	}

	r := schlickR0 + (1.0-schlickR0)*math.Pow(1.0-math.Cos(0.5*math.Pi-rAngle), 5)
	return seamix.Scale(r)
}

// averageReflection casts n fuzzed reflection rays off a water surface hit
// and averages their shaded colour — the recursive part of water shading.
func (m *March) averageReflection(at, re2 coord.Coord, rAngle, totalDist float64) color.Color {
	n := m.P.WaterReflectionIterations
	afuzz := 0.01 * m.P.WaterRipples
	rangeA := afuzz * 0.5 * math.Pi

	var acc color.Color
	for i := 0; i < n; i++ {
		rafuzz := rand.Float64()*rangeA + rAngle*(1.0-afuzz)
		hit, ok := m.Render(rafuzz, totalDist, at, m.P.WaterLevel+1.0, re2)
		acc = acc.Add(m.FindColor(hit, ok, totalDist, rafuzz))
	}
	return acc.Scale(1.0 / float64(n))
}

// reflectionEndpoint extends the ray from the scene observer through the
// water-surface hit point out to max depth, giving Render a far endpoint to
// aim the reflection sub-ray at.
func (m *March) reflectionEndpoint(at coord.Coord) coord.Coord {
	re1 := at.Sub(m.Observer)
	d := re1.Abs()
	if d == 0 {
		return at
	}
	return re1.Scale(m.P.MaxDepth / d).Add(at)
}
