// Package render assembles a raymarch.March with precomputed camera
// geometry into the full per-pixel and per-scanline render loop, following
// the same job-channel worker pool shape the DEM tile pipeline uses.
package render

import (
	"fmt"
	"image"
	stdcolor "image/color"
	"math"
	"os"
	"runtime"
	"sync"

	"github.com/erikoest/gamlenorge/internal/atlas"
	domcolor "github.com/erikoest/gamlenorge/internal/color"
	"github.com/erikoest/gamlenorge/internal/config"
	"github.com/erikoest/gamlenorge/internal/coord"
	"github.com/erikoest/gamlenorge/internal/raymarch"
	"github.com/erikoest/gamlenorge/internal/sunpos"
)

// Renderer holds the ray marcher plus the per-run camera frame computed
// once from Config: observer/target ground heights, horizontal and
// vertical middle angles (including earth-curvature correction), adaptive
// step parameters, and the sun direction.
type Renderer struct {
	march *raymarch.March
	cfg   config.Config

	observer       coord.Coord
	observerHeight float64
	focusDepth     float64

	horizontalMiddleAngle float64
	verticalMiddleAngle   float64

	concurrency int
}

// New precomputes a Renderer's camera frame from cfg against the given
// fine (1 m class) and coarse (10 m class) atlases.
func New(cfg config.Config, fine, coarse *atlas.Atlas) (*Renderer, error) {
	observer, err := config.ParseCoord(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("observer: %w", err)
	}
	target, err := config.ParseCoord(cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}

	az, alt, err := sunpos.Position(cfg.Time, observer)
	if err != nil {
		return nil, fmt.Errorf("sun position: %w", err)
	}
	sunRay := coord.Coord3{X: 0, Y: 1, Z: 0}.RotE(alt).RotH(-az)

	observerHeight, err := groundHeight(coarse, observer)
	if err != nil {
		return nil, fmt.Errorf("looking up observer height: %w", err)
	}
	observerHeight += cfg.ObserverHeightOffset

	targetHeight, err := groundHeight(coarse, target)
	if err != nil {
		return nil, fmt.Errorf("looking up target height: %w", err)
	}
	targetHeight += cfg.TargetHeightOffset

	hMiddle := horizontalMiddleAngle(observer, target)
	vMiddle := verticalMiddleAngle(observer, target, observerHeight, targetHeight)

	vAngleCorr := math.Acos(raymarch.REarth / (raymarch.REarth + observerHeight))

	drMin, drMax := 0.9, 30.0
	drFactor := float64(cfg.Width) / (3.0 * math.Tan(cfg.WidthAngle))
	focusDepth := float64(cfg.Width) / (2.0 * math.Tan(cfg.WidthAngle))
	r10 := 8.0 * focusDepth

	march := &raymarch.March{
		Fine:     fine,
		Coarse:   coarse,
		SunRay:   sunRay,
		Observer: observer,
		P: raymarch.Params{
			MinDepth:                  cfg.MinDepth,
			MaxDepth:                  cfg.MaxDepth,
			Haziness:                  cfg.Haziness,
			Rayleigh:                  cfg.Rayleigh,
			GreenLimit:                cfg.GreenLimit,
			SnowLimit:                 cfg.SnowLimit,
			WaterLevel:                cfg.WaterLevel,
			SkyLum:                    cfg.SkyLum,
			WaterShininess:            cfg.WaterShininess,
			WaterRipples:              cfg.WaterRipples,
			WaterReflectionIterations: cfg.WaterReflectionIterations,
			DrMin:                     drMin,
			DrMax:                     drMax,
			DrFactor:                  drFactor,
			DrMinRange:                drMin * drFactor,
			DrMaxRange:                drMax * drFactor,
			SeaMinReflectionAngle:     0.5 * math.Pi / 180.0,
			VerticalAngleCorr:         vAngleCorr,
			R10:                       r10,
		},
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	return &Renderer{
		march:                 march,
		cfg:                   cfg,
		observer:              observer,
		observerHeight:        observerHeight,
		focusDepth:            focusDepth,
		horizontalMiddleAngle: hMiddle,
		verticalMiddleAngle:   vMiddle,
		concurrency:           concurrency,
	}, nil
}

// groundHeight looks up c's elevation, treating "no tile covers this
// coordinate" the same way the ray marcher treats leaving the map: sea
// level (0m), not a fatal error. This is what lets a Renderer be
// constructed over an atlas with no DEM coverage at all — scenario 1, a
// bare sky render with no tiles — rather than failing at construction.
// Any other failure (e.g. a covered tile that can't be read) still
// propagates.
func groundHeight(a *atlas.Atlas, c coord.Coord) (float64, error) {
	h, err := a.Lookup(c)
	if err == nil {
		return h, nil
	}
	if _, noTile := err.(*atlas.ErrNoTileForCoord); noTile {
		return 0, nil
	}
	return 0, err
}

// horizontalMiddleAngle is the bearing from observer to target, in
// (-π, π], using the same two-branch formulation as the reference
// renderer to avoid the atan() quadrant ambiguity near the axes.
func horizontalMiddleAngle(observer, target coord.Coord) float64 {
	diff := target.Sub(observer)

	if math.Abs(diff.E) > math.Abs(diff.N) {
		angle := math.Atan(diff.N / diff.E)
		if diff.E < 0 {
			if angle <= 0 {
				angle += math.Pi
			} else {
				angle -= math.Pi
			}
		}
		return angle
	}

	angle := 0.5*math.Pi - math.Atan(diff.E/diff.N)
	if diff.N < 0 {
		angle -= math.Pi
	}
	return angle
}

// verticalMiddleAngle is the pitch from observer to target including earth
// curvature between their ground heights.
func verticalMiddleAngle(observer, target coord.Coord, observerHeight, targetHeight float64) float64 {
	beta := target.Sub(observer).Abs() / raymarch.REarth
	ro := observerHeight + raymarch.REarth
	rt := targetHeight + raymarch.REarth
	x := ro * math.Sin(beta)
	y := math.Sqrt(ro*ro - x*x)
	return math.Atan((rt-y)/x) - beta
}

// rayAngles returns the vertical and horizontal viewing angle for pixel
// (x, y) of a width x height image.
func (r *Renderer) rayAngles(x, y, width, height int) (vAngle, hAngle float64) {
	vAngle = r.verticalMiddleAngle + math.Atan((float64(height)/2.0-float64(y))/r.focusDepth)
	hAngle = r.horizontalMiddleAngle + math.Atan((float64(width)/2.0-float64(x))/r.focusDepth)
	return
}

// Render produces the full width x height image and hands it to encode for
// output (e.g. the TIFF writer in internal/encode).
func (r *Renderer) Render(encode func(img *image.RGBA, path string) error) error {
	width, height := r.cfg.Width, r.cfg.Height
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	progress := NewProgressReporter("rendering", int64(height))

	jobs := make(chan int, r.concurrency*2)
	var wg sync.WaitGroup
	for w := 0; w < r.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := range jobs {
				r.renderRow(img, y, width, height)
				progress.Increment()
			}
		}()
	}

	for y := 0; y < height; y++ {
		jobs <- y
	}
	close(jobs)
	wg.Wait()
	progress.Finish()

	if err := encode(img, r.cfg.Output); err != nil {
		return fmt.Errorf("saving %s: %w", r.cfg.Output, err)
	}
	fmt.Fprintf(os.Stderr, "Saved image to %s\n", r.cfg.Output)
	return nil
}

func (r *Renderer) renderRow(img *image.RGBA, y, width, height int) {
	vAngle, _ := r.rayAngles(0, y, width, height)

	for x := 0; x < width; x++ {
		_, hAngle := r.rayAngles(x, y, width, height)
		rayEnd := coord.FromPolar(r.cfg.MaxDepth, hAngle).Add(r.observer)

		hit, ok := r.march.Render(vAngle, 0, r.observer, r.observerHeight, rayEnd)
		c := r.march.FindColor(hit, ok, 0, vAngle)
		img.Set(x, y, toStdColor(c))
	}
}

func toStdColor(c domcolor.Color) stdcolor.Color {
	rr, gg, bb := c.RGB8()
	return stdcolor.RGBA{R: rr, G: gg, B: bb, A: 255}
}

// ElevationProfile samples ground elevation at n evenly spaced points from
// the observer out to max_depth along the central bearing, consulting
// whichever atlas (fine near the observer, coarse beyond R10) the ray
// marcher itself would use at that distance. It is independent of the
// shading model entirely — a bare terrain cross-section, for the horizon
// command's -profile diagnostic dump rather than for rendering.
func (r *Renderer) ElevationProfile(n int) []float64 {
	if n < 2 {
		n = 2
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		dist := r.cfg.MaxDepth * float64(i) / float64(n-1)
		c := coord.FromPolar(dist, r.horizontalMiddleAngle).Add(r.observer)

		h, err := r.march.Coarse.Lookup(c)
		if dist <= r.march.P.R10 {
			if fh, ferr := r.march.Fine.Lookup(c); ferr == nil {
				h, err = fh, nil
			}
		}
		if err != nil {
			h = r.cfg.WaterLevel
		}
		out[i] = h
	}
	return out
}

// FindHorizon scans scanlines top to bottom along the central bearing and
// returns the coordinate of the first terrain hit — used by the horizon
// command to report where the line of sight to the target first meets the
// ground.
func (r *Renderer) FindHorizon() (coord.Coord, error) {
	for y := 0; y < r.cfg.Height; y++ {
		vAngle, _ := r.rayAngles(0, y, r.cfg.Width, r.cfg.Height)
		rayEnd := coord.FromPolar(r.cfg.MaxDepth, r.horizontalMiddleAngle).Add(r.observer)

		hit, ok := r.march.Render(vAngle, 0, r.observer, r.observerHeight, rayEnd)
		if ok {
			return hit.Coord, nil
		}
	}
	return coord.Coord{}, fmt.Errorf("horizon not found")
}
