// Package config loads the typed configuration surface shared by every
// gamlenorge command: INI file defaults overridden by command-line flags,
// following the layering teacher tools use (flag.FlagSet plus an explicit
// file-or-default path), adapted here for a third source (an INI
// [default] section) underneath the flags.
package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/erikoest/gamlenorge/internal/coord"
)

// Config is every tunable a render, horizon, or sun command needs. Field
// names and defaults mirror the reference renderer's configuration
// surface; Observer/Target stay strings since they may name either a
// projected coordinate pair or a symbolic place name (resolving the latter
// is outside this package's scope — see ParseCoord).
type Config struct {
	Maps     string
	Observer string
	Target   string

	Width      int
	Height     int
	WidthAngle float64

	MinDepth float64
	MaxDepth float64

	ObserverHeightOffset float64
	TargetHeightOffset   float64

	GreenLimit float64
	SnowLimit  float64
	WaterLevel float64

	Haziness float64
	SkyLum   float64
	Rayleigh float64

	WaterShininess            float64
	WaterRipples              float64
	WaterReflectionIterations int

	Time   string
	Output string

	// Headless is accepted for config-surface compatibility with the
	// reference renderer but has no effect here: this module never opens
	// an interactive display window, so there is nothing to suppress.
	Headless bool

	// Concurrency is the number of row-worker goroutines the Renderer
	// fans out across. 0 means "use runtime.NumCPU()".
	Concurrency int
}

// Defaults returns the built-in configuration, matching the reference
// renderer's factory defaults.
func Defaults() Config {
	return Config{
		Maps:                       "/media/ekstern/hoydedata",
		Observer:                   "Nordre Trolltind",
		Target:                     "Store Vengetind",
		ObserverHeightOffset:       10,
		TargetHeightOffset:         10,
		Width:                      1600,
		Height:                     200,
		WidthAngle:                 0.6,
		MinDepth:                   0,
		MaxDepth:                   150000,
		Haziness:                   0.7,
		GreenLimit:                 800,
		SnowLimit:                  1100,
		WaterLevel:                 0,
		SkyLum:                     1,
		Rayleigh:                   1,
		WaterShininess:             0.5,
		WaterRipples:               1,
		WaterReflectionIterations:  10,
		Time:                       "2023-07-01T18:00:00+0200",
		Output:                     "out.tif",
		Headless:                   false,
		Concurrency:                0,
	}
}

// Load builds a Config from, in increasing priority: built-in defaults,
// the INI [default] section of iniPath (if non-empty and present), then
// args parsed as command-line flags (any flag.ErrHelp is propagated so
// callers can exit cleanly on -h).
func Load(iniPath string, args []string) (Config, error) {
	cfg := Defaults()

	if iniPath != "" {
		overrides, err := readINIDefaults(iniPath)
		if err != nil {
			return cfg, fmt.Errorf("reading config file %s: %w", iniPath, err)
		}
		if err := applyOverrides(&cfg, overrides); err != nil {
			return cfg, err
		}
	}

	fs := flag.NewFlagSet("gamlenorge", flag.ContinueOnError)
	bindFlags(fs, &cfg)
	// -c/--config name the INI file, which the caller has already resolved
	// into iniPath; they are accepted here so args can be passed through.
	var configFlag string
	fs.StringVar(&configFlag, "c", iniPath, "configuration file")
	fs.StringVar(&configFlag, "config", iniPath, "configuration file (alias of -c)")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func bindFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Maps, "maps", cfg.Maps, "root directory containing DEM tiles and atlas indices")
	fs.StringVar(&cfg.Observer, "observer", cfg.Observer, "observer position, \"easting,northing\" or a symbolic name")
	fs.StringVar(&cfg.Target, "target", cfg.Target, "target position, \"easting,northing\" or a symbolic name")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "image width in pixels")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "image height in pixels")
	fs.Float64Var(&cfg.WidthAngle, "width_angle", cfg.WidthAngle, "horizontal field of view, radians")
	fs.Float64Var(&cfg.MinDepth, "min_depth", cfg.MinDepth, "minimum ray marching distance, metres")
	fs.Float64Var(&cfg.MaxDepth, "max_depth", cfg.MaxDepth, "maximum ray marching distance, metres")
	fs.Float64Var(&cfg.ObserverHeightOffset, "observer_height_offset", cfg.ObserverHeightOffset, "added to observer DEM height, metres")
	fs.Float64Var(&cfg.TargetHeightOffset, "target_height_offset", cfg.TargetHeightOffset, "added to target DEM height, metres")
	fs.Float64Var(&cfg.GreenLimit, "green_limit", cfg.GreenLimit, "rock/forest classification threshold, metres")
	fs.Float64Var(&cfg.SnowLimit, "snow_limit", cfg.SnowLimit, "snow classification threshold, metres")
	fs.Float64Var(&cfg.WaterLevel, "water_level", cfg.WaterLevel, "height at or below which terrain is water, metres")
	fs.Float64Var(&cfg.Haziness, "haziness", cfg.Haziness, "atmospheric haze coefficient")
	fs.Float64Var(&cfg.SkyLum, "sky_lum", cfg.SkyLum, "sky luminance coefficient")
	fs.Float64Var(&cfg.Rayleigh, "rayleigh", cfg.Rayleigh, "Rayleigh scattering coefficient")
	fs.Float64Var(&cfg.WaterShininess, "water_shininess", cfg.WaterShininess, "water reflection blend factor, 0-1")
	fs.Float64Var(&cfg.WaterRipples, "water_ripples", cfg.WaterRipples, "water reflection ripple fuzz factor")
	fs.IntVar(&cfg.WaterReflectionIterations, "water_reflection_iterations", cfg.WaterReflectionIterations, "reflection sample count, 0 disables reflection")
	fs.StringVar(&cfg.Time, "time", cfg.Time, "render time, RFC3339-ish with numeric UTC offset")
	fs.StringVar(&cfg.Output, "output", cfg.Output, "output image path")
	fs.BoolVar(&cfg.Headless, "headless", cfg.Headless, "accepted for compatibility; no interactive display is ever opened")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "row-worker goroutines; 0 uses runtime.NumCPU()")
}

// applyOverrides layers INI key/value pairs onto cfg by running them
// through the same flag-parsing path CLI args use, so INI keys stay in
// lockstep with the flag set instead of duplicating per-field parsing.
func applyOverrides(cfg *Config, kv map[string]string) error {
	fs := flag.NewFlagSet("gamlenorge-ini", flag.ContinueOnError)
	bindFlags(fs, cfg)

	var args []string
	for k, v := range kv {
		args = append(args, "--"+k, v)
	}
	return fs.Parse(args)
}

// ParseCoord parses "easting,northing" into a projected Coord. Symbolic
// place names are accepted by Config but this package does not resolve
// them to coordinates — there is no mountain-name gazetteer in scope here,
// so callers given a non-numeric Observer/Target must supply the
// coordinate form.
func ParseCoord(s string) (coord.Coord, error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return coord.Coord{}, fmt.Errorf("%q is not a projected coordinate (want \"easting,northing\")", s)
	}
	e, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return coord.Coord{}, fmt.Errorf("parsing easting in %q: %w", s, err)
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return coord.Coord{}, fmt.Errorf("parsing northing in %q: %w", s, err)
	}
	return coord.Coord{E: e, N: n}, nil
}
