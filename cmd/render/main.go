// Command render produces a panoramic photograph-like image of mountain
// terrain seen from a configured observer position, ray marching a curved
// Earth against DEM elevation tiles. Output format is inferred from the
// configured output path's extension.
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"

	"github.com/erikoest/gamlenorge/internal/atlas"
	"github.com/erikoest/gamlenorge/internal/config"
	"github.com/erikoest/gamlenorge/internal/encode"
	"github.com/erikoest/gamlenorge/internal/mount"
	"github.com/erikoest/gamlenorge/internal/render"
)

func main() {
	cfgPath := flag.String("c", "gamlenorge.ini", "configuration file")
	flag.StringVar(cfgPath, "config", *cfgPath, "configuration file (alias of -c)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: render [-c config.ini] [--key value ...]\n\n")
		fmt.Fprintf(os.Stderr, "Renders a panoramic terrain image to the configured output path.\n\n")
		flag.PrintDefaults()
	}

	// Pre-scan for -c/--config among args so the INI file loads before the
	// rest of the flags are (re-)parsed against it, same two-pass approach
	// the reference renderer's own config loader uses.
	iniPath := scanConfigFlag(os.Args[1:], *cfgPath)

	cfg, err := config.Load(iniPath, os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	defer mount.UnmountAll()

	fine, coarse, err := openAtlases(cfg.Maps)
	if err != nil {
		log.Fatalf("opening atlases: %v", err)
	}

	r, err := render.New(cfg, fine, coarse)
	if err != nil {
		log.Fatalf("renderer: %v", err)
	}

	sink, err := encode.NewSink(cfg.Output, 85)
	if err != nil {
		log.Fatalf("output format: %v", err)
	}

	if err := r.Render(func(img *image.RGBA, path string) error {
		return sink.Save(img, path)
	}); err != nil {
		log.Fatalf("render: %v", err)
	}
}

// scanConfigFlag finds -c/--config's value in args without fully parsing
// the flag set, since the INI file path itself must be known before the
// flag set that also accepts INI-sourced defaults is built.
func scanConfigFlag(args []string, fallback string) string {
	for i, a := range args {
		if (a == "-c" || a == "--config") && i+1 < len(args) {
			return args[i+1]
		}
	}
	if _, err := os.Stat(fallback); err == nil {
		return fallback
	}
	return ""
}

// openAtlases loads the 1 m and 10 m resolution atlas indices under
// mapsDir. Both are required: the fine atlas is only consulted near the
// observer, but a render with no fine coverage still needs the coarse one
// for the whole visible scene.
func openAtlases(mapsDir string) (fine, coarse *atlas.Atlas, err error) {
	fine, err = atlas.New(1.0, mapsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("fine atlas: %w", err)
	}
	coarse, err = atlas.New(10.0, mapsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("coarse atlas: %w", err)
	}
	return fine, coarse, nil
}
