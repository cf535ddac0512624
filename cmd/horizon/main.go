// Command horizon reports the projected coordinate where the line of sight
// from the configured observer towards the configured target first meets
// the terrain, without rendering a full image.
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
	profilePath := flag.String("profile", "", "dump the central bearing's elevation cross-section as a Terrarium PNG to this path")
	profileSamples := flag.Int("profile_samples", 1024, "number of samples along the cross-section")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: horizon [-c config.ini] [-profile out.png] [--key value ...]\n\n")
		fmt.Fprintf(os.Stderr, "Prints the coordinate where the central ray first meets terrain.\n\n")
		flag.PrintDefaults()
	}

	iniPath := *cfgPath
	for i, a := range os.Args[1:] {
		if (a == "-c" || a == "--config") && i+2 <= len(os.Args[1:]) {
			iniPath = os.Args[1:][i+1]
		}
	}
	if _, err := os.Stat(iniPath); err != nil {
		iniPath = ""
	}

	cfg, err := config.Load(iniPath, os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	defer mount.UnmountAll()

	fine, err := atlas.New(1.0, cfg.Maps)
	if err != nil {
		log.Fatalf("fine atlas: %v", err)
	}
	coarse, err := atlas.New(10.0, cfg.Maps)
	if err != nil {
		log.Fatalf("coarse atlas: %v", err)
	}

	r, err := render.New(cfg, fine, coarse)
	if err != nil {
		log.Fatalf("renderer: %v", err)
	}

	c, err := r.FindHorizon()
	if err != nil {
		log.Fatalf("find horizon: %v", err)
	}

	fmt.Printf("%.1f,%.1f\n", c.E, c.N)

	if *profilePath != "" {
		if err := writeProfile(r, *profilePath, *profileSamples); err != nil {
			log.Fatalf("writing elevation profile: %v", err)
		}
	}
}

// writeProfile renders the central bearing's elevation cross-section as a
// single-row Terrarium PNG, one pixel per sample.
func writeProfile(r *render.Renderer, path string, samples int) error {
	profile := r.ElevationProfile(samples)

	img := image.NewRGBA(image.Rect(0, 0, len(profile), 1))
	for x, h := range profile {
		img.Set(x, 0, encode.ElevationToTerrarium(h))
	}

	enc, err := encode.NewEncoder("terrarium", 0)
	if err != nil {
		return err
	}
	data, err := enc.Encode(img)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
