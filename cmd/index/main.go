// Command index scans a directory of DEM tiles, or a zip archive of them,
// and writes an AtlasIndex JSON file recording every tile's header
// metadata, so a render or horizon run can bootstrap its Atlas instantly
// instead of opening every GeoTIFF on disk. With no archive argument it
// indexes the configured maps directory directly, writing maps/atlas.json.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/erikoest/gamlenorge/internal/atlas"
	"github.com/erikoest/gamlenorge/internal/config"
	"github.com/erikoest/gamlenorge/internal/mount"
)

func main() {
	cfgPath := flag.String("c", "gamlenorge.ini", "configuration file")
	flag.StringVar(cfgPath, "config", *cfgPath, "configuration file (alias of -c)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: index [-c config.ini] [archive.zip]\n\n")
		fmt.Fprintf(os.Stderr, "With no argument, indexes every tile under the configured maps\n")
		fmt.Fprintf(os.Stderr, "directory into maps/atlas.json. With an archive.zip argument,\n")
		fmt.Fprintf(os.Stderr, "mounts and indexes that archive into archive.zip.atlas.json.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) > 1 {
		flag.Usage()
		os.Exit(1)
	}

	iniPath := *cfgPath
	if _, err := os.Stat(iniPath); err != nil {
		iniPath = ""
	}
	cfg, err := config.Load(iniPath, nil)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	defer mount.UnmountAll()

	var a *atlas.Atlas
	var outPath string

	if len(args) == 1 {
		archive := args[0]
		a, err = atlas.NewFromArchive(archive)
		outPath = archive + ".atlas.json"
	} else {
		a, err = atlas.NewFromDirectory(cfg.Maps, "")
		outPath = cfg.Maps + "/atlas.json"
	}
	if err != nil {
		log.Fatalf("indexing: %v", err)
	}

	if err := a.Write(outPath); err != nil {
		log.Fatalf("writing index %s: %v", outPath, err)
	}

	fmt.Printf("Wrote index to %s\n", outPath)
}
