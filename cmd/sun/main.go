// Command sun prints the solar azimuth and altitude for a projected
// coordinate and timestamp, independent of any DEM data — useful for
// sanity-checking a render's lighting before spending the time to trace it.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/erikoest/gamlenorge/internal/config"
	"github.com/erikoest/gamlenorge/internal/sunpos"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sun <easting,northing> <RFC3339-ish time>\n\n")
		fmt.Fprintf(os.Stderr, "Example: sun 90000,7020000 2023-07-01T18:00:00+0200\n")
	}
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		flag.Usage()
		os.Exit(1)
	}

	pos, err := config.ParseCoord(args[0])
	if err != nil {
		log.Fatalf("position: %v", err)
	}

	az, alt, err := sunpos.Position(args[1], pos)
	if err != nil {
		log.Fatalf("sun position: %v", err)
	}

	fmt.Printf("azimuth=%.4f altitude=%.4f (radians)\n", az, alt)
}
