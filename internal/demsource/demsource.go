// Package demsource is the concrete TileLoader: it opens DEM GeoTIFFs on
// disk (grounded on the trimmed internal/cog GeoTIFF reader) and exposes
// header metadata plus a lazily-read full-resolution elevation grid.
package demsource

import (
	"fmt"

	"github.com/erikoest/gamlenorge/internal/cog"
	"github.com/erikoest/gamlenorge/internal/coord"
)

// workingCRS is the projection every Coord in this module is expressed in:
// ETRS89 / UTM zone 33N, the zone covering the Norwegian mainland DEM
// tiles this renderer was built for.
var workingCRS = &coord.UTM{Zone: 33, Northern: true}

// Header is the always-resident metadata for one DEM file.
type Header struct {
	Path       string
	Width      int
	Height     int
	OriginE    float64 // easting of upper-left pixel corner
	OriginN    float64 // northing of upper-left pixel corner
	PixelSize  float64 // metres per pixel (square pixels assumed)
}

// Grid is a materialized elevation plane, row-major, north to south.
// Grid detects perfectly flat tiles (common for sea-level fill tiles) at
// load time and skips storing the full plane for them.
type Grid struct {
	Values     []float32 // nil when Uniform is true
	Width      int
	Height     int
	Uniform    bool
	UniformVal float32
}

// At returns the elevation at pixel (x, y), clamping out-of-range lookups
// to 0 (the caller is expected to have already range-checked).
func (g *Grid) At(x, y int) float32 {
	if g == nil {
		return 0
	}
	if g.Uniform {
		return g.UniformVal
	}
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return 0
	}
	return g.Values[y*g.Width+x]
}

// detectUniform reports whether every sample in values is identical,
// mirroring the single-colour detection used for flat rendered tiles.
func detectUniform(values []float32) (float32, bool) {
	if len(values) == 0 {
		return 0, false
	}
	first := values[0]
	for _, v := range values[1:] {
		if v != first {
			return 0, false
		}
	}
	return first, true
}

// OpenHeader opens path just far enough to read georeferencing and
// dimensions, without reading any elevation samples.
func OpenHeader(path string) (Header, error) {
	r, err := cog.Open(path)
	if err != nil {
		return Header{}, err
	}
	defer r.Close()

	if !r.IsFloat() {
		return Header{}, fmt.Errorf("%s: not a floating point elevation raster", path)
	}

	geo := r.GeoInfo()
	originE, originN, err := reprojectOrigin(geo.EPSG, geo.OriginX, geo.OriginY)
	if err != nil {
		return Header{}, fmt.Errorf("%s: %w", path, err)
	}

	return Header{
		Path:      path,
		Width:     r.Width(),
		Height:    r.Height(),
		OriginE:   originE,
		OriginN:   originN,
		PixelSize: geo.PixelSizeX,
	}, nil
}

// reprojectOrigin converts a tile's upper-left corner into the working
// CRS (UTM zone 33N) when the file's own GeoKeys name a different one.
// This lets the coarse background layer mix in DEM tiles sourced from
// international datasets (delivered in WGS84 or Web Mercator) alongside
// the native Kartverket UTM33N tiles, without a separate offline warping
// step. Only the corner is reprojected — pixel size is carried through
// unchanged, which is accurate to a fraction of a percent for the
// kilometre-scale footprints these coarse fallback tiles have, but would
// not be appropriate for a full per-pixel warp of a large raster.
//
// An EPSG code of 0 (GeoKeys present but no recognizable CRS, or absent
// entirely) is assumed to already be in the working CRS, matching every
// tile this renderer has ever been pointed at in practice.
func reprojectOrigin(epsg int, x, y float64) (e, n float64, err error) {
	if epsg == 0 || epsg == workingCRS.EPSG() {
		return x, y, nil
	}
	src := coord.ForEPSG(epsg)
	if src == nil {
		return 0, 0, fmt.Errorf("unsupported source CRS EPSG:%d", epsg)
	}
	lon, lat := src.ToWGS84(x, y)
	e, n = workingCRS.FromWGS84(lon, lat)
	return e, n, nil
}

// LoadGrid re-opens the file and reads every tile of level 0 into one
// contiguous elevation grid. This is the (potentially slow, I/O-bound)
// operation Tile.load_image triggers on first miss.
func LoadGrid(path string) (*Grid, error) {
	r, err := cog.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	w, h := r.Width(), r.Height()
	ts := r.IFDTileSize()
	tileW, tileH := ts[0], ts[1]
	if tileW == 0 || tileH == 0 {
		return nil, fmt.Errorf("%s: invalid tile layout", path)
	}

	values := make([]float32, w*h)
	tilesAcross := (w + tileW - 1) / tileW
	tilesDown := (h + tileH - 1) / tileH

	for row := 0; row < tilesDown; row++ {
		for col := 0; col < tilesAcross; col++ {
			data, tw, th, err := r.ReadFloatTile(0, col, row)
			if err != nil {
				return nil, fmt.Errorf("reading tile (%d,%d) of %s: %w", col, row, path, err)
			}
			if data == nil {
				continue // empty tile, leave as zero elevation
			}
			baseX := col * tileW
			baseY := row * tileH
			for ty := 0; ty < th; ty++ {
				y := baseY + ty
				if y >= h {
					break
				}
				srcRow := data[ty*tw : ty*tw+tw]
				dstOff := y*w + baseX
				n := tw
				if baseX+n > w {
					n = w - baseX
				}
				copy(values[dstOff:dstOff+n], srcRow[:n])
			}
		}
	}

	if val, uniform := detectUniform(values); uniform {
		return &Grid{Width: w, Height: h, Uniform: true, UniformVal: val}, nil
	}

	return &Grid{Values: values, Width: w, Height: h}, nil
}
