package atlas

import (
	"strconv"

	"github.com/erikoest/gamlenorge/internal/demsource"
)

// SyntheticTile describes one flat-elevation tile for NewSynthetic: a
// rectangular bounding box covering a single uniform height, with no
// backing file. Used to build small in-memory atlases for tests and for
// dry-run renders that exercise the pipeline without real DEM data.
type SyntheticTile struct {
	MinE, MinN, MaxE, MaxN float64
	Height                 float64
	PixelSize              float64

	// Lazy, if true, defers materializing this tile's pixel grid until
	// LoadImage is called instead of pre-loading it at construction —
	// for tests exercising the dual-resolution promotion/rewind path
	// (spec.md §4.4), which otherwise never sees a covering-but-unloaded
	// tile.
	Lazy bool
}

// NewSynthetic builds an Atlas from a handful of flat synthetic tiles. By
// default each is materialized immediately (no lazy load, since there is
// no file to defer reading); set SyntheticTile.Lazy to instead defer
// materialization to the first LoadImage call, backed by an in-memory
// loader rather than disk I/O. Pixel size defaults to 10m when zero.
func NewSynthetic(tiles []SyntheticTile) *Atlas {
	a := newAtlas()
	for i, st := range tiles {
		ps := st.PixelSize
		if ps == 0 {
			ps = 10.0
		}
		width := int((st.MaxE - st.MinE) / ps)
		height := int((st.MaxN - st.MinN) / ps)
		if width < 1 {
			width = 1
		}
		if height < 1 {
			height = 1
		}
		h := demsource.Header{
			Path:      "synthetic-" + strconv.Itoa(i) + ".tif",
			Width:     width,
			Height:    height,
			OriginE:   st.MinE,
			OriginN:   st.MaxN,
			PixelSize: ps,
		}
		t := newTileFromHeader(h, "")
		grid := &demsource.Grid{Width: width, Height: height, Uniform: true, UniformVal: float32(st.Height)}
		if st.Lazy {
			t.loader = func() (*demsource.Grid, error) { return grid, nil }
		} else {
			t.grid = grid
		}
		a.insert(t)
	}
	return a
}

