package atlas

import (
	"sync"

	"github.com/erikoest/gamlenorge/internal/coord"
	"github.com/erikoest/gamlenorge/internal/demsource"
)

// cellSize is the coarse-grid cell edge length, in metres. Chosen large
// enough that a typical DEM tile (a few km across) overlaps at most a
// handful of cells.
const cellSize = 10000.0

// CellHash deterministically maps a coordinate to its coarse cell. The
// exact formula must stay stable across runs of the same build: it is
// baked into the on-disk AtlasIndex (hashes are replayed, not stored, but
// replay must reproduce the same bucket a tile was originally filed
// under).
func CellHash(c coord.Coord) int64 {
	gx := int64(floorDiv(c.E, cellSize))
	gy := int64(floorDiv(c.N, cellSize))
	return gx*2038074743 + gy // large prime spread, avoids clustering
}

func floorDiv(v, s float64) int64 {
	q := v / s
	iq := int64(q)
	if q < 0 && float64(iq) != q {
		iq--
	}
	return iq
}

// Tile represents one rectangular DEM raster file: header metadata is
// always resident, pixel data is loaded lazily and shared by every
// coarse cell referencing this tile.
type Tile struct {
	header  demsource.Header
	archive string // non-empty if the tile lives inside a mounted archive

	minE, minN, maxE, maxN float64

	mu   sync.Mutex
	grid *demsource.Grid

	// loader overrides how LoadImage materializes grid when set; nil means
	// "read header.Path via demsource.LoadGrid" (the production path).
	// Synthetic/test tiles inject a loader that builds a Grid in memory
	// instead of touching disk, so the lazy-load/rewind path (spec.md
	// §4.4) can be exercised without a real DEM file.
	loader func() (*demsource.Grid, error)
}

// NewTile opens path for header metadata only — no pixel data is read.
func NewTile(path, archive string) (*Tile, error) {
	h, err := demsource.OpenHeader(path)
	if err != nil {
		return nil, err
	}
	return newTileFromHeader(h, archive), nil
}

func newTileFromHeader(h demsource.Header, archive string) *Tile {
	t := &Tile{header: h, archive: archive}
	t.minE = h.OriginE
	t.maxE = h.OriginE + float64(h.Width)*h.PixelSize
	t.maxN = h.OriginN
	t.minN = h.OriginN - float64(h.Height)*h.PixelSize
	return t
}

// Path returns the tile's source file path.
func (t *Tile) Path() string { return t.header.Path }

// Resolution returns the tile's pixel size in metres — the quantity used to
// group AtlasIndex files by nominal resolution (1 m vs 10 m).
func (t *Tile) Resolution() float64 { return t.header.PixelSize }

// covers reports whether c lies within the tile's bounding box.
func (t *Tile) covers(c coord.Coord) bool {
	return c.E >= t.minE && c.E <= t.maxE && c.N >= t.minN && c.N <= t.maxN
}

// Hashes enumerates every coarse cell this tile's bbox overlaps.
func (t *Tile) Hashes() []int64 {
	gxMin := int64(floorDiv(t.minE, cellSize))
	gxMax := int64(floorDiv(t.maxE, cellSize))
	gyMin := int64(floorDiv(t.minN, cellSize))
	gyMax := int64(floorDiv(t.maxN, cellSize))

	var out []int64
	for gx := gxMin; gx <= gxMax; gx++ {
		for gy := gyMin; gy <= gyMax; gy++ {
			out = append(out, gx*2038074743+gy)
		}
	}
	return out
}

// IsLoaded reports whether the pixel body has been materialized.
func (t *Tile) IsLoaded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.grid != nil
}

// LoadImage materializes the pixel body. Idempotent and thread-safe: uses
// the classic check-lock-recheck-load pattern so concurrent callers never
// race on the underlying read.
func (t *Tile) LoadImage() error {
	if t.IsLoaded() {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.grid != nil {
		return nil
	}
	load := t.loader
	if load == nil {
		load = func() (*demsource.Grid, error) { return demsource.LoadGrid(t.header.Path) }
	}
	g, err := load()
	if err != nil {
		return err
	}
	t.grid = g
	return nil
}

// coordToPixel applies the inverse affine transform: u grows east, v grows
// south (row-major downward), both floating pixel indices.
func (t *Tile) coordToPixel(c coord.Coord) (u, v float64) {
	u = (c.E - t.header.OriginE) / t.header.PixelSize
	v = (t.header.OriginN - c.N) / t.header.PixelSize
	return
}

func clampIdx(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lookup returns the bilinearly-interpolated elevation at c.
func (t *Tile) Lookup(c coord.Coord) (float64, error) {
	if !t.covers(c) {
		return 0, &ErrOutsideCoverage{Path: t.header.Path}
	}

	t.mu.Lock()
	g := t.grid
	t.mu.Unlock()
	if g == nil {
		return 0, &ErrNotLoaded{Path: t.header.Path}
	}

	u, v := t.coordToPixel(c)
	h, _, _ := bilinear(g, u, v)
	return h, nil
}

// LookupWithGradient returns (height, dh/de, dh/dn) at c, the gradient
// computed via central differences on neighbouring pixels.
func (t *Tile) LookupWithGradient(c coord.Coord) (height, dhde, dhdn float64, err error) {
	if !t.covers(c) {
		return 0, 0, 0, &ErrOutsideCoverage{Path: t.header.Path}
	}

	t.mu.Lock()
	g := t.grid
	t.mu.Unlock()
	if g == nil {
		return 0, 0, 0, &ErrNotLoaded{Path: t.header.Path}
	}

	u, v := t.coordToPixel(c)
	h, x0, y0 := bilinear(g, u, v)

	ps := t.header.PixelSize
	xm := clampIdx(x0-1, 0, g.Width-1)
	xp := clampIdx(x0+1, 0, g.Width-1)
	ym := clampIdx(y0-1, 0, g.Height-1)
	yp := clampIdx(y0+1, 0, g.Height-1)

	// dh/de: east increases with +u/+x. dh/dn: north increases with -v/-y.
	dhde = (float64(g.At(xp, y0)) - float64(g.At(xm, y0))) / (float64(xp-xm) * ps)
	dhdn = -(float64(g.At(x0, yp)) - float64(g.At(x0, ym))) / (float64(yp-ym) * ps)
	if xp == xm {
		dhde = 0
	}
	if yp == ym {
		dhdn = 0
	}

	return h, dhde, dhdn, nil
}

// bilinear samples g at fractional pixel coordinates (u, v), clamping
// participating indices to the grid so coordinates within half a pixel of
// the bbox edge still resolve. Also returns the nearest integer pixel
// (x0, y0) used as the center for gradient computation.
func bilinear(g *demsource.Grid, u, v float64) (value float64, x0, y0 int) {
	x0 = clampIdx(int(u), 0, g.Width-1)
	y0 = clampIdx(int(v), 0, g.Height-1)
	if g.Uniform {
		return float64(g.UniformVal), x0, y0
	}

	fx := u - 0.5
	fy := v - 0.5
	ix0 := int(floorF(fx))
	iy0 := int(floorF(fy))
	ix1 := ix0 + 1
	iy1 := iy0 + 1

	tx := fx - float64(ix0)
	ty := fy - float64(iy0)

	cix0 := clampIdx(ix0, 0, g.Width-1)
	cix1 := clampIdx(ix1, 0, g.Width-1)
	ciy0 := clampIdx(iy0, 0, g.Height-1)
	ciy1 := clampIdx(iy1, 0, g.Height-1)

	v00 := float64(g.At(cix0, ciy0))
	v10 := float64(g.At(cix1, ciy0))
	v01 := float64(g.At(cix0, ciy1))
	v11 := float64(g.At(cix1, ciy1))

	top := v00*(1-tx) + v10*tx
	bot := v01*(1-tx) + v11*tx
	value = top*(1-ty) + bot*ty
	return
}

func floorF(v float64) float64 {
	i := int64(v)
	if v < 0 && float64(i) != v {
		i--
	}
	return float64(i)
}
