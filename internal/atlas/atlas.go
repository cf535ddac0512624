// Package atlas indexes a collection of DEM tiles by coarse spatial cell
// and dispatches coordinate lookups to whichever tile covers the query,
// loading pixel data on demand.
package atlas

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/erikoest/gamlenorge/internal/coord"
	"github.com/erikoest/gamlenorge/internal/demsource"
	"github.com/erikoest/gamlenorge/internal/mount"
)

// hilbertBits is enough resolution for gxMax/gyMax to stay well inside
// [0, 2^hilbertBits) given cellSize=10km grid cells over a Norway-sized
// (and then some) extent; it only affects sort order, not correctness.
const hilbertBits = 24
const hilbertOffset = 1 << 23

// Atlas is a coarse-grid spatial index over a set of DEM tiles. Candidate
// tiles for a coordinate are found in O(1) via CellHash; the tile itself
// resolves the fine-grained bilinear lookup.
type Atlas struct {
	mu        sync.RWMutex
	cells     map[int64][]*Tile
	tiles     map[string]*Tile // keyed by Tile.Path(), for dedup
	memBudget int64
}

func newAtlas() *Atlas {
	return &Atlas{
		cells: make(map[int64][]*Tile),
		tiles: make(map[string]*Tile),
	}
}

func (a *Atlas) insert(t *Tile) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, dup := a.tiles[t.Path()]; dup {
		return
	}
	a.tiles[t.Path()] = t
	for _, h := range t.Hashes() {
		a.cells[h] = append(a.cells[h], t)
	}
}

// NewFromDirectory builds an Atlas from every *.tif/*.tiff DEM file directly
// under dir. archive, when non-empty, records the source archive path each
// tile was found inside (for tiles opened from a mounted zip).
func NewFromDirectory(dir, archive string) (*Atlas, error) {
	a := newAtlas()
	a.memBudget = computeMemoryLimit(DefaultMemoryPressurePercent, false)

	matches, err := filepath.Glob(filepath.Join(dir, "*.tif"))
	if err != nil {
		return nil, err
	}
	more, err := filepath.Glob(filepath.Join(dir, "*.tiff"))
	if err != nil {
		return nil, err
	}
	matches = append(matches, more...)

	for _, path := range matches {
		t, err := NewTile(path, archive)
		if err != nil {
			log.Printf("atlas: skipping %s: %v", path, err)
			continue
		}
		a.insert(t)
	}
	return a, nil
}

// NewFromArchive mounts path (a zip archive of DEM tiles) via fuse-zip and
// indexes every tile found inside.
func NewFromArchive(path string) (*Atlas, error) {
	dir, err := mount.Mount(path)
	if err != nil {
		return nil, fmt.Errorf("mounting %s: %w", path, err)
	}
	return NewFromDirectory(dir, path)
}

// New unions the bare-directory index atlas.json and every *.atlas.json
// archive index found under mapDir, keeping the tiles that match the given
// nominal resolution (metres per pixel), without touching
// any pixel data. This is the fast-start path: header metadata for an
// entire map collection loads in milliseconds regardless of how large the
// underlying tiles are.
func New(resolution float64, mapDir string) (*Atlas, error) {
	a := newAtlas()
	a.memBudget = computeMemoryLimit(DefaultMemoryPressurePercent, false)

	indices, err := filepath.Glob(filepath.Join(mapDir, "*.atlas.json"))
	if err != nil {
		return nil, err
	}
	bare := filepath.Join(mapDir, "atlas.json")
	if _, err := os.Stat(bare); err == nil {
		indices = append([]string{bare}, indices...)
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("no atlas.json or *.atlas.json index found under %s", mapDir)
	}

	read := 0
	for _, idxPath := range indices {
		tiles, err := readIndex(idxPath)
		if err != nil {
			log.Printf("atlas: skipping index %s: %v", idxPath, err)
			continue
		}
		for _, t := range tiles {
			if t.Resolution() != resolution {
				continue
			}
			a.insert(t)
		}
		read++
	}
	log.Printf("atlas: read metadata from %d atlas index file(s)", read)
	return a, nil
}

// ReadIndex loads a single AtlasIndex JSON file (as produced by Write) into
// a standalone Atlas, without touching any pixel data.
func ReadIndex(path string) (*Atlas, error) {
	a := newAtlas()
	a.memBudget = computeMemoryLimit(DefaultMemoryPressurePercent, false)

	tiles, err := readIndex(path)
	if err != nil {
		return nil, err
	}
	for _, t := range tiles {
		a.insert(t)
	}
	return a, nil
}

// HasTiles reports whether c's coarse cell holds any candidate tile at
// all — a cell-level test, not a coverage test: a candidate in the cell
// need not actually cover c (per spec.md §3, callers verify coverage by
// attempting lookup).
func (a *Atlas) HasTiles(c coord.Coord) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.cells[CellHash(c)]) > 0
}

// HasImages reports whether every candidate tile in c's coarse cell has
// its pixel body loaded — cell-level, matching has_images (not a
// coverage test on c itself). An empty cell reports false.
func (a *Atlas) HasImages(c coord.Coord) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	cands := a.cells[CellHash(c)]
	if len(cands) == 0 {
		return false
	}
	for _, t := range cands {
		if !t.IsLoaded() {
			return false
		}
	}
	return true
}

// LoadImages materializes the pixel body of every candidate tile in c's
// coarse cell — not just the ones that cover c — so that a subsequent
// rewind-and-re-march sees resident data at the next sample points too.
// Safe to call repeatedly; already-loaded tiles are a no-op.
func (a *Atlas) LoadImages(c coord.Coord) error {
	a.mu.RLock()
	candidates := append([]*Tile(nil), a.cells[CellHash(c)]...)
	a.mu.RUnlock()

	for _, t := range candidates {
		if err := t.LoadImage(); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the elevation at c, loading whichever covering tile is
// not yet resident. Candidates in the coarse cell are tried in order; a
// miss due to ErrNotLoaded triggers exactly one load-then-retry per
// candidate before moving to the next.
func (a *Atlas) Lookup(c coord.Coord) (float64, error) {
	a.mu.RLock()
	candidates := append([]*Tile(nil), a.cells[CellHash(c)]...)
	a.mu.RUnlock()

	for _, t := range candidates {
		h, err := t.Lookup(c)
		if err == nil {
			return h, nil
		}
		if _, notLoaded := err.(*ErrNotLoaded); notLoaded {
			if loadErr := t.LoadImage(); loadErr != nil {
				continue
			}
			if h, err = t.Lookup(c); err == nil {
				return h, nil
			}
		}
	}
	return 0, &ErrNoTileForCoord{E: c.E, N: c.N}
}

// LookupWithGradient is Lookup plus the local (dh/de, dh/dn) gradient,
// following the same retry-once-on-load policy.
func (a *Atlas) LookupWithGradient(c coord.Coord) (height, dhde, dhdn float64, err error) {
	a.mu.RLock()
	candidates := append([]*Tile(nil), a.cells[CellHash(c)]...)
	a.mu.RUnlock()

	for _, t := range candidates {
		height, dhde, dhdn, err = t.LookupWithGradient(c)
		if err == nil {
			return
		}
		if _, notLoaded := err.(*ErrNotLoaded); notLoaded {
			if loadErr := t.LoadImage(); loadErr != nil {
				continue
			}
			if height, dhde, dhdn, err = t.LookupWithGradient(c); err == nil {
				return
			}
		}
	}
	return 0, 0, 0, &ErrNoTileForCoord{E: c.E, N: c.N}
}

// indexEntry is the on-disk representation of one tile's header metadata.
// Pixel data is never serialized; an AtlasIndex is a pure lookup-bootstrap
// artifact.
type indexEntry struct {
	Path      string  `json:"path"`
	Archive   string  `json:"archive,omitempty"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	OriginE   float64 `json:"origin_e"`
	OriginN   float64 `json:"origin_n"`
	PixelSize float64 `json:"pixel_size"`
}

// Write serializes the Atlas's tile headers to path as a JSON array,
// deduplicated by file path and ordered by Hilbert index of each tile's
// coarse cell so that tiles covering nearby ground stay nearby in the
// file — a sequential read of the index (or a scan that loads tiles in
// file order) then touches disk with better locality than path order.
func (a *Atlas) Write(path string) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	entries := make([]indexEntry, 0, len(a.tiles))
	for _, t := range a.tiles {
		entries = append(entries, indexEntry{
			Path:      t.header.Path,
			Archive:   t.archive,
			Width:     t.header.Width,
			Height:    t.header.Height,
			OriginE:   t.header.OriginE,
			OriginN:   t.header.OriginN,
			PixelSize: t.header.PixelSize,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return tileHilbertIndex(entries[i]) < tileHilbertIndex(entries[j])
	})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// tileHilbertIndex maps an entry's origin cell to a Hilbert curve index.
// Cell coordinates are shifted by hilbertOffset since HilbertIndex takes
// unsigned grid coordinates but CellHash's grid is signed (tiles exist on
// both sides of the UTM33N false-easting/northing origin).
func tileHilbertIndex(e indexEntry) uint64 {
	gx := int64(floorDiv(e.OriginE, cellSize)) + hilbertOffset
	gy := int64(floorDiv(e.OriginN, cellSize)) + hilbertOffset
	if gx < 0 {
		gx = 0
	}
	if gy < 0 {
		gy = 0
	}
	return coord.HilbertIndex(uint64(gx), uint64(gy), hilbertBits)
}

// readIndex loads an AtlasIndex JSON file and rebuilds Tile headers from
// it, without touching any pixel data. Each tile's coarse-cell membership
// is recomputed by replaying CellHash over its bounding box — the hashes
// themselves are never stored on disk.
func readIndex(path string) ([]*Tile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries []indexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	tiles := make([]*Tile, 0, len(entries))
	for _, e := range entries {
		h := demsource.Header{
			Path:      e.Path,
			Width:     e.Width,
			Height:    e.Height,
			OriginE:   e.OriginE,
			OriginN:   e.OriginN,
			PixelSize: e.PixelSize,
		}
		tiles = append(tiles, newTileFromHeader(h, e.Archive))
	}
	return tiles, nil
}
