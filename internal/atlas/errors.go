package atlas

import "fmt"

// ErrOutsideCoverage is returned by Tile.Lookup/LookupWithGradient when the
// queried coordinate falls outside the tile's bounding box.
type ErrOutsideCoverage struct {
	Path string
}

func (e *ErrOutsideCoverage) Error() string {
	return fmt.Sprintf("coordinate outside coverage of tile %q", e.Path)
}

// ErrNotLoaded is returned by Tile.Lookup/LookupWithGradient when the
// pixel body has not yet been materialized. The Atlas recovers from this
// locally (load then retry); it should never surface past the Atlas.
type ErrNotLoaded struct {
	Path string
}

func (e *ErrNotLoaded) Error() string {
	return fmt.Sprintf("tile %q not loaded", e.Path)
}

// ErrNoTileForCoord is returned when no tile in an Atlas covers a
// coordinate, whether because the coarse cell is empty or every candidate
// in the cell rejected the lookup.
type ErrNoTileForCoord struct {
	E, N float64
}

func (e *ErrNoTileForCoord) Error() string {
	return fmt.Sprintf("no tile for coordinate (%.1f, %.1f)", e.E, e.N)
}
