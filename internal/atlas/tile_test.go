package atlas

import (
	"testing"

	"github.com/erikoest/gamlenorge/internal/coord"
	"github.com/erikoest/gamlenorge/internal/demsource"
)

func testHeader() demsource.Header {
	return demsource.Header{
		Path:      "test.tif",
		Width:     4,
		Height:    4,
		OriginE:   1000,
		OriginN:   2000,
		PixelSize: 10,
	}
}

func TestTileCovers(t *testing.T) {
	tile := newTileFromHeader(testHeader(), "")

	inside := coord.Coord{E: 1020, N: 1970}
	if !tile.covers(inside) {
		t.Errorf("expected %v to be covered", inside)
	}

	outside := coord.Coord{E: 5000, N: 5000}
	if tile.covers(outside) {
		t.Errorf("expected %v to be outside coverage", outside)
	}
}

func TestTileLookupNotLoaded(t *testing.T) {
	tile := newTileFromHeader(testHeader(), "")
	c := coord.Coord{E: 1020, N: 1970}

	_, err := tile.Lookup(c)
	if _, ok := err.(*ErrNotLoaded); !ok {
		t.Fatalf("Lookup before load: got %v, want ErrNotLoaded", err)
	}
}

func TestTileLookupOutsideCoverage(t *testing.T) {
	tile := newTileFromHeader(testHeader(), "")
	c := coord.Coord{E: 999999, N: 999999}

	_, err := tile.Lookup(c)
	if _, ok := err.(*ErrOutsideCoverage); !ok {
		t.Fatalf("Lookup outside bbox: got %v, want ErrOutsideCoverage", err)
	}
}

func TestUniformGridLookup(t *testing.T) {
	tile := newTileFromHeader(testHeader(), "")
	tile.grid = &demsource.Grid{Width: 4, Height: 4, Uniform: true, UniformVal: 42}

	h, _, _ := bilinear(tile.grid, 2.3, 1.7)
	if h != 42 {
		t.Errorf("bilinear on uniform grid = %v, want 42", h)
	}

	height, err2 := tile.Lookup(coord.Coord{E: 1020, N: 1970})
	if err2 != nil {
		t.Fatalf("Lookup: %v", err2)
	}
	if height != 42 {
		t.Errorf("Lookup on uniform grid = %v, want 42", height)
	}
}

func TestCellHashDistinctAcrossBoundary(t *testing.T) {
	a := coord.Coord{E: 9999, N: 100}
	b := coord.Coord{E: 10001, N: 100}
	if CellHash(a) == CellHash(b) {
		t.Errorf("expected distinct cells across the 10km boundary")
	}
}
