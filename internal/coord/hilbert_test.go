package coord

import "testing"

func TestHilbertIndexDistinctForDistinctCells(t *testing.T) {
	seen := make(map[uint64]bool)
	for x := uint64(0); x < 8; x++ {
		for y := uint64(0); y < 8; y++ {
			idx := HilbertIndex(x, y, 3)
			if seen[idx] {
				t.Fatalf("HilbertIndex(%d, %d, 3) collided with a previous cell: %d", x, y, idx)
			}
			seen[idx] = true
		}
	}
	if len(seen) != 64 {
		t.Errorf("got %d distinct indices over an 8x8 grid, want 64", len(seen))
	}
}

func TestHilbertIndexOriginIsZero(t *testing.T) {
	if got := HilbertIndex(0, 0, 4); got != 0 {
		t.Errorf("HilbertIndex(0, 0, 4) = %d, want 0", got)
	}
}

func TestHilbertIndexNeighborsStayClose(t *testing.T) {
	// Adjacent cells along a Hilbert curve segment should have adjacent
	// (or at least close) indices far more often than the row-major scan
	// order they replace — spot-check one known-adjacent pair.
	a := HilbertIndex(0, 0, 3)
	b := HilbertIndex(1, 0, 3)
	if a == b {
		t.Fatalf("distinct cells produced the same index")
	}
	diff := int64(a) - int64(b)
	if diff < 0 {
		diff = -diff
	}
	if diff > 4 {
		t.Errorf("adjacent cells (0,0) and (1,0) have Hilbert indices %d and %d, expected them close", a, b)
	}
}
