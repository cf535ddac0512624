package coord

// HilbertIndex returns the Hilbert curve index of (x, y) on a 2^bits x 2^bits
// grid. Tiles whose index is close are close in the plane, which gives
// better cache locality than directory-scan order when many lookups land
// in the same coarse cell during a scanline.
func HilbertIndex(x, y uint64, bits uint) uint64 {
	n := uint64(1) << bits
	var d uint64
	s := n / 2
	for s > 0 {
		var rx, ry uint64
		if (x & s) > 0 {
			rx = 1
		}
		if (y & s) > 0 {
			ry = 1
		}
		d += s * s * ((3 * rx) ^ ry)
		if ry == 0 {
			if rx == 1 {
				x = s*2 - 1 - x
				y = s*2 - 1 - y
			}
			x, y = y, x
		}
		s /= 2
	}
	return d
}
