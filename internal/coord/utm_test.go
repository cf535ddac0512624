package coord

import (
	"math"
	"testing"
)

func TestUTM33N_EPSG(t *testing.T) {
	u := &UTM{Zone: 33, Northern: true}
	if u.EPSG() != 25833 {
		t.Errorf("EPSG() = %d, want 25833", u.EPSG())
	}
	if (&UTM{Zone: 32, Northern: true}).EPSG() != 0 {
		t.Errorf("EPSG() for an unrecognized zone should be 0")
	}
}

func TestUTM33N_KnownPoint(t *testing.T) {
	// Oslo, roughly 10.7522E 59.9139N, falls in UTM zone 33N.
	u := &UTM{Zone: 33, Northern: true}
	e, n := u.FromWGS84(10.7522, 59.9139)

	// Oslo sits close to the central meridian (15E) of zone 33, so easting
	// should be noticeably west of the 500000 false-easting origin, and
	// northing should be a large positive value this far north.
	if e < 200000 || e > 400000 {
		t.Errorf("Oslo easting = %v, want roughly 250000-280000", e)
	}
	if n < 6_600_000 || n > 6_700_000 {
		t.Errorf("Oslo northing = %v, want roughly 6,640,000-6,660,000", n)
	}

	gotLon, gotLat := u.ToWGS84(e, n)
	if math.Abs(gotLon-10.7522) > 1e-4 || math.Abs(gotLat-59.9139) > 1e-4 {
		t.Errorf("round trip = (%v, %v), want ~(10.7522, 59.9139)", gotLon, gotLat)
	}
}

func TestUTM33N_RoundTrip(t *testing.T) {
	u := &UTM{Zone: 33, Northern: true}
	points := [][2]float64{
		{9.5, 59.0},  // near the western edge of the zone
		{17.9, 68.0}, // near the eastern edge, far north
		{15.0, 62.5}, // near the central meridian
	}
	for _, pt := range points {
		lon, lat := pt[0], pt[1]
		e, n := u.FromWGS84(lon, lat)
		gotLon, gotLat := u.ToWGS84(e, n)
		if math.Abs(gotLon-lon) > 1e-6 || math.Abs(gotLat-lat) > 1e-6 {
			t.Errorf("round trip (%v, %v) -> (%v, %v) -> (%v, %v)", lon, lat, e, n, gotLon, gotLat)
		}
	}
}
