package coord

import (
	"math"
	"testing"
)

func TestWebMercatorRoundTrip(t *testing.T) {
	proj := &WebMercatorProj{}
	if proj.EPSG() != 3857 {
		t.Fatalf("EPSG() = %d, want 3857", proj.EPSG())
	}

	cases := []struct{ lon, lat float64 }{
		{0, 0},
		{10.7522, 59.9139}, // Oslo
		{-74.0060, 40.7128},
		{139.6917, 35.6895},
	}
	for _, c := range cases {
		x, y := proj.FromWGS84(c.lon, c.lat)
		lon, lat := proj.ToWGS84(x, y)
		if math.Abs(lon-c.lon) > 1e-6 || math.Abs(lat-c.lat) > 1e-6 {
			t.Errorf("round trip (%v, %v) -> (%v, %v) -> (%v, %v)", c.lon, c.lat, x, y, lon, lat)
		}
	}
}

func TestWebMercatorOriginIsZero(t *testing.T) {
	proj := &WebMercatorProj{}
	x, y := proj.FromWGS84(0, 0)
	if math.Abs(x) > 1e-9 || math.Abs(y) > 1e-9 {
		t.Errorf("FromWGS84(0,0) = (%v, %v), want (0, 0)", x, y)
	}
}
