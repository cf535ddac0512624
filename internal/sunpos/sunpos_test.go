package sunpos

import (
	"math"
	"testing"

	"github.com/erikoest/gamlenorge/internal/coord"
)

func TestPositionDeterministic(t *testing.T) {
	pos := coord.Coord{E: 90000, N: 7020000} // near Åndalsnes, UTM 33N
	ts := "2023-07-01T18:00:00+0200"

	az1, alt1, err := Position(ts, pos)
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	az2, alt2, err := Position(ts, pos)
	if err != nil {
		t.Fatalf("Position: %v", err)
	}

	if math.Abs(az1-az2) > 1e-6 || math.Abs(alt1-alt2) > 1e-6 {
		t.Errorf("Position not deterministic: (%v,%v) vs (%v,%v)", az1, alt1, az2, alt2)
	}
}

func TestPositionInvalidTimestamp(t *testing.T) {
	pos := coord.Coord{E: 90000, N: 7020000}
	if _, _, err := Position("not-a-time", pos); err == nil {
		t.Error("expected error for invalid timestamp")
	}
}

func TestPositionSummerEveningIsLow(t *testing.T) {
	pos := coord.Coord{E: 90000, N: 7020000}
	_, alt, err := Position("2023-07-01T18:00:00+0200", pos)
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	// At 18:00 local time in July at ~62N the sun is still well above the
	// horizon but no longer near its zenith.
	if alt <= 0 || alt > math.Pi/3 {
		t.Errorf("unexpected altitude %v radians for summer evening", alt)
	}
}
