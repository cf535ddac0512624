// Package sunpos computes solar azimuth and altitude for a given instant
// and geographic position. No example in the reference corpus ships a
// reusable pure-Go solar ephemeris, so this follows the widely published
// NOAA/Jean Meeus low-precision solar position algorithm directly against
// the standard library; accuracy (a few arcminutes) comfortably exceeds
// what shading a terrain photo needs.
package sunpos

import (
	"fmt"
	"math"
	"time"

	"github.com/erikoest/gamlenorge/internal/coord"
)

// TimeLayout is the timestamp format accepted by Position's time argument:
// an ISO-8601 date-time with a numeric UTC offset, e.g.
// "2023-07-01T18:00:00+0200".
const TimeLayout = "2006-01-02T15:04:05-0700"

// Position returns the sun's azimuth (radians clockwise from north) and
// altitude (radians above the horizon) at instant ts, as seen from pos — a
// projected coordinate in the UTM zone 33N grid the DEM tiles use.
func Position(ts string, pos coord.Coord) (azimuth, altitude float64, err error) {
	t, err := time.Parse(TimeLayout, ts)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid timestamp %q: %w", ts, err)
	}

	proj := coord.ForEPSG(25833)
	lon, lat := proj.ToWGS84(pos.E, pos.N)

	azimuth, altitude = solarAngles(t, lon, lat)
	return azimuth, altitude, nil
}

// solarAngles implements the low-precision solar position algorithm (see
// Meeus, "Astronomical Algorithms", ch. 25 and the NOAA Solar Calculator
// technical notes derived from it).
func solarAngles(t time.Time, lonDeg, latDeg float64) (azimuth, altitude float64) {
	utc := t.UTC()
	jd := julianDay(utc)
	jc := (jd - 2451545.0) / 36525.0

	// Geometric mean longitude and anomaly of the sun, degrees.
	l0 := math.Mod(280.46646+jc*(36000.76983+jc*0.0003032), 360)
	m := 357.52911 + jc*(35999.05029-0.0001537*jc)
	mRad := deg2rad(m)

	// Equation of center.
	c := math.Sin(mRad)*(1.914602-jc*(0.004817+0.000014*jc)) +
		math.Sin(2*mRad)*(0.019993-0.000101*jc) +
		math.Sin(3*mRad)*0.000289

	trueLong := l0 + c

	// Obliquity of the ecliptic.
	eps0 := 23 + (26+(21.448-jc*(46.815+jc*(0.00059-jc*0.001813)))/60)/60
	omega := 125.04 - 1934.136*jc
	eps := eps0 + 0.00256*math.Cos(deg2rad(omega))

	apparentLong := trueLong - 0.00569 - 0.00478*math.Sin(deg2rad(omega))

	decl := math.Asin(math.Sin(deg2rad(eps)) * math.Sin(deg2rad(apparentLong)))

	// Equation of time, minutes.
	y := math.Tan(deg2rad(eps)/2) * math.Tan(deg2rad(eps)/2)
	l0Rad := deg2rad(l0)
	eot := 4 * rad2deg(
		y*math.Sin(2*l0Rad)-2*0.016708634*math.Sin(mRad)+
			4*0.016708634*y*math.Sin(mRad)*math.Cos(2*l0Rad)-
			0.5*y*y*math.Sin(4*l0Rad)-
			1.25*0.016708634*0.016708634*math.Sin(2*mRad),
	)

	minutesUTC := float64(utc.Hour()*60+utc.Minute()) + float64(utc.Second())/60
	solarTime := minutesUTC + eot + 4*lonDeg
	hourAngleDeg := solarTime/4 - 180
	haRad := deg2rad(hourAngleDeg)

	latRad := deg2rad(latDeg)

	sinAlt := math.Sin(latRad)*math.Sin(decl) + math.Cos(latRad)*math.Cos(decl)*math.Cos(haRad)
	altitude = math.Asin(clampUnit(sinAlt))

	cosAz := (math.Sin(latRad)*math.Sin(altitude) - math.Sin(decl)) / (math.Cos(latRad) * math.Cos(altitude))
	azRad := math.Acos(clampUnit(cosAz))

	if haRad > 0 {
		azimuth = math.Mod(azRad+math.Pi, 2*math.Pi)
	} else {
		azimuth = math.Mod(3*math.Pi-azRad, 2*math.Pi)
	}

	return azimuth, altitude
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
func rad2deg(r float64) float64 { return r * 180 / math.Pi }

// julianDay returns the Julian day number for a UTC time.
func julianDay(t time.Time) float64 {
	const unixEpochJD = 2440587.5
	return unixEpochJD + float64(t.Unix())/86400.0
}
