package coord

import "math"

// UTM implements the Projection interface for a fixed UTM zone on the
// WGS84 ellipsoid, using the transverse Mercator series from Snyder's USGS
// "Map Projections: A Working Manual".
//
// gamlenorge only ever needs zone 33N (EPSG:25833, ETRS89 / UTM zone 33N),
// the zone covering the Norwegian mainland DEM tiles this renderer reads,
// so Zone/Northern are fixed at construction rather than exposed as a
// general-purpose parameter.
type UTM struct {
	Zone     int
	Northern bool
}

const (
	utmA  = 6378137.0       // WGS84 semi-major axis
	utmF  = 1 / 298.257223563 // WGS84 flattening
	utmK0 = 0.9996
)

func (u *UTM) EPSG() int {
	if u.Zone == 33 && u.Northern {
		return 25833
	}
	return 0
}

// ToWGS84 converts UTM easting/northing (metres) to WGS84 longitude/latitude
// (degrees).
func (u *UTM) ToWGS84(easting, northing float64) (lon, lat float64) {
	e2 := utmF * (2 - utmF)
	ePrime2 := e2 / (1 - e2)

	x := easting - 500000.0
	y := northing
	if !u.Northern {
		y -= 10000000.0
	}

	m := y / utmK0
	mu := m / (utmA * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))

	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))

	phi1 := mu +
		(3*e1/2-27*e1*e1*e1/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*e1*e1*e1*e1/32)*math.Sin(4*mu) +
		(151*e1*e1*e1/96)*math.Sin(6*mu) +
		(1097*e1*e1*e1*e1/512)*math.Sin(8*mu)

	sinPhi1 := math.Sin(phi1)
	cosPhi1 := math.Cos(phi1)
	tanPhi1 := sinPhi1 / cosPhi1

	n1 := utmA / math.Sqrt(1-e2*sinPhi1*sinPhi1)
	t1 := tanPhi1 * tanPhi1
	c1 := ePrime2 * cosPhi1 * cosPhi1
	r1 := utmA * (1 - e2) / math.Pow(1-e2*sinPhi1*sinPhi1, 1.5)
	d := x / (n1 * utmK0)

	latRad := phi1 - (n1*tanPhi1/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*ePrime2)*d*d*d*d/24+
		(61+90*t1+298*c1+45*t1*t1-252*ePrime2-3*c1*c1)*d*d*d*d*d*d/720)

	lonRad := (d - (1+2*t1+c1)*d*d*d/6 +
		(5-2*c1+28*t1-3*c1*c1+8*ePrime2+24*t1*t1)*d*d*d*d*d/120) / cosPhi1

	lonOrigin := float64(u.Zone)*6 - 183

	lat = latRad * 180 / math.Pi
	lon = lonOrigin + lonRad*180/math.Pi
	return
}

// FromWGS84 converts WGS84 longitude/latitude (degrees) to UTM
// easting/northing (metres) in the receiver's fixed zone.
func (u *UTM) FromWGS84(lon, lat float64) (easting, northing float64) {
	e2 := utmF * (2 - utmF)
	ePrime2 := e2 / (1 - e2)

	latRad := lat * math.Pi / 180
	lonRad := lon * math.Pi / 180
	lonOrigin := (float64(u.Zone)*6 - 183) * math.Pi / 180

	sinLat := math.Sin(latRad)
	cosLat := math.Cos(latRad)
	tanLat := sinLat / cosLat

	n := utmA / math.Sqrt(1-e2*sinLat*sinLat)
	t := tanLat * tanLat
	c := ePrime2 * cosLat * cosLat
	aCoeff := cosLat * (lonRad - lonOrigin)

	m := utmA * ((1-e2/4-3*e2*e2/64-5*e2*e2*e2/256)*latRad -
		(3*e2/8+3*e2*e2/32+45*e2*e2*e2/1024)*math.Sin(2*latRad) +
		(15*e2*e2/256+45*e2*e2*e2/1024)*math.Sin(4*latRad) -
		(35*e2*e2*e2/3072)*math.Sin(6*latRad))

	easting = utmK0*n*(aCoeff+(1-t+c)*aCoeff*aCoeff*aCoeff/6+
		(5-18*t+t*t+72*c-58*ePrime2)*aCoeff*aCoeff*aCoeff*aCoeff*aCoeff/120) + 500000.0

	northing = utmK0 * (m + n*tanLat*(aCoeff*aCoeff/2+
		(5-t+9*c+4*c*c)*aCoeff*aCoeff*aCoeff*aCoeff/24+
		(61-58*t+t*t+600*c-330*ePrime2)*aCoeff*aCoeff*aCoeff*aCoeff*aCoeff*aCoeff/720))

	if !u.Northern {
		northing += 10000000.0
	}
	return
}
