package coord

import "math"

// EarthCircumference is the equatorial circumference in meters, the scale
// constant Web Mercator (EPSG:3857) is built from.
const EarthCircumference = 40075016.685578488

// OriginShift is half the earth's circumference — Web Mercator's x/y origin
// offset, in metres, for the 180th meridian / the Mercator projection's
// vertical asymptote.
const OriginShift = EarthCircumference / 2.0

// WebMercatorProj implements the Projection interface for EPSG:3857, the CRS
// international background elevation datasets are sometimes delivered in.
type WebMercatorProj struct{}

func (w *WebMercatorProj) EPSG() int { return 3857 }

func (w *WebMercatorProj) ToWGS84(x, y float64) (lon, lat float64) {
	lon = (x / OriginShift) * 180.0
	lat = (y / OriginShift) * 180.0
	lat = 180.0 / math.Pi * (2.0*math.Atan(math.Exp(lat*math.Pi/180.0)) - math.Pi/2.0)
	return
}

func (w *WebMercatorProj) FromWGS84(lon, lat float64) (x, y float64) {
	x = lon * OriginShift / 180.0
	y = math.Log(math.Tan((90.0+lat)*math.Pi/360.0)) / (math.Pi / 180.0)
	y = y * OriginShift / 180.0
	return
}
