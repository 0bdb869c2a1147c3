package proj

import (
	"math"
)

const pole = 6378137 * math.Pi // 20037508.342789244

func WgsToMerc(long, lat float64) (x, y float64) {
	x = long * pole / 180.0
	y = math.Log(math.Tan((90.0+lat)*math.Pi/360.0)) / math.Pi * pole
	return x, y
}

func MercToWgs(x, y float64) (long, lat float64) {
	long = 180.0 * x / pole
	lat = 180.0 / math.Pi * (2*math.Atan(math.Exp((y/pole)*math.Pi)) - math.Pi/2)
	return long, lat
}

// Transform returns the function that transforms WGS84 coordinates into srid.
// Only 4326 and 3857 are supported.
func Transform(srid int) (func(long, lat float64) (float64, float64), bool) {
	switch srid {
	case 4326:
		return func(long, lat float64) (float64, float64) { return long, lat }, true
	case 3857:
		return WgsToMerc, true
	}
	return nil, false
}
