// Package geojson reads polygons from GeoJSON and builds GEOS geometries.
package geojson

import (
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/omniscale/geosprep/geom/geos"
)

type object struct {
	Type        string                 `json:"type"`
	Features    []object               `json:"features"`
	Geometry    *object                `json:"geometry"`
	Coordinates []interface{}          `json:"coordinates"`
	Properties  map[string]interface{} `json:"properties"`
}

type Point struct {
	Long float64
	Lat  float64
}

type LineString []Point

type Polygon []LineString

type Feature struct {
	Polygon    Polygon
	Properties map[string]string
}

func newPointFromCoords(coords []interface{}) (Point, error) {
	p := Point{}
	// extra dimensions (z) are ignored
	if len(coords) < 2 {
		return p, errors.New("point list length < 2")
	}
	var ok bool
	p.Long, ok = coords[0].(float64)
	if !ok {
		return p, errors.New("invalid lon")
	}
	p.Lat, ok = coords[1].(float64)
	if !ok {
		return p, errors.New("invalid lat")
	}
	return p, nil
}

func newLineStringFromCoords(coords []interface{}) (LineString, error) {
	ls := LineString{}

	for _, part := range coords {
		coord, ok := part.([]interface{})
		if !ok {
			return ls, errors.New("point not a list")
		}
		p, err := newPointFromCoords(coord)
		if err != nil {
			return ls, err
		}
		ls = append(ls, p)
	}
	return ls, nil
}

func newPolygonFromCoords(coords []interface{}) (Polygon, error) {
	poly := Polygon{}

	for _, part := range coords {
		lsCoords, ok := part.([]interface{})
		if !ok {
			return poly, errors.New("polygon linestring not a list")
		}
		ls, err := newLineStringFromCoords(lsCoords)
		if err != nil {
			return poly, err
		}
		poly = append(poly, ls)
	}
	if len(poly) == 0 {
		return poly, errors.New("polygon without rings")
	}
	return poly, nil
}

func newMultiPolygonFromCoords(coords []interface{}) ([]Polygon, error) {
	mp := []Polygon{}

	for _, part := range coords {
		polyCoords, ok := part.([]interface{})
		if !ok {
			return mp, errors.New("multipolygon polygon not a list")
		}
		poly, err := newPolygonFromCoords(polyCoords)
		if err != nil {
			return mp, err
		}
		mp = append(mp, poly)
	}
	return mp, nil
}

func stringProperties(props map[string]interface{}) map[string]string {
	if props == nil {
		return nil
	}
	result := make(map[string]string, len(props))
	for k, v := range props {
		switch v := v.(type) {
		case string:
			result[k] = v
		case float64:
			result[k] = fmt.Sprintf("%v", v)
		default:
			result[k] = fmt.Sprint(v)
		}
	}
	return result
}

func constructPolygonFeatures(obj *object) ([]Feature, error) {
	switch obj.Type {
	case "Point", "LineString", "MultiLineString", "MultiPoint":
		return nil, errors.New("only Polygon or MultiPolygon are supported")
	case "Polygon":
		poly, err := newPolygonFromCoords(obj.Coordinates)
		if err != nil {
			return nil, err
		}
		return []Feature{{Polygon: poly}}, nil
	case "MultiPolygon":
		polys, err := newMultiPolygonFromCoords(obj.Coordinates)
		if err != nil {
			return nil, err
		}
		features := make([]Feature, 0, len(polys))
		for _, poly := range polys {
			features = append(features, Feature{Polygon: poly})
		}
		return features, nil
	case "Feature":
		if obj.Geometry == nil {
			return nil, errors.New("feature without geometry")
		}
		features, err := constructPolygonFeatures(obj.Geometry)
		if err != nil {
			return nil, err
		}
		props := stringProperties(obj.Properties)
		for i := range features {
			features[i].Properties = props
		}
		return features, nil
	case "FeatureCollection":
		features := make([]Feature, 0)

		for i := range obj.Features {
			f, err := constructPolygonFeatures(&obj.Features[i])
			if err != nil {
				return nil, errors.Wrapf(err, "feature %d", i)
			}
			features = append(features, f...)
		}
		return features, nil
	default:
		return nil, errors.New("unknown type: " + obj.Type)
	}
}

// ParseGeoJSON parses all polygons of a Polygon, MultiPolygon, Feature or
// FeatureCollection document. Each polygon is returned as a separate feature.
func ParseGeoJSON(r io.Reader) ([]Feature, error) {
	decoder := json.NewDecoder(r)

	obj := &object{}
	if err := decoder.Decode(obj); err != nil {
		return nil, errors.Wrap(err, "decoding GeoJSON")
	}

	return constructPolygonFeatures(obj)
}

// ParseFile parses polygons from a GeoJSON file.
func ParseFile(fileName string) ([]Feature, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	features, err := ParseGeoJSON(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", fileName)
	}
	return features, nil
}

// Transform applies f to all coordinates of the features.
func Transform(features []Feature, f func(long, lat float64) (float64, float64)) {
	for _, feature := range features {
		for _, ls := range feature.Polygon {
			for i, p := range ls {
				ls[i].Long, ls[i].Lat = f(p.Long, p.Lat)
			}
		}
	}
}

// Geom builds a GEOS polygon of the feature on ctx.
func (f Feature) Geom(ctx *geos.Context) (*geos.Geom, error) {
	return geosPolygon(ctx, f.Polygon)
}

// Geoms builds GEOS polygons for all features. On error, already created
// geometries are destroyed.
func Geoms(ctx *geos.Context, features []Feature) ([]*geos.Geom, error) {
	result := make([]*geos.Geom, 0, len(features))
	for i, f := range features {
		g, err := f.Geom(ctx)
		if err != nil {
			for _, g := range result {
				g.Destroy()
			}
			return nil, errors.Wrapf(err, "polygon %d", i)
		}
		result = append(result, g)
	}
	return result, nil
}

func geosRing(ctx *geos.Context, ls LineString) (*geos.Geom, error) {
	coords := make([][2]float64, len(ls))
	for i, p := range ls {
		coords[i] = [2]float64{p.Long, p.Lat}
	}
	// close rings
	if len(coords) > 0 && coords[0] != coords[len(coords)-1] {
		coords = append(coords, coords[0])
	}
	return ctx.LinearRing(coords)
}

func geosPolygon(ctx *geos.Context, polygon Polygon) (*geos.Geom, error) {
	shell, err := geosRing(ctx, polygon[0])
	if err != nil {
		return nil, err
	}

	holes := make([]*geos.Geom, 0, len(polygon)-1)
	for _, ls := range polygon[1:] {
		hole, err := geosRing(ctx, ls)
		if err != nil {
			shell.Destroy()
			for _, h := range holes {
				h.Destroy()
			}
			return nil, err
		}
		holes = append(holes, hole)
	}

	return ctx.Polygon(shell, holes)
}
