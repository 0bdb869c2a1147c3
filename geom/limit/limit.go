package limit

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/omniscale/geosprep/cache"
	"github.com/omniscale/geosprep/database/postgis"
	"github.com/omniscale/geosprep/geom/geojson"
	"github.com/omniscale/geosprep/geom/geos"
	"github.com/omniscale/geosprep/logging"
	"github.com/omniscale/geosprep/proj"
)

var log = logging.NewLogger("limiter")

// Tile bbox into multiple sub-boxes, each of `width` size.
func tileBounds(bounds geos.Bounds, width float64) []geos.Bounds {
	var results []geos.Bounds
	minX := math.Floor(bounds.MinX/width) * width
	minY := math.Floor(bounds.MinY/width) * width
	maxX := math.Ceil(bounds.MaxX/width) * width
	maxY := math.Ceil(bounds.MaxY/width) * width

	xSteps := math.Ceil((maxX - minX) / width)
	ySteps := math.Ceil((maxY - minY) / width)

	for x := 0; x < int(xSteps); x++ {
		for y := 0; y < int(ySteps); y++ {
			results = append(results, geos.Bounds{
				MinX: minX + float64(x)*width,
				MinY: minY + float64(y)*width,
				MaxX: minX + float64(x+1)*width,
				MaxY: minY + float64(y+1)*width,
			})
		}
	}
	return results
}

// splitPolygonAtGrid splits geom into parts of at most gridWidth, starting
// with tiles of currentGridWidth and halving them on each level.
func splitPolygonAtGrid(ctx *geos.Context, geom *geos.Geom, gridWidth, currentGridWidth float64) ([]*geos.Geom, error) {
	var result []*geos.Geom
	geomBounds := geom.Bounds()
	if geomBounds == geos.NilBounds {
		return nil, errors.New("couldn't create bounds for geom")
	}
	for _, bounds := range tileBounds(geomBounds, currentGridWidth) {
		clipGeom, err := ctx.BoundsPolygon(bounds)
		if err != nil {
			return nil, errors.Wrap(err, "creating bounds polygon")
		}
		part, err := ctx.Intersection(geom, clipGeom)
		clipGeom.Destroy()
		if err != nil {
			return nil, errors.Wrap(err, "creating intersection")
		}
		if part.IsEmpty() || !strings.HasSuffix(part.Type(), "Polygon") {
			part.Destroy()
			continue
		}
		if gridWidth >= currentGridWidth {
			result = append(result, part)
		} else {
			moreParts, err := splitPolygonAtGrid(ctx, part, gridWidth, currentGridWidth/2.0)
			part.Destroy()
			if err != nil {
				return nil, err
			}
			result = append(result, moreParts...)
		}
	}
	return result, nil
}

// splitParams returns the grid width and the initial tile width for
// splitPolygonAtGrid. Parts are at least minGridWidth wide and the larger
// side of bounds is split into at most maxGrids parts.
func splitParams(bounds geos.Bounds, maxGrids int, minGridWidth float64) (float64, float64) {
	width := bounds.MaxX - bounds.MinX
	height := bounds.MaxY - bounds.MinY

	gridWidth := math.Max(width, height) / float64(maxGrids)
	gridWidth = math.Max(gridWidth, minGridWidth)

	currentWidth := gridWidth
	for currentWidth*2 <= width {
		currentWidth *= 2
	}
	return gridWidth, currentWidth
}

// Limiter tests and clips geometries against a set of polygons.
//
// The polygons are split at a grid and each part is prepared, so that
// predicate tests only touch the few parts near a geometry. The prepared
// parts are locked during each test, as GEOS builds the internal index of a
// prepared geometry lazily with the first query.
type Limiter struct {
	ctx            *geos.Context
	index          *geos.Index
	bufferedPrep   *geos.PreparedGeom
	bufferedSource *geos.Geom
	bufferedPrepMu *sync.Mutex
	bufferedBbox   geos.Bounds
}

// LoadGeoJSON returns the polygons of a GeoJSON file, created with ctx. The
// WGS84 coordinates are transformed into srid (4326 or 3857).
func LoadGeoJSON(ctx *geos.Context, source string, srid int) ([]*geos.Geom, error) {
	transform, ok := proj.Transform(srid)
	if !ok {
		return nil, errors.Errorf("unsupported srid %d for limitto", srid)
	}
	features, err := geojson.ParseFile(source)
	if err != nil {
		return nil, err
	}
	geojson.Transform(features, transform)

	polygons, err := geojson.Geoms(ctx, features)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", source)
	}
	return polygons, nil
}

// LoadPostGIS returns the WKB of all polygons of a PostGIS query. The
// polygons are read from and stored in c, if c is not nil.
func LoadPostGIS(connection, query string, c *cache.Cache) ([][]byte, error) {
	var key []byte
	if c != nil {
		key = cache.Key(connection, query)
		entry, ok, err := c.Get(key)
		if err != nil {
			log.Warnf("unable to read limitto cache: %s", err)
		} else if ok {
			log.Printf("using %d cached limitto polygons from %s", len(entry.Wkbs), entry.Created.Format(time.RFC3339))
			return entry.Wkbs, nil
		}
	}

	wkbs, err := postgis.Load(connection, query)
	if err != nil {
		return nil, err
	}
	if c != nil {
		if err := c.Put(key, cache.Entry{Created: time.Now(), Wkbs: wkbs}); err != nil {
			log.Warnf("unable to cache limitto polygons: %s", err)
		}
	}
	return wkbs, nil
}

// NewFromGeoJSON creates a Limiter from polygons in a GeoJSON file.
func NewFromGeoJSON(source string, buffer float64, srid int) (*Limiter, error) {
	ctx, err := geos.NewContext()
	if err != nil {
		return nil, err
	}
	defer ctx.Release()

	polygons, err := LoadGeoJSON(ctx, source, srid)
	if err != nil {
		return nil, err
	}
	return NewFromGeoms(ctx, polygons, buffer)
}

// NewFromWkb creates a Limiter from WKB encoded polygons.
func NewFromWkb(wkbs [][]byte, buffer float64) (*Limiter, error) {
	ctx, err := geos.NewContext()
	if err != nil {
		return nil, err
	}
	defer ctx.Release()

	polygons := make([]*geos.Geom, 0, len(wkbs))
	for i, wkb := range wkbs {
		g, err := ctx.FromWkb(wkb)
		if err != nil {
			for _, p := range polygons {
				p.Destroy()
			}
			return nil, errors.Wrapf(err, "parsing polygon %d", i)
		}
		polygons = append(polygons, g)
	}
	return NewFromGeoms(ctx, polygons, buffer)
}

// NewFromPostGIS creates a Limiter from the polygons of a PostGIS query.
// The polygons are cached in c if c is not nil.
func NewFromPostGIS(connection, query string, buffer float64, c *cache.Cache) (*Limiter, error) {
	wkbs, err := LoadPostGIS(connection, query, c)
	if err != nil {
		return nil, err
	}
	return NewFromWkb(wkbs, buffer)
}

// NewFromGeoms creates a Limiter from polygons. The Limiter takes over the
// polygons and keeps a reference to ctx. With buffer != 0, a buffered union
// of all polygons is prepared for IntersectsBuffer.
func NewFromGeoms(ctx *geos.Context, polygons []*geos.Geom, buffer float64) (*Limiter, error) {
	step := log.StartStep("Preparing limitto polygons")
	defer log.StopStep(step)

	index, err := ctx.CreateIndex()
	if err != nil {
		return nil, err
	}
	l := &Limiter{
		ctx:            ctx.Clone(),
		index:          index,
		bufferedPrepMu: &sync.Mutex{},
	}

	var buffered []*geos.Geom
	fail := func(err error) (*Limiter, error) {
		for _, g := range polygons {
			if g != nil {
				g.Destroy()
			}
		}
		for _, g := range buffered {
			g.Destroy()
		}
		l.Destroy()
		return nil, err
	}

	for i, geom := range polygons {
		if buffer != 0.0 {
			simplified, err := ctx.SimplifyPreserveTopology(geom, buffer/10)
			if err != nil {
				return fail(errors.Wrap(err, "couldn't simplify limitto"))
			}
			b, err := ctx.Buffer(simplified, buffer)
			simplified.Destroy()
			if err != nil {
				return fail(errors.Wrap(err, "couldn't buffer limitto"))
			}
			buffered = append(buffered, b)
		}
		gridWidth, currentWidth := splitParams(geom.Bounds(), 32, 20000)
		parts, err := splitPolygonAtGrid(ctx, geom, gridWidth, currentWidth)
		if err != nil {
			return fail(err)
		}
		geom.Destroy()
		polygons[i] = nil
		for j, part := range parts {
			if err := index.Add(part); err != nil {
				for _, p := range parts[j:] {
					p.Destroy()
				}
				return fail(err)
			}
		}
	}
	polygons = nil

	if len(buffered) > 0 {
		union, err := ctx.UnionPolygons(buffered)
		buffered = nil
		if err != nil {
			return fail(errors.Wrap(err, "unable to union limitto polygons"))
		}
		simplified, err := ctx.SimplifyPreserveTopology(union, buffer/2)
		union.Destroy()
		if err != nil {
			return fail(errors.Wrap(err, "unable to simplify limitto polygons"))
		}
		// keep simplified around for prepared geometry
		l.bufferedSource = simplified
		l.bufferedBbox = simplified.Bounds()
		l.bufferedPrep, err = simplified.Prepare()
		if err != nil {
			return fail(errors.Wrap(err, "unable to prepare limitto polygons"))
		}
	}
	log.Printf("prepared %d limitto parts", index.Len())
	return l, nil
}

// Destroy frees all prepared geometries.
func (l *Limiter) Destroy() {
	if l.index != nil {
		l.index.Destroy()
		l.index = nil
	}
	if l.bufferedPrep != nil {
		l.bufferedPrep.Destroy()
		l.bufferedPrep = nil
	}
	if l.bufferedSource != nil {
		l.bufferedSource.Destroy()
		l.bufferedSource = nil
	}
	if l.ctx != nil {
		l.ctx.Release()
		l.ctx = nil
	}
}

func filterGeometryByType(geom *geos.Geom, targetType string) []*geos.Geom {
	// Filter (multi)geometry for compatible `geom_type`,
	// because we can't insert points into linestring tables for example

	geomType := geom.Type()

	if geomType == targetType {
		// same type is fine
		return []*geos.Geom{geom}
	}
	if geomType == "Polygon" && targetType == "MultiPolygon" {
		// multipolygon mappings also support polygons
		return []*geos.Geom{geom}
	}
	if geomType == "MultiPolygon" && targetType == "Polygon" {
		// polygon mappings should also support multipolygons
		return []*geos.Geom{geom}
	}

	var geoms []*geos.Geom
	if geom.NumGeoms() >= 1 {
		// GeometryCollection or MultiLineString? return list of geometries
		parts, err := geom.Geoms()
		if err != nil {
			log.Warnf("unable to split %s: %s", geomType, err)
		}
		for _, part := range parts {
			// only parts with same type
			if part.Type() == targetType {
				geoms = append(geoms, part)
			} else {
				part.Destroy()
			}
		}
	}
	geom.Destroy()
	return geoms
}

// Intersects reports whether geom intersects any limitto polygon.
func (l *Limiter) Intersects(geom *geos.Geom) (bool, error) {
	return l.Relate(geos.Intersects, geom)
}

// ErrSplitPredicate is returned by Relate for predicates that can't be
// answered from the split parts.
var ErrSplitPredicate = errors.New("predicate not supported for split limitto polygons")

// SplitPredicate reports whether pred gives the same result for the split
// parts as for the whole limitto polygons. Only intersects and disjoint do;
// a point on an internal grid line touches two parts but is inside the
// polygon.
func SplitPredicate(pred geos.Predicate) bool {
	return pred == geos.Intersects || pred == geos.Disjoint
}

// Relate reports whether pred is true for the limitto polygons and geom.
// Disjoint is true if geom intersects no part. Other predicates than
// intersects and disjoint return ErrSplitPredicate; use Clip to get the
// exact covered area.
func (l *Limiter) Relate(pred geos.Predicate, geom *geos.Geom) (bool, error) {
	if !SplitPredicate(pred) {
		return false, errors.WithMessage(ErrSplitPredicate, pred.String())
	}
	if pred == geos.Disjoint {
		ok, err := l.Relate(geos.Intersects, geom)
		return !ok, err
	}
	for _, hit := range l.index.Query(geom) {
		hit.Lock()
		ok, err := hit.Prepared.Eval(pred, geom)
		hit.Unlock()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Clip returns the parts of geom inside the limitto polygons. It returns nil
// if geom is completely outside and geom itself if it is completely inside
// a single part. Otherwise the parts are merged by type and returned as new
// geometries.
func (l *Limiter) Clip(geom *geos.Geom) ([]*geos.Geom, error) {
	hits := l.index.Query(geom)
	if len(hits) == 0 {
		return nil, nil
	}
	ctx := geom.Context()
	geomType := geom.Type()

	var intersections []*geos.Geom

	for _, hit := range hits {
		hit.Lock()
		contains, err := hit.Prepared.Contains(geom)
		if err != nil {
			hit.Unlock()
			return nil, err
		}
		if contains {
			hit.Unlock()
			for _, p := range intersections {
				p.Destroy()
			}
			return []*geos.Geom{geom}, nil
		}

		intersects, err := hit.Prepared.Intersects(geom)
		hit.Unlock()
		if err != nil {
			return nil, err
		}
		if !intersects {
			continue
		}
		newPart, err := ctx.Intersection(hit.Geom, geom)
		if err != nil {
			log.Warnf("unable to clip %s: %s", geomType, err)
			continue
		}
		intersections = append(intersections, filterGeometryByType(newPart, geomType)...)
	}
	return mergeGeometries(ctx, intersections, geomType)
}

// IntersectsBuffer reports whether the point x/y is inside the buffered
// limitto polygons. Without buffer it always returns true.
func (l *Limiter) IntersectsBuffer(ctx *geos.Context, x, y float64) bool {
	if l.bufferedPrep == nil {
		return true
	}
	if x < l.bufferedBbox.MinX ||
		y < l.bufferedBbox.MinY ||
		x > l.bufferedBbox.MaxX ||
		y > l.bufferedBbox.MaxY {
		return false
	}
	p, err := ctx.Point(x, y)
	if err != nil {
		return false
	}
	defer p.Destroy()

	l.bufferedPrepMu.Lock()
	defer l.bufferedPrepMu.Unlock()
	ok, err := l.bufferedPrep.Intersects(p)
	if err != nil {
		log.Warnf("buffer test for %f %f failed: %s", x, y, err)
		return false
	}
	return ok
}

func flattenPolygons(geoms []*geos.Geom) []*geos.Geom {
	var result []*geos.Geom
	for _, geom := range geoms {
		switch geom.Type() {
		case "MultiPolygon":
			parts, err := geom.Geoms()
			if err != nil {
				log.Warnf("unable to flatten MultiPolygon: %s", err)
			}
			result = append(result, parts...)
			geom.Destroy()
		case "Polygon":
			result = append(result, geom)
		default:
			log.Printf("unexpected geometry type in flattenPolygons")
			geom.Destroy()
		}
	}
	return result
}

func flattenLineStrings(geoms []*geos.Geom) []*geos.Geom {
	var result []*geos.Geom
	for _, geom := range geoms {
		switch geom.Type() {
		case "MultiLineString":
			parts, err := geom.Geoms()
			if err != nil {
				log.Warnf("unable to flatten MultiLineString: %s", err)
			}
			result = append(result, parts...)
			geom.Destroy()
		case "LineString":
			result = append(result, geom)
		default:
			log.Printf("unexpected geometry type in flattenLineStrings")
			geom.Destroy()
		}
	}
	return result
}

func filterInvalidLineStrings(geoms []*geos.Geom) []*geos.Geom {
	var result []*geos.Geom
	for _, geom := range geoms {
		if geom.Length() > 1e-9 {
			result = append(result, geom)
		} else {
			geom.Destroy()
		}
	}
	return result
}

// mergeGeometries merges intersections from multiple parts back to as few
// geometries as possible.
func mergeGeometries(ctx *geos.Context, geoms []*geos.Geom, geomType string) ([]*geos.Geom, error) {
	switch {
	case strings.HasSuffix(geomType, "Polygon"):
		polygons := flattenPolygons(geoms)
		if len(polygons) == 0 {
			return nil, nil
		}
		polygon, err := ctx.UnionPolygons(polygons)
		if err != nil {
			return nil, err
		}
		return []*geos.Geom{polygon}, nil
	case strings.HasSuffix(geomType, "LineString"):
		linestrings := flattenLineStrings(geoms)
		linestrings = filterInvalidLineStrings(linestrings)
		if len(linestrings) == 0 {
			return nil, nil
		}
		return ctx.LineMerge(linestrings)
	case geomType == "Point":
		if len(geoms) >= 1 {
			for _, g := range geoms[1:] {
				g.Destroy()
			}
			return geoms[0:1], nil
		}
		return nil, nil
	default:
		for _, g := range geoms {
			g.Destroy()
		}
		return nil, errors.Errorf("unexpected geometry type %s", geomType)
	}
}
