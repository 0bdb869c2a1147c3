package geos

/*
#cgo LDFLAGS: -lgeos_c
#include "geos_c.h"
#include <stdlib.h>
*/
import "C"

// Polygon creates a polygon from a shell and holes. The polygon takes over
// the rings on success; on failure the rings are destroyed.
func (c *Context) Polygon(shell *Geom, holes []*Geom) (*Geom, error) {
	var holesPtr **C.GEOSGeometry
	holePtrs := make([]*C.GEOSGeometry, len(holes))
	for i, h := range holes {
		holePtrs[i] = h.v
	}
	if len(holePtrs) > 0 {
		holesPtr = &holePtrs[0]
	}
	geom := C.GEOSGeom_createPolygon_r(c.raw(), shell.v, holesPtr, C.uint(len(holes)))
	if geom == nil {
		shell.Destroy()
		for _, h := range holes {
			h.Destroy()
		}
		return nil, &ConstructionError{Constructor: "Polygon.New", Message: c.LastError()}
	}
	shell.disown()
	for _, h := range holes {
		h.disown()
	}
	if C.GEOSNormalize_r(c.raw(), geom) != 0 {
		C.GEOSGeom_destroy_r(c.raw(), geom)
		return nil, &ConstructionError{Constructor: "Polygon.Normalize", Message: c.LastError()}
	}
	return c.newGeom(geom, "Polygon.New")
}

func (c *Context) collection(typ C.int, constructor string, geoms []*Geom) (*Geom, error) {
	if len(geoms) == 0 {
		return c.newGeom(C.GEOSGeom_createEmptyCollection_r(c.raw(), typ), constructor)
	}
	ptrs := make([]*C.GEOSGeometry, len(geoms))
	for i, g := range geoms {
		ptrs[i] = g.v
	}
	geom := C.GEOSGeom_createCollection_r(c.raw(), typ, &ptrs[0], C.uint(len(geoms)))
	if geom == nil {
		return nil, &ConstructionError{Constructor: constructor, Message: c.LastError()}
	}
	for _, g := range geoms {
		g.disown()
	}
	return c.newGeom(geom, constructor)
}

// MultiPolygon creates a collection that takes over polygons.
func (c *Context) MultiPolygon(polygons []*Geom) (*Geom, error) {
	return c.collection(C.GEOS_MULTIPOLYGON, "MultiPolygon.New", polygons)
}

// MultiLineString creates a collection that takes over lines.
func (c *Context) MultiLineString(lines []*Geom) (*Geom, error) {
	return c.collection(C.GEOS_MULTILINESTRING, "MultiLineString.New", lines)
}

func (c *Context) Intersection(a, b *Geom) (*Geom, error) {
	return c.newGeom(C.GEOSIntersection_r(c.raw(), a.v, b.v), "Intersection")
}

func (c *Context) Buffer(geom *Geom, size float64) (*Geom, error) {
	return c.newGeom(C.GEOSBuffer_r(c.raw(), geom.v, C.double(size), 50), "Buffer")
}

func (c *Context) SimplifyPreserveTopology(geom *Geom, tolerance float64) (*Geom, error) {
	return c.newGeom(C.GEOSTopologyPreserveSimplify_r(c.raw(), geom.v, C.double(tolerance)), "SimplifyPreserveTopology")
}

// UnionPolygons tries to merge polygons.
// Returns a single (Multi)Polygon.
// Takes over polygons and returns a new allocated (Multi)Polygon as necessary.
func (c *Context) UnionPolygons(polygons []*Geom) (*Geom, error) {
	if len(polygons) == 0 {
		return nil, ErrNilGeom
	}
	if len(polygons) == 1 {
		return polygons[0], nil
	}
	multiPolygon, err := c.MultiPolygon(polygons)
	if err != nil {
		return nil, err
	}
	defer multiPolygon.Destroy()

	return c.newGeom(C.GEOSUnaryUnion_r(c.raw(), multiPolygon.v), "UnionPolygons")
}

// LineMerge tries to merge lines. Returns slice of LineStrings.
// Takes over lines and returns new allocated LineString Geoms.
func (c *Context) LineMerge(lines []*Geom) ([]*Geom, error) {
	if len(lines) <= 1 {
		return lines, nil
	}
	multiLineString, err := c.MultiLineString(lines)
	if err != nil {
		return nil, err
	}
	defer multiLineString.Destroy()
	merged, err := c.newGeom(C.GEOSLineMerge_r(c.raw(), multiLineString.v), "LineMerge")
	if err != nil {
		return nil, err
	}
	if merged.Type() == "LineString" {
		return []*Geom{merged}, nil
	}

	// extract MultiLineString
	defer merged.Destroy()
	return merged.Geoms()
}
