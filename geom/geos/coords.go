package geos

/*
#cgo LDFLAGS: -lgeos_c
#include "geos_c.h"
#include <stdlib.h>
*/
import "C"

import "errors"

// CoordSeq is a coordinate sequence used to build geometries. It borrows the
// context it was created with and must not outlive it.
type CoordSeq struct {
	v   *C.GEOSCoordSequence
	ctx *Context
}

func (c *Context) CreateCoordSeq(size, dim uint32) (*CoordSeq, error) {
	result := C.GEOSCoordSeq_create_r(c.raw(), C.uint(size), C.uint(dim))
	if result == nil {
		return nil, &ConstructionError{Constructor: "CoordSeq.New", Message: c.LastError()}
	}
	return &CoordSeq{result, c}, nil
}

func (cs *CoordSeq) SetXY(i uint32, x, y float64) error {
	if C.GEOSCoordSeq_setX_r(cs.ctx.raw(), cs.v, C.uint(i), C.double(x)) == 0 {
		return errors.New("geos: unable to SetX")
	}
	if C.GEOSCoordSeq_setY_r(cs.ctx.raw(), cs.v, C.uint(i), C.double(y)) == 0 {
		return errors.New("geos: unable to SetY")
	}
	return nil
}

// AsPoint, AsLineString and AsLinearRing hand the sequence over to GEOS,
// which owns it afterwards, also on failure.

func (cs *CoordSeq) AsPoint() (*Geom, error) {
	geom := C.GEOSGeom_createPoint_r(cs.ctx.raw(), cs.v)
	cs.v = nil
	return cs.ctx.newGeom(geom, "Point.New")
}

func (cs *CoordSeq) AsLineString() (*Geom, error) {
	geom := C.GEOSGeom_createLineString_r(cs.ctx.raw(), cs.v)
	cs.v = nil
	return cs.ctx.newGeom(geom, "LineString.New")
}

func (cs *CoordSeq) AsLinearRing() (*Geom, error) {
	ring := C.GEOSGeom_createLinearRing_r(cs.ctx.raw(), cs.v)
	cs.v = nil
	return cs.ctx.newGeom(ring, "LinearRing.New")
}

// Destroy frees a sequence that was not turned into a geometry.
func (cs *CoordSeq) Destroy() {
	if cs.v != nil {
		C.GEOSCoordSeq_destroy_r(cs.ctx.raw(), cs.v)
		cs.v = nil
	}
}

// Point creates a point geometry.
func (c *Context) Point(x, y float64) (*Geom, error) {
	cs, err := c.CreateCoordSeq(1, 2)
	if err != nil {
		return nil, err
	}
	if err := cs.SetXY(0, x, y); err != nil {
		cs.Destroy()
		return nil, err
	}
	return cs.AsPoint()
}

// LineString creates a line string from xy pairs.
func (c *Context) LineString(coords [][2]float64) (*Geom, error) {
	cs, err := c.coordSeq(coords)
	if err != nil {
		return nil, err
	}
	return cs.AsLineString()
}

// LinearRing creates a closed ring from xy pairs.
func (c *Context) LinearRing(coords [][2]float64) (*Geom, error) {
	cs, err := c.coordSeq(coords)
	if err != nil {
		return nil, err
	}
	return cs.AsLinearRing()
}

func (c *Context) coordSeq(coords [][2]float64) (*CoordSeq, error) {
	cs, err := c.CreateCoordSeq(uint32(len(coords)), 2)
	if err != nil {
		return nil, err
	}
	for i, xy := range coords {
		if err := cs.SetXY(uint32(i), xy[0], xy[1]); err != nil {
			cs.Destroy()
			return nil, err
		}
	}
	return cs, nil
}

// BoundsPolygon creates a rectangular polygon.
func (c *Context) BoundsPolygon(bounds Bounds) (*Geom, error) {
	ring, err := c.LinearRing([][2]float64{
		{bounds.MinX, bounds.MinY},
		{bounds.MaxX, bounds.MinY},
		{bounds.MaxX, bounds.MaxY},
		{bounds.MinX, bounds.MaxY},
		{bounds.MinX, bounds.MinY},
	})
	if err != nil {
		return nil, err
	}
	return c.Polygon(ring, nil)
}
