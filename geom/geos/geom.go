package geos

/*
#cgo LDFLAGS: -lgeos_c
#include "geos_c.h"
#include <stdlib.h>
*/
import "C"

import (
	"runtime"
	"sync"
	"unsafe"
)

// Geom is a GEOS geometry. It holds a reference to the context it was
// created with.
type Geom struct {
	v    *C.GEOSGeometry
	ctx  *Context
	once sync.Once
}

// newGeom wraps v. A nil v results in a ConstructionError for constructor.
func (c *Context) newGeom(v *C.GEOSGeometry, constructor string) (*Geom, error) {
	if v == nil {
		return nil, &ConstructionError{Constructor: constructor, Message: c.LastError()}
	}
	geomsLive.Add(1)
	return &Geom{v: v, ctx: c.Clone()}, nil
}

// Context returns the context the geometry was created with.
func (g *Geom) Context() *Context {
	return g.ctx
}

// Destroy frees the native geometry and releases its context. Further calls
// are no-ops.
func (g *Geom) Destroy() {
	g.once.Do(func() {
		runtime.SetFinalizer(g, nil)
		C.GEOSGeom_destroy_r(g.ctx.raw(), g.v)
		g.v = nil
		g.ctx.Release()
		geomsLive.Add(-1)
	})
}

// disown gives up the native geometry after GEOS took ownership of it, e.g.
// as ring of a new polygon.
func (g *Geom) disown() {
	g.once.Do(func() {
		runtime.SetFinalizer(g, nil)
		g.v = nil
		g.ctx.Release()
		geomsLive.Add(-1)
	})
}

// DestroyLater destroys the geometry when it is garbage collected.
func (g *Geom) DestroyLater() {
	runtime.SetFinalizer(g, (*Geom).Destroy)
}

func (g *Geom) alive() bool {
	return g != nil && g.v != nil
}

func (g *Geom) Type() string {
	s := C.GEOSGeomType_r(g.ctx.raw(), g.v)
	if s == nil {
		return ""
	}
	defer C.GEOSFree_r(g.ctx.raw(), unsafe.Pointer(s))
	return C.GoString(s)
}

func (g *Geom) IsEmpty() bool {
	return C.GEOSisEmpty_r(g.ctx.raw(), g.v) == 1
}

func (g *Geom) IsValid() bool {
	return C.GEOSisValid_r(g.ctx.raw(), g.v) == 1
}

func (g *Geom) Area() float64 {
	var area C.double
	if ret := C.GEOSArea_r(g.ctx.raw(), g.v, &area); ret == 1 {
		return float64(area)
	}
	return 0
}

func (g *Geom) Length() float64 {
	var length C.double
	if ret := C.GEOSLength_r(g.ctx.raw(), g.v, &length); ret == 1 {
		return float64(length)
	}
	return 0
}

type Bounds struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

var NilBounds = Bounds{1e20, 1e20, -1e20, -1e20}

// Bounds returns the envelope of the geometry, or NilBounds for empty
// geometries.
func (g *Geom) Bounds() Bounds {
	if g.IsEmpty() {
		return NilBounds
	}
	h := g.ctx.raw()
	var minx, miny, maxx, maxy C.double
	if C.GEOSGeom_getXMin_r(h, g.v, &minx) == 0 ||
		C.GEOSGeom_getYMin_r(h, g.v, &miny) == 0 ||
		C.GEOSGeom_getXMax_r(h, g.v, &maxx) == 0 ||
		C.GEOSGeom_getYMax_r(h, g.v, &maxy) == 0 {
		return NilBounds
	}
	return Bounds{float64(minx), float64(miny), float64(maxx), float64(maxy)}
}

func (g *Geom) NumGeoms() int32 {
	n := C.GEOSGetNumGeometries_r(g.ctx.raw(), g.v)
	if n == -1 {
		return 0
	}
	return int32(n)
}

// Geoms returns copies of all parts of a collection.
func (g *Geom) Geoms() ([]*Geom, error) {
	n := g.NumGeoms()
	result := make([]*Geom, 0, n)
	for i := int32(0); i < n; i++ {
		part := C.GEOSGetGeometryN_r(g.ctx.raw(), g.v, C.int(i))
		clone, err := g.ctx.newGeom(C.GEOSGeom_clone_r(g.ctx.raw(), part), "Geom.Geoms")
		if err != nil {
			for _, p := range result {
				p.Destroy()
			}
			return nil, err
		}
		result = append(result, clone)
	}
	return result, nil
}

func (g *Geom) Clone() (*Geom, error) {
	return g.ctx.newGeom(C.GEOSGeom_clone_r(g.ctx.raw(), g.v), "Geom.Clone")
}

// Equals tests spatial equality. Exceptions are reported as false.
func (g *Geom) Equals(other *Geom) bool {
	return C.GEOSEquals_r(g.ctx.raw(), g.v, other.v) == 1
}

// Prepare creates a prepared geometry for g. The result does not depend on g.
func (g *Geom) Prepare() (*PreparedGeom, error) {
	return Prepare(g)
}
