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
	"sync/atomic"
	"unsafe"
)

// PreparedGeom is a prepared geometry for fast repeated predicate tests.
//
// The native handle is set once by Prepare and freed exactly once by
// Destroy. PreparedGeom owns a copy of the source geometry and holds its own
// reference to a Context, so the source geometry can be destroyed right
// after Prepare.
//
// A PreparedGeom is not safe for concurrent use. Goroutines sharing one
// prepared geometry need to serialize all calls, e.g. with the lock of an
// IndexGeom. Different prepared geometries can be used in parallel.
type PreparedGeom struct {
	v         *C.GEOSPreparedGeometry
	base      *C.GEOSGeometry
	ctx       atomic.Pointer[Context]
	once      sync.Once
	destroyed atomic.Bool
}

// prepareRaw is the native prepare call.
var prepareRaw = func(ctx, geom unsafe.Pointer) unsafe.Pointer {
	return unsafe.Pointer(C.GEOSPrepare_r(C.GEOSContextHandle_t(ctx), (*C.GEOSGeometry)(geom)))
}

// Prepare creates a prepared geometry from a copy of source, using the
// context of source. source is not modified.
func Prepare(source *Geom) (*PreparedGeom, error) {
	if source == nil {
		return nil, ErrNilGeom
	}
	if !source.alive() {
		return nil, ErrDestroyed
	}
	ctx := source.ctx
	ctx.resetLastError()
	base := C.GEOSGeom_clone_r(ctx.raw(), source.v)
	runtime.KeepAlive(source)
	if base == nil {
		return nil, &ConstructionError{Constructor: "PreparedGeom.New", Message: ctx.LastError()}
	}
	v := (*C.GEOSPreparedGeometry)(prepareRaw(unsafe.Pointer(ctx.raw()), unsafe.Pointer(base)))
	if v == nil {
		C.GEOSGeom_destroy_r(ctx.raw(), base)
		return nil, &ConstructionError{Constructor: "PreparedGeom.New", Message: ctx.LastError()}
	}
	p := &PreparedGeom{v: v, base: base}
	p.ctx.Store(ctx.Clone())
	preparedLive.Add(1)
	runtime.SetFinalizer(p, (*PreparedGeom).Destroy)
	return p, nil
}

// Context returns the context used for all native calls of p. It returns nil
// after Destroy.
func (p *PreparedGeom) Context() *Context {
	return p.ctx.Load()
}

// ReplaceContext switches p to another context, e.g. to redirect notice and
// error handlers. The previous context is released.
//
// The native prepared geometry is not revalidated. ctx must belong to the
// same GEOS library instance as the context p was prepared with. A released
// ctx returns ErrDestroyed.
func (p *PreparedGeom) ReplaceContext(ctx *Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	if p.destroyed.Load() || !ctx.tryClone() {
		return ErrDestroyed
	}
	old := p.ctx.Swap(ctx)
	old.Release()
	return nil
}

// Destroy frees the native prepared geometry and its copy of the source, and
// then releases the context.
// It is safe to call Destroy more than once. Prepared geometries that are not
// destroyed explicitly are destroyed by the garbage collector.
func (p *PreparedGeom) Destroy() {
	p.once.Do(func() {
		runtime.SetFinalizer(p, nil)
		p.destroyed.Store(true)
		ctx := p.ctx.Swap(nil)
		C.GEOSPreparedGeom_destroy_r(ctx.raw(), p.v)
		C.GEOSGeom_destroy_r(ctx.raw(), p.base)
		p.v, p.base = nil, nil
		ctx.Release()
		preparedLive.Add(-1)
	})
}

// preparedFunc calls a native prepared predicate and returns its raw result.
type preparedFunc func(h, p, g unsafe.Pointer) int

var preparedFuncs = [numPredicates]preparedFunc{
	Contains: func(h, p, g unsafe.Pointer) int {
		return int(C.GEOSPreparedContains_r(C.GEOSContextHandle_t(h), (*C.GEOSPreparedGeometry)(p), (*C.GEOSGeometry)(g)))
	},
	ContainsProperly: func(h, p, g unsafe.Pointer) int {
		return int(C.GEOSPreparedContainsProperly_r(C.GEOSContextHandle_t(h), (*C.GEOSPreparedGeometry)(p), (*C.GEOSGeometry)(g)))
	},
	CoveredBy: func(h, p, g unsafe.Pointer) int {
		return int(C.GEOSPreparedCoveredBy_r(C.GEOSContextHandle_t(h), (*C.GEOSPreparedGeometry)(p), (*C.GEOSGeometry)(g)))
	},
	Covers: func(h, p, g unsafe.Pointer) int {
		return int(C.GEOSPreparedCovers_r(C.GEOSContextHandle_t(h), (*C.GEOSPreparedGeometry)(p), (*C.GEOSGeometry)(g)))
	},
	Crosses: func(h, p, g unsafe.Pointer) int {
		return int(C.GEOSPreparedCrosses_r(C.GEOSContextHandle_t(h), (*C.GEOSPreparedGeometry)(p), (*C.GEOSGeometry)(g)))
	},
	Disjoint: func(h, p, g unsafe.Pointer) int {
		return int(C.GEOSPreparedDisjoint_r(C.GEOSContextHandle_t(h), (*C.GEOSPreparedGeometry)(p), (*C.GEOSGeometry)(g)))
	},
	Intersects: func(h, p, g unsafe.Pointer) int {
		return int(C.GEOSPreparedIntersects_r(C.GEOSContextHandle_t(h), (*C.GEOSPreparedGeometry)(p), (*C.GEOSGeometry)(g)))
	},
	Overlaps: func(h, p, g unsafe.Pointer) int {
		return int(C.GEOSPreparedOverlaps_r(C.GEOSContextHandle_t(h), (*C.GEOSPreparedGeometry)(p), (*C.GEOSGeometry)(g)))
	},
	Touches: func(h, p, g unsafe.Pointer) int {
		return int(C.GEOSPreparedTouches_r(C.GEOSContextHandle_t(h), (*C.GEOSPreparedGeometry)(p), (*C.GEOSGeometry)(g)))
	},
	Within: func(h, p, g unsafe.Pointer) int {
		return int(C.GEOSPreparedWithin_r(C.GEOSContextHandle_t(h), (*C.GEOSPreparedGeometry)(p), (*C.GEOSGeometry)(g)))
	},
}

// Eval tests predicate pred between p and other. other may belong to any
// context; only the context of p is used.
func (p *PreparedGeom) Eval(pred Predicate, other *Geom) (bool, error) {
	if !pred.valid() {
		return false, &PredicateError{Predicate: pred, Code: -1, Message: "unknown predicate"}
	}
	if other == nil {
		return false, ErrNilGeom
	}
	if p.destroyed.Load() || !other.alive() {
		return false, ErrDestroyed
	}
	ctx := p.ctx.Load()
	ctx.resetLastError()
	code := preparedFuncs[pred](unsafe.Pointer(ctx.raw()), unsafe.Pointer(p.v), unsafe.Pointer(other.v))
	runtime.KeepAlive(p)
	runtime.KeepAlive(other)
	return checkPredicate(code, pred, ctx)
}

func (p *PreparedGeom) Contains(other *Geom) (bool, error) {
	return p.Eval(Contains, other)
}

// ContainsProperly is Contains without boundary contact.
func (p *PreparedGeom) ContainsProperly(other *Geom) (bool, error) {
	return p.Eval(ContainsProperly, other)
}

func (p *PreparedGeom) CoveredBy(other *Geom) (bool, error) {
	return p.Eval(CoveredBy, other)
}

func (p *PreparedGeom) Covers(other *Geom) (bool, error) {
	return p.Eval(Covers, other)
}

func (p *PreparedGeom) Crosses(other *Geom) (bool, error) {
	return p.Eval(Crosses, other)
}

func (p *PreparedGeom) Disjoint(other *Geom) (bool, error) {
	return p.Eval(Disjoint, other)
}

func (p *PreparedGeom) Intersects(other *Geom) (bool, error) {
	return p.Eval(Intersects, other)
}

func (p *PreparedGeom) Overlaps(other *Geom) (bool, error) {
	return p.Eval(Overlaps, other)
}

func (p *PreparedGeom) Touches(other *Geom) (bool, error) {
	return p.Eval(Touches, other)
}

func (p *PreparedGeom) Within(other *Geom) (bool, error) {
	return p.Eval(Within, other)
}
