package geos

/*
#cgo LDFLAGS: -lgeos_c
#include "geos_c.h"
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"
)

func (c *Context) FromWkt(wkt string) (*Geom, error) {
	wktC := C.CString(wkt)
	defer C.free(unsafe.Pointer(wktC))
	return c.newGeom(C.GEOSGeomFromWKT_r(c.raw(), wktC), "FromWkt")
}

func (c *Context) FromWkb(wkb []byte) (*Geom, error) {
	if len(wkb) == 0 {
		return nil, &ConstructionError{Constructor: "FromWkb", Message: "empty WKB"}
	}
	geom := C.GEOSGeomFromWKB_buf_r(c.raw(), (*C.uchar)(&wkb[0]), C.size_t(len(wkb)))
	return c.newGeom(geom, "FromWkb")
}

// FromHex parses hex encoded (E)WKB.
func (c *Context) FromHex(hex []byte) (*Geom, error) {
	if len(hex) == 0 {
		return nil, &ConstructionError{Constructor: "FromHex", Message: "empty hex WKB"}
	}
	geom := C.GEOSGeomFromHEX_buf_r(c.raw(), (*C.uchar)(&hex[0]), C.size_t(len(hex)))
	return c.newGeom(geom, "FromHex")
}

func (g *Geom) AsWkt() string {
	str := C.GEOSGeomToWKT_r(g.ctx.raw(), g.v)
	if str == nil {
		return ""
	}
	result := C.GoString(str)
	C.GEOSFree_r(g.ctx.raw(), unsafe.Pointer(str))
	return result
}

func (g *Geom) AsWkb() []byte {
	var size C.size_t
	buf := C.GEOSGeomToWKB_buf_r(g.ctx.raw(), g.v, &size)
	if buf == nil {
		return nil
	}
	result := C.GoBytes(unsafe.Pointer(buf), C.int(size))
	C.GEOSFree_r(g.ctx.raw(), unsafe.Pointer(buf))
	return result
}
