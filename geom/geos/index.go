package geos

/*
#cgo LDFLAGS: -lgeos_c
#include "geos_c.h"
#include <stdlib.h>
#include <stdint.h>

typedef struct {
	uint32_t *ids;
	uint32_t n;
	uint32_t cap;
} indexHits;

static void indexQueryCallback(void *item, void *userdata) {
	indexHits *hits = (indexHits *)userdata;
	if (hits->n == hits->cap) {
		uint32_t cap = hits->cap ? hits->cap * 2 : 16;
		uint32_t *ids = realloc(hits->ids, cap * sizeof(uint32_t));
		if (ids == NULL) {
			return;
		}
		hits->ids = ids;
		hits->cap = cap;
	}
	hits->ids[hits->n++] = (uint32_t)(uintptr_t)item;
}

static uint32_t *indexQuery(GEOSContextHandle_t h, GEOSSTRtree *tree, const GEOSGeometry *g, uint32_t *num) {
	indexHits hits = {NULL, 0, 0};
	GEOSSTRtree_query_r(h, tree, g, indexQueryCallback, &hits);
	*num = hits.n;
	return hits.ids;
}

static void indexAdd(GEOSContextHandle_t h, GEOSSTRtree *tree, const GEOSGeometry *g, uint32_t id) {
	GEOSSTRtree_insert_r(h, tree, g, (void *)(uintptr_t)id);
}
*/
import "C"

import (
	"sync"
	"unsafe"
)

// IndexGeom is an indexed geometry with its prepared geometry, returned by
// Index.Query. Lock it before using Prepared from multiple goroutines.
type IndexGeom struct {
	*sync.Mutex
	Geom     *Geom
	Prepared *PreparedGeom
}

// Index is a STRtree of prepared geometries. The tree is built with the first
// query; geometries can only be added before that.
type Index struct {
	v       *C.GEOSSTRtree
	ctx     *Context
	mu      sync.Mutex
	geoms   []IndexGeom
	queried bool
}

func (c *Context) CreateIndex() (*Index, error) {
	tree := C.GEOSSTRtree_create_r(c.raw(), 10)
	if tree == nil {
		return nil, &ConstructionError{Constructor: "Index.New", Message: c.LastError()}
	}
	return &Index{v: tree, ctx: c.Clone()}, nil
}

// Add prepares geom and adds it to the index. The index takes over geom.
func (idx *Index) Add(geom *Geom) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.v == nil {
		return ErrDestroyed
	}
	if idx.queried {
		return &ConstructionError{Constructor: "Index.Add", Message: "index already queried"}
	}
	prep, err := Prepare(geom)
	if err != nil {
		return err
	}
	id := len(idx.geoms)
	C.indexAdd(idx.ctx.raw(), idx.v, geom.v, C.uint32_t(id))
	idx.geoms = append(idx.geoms, IndexGeom{&sync.Mutex{}, geom, prep})
	return nil
}

// Query returns all indexed geometries whose bounds intersect geom.
func (idx *Index) Query(geom *Geom) []IndexGeom {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.v == nil || len(idx.geoms) == 0 {
		return nil
	}
	idx.queried = true
	var num C.uint32_t
	r := C.indexQuery(idx.ctx.raw(), idx.v, geom.v, &num)
	if r == nil {
		return nil
	}
	defer C.free(unsafe.Pointer(r))
	hits := unsafe.Slice(r, int(num))

	geoms := make([]IndexGeom, 0, len(hits))
	for _, i := range hits {
		geoms = append(geoms, idx.geoms[i])
	}
	return geoms
}

// Len returns the number of indexed geometries.
func (idx *Index) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return len(idx.geoms)
}

// Destroy frees the tree and all indexed geometries.
func (idx *Index) Destroy() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.v == nil {
		return
	}
	C.GEOSSTRtree_destroy_r(idx.ctx.raw(), idx.v)
	idx.v = nil
	for _, g := range idx.geoms {
		g.Prepared.Destroy()
		g.Geom.Destroy()
	}
	idx.geoms = nil
	idx.ctx.Release()
}
