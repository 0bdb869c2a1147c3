package geos

import (
	"strings"
	"sync"
	"testing"
)

func newTestContext(t testing.TB) *Context {
	t.Helper()
	c, err := NewContext()
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func mustWkt(t testing.TB, c *Context, wkt string) *Geom {
	t.Helper()
	g, err := c.FromWkt(wkt)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestContextRefs(t *testing.T) {
	before := Counters()
	c := newTestContext(t)
	if c.Refs() != 1 {
		t.Fatal(c.Refs())
	}
	if Counters().Contexts != before.Contexts+1 {
		t.Fatal("context not counted", Counters())
	}

	g := mustWkt(t, c, "POINT(1 2)")
	if c.Refs() != 2 {
		t.Fatal("geometry does not hold context", c.Refs())
	}

	// creator releases first, geometry keeps context alive
	c.Release()
	if c.Refs() != 1 {
		t.Fatal(c.Refs())
	}
	if g.AsWkt() == "" {
		t.Fatal("geometry unusable after creator released context")
	}
	g.Destroy()
	if Counters() != before {
		t.Fatalf("leak: %+v != %+v", Counters(), before)
	}
}

func TestContextDoubleRelease(t *testing.T) {
	c := newTestContext(t)
	c.Release()
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("second release did not panic")
		}
	}()
	c.Release()
}

func TestContextID(t *testing.T) {
	a := newTestContext(t)
	defer a.Release()
	b := newTestContext(t)
	defer b.Release()
	if a.ID() == "" || a.ID() == b.ID() {
		t.Fatalf("ids not unique: %q %q", a.ID(), b.ID())
	}
}

func TestErrorHandler(t *testing.T) {
	c := newTestContext(t)
	defer c.Release()

	var msgs []string
	c.SetErrorHandler(func(msg string) { msgs = append(msgs, msg) })

	_, err := c.FromWkt("POLYGON((0 0, 10")
	if err == nil {
		t.Fatal("invalid WKT parsed")
	}
	if len(msgs) == 0 {
		t.Fatal("error handler not called")
	}
	if c.LastError() != msgs[len(msgs)-1] {
		t.Fatalf("last error %q not %q", c.LastError(), msgs[len(msgs)-1])
	}
	cerr, ok := err.(*ConstructionError)
	if !ok {
		t.Fatalf("unexpected error type %T", err)
	}
	if cerr.Constructor != "FromWkt" {
		t.Fatal(cerr.Constructor)
	}
}

func TestVersion(t *testing.T) {
	if !strings.Contains(Version(), ".") {
		t.Fatal(Version())
	}
}

func TestGeomDestroyTwice(t *testing.T) {
	before := Counters()
	c := newTestContext(t)
	g := mustWkt(t, c, "POINT(0 0)")
	g.Destroy()
	g.Destroy()
	c.Release()
	if Counters() != before {
		t.Fatalf("leak: %+v != %+v", Counters(), before)
	}
}

func TestBoundsPolygon(t *testing.T) {
	c := newTestContext(t)
	defer c.Release()

	g, err := c.BoundsPolygon(Bounds{0, 0, 10, 6})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Destroy()
	if g.Area() != 60 {
		t.Fatal(g.Area())
	}
	if b := g.Bounds(); b != (Bounds{0, 0, 10, 6}) {
		t.Fatal(b)
	}
	if g.Type() != "Polygon" {
		t.Fatal(g.Type())
	}
}

func TestPolygonWithHole(t *testing.T) {
	before := Counters()
	c := newTestContext(t)

	shell, err := c.LinearRing([][2]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}})
	if err != nil {
		t.Fatal(err)
	}
	hole, err := c.LinearRing([][2]float64{{2, 2}, {4, 2}, {4, 4}, {2, 4}, {2, 2}})
	if err != nil {
		t.Fatal(err)
	}
	poly, err := c.Polygon(shell, []*Geom{hole})
	if err != nil {
		t.Fatal(err)
	}
	if poly.Area() != 96 {
		t.Fatal(poly.Area())
	}
	poly.Destroy()
	c.Release()
	if Counters() != before {
		t.Fatalf("leak: %+v != %+v", Counters(), before)
	}
}

func TestUnionPolygons(t *testing.T) {
	c := newTestContext(t)
	defer c.Release()

	a := mustWkt(t, c, "POLYGON((0 0, 10 0, 10 10, 0 10, 0 0))")
	b := mustWkt(t, c, "POLYGON((10 0, 20 0, 20 10, 10 10, 10 0))")
	union, err := c.UnionPolygons([]*Geom{a, b})
	if err != nil {
		t.Fatal(err)
	}
	defer union.Destroy()
	if union.Type() != "Polygon" {
		t.Fatal(union.AsWkt())
	}
	if union.Area() != 200 {
		t.Fatal(union.Area())
	}
}

func TestLineMerge(t *testing.T) {
	c := newTestContext(t)
	defer c.Release()

	lines := []*Geom{
		mustWkt(t, c, "LINESTRING(0 0, 5 0)"),
		mustWkt(t, c, "LINESTRING(5 0, 10 0)"),
		mustWkt(t, c, "LINESTRING(20 0, 30 0)"),
	}
	merged, err := c.LineMerge(lines)
	if err != nil {
		t.Fatal(err)
	}
	if len(merged) != 2 {
		t.Fatal(merged)
	}
	for _, m := range merged {
		if m.Length() != 10 {
			t.Error(m.AsWkt())
		}
		m.Destroy()
	}
}

func TestWkbRoundtrip(t *testing.T) {
	c := newTestContext(t)
	defer c.Release()

	g := mustWkt(t, c, "LINESTRING(0 0, 10 0)")
	defer g.Destroy()
	g2, err := c.FromWkb(g.AsWkb())
	if err != nil {
		t.Fatal(err)
	}
	defer g2.Destroy()
	if !g.Equals(g2) {
		t.Fatal(g2.AsWkt())
	}
	if _, err := c.FromWkb(nil); err == nil {
		t.Fatal("empty WKB accepted")
	}
	g3, err := c.FromHex([]byte("0101000000000000000000F03F0000000000000040"))
	if err != nil {
		t.Fatal(err)
	}
	defer g3.Destroy()
	if b := g3.Bounds(); b != (Bounds{1, 2, 1, 2}) {
		t.Fatal(g3.AsWkt())
	}
}

func TestGeomsPerGoroutineContext(t *testing.T) {
	before := Counters()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := NewContext()
			if err != nil {
				t.Error(err)
				return
			}
			defer c.Release()
			for j := 0; j < 100; j++ {
				g, err := c.Point(float64(j), float64(j))
				if err != nil {
					t.Error(err)
					return
				}
				g.Destroy()
			}
		}()
	}
	wg.Wait()
	if Counters() != before {
		t.Fatalf("leak: %+v != %+v", Counters(), before)
	}
}
