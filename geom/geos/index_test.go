package geos

import "testing"

func TestIndexQuery(t *testing.T) {
	before := Counters()
	c := newTestContext(t)

	index, err := c.CreateIndex()
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range []Bounds{
		{0, 0, 10, 10},
		{10, 0, 20, 10},
		{100, 100, 110, 110},
	} {
		g, err := c.BoundsPolygon(b)
		if err != nil {
			t.Fatal(err)
		}
		if err := index.Add(g); err != nil {
			t.Fatal(err)
		}
	}
	if index.Len() != 3 {
		t.Fatal(index.Len())
	}

	point := mustWkt(t, c, "POINT(5 5)")
	hits := index.Query(point)
	if len(hits) != 1 {
		t.Fatal(hits)
	}
	hits[0].Lock()
	ok, err := hits[0].Prepared.Contains(point)
	hits[0].Unlock()
	if err != nil || !ok {
		t.Fatal(ok, err)
	}

	line := mustWkt(t, c, "LINESTRING(5 5, 15 5)")
	if hits := index.Query(line); len(hits) != 2 {
		t.Fatal(hits)
	}

	far := mustWkt(t, c, "POINT(50 50)")
	if hits := index.Query(far); len(hits) != 0 {
		t.Fatal(hits)
	}

	extra, err := c.Point(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := index.Add(extra); err == nil {
		t.Fatal("added to queried index")
	}
	extra.Destroy()

	point.Destroy()
	line.Destroy()
	far.Destroy()
	index.Destroy()
	index.Destroy()
	if err := index.Add(point); err != ErrDestroyed {
		t.Fatal(err)
	}
	c.Release()
	if Counters() != before {
		t.Fatalf("leak: %+v != %+v", Counters(), before)
	}
}
