package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/omniscale/geosprep/geom/geos"
	"github.com/omniscale/geosprep/stats"
)

func prepareSquare(t testing.TB) (*Prepared, func()) {
	t.Helper()
	ctx, err := geos.NewContext()
	if err != nil {
		t.Fatal(err)
	}
	square, err := ctx.FromWkt("POLYGON((0 0, 10 0, 10 6, 0 6, 0 0))")
	if err != nil {
		t.Fatal(err)
	}
	prep, err := square.Prepare()
	if err != nil {
		t.Fatal(err)
	}
	return NewPrepared(prep), func() {
		prep.Destroy()
		square.Destroy()
		ctx.Release()
	}
}

func TestRun(t *testing.T) {
	before := geos.Counters()
	square, cleanup := prepareSquare(t)

	input := strings.Join([]string{
		"POINT(5 5)",
		"",
		"# comment",
		"POINT(20 20)",
		"0101000000000000000000F03F0000000000000040", // POINT(1 2)
		"LINESTRING(5 3, 15 3)",
		"POINT(10 3)",
		"POLYGON((0 0, 10",
	}, "\n")

	progress := stats.StatsReporter(time.Hour)
	e := New(square, []geos.Predicate{geos.Contains, geos.Intersects, geos.Touches}, 4, progress)
	out := &bytes.Buffer{}
	if err := e.Run(context.Background(), strings.NewReader(input), out); err != nil {
		t.Fatal(err)
	}
	progress.Stop()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	expected := []string{
		"1\ttrue\ttrue\tfalse",
		"4\tfalse\tfalse\tfalse",
		"5\ttrue\ttrue\tfalse",
		"6\tfalse\ttrue\tfalse",
		"7\tfalse\ttrue\ttrue",
	}
	if len(lines) != len(expected)+1 {
		t.Fatal(out.String())
	}
	for i, e := range expected {
		if lines[i] != e {
			t.Errorf("%q != %q", lines[i], e)
		}
	}
	if !strings.HasPrefix(lines[5], "8\terror\t") {
		t.Error(lines[5])
	}
	if progress.Geoms().Current != 6 || progress.Errors() != 1 {
		t.Error(progress.Geoms(), progress.Errors())
	}

	cleanup()
	if geos.Counters() != before {
		t.Fatalf("leak: %+v != %+v", geos.Counters(), before)
	}
}

func TestRunKeepsOrder(t *testing.T) {
	square, cleanup := prepareSquare(t)
	defer cleanup()

	input := &strings.Builder{}
	for i := 0; i < 2000; i++ {
		fmt.Fprintf(input, "POINT(%d 3)\n", i%20)
	}
	e := New(square, []geos.Predicate{geos.Covers}, 8, nil)
	out := &bytes.Buffer{}
	if err := e.Run(context.Background(), strings.NewReader(input.String()), out); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2000 {
		t.Fatal(len(lines))
	}
	for i, line := range lines {
		expected := fmt.Sprintf("%d\t%v", i+1, i%20 <= 10)
		if line != expected {
			t.Fatalf("%q != %q", line, expected)
		}
	}
}

type failingRelater struct{}

func (failingRelater) Relate(pred geos.Predicate, geom *geos.Geom) (bool, error) {
	return false, &geos.PredicateError{Predicate: pred, Code: 2, Message: "TopologyException"}
}

func TestRunPredicateError(t *testing.T) {
	e := New(failingRelater{}, []geos.Predicate{geos.Within}, 0, nil)
	out := &bytes.Buffer{}
	if err := e.Run(context.Background(), strings.NewReader("POINT(1 1)\n"), out); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "1\terror\t") || !strings.Contains(out.String(), "TopologyException") {
		t.Fatal(out.String())
	}
}

func TestRunCanceled(t *testing.T) {
	square, cleanup := prepareSquare(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	input := strings.Repeat("POINT(1 1)\n", 10000)
	e := New(square, []geos.Predicate{geos.Contains}, 2, nil)
	err := e.Run(ctx, strings.NewReader(input), &bytes.Buffer{})
	if !errors.Is(err, context.Canceled) {
		t.Fatal(err)
	}
}

func TestResultString(t *testing.T) {
	r := Result{Line: 3, Err: errors.New("multi\nline")}
	if r.String() != "3\terror\tmulti line" {
		t.Fatal(r.String())
	}
	r = Result{Line: 4, Values: []bool{true, false}}
	if r.String() != "4\ttrue\tfalse" {
		t.Fatal(r.String())
	}
}
