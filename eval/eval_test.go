package eval

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/omniscale/geosprep/config"
	"github.com/omniscale/geosprep/geom/geos"
)

const limitto = `{"type": "MultiPolygon", "coordinates": [
	[[[0, 0], [10, 0], [10, 10], [0, 10], [0, 0]]],
	[[[10, 0], [20, 0], [20, 10], [10, 10], [10, 0]]]
]}`

func testOptions(t *testing.T, args ...string) *config.EvalOptions {
	t.Helper()
	dir, err := ioutil.TempDir("", "geosprep_eval")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	fname := filepath.Join(dir, "limitto.geojson")
	if err := ioutil.WriteFile(fname, []byte(limitto), 0644); err != nil {
		t.Fatal(err)
	}
	opts, errs := config.ParseEval(append([]string{"-limitto", fname, "-srid", "4326"}, args...))
	if len(errs) != 0 {
		t.Fatal(errs)
	}
	return opts
}

func TestRun(t *testing.T) {
	input := "POINT(5 5)\nLINESTRING(5 5, 15 5)\nPOINT(30 5)\n"

	for _, tc := range []struct {
		args     []string
		expected string
	}{
		// exact union contains the line across both polygons
		{[]string{"-predicates", "contains,disjoint"},
			"1\ttrue\tfalse\n2\ttrue\tfalse\n3\tfalse\ttrue\n"},
		{[]string{"-predicates", "intersects,disjoint", "-split"},
			"1\ttrue\tfalse\n2\ttrue\tfalse\n3\tfalse\ttrue\n"},
		{[]string{"-predicates", "intersects", "-limitto_buffer", "15"},
			"1\ttrue\n2\ttrue\n3\ttrue\n"},
	} {
		before := geos.Counters()
		opts := testOptions(t, tc.args...)
		out := &bytes.Buffer{}
		if err := run(context.Background(), opts, strings.NewReader(input), out); err != nil {
			t.Fatal(tc.args, err)
		}
		if out.String() != tc.expected {
			t.Errorf("%v: %q != %q", tc.args, out.String(), tc.expected)
		}
		if geos.Counters() != before {
			t.Errorf("%v: leak: %+v != %+v", tc.args, geos.Counters(), before)
		}
	}
}

func TestRunMissingLimitto(t *testing.T) {
	opts := testOptions(t)
	opts.LimitTo = opts.LimitTo + ".missing"
	if err := run(context.Background(), opts, strings.NewReader(""), &bytes.Buffer{}); err == nil {
		t.Fatal("missing limitto accepted")
	}
}
