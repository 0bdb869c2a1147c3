package stats

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRpsCounter(t *testing.T) {
	c := NewRpsCounter()
	if c.Rps() != 0 || c.LastRps() != 0 {
		t.Fatal("rps without adds", c.Rps(), c.LastRps())
	}
	if c.Progress() != -1 {
		t.Fatal(c.Progress())
	}
	c.SetTotal(10)
	c.Add(5)
	c.Add(0)
	time.Sleep(10 * time.Millisecond)
	c.Tick()
	if c.Value() != 5 {
		t.Fatal(c.Value())
	}
	if c.Progress() != 0.5 {
		t.Fatal(c.Progress())
	}
	if c.Rps() <= 0 {
		t.Fatal(c.Rps())
	}
	count := c.Count()
	if count.Current != 5 || count.Total != 10 {
		t.Fatalf("%+v", count)
	}
}

func TestFormatCount(t *testing.T) {
	for _, tc := range []struct {
		dur      time.Duration
		count    Count
		errors   int64
		expected string
	}{
		{1500 * time.Millisecond, Count{Current: 1234, LastRps: 1234}, 0,
			"[    1s] Geometries:    1200/s (      1234)"},
		{2 * time.Second, Count{Current: 50, Total: 200, LastRps: 50}, 3,
			"[    2s] Geometries:       0/s (        50)  25.0% Errors: 3"},
	} {
		if s := formatCount(tc.dur, tc.count, tc.errors); s != tc.expected {
			t.Errorf("%q != %q", s, tc.expected)
		}
	}
}

func TestStatsReporter(t *testing.T) {
	s := StatsReporter(time.Millisecond)
	s.AddGeoms(10)
	s.AddErrors(1)
	time.Sleep(5 * time.Millisecond)
	s.Stop()
	s.Stop()
	if s.Geoms().Current != 10 || s.Errors() != 1 {
		t.Fatal(s.Geoms(), s.Errors())
	}
	if !strings.Contains(s.String(), "Errors: 1") {
		t.Fatal(s.String())
	}
}

func TestMemProfiler(t *testing.T) {
	dir, err := ioutil.TempDir("", "geosprep_memprof")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := MemProfiler(ctx, dir, 5*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	files, _ := filepath.Glob(filepath.Join(dir, "memprof-*.pprof"))
	if len(files) == 0 {
		t.Fatal("no profiles written")
	}
}
