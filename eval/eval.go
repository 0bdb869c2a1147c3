/*
Package eval provides the eval sub command. It tests predicates between the
limitto polygons and geometries read line by line.
*/
package eval

import (
	"context"
	"io"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/pkg/errors"

	"github.com/omniscale/geosprep/batch"
	"github.com/omniscale/geosprep/cache"
	"github.com/omniscale/geosprep/config"
	"github.com/omniscale/geosprep/geom/geos"
	"github.com/omniscale/geosprep/geom/limit"
	"github.com/omniscale/geosprep/logging"
	"github.com/omniscale/geosprep/stats"
)

var log = logging.NewLogger("eval")

func Eval(opts *config.EvalOptions) error {
	if opts.Quiet {
		logging.SetQuiet(true)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if opts.MemProfile != "" {
		go func() {
			if err := stats.MemProfiler(ctx, opts.MemProfile, time.Minute); err != nil {
				log.Warnf("memprofile: %s", err)
			}
		}()
	}

	var in io.Reader = os.Stdin
	if opts.Input != "-" {
		f, err := os.Open(opts.Input)
		if err != nil {
			return errors.Wrap(err, "opening input")
		}
		defer f.Close()
		in = f
	}
	return run(ctx, opts, in, os.Stdout)
}

func run(ctx context.Context, opts *config.EvalOptions, in io.Reader, out io.Writer) error {
	g, err := geos.NewContext()
	if err != nil {
		return err
	}
	defer g.Release()

	step := log.StartStep("Reading limitto polygons")
	polygons, err := loadPolygons(g, opts)
	if err != nil {
		return err
	}
	log.StopStep(step)

	relater, cleanup, err := newRelater(g, polygons, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	workers := opts.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	progress := stats.StatsReporter(time.Second)
	step = log.StartStep("Evaluating geometries")
	err = batch.New(relater, opts.Predicates, workers, progress).Run(ctx, in, out)
	progress.Stop()
	if err != nil {
		return err
	}
	log.StopStep(step)
	return nil
}

// loadPolygons returns the limitto polygons from the GeoJSON file or the
// PostGIS query, grown by the limitto buffer.
func loadPolygons(g *geos.Context, opts *config.EvalOptions) ([]*geos.Geom, error) {
	var polygons []*geos.Geom
	if opts.LimitTo != "" {
		var err error
		polygons, err = limit.LoadGeoJSON(g, opts.LimitTo, opts.Srid)
		if err != nil {
			return nil, err
		}
	} else {
		var c *cache.Cache
		if opts.CacheDir != "" {
			var err error
			c, err = cache.Open(opts.CacheDir)
			if err != nil {
				return nil, err
			}
			defer c.Close()
		}
		wkbs, err := limit.LoadPostGIS(opts.Connection, opts.Query, c)
		if err != nil {
			return nil, err
		}
		for i, wkb := range wkbs {
			p, err := g.FromWkb(wkb)
			if err != nil {
				destroyAll(polygons)
				return nil, errors.Wrapf(err, "parsing limitto polygon %d", i)
			}
			polygons = append(polygons, p)
		}
	}
	if len(polygons) == 0 {
		return nil, errors.New("no limitto polygons found")
	}
	if opts.LimitToBuffer == 0 {
		return polygons, nil
	}

	buffered := make([]*geos.Geom, 0, len(polygons))
	for _, p := range polygons {
		b, err := g.Buffer(p, opts.LimitToBuffer)
		if err != nil {
			destroyAll(polygons)
			destroyAll(buffered)
			return nil, errors.Wrap(err, "buffering limitto polygons")
		}
		buffered = append(buffered, b)
	}
	destroyAll(polygons)
	return buffered, nil
}

// newRelater takes over polygons and returns a limiter with prepared parts,
// or a single prepared union of all polygons.
func newRelater(g *geos.Context, polygons []*geos.Geom, opts *config.EvalOptions) (batch.Relater, func(), error) {
	if opts.Split {
		limiter, err := limit.NewFromGeoms(g, polygons, 0)
		if err != nil {
			return nil, nil, err
		}
		return limiter, limiter.Destroy, nil
	}

	union, err := g.UnionPolygons(polygons)
	if err != nil {
		return nil, nil, errors.Wrap(err, "unable to union limitto polygons")
	}
	log.Printf("preparing %s with %d parts", union.Type(), union.NumGeoms())
	prep, err := union.Prepare()
	union.Destroy()
	if err != nil {
		return nil, nil, err
	}
	return batch.NewPrepared(prep), prep.Destroy, nil
}

func destroyAll(geoms []*geos.Geom) {
	for _, g := range geoms {
		g.Destroy()
	}
}
