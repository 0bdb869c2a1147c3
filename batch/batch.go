// Package batch evaluates predicates for a stream of geometries with
// multiple workers.
package batch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/omniscale/geosprep/geom/geos"
	"github.com/omniscale/geosprep/logging"
	"github.com/omniscale/geosprep/stats"
)

var log = logging.NewLogger("batch")

// Relater tests a predicate between a fixed geometry and geom. It needs to
// be safe for concurrent use. *limit.Limiter and *Prepared implement it.
type Relater interface {
	Relate(pred geos.Predicate, geom *geos.Geom) (bool, error)
}

// Prepared is a Relater for a single prepared geometry. Calls are
// serialized, as GEOS builds the index of a prepared geometry with the first
// query.
type Prepared struct {
	mu sync.Mutex
	p  *geos.PreparedGeom
}

func NewPrepared(p *geos.PreparedGeom) *Prepared {
	return &Prepared{p: p}
}

func (p *Prepared) Relate(pred geos.Predicate, geom *geos.Geom) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.p.Eval(pred, geom)
}

// Result of all predicates for one input line.
type Result struct {
	Line   int
	Values []bool
	Err    error

	seq int
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%d\terror\t%s", r.Line, strings.ReplaceAll(r.Err.Error(), "\n", " "))
	}
	values := make([]string, len(r.Values))
	for i, v := range r.Values {
		if v {
			values[i] = "true"
		} else {
			values[i] = "false"
		}
	}
	return fmt.Sprintf("%d\t%s", r.Line, strings.Join(values, "\t"))
}

type job struct {
	seq  int
	line int
	text string
}

type Evaluator struct {
	relater    Relater
	predicates []geos.Predicate
	workers    int
	progress   *stats.Statistics
}

// New returns an Evaluator that tests all predicates with r. progress can be
// nil.
func New(r Relater, predicates []geos.Predicate, workers int, progress *stats.Statistics) *Evaluator {
	if workers < 1 {
		workers = 1
	}
	return &Evaluator{
		relater:    r,
		predicates: predicates,
		workers:    workers,
		progress:   progress,
	}
}

// Run reads one geometry per line from r, as WKT or hex encoded WKB, and
// writes one Result per geometry to w, in input order. Empty lines and lines
// starting with # are skipped. Geometries that can't be parsed or evaluated
// result in an error line, they do not stop the run.
func (e *Evaluator) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	jobs := make(chan job, e.workers*4)
	results := make(chan Result, e.workers*4)

	wg := &sync.WaitGroup{}
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.loop(jobs, results)
		}()
	}

	readErr := make(chan error, 1)
	go func() {
		defer close(jobs)
		readErr <- e.read(ctx, r, jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	writeErr := e.write(w, results)
	if err := <-readErr; err != nil {
		return err
	}
	return writeErr
}

func (e *Evaluator) read(ctx context.Context, r io.Reader, jobs chan<- job) error {
	scanner := bufio.NewScanner(r)
	// hex WKB of large polygons
	scanner.Buffer(make([]byte, 64*1024), 256*1024*1024)
	seq := 0
	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		select {
		case jobs <- job{seq: seq, line: line, text: text}:
		case <-ctx.Done():
			return ctx.Err()
		}
		seq++
	}
	return errors.Wrap(scanner.Err(), "reading input")
}

func (e *Evaluator) loop(jobs <-chan job, results chan<- Result) {
	g, err := geos.NewContext()
	if err != nil {
		for j := range jobs {
			results <- Result{Line: j.line, Err: err, seq: j.seq}
		}
		return
	}
	defer g.Release()
	for j := range jobs {
		results <- e.eval(g, j)
	}
}

func (e *Evaluator) eval(g *geos.Context, j job) Result {
	result := Result{Line: j.line, seq: j.seq}
	geom, err := parseGeom(g, j.text)
	if err != nil {
		result.Err = err
		return result
	}
	defer geom.Destroy()

	result.Values = make([]bool, len(e.predicates))
	for i, pred := range e.predicates {
		ok, err := e.relater.Relate(pred, geom)
		if err != nil {
			result.Values = nil
			result.Err = err
			return result
		}
		result.Values[i] = ok
	}
	return result
}

// write outputs results in order of their seq.
func (e *Evaluator) write(w io.Writer, results <-chan Result) error {
	out := bufio.NewWriter(w)
	pending := make(map[int]Result)
	next := 0
	var err error
	for r := range results {
		pending[r.seq] = r
		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if e.progress != nil {
				e.progress.AddGeoms(1)
				if r.Err != nil {
					e.progress.AddErrors(1)
				}
			}
			if r.Err != nil {
				log.Debugf("line %d: %s", r.Line, r.Err)
			}
			// keep draining results after write errors
			if err == nil {
				_, err = fmt.Fprintln(out, r.String())
			}
		}
	}
	if err == nil {
		err = out.Flush()
	}
	return errors.Wrap(err, "writing results")
}

// parseGeom parses WKT or hex encoded WKB. Hex WKB starts with the byte
// order 00 or 01.
func parseGeom(g *geos.Context, text string) (*geos.Geom, error) {
	if strings.HasPrefix(text, "00") || strings.HasPrefix(text, "01") {
		return g.FromHex([]byte(text))
	}
	return g.FromWkt(text)
}
