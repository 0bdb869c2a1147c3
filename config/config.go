package config

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/omniscale/geosprep/geom/geos"
	"github.com/omniscale/geosprep/geom/limit"
)

type Config struct {
	CacheDir      string   `yaml:"cachedir"`
	Connection    string   `yaml:"connection"`
	Query         string   `yaml:"query"`
	LimitTo       string   `yaml:"limitto"`
	LimitToBuffer float64  `yaml:"limitto_buffer"`
	Predicates    []string `yaml:"predicates"`
	Workers       int      `yaml:"workers"`
	Srid          int      `yaml:"srid"`
}

const defaultSrid = 3857
const defaultCacheDir = "/tmp/geosprep"
const defaultPredicates = "intersects"

// EvalOptions are the options of the eval command.
type EvalOptions struct {
	ConfigFile    string
	CacheDir      string
	Connection    string
	Query         string
	LimitTo       string
	LimitToBuffer float64
	Predicates    []geos.Predicate
	Workers       int
	Srid          int
	Split         bool
	Httpprofile   string
	MemProfile    string
	Quiet         bool
	Input         string

	predicates string
}

// NewEvalFlags returns the flags of the eval command, bound to o.
func NewEvalFlags(o *EvalOptions, errorHandling flag.ErrorHandling) *flag.FlagSet {
	flags := flag.NewFlagSet("eval", errorHandling)
	flags.StringVar(&o.ConfigFile, "config", "", "config (yaml)")
	flags.StringVar(&o.CacheDir, "cachedir", defaultCacheDir, "cache directory for limitto polygons from PostGIS")
	flags.StringVar(&o.Connection, "connection", "", "PostGIS connection for limitto polygons")
	flags.StringVar(&o.Query, "query", "", "query for limitto polygons, returning WKB")
	flags.StringVar(&o.LimitTo, "limitto", "", "GeoJSON file with limitto polygons")
	flags.Float64Var(&o.LimitToBuffer, "limitto_buffer", 0.0, "grow limitto polygons by this buffer")
	flags.StringVar(&o.predicates, "predicates", defaultPredicates, "comma separated list of predicates")
	flags.IntVar(&o.Workers, "workers", 0, "number of workers (default number of CPUs)")
	flags.IntVar(&o.Srid, "srid", defaultSrid, "srs id")
	flags.BoolVar(&o.Split, "split", false, "split limitto polygons at a grid, only for intersects and disjoint")
	flags.StringVar(&o.Httpprofile, "httpprofile", "", "bind address for profile server")
	flags.StringVar(&o.MemProfile, "memprofile", "", "dir for heap profiles written every minute")
	flags.BoolVar(&o.Quiet, "quiet", false, "quiet log output")
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "Usage: %s eval [args] [file]\n\n", os.Args[0])
		flags.PrintDefaults()
	}
	return flags
}

func (o *EvalOptions) updateFromConfig() error {
	conf := &Config{
		CacheDir: defaultCacheDir,
		Srid:     defaultSrid,
	}

	if o.ConfigFile != "" {
		data, err := ioutil.ReadFile(o.ConfigFile)
		if err != nil {
			return errors.Wrap(err, "reading config")
		}
		if err := yaml.UnmarshalStrict(data, conf); err != nil {
			return errors.Wrapf(err, "parsing config %s", o.ConfigFile)
		}
	}

	if o.Connection == "" {
		o.Connection = conf.Connection
	}
	if o.Query == "" {
		o.Query = conf.Query
	}
	if conf.Srid == 0 {
		conf.Srid = defaultSrid
	}
	if o.Srid == defaultSrid {
		o.Srid = conf.Srid
	}
	if o.LimitTo == "" {
		o.LimitTo = conf.LimitTo
	}
	if o.LimitTo == "NONE" {
		// allow overwrite from cmd line
		o.LimitTo = ""
	}
	if o.LimitToBuffer == 0.0 {
		o.LimitToBuffer = conf.LimitToBuffer
	}
	if o.CacheDir == defaultCacheDir && conf.CacheDir != "" {
		o.CacheDir = conf.CacheDir
	}
	if o.Workers == 0 {
		o.Workers = conf.Workers
	}
	if o.predicates == defaultPredicates && len(conf.Predicates) > 0 {
		o.predicates = strings.Join(conf.Predicates, ",")
	}
	return nil
}

func (o *EvalOptions) check() []error {
	errs := []error{}
	if o.Srid != 3857 && o.Srid != 4326 {
		errs = append(errs, errors.New("only -srid=3857 or -srid=4326 are supported"))
	}
	if o.LimitTo == "" && o.Connection == "" {
		errs = append(errs, errors.New("missing -limitto or -connection"))
	}
	if o.LimitTo != "" && o.Connection != "" {
		errs = append(errs, errors.New("-limitto and -connection are exclusive"))
	}
	if o.Connection != "" && o.Query == "" {
		errs = append(errs, errors.New("missing -query for -connection"))
	}
	if o.Workers < 0 {
		errs = append(errs, errors.New("-workers needs to be positive"))
	}
	o.Predicates = o.Predicates[:0]
	for _, name := range strings.Split(o.predicates, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		p, err := geos.ParsePredicate(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		o.Predicates = append(o.Predicates, p)
	}
	if len(o.Predicates) == 0 {
		errs = append(errs, errors.New("missing -predicates"))
	}
	if o.Split {
		for _, p := range o.Predicates {
			if !limit.SplitPredicate(p) {
				errs = append(errs, errors.Errorf("-split only supports intersects and disjoint, not %s", p))
			}
		}
	}
	return errs
}

// ParseEval parses the arguments of the eval command and merges them with
// the config file. Options from the command line take precedence.
func ParseEval(args []string) (*EvalOptions, []error) {
	o := &EvalOptions{}
	flags := NewEvalFlags(o, flag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return nil, []error{err}
	}
	o.Input = "-"
	if flags.NArg() > 1 {
		return nil, []error{errors.New("only one input file supported")}
	} else if flags.NArg() == 1 {
		o.Input = flags.Arg(0)
	}
	if err := o.updateFromConfig(); err != nil {
		return nil, []error{err}
	}
	if errs := o.check(); len(errs) != 0 {
		return nil, errs
	}
	return o, nil
}
