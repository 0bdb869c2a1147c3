package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/omniscale/geosprep"
	"github.com/omniscale/geosprep/config"
	"github.com/omniscale/geosprep/eval"
	"github.com/omniscale/geosprep/geom/geos"
	"github.com/omniscale/geosprep/logging"
	"github.com/omniscale/geosprep/stats"
)

var log = logging.NewLogger("")

func PrintCmds() {
	fmt.Fprintf(os.Stderr, "Usage: %s COMMAND [args]\n\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Available commands:")
	fmt.Fprintln(os.Stderr, "\teval")
	fmt.Fprintln(os.Stderr, "\tversion")
}

func reportErrors(errs []error) {
	fmt.Fprintln(os.Stderr, "errors in config/options:")
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "\t%s\n", err)
	}
	logging.Shutdown()
	os.Exit(2)
}

func Main(usage func()) {
	if len(os.Args) <= 1 {
		usage()
		logging.Shutdown()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "eval":
		opts, errs := config.ParseEval(os.Args[2:])
		if len(errs) != 0 {
			reportErrors(errs)
		}
		if opts.Httpprofile != "" {
			stats.StartHttpPProf(opts.Httpprofile)
		}
		if err := eval.Eval(opts); err != nil {
			log.Fatal(err)
		}
	case "version":
		fmt.Printf("%s %s(%s-%s-%s)", geosprep.Version, runtime.Version(), runtime.GOARCH, runtime.GOOS, runtime.Compiler)
		fmt.Printf(" geos=(%s)", geos.Version())
		fmt.Printf(" numcpu=%d\n", runtime.NumCPU())
		os.Exit(0)
	default:
		usage()
		log.Fatalf("invalid command: '%s'", os.Args[1])
	}
	logging.Shutdown()
	os.Exit(0)
}

func main() {
	Main(PrintCmds)
}
