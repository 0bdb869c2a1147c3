package stats

import (
	"net/http"
	_ "net/http/pprof"

	"github.com/omniscale/geosprep/logging"
)

// StartHttpPProf serves net/http/pprof on bind in the background.
func StartHttpPProf(bind string) {
	go func() {
		logging.Errorf("profile server: %s", http.ListenAndServe(bind, nil))
	}()
}
