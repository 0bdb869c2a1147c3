package stats

import (
	"context"
	"fmt"
	"os"
	"path"
	"runtime/pprof"
	"time"

	"github.com/pkg/errors"
)

// MemProfiler writes a heap profile to dir every interval, until ctx is
// done.
func MemProfiler(ctx context.Context, dir string, interval time.Duration) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return errors.Wrap(err, "creating memprofile dir")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		filename := path.Join(
			dir,
			fmt.Sprintf("memprof-%03d.pprof", i),
		)
		f, err := os.Create(filename)
		if err != nil {
			return errors.Wrap(err, "creating memprofile")
		}
		err = pprof.WriteHeapProfile(f)
		f.Close()
		if err != nil {
			return errors.Wrap(err, "writing memprofile")
		}
	}
}
