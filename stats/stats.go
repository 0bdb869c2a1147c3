package stats

import (
	"fmt"
	"sync"
	"time"

	"github.com/omniscale/geosprep/logging"
)

// Statistics reports the number of evaluated geometries and errors as
// progress, once per interval.
type Statistics struct {
	geoms  *RpsCounter
	errors *RpsCounter
	start  time.Time
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func (s *Statistics) AddGeoms(n int)  { s.geoms.Add(n) }
func (s *Statistics) AddErrors(n int) { s.errors.Add(n) }

func (s *Statistics) Geoms() Count  { return s.geoms.Count() }
func (s *Statistics) Errors() int64 { return s.errors.Value() }

func StatsReporter(interval time.Duration) *Statistics {
	s := &Statistics{
		geoms:  NewRpsCounter(),
		errors: NewRpsCounter(),
		start:  time.Now(),
		done:   make(chan struct{}),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		tick := time.NewTicker(interval)
		defer tick.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-tick.C:
				s.geoms.Tick()
				s.errors.Tick()
				logging.Progress(s.String())
			}
		}
	}()
	return s
}

// Stop stops the reporting and logs the final counts.
func (s *Statistics) Stop() {
	s.once.Do(func() {
		close(s.done)
		s.wg.Wait()
		s.geoms.Tick()
		s.errors.Tick()
		logging.Infof("%s", s.String())
	})
}

func (s *Statistics) String() string {
	c := s.geoms.Count()
	return formatCount(time.Since(s.start), c, s.errors.Value())
}

func formatCount(dur time.Duration, c Count, errors int64) string {
	rps := int64(c.LastRps/100) * 100
	msg := fmt.Sprintf("[%6s] Geometries: %7d/s (%10d)", dur.Truncate(time.Second), rps, c.Current)
	if c.Total > 0 {
		msg += fmt.Sprintf(" %5.1f%%", float64(c.Current)/float64(c.Total)*100)
	}
	if errors > 0 {
		msg += fmt.Sprintf(" Errors: %d", errors)
	}
	return msg
}
