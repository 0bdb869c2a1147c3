package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

type Count struct {
	Current int64
	Total   int64
	Rps     float64
	LastRps float64
}

func NewRpsCounter() *RpsCounter {
	return &RpsCounter{
		mu: &sync.Mutex{},
	}
}

// RpsCounter counts processed items and their rate. Tick needs to be called
// in a regular interval to update LastRps.
type RpsCounter struct {
	counter  int64
	lastAdd  int64
	start    time.Time
	stop     time.Time
	lastTick time.Time
	updated  bool
	mu       *sync.Mutex
	total    int64
}

func (r *RpsCounter) Add(n int) {
	atomic.AddInt64(&r.counter, int64(n))
	atomic.AddInt64(&r.lastAdd, int64(n))
	if n > 0 {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.start.IsZero() {
			r.start = time.Now()
			r.lastTick = r.start
		}
		r.updated = true
	}
}

// SetTotal sets the number of expected items for Progress.
func (r *RpsCounter) SetTotal(n int64) {
	atomic.StoreInt64(&r.total, n)
}

func (r *RpsCounter) Value() int64 {
	return atomic.LoadInt64(&r.counter)
}

func (r *RpsCounter) Rps() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	seconds := r.stop.Sub(r.start).Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(atomic.LoadInt64(&r.counter)) / seconds
}

func (r *RpsCounter) LastRps() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	seconds := time.Since(r.lastTick).Seconds()
	if r.lastTick.IsZero() || seconds <= 0 {
		return 0
	}
	return float64(atomic.LoadInt64(&r.lastAdd)) / seconds
}

// Progress returns the processed fraction of the total, or -1 without total.
func (r *RpsCounter) Progress() float64 {
	total := atomic.LoadInt64(&r.total)
	if total == 0 {
		return -1.0
	}
	return float64(atomic.LoadInt64(&r.counter)) / float64(total)
}

func (r *RpsCounter) Count() Count {
	return Count{
		Current: r.Value(),
		Total:   atomic.LoadInt64(&r.total),
		Rps:     r.Rps(),
		LastRps: r.LastRps(),
	}
}

func (r *RpsCounter) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updated {
		r.stop = time.Now()
		r.updated = false
	}
	if !r.lastTick.IsZero() {
		r.lastTick = time.Now()
	}
	atomic.StoreInt64(&r.lastAdd, 0)
}
