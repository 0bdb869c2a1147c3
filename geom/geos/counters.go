package geos

import "sync/atomic"

var (
	contextsLive atomic.Int64
	geomsLive    atomic.Int64
	preparedLive atomic.Int64
)

// AllocCounters reports the native objects currently alive.
type AllocCounters struct {
	Contexts int64
	Geoms    int64
	Prepared int64
}

func Counters() AllocCounters {
	return AllocCounters{
		Contexts: contextsLive.Load(),
		Geoms:    geomsLive.Load(),
		Prepared: preparedLive.Load(),
	}
}
