package geos

import (
	"errors"
	"fmt"
)

var (
	// ErrDestroyed is returned when an operation uses a geometry, prepared
	// geometry or index after Destroy.
	ErrDestroyed = errors.New("geos: use after destroy")
	// ErrNilGeom is returned when an operation receives a nil geometry.
	ErrNilGeom = errors.New("geos: nil geometry")
	// ErrNilContext is returned when a nil context is passed.
	ErrNilContext = errors.New("geos: nil context")
)

// ConstructionError is returned when a native constructor returned a NULL
// handle.
type ConstructionError struct {
	// Constructor names the failing constructor, e.g. "PreparedGeom.New".
	Constructor string
	// Message is the last error GEOS reported on the context, if any.
	Message string
}

func (e *ConstructionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("geos: %s returned no geometry: %s", e.Constructor, e.Message)
	}
	return fmt.Sprintf("geos: %s returned no geometry", e.Constructor)
}

// PredicateError is returned when GEOS raised an exception while testing a
// prepared predicate.
type PredicateError struct {
	Predicate Predicate
	// Code is the raw native return value.
	Code    int
	Message string
}

func (e *PredicateError) Error() string {
	msg := fmt.Sprintf("geos: prepared %s failed (code %d)", e.Predicate, e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}
