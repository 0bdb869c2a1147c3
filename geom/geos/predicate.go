package geos

import "fmt"

// Predicate is a binary spatial relation a prepared geometry can test.
type Predicate int

const (
	Contains Predicate = iota
	ContainsProperly
	CoveredBy
	Covers
	Crosses
	Disjoint
	Intersects
	Overlaps
	Touches
	Within
	numPredicates
)

var predicateNames = [numPredicates]string{
	Contains:         "contains",
	ContainsProperly: "contains_properly",
	CoveredBy:        "covered_by",
	Covers:           "covers",
	Crosses:          "crosses",
	Disjoint:         "disjoint",
	Intersects:       "intersects",
	Overlaps:         "overlaps",
	Touches:          "touches",
	Within:           "within",
}

func (p Predicate) String() string {
	if p.valid() {
		return predicateNames[p]
	}
	return fmt.Sprintf("Predicate(%d)", int(p))
}

func (p Predicate) valid() bool {
	return p >= 0 && p < numPredicates
}

// Predicates returns all predicates in declaration order.
func Predicates() []Predicate {
	result := make([]Predicate, numPredicates)
	for i := range result {
		result[i] = Predicate(i)
	}
	return result
}

// ParsePredicate returns the predicate for names like "contains" or
// "covered_by".
func ParsePredicate(name string) (Predicate, error) {
	for i, n := range predicateNames {
		if n == name {
			return Predicate(i), nil
		}
	}
	return 0, fmt.Errorf("geos: unknown predicate %q", name)
}

// triState is the native return convention of GEOS predicates.
type triState int

const (
	triFalse     triState = 0
	triTrue      triState = 1
	triException triState = 2
)

// checkPredicate converts the native result of predicate p into a boolean.
// Exceptions and unexpected codes become a *PredicateError carrying the last
// error message of ctx.
func checkPredicate(code int, p Predicate, ctx *Context) (bool, error) {
	switch triState(code) {
	case triTrue:
		return true, nil
	case triFalse:
		return false, nil
	}
	err := &PredicateError{Predicate: p, Code: code}
	if ctx != nil {
		err.Message = ctx.LastError()
	}
	return false, err
}
