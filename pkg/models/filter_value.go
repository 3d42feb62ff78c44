package models

import (
	"fmt"
	"strings"
)

// PredicateKind identifies how a compiled predicate constrains the query.
type PredicateKind int

const (
	// PredicateEquality matches the raw string exactly.
	PredicateEquality PredicateKind = iota
	// PredicateMinSeverity keeps rows carrying a flag of at least this level.
	PredicateMinSeverity
	// PredicateEntity keeps rows attributed to one tenant-scoped entity.
	PredicateEntity
	// PredicateFlagType keeps rows carrying a flag of this catalog type.
	PredicateFlagType
	// PredicateValueRange bounds the numeric measurement of attached flags.
	PredicateValueRange
)

// NumericRange is a compiled numeric constraint. Bounds are nil when
// unconstrained. Non-strict bounds are inclusive.
type NumericRange struct {
	Lower       *float64
	Upper       *float64
	LowerStrict bool
	UpperStrict bool
}

// String renders the range for error messages and logs.
func (r NumericRange) String() string {
	var parts []string
	if r.Lower != nil {
		op := ">="
		if r.LowerStrict {
			op = ">"
		}
		parts = append(parts, fmt.Sprintf("%s %g", op, *r.Lower))
	}
	if r.Upper != nil {
		op := "<="
		if r.UpperStrict {
			op = "<"
		}
		parts = append(parts, fmt.Sprintf("%s %g", op, *r.Upper))
	}
	if len(parts) == 0 {
		return "unbounded"
	}
	return strings.Join(parts, " and ")
}

// Predicate is one compiled, immutable filter constraint. Raw preserves the
// caller-supplied value so a predicate set can be re-derived and re-compiled
// to an equivalent set.
type Predicate struct {
	Key  string
	Raw  string
	Kind PredicateKind

	Text       string       // PredicateEquality
	MinLevel   int          // PredicateMinSeverity
	EntityID   int64        // PredicateEntity
	FlagTypeID int64        // PredicateFlagType
	Range      NumericRange // PredicateValueRange
}

// PredicateSet is the validated output of filter compilation, applied as a
// conjunction.
type PredicateSet struct {
	Predicates []Predicate
}

// Raws re-derives the raw key to value map the set was compiled from.
func (s PredicateSet) Raws() map[string]string {
	raws := make(map[string]string, len(s.Predicates))
	for _, p := range s.Predicates {
		raws[p.Key] = p.Raw
	}
	return raws
}
