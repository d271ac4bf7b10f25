package patterns

import (
	"github.com/sunholo/zion-core/internal/diag"
	"github.com/sunholo/zion-core/internal/types"
)

// Clause is one match-arm under analysis: its already-translated pattern
// (from the external parser's surface syntax, translated to the lattice by
// the caller) and its source position, for diagnostics.
type Clause struct {
	Pattern Pattern
	Pos     diag.Pos
}

// CheckExhaustiveness implements spec.md §4.E's algorithm: start with
// universe = fromType(scrutineeType); for each clause in order, diagnose
// redundant if intersect(universe, clausePattern) = Nothing, then narrow
// universe by subtracting the clause. After the last clause, a non-Nothing
// universe is reported as non-exhaustive with an example witness.
//
// Grounded on the teacher's internal/elaborate/exhaustiveness.go (the overall
// "walk clauses in order, narrow a running set" shape), generalized to the
// full lattice from its value in original_source/src/match.cpp.
func CheckExhaustiveness(scrutineeType types.Type, clauses []Clause, reg *types.TypeRegistry, pos diag.Pos) *diag.Bag {
	bag := diag.NewBag()
	universe := FromType(scrutineeType, reg)

	for _, clause := range clauses {
		expanded := ExpandAllOf(clause.Pattern, reg)
		if isNothing(Intersect(universe, expanded)) {
			bag.Add(diag.New("pattern", clause.Pos, "redundant clause: already covered by preceding patterns"))
			continue
		}
		universe = Difference(universe, expanded)
	}

	if !isNothing(universe) {
		witness := ExampleValue(universe)
		bag.Add(diag.New("pattern", pos, "non-exhaustive match: %s is not covered", witness))
	}

	return bag
}
