package types

// Substitution is a finite map from type-variable name to Type (spec.md §4.A).
type Substitution map[string]Type

// Compose computes s2 ∘ s1: "apply s1 to the targets of s2, then union, with
// s1's mappings winning on conflict" (spec.md §4.A). Composition is
// associative: (s3∘s2)∘s1 ≡ s3∘(s2∘s1) — exercised by TestComposeAssociative in types_test.go.
func Compose(s2, s1 Substitution) Substitution {
	result := make(Substitution, len(s1)+len(s2))
	for k, v := range s1 {
		result[k] = v
	}
	for k, v := range s2 {
		if _, exists := result[k]; !exists {
			result[k] = v.Rebind(s1)
		}
	}
	return result
}

// Singleton builds the one-entry substitution {name: t}.
func Singleton(name string, t Type) Substitution {
	return Substitution{name: t}
}
