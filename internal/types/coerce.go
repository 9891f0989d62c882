package types

// CoercionResult is what SelectCoercion returns. SelectCoercion
// implements the ambiguous-coercion check (spec.md §4's
// most-precise-candidate rule): given a value statically known to have
// type from, find the single member of a Union target that from can be
// implicitly coerced to. If more than one candidate member accepts
// `from` and none of them is a subtype of every other candidate, the
// coercion is ambiguous and SelectCoercion reports that rather than
// guessing.
type CoercionResult struct {
	Target    Type
	Ambiguous bool
	// Candidates holds every member that accepted `from`, populated
	// only when Ambiguous is true so a caller can build a diagnostic
	// listing the competing members.
	Candidates []Type
}

// SelectCoercion picks which member of target (a Union, or any single
// type treated as a one-member union) `from` coerces to.
func SelectCoercion(from Type, target Type) CoercionResult {
	members := unionMembers(target)

	var candidates []Type
	for _, m := range members {
		if IsSubtype(from, m) {
			candidates = append(candidates, m)
		}
	}

	switch len(candidates) {
	case 0:
		return CoercionResult{}
	case 1:
		return CoercionResult{Target: candidates[0]}
	}

	// Most-precise-candidate rule: if one candidate is a subtype of
	// every other candidate, it's the unique most specific match and
	// wins; otherwise the coercion is genuinely ambiguous.
	best := mostPrecise(candidates)
	if best != nil {
		return CoercionResult{Target: best}
	}
	return CoercionResult{Ambiguous: true, Candidates: candidates}
}

func unionMembers(t Type) []Type {
	if u, ok := t.(Union); ok {
		return u.Members
	}
	return []Type{t}
}

// mostPrecise returns the candidate that is a subtype of every other
// candidate, or nil if no single candidate dominates.
func mostPrecise(candidates []Type) Type {
	for _, c := range candidates {
		dominates := true
		for _, other := range candidates {
			if sameShape(c, other) {
				continue
			}
			if !IsSubtype(c, other) {
				dominates = false
				break
			}
		}
		if dominates {
			return c
		}
	}
	return nil
}
