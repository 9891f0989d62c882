package types

// IsSubtype reports whether every value of a is also a value of b,
// decided structurally by testing Difference{a, b} for emptiness
// (spec.md §2), with no Nominal expansion and exact-match lifetime
// comparison. Prefer IsSubtypeIn when an Environment (alias expansion,
// lifetime ordering) is available — internal/resolve builds one per
// unit; this form exists for callers (tests, the coercion helpers in
// coerce.go) that only care about the purely structural shape.
func IsSubtype(a, b Type) bool {
	return IsSubtypeIn(a, b, nil)
}

// IsSubtypeIn is IsSubtype with an Environment threaded through, used
// wherever a Nominal type may need expanding to its alias's underlying
// type (spec.md §4.2.2 point 4) or a Reference's lifetime needs the
// enclosing scope's ordering rather than exact-match (spec.md §4.2.2's
// LifetimeRelation).
func IsSubtypeIn(a, b Type, env *Environment) bool {
	return isEmpty(Difference{Minuend: a, Subtrahend: b}, &emptyCtx{env: env})
}

// seenPair guards the occurs-check needed once Recursive or Nominal
// types are unfolded/expanded during the emptiness test: encountering
// the same (minuend, subtrahend) shape a second time means we've gone
// around the cycle once with no contradiction found, so the pair is
// treated as non-empty (spec.md §4.2.2 point 4's co-inductive
// termination rule, and spec.md §9's decision to key this stack by
// item shape/index rather than object identity).
type seenPair struct{ a, b string }

// emptyCtx threads the Environment (for Nominal expansion and lifetime
// ordering) and the recursion/expansion guard through the structural
// emptiness test. The zero value (nil env, nil seen) is the purely
// structural fallback IsSubtype uses.
type emptyCtx struct {
	env  *Environment
	seen map[seenPair]bool
}

func (c *emptyCtx) withSeen(key seenPair) (*emptyCtx, bool) {
	if c == nil {
		c = &emptyCtx{}
	}
	if c.seen == nil {
		next := &emptyCtx{env: c.env, seen: map[seenPair]bool{key: true}}
		return next, false
	}
	if c.seen[key] {
		return c, true
	}
	c.seen[key] = true
	return c, false
}

// IsEmpty decides whether t (expected to be built from Intersection/
// Difference/Union/etc.) denotes the empty set of values, with no
// Environment (purely structural — Nominal types compare by name and
// type arguments only, never expanding to an alias's underlying type).
// Exported for tests and for callers that already resolved every
// Nominal away; internal/resolve and internal/flow should prefer
// isEmpty via IsSubtypeIn.
func IsEmpty(t Type, seen map[seenPair]bool) bool {
	return isEmpty(t, &emptyCtx{seen: seen})
}

func isEmpty(t Type, c *emptyCtx) bool {
	switch v := t.(type) {
	case Difference:
		return isEmptyDifference(v.Minuend, v.Subtrahend, c)
	case Intersection:
		return isEmptyIntersection(v.Members, c)
	case Union:
		for _, m := range v.Members {
			if !isEmpty(m, c) {
				return false
			}
		}
		return true
	case Recursive:
		key := seenPair{a: v.String(), b: ""}
		next, cycled := c.withSeen(key)
		if cycled {
			// Gone around the cycle once with no contradiction: a
			// coinductively-defined recursive type is empty only if its
			// body is, and an unguarded mu-binder body is never Void by
			// construction, so treat this as non-empty.
			return false
		}
		return isEmpty(v.Unfold(), next)
	case Record:
		// A record (a product of its fields) is uninhabited if any one
		// field's type is, independent of the others — needed once a
		// field's type has itself been narrowed to a Difference by
		// recordUnionDifference below.
		for _, f := range v.Fields {
			if isEmpty(f.Type, c) {
				return true
			}
		}
		return false
	case Void:
		return true
	default:
		return false
	}
}

// isEmptyIntersection is empty if any two members are structurally
// disjoint (neither is a subtype of the other and their shapes don't
// overlap) — Intersection is never built from source, only used as a
// bookkeeping combinator should a future pass need it, so this only
// needs to cover the shapes this package already produces.
func isEmptyIntersection(members []Type, c *emptyCtx) bool {
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			aSubB := isEmpty(Difference{Minuend: members[i], Subtrahend: members[j]}, c)
			bSubA := isEmpty(Difference{Minuend: members[j], Subtrahend: members[i]}, c)
			if !aSubB && !bSubA {
				return true
			}
		}
	}
	return false
}

// isEmptyDifference is the structural heart of the subtyping check: it
// asks "is every value of minuend already accepted by subtrahend?"
func isEmptyDifference(minuend, subtrahend Type, c *emptyCtx) bool {
	if sameShape(minuend, subtrahend) {
		return true
	}

	// A \ (B | C) = (A \ B) ∩ (A \ C) (spec.md §4.2.2): when A is a
	// closed record and every branch is a closed record of the same
	// shape, the union can be distributed field-by-field via the
	// standard record-difference identity {l:t,...} \ {l:s,...} =
	// ⋃_i {..., li:(ti\si), ...}, so a union of record branches that
	// only jointly (not individually) cover A is still recognised —
	// e.g. {k:int,p:int|bool} <: {k:int,p:int}|{k:int,p:bool}, which
	// subtracting one branch at a time could never prove. Anything
	// else falls back to the conservative "A is wholly covered by some
	// single branch" test, which never accepts an invalid subtype but
	// can miss one only provable by that same distribution.
	if u, ok := subtrahend.(Union); ok {
		if minRec, ok := minuend.(Record); ok {
			if residual, ok := recordUnionDifference(minRec, u.Members); ok {
				return isEmpty(residual, c)
			}
		}
		for _, m := range u.Members {
			if isEmptyDifference(minuend, m, c) {
				return true
			}
		}
		return false
	}

	// (A | B) \ C is empty iff A \ C is empty AND B \ C is empty: every
	// branch must individually be covered.
	if u, ok := minuend.(Union); ok {
		for _, m := range u.Members {
			if !isEmptyDifference(m, subtrahend, c) {
				return false
			}
		}
		return true
	}

	switch subtrahend.(type) {
	case Any:
		return true
	}

	key := seenPair{a: minuend.String(), b: subtrahend.String()}

	switch min := minuend.(type) {
	case Void:
		return true
	case Recursive:
		next, cycled := c.withSeen(key)
		if cycled {
			return false
		}
		return isEmptyDifference(min.Unfold(), subtrahend, next)
	}
	if sub, ok := subtrahend.(Recursive); ok {
		next, cycled := c.withSeen(key)
		if cycled {
			return false
		}
		return isEmptyDifference(minuend, sub.Unfold(), next)
	}

	// Nominal expansion (spec.md §4.2.2 point 4): only when an
	// Environment is present and the pair hasn't already been expanded
	// once on this path — the co-inductive hypothesis then holds and
	// the pair is treated as non-empty rather than looping forever on a
	// recursively-defined alias.
	if min, ok := minuend.(Nominal); ok {
		if sub, ok := subtrahend.(Nominal); ok && min.Name.Equal(sub.Name) && sameArgs(min.Args, sub.Args, c) {
			return true
		}
		if expanded, ok := c.expandEnv(min); ok {
			next, cycled := c.withSeen(key)
			if cycled {
				return false
			}
			return isEmptyDifference(expanded, subtrahend, next)
		}
		if _, ok := subtrahend.(Nominal); !ok {
			return false
		}
	}
	if sub, ok := subtrahend.(Nominal); ok {
		if expanded, ok := c.expandEnv(sub); ok {
			next, cycled := c.withSeen(key)
			if cycled {
				return false
			}
			return isEmptyDifference(minuend, expanded, next)
		}
		return false
	}

	switch min := minuend.(type) {
	case Array:
		sub, ok := subtrahend.(Array)
		if !ok {
			return false
		}
		// Arrays are covariant on the element type (spec.md §2): [T] <:
		// [U] iff T <: U, i.e. the element difference is empty.
		return isEmpty(Difference{Minuend: min.Element, Subtrahend: sub.Element}, c)

	case Record:
		sub, ok := subtrahend.(Record)
		if !ok {
			return false
		}
		return isEmptyRecordDifference(min, sub, c)

	case Reference:
		sub, ok := subtrahend.(Reference)
		if !ok {
			return false
		}
		// References are invariant on the target (spec.md §2): a &T is
		// only a subtype of &U if T and U denote the same values. The
		// lifetime component uses the environment's ordering when
		// present (spec.md §4.2.2's LifetimeRelation: l1 <: l2's
		// reference position requires l1 ⊑ l2, "l1 outlives or equals
		// l2"), falling back to exact-match when no Environment — or no
		// lifetime at all — is given.
		if sub.Lifetime != "" {
			if c == nil || c.env == nil || c.env.Lifetimes == nil {
				if min.Lifetime != sub.Lifetime {
					return false
				}
			} else if !outlives(c.env, min.Lifetime, sub.Lifetime) {
				return false
			}
		}
		return isEmpty(Difference{Minuend: min.Target, Subtrahend: sub.Target}, c) &&
			isEmpty(Difference{Minuend: sub.Target, Subtrahend: min.Target}, c)

	case Function:
		sub, ok := subtrahend.(Function)
		if !ok {
			return false
		}
		return isEmptyCallableDifference(min.Params, min.Returns, sub.Params, sub.Returns, c)

	case Method:
		// spec.md §9's known incompleteness: Method subtyping compares
		// captured-lifetime and lifetime-parameter lists structurally
		// (equal lists), not with genuine variance over them — this
		// mirrors the source's own documented gap rather than fixing it.
		switch sub := subtrahend.(type) {
		case Method:
			if !sameStrings(min.CapturedLifetimes, sub.CapturedLifetimes) || !sameStrings(min.LifetimeParams, sub.LifetimeParams) {
				return false
			}
			return isEmptyCallableDifference(min.Params, min.Returns, sub.Params, sub.Returns, c)
		case Function:
			stripped := min.Strip()
			return isEmptyCallableDifference(stripped.Params, stripped.Returns, sub.Params, sub.Returns, c)
		default:
			return false
		}

	case Property:
		sub, ok := subtrahend.(Property)
		if !ok {
			return false
		}
		return isEmptyCallableDifference(min.Params, []Type{min.Returns}, sub.Params, []Type{sub.Returns}, c)
	}

	return false
}

// expandEnv is the emptyCtx-aware wrapper around Environment.expand,
// safe to call with a nil context or a nil Environment.
func (c *emptyCtx) expandEnv(n Nominal) (Type, bool) {
	if c == nil {
		return nil, false
	}
	return c.env.expand(n)
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// isEmptyRecordDifference implements the open/closed record rule
// (spec.md §2): a closed record is a subtype of another record only if
// it has every field the target requires (width+depth subtyping,
// fields covariant); an open record is conservatively treated as
// possibly having any field, so it's only a subtype of an open target
// whose known fields it also satisfies.
func isEmptyRecordDifference(min, sub Record, c *emptyCtx) bool {
	if !sub.Open {
		// A target that claims to be exactly these fields rejects any
		// minuend that isn't also closed with exactly the same field
		// set, since an extra or missing field is observable (spec.md
		// §8's "subtype-record-openness" property: a closed record is
		// never a subtype of an open record whose field set strictly
		// contains its own — symmetrically, it can't widen into an
		// unrelated closed record either).
		if min.Open {
			return false
		}
		if len(min.Fields) != len(sub.Fields) {
			return false
		}
	}
	for _, sf := range sub.Fields {
		mf, ok := min.Field(sf.Name)
		if !ok {
			// Whether min is open or closed, a required field it
			// doesn't declare means it can't be proven to satisfy sub:
			// open is conservative (might have it with an incompatible
			// type), closed simply lacks it.
			return false
		}
		if !isEmpty(Difference{Minuend: mf, Subtrahend: sf.Type}, c) {
			return false
		}
	}
	return true
}

// recordUnionDifference computes min \ (members[0] ∪ members[1] ∪ ...)
// as an actual residual Type when min and every member are closed
// records sharing min's exact field set, ok=false otherwise (the
// decomposition doesn't apply, caller should fall back).
func recordUnionDifference(min Record, members []Type) (Type, bool) {
	if min.Open {
		return nil, false
	}
	residual := Type(min)
	for _, m := range members {
		sub, ok := m.(Record)
		if !ok || sub.Open || len(sub.Fields) != len(min.Fields) {
			return nil, false
		}
		for _, f := range min.Fields {
			if _, ok := sub.Field(f.Name); !ok {
				return nil, false
			}
		}
		residual = subtractRecordField(residual, sub)
	}
	return residual, true
}

// subtractRecordField applies {l1:t1,...}\{l1:s1,...} = ⋃_i
// {..., li:(ti\si), ...} to every Record reachable in cur — cur may
// already be a Union accumulated from an earlier call, in which case
// the subtraction distributes across its members.
func subtractRecordField(cur Type, sub Record) Type {
	switch v := cur.(type) {
	case Union:
		parts := make([]Type, len(v.Members))
		for i, m := range v.Members {
			parts[i] = subtractRecordField(m, sub)
		}
		return NewUnion(parts...)
	case Record:
		var variants []Type
		for i, f := range v.Fields {
			sf, ok := sub.Field(f.Name)
			if !ok {
				continue
			}
			fields := append([]Field(nil), v.Fields...)
			fields[i] = Field{Name: f.Name, Type: Difference{Minuend: f.Type, Subtrahend: sf}}
			variants = append(variants, Record{Fields: fields, Open: v.Open})
		}
		return NewUnion(variants...)
	default:
		return cur
	}
}

// isEmptyCallableDifference implements callable subtyping: contravariant
// in parameters, covariant in returns (spec.md §2).
func isEmptyCallableDifference(minParams, minReturns, subParams, subReturns []Type, c *emptyCtx) bool {
	if len(minParams) != len(subParams) || len(minReturns) != len(subReturns) {
		return false
	}
	for i := range minParams {
		// contravariant: subParams[i] <: minParams[i]
		if !isEmpty(Difference{Minuend: subParams[i], Subtrahend: minParams[i]}, c) {
			return false
		}
	}
	for i := range minReturns {
		// covariant: minReturns[i] <: subReturns[i]
		if !isEmpty(Difference{Minuend: minReturns[i], Subtrahend: subReturns[i]}, c) {
			return false
		}
	}
	return true
}

func sameArgs(a, b []Type, c *emptyCtx) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !isEmpty(Difference{Minuend: a[i], Subtrahend: b[i]}, c) ||
			!isEmpty(Difference{Minuend: b[i], Subtrahend: a[i]}, c) {
			return false
		}
	}
	return true
}

// sameShape is a cheap syntactic equality check used to short-circuit
// the structural test in the common case (e.g. reflexivity: A \ A is
// always empty without needing a full structural walk).
func sameShape(a, b Type) bool {
	return a.String() == b.String()
}
