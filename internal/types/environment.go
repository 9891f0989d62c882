package types

import "github.com/wyverify/wyverify/internal/names"

// Environment carries the two pieces of external context the
// structural subtyping check needs but this package cannot derive on
// its own (spec.md §4.2.2): a way to expand a Nominal type to its
// aliased underlying type, and a lifetime ordering. Both fields may be
// nil — IsSubtypeIn with a nil Environment (what IsSubtype uses)
// compares Nominal types by name only and requires lifetimes to match
// exactly, which is always sound, just less precise than resolving the
// alias chain.
type Environment struct {
	// ExpandNominal returns the underlying type an alias declaration
	// denotes, substituted with the Nominal's own type arguments
	// already applied by the caller. internal/resolve builds this from
	// the heap's TypeAlias declarations.
	ExpandNominal func(name names.QualifiedName) (Type, bool)

	// Lifetimes relates two named lifetimes: Outlives(l1, l2) holds
	// when l1 is valid at least as long as l2 (spec.md §4.2.2's "l₁ ⊑
	// l₂ means l₁ outlives l₂ or equals it"). A nil Lifetimes field (or
	// a nil Environment) means no relation is known beyond equality.
	Lifetimes *LifetimeRelation
}

// LifetimeRelation is a partial order over named lifetimes, built from
// the lexical nesting of named blocks (spec.md §3.4 NamedBlock) a
// function body introduces. internal/resolve populates a single
// relation covering every callable body in the namespace, from
// NamedBlock nesting only.
type LifetimeRelation struct {
	// outlives[a] is the set of lifetimes a is known to outlive
	// (i.e. every l in outlives[a] satisfies a ⊑ l; a is *at least as
	// long-lived as* l). Built once per namespace and queried
	// read-only during subtyping, so a plain map needs no
	// synchronization.
	outlives map[string]map[string]bool
}

// NewLifetimeRelation returns an empty relation (every lifetime is
// related only to itself).
func NewLifetimeRelation() *LifetimeRelation {
	return &LifetimeRelation{outlives: map[string]map[string]bool{}}
}

// Declare records that inner is lexically nested within outer, and
// therefore outer outlives inner (an enclosing scope is always at
// least as long-lived as one nested within it).
func (r *LifetimeRelation) Declare(outer, inner string) {
	if r.outlives[outer] == nil {
		r.outlives[outer] = map[string]bool{}
	}
	r.outlives[outer][inner] = true
}

// Outlives reports whether l1 ⊒ l2 (l1 is valid at least as long as
// l2): either they're the same lifetime, or a Declare chain connects
// l1 as an ancestor scope of l2 (Outlives itself walks the chain
// transitively, so Declare only ever needs to record direct edges).
func (r *LifetimeRelation) Outlives(l1, l2 string) bool {
	if l1 == l2 {
		return true
	}
	if r == nil {
		return false
	}
	seen := map[string]bool{}
	var walk func(string) bool
	walk = func(cur string) bool {
		if cur == l2 {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
		for inner := range r.outlives[cur] {
			if walk(inner) {
				return true
			}
		}
		return false
	}
	return walk(l1)
}

// Expand resolves a Nominal type to its aliased underlying type through
// env, substituting the Nominal's own type arguments positionally. Used
// by callers outside this package (internal/version's reference-
// containment check) that need alias expansion but aren't doing a full
// subtyping test.
func Expand(env *Environment, n Nominal) (Type, bool) {
	return env.expand(n)
}

func (e *Environment) expand(n Nominal) (Type, bool) {
	if e == nil || e.ExpandNominal == nil {
		return nil, false
	}
	underlying, ok := e.ExpandNominal(n.Name)
	if !ok {
		return nil, false
	}
	if len(n.Args) == 0 {
		return underlying, true
	}
	// The alias's own template parameters are substituted by position;
	// internal/resolve names them Variable{"$0"}, Variable{"$1"}, ... when
	// it builds the alias's stored underlying type, so Nominal.Args line
	// up positionally.
	vars := map[string]Type{}
	for i, arg := range n.Args {
		vars[templateVarName(i)] = arg
	}
	return underlying.Substitute(NewSubst(vars)), true
}

// templateVarName is the positional template-variable naming scheme
// internal/resolve uses when building a TypeAlias's underlying Type
// from the heap, so Nominal instantiation here and alias construction
// there agree without either package needing the alias's real
// parameter names.
func templateVarName(i int) string {
	const digits = "0123456789"
	if i < 10 {
		return "$" + string(digits[i])
	}
	// Falls back to decimal for >9 template params, never hit by any
	// declaration this heap can represent in practice.
	s := []byte{'$'}
	for _, d := range itoa(i) {
		s = append(s, d)
	}
	return string(s)
}

func itoa(i int) []byte {
	if i == 0 {
		return []byte{'0'}
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return buf[pos:]
}

func outlives(env *Environment, l1, l2 string) bool {
	if l1 == l2 {
		return true
	}
	if env == nil || env.Lifetimes == nil {
		return false
	}
	return env.Lifetimes.Outlives(l1, l2)
}
