package types

// Subst maps template-variable names to their Type and lifetime-
// variable names to a concrete lifetime. Two separate maps rather than
// one, because the two namespaces never collide and a lifetime
// substitution must never accidentally match a type variable Apply
// (mirrors the teacher's Subst being a single map only because its
// HM system has exactly one variable sort; ours has two).
type Subst struct {
	vars      map[string]Type
	lifetimes map[string]string
}

// NewSubst builds a substitution from template-variable bindings.
func NewSubst(vars map[string]Type) Subst {
	return Subst{vars: vars}
}

// NewLifetimeSubst builds a substitution from lifetime-variable bindings.
func NewLifetimeSubst(lifetimes map[string]string) Subst {
	return Subst{lifetimes: lifetimes}
}

func (s Subst) lifetime(name string) string {
	if name == "" {
		return ""
	}
	if repl, ok := s.lifetimes[name]; ok {
		return repl
	}
	return name
}

// without returns a copy of s with varName's binding removed, used by
// Recursive.Substitute so a mu-binder's own variable is never shadowed
// by an outer substitution of the same name.
func (s Subst) without(varName string) Subst {
	if _, ok := s.vars[varName]; !ok {
		return s
	}
	vars := make(map[string]Type, len(s.vars))
	for k, v := range s.vars {
		if k != varName {
			vars[k] = v
		}
	}
	return Subst{vars: vars, lifetimes: s.lifetimes}
}

// withoutLifetimes returns a copy of s with the named lifetime
// variables removed, used by Method.Substitute so a method's own
// lifetime parameters are never shadowed by a call-site substitution
// (spec.md §2's "lifetime parameter removal" rule, applied at the
// binding end rather than only at the Strip end).
func (s Subst) withoutLifetimes(names []string) Subst {
	if len(s.lifetimes) == 0 || len(names) == 0 {
		return s
	}
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	lifetimes := make(map[string]string, len(s.lifetimes))
	for k, v := range s.lifetimes {
		if !drop[k] {
			lifetimes[k] = v
		}
	}
	return Subst{vars: s.vars, lifetimes: lifetimes}
}

// Intersection is a semantic-only combinator: it never appears in
// source or on the heap, and exists purely so IsEmpty (subtype.go) can
// express "values that satisfy both A and B" while computing a
// Difference's emptiness.
type Intersection struct{ Members []Type }

func (t Intersection) String() string {
	parts := make([]string, len(t.Members))
	for i, m := range t.Members {
		parts[i] = m.String()
	}
	return "(" + joinAmp(parts) + ")"
}

func joinAmp(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " & "
		}
		out += p
	}
	return out
}

func (t Intersection) Substitute(s Subst) Type {
	return Intersection{Members: substituteAll(t.Members, s)}
}

// Difference is the other semantic-only combinator: "values in
// Minuend but not in Subtrahend". Structural subtyping (spec.md §2) is
// defined as A <: B iff Difference{A, B} is empty — A has no values B
// wouldn't accept.
type Difference struct {
	Minuend    Type
	Subtrahend Type
}

func (t Difference) String() string {
	return "(" + t.Minuend.String() + " \\ " + t.Subtrahend.String() + ")"
}

func (t Difference) Substitute(s Subst) Type {
	return Difference{Minuend: t.Minuend.Substitute(s), Subtrahend: t.Subtrahend.Substitute(s)}
}
