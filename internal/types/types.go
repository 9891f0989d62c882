// Package types implements the structural type algebra of spec.md §2:
// primitive, array, record, reference, and callable types, combined
// through union, and — semantically only, never constructed directly
// from source — intersection and difference, which back the
// structural-subtyping emptiness test in subtype.go.
//
// The shape here follows the teacher's internal/typesystem (a Type
// interface with one struct per constructor, a map-keyed Subst, and a
// recursive Substitute/Apply that switches on the concrete type), but
// the algebra itself is different: the teacher does Hindley-Milner
// unification over a nominal/row-polymorphic type system, we do
// structural subtyping with no inference — Substitute only ever binds
// template (generic) variables and lifetime variables, it never
// unifies.
package types

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wyverify/wyverify/internal/names"
)

// Type is implemented by every node of the algebra, including the two
// semantic-only combinators (Intersection, Difference) that never
// appear in source but are synthesized by the subtyping check.
type Type interface {
	String() string
	Substitute(s Subst) Type
}

// --- primitives ---

type Any struct{}
type Void struct{}
type Null struct{}
type Bool struct{}
type Byte struct{}
type Int struct{}

func (Any) String() string  { return "any" }
func (Void) String() string { return "void" }
func (Null) String() string { return "null" }
func (Bool) String() string { return "bool" }
func (Byte) String() string { return "byte" }
func (Int) String() string  { return "int" }

func (t Any) Substitute(Subst) Type  { return t }
func (t Void) Substitute(Subst) Type { return t }
func (t Null) Substitute(Subst) Type { return t }
func (t Bool) Substitute(Subst) Type { return t }
func (t Byte) Substitute(Subst) Type { return t }
func (t Int) Substitute(Subst) Type  { return t }

// --- array ---

type Array struct{ Element Type }

func (t Array) String() string { return t.Element.String() + "[]" }

func (t Array) Substitute(s Subst) Type { return Array{Element: t.Element.Substitute(s)} }

// --- record ---

// Field is one named record member. Record fields are kept sorted by
// Name so String and the subtyping check never depend on declaration
// order (SPEC_FULL.md §6's "record field ordering" decision).
type Field struct {
	Name string
	Type Type
}

// Record is open (may have more fields at runtime, §2's open-record
// rule used by conservative reference-containment in version havocking)
// or closed (exactly these fields).
type Record struct {
	Fields []Field
	Open   bool
}

func (t Record) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = f.Name + ": " + f.Type.String()
	}
	if t.Open {
		parts = append(parts, "...")
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (t Record) Substitute(s Subst) Type {
	fields := make([]Field, len(t.Fields))
	for i, f := range t.Fields {
		fields[i] = Field{Name: f.Name, Type: f.Type.Substitute(s)}
	}
	return Record{Fields: fields, Open: t.Open}
}

// Field looks up a field by name; ok is false if absent, which for an
// Open record means "unknown, possibly present", not "absent".
func (t Record) Field(name string) (Type, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

// sortedFields returns a copy of fields sorted by name, enforcing the
// canonical ordering every Record constructor should produce.
func sortedFields(fields []Field) []Field {
	out := append([]Field(nil), fields...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// NewRecord builds a Record with its fields canonically sorted.
func NewRecord(open bool, fields ...Field) Record {
	return Record{Fields: sortedFields(fields), Open: open}
}

// --- reference ---

// Reference is a lifetime-qualified pointer type. An empty Lifetime
// means the unqualified "*" form (spec.md §2 "default/any lifetime").
type Reference struct {
	Target   Type
	Lifetime string
}

func (t Reference) String() string {
	if t.Lifetime == "" {
		return "&" + t.Target.String()
	}
	return "&" + t.Lifetime + ":" + t.Target.String()
}

func (t Reference) Substitute(s Subst) Type {
	return Reference{Target: t.Target.Substitute(s), Lifetime: s.lifetime(t.Lifetime)}
}

// --- callables ---

// Function is a plain function type: no captured lifetimes, no
// lifetime parameters, no receiver.
type Function struct {
	Params  []Type
	Returns []Type
}

func (t Function) String() string { return callableString("function", t.Params, t.Returns) }

func (t Function) Substitute(s Subst) Type {
	return Function{Params: substituteAll(t.Params, s), Returns: substituteAll(t.Returns, s)}
}

// Method additionally carries the lifetimes it captures from its
// enclosing scope and the lifetime parameters it introduces; spec.md
// §2's substitution rule strips captured/declared lifetime parameters
// when a Method value is used as a Function (e.g. passed where a plain
// callable is expected), which Strip implements.
type Method struct {
	Params            []Type
	Returns           []Type
	CapturedLifetimes []string
	LifetimeParams    []string
}

func (t Method) String() string {
	s := callableString("method", t.Params, t.Returns)
	if len(t.LifetimeParams) > 0 {
		s += "<" + strings.Join(t.LifetimeParams, ", ") + ">"
	}
	return s
}

func (t Method) Substitute(s Subst) Type {
	inner := s.withoutLifetimes(t.LifetimeParams)
	return Method{
		Params:            substituteAll(t.Params, inner),
		Returns:           substituteAll(t.Returns, inner),
		CapturedLifetimes: t.CapturedLifetimes,
		LifetimeParams:    t.LifetimeParams,
	}
}

// Strip drops the lifetime-parameter machinery, yielding the Function
// type a Method degrades to once called through a first-class value.
func (t Method) Strip() Function {
	return Function{Params: t.Params, Returns: t.Returns}
}

// Property is a zero-argument accessor computed on read; spec.md §2
// models it as a callable of its parameter types (usually none) with
// exactly one implicit return, carried as Returns[0].
type Property struct {
	Params  []Type
	Returns Type
}

func (t Property) String() string { return callableString("property", t.Params, []Type{t.Returns}) }

func (t Property) Substitute(s Subst) Type {
	return Property{Params: substituteAll(t.Params, s), Returns: t.Returns.Substitute(s)}
}

func callableString(kind string, params, returns []Type) string {
	ps := make([]string, len(params))
	for i, p := range params {
		ps[i] = p.String()
	}
	rs := make([]string, len(returns))
	for i, r := range returns {
		rs[i] = r.String()
	}
	return fmt.Sprintf("%s(%s) -> (%s)", kind, strings.Join(ps, ", "), strings.Join(rs, ", "))
}

func substituteAll(ts []Type, s Subst) []Type {
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = t.Substitute(s)
	}
	return out
}

// --- union ---

// Union is a closed set of alternatives; spec.md §2 requires it stay
// flattened and deduplicated, which NewUnion enforces.
type Union struct{ Members []Type }

func (t Union) String() string {
	parts := make([]string, len(t.Members))
	for i, m := range t.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}

func (t Union) Substitute(s Subst) Type {
	return NewUnion(substituteAll(t.Members, s)...)
}

// NewUnion flattens nested unions, deduplicates by String, and
// collapses a singleton to its lone member — the same normalization
// discipline the teacher's NormalizeUnion applies to TUnion.
func NewUnion(members ...Type) Type {
	var flat []Type
	for _, m := range members {
		if u, ok := m.(Union); ok {
			flat = append(flat, u.Members...)
		} else {
			flat = append(flat, m)
		}
	}
	seen := map[string]bool{}
	var unique []Type
	for _, m := range flat {
		key := m.String()
		if !seen[key] {
			seen[key] = true
			unique = append(unique, m)
		}
	}
	if len(unique) == 1 {
		return unique[0]
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].String() < unique[j].String() })
	return Union{Members: unique}
}

// --- nominal ---

// Nominal references a named type alias (spec.md §2), optionally
// instantiated with template arguments. Resolving it to its underlying
// Type is internal/resolve's job, not this package's.
type Nominal struct {
	Name names.QualifiedName
	Args []Type
}

func (t Nominal) String() string {
	if len(t.Args) == 0 {
		return t.Name.String()
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return t.Name.String() + "<" + strings.Join(args, ", ") + ">"
}

func (t Nominal) Substitute(s Subst) Type {
	return Nominal{Name: t.Name, Args: substituteAll(t.Args, s)}
}

// --- recursive (mu) types ---

// Recursive is a mu-binder: Body may contain Variable{Name: Var}, which
// stands for "this whole Recursive type" wherever it recurs (spec.md
// §2 / §3.3's heap back-reference, represented here as a bound
// variable rather than a cyclic Go value, since Go has no convenient
// cyclic value type and the heap's own back-reference index already
// gives us a finite, index-addressed representation to unfold from on
// demand — see resolve's bridge from heap items to Type values).
type Recursive struct {
	Var  string
	Body Type
}

func (t Recursive) String() string { return "μ" + t.Var + "." + t.Body.String() }

func (t Recursive) Substitute(s Subst) Type {
	inner := s.without(t.Var)
	return Recursive{Var: t.Var, Body: t.Body.Substitute(inner)}
}

// Unfold substitutes one copy of t for its own bound variable,
// producing the one-step unrolling spec.md's emptiness test needs to
// make progress through a recursive type without looping forever (see
// subtype.go's occurs-check-guarded recursion instead).
func (t Recursive) Unfold() Type {
	return t.Body.Substitute(Subst{vars: map[string]Type{t.Var: t}})
}

// --- template/lifetime variables ---

// Variable is an unresolved template parameter (bound by a Function/
// Method/Property/TypeAlias's template-params tuple) or a Recursive's
// bound variable.
type Variable struct{ Name string }

func (t Variable) String() string { return t.Name }

func (t Variable) Substitute(s Subst) Type {
	if repl, ok := s.vars[t.Name]; ok {
		return repl
	}
	return t
}
