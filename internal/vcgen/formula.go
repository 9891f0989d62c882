// Package vcgen implements the Verification-Condition Generator of
// spec.md §4.6: translating versioned IR into a minimal first-order
// assertion language and emitting one closed obligation `∀v̄. Γ ⇒ φ`
// per program obligation (call pre-conditions, post-conditions,
// explicit asserts, loop invariants, and alias invariants at variable
// declarations). No obligation is generated for flow-typing safety
// checks such as array bounds or division by zero.
//
// Grounded on the teacher's internal/typesystem formula-free design —
// there is no direct teacher analogue (the teacher evaluates, it never
// proves), so the Formula sum-type here follows spec.md §9's "replace
// deep visitor inheritance with a sum type over item opcodes plus one
// dispatcher per pass" guidance directly, the same shape internal/types
// and internal/opcode already use for their own node kinds.
package vcgen

import (
	"fmt"
	"strings"
)

// Formula is the assertion language of spec.md §4.6: variables,
// constants, integer arithmetic, comparison, logical connectives,
// bounded quantifiers, and uninterpreted function calls for a source
// function's return value.
type Formula interface {
	String() string
}

// Var is a versioned program variable reference, rendered "name@v" so
// two distinct definitions of the same source variable never collide
// as assertion-language symbols (spec.md §4.5's whole point).
type Var struct {
	Name    string
	Version int
}

func (f Var) String() string { return fmt.Sprintf("%s@%d", f.Name, f.Version) }

// IntConst is an integer literal.
type IntConst struct{ Value int64 }

func (f IntConst) String() string { return fmt.Sprintf("%d", f.Value) }

// BoolConst is a boolean literal.
type BoolConst struct{ Value bool }

func (f BoolConst) String() string {
	if f.Value {
		return "true"
	}
	return "false"
}

// NullConst is the null literal.
type NullConst struct{}

func (NullConst) String() string { return "null" }

// BinOp is a binary arithmetic, comparison, or bitwise operator.
type BinOp struct {
	Op          string // "+", "-", "*", "/", "%", "&", "|", "^", "<<", ">>", "==", "!=", "<", "<=", ">", ">="
	Left, Right Formula
}

func (f BinOp) String() string { return fmt.Sprintf("(%s %s %s)", f.Left, f.Op, f.Right) }

// Not, And, Or, Implies, Iff are the logical connectives.
type Not struct{ Operand Formula }
type And struct{ Left, Right Formula }
type Or struct{ Left, Right Formula }
type Implies struct{ Left, Right Formula }
type Iff struct{ Left, Right Formula }

func (f Not) String() string     { return fmt.Sprintf("!%s", f.Operand) }
func (f And) String() string     { return fmt.Sprintf("(%s && %s)", f.Left, f.Right) }
func (f Or) String() string      { return fmt.Sprintf("(%s || %s)", f.Left, f.Right) }
func (f Implies) String() string { return fmt.Sprintf("(%s ==> %s)", f.Left, f.Right) }
func (f Iff) String() string     { return fmt.Sprintf("(%s <==> %s)", f.Left, f.Right) }

// BoundVar is one variable bound by a Forall/Exists.
type BoundVar struct {
	Name string
	Sort string // "int" or a finite-collection sort, per spec.md §4.6
}

// Forall and Exists are spec.md §4.6's "bounded quantifiers over
// integer ranges and finite collections".
type Forall struct {
	Bound []BoundVar
	Body  Formula
}
type Exists struct {
	Bound []BoundVar
	Body  Formula
}

func (f Forall) String() string { return fmt.Sprintf("forall %s. %s", boundString(f.Bound), f.Body) }
func (f Exists) String() string { return fmt.Sprintf("exists %s. %s", boundString(f.Bound), f.Body) }

func boundString(bs []BoundVar) string {
	parts := make([]string, len(bs))
	for i, b := range bs {
		parts[i] = b.Name + ":" + b.Sort
	}
	return strings.Join(parts, ", ")
}

// Call is an application of an uninterpreted function symbol —
// spec.md §4.6's "uninterpreted function symbols for each source
// function's return" — used to stand in for a call's result when the
// call itself isn't being inlined.
type Call struct {
	Func string
	Args []Formula
}

func (f Call) String() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", f.Func, strings.Join(parts, ", "))
}

// FieldAccess and Index are record-field and array-element projections.
type FieldAccess struct {
	Record Formula
	Field  string
}
type Index struct {
	Array Formula
	At    Formula
}

func (f FieldAccess) String() string { return fmt.Sprintf("%s.%s", f.Record, f.Field) }
func (f Index) String() string       { return fmt.Sprintf("%s[%s]", f.Array, f.At) }

// conj folds a list of formulas with And, returning BoolConst{true} for
// an empty list (the identity element Γ starts from).
func conj(fs ...Formula) Formula {
	var out Formula = BoolConst{true}
	first := true
	for _, f := range fs {
		if f == nil {
			continue
		}
		if first {
			out = f
			first = false
			continue
		}
		out = And{Left: out, Right: f}
	}
	return out
}
