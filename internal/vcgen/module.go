package vcgen

import (
	"github.com/google/uuid"

	"github.com/wyverify/wyverify/internal/names"
)

// Kind classifies an Obligation by its source: a call's pre-condition,
// a post-condition at a return, an explicit assert, or an invariant
// (loop or type alias). KindSafety is declared, but the generator
// emits no obligation of that kind.
type Kind string

const (
	KindPrecondition  Kind = "precondition"
	KindPostcondition Kind = "postcondition"
	KindAssert        Kind = "assert"
	KindInvariantHold Kind = "invariant"
	KindSafety        Kind = "safety"
)

// Obligation is one closed formula `∀v̄. Γ ⇒ φ` (spec.md §4.6), keyed
// by a stable UUID so a prover's verdict and counter-example (§6.3) can
// be matched back to the obligation that produced it. Range is always
// the zero names.Range: heap items carry no source positions.
type Obligation struct {
	ID       uuid.UUID
	Kind     Kind
	Range    names.Range
	Bound    []BoundVar
	Gamma    Formula
	Phi      Formula
	Callable string // qualified name of the enclosing callable, for reporting
}

// Formula returns the obligation's full closed formula `∀v̄. Γ ⇒ φ`.
func (o Obligation) Formula() Formula {
	body := Formula(Implies{Left: o.Gamma, Right: o.Phi})
	if len(o.Bound) == 0 {
		return body
	}
	return Forall{Bound: o.Bound, Body: body}
}

// Decl mirrors one callable declaration in the assertion module: its
// signature (as an uninterpreted symbol plus its requires/ensures
// axioms). Only callables get a Decl; type aliases and static
// variables are not mirrored.
type Decl struct {
	Name     string
	Kind     string // "function", "method", "property", or "callable"
	Requires []Formula
	Ensures  []Formula
	Params   []BoundVar
}

// Module is the VC generator's output: the assertion-language document
// a prover checks obligation-by-obligation (spec.md §6.3, §4.6).
type Module struct {
	UnitName    string
	Declarations []Decl
	Obligations []Obligation
}
