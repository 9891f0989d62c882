// Package version implements the Variable-Versioning pass of spec.md
// §4.5: an SSA-like labeling of every definition and use of a local or
// static variable so the VC generator can encode assignments as
// equalities between distinct symbols instead of mutable state.
//
// Grounded on the teacher's internal/analyzer walker shape (a small
// struct threaded through a recursive statement/expression walk,
// mutated in place per visit) — changed from accumulating diagnostics
// to threading an immutable Env value (this pass reports no
// diagnostics), since spec.md §4.5 requires the versioning environment
// itself to be copied at branch points (Join), not mutated shared
// state.
package version

import (
	"github.com/wyverify/wyverify/internal/heap"
	"github.com/wyverify/wyverify/internal/opcode"
)

// Var identifies a local or static variable by the heap index of its
// declaring item (Variable, VariableInit, or a parameter/return
// variable item, all opcode.OpVariable/OpVariableInit).
type Var = heap.Index

// Env is the versioning environment of spec.md §4.5: globalVersions
// (the highest version ever issued for a variable anywhere in the
// function) and localMapping (the version currently visible at this
// program point). Env is copy-on-write: every mutating operation
// returns a new Env, so branches can be explored independently and
// joined without aliasing each other's state.
type Env struct {
	global map[Var]int
	local  map[Var]int
}

// NewEnv returns an empty environment.
func NewEnv() Env {
	return Env{global: map[Var]int{}, local: map[Var]int{}}
}

func (e Env) clone() Env {
	g := make(map[Var]int, len(e.global))
	for k, v := range e.global {
		g[k] = v
	}
	l := make(map[Var]int, len(e.local))
	for k, v := range e.local {
		l[k] = v
	}
	return Env{global: g, local: l}
}

// Declare allocates version 0 for v, the version visible for a fresh
// parameter/local at its point of declaration.
func (e Env) Declare(v Var) Env {
	next := e.clone()
	next.global[v] = 0
	next.local[v] = 0
	return next
}

// Havoc increments v's global version counter and makes that new
// version the one visible at this point — used on every assignment
// LHS and on loop back-edges (spec.md §4.5).
func (e Env) Havoc(v Var) (Env, int) {
	next := e.clone()
	n := next.global[v] + 1
	next.global[v] = n
	next.local[v] = n
	return next, n
}

// HavocAll havocs every variable in vs, in order, returning the final
// environment — the loop-head and conservative-call-site contract both
// havoc a whole modified-set at once.
func (e Env) HavocAll(vs []Var) Env {
	cur := e
	for _, v := range vs {
		cur, _ = cur.Havoc(v)
	}
	return cur
}

// Version returns the version of v currently visible, and whether v
// has been declared at all in this environment.
func (e Env) Version(v Var) (int, bool) {
	n, ok := e.local[v]
	return n, ok
}

// Join implements spec.md §4.5's join(E1, E2): for each variable
// present in both, if the two environments agree keep that version;
// otherwise issue a fresh version, modeling a φ-like merge point. A
// variable declared in only one branch is carried through unchanged —
// definite-assignment (internal/flow) is responsible for rejecting a
// use of a variable not assigned on every incoming path, not this pass.
func Join(e1, e2 Env) Env {
	next := Env{global: map[Var]int{}, local: map[Var]int{}}
	for v, g := range e1.global {
		next.global[v] = g
	}
	for v, g := range e2.global {
		if cur, ok := next.global[v]; !ok || g > cur {
			next.global[v] = g
		}
	}
	seen := map[Var]bool{}
	for v, n1 := range e1.local {
		seen[v] = true
		if n2, ok := e2.local[v]; ok {
			if n1 == n2 {
				next.local[v] = n1
			} else {
				g := next.global[v] + 1
				next.global[v] = g
				next.local[v] = g
			}
		} else {
			next.local[v] = n1
		}
	}
	for v, n2 := range e2.local {
		if seen[v] {
			continue
		}
		next.local[v] = n2
	}
	return next
}

// JoinAll folds Join across more than two incoming environments — the
// switch construct's "join across all case environments" rule, and its
// "no default ⇒ also join with the pre-switch environment" variant
// (callers append the pre-switch Env to envs when there's no default).
func JoinAll(envs []Env) Env {
	if len(envs) == 0 {
		return NewEnv()
	}
	cur := envs[0]
	for _, e := range envs[1:] {
		cur = Join(cur, e)
	}
	return cur
}

// declOpcode reports whether op declares a versionable variable.
func declOpcode(op opcode.Opcode) bool {
	return op == opcode.OpVariable || op == opcode.OpVariableInit
}
