// Package external names the compile-time contracts for the three
// collaborators spec.md §1 places outside the core's scope: the
// surface-syntax parser, the theorem prover, and the project/
// filesystem resolver. The core depends only on these interfaces; an
// embedder supplies concrete implementations. cmd/verifyc does not go
// through them: it reads heaps from the binary format and calls
// internal/proverclient directly.
package external

import (
	"context"

	"github.com/wyverify/wyverify/internal/heap"
	"github.com/wyverify/wyverify/internal/vcgen"
)

// Parser turns one compilation unit's surface source into a populated
// heap (spec.md §6.2). Lexing, parsing, and desugaring are entirely the
// implementation's concern; the core only ever consumes the resulting
// *heap.Heap.
type Parser interface {
	Parse(ctx context.Context, unitName string, src []byte) (*heap.Heap, error)
}

// Verdict is a prover's answer to one obligation.
type Verdict int

const (
	// VerdictUnknown means the prover could not decide within its
	// resource bounds — neither a proof nor a counterexample.
	VerdictUnknown Verdict = iota
	VerdictValid
	VerdictInvalid
)

func (v Verdict) String() string {
	switch v {
	case VerdictValid:
		return "valid"
	case VerdictInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// CheckResult pairs one obligation's verdict with an optional
// counter-model the prover returns on VerdictInvalid (spec.md §6.3's
// "witness" — a binding from bound-variable name to a value the
// obligation's Γ satisfies but whose φ it falsifies).
type CheckResult struct {
	ObligationID string
	Verdict      Verdict
	Counterexample map[string]string
}

// Prover checks a module's verification obligations. Any sound
// decision procedure for the assertion language is an acceptable
// implementation (spec.md §5 Non-goals) — this interface names the
// contract, not a specific solver.
type Prover interface {
	Check(ctx context.Context, mod *vcgen.Module) ([]CheckResult, error)
}

// ProjectResolver locates and orders a project's compilation units —
// the filesystem/build-graph layer spec.md places outside the core
// (§1's "project/filesystem layer").
type ProjectResolver interface {
	// Units returns every compilation unit's name, in an order this
	// resolver considers safe for per-unit resolution (spec.md §5's
	// independence guarantee means any order is actually safe, but a
	// resolver may still prefer e.g. dependency order for diagnostics).
	Units(ctx context.Context) ([]string, error)

	// Source returns one unit's raw bytes for the Parser to consume.
	Source(ctx context.Context, unitName string) ([]byte, error)
}
