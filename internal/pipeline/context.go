package pipeline

import (
	"github.com/wyverify/wyverify/internal/diagnostics"
	"github.com/wyverify/wyverify/internal/heap"
	"github.com/wyverify/wyverify/internal/resolve"
	"github.com/wyverify/wyverify/internal/vcgen"
	"github.com/wyverify/wyverify/internal/version"
)

// Processor is one stage of the compilation pipeline. It consumes a
// PipelineContext and returns one, possibly the same value mutated in
// place. A Processor must never discard errors already present in the
// context; it should append, not replace, ctx.Errors.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// PipelineContext threads the compilation state through Resolve, Flow,
// Version, and VCGen. It plays the role the teacher's PipelineContext
// plays for Lex/Parse/Analyze/Eval, but carries a *heap.Heap instead of
// an *ast.Program.
type PipelineContext struct {
	// UnitName identifies the compilation unit for diagnostics and caching.
	UnitName string

	// Heap is populated by the external parser contract (§6.2) before the
	// pipeline runs, or loaded from the binary format (§6.1).
	Heap *heap.Heap

	// Resolved is populated by resolve.Pass, the pipeline's first stage.
	Resolved *resolve.Result

	// Versions is populated by the version.Pass once flow analyses succeed.
	Versions *version.Result

	// Modules is the VC generator's output (§4.6), one per unit reachable
	// from Resolved.Namespace, populated by the final stage.
	Modules []*vcgen.Module

	// Errors accumulates diagnostics from every stage that ran. Per
	// spec.md §7, a pass that reports errors short-circuits before the
	// next pass would depend on information only known-good on success,
	// but earlier stages' diagnostics are preserved.
	Errors []*diagnostics.Diagnostic

	// Cancelled is set when the driver's cancel token fired between
	// phases (spec.md §5).
	Cancelled bool
}

// AddErrors appends a batch of diagnostics, skipping nils.
func (ctx *PipelineContext) AddErrors(errs []*diagnostics.Diagnostic) {
	for _, e := range errs {
		if e != nil {
			ctx.Errors = append(ctx.Errors, e)
		}
	}
}

// HasErrors reports whether any stage has recorded a diagnostic whose
// severity is error-level (as opposed to warning-level).
func (ctx *PipelineContext) HasErrors() bool {
	for _, e := range ctx.Errors {
		if e.Severity == diagnostics.SeverityError {
			return true
		}
	}
	return false
}
