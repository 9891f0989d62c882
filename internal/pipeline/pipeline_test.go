package pipeline_test

import (
	"testing"

	"github.com/wyverify/wyverify/internal/pipeline"
	"github.com/wyverify/wyverify/internal/testutil"
)

func runPipeline(t *testing.T, s *testutil.Scenario) *pipeline.PipelineContext {
	t.Helper()
	p := pipeline.New(
		pipeline.ResolveProcessor{},
		pipeline.FlowProcessor{},
		pipeline.VersionProcessor{},
		pipeline.VCGenProcessor{},
	)
	return p.Run(&pipeline.PipelineContext{UnitName: s.Name, Heap: s.Heap})
}

func TestIdentityFunction(t *testing.T) {
	ctx := runPipeline(t, testutil.IdentityFunction())
	if ctx.HasErrors() {
		t.Fatalf("unexpected errors: %v", ctx.Errors)
	}
	total := 0
	for _, m := range ctx.Modules {
		total += len(m.Obligations)
	}
	if total != 1 {
		t.Fatalf("want 1 obligation, got %d", total)
	}
}

func TestAbsoluteValue(t *testing.T) {
	ctx := runPipeline(t, testutil.AbsoluteValue())
	if ctx.HasErrors() {
		t.Fatalf("unexpected errors: %v", ctx.Errors)
	}
	if len(ctx.Modules) != 1 || len(ctx.Modules[0].Obligations) == 0 {
		t.Fatalf("expected at least one obligation, got %+v", ctx.Modules)
	}
}

func TestCyclicStaticInitialisers(t *testing.T) {
	ctx := runPipeline(t, testutil.CyclicStaticInitialisers())
	if !ctx.HasErrors() {
		t.Fatalf("expected a cyclic-static-initialiser diagnostic, got none")
	}
}

func TestLoopInvariantPreserved(t *testing.T) {
	ctx := runPipeline(t, testutil.LoopInvariantPreserved())
	if ctx.HasErrors() {
		t.Fatalf("unexpected errors: %v", ctx.Errors)
	}
	if ctx.Versions == nil || len(ctx.Versions.Functions) != 1 {
		t.Fatalf("expected versioning output for the one function, got %+v", ctx.Versions)
	}
}

func TestRefinementMismatch(t *testing.T) {
	ctx := runPipeline(t, testutil.RefinementMismatch())
	if ctx.HasErrors() {
		t.Fatalf("unexpected errors: %v", ctx.Errors)
	}
	total := 0
	for _, m := range ctx.Modules {
		total += len(m.Obligations)
	}
	if total != 1 {
		t.Fatalf("want 1 obligation (whether it's valid is an external prover's call), got %d", total)
	}
}

func TestAmbiguousCoercion(t *testing.T) {
	ctx := runPipeline(t, testutil.AmbiguousCoercion())
	if !ctx.HasErrors() {
		t.Fatalf("expected an ambiguous-coercion diagnostic, got none")
	}
}
