package flow_test

import (
	"testing"

	"github.com/wyverify/wyverify/internal/diagnostics"
	"github.com/wyverify/wyverify/internal/flow"
	"github.com/wyverify/wyverify/internal/heap"
	"github.com/wyverify/wyverify/internal/opcode"
	"github.com/wyverify/wyverify/internal/resolve"
	"github.com/wyverify/wyverify/internal/testutil"
)

func runFlow(t *testing.T, h *heap.Heap) *flow.Result {
	t.Helper()
	resolved := resolve.Pass(h)
	if len(resolved.Diagnostics) > 0 {
		t.Fatalf("unexpected resolution errors: %v", resolved.Diagnostics)
	}
	return flow.Pass(h, resolved)
}

func expectCode(t *testing.T, result *flow.Result, code diagnostics.ErrorCode) {
	t.Helper()
	for _, d := range result.Diagnostics {
		if d.Code == code {
			return
		}
	}
	t.Fatalf("expected diagnostic %s, got: %v", code, result.Diagnostics)
}

func expectNoDiagnostics(t *testing.T, result *flow.Result) {
	t.Helper()
	if len(result.Diagnostics) > 0 {
		t.Fatalf("expected no diagnostics, got: %v", result.Diagnostics)
	}
}

func TestIdentityFunctionHasNoDiagnostics(t *testing.T) {
	s := testutil.IdentityFunction()
	expectNoDiagnostics(t, runFlow(t, s.Heap))
}

func TestAbsoluteValueHasNoDiagnostics(t *testing.T) {
	s := testutil.AbsoluteValue()
	expectNoDiagnostics(t, runFlow(t, s.Heap))
}

func TestAmbiguousCoercionReportsCode408(t *testing.T) {
	s := testutil.AmbiguousCoercion()
	result := runFlow(t, s.Heap)
	expectCode(t, result, diagnostics.ErrAmbiguousCoercion)
}

func TestCyclicStaticInitialiserReportsCode509(t *testing.T) {
	s := testutil.CyclicStaticInitialisers()
	result := runFlow(t, s.Heap)
	expectCode(t, result, diagnostics.ErrCyclicStaticInitialiser)
}

func TestLoopInvariantPreservedHasNoDiagnostics(t *testing.T) {
	s := testutil.LoopInvariantPreserved()
	expectNoDiagnostics(t, runFlow(t, s.Heap))
}

// TestVariablePossiblyUninitialised builds a function that declares a
// local without an initializer and returns it unconditionally.
func TestVariablePossiblyUninitialised(t *testing.T) {
	b := testutil.NewBuilder()
	intT := b.TypeInt()
	paramIdxs := b.Params(nil)
	returnIdxs := b.Params([]testutil.Param{{Name: "y", Type: intT}})

	localDecl := b.VariableDecl(0, "z", intT)
	body := b.Block(b.VarDeclStmt(localDecl), b.Return(b.VarAccessCopy(intT, localDecl)))
	fnDecl := b.FunctionDecl(0, "f", paramIdxs, returnIdxs, nil, nil, body)
	unit := b.UnitDecl("main", fnDecl)
	b.Module("m", unit)

	result := runFlow(t, b.H)
	expectCode(t, result, diagnostics.ErrVariablePossiblyUninitialised)
}

// TestFinalVariableReassigned builds a function that assigns to a
// `final` local twice.
func TestFinalVariableReassigned(t *testing.T) {
	b := testutil.NewBuilder()
	intT := b.TypeInt()
	paramIdxs := b.Params(nil)
	returnIdxs := b.Params([]testutil.Param{{Name: "y", Type: intT}})

	localDecl := b.VariableInitDecl(opcode.ModifierFinal, "z", intT, b.IntConst(0))
	reassign := b.Assign([]heap.Index{b.VarAccessCopy(intT, localDecl)}, []heap.Index{b.IntConst(1)})
	body := b.Block(b.VarDeclStmt(localDecl), reassign, b.Return(b.VarAccessCopy(intT, localDecl)))
	fnDecl := b.FunctionDecl(0, "f", paramIdxs, returnIdxs, nil, nil, body)
	unit := b.UnitDecl("main", fnDecl)
	b.Module("m", unit)

	result := runFlow(t, b.H)
	expectCode(t, result, diagnostics.ErrFinalVariableReassigned)
}
