package pipeline

import (
	"github.com/wyverify/wyverify/internal/flow"
	"github.com/wyverify/wyverify/internal/resolve"
	"github.com/wyverify/wyverify/internal/vcgen"
	"github.com/wyverify/wyverify/internal/version"
)

// ResolveProcessor is the pipeline's first stage (spec.md §5 ordering
// guarantee 2: "Name resolution completes on all units before flow
// analyses begin on any"). It wraps resolve.Pass as a Processor so
// Pipeline.Run can sequence it ahead of flow/version/vcgen stages.
type ResolveProcessor struct{}

func (ResolveProcessor) Process(ctx *PipelineContext) *PipelineContext {
	ctx.Resolved = resolve.Pass(ctx.Heap)
	ctx.AddErrors(ctx.Resolved.Diagnostics)
	return ctx
}

// FlowProcessor runs the flow-sensitive typing & checks pass (§4.4)
// once resolution has succeeded. Per PipelineContext's short-circuit
// contract, a resolution failure leaves Resolved's later-stage-facing
// fields in an unreliable state, so this stage skips rather than risks
// type-checking against a partial namespace.
type FlowProcessor struct{}

func (FlowProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.HasErrors() || ctx.Resolved == nil {
		return ctx
	}
	result := flow.Pass(ctx.Heap, ctx.Resolved)
	ctx.AddErrors(result.Diagnostics)
	return ctx
}

// VersionProcessor runs variable versioning (§4.5) once flow checking
// has produced no hard errors — a callable with, say, a possibly-
// uninitialised variable has no well-defined SSA numbering to compute.
type VersionProcessor struct{}

func (VersionProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.HasErrors() || ctx.Resolved == nil {
		return ctx
	}
	ctx.Versions = version.Pass(ctx.Heap, ctx.Resolved)
	return ctx
}

// VCGenProcessor is the pipeline's final stage: it lowers every
// callable's pre/post-conditions and body into verification
// obligations (§4.6), only once every earlier stage succeeded.
type VCGenProcessor struct{}

func (VCGenProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.HasErrors() || ctx.Resolved == nil || ctx.Versions == nil {
		return ctx
	}
	ctx.Modules = vcgen.Generate(ctx.Heap, ctx.Resolved, ctx.Versions)
	return ctx
}
