package pipeline

// Pipeline represents a sequence of processing stages: Resolve, Flow,
// Version, VCGen.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
		// Every processor is called even after a stage reports errors;
		// each stage after Resolve checks ctx.HasErrors() itself and
		// returns the context unchanged once an error is recorded.
	}
	return ctx
}
