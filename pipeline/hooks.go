package pipeline

import "context"

// Hooks are optional lifecycle callbacks invoked around a run, a level,
// and each step, per spec §4.2. Any hook may suspend (perform I/O,
// sleep); none may mutate the Definition, though all may mutate the
// shared Context. A nil field is simply skipped.
type Hooks struct {
	BeforePipeline func(ctx context.Context, c *Context)
	BeforeLevel    func(ctx context.Context, level []Token, c *Context)
	BeforeStep     func(ctx context.Context, token Token, c *Context)
	AfterStep      func(ctx context.Context, token Token, c *Context)
	OnStepError    func(ctx context.Context, token Token, err error, c *Context)
	AfterLevel     func(ctx context.Context, level []Token, c *Context)
	AfterPipeline  func(ctx context.Context, res *Result)
}

func (h Hooks) beforePipeline(ctx context.Context, c *Context) {
	if h.BeforePipeline != nil {
		h.BeforePipeline(ctx, c)
	}
}

func (h Hooks) beforeLevel(ctx context.Context, level []Token, c *Context) {
	if h.BeforeLevel != nil {
		h.BeforeLevel(ctx, level, c)
	}
}

func (h Hooks) beforeStep(ctx context.Context, token Token, c *Context) {
	if h.BeforeStep != nil {
		h.BeforeStep(ctx, token, c)
	}
}

func (h Hooks) afterStep(ctx context.Context, token Token, c *Context) {
	if h.AfterStep != nil {
		h.AfterStep(ctx, token, c)
	}
}

func (h Hooks) onStepError(ctx context.Context, token Token, err error, c *Context) {
	if h.OnStepError != nil {
		h.OnStepError(ctx, token, err, c)
	}
}

func (h Hooks) afterLevel(ctx context.Context, level []Token, c *Context) {
	if h.AfterLevel != nil {
		h.AfterLevel(ctx, level, c)
	}
}

func (h Hooks) afterPipeline(ctx context.Context, res *Result) {
	if h.AfterPipeline != nil {
		h.AfterPipeline(ctx, res)
	}
}
