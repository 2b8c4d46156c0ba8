// Package normalize cleans raw markdown-ish LLM output into a canonical form
// suitable for hashing and cross-platform comparison.
//
// The engine is a fixed, ordered pipeline of transformation passes modeled on
// a compiler pass manager: each pass is applied repeatedly until its output
// stabilizes (a fixed point), then the next pass runs. Code block content is
// protected by the first pass and restored verbatim by the last, so no
// intermediate rewrite ever touches it.
package normalize

import (
	"fmt"

	"go.uber.org/zap"
)

// Pass is a single named transformation step in the pipeline.
//
// Action must be a pure function of (text, ctx) apart from context mutation:
// applying it twice to already-stable text must return the text unchanged.
// The runner relies on this to detect convergence.
type Pass interface {
	// Name identifies the pass in logs and errors.
	Name() string

	// PreCondition is a cheap filter; when false the pass is skipped
	// entirely, post-condition included.
	PreCondition(text string, ctx *Context) bool

	// Action transforms the text. It may mutate ctx.
	Action(text string, ctx *Context) string

	// PostCondition checks the invariant the pass guarantees. Only
	// evaluated in strict mode.
	PostCondition(text string, ctx *Context) bool
}

// alwaysRuns provides the default PreCondition for passes with no cheap
// skip check.
type alwaysRuns struct{}

func (alwaysRuns) PreCondition(string, *Context) bool { return true }

// noInvariant provides the default PostCondition for passes with no
// verifiable guarantee.
type noInvariant struct{}

func (noInvariant) PostCondition(string, *Context) bool { return true }

// PostConditionError reports a pass whose output violates its own stated
// guarantee. Only raised in strict mode.
type PostConditionError struct {
	Pass    string
	Message string
	Sample  string // first ~200 chars of the offending text
}

func (e *PostConditionError) Error() string {
	return fmt.Sprintf("pass %q post-condition failed: %s", e.Pass, e.Message)
}

const (
	// DefaultMaxIterations caps the per-pass convergence loop. It is a
	// safety valve against a pass that never reaches a fixed point, not a
	// correctness guarantee.
	DefaultMaxIterations = 100

	sampleLimit = 200
)

// RunnerConfig controls pipeline execution policy.
type RunnerConfig struct {
	// Strict makes post-condition failures and non-convergence errors
	// instead of best-effort results. Intended for development and tests.
	Strict bool

	// MaxIterations overrides the per-pass convergence cap. Zero or
	// negative means DefaultMaxIterations.
	MaxIterations int

	// Logger receives non-convergence warnings. Nil means no logging.
	Logger *zap.Logger
}

// Runner sequences passes and drives each one to convergence. Pass order is
// fixed and load-bearing: protection first, restoration last, line
// continuation before whitespace collapse.
type Runner struct {
	passes  []Pass
	strict  bool
	maxIter int
	log     *zap.Logger
}

// NewRunner builds a runner over the given passes.
func NewRunner(passes []Pass, cfg RunnerConfig) *Runner {
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{passes: passes, strict: cfg.Strict, maxIter: maxIter, log: log}
}

// Run applies every pass in order, each to convergence, and returns the
// final text. The context persists across passes within this run and must
// not be reused for another run.
func (r *Runner) Run(text string, ctx *Context) (string, error) {
	if ctx == nil {
		ctx = NewContext()
	}

	for _, p := range r.passes {
		if !p.PreCondition(text, ctx) {
			continue
		}

		converged := false
		for i := 0; i < r.maxIter; i++ {
			next := p.Action(text, ctx)
			if next == text {
				converged = true
				break
			}
			text = next
		}
		if !converged {
			r.log.Warn("pass did not converge, result truncated at iteration cap",
				zap.String("pass", p.Name()),
				zap.Int("max_iterations", r.maxIter))
			if r.strict {
				return "", fmt.Errorf("pass %q did not converge within %d iterations", p.Name(), r.maxIter)
			}
		}

		if r.strict && !p.PostCondition(text, ctx) {
			return "", &PostConditionError{
				Pass:    p.Name(),
				Message: "post-condition check failed",
				Sample:  sample(text),
			}
		}
	}

	return text, nil
}

func sample(text string) string {
	if len(text) > sampleLimit {
		return text[:sampleLimit]
	}
	return text
}
