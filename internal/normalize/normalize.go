package normalize

import "go.uber.org/zap"

// DefaultPasses returns the full pipeline in its fixed order. Protection
// must come first and restoration last; line continuation must precede
// whitespace collapse so canonical 4-space sub-item indents survive.
func DefaultPasses() []Pass {
	return []Pass{
		CodeBlockProtection{},
		UnicodeNormalization{},
		ListStructure{},
		TableStructure{},
		LineContinuation{},
		Whitespace{},
		EscapeSequence{},
		CodeBlockRestoration{},
	}
}

// Options configures a Normalizer.
type Options struct {
	// Strict surfaces post-condition violations and non-convergence as
	// errors. Off by default; meant for development and tests.
	Strict bool

	// MaxIterations caps each pass's convergence loop. Zero means
	// DefaultMaxIterations.
	MaxIterations int

	// Logger receives non-convergence warnings.
	Logger *zap.Logger
}

// Normalizer is the single entry point: it cleans raw message text into the
// canonical form used for hashing and cross-platform question matching.
// Safe for concurrent use; every call runs with a fresh Context.
type Normalizer struct {
	runner *Runner
}

// New builds a Normalizer over the default pass pipeline.
func New(opts Options) *Normalizer {
	return &Normalizer{
		runner: NewRunner(DefaultPasses(), RunnerConfig{
			Strict:        opts.Strict,
			MaxIterations: opts.MaxIterations,
			Logger:        opts.Logger,
		}),
	}
}

// Normalize runs the pipeline over text. Empty input short-circuits
// unchanged without invoking any pass.
func (n *Normalizer) Normalize(text string) (string, error) {
	if text == "" {
		return text, nil
	}
	return n.runner.Run(text, NewContext())
}
