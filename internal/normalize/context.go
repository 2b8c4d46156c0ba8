package normalize

import "fmt"

// placeholderPrefix is the NUL-delimited marker used to stand in for
// extracted code blocks while other passes rewrite the text. NUL bytes never
// appear in decoded chat exports, so the token cannot collide with input.
const placeholderPrefix = "\x00CODE_BLOCK_"

// Context carries state shared between passes during a single normalization
// run. CodeBlocks is append-only during protection and read-only during
// restoration; index i corresponds to Placeholder(i).
//
// A Context belongs to exactly one run. Callers normalizing texts
// concurrently must give each run its own Context.
type Context struct {
	CodeBlocks []string
}

// NewContext returns an empty context for one normalization run.
func NewContext() *Context {
	return &Context{}
}

// Placeholder returns the token that stands in for code block i.
func (c *Context) Placeholder(i int) string {
	return fmt.Sprintf("%s%d\x00", placeholderPrefix, i)
}

// StashCodeBlock records a code block verbatim and returns its placeholder.
func (c *Context) StashCodeBlock(block string) string {
	c.CodeBlocks = append(c.CodeBlocks, block)
	return c.Placeholder(len(c.CodeBlocks) - 1)
}
