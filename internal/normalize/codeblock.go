package normalize

import (
	"regexp"
	"strings"
)

var (
	// A run of 4+ backticks at line start is a common LLM formatting
	// glitch; it always means a fence.
	extraBackticksRe = regexp.MustCompile("(?m)^`{4,}")

	// Non-greedy so the first closing fence ends the block.
	fencedBlockRe = regexp.MustCompile("(?s)```[^\n]*\n.*?```")

	inlineCodeRe = regexp.MustCompile("`[^`\n]+`")
)

// CodeBlockProtection extracts fenced blocks and inline code spans into the
// context and replaces them with placeholders. Must run first so later
// passes never rewrite code content.
type CodeBlockProtection struct{}

func (CodeBlockProtection) Name() string { return "CodeBlockProtection" }

func (CodeBlockProtection) PreCondition(text string, _ *Context) bool {
	return strings.Contains(text, "`")
}

func (CodeBlockProtection) Action(text string, ctx *Context) string {
	text = extraBackticksRe.ReplaceAllString(text, "```")

	// Fenced blocks before inline spans, so inline-looking patterns inside
	// a fence are not captured separately.
	text = fencedBlockRe.ReplaceAllStringFunc(text, ctx.StashCodeBlock)
	text = inlineCodeRe.ReplaceAllStringFunc(text, ctx.StashCodeBlock)

	return text
}

func (CodeBlockProtection) PostCondition(text string, ctx *Context) bool {
	// Every original fence must have been captured: after removing the
	// known placeholders from a scratch copy, no triple backtick remains.
	scratch := text
	for i := range ctx.CodeBlocks {
		scratch = strings.ReplaceAll(scratch, ctx.Placeholder(i), "")
	}
	return !strings.Contains(scratch, "```")
}

// CodeBlockRestoration replaces placeholders with the original code block
// content, byte for byte. Must run last.
type CodeBlockRestoration struct{}

func (CodeBlockRestoration) Name() string { return "CodeBlockRestoration" }

func (CodeBlockRestoration) PreCondition(_ string, ctx *Context) bool {
	return len(ctx.CodeBlocks) > 0
}

func (CodeBlockRestoration) Action(text string, ctx *Context) string {
	for i, block := range ctx.CodeBlocks {
		text = strings.ReplaceAll(text, ctx.Placeholder(i), block)
	}
	return text
}

func (CodeBlockRestoration) PostCondition(text string, _ *Context) bool {
	return !strings.Contains(text, placeholderPrefix)
}
