package normalize

import (
	"regexp"
	"strings"
)

var (
	// Heading lines frequently carry numbered-section escaping like "1\."
	// that should read as "1.". The same escapes elsewhere are left alone.
	headingEscDotRe  = regexp.MustCompile(`(?m)^(#{1,6}[^\n]*?)\\\.`)
	headingEscLBrkRe = regexp.MustCompile(`(?m)^(#{1,6}[^\n]*?)\\\[`)
	headingEscRBrkRe = regexp.MustCompile(`(?m)^(#{1,6}[^\n]*?)\\\]`)
)

const (
	leftSmartQuote  = "“"
	rightSmartQuote = "”"
)

// EscapeSequence undoes upstream markdown escaping: mangled bold markers,
// smart quotes, and escaped punctuation inside headings.
type EscapeSequence struct {
	alwaysRuns
}

func (EscapeSequence) Name() string { return "EscapeSequence" }

func (EscapeSequence) Action(text string, _ *Context) string {
	text = strings.ReplaceAll(text, `\*\*`, "**")

	text = strings.ReplaceAll(text, leftSmartQuote, `"`)
	text = strings.ReplaceAll(text, rightSmartQuote, `"`)

	text = headingEscDotRe.ReplaceAllString(text, "${1}.")
	text = headingEscLBrkRe.ReplaceAllString(text, "${1}[")
	text = headingEscRBrkRe.ReplaceAllString(text, "${1}]")

	return text
}

func (EscapeSequence) PostCondition(text string, _ *Context) bool {
	return !strings.Contains(text, leftSmartQuote) && !strings.Contains(text, rightSmartQuote)
}
