package normalize

import (
	"regexp"
	"strings"
)

// A newline, 1-3 spaces, then a character that is not a dash and not
// whitespace is a soft line wrap. A 4-space indent is a genuine sub-item
// and must never be merged, which is why this pass runs after sub-item
// indentation canonicalization and before whitespace collapse.
var continuationRe = regexp.MustCompile(`([^\n])\n {1,3}([^-\s])`)

// LineContinuation merges soft-wrapped lines back into their parent line
// with a single separating space. Breaks at paragraph boundaries (after a
// blank line) are left alone.
type LineContinuation struct {
	alwaysRuns
	noInvariant
}

func (LineContinuation) Name() string { return "LineContinuation" }

func (LineContinuation) Action(text string, _ *Context) string {
	return continuationRe.ReplaceAllString(text, "$1 $2")
}

var (
	multiSpaceRe   = regexp.MustCompile(`(\S)  +`)
	wsOnlyLineRe   = regexp.MustCompile("\n[ \t]+\n")
	multiNewlineRe = regexp.MustCompile(`\n{3,}`)
	numberedLeadRe = regexp.MustCompile(`^\d+\.`)
)

// Whitespace collapses space runs, stray leading indentation,
// whitespace-only lines, and excess blank lines, then trims the text.
type Whitespace struct {
	alwaysRuns
}

func (Whitespace) Name() string { return "Whitespace" }

func (Whitespace) Action(text string, _ *Context) string {
	// Space runs after non-whitespace collapse to one; line-leading
	// indentation is untouched here.
	text = multiSpaceRe.ReplaceAllString(text, "$1 ")

	text = collapseLeadingIndent(text)

	// Whitespace-only lines disappear outright.
	for {
		next := wsOnlyLineRe.ReplaceAllString(text, "\n")
		if next == text {
			break
		}
		text = next
	}

	text = multiNewlineRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

func (Whitespace) PostCondition(text string, _ *Context) bool {
	return !strings.Contains(text, "\n\n\n")
}

// collapseLeadingIndent reduces stray leading spaces on lines that carry no
// list, table, or code-block marker. After a blank line any 2+ spaces
// collapse to one; elsewhere only 4+ spaces collapse, because 1-3 space
// leads belong to the continuation pass.
func collapseLeadingIndent(text string) string {
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		n := countLeadingSpaces(lines[i])
		if n == 0 {
			continue
		}
		rest := lines[i][n:]
		if rest == "" {
			continue
		}
		switch rest[0] {
		case '-', '|', '\t', 0x00:
			continue
		}
		if numberedLeadRe.MatchString(rest) {
			continue
		}
		if i >= 2 && lines[i-1] == "" {
			if n >= 2 {
				lines[i] = " " + rest
			}
		} else if n >= 4 {
			lines[i] = " " + rest
		}
	}
	return strings.Join(lines, "\n")
}
