package normalize

import (
	"regexp"
	"strings"
)

var (
	indentedRowRe      = regexp.MustCompile(`\n +\|`)
	indentedFirstRowRe = regexp.MustCompile(`^ +\|`)
	blankBetweenRowsRe = regexp.MustCompile(`(\|)\n\n+(\|)`)
	textThenRowRe      = regexp.MustCompile(`([^|\n])\n\|`)

	// A row followed by a line whose first non-space character is not a
	// pipe: the table ends there and needs a separating blank line.
	rowThenTextRe = regexp.MustCompile(`\|\n *[^ \n|]`)
)

// TableStructure renders tables flush to the root level with contiguous
// rows and exactly one blank line separating them from surrounding prose.
type TableStructure struct{}

func (TableStructure) Name() string { return "TableStructure" }

func (TableStructure) PreCondition(text string, _ *Context) bool {
	return strings.Contains(text, "|")
}

func (TableStructure) Action(text string, _ *Context) string {
	// Tables always live at the root regardless of list nesting.
	text = indentedRowRe.ReplaceAllString(text, "\n|")
	text = indentedFirstRowRe.ReplaceAllString(text, "|")

	// Rows must be contiguous.
	for {
		next := blankBetweenRowsRe.ReplaceAllString(text, "${1}\n${2}")
		if next == text {
			break
		}
		text = next
	}

	// One blank line before the first row.
	text = textThenRowRe.ReplaceAllString(text, "${1}\n\n|")

	// One blank line after the last row.
	text = rowThenTextRe.ReplaceAllStringFunc(text, func(m string) string {
		return "|\n\n" + m[2:]
	})

	return text
}

func (TableStructure) PostCondition(text string, _ *Context) bool {
	return !indentedRowRe.MatchString(text)
}
