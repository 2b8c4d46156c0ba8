package normalize

import (
	"regexp"
	"strings"
)

var (
	digitDotRe       = regexp.MustCompile(`\d+\.`)
	headingLineRe    = regexp.MustCompile(`^#{1,6} `)
	indentedDashRe   = regexp.MustCompile(`^ {4,}- `)
	blockquoteDashRe = regexp.MustCompile(`(?m)^> - `)
	doubleDashRe     = regexp.MustCompile(`(?m)^(\s*)- - `)

	// Trailing newline is consumed and re-emitted, so chains of empty
	// items resolve over the convergence loop.
	emptyListItemRe = regexp.MustCompile(`\n *-[ \t]*\n`)

	// 1-3 spaces before a list marker or code placeholder canonicalize to
	// a 4-space sub-item indent.
	shallowMarkerRe = regexp.MustCompile("\n {1,3}(-|\\d+\\.|\x00)")

	dashColonItemRe = regexp.MustCompile(`^- .+:$`)
	numberedItemRe  = regexp.MustCompile(`^\d+\. `)

	// A numbered item immediately followed (blank lines allowed) by a
	// root-level dash means the dash block still needs promotion.
	numberedThenDashRe = regexp.MustCompile(`(?m)^\d+\. [^\n]*\n+-`)

	anyDoubleDashRe = regexp.MustCompile(`(?m)^\s*- - `)
)

// ListStructure bundles the structural list rewrites: dedenting list blocks
// that follow headings or colon-terminated text, collapsing redundant dash
// markers, deleting empty items, canonicalizing sub-item indentation, and
// promoting items into sub-items after colon-terminated dashes or numbered
// items.
type ListStructure struct{}

func (ListStructure) Name() string { return "ListStructure" }

func (ListStructure) PreCondition(text string, _ *Context) bool {
	return strings.Contains(text, "-") || digitDotRe.MatchString(text)
}

func (ListStructure) Action(text string, _ *Context) string {
	text = dedentListAfterHeading(text)
	text = dedentListAfterColonText(text)
	text = blockquoteDashRe.ReplaceAllString(text, "> ")
	text = doubleDashRe.ReplaceAllString(text, "${1}- ")
	text = emptyListItemRe.ReplaceAllString(text, "\n")
	text = shallowMarkerRe.ReplaceAllString(text, "\n    $1")
	text = indentNumberedAfterDashColon(text)
	text = indentDashBlockAfterNumbered(text)
	return text
}

func (ListStructure) PostCondition(text string, _ *Context) bool {
	return !anyDoubleDashRe.MatchString(text)
}

func countLeadingSpaces(line string) int {
	n := 0
	for n < len(line) && line[n] == ' ' {
		n++
	}
	return n
}

// dedentIndentedList removes the base indentation from a contiguous
// indented list block whose preceding line satisfies trigger. The heading
// variant inserts a blank line between the trigger and the block.
func dedentIndentedList(text string, trigger func(string) bool, blankAfterTrigger bool) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	i := 0
	for i < len(lines) {
		line := lines[i]
		out = append(out, line)
		if trigger(line) {
			j := i + 1
			if j < len(lines) && indentedDashRe.MatchString(lines[j]) {
				if blankAfterTrigger {
					out = append(out, "")
				}
				base := countLeadingSpaces(lines[j])
				for j < len(lines) {
					cur := lines[j]
					if strings.TrimSpace(cur) == "" {
						out = append(out, "")
						j++
						continue
					}
					if countLeadingSpaces(cur) >= base {
						out = append(out, cur[base:])
						j++
						continue
					}
					break
				}
				i = j
				continue
			}
		}
		i++
	}
	return strings.Join(out, "\n")
}

func dedentListAfterHeading(text string) string {
	return dedentIndentedList(text, func(line string) bool {
		return headingLineRe.MatchString(line)
	}, true)
}

func dedentListAfterColonText(text string) string {
	return dedentIndentedList(text, func(line string) bool {
		trimmed := strings.TrimSpace(line)
		return strings.HasSuffix(trimmed, ":") &&
			!strings.HasPrefix(trimmed, "#") &&
			!strings.HasPrefix(trimmed, "-")
	}, false)
}

// indentNumberedAfterDashColon turns root-level numbered items that follow
// a colon-terminated dash item into 4-space sub-items.
func indentNumberedAfterDashColon(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	i := 0
	for i < len(lines) {
		line := lines[i]
		out = append(out, line)
		if dashColonItemRe.MatchString(line) {
			j := i + 1
			for j < len(lines) && numberedItemRe.MatchString(lines[j]) {
				out = append(out, "    "+lines[j])
				j++
			}
			if j > i+1 {
				i = j
				continue
			}
		}
		i++
	}
	return strings.Join(out, "\n")
}

// indentDashBlockAfterNumbered promotes root-level dash blocks that follow
// a numbered item into its sub-items: root dashes gain a 4-space indent,
// dashes already at 4 spaces shift to 8. The numbered-item pattern requires
// a space after the dot, so "5-1.item" is not mistaken for item "1.".
func indentDashBlockAfterNumbered(text string) string {
	// Short-circuit when already normalized: no numbered item is
	// immediately followed by a root-level dash.
	if !numberedThenDashRe.MatchString(text) {
		return text
	}

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	i := 0
	for i < len(lines) {
		line := lines[i]
		out = append(out, line)
		if !numberedItemRe.MatchString(line) {
			i++
			continue
		}

		// The block runs to the next numbered item or end of text.
		j := i + 1
		for j < len(lines) && !numberedItemRe.MatchString(lines[j]) {
			j++
		}
		block := lines[i+1 : j]
		if strings.Contains(strings.Join(block, "\n"), "-") {
			block = promoteDashLines(block)
			block = dropLeadingEmpty(block)
			block = collapseEmptyBeforeDash(block)
		}
		out = append(out, block...)
		i = j
	}
	return strings.Join(out, "\n")
}

func promoteDashLines(block []string) []string {
	out := make([]string, len(block))
	for i, line := range block {
		if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "    -") {
			out[i] = "    " + line
		} else {
			out[i] = line
		}
	}
	return out
}

func dropLeadingEmpty(block []string) []string {
	i := 0
	for i < len(block) && block[i] == "" {
		i++
	}
	return block[i:]
}

// collapseEmptyBeforeDash removes runs of empty lines whose next line is a
// dash item, keeping the block contiguous.
func collapseEmptyBeforeDash(block []string) []string {
	out := make([]string, 0, len(block))
	for i := 0; i < len(block); i++ {
		if block[i] == "" {
			j := i
			for j < len(block) && block[j] == "" {
				j++
			}
			if j < len(block) && strings.HasPrefix(strings.TrimLeft(block[j], " \t"), "-") {
				i = j - 1
				continue
			}
		}
		out = append(out, block[i])
	}
	return out
}
