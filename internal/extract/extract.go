// Package extract pulls question summaries out of assistant responses.
// Several platforms prepend a "질문 정리" (question recap) section to long
// answers; that section restates the user's question and is the most
// reliable question text when the user message itself is noisy or missing.
package extract

import (
	"regexp"
	"strings"
)

// Extractor produces a question summary from an assistant message. The
// empty string means no summary section was found.
type Extractor interface {
	Extract(assistantContent string) string
}

// Section start headings, tried in order. Platforms vary: numbered
// ("## 1. 질문 정리", escaped dot included), emoji-prefixed, or bare.
var startPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^##\s*1\\?\.\s*질문\s*정리`),
	regexp.MustCompile(`(?m)^##\s+🧐\s*질문\s*정리`),
	regexp.MustCompile(`(?m)^##\s+⚙️\s*질문\s*정리`),
	regexp.MustCompile(`(?m)^##\s*질문\s*정리`),
}

// Section terminators: the next ## heading, a "* * *" rule, or a "---"
// rule. The earliest match wins.
var endPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^##\s+`),
	regexp.MustCompile(`(?m)^\*\s*\*\s*\*\s*$`),
	regexp.MustCompile(`(?m)^---+\s*$`),
}

// Heuristic is the pattern-matching Extractor used by default. It is
// stateless and safe for concurrent use.
type Heuristic struct{}

// NewHeuristic returns the default extractor.
func NewHeuristic() Heuristic { return Heuristic{} }

// Extract returns the cleaned body of the question recap section, or ""
// when the content has none.
func (Heuristic) Extract(assistantContent string) string {
	if assistantContent == "" {
		return ""
	}

	bodyStart, ok := sectionStart(assistantContent)
	if !ok {
		return ""
	}

	remaining := assistantContent[bodyStart:]
	section := remaining[:sectionEnd(remaining)]

	return cleanSection(strings.TrimSpace(section))
}

// sectionStart returns the offset just past the recap heading line.
func sectionStart(content string) (int, bool) {
	for _, pattern := range startPatterns {
		loc := pattern.FindStringIndex(content)
		if loc == nil {
			continue
		}
		lineEnd := strings.IndexByte(content[loc[1]:], '\n')
		if lineEnd == -1 {
			return len(content), true
		}
		return loc[1] + lineEnd + 1, true
	}
	return 0, false
}

// sectionEnd returns the offset of the earliest terminator, or the end of
// the content when none appears.
func sectionEnd(content string) int {
	end := len(content)
	for _, pattern := range endPatterns {
		if loc := pattern.FindStringIndex(content); loc != nil && loc[0] < end {
			end = loc[0]
		}
	}
	return end
}

// cleanSection undoes markdown escapes, trims each line, and collapses
// blank-line runs so the summary compares cleanly across platforms.
func cleanSection(content string) string {
	if content == "" {
		return ""
	}

	replacer := strings.NewReplacer(`\*`, "*", `\-`, "-", `\[`, "[", `\]`, "]")
	content = replacer.Replace(content)

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	content = strings.Join(lines, "\n")

	for strings.Contains(content, "\n\n\n") {
		content = strings.ReplaceAll(content, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(content)
}
