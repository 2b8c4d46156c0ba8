package normalize

import "regexp"

// Platform-specific cleaners strip UI artifacts that the web exporters
// capture alongside the actual assistant response. They run before the
// generic pipeline, only on assistant-authored text, and are no-ops when
// the trigger text is absent.

var (
	// Gemini exports from the Korean UI carry a "thinking process" banner,
	// table/code tool labels, and a trailing source marker.
	geminiThinkingRe = regexp.MustCompile(`^생각하는 과정 표시\s*\n+`)
	geminiSheetsRe   = regexp.MustCompile(`\n+Sheets로 내보내기\s*\n*`)
	geminiSnippetRe  = regexp.MustCompile(`\n*코드 스니펫\s*\n+`)
	geminiSourceRe   = regexp.MustCompile(`\n+소스\s*$`)
)

// CleanGeminiAssistant removes Gemini export artifacts: the leading
// thinking-process banner, "export to Sheets" lines after tables, "code
// snippet" labels before fenced blocks, and the trailing source marker.
func CleanGeminiAssistant(text string) string {
	if text == "" {
		return text
	}
	text = geminiThinkingRe.ReplaceAllString(text, "")
	text = geminiSheetsRe.ReplaceAllString(text, "\n")
	text = geminiSnippetRe.ReplaceAllString(text, "\n\n")
	text = geminiSourceRe.ReplaceAllString(text, "")
	return text
}

var (
	// "27s동안 생각함" style thinking-time indicator at the very start.
	grokThinkingRe = regexp.MustCompile(`^\d+s동안 생각함\s*\n+`)

	// Trailing citation footer: favicon image links, an optional 𝕏 post
	// count, more image links, and a final "N web pages" summary line.
	grokFooterRe = regexp.MustCompile(`(\n*!\[\]\([^)]+\)\s*)+(\n*𝕏 게시물[^\n]*)?(\n*!\[\]\([^)]+\)\s*)*\n*\d+개의 웹페이지[^\n]*\n?$`)
)

// CleanGrokAssistant removes Grok export artifacts: the leading
// thinking-time line and the trailing favicon/web-page-count footer.
func CleanGrokAssistant(text string) string {
	if text == "" {
		return text
	}
	text = grokThinkingRe.ReplaceAllString(text, "")
	text = grokFooterRe.ReplaceAllString(text, "")
	return text
}
