package normalize

import "golang.org/x/text/unicode/norm"

// UnicodeNormalization composes the text into NFC so that visually
// identical characters hash identically regardless of how the exporting
// platform encoded them.
type UnicodeNormalization struct {
	alwaysRuns
}

func (UnicodeNormalization) Name() string { return "UnicodeNormalization" }

func (UnicodeNormalization) Action(text string, _ *Context) string {
	return norm.NFC.String(text)
}

func (UnicodeNormalization) PostCondition(text string, _ *Context) bool {
	return norm.NFC.IsNormalString(text)
}
