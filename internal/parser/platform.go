package parser

import (
	"fmt"
	"path/filepath"
	"regexp"

	"chatweave/internal/ir"
)

// Filename prefixes like "chatgpt_20251129T114242.jsonl" identify the
// exporting platform when metadata does not.
var filenamePatterns = map[ir.Platform]*regexp.Regexp{
	ir.PlatformChatGPT: regexp.MustCompile(`(?i)^chatgpt[_-]`),
	ir.PlatformClaude:  regexp.MustCompile(`(?i)^claude[_-]`),
	ir.PlatformGemini:  regexp.MustCompile(`(?i)^gemini[_-]`),
	ir.PlatformGrok:    regexp.MustCompile(`(?i)^grok[_-]`),
}

// PlatformFromFilename infers the platform from the file's base name, or
// "" when no prefix matches.
func PlatformFromFilename(name string) ir.Platform {
	for platform, pattern := range filenamePatterns {
		if pattern.MatchString(name) {
			return platform
		}
	}
	return ""
}

// InferPlatform resolves the platform for an export with the priority
// override > metadata "platform" field > filename prefix.
func InferPlatform(path string, meta map[string]any, override ir.Platform) (ir.Platform, error) {
	if override != "" {
		if !override.Valid() {
			return "", fmt.Errorf("unknown platform override %q", override)
		}
		return override, nil
	}

	if meta != nil {
		if v, ok := meta["platform"].(string); ok {
			if p := ir.Platform(v); p.Valid() {
				return p, nil
			}
		}
	}

	if p := PlatformFromFilename(filepath.Base(path)); p != "" {
		return p, nil
	}

	return "", fmt.Errorf(
		"cannot infer platform for %q: add \"platform\" to the metadata line, "+
			"rename the file to chatgpt_*.jsonl / claude_*.jsonl / gemini_*.jsonl / grok_*.jsonl, "+
			"or pass --platform", filepath.Base(path))
}
