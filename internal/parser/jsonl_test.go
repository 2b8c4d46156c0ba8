package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExport(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadJSONL(t *testing.T) {
	path := writeExport(t, "chatgpt_test.jsonl",
		`{"_meta": true, "platform": "chatgpt", "url": "https://chatgpt.com/c/abc"}`,
		`{"role": "user", "content": "hello", "timestamp": "2025-11-29T11:42:42Z"}`,
		``,
		`{"_artifact": true, "title": "plan.md", "content": "# Plan", "version": 2}`,
		`{"role": "assistant", "content": "hi"}`,
	)

	export, err := LoadJSONL(path)
	require.NoError(t, err)

	assert.Equal(t, "chatgpt", export.Meta["platform"])
	assert.NotContains(t, export.Meta, "_meta")

	require.Len(t, export.Messages, 2)
	assert.Equal(t, "hello", export.Messages[0]["content"])
	assert.Equal(t, "assistant", export.Messages[1]["role"])

	require.Len(t, export.Artifacts, 1)
	assert.Equal(t, "plan.md", export.Artifacts[0]["title"])
	assert.NotContains(t, export.Artifacts[0], "_artifact")
}

func TestLoadJSONLFirstLineMustBeMeta(t *testing.T) {
	path := writeExport(t, "claude_bad.jsonl",
		`{"role": "user", "content": "hello"}`,
	)

	_, err := LoadJSONL(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"_meta": true`)
}

func TestLoadJSONLInvalidJSONReportsLine(t *testing.T) {
	path := writeExport(t, "claude_broken.jsonl",
		`{"_meta": true, "platform": "claude"}`,
		`{"role": "user", "content": "ok"}`,
		`{not json`,
	)

	_, err := LoadJSONL(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestLoadJSONLMissingRoleReportsLine(t *testing.T) {
	path := writeExport(t, "gemini_x.jsonl",
		`{"_meta": true, "platform": "gemini"}`,
		`{"content": "no role here"}`,
	)

	_, err := LoadJSONL(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "role")
}

func TestLoadJSONLMissingContentReportsLine(t *testing.T) {
	path := writeExport(t, "gemini_y.jsonl",
		`{"_meta": true, "platform": "gemini"}`,
		`{"role": "user"}`,
	)

	_, err := LoadJSONL(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content")
}

func TestLoadJSONLMissingFile(t *testing.T) {
	_, err := LoadJSONL(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.Error(t, err)
}
