package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chatweave/internal/config"
	"chatweave/internal/ir"
)

// setupBuild resets the package globals and build flags that buildOnce
// reads, returning the output directory for the run.
func setupBuild(t *testing.T) string {
	t.Helper()
	cfg = config.DefaultConfig()
	logger = zap.NewNop()

	buildWorkDir = t.TempDir()
	buildStep = "session"
	buildSessionID = ""
	buildStrict = false
	buildDryRun = false

	return filepath.Join(t.TempDir(), "out")
}

func writeExport(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeSessionDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "session-a")
	require.NoError(t, os.Mkdir(dir, 0o755))

	writeExport(t, dir, "chatgpt_export.jsonl",
		`{"_meta": true, "platform": "chatgpt", "url": "https://chatgpt.com/c/abc123"}`,
		`{"role": "user", "content": "Go에서 고루틴이란?", "timestamp": "2025-01-01T10:00:00Z"}`,
		`{"role": "assistant", "content": "고루틴은 경량 스레드입니다.", "timestamp": "2025-01-01T10:00:05Z"}`)
	writeExport(t, dir, "claude_export.jsonl",
		`{"_meta": true}`,
		`{"role": "user", "content": "Go에서 고루틴이란?", "timestamp": "2025-01-01T10:01:00Z"}`,
		`{"role": "assistant", "content": "런타임이 스케줄링하는 함수입니다.", "timestamp": "2025-01-01T10:01:05Z"}`)
	return dir
}

func TestCollectInputsDirectory(t *testing.T) {
	dir := writeSessionDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	files, inputType, inputPath, err := collectInputs([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, "directory", inputType)
	assert.Equal(t, dir, inputPath)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "chatgpt_export.jsonl"), files[0])
	assert.Equal(t, filepath.Join(dir, "claude_export.jsonl"), files[1])
}

func TestCollectInputsSingleFile(t *testing.T) {
	dir := writeSessionDir(t)
	file := filepath.Join(dir, "chatgpt_export.jsonl")

	files, inputType, inputPath, err := collectInputs([]string{file})
	require.NoError(t, err)
	assert.Equal(t, "file", inputType)
	assert.Equal(t, file, inputPath)
	assert.Equal(t, []string{file}, files)
}

func TestCollectInputsRejectsNonJSONL(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "export.csv")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, _, _, err := collectInputs([]string{file})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a .jsonl file")
}

func TestCollectInputsEmptyDirectory(t *testing.T) {
	_, _, _, err := collectInputs([]string{t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .jsonl files")
}

func TestResolveSessionID(t *testing.T) {
	dir := writeSessionDir(t)

	buildSessionID = ""
	assert.Equal(t, "session-a", resolveSessionID([]string{dir}))
	assert.Equal(t, "multi-file-session", resolveSessionID([]string{"a.jsonl", "b.jsonl"}))

	buildSessionID = "release-review"
	assert.Equal(t, "release-review", resolveSessionID([]string{dir}))
	buildSessionID = ""
}

func TestBuildOnceWritesAllIR(t *testing.T) {
	outputDir := setupBuild(t)
	dir := writeSessionDir(t)

	require.NoError(t, buildOnce(context.Background(), []string{dir}, outputDir, ""))

	convs, err := filepath.Glob(filepath.Join(outputDir, "conversation-ir", "*.json"))
	require.NoError(t, err)
	assert.Len(t, convs, 2)

	qas, err := filepath.Glob(filepath.Join(outputDir, "qa-unit-ir", "*.json"))
	require.NoError(t, err)
	assert.Len(t, qas, 2)

	sessionPath := filepath.Join(outputDir, "session-ir", "mms_session-a.json")
	data, err := os.ReadFile(sessionPath)
	require.NoError(t, err)

	var session ir.MultiModelSessionIR
	require.NoError(t, json.Unmarshal(data, &session))
	assert.Equal(t, ir.SessionSchema, session.Schema)
	assert.Equal(t, "session-a", session.SessionID)
	assert.Equal(t, []ir.Platform{ir.PlatformChatGPT, ir.PlatformClaude}, session.Platforms)
	// Both platforms asked the same question, so it lands in one group.
	require.Len(t, session.Prompts, 1)
	assert.Len(t, session.Prompts[0].PerPlatform, 2)
}

func TestBuildOnceRecordsProgress(t *testing.T) {
	outputDir := setupBuild(t)
	dir := writeSessionDir(t)

	require.NoError(t, buildOnce(context.Background(), []string{dir}, outputDir, ""))

	data, err := os.ReadFile(filepath.Join(buildWorkDir, "progress.json"))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "progress/v1", doc["schema"])
	assert.Equal(t, "completed", doc["status"])
	output, ok := doc["output"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, output, "session_ir")
}

func TestBuildOnceDryRunWritesNothing(t *testing.T) {
	outputDir := setupBuild(t)
	dir := writeSessionDir(t)
	buildDryRun = true
	defer func() { buildDryRun = false }()

	require.NoError(t, buildOnce(context.Background(), []string{dir}, outputDir, ""))

	_, err := os.Stat(outputDir)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(buildWorkDir, "progress.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestBuildOnceStepConversationStopsEarly(t *testing.T) {
	outputDir := setupBuild(t)
	dir := writeSessionDir(t)
	buildStep = "conversation"

	require.NoError(t, buildOnce(context.Background(), []string{dir}, outputDir, ""))

	convs, err := filepath.Glob(filepath.Join(outputDir, "conversation-ir", "*.json"))
	require.NoError(t, err)
	assert.Len(t, convs, 2)

	_, err = os.Stat(filepath.Join(outputDir, "qa-unit-ir"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(outputDir, "session-ir"))
	assert.True(t, os.IsNotExist(err))
}

func TestBuildOnceParseFailureMarksStep(t *testing.T) {
	outputDir := setupBuild(t)
	dir := filepath.Join(t.TempDir(), "bad-session")
	require.NoError(t, os.Mkdir(dir, 0o755))
	writeExport(t, dir, "chatgpt_broken.jsonl",
		`{"role": "user", "content": "메타데이터가 없습니다"}`)

	err := buildOnce(context.Background(), []string{dir}, outputDir, "")
	require.Error(t, err)

	data, readErr := os.ReadFile(filepath.Join(buildWorkDir, "progress.json"))
	require.NoError(t, readErr)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "error", doc["status"])
}
