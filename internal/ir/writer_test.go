package ir

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func sampleConversation() *ConversationIR {
	return &ConversationIR{
		Schema:         ConversationSchema,
		Platform:       PlatformChatGPT,
		ConversationID: "692ad5eb",
		Meta:           map[string]any{"url": "https://chatgpt.com/c/692ad5eb"},
		Messages: []MessageIR{
			{
				ID:                MessageID(0),
				Index:             0,
				Role:              RoleUser,
				Timestamp:         time.Date(2025, 11, 29, 11, 42, 42, 0, time.UTC),
				RawContent:        "질문입니다",
				NormalizedContent: strp("질문입니다"),
				ContentFormat:     "markdown",
				QueryHash:         strp("abc123"),
				Meta:              map[string]any{},
			},
		},
		Artifacts: []ArtifactIR{},
	}
}

func TestWriteConversationIR(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteConversationIR(sampleConversation(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chatgpt_conv_692ad5eb.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "conversation-ir/v1", doc["schema"])
	assert.Equal(t, "chatgpt", doc["platform"])
	assert.Equal(t, "692ad5eb", doc["conversation_id"])

	msgs, ok := doc["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	msg := msgs[0].(map[string]any)
	assert.Equal(t, "m0000", msg["id"])
	assert.Equal(t, "질문입니다", msg["raw_content"])
}

func TestWriteConversationIRUniqueSuffix(t *testing.T) {
	dir := t.TempDir()
	conv := sampleConversation()

	first, err := WriteConversationIR(conv, dir)
	require.NoError(t, err)
	second, err := WriteConversationIR(conv, dir)
	require.NoError(t, err)
	third, err := WriteConversationIR(conv, dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "chatgpt_conv_692ad5eb.json"), first)
	assert.Equal(t, filepath.Join(dir, "chatgpt_conv_692ad5eb_1.json"), second)
	assert.Equal(t, filepath.Join(dir, "chatgpt_conv_692ad5eb_2.json"), third)
}

func TestWriteQAUnitIR(t *testing.T) {
	dir := t.TempDir()
	qa := &QAUnitIR{
		Schema:         QAUnitSchema,
		Platform:       PlatformClaude,
		ConversationID: "conv-1",
		QAUnits: []QAUnit{
			{
				QAID:                QAID(0),
				Platform:            PlatformClaude,
				ConversationID:      "conv-1",
				UserMessageIDs:      []string{"m0000"},
				AssistantMessageIDs: []string{"m0001"},
				QuestionFromUser:    strp("How?"),
				UserQueryHash:       strp("deadbeef"),
				Meta:                map[string]any{},
			},
		},
	}

	path, err := WriteQAUnitIR(qa, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "claude_qau_conv-1.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "qa-unit-ir/v1", doc["schema"])

	units := doc["qa_units"].([]any)
	require.Len(t, units, 1)
	unit := units[0].(map[string]any)
	assert.Equal(t, "q0000", unit["qa_id"])
	// Absent extraction results serialize as explicit nulls.
	val, present := unit["question_from_assistant_summary"]
	assert.True(t, present)
	assert.Nil(t, val)
}

func TestWriteSessionIR(t *testing.T) {
	dir := t.TempDir()
	session := &MultiModelSessionIR{
		Schema:        SessionSchema,
		SessionID:     "2025-11-29-research",
		Platforms:     []Platform{PlatformChatGPT, PlatformClaude},
		Conversations: []ConversationRef{{Platform: PlatformChatGPT, ConversationID: "c1"}},
		Prompts:       []PromptGroup{},
		Meta:          map[string]any{},
	}

	path, err := WriteSessionIR(session, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "mms_2025-11-29-research.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "multi-model-session-ir/v1", doc["schema"])
	assert.Equal(t, []any{"chatgpt", "claude"}, doc["platforms"])
}

func TestWriterKeepsUnicodeUnescaped(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteConversationIR(sampleConversation(), dir)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "chatgpt_conv_692ad5eb.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "질문입니다")
	assert.NotContains(t, string(raw), `\u`)
}

func TestPlatformValid(t *testing.T) {
	assert.True(t, PlatformGemini.Valid())
	assert.False(t, Platform("bard").Valid())
}

func TestIDFormatters(t *testing.T) {
	assert.Equal(t, "m0007", MessageID(7))
	assert.Equal(t, "a0000", ArtifactID(0))
	assert.Equal(t, "q0012", QAID(12))
	assert.Equal(t, "p0003", PromptKey(3))
}
