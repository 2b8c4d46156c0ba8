// Package ir defines the intermediate representations produced by the
// pipeline: per-platform conversations, extracted question-answer units,
// and the cross-platform session alignment, plus the JSON writers for all
// three.
package ir

import (
	"fmt"
	"time"
)

// Schema version identifiers embedded in every written document.
const (
	ConversationSchema = "conversation-ir/v1"
	QAUnitSchema       = "qa-unit-ir/v1"
	SessionSchema      = "multi-model-session-ir/v1"
)

// Platform identifies the chat service an export came from.
type Platform string

const (
	PlatformChatGPT Platform = "chatgpt"
	PlatformClaude  Platform = "claude"
	PlatformGemini  Platform = "gemini"
	PlatformGrok    Platform = "grok"
)

// KnownPlatforms lists every platform the pipeline understands.
var KnownPlatforms = []Platform{PlatformChatGPT, PlatformClaude, PlatformGemini, PlatformGrok}

// Valid reports whether p is one of the known platforms.
func (p Platform) Valid() bool {
	for _, known := range KnownPlatforms {
		if p == known {
			return true
		}
	}
	return false
}

// Role is a message author role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ID formatters. Indexes are zero-based; widths are fixed so IDs sort
// lexicographically in conversation order.
func MessageID(index int) string  { return fmt.Sprintf("m%04d", index) }
func ArtifactID(index int) string { return fmt.Sprintf("a%04d", index) }
func QAID(index int) string       { return fmt.Sprintf("q%04d", index) }
func PromptKey(index int) string  { return fmt.Sprintf("p%04d", index) }

// MessageIR is one message of a conversation. NormalizedContent and
// QueryHash are nil when absent, not empty, so the written JSON
// distinguishes "never computed" from "computed as empty".
type MessageIR struct {
	ID                string         `json:"id"`
	Index             int            `json:"index"`
	Role              Role           `json:"role"`
	Timestamp         time.Time      `json:"timestamp"`
	RawContent        string         `json:"raw_content"`
	NormalizedContent *string        `json:"normalized_content"`
	ContentFormat     string         `json:"content_format"`
	QueryHash         *string        `json:"query_hash"`
	Meta              map[string]any `json:"meta"`
}

// ArtifactIR is a side output captured in an export (canvas documents,
// generated files) that is not part of the message flow.
type ArtifactIR struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Version any            `json:"version"`
	Content string         `json:"content"`
	Meta    map[string]any `json:"meta"`
}

// ConversationIR is the parsed form of one platform export.
type ConversationIR struct {
	Schema         string         `json:"schema"`
	Platform       Platform       `json:"platform"`
	ConversationID string         `json:"conversation_id"`
	Meta           map[string]any `json:"meta"`
	Messages       []MessageIR    `json:"messages"`
	Artifacts      []ArtifactIR   `json:"artifacts"`
}

// QAUnit is one question-answer exchange: a run of user messages followed
// by the assistant messages that answer them.
type QAUnit struct {
	QAID                         string         `json:"qa_id"`
	Platform                     Platform       `json:"platform"`
	ConversationID               string         `json:"conversation_id"`
	UserMessageIDs               []string       `json:"user_message_ids"`
	AssistantMessageIDs          []string       `json:"assistant_message_ids"`
	QuestionFromUser             *string        `json:"question_from_user"`
	QuestionFromAssistantSummary *string        `json:"question_from_assistant_summary"`
	UserQueryHash                *string        `json:"user_query_hash"`
	Meta                         map[string]any `json:"meta"`
}

// QAUnitIR collects the QA units of a single conversation.
type QAUnitIR struct {
	Schema         string   `json:"schema"`
	Platform       Platform `json:"platform"`
	ConversationID string   `json:"conversation_id"`
	QAUnits        []QAUnit `json:"qa_units"`
}

// PromptSource names the QA unit a canonical prompt was taken from.
type PromptSource struct {
	Platform Platform `json:"platform"`
	QAID     string   `json:"qa_id"`
}

// CanonicalPrompt is the representative question text for a prompt group.
// Language stays nil; detection is out of scope.
type CanonicalPrompt struct {
	Text     *string      `json:"text"`
	Language *string      `json:"language"`
	Source   PromptSource `json:"source"`
}

// PerPlatformQARef points at one platform's answer to a grouped prompt.
type PerPlatformQARef struct {
	Platform         Platform `json:"platform"`
	QAID             string   `json:"qa_id"`
	ConversationID   string   `json:"conversation_id"`
	PromptText       *string  `json:"prompt_text"`
	PromptSimilarity *float64 `json:"prompt_similarity"`
	MissingPrompt    bool     `json:"missing_prompt"`
	MissingContext   bool     `json:"missing_context"`
}

// PromptGroup aligns the QA units that answer the same question across
// platforms. DependsOn carries the keys of prompts this one builds on.
type PromptGroup struct {
	PromptKey       string             `json:"prompt_key"`
	CanonicalPrompt CanonicalPrompt    `json:"canonical_prompt"`
	DependsOn       []string           `json:"depends_on"`
	PerPlatform     []PerPlatformQARef `json:"per_platform"`
	Meta            map[string]any     `json:"meta"`
}

// ConversationRef names one conversation that contributed to a session.
type ConversationRef struct {
	Platform       Platform `json:"platform"`
	ConversationID string   `json:"conversation_id"`
}

// MultiModelSessionIR is the cross-platform alignment of one session: the
// same questions asked to several models, grouped prompt by prompt.
type MultiModelSessionIR struct {
	Schema        string            `json:"schema"`
	SessionID     string            `json:"session_id"`
	Platforms     []Platform        `json:"platforms"`
	Conversations []ConversationRef `json:"conversations"`
	Prompts       []PromptGroup     `json:"prompts"`
	Meta          map[string]any    `json:"meta"`
}
