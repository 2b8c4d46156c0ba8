// Package parser turns platform JSONL exports into ConversationIR: it
// loads the file, resolves the platform, and normalizes every message.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"chatweave/internal/hashing"
	"chatweave/internal/ir"
	"chatweave/internal/normalize"
)

// Options configures a Parser.
type Options struct {
	// Normalizer used for message content. Nil means a default, lenient
	// normalizer.
	Normalizer *normalize.Normalizer

	// Logger for per-file diagnostics. Nil means no logging.
	Logger *zap.Logger
}

// Parser converts JSONL exports into ConversationIR. Safe for concurrent
// use.
type Parser struct {
	normalizer *normalize.Normalizer
	log        *zap.Logger
}

// New builds a Parser.
func New(opts Options) *Parser {
	n := opts.Normalizer
	if n == nil {
		n = normalize.New(normalize.Options{})
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{normalizer: n, log: log}
}

// Parse loads the export at path and returns its ConversationIR. The
// override, when non-empty, wins over metadata and filename inference.
// Message normalization runs concurrently, one goroutine per message up to
// GOMAXPROCS.
func (p *Parser) Parse(ctx context.Context, path string, override ir.Platform) (*ir.ConversationIR, error) {
	export, err := LoadJSONL(path)
	if err != nil {
		return nil, err
	}

	platform, err := InferPlatform(path, export.Meta, override)
	if err != nil {
		return nil, err
	}

	conversationID := conversationID(path, export.Meta)
	p.log.Debug("parsing export",
		zap.String("file", filepath.Base(path)),
		zap.String("platform", string(platform)),
		zap.String("conversation_id", conversationID),
		zap.Int("messages", len(export.Messages)))

	messages := make([]ir.MessageIR, len(export.Messages))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, record := range export.Messages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			msg, err := p.convertMessage(record, i, platform)
			if err != nil {
				return fmt.Errorf("message %d: %w", i, err)
			}
			messages[i] = msg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	artifacts := make([]ir.ArtifactIR, len(export.Artifacts))
	for i, record := range export.Artifacts {
		artifacts[i] = convertArtifact(record, i)
	}

	return &ir.ConversationIR{
		Schema:         ir.ConversationSchema,
		Platform:       platform,
		ConversationID: conversationID,
		Meta:           export.Meta,
		Messages:       messages,
		Artifacts:      artifacts,
	}, nil
}

// conversationID takes the last path segment of the export URL when the
// metadata has one (query string stripped), else the file stem.
func conversationID(path string, meta map[string]any) string {
	if url, ok := meta["url"].(string); ok && url != "" {
		url, _, _ = strings.Cut(url, "?")
		url = strings.TrimRight(url, "/")
		parts := strings.Split(url, "/")
		if len(parts) >= 2 {
			return parts[len(parts)-1]
		}
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (p *Parser) convertMessage(record map[string]any, index int, platform ir.Platform) (ir.MessageIR, error) {
	role, ok := record["role"].(string)
	if !ok {
		return ir.MessageIR{}, fmt.Errorf("role is not a string")
	}
	rawContent, ok := record["content"].(string)
	if !ok {
		return ir.MessageIR{}, fmt.Errorf("content is not a string")
	}

	timestamp := parseTimestamp(record["timestamp"])

	// Assistant text goes through the platform cleaner before the generic
	// pipeline; user text is normalized as-is.
	content := rawContent
	if role == string(ir.RoleAssistant) && rawContent != "" {
		switch platform {
		case ir.PlatformGemini:
			content = normalize.CleanGeminiAssistant(rawContent)
		case ir.PlatformGrok:
			content = normalize.CleanGrokAssistant(rawContent)
		}
	}

	var normalized *string
	if content != "" {
		text, err := p.normalizer.Normalize(content)
		if err != nil {
			return ir.MessageIR{}, fmt.Errorf("normalize: %w", err)
		}
		normalized = &text
	}

	var queryHash *string
	if role == string(ir.RoleUser) && normalized != nil && *normalized != "" {
		h := hashing.QueryHash(*normalized)
		queryHash = &h
	}

	return ir.MessageIR{
		ID:                ir.MessageID(index),
		Index:             index,
		Role:              ir.Role(role),
		Timestamp:         timestamp,
		RawContent:        rawContent,
		NormalizedContent: normalized,
		ContentFormat:     "markdown",
		QueryHash:         queryHash,
		Meta:              map[string]any{},
	}, nil
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// parseTimestamp accepts RFC 3339 with or without a zone; anything else
// falls back to the epoch rather than failing the whole export.
func parseTimestamp(v any) time.Time {
	s, ok := v.(string)
	if ok && s != "" {
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return time.Unix(0, 0).UTC()
}

func convertArtifact(record map[string]any, index int) ir.ArtifactIR {
	title, _ := record["title"].(string)
	content, _ := record["content"].(string)
	version := record["version"]

	meta := make(map[string]any)
	for k, v := range record {
		switch k {
		case "title", "version", "content":
		default:
			meta[k] = v
		}
	}

	return ir.ArtifactIR{
		ID:      ir.ArtifactID(index),
		Title:   title,
		Version: version,
		Content: content,
		Meta:    meta,
	}
}
