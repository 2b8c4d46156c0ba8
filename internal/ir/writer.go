package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteConversationIR writes conv as pretty-printed JSON under outputDir,
// creating the directory as needed. The filename is
// {platform}_conv_{conversation_id}.json, with a _1/_2 suffix when the
// path already exists. Returns the written path.
func WriteConversationIR(conv *ConversationIR, outputDir string) (string, error) {
	base := fmt.Sprintf("%s_conv_%s", conv.Platform, conv.ConversationID)
	return writeJSON(outputDir, base, conv)
}

// WriteQAUnitIR writes qa under outputDir as
// {platform}_qau_{conversation_id}.json.
func WriteQAUnitIR(qa *QAUnitIR, outputDir string) (string, error) {
	base := fmt.Sprintf("%s_qau_%s", qa.Platform, qa.ConversationID)
	return writeJSON(outputDir, base, qa)
}

// WriteSessionIR writes session under outputDir as mms_{session_id}.json.
func WriteSessionIR(session *MultiModelSessionIR, outputDir string) (string, error) {
	base := fmt.Sprintf("mms_%s", session.SessionID)
	return writeJSON(outputDir, base, session)
}

func writeJSON(outputDir, baseName string, v any) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path, err := uniquePath(outputDir, baseName, ".json")
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode %s: %w", baseName, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// uniquePath returns outputDir/baseName+ext, appending _1, _2, ... until
// the path does not exist. Earlier outputs are never overwritten.
func uniquePath(outputDir, baseName, ext string) (string, error) {
	path := filepath.Join(outputDir, baseName+ext)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path, nil
	} else if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	for counter := 1; ; counter++ {
		path = filepath.Join(outputDir, fmt.Sprintf("%s_%d%s", baseName, counter, ext))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		} else if err != nil {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
	}
}
