package parser

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// maxLineSize bounds a single JSONL line. Exports embed whole documents in
// one line, so the default bufio limit is far too small.
const maxLineSize = 64 * 1024 * 1024

// RawExport is the decoded content of one JSONL export file, split into
// the metadata line, the message lines, and the artifact lines.
type RawExport struct {
	Meta      map[string]any
	Messages  []map[string]any
	Artifacts []map[string]any
}

// LoadJSONL reads an export file. The first line must be the metadata
// record {"_meta": true, ...}; lines flagged "_artifact" are collected
// separately; every other line must be a message with role and content.
// Errors carry the 1-based line number.
func LoadJSONL(path string) (*RawExport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	export := &RawExport{}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var record map[string]any
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("%s: invalid JSON at line %d: %w", path, lineNum, err)
		}

		switch {
		case lineNum == 1:
			if isTrue(record["_meta"]) {
				delete(record, "_meta")
				export.Meta = record
				continue
			}
			return nil, fmt.Errorf("%s: first line must be metadata with \"_meta\": true", path)

		case isTrue(record["_artifact"]):
			delete(record, "_artifact")
			export.Artifacts = append(export.Artifacts, record)

		default:
			if _, ok := record["role"]; !ok {
				return nil, fmt.Errorf("%s: invalid message at line %d: missing \"role\"", path, lineNum)
			}
			if _, ok := record["content"]; !ok {
				return nil, fmt.Errorf("%s: invalid message at line %d: missing \"content\"", path, lineNum)
			}
			export.Messages = append(export.Messages, record)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}

	if export.Meta == nil {
		return nil, fmt.Errorf("%s: no metadata found", path)
	}
	return export, nil
}

func isTrue(v any) bool {
	b, ok := v.(bool)
	return ok && b
}
