// Package progress records pipeline execution state in a progress.json
// file so external tools (and humans) can watch a build move through its
// steps and see where a failed run stopped.
package progress

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Schema is the progress document version identifier.
const Schema = "progress/v1"

// Step names, in pipeline order.
const (
	StepParse          = "parse"
	StepBuildQAIR      = "build_qa_ir"
	StepBuildSessionIR = "build_session_ir"
	StepWriteOutput    = "write_output"
)

// Step and overall statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Step is one tracked pipeline stage.
type Step struct {
	Name        string         `json:"name"`
	Status      string         `json:"status"`
	StartedAt   *time.Time     `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	Details     map[string]any `json:"details"`
	Error       *string        `json:"error"`
}

type document struct {
	Schema    string         `json:"schema"`
	RunID     string         `json:"run_id"`
	StartedAt time.Time      `json:"started_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Status    string         `json:"status"`
	Input     map[string]any `json:"input"`
	Steps     []*Step        `json:"steps"`
	Output    map[string]any `json:"output"`
	Error     *string        `json:"error"`
}

// Tracker writes progress.json into its output directory after every
// state change. A disabled tracker (dry runs) accepts all calls and writes
// nothing. Safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	outputDir string
	enabled   bool
	doc       document
	clock     func() time.Time
}

// NewTracker creates a tracker for one pipeline run. The run gets a fresh
// UUID so overlapping runs writing to the same directory can be told
// apart.
func NewTracker(outputDir string, enabled bool) *Tracker {
	now := time.Now()
	return &Tracker{
		outputDir: outputDir,
		enabled:   enabled,
		clock:     time.Now,
		doc: document{
			Schema:    Schema,
			RunID:     uuid.NewString(),
			StartedAt: now,
			Status:    StatusPending,
			Input:     map[string]any{},
			Output:    map[string]any{},
			Steps: []*Step{
				{Name: StepParse, Status: StatusPending, Details: map[string]any{}},
				{Name: StepBuildQAIR, Status: StatusPending, Details: map[string]any{}},
				{Name: StepBuildSessionIR, Status: StatusPending, Details: map[string]any{}},
				{Name: StepWriteOutput, Status: StatusPending, Details: map[string]any{}},
			},
		},
	}
}

// SetInput records what the run is processing: inputType is "file",
// "directory", or "files".
func (t *Tracker) SetInput(inputType, path string, files []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.doc.Input = map[string]any{"type": inputType, "path": path, "files": files}
	return t.write()
}

// StartStep marks a step in progress; the overall status follows.
func (t *Tracker) StartStep(name string, details map[string]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	step, err := t.step(name)
	if err != nil {
		return err
	}
	now := t.clock()
	step.Status = StatusInProgress
	step.StartedAt = &now
	mergeDetails(step, details)
	t.doc.Status = StatusInProgress
	return t.write()
}

// CompleteStep marks a step completed.
func (t *Tracker) CompleteStep(name string, details map[string]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	step, err := t.step(name)
	if err != nil {
		return err
	}
	now := t.clock()
	step.Status = StatusCompleted
	step.CompletedAt = &now
	mergeDetails(step, details)
	return t.write()
}

// FailStep marks a step and the whole run as failed.
func (t *Tracker) FailStep(name string, cause error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	step, err := t.step(name)
	if err != nil {
		return err
	}
	msg := cause.Error()
	step.Status = StatusError
	step.Error = &msg
	t.doc.Status = StatusError
	t.doc.Error = &msg
	return t.write()
}

// Complete marks the run finished and records the output paths.
func (t *Tracker) Complete(output map[string]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if output != nil {
		t.doc.Output = output
	}
	t.doc.Status = StatusCompleted
	return t.write()
}

// Fail marks the run failed without attributing the failure to a step.
func (t *Tracker) Fail(cause error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	msg := cause.Error()
	t.doc.Status = StatusError
	t.doc.Error = &msg
	return t.write()
}

func (t *Tracker) step(name string) (*Step, error) {
	for _, s := range t.doc.Steps {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("unknown progress step %q", name)
}

func mergeDetails(step *Step, details map[string]any) {
	for k, v := range details {
		step.Details[k] = v
	}
}

func (t *Tracker) write() error {
	if !t.enabled {
		return nil
	}
	if err := os.MkdirAll(t.outputDir, 0o755); err != nil {
		return fmt.Errorf("create progress dir: %w", err)
	}

	t.doc.UpdatedAt = t.clock()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t.doc); err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}

	path := filepath.Join(t.outputDir, "progress.json")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	return nil
}
