package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"chatweave/internal/ir"
	"chatweave/internal/normalize"
	"chatweave/internal/parser"
	"chatweave/internal/pipeline"
	"chatweave/internal/progress"
	"chatweave/internal/watch"
)

var (
	buildOutput    string
	buildWorkDir   string
	buildStep      string
	buildPlatform  string
	buildSessionID string
	buildStrict    bool
	buildDryRun    bool
	buildWatch     bool
)

var buildCmd = &cobra.Command{
	Use:   "build <export.jsonl|directory> [more inputs...]",
	Short: "Build IR files from JSONL chat exports",
	Long: `build parses one or more JSONL chat exports (files or directories of
*.jsonl files), normalizes the text, extracts question-answer units, and
aligns the platforms into a multi-model session IR under the output
directory. Use --step to stop after the conversation or QA stage.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "Output directory (default from config)")
	buildCmd.Flags().StringVar(&buildWorkDir, "working-dir", ".", "Directory for progress.json")
	buildCmd.Flags().StringVar(&buildStep, "step", "session", "Stop after step: conversation, qa, or session")
	buildCmd.Flags().StringVar(&buildPlatform, "platform", "", "Platform override for a single input file")
	buildCmd.Flags().StringVar(&buildSessionID, "session-id", "", "Session ID (default: input directory name)")
	buildCmd.Flags().BoolVar(&buildStrict, "strict", false, "Fail on normalization post-condition violations")
	buildCmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "Run the pipeline without writing any files")
	buildCmd.Flags().BoolVarP(&buildWatch, "watch", "w", false, "Rebuild when watched directories change")
}

func runBuild(cmd *cobra.Command, args []string) error {
	switch buildStep {
	case "conversation", "qa", "session":
	default:
		return fmt.Errorf("invalid --step %q: must be conversation, qa, or session", buildStep)
	}

	override := ir.Platform(buildPlatform)
	if buildPlatform != "" && !override.Valid() {
		return fmt.Errorf("unknown platform %q (known: %s)", buildPlatform, joinPlatforms())
	}

	outputDir := buildOutput
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}

	if err := buildOnce(cmd.Context(), args, outputDir, override); err != nil {
		return err
	}
	if !buildWatch {
		return nil
	}

	var dirs []string
	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil && info.IsDir() {
			dirs = append(dirs, arg)
		}
	}
	if len(dirs) == 0 {
		return fmt.Errorf("--watch requires at least one directory input")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("watching for changes", zap.Strings("dirs", dirs))
	return watch.Watch(ctx, dirs, func(paths []string) {
		logger.Info("inputs changed, rebuilding", zap.Int("files", len(paths)))
		if err := buildOnce(ctx, args, outputDir, override); err != nil {
			logger.Error("rebuild failed", zap.Error(err))
		}
	}, watch.Options{Logger: logger})
}

// buildOnce runs the full pipeline over the resolved inputs. Called once
// for a plain build and once per change burst under --watch.
func buildOnce(ctx context.Context, args []string, outputDir string, override ir.Platform) error {
	files, inputType, inputPath, err := collectInputs(args)
	if err != nil {
		return err
	}

	if override != "" && len(files) > 1 {
		logger.Warn("--platform ignored: it only applies to a single input file",
			zap.Int("files", len(files)))
		override = ""
	}

	tracker := progress.NewTracker(buildWorkDir, !buildDryRun)
	if err := tracker.SetInput(inputType, inputPath, files); err != nil {
		return err
	}

	norm := normalize.New(normalize.Options{
		Strict:        buildStrict || cfg.Normalizer.Strict,
		MaxIterations: cfg.Normalizer.MaxIterations,
		Logger:        logger,
	})
	p := parser.New(parser.Options{Normalizer: norm, Logger: logger})

	if err := tracker.StartStep(progress.StepParse, map[string]any{"files": len(files)}); err != nil {
		return err
	}
	conversations := make([]*ir.ConversationIR, 0, len(files))
	for _, file := range files {
		conv, err := p.Parse(ctx, file, override)
		if err != nil {
			_ = tracker.FailStep(progress.StepParse, err)
			return err
		}
		conversations = append(conversations, conv)
	}
	if err := tracker.CompleteStep(progress.StepParse, map[string]any{
		"conversations": len(conversations),
	}); err != nil {
		return err
	}

	output := map[string]any{}
	if buildStep == "conversation" {
		paths, err := writeConversations(conversations, outputDir)
		if err != nil {
			_ = tracker.Fail(err)
			return err
		}
		output["conversation_ir"] = paths
		return tracker.Complete(output)
	}

	if err := tracker.StartStep(progress.StepBuildQAIR, nil); err != nil {
		return err
	}
	qaByPlatform := make(map[ir.Platform]*ir.QAUnitIR, len(conversations))
	qaUnits := make([]*ir.QAUnitIR, 0, len(conversations))
	for _, conv := range conversations {
		qa := pipeline.BuildQAUnitIR(conv, nil)
		if prev, ok := qaByPlatform[conv.Platform]; ok {
			logger.Warn("multiple exports for one platform, last wins",
				zap.String("platform", string(conv.Platform)),
				zap.String("replaced_conversation", prev.ConversationID))
		}
		qaByPlatform[conv.Platform] = qa
		qaUnits = append(qaUnits, qa)
	}
	if err := tracker.CompleteStep(progress.StepBuildQAIR, map[string]any{
		"platforms": len(qaByPlatform),
	}); err != nil {
		return err
	}

	if buildStep == "qa" {
		paths, err := writeQAUnits(qaUnits, outputDir)
		if err != nil {
			_ = tracker.Fail(err)
			return err
		}
		output["qa_unit_ir"] = paths
		return tracker.Complete(output)
	}

	if err := tracker.StartStep(progress.StepBuildSessionIR, nil); err != nil {
		return err
	}
	session := pipeline.BuildSessionIR(qaByPlatform, resolveSessionID(args), nil)
	if err := tracker.CompleteStep(progress.StepBuildSessionIR, map[string]any{
		"session_id":    session.SessionID,
		"prompt_groups": len(session.Prompts),
	}); err != nil {
		return err
	}

	if err := tracker.StartStep(progress.StepWriteOutput, nil); err != nil {
		return err
	}
	if buildDryRun {
		logger.Info("dry run, skipping output",
			zap.String("session_id", session.SessionID),
			zap.Int("conversations", len(conversations)),
			zap.Int("prompt_groups", len(session.Prompts)))
		_ = tracker.CompleteStep(progress.StepWriteOutput, map[string]any{"dry_run": true})
		return tracker.Complete(output)
	}

	convPaths, err := writeConversations(conversations, outputDir)
	if err != nil {
		_ = tracker.FailStep(progress.StepWriteOutput, err)
		return err
	}
	qaPaths, err := writeQAUnits(qaUnits, outputDir)
	if err != nil {
		_ = tracker.FailStep(progress.StepWriteOutput, err)
		return err
	}
	sessionPath, err := ir.WriteSessionIR(session, filepath.Join(outputDir, "session-ir"))
	if err != nil {
		_ = tracker.FailStep(progress.StepWriteOutput, err)
		return err
	}
	if err := tracker.CompleteStep(progress.StepWriteOutput, nil); err != nil {
		return err
	}

	output["conversation_ir"] = convPaths
	output["qa_unit_ir"] = qaPaths
	output["session_ir"] = sessionPath
	logger.Info("build complete",
		zap.String("session_ir", sessionPath),
		zap.Int("conversations", len(convPaths)),
		zap.Int("prompt_groups", len(session.Prompts)))
	return tracker.Complete(output)
}

// collectInputs resolves the build arguments into concrete JSONL files.
// Directories contribute their *.jsonl entries, sorted; plain files must
// carry the .jsonl extension.
func collectInputs(args []string) (files []string, inputType, inputPath string, err error) {
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, "", "", fmt.Errorf("input %s: %w", arg, err)
		}
		if info.IsDir() {
			matches, err := filepath.Glob(filepath.Join(arg, "*.jsonl"))
			if err != nil {
				return nil, "", "", fmt.Errorf("scan %s: %w", arg, err)
			}
			sort.Strings(matches)
			files = append(files, matches...)
			continue
		}
		if !strings.EqualFold(filepath.Ext(arg), ".jsonl") {
			return nil, "", "", fmt.Errorf("input %s is not a .jsonl file", arg)
		}
		files = append(files, arg)
	}
	if len(files) == 0 {
		return nil, "", "", fmt.Errorf("no .jsonl files found in %s", strings.Join(args, ", "))
	}

	switch {
	case len(args) == 1 && len(files) == 1 && args[0] == files[0]:
		return files, "file", args[0], nil
	case len(args) == 1:
		return files, "directory", args[0], nil
	default:
		return files, "files", strings.Join(args, ","), nil
	}
}

// resolveSessionID prefers the explicit flag, then a single directory
// input's name, then a generic fallback for loose file lists.
func resolveSessionID(args []string) string {
	if buildSessionID != "" {
		return buildSessionID
	}
	if len(args) == 1 {
		if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
			return filepath.Base(filepath.Clean(args[0]))
		}
	}
	return "multi-file-session"
}

func writeConversations(conversations []*ir.ConversationIR, outputDir string) ([]string, error) {
	if buildDryRun {
		return nil, nil
	}
	dir := filepath.Join(outputDir, "conversation-ir")
	paths := make([]string, 0, len(conversations))
	for _, conv := range conversations {
		path, err := ir.WriteConversationIR(conv, dir)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeQAUnits(qaUnits []*ir.QAUnitIR, outputDir string) ([]string, error) {
	if buildDryRun {
		return nil, nil
	}
	dir := filepath.Join(outputDir, "qa-unit-ir")
	paths := make([]string, 0, len(qaUnits))
	for _, qa := range qaUnits {
		path, err := ir.WriteQAUnitIR(qa, dir)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func joinPlatforms() string {
	names := make([]string, len(ir.KnownPlatforms))
	for i, p := range ir.KnownPlatforms {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
