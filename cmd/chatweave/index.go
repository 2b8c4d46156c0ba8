package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"chatweave/internal/normalize"
	"chatweave/internal/parser"
	"chatweave/internal/pipeline"
	"chatweave/internal/store"
)

var indexDB string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Maintain the cross-session query index",
}

var indexAddCmd = &cobra.Command{
	Use:   "add <session-dir> [more dirs...]",
	Short: "Index the query hashes of one or more session directories",
	Long: `add parses every *.jsonl export in each directory, builds the QA units,
and records each hashed user question under the directory's name as the
session ID. Re-indexing a session is a no-op for entries already present.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndexAdd,
}

var indexLookupCmd = &cobra.Command{
	Use:   "lookup <query-hash>",
	Short: "Find every indexed occurrence of a query hash",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexLookup,
}

func init() {
	indexCmd.PersistentFlags().StringVar(&indexDB, "db", "", "Index database path (default from config)")
	indexCmd.AddCommand(indexAddCmd)
	indexCmd.AddCommand(indexLookupCmd)
}

func openIndex() (*store.Index, error) {
	path := indexDB
	if path == "" {
		path = cfg.IndexPath
	}
	return store.Open(path)
}

func runIndexAdd(cmd *cobra.Command, args []string) error {
	idx, err := openIndex()
	if err != nil {
		return err
	}
	defer idx.Close()

	norm := normalize.New(normalize.Options{
		Strict:        cfg.Normalizer.Strict,
		MaxIterations: cfg.Normalizer.MaxIterations,
		Logger:        logger,
	})
	p := parser.New(parser.Options{Normalizer: norm, Logger: logger})

	indexed := 0
	for _, dir := range args {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("session dir %s: %w", dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("session dir %s is not a directory", dir)
		}

		files, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
		if err != nil {
			return fmt.Errorf("scan %s: %w", dir, err)
		}
		if len(files) == 0 {
			logger.Warn("no exports in session dir", zap.String("dir", dir))
			continue
		}
		sort.Strings(files)

		sessionID := filepath.Base(filepath.Clean(dir))
		for _, file := range files {
			conv, err := p.Parse(cmd.Context(), file, "")
			if err != nil {
				return err
			}
			qa := pipeline.BuildQAUnitIR(conv, nil)
			if err := idx.Add(cmd.Context(), sessionID, qa); err != nil {
				return err
			}
			indexed += len(qa.QAUnits)
		}
		logger.Info("session indexed",
			zap.String("session_id", sessionID),
			zap.Int("files", len(files)))
	}

	total, err := idx.Count(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("indexed %d QA units (%d total entries)\n", indexed, total)
	return nil
}

func runIndexLookup(cmd *cobra.Command, args []string) error {
	idx, err := openIndex()
	if err != nil {
		return err
	}
	defer idx.Close()

	entries, err := idx.Lookup(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		cmd.Printf("no entries for hash %s\n", args[0])
		return nil
	}

	for _, e := range entries {
		question := e.Question
		if question == "" {
			question = "(no question text)"
		}
		cmd.Printf("%s  %-8s  %s/%s  %s\n",
			e.SessionID, e.Platform, e.ConversationID, e.QAID, firstLine(question))
	}
	return nil
}

// firstLine keeps lookup output one row per entry.
func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
