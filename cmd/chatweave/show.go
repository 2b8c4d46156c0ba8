package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"chatweave/internal/ir"
)

var showRaw bool

var showCmd = &cobra.Command{
	Use:   "show <mms_session.json>",
	Short: "Render a multi-model session IR in the terminal",
	Long: `show reads a written session IR file and renders each prompt group: the
canonical question as markdown, followed by how each platform saw it.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "Print the session IR JSON instead of rendering it")
}

var (
	showTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	showKeyStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	showDimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	showWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func runShow(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read session IR: %w", err)
	}

	if showRaw {
		cmd.Println(strings.TrimRight(string(data), "\n"))
		return nil
	}

	var session ir.MultiModelSessionIR
	if err := json.Unmarshal(data, &session); err != nil {
		return fmt.Errorf("parse session IR %s: %w", args[0], err)
	}
	if session.Schema != ir.SessionSchema {
		return fmt.Errorf("%s is not a session IR file (schema %q)", args[0], session.Schema)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}

	platforms := make([]string, len(session.Platforms))
	for i, p := range session.Platforms {
		platforms[i] = string(p)
	}
	cmd.Println(showTitleStyle.Render(fmt.Sprintf("Session %s", session.SessionID)))
	cmd.Println(showDimStyle.Render(fmt.Sprintf("platforms: %s  prompts: %d",
		strings.Join(platforms, ", "), len(session.Prompts))))
	cmd.Println()

	for _, prompt := range session.Prompts {
		header := showKeyStyle.Render(prompt.PromptKey)
		if len(prompt.DependsOn) > 0 {
			header += showDimStyle.Render(fmt.Sprintf("  (after %s)", strings.Join(prompt.DependsOn, ", ")))
		}
		cmd.Println(header)

		if prompt.CanonicalPrompt.Text != nil {
			rendered, err := renderer.Render(*prompt.CanonicalPrompt.Text)
			if err != nil {
				return fmt.Errorf("render %s: %w", prompt.PromptKey, err)
			}
			cmd.Print(rendered)
		} else {
			cmd.Println(showWarnStyle.Render("  (no canonical prompt text)"))
		}

		for _, ref := range prompt.PerPlatform {
			line := fmt.Sprintf("  %-8s %s/%s", ref.Platform, ref.ConversationID, ref.QAID)
			switch {
			case ref.MissingPrompt:
				line += showWarnStyle.Render("  missing prompt")
			case ref.MissingContext:
				line += showWarnStyle.Render("  missing context")
			}
			if ref.PromptSimilarity != nil {
				line += showDimStyle.Render(fmt.Sprintf("  similarity %.2f", *ref.PromptSimilarity))
			}
			cmd.Println(line)
		}
		cmd.Println()
	}
	return nil
}
