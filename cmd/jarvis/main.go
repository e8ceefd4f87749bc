package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"jarvis/internal/app"
	"jarvis/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

const version = "0.3.0"

var (
	flagMock  bool
	flagModel string
	askModels []string
)

func main() {
	root := &cobra.Command{
		Use:     "jarvis",
		Short:   "Jarvis - streaming multimodal assistant",
		Long:    "Jarvis is a terminal assistant that races replies across Gemini models,\nreveals them in sync with speech playback, and records tool activity in\na timeline.\n\nRun without arguments for the interactive TUI.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApplication(cmd.Context())
			if err != nil {
				return err
			}

			p := tea.NewProgram(tui.New(application), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return err
			}
			return nil
		},
	}

	root.PersistentFlags().BoolVar(&flagMock, "mock", false, "Use canned model and speech backends")
	root.PersistentFlags().StringVar(&flagModel, "model", "", "Override the primary model")

	askCmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "One-shot prompt without the TUI",
		Long:  "Send a single prompt and print the finalized reply.\n\nExamples:\n  - jarvis ask \"what can you do\"\n  - jarvis ask --compare gemini-2.5-pro \"summarize quantum computing\"\n  - jarvis ask --mock \"hello\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), args[0])
		},
	}
	askCmd.Flags().StringSliceVar(&askModels, "compare", nil, "Additional models to race against the primary")
	root.AddCommand(askCmd)

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Wipe the persisted transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.NewMemoryStore("").ClearTranscript(); err != nil {
				return err
			}
			fmt.Println("Transcript cleared.")
			return nil
		},
	}
	root.AddCommand(clearCmd)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildApplication(ctx context.Context) (*app.Application, error) {
	cfg, err := app.LoadSettings(app.DefaultConfigPath())
	if err != nil {
		return nil, err
	}
	if flagModel != "" {
		cfg.Model = app.NormalizeModel(flagModel)
	}
	// Flag overrides stay in-process; only explicit /model and /preview
	// changes are written back to the config file.
	if len(askModels) > 0 {
		cfg.SecondaryModel = app.NormalizeModel(askModels[0])
		cfg.DualModelPreview = true
	}
	return app.NewApplication(ctx, cfg, app.MockModeFor(cfg, flagMock))
}

// runAsk drives one turn through the full orchestrator and prints the
// reply once the reveal completes, so text pacing and fallback behave
// exactly as in the TUI.
func runAsk(ctx context.Context, prompt string) error {
	application, err := buildApplication(ctx)
	if err != nil {
		return err
	}
	application.ClearConversation()
	application.Connect()
	application.SendUserText(ctx, prompt)

	for _, msg := range application.Store.Messages() {
		switch msg.Role {
		case app.RoleAssistant:
			if msg.PrimaryModel != "" {
				fmt.Printf("[%s]\n", msg.PrimaryModel)
			}
			fmt.Println(strings.TrimSpace(msg.Text))
			for _, alt := range msg.Comparisons {
				fmt.Printf("\n[alternate: %s]\n%s\n", alt.Model, strings.TrimSpace(alt.Text))
			}
		case app.RoleSystem:
			fmt.Fprintln(os.Stderr, msg.Text)
		}
	}
	return nil
}
