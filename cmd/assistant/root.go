package main

import (
	"context"
	"fmt"
	"os"

	"go-boss-assistant/internal/config"
	"go-boss-assistant/internal/store"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var configFile string

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Auto-reply assistant for the recruiting site's chat page",
	Long: `assistant drives the recruiting site's chat page in Chromium, answers
recruiter questions it can answer from your candidate profile and fills the
reply into the chat input for you to send.

Settings, profile and the auto-reply switch live in the local store and can be
edited with the subcommands below or through the local HTTP API while running.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default is %s)", config.DefaultPath))
}

// openRecords loads the config and opens the configured store. The caller
// closes the returned store.
func openRecords() (*config.Config, store.KV, *store.Records, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	kv, err := store.Open(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	return cfg, kv, store.NewRecords(kv), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
