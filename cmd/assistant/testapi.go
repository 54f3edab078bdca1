package main

import (
	"context"
	"fmt"
	"time"

	"go-boss-assistant/internal/assistant"
	"go-boss-assistant/internal/config"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var (
	testAPIBase    string
	testAPIKey     string
	testModel      string
	testDialogue   string
	testAPITimeout time.Duration
)

//nolint:gochecknoglobals // Cobra boilerplate
var testAPICmd = &cobra.Command{
	Use:   "test-api",
	Short: "Check that the model endpoint answers",
	Long: `Send a tiny request to the configured model endpoint. Flags override the
saved settings without storing them. With --dialogue the full reply decision is
run against the saved profile and printed.

Example:
  assistant test-api
  assistant test-api --model gpt-4o-mini --dialogue "HR: [Which city are you in?]"`,
	Args: cobra.NoArgs,
	RunE: runTestAPI,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(testAPICmd)
	testAPICmd.Flags().StringVar(&testAPIBase, "api-base", "", "API base URL (default from settings)")
	testAPICmd.Flags().StringVar(&testAPIKey, "api-key", "", "API key (default from settings)")
	testAPICmd.Flags().StringVar(&testModel, "model", "", "Model name (default from settings)")
	testAPICmd.Flags().StringVar(&testDialogue, "dialogue", "", "Transcript to run a reply decision on")
	testAPICmd.Flags().DurationVar(&testAPITimeout, "timeout", 60*time.Second, "Request timeout")
}

func runTestAPI(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(commandContext(cmd), testAPITimeout)
	defer cancel()

	cfg, kv, records, err := openRecords()
	if err != nil {
		return err
	}
	defer kv.Close()

	saved, err := records.Settings(ctx)
	if err != nil {
		return err
	}
	settings := mergeSettings(saved, testAPIBase, testAPIKey, testModel)

	svc := assistant.NewService(records, nil, assistant.Options{
		Streaming:       cfg.AutoReply.StreamingEnabled(),
		MessagesVariant: cfg.AutoReply.PromptVariant == config.VariantMessages,
	})

	fmt.Printf("🔌 Testing %s (%s)...\n", settings.APIBase, settings.Model)
	if err := svc.TestConnection(ctx, settings); err != nil {
		fmt.Printf("❌ Connection failed: %v\n", err)
		return err
	}
	fmt.Println("✅ Connection OK")

	if testDialogue == "" {
		return nil
	}
	if settings != saved {
		fmt.Println("⚠️ --dialogue uses the saved settings, not the overrides")
	}
	d, err := svc.ChatReply(ctx, assistant.ChatReplyRequest{Dialogue: testDialogue})
	if err != nil {
		return err
	}
	fmt.Printf("can_answer: %v\nreply: %s\n", d.CanAnswer, d.Reply)
	return nil
}
