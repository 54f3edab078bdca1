package main

import (
	"fmt"
	"strings"

	"go-boss-assistant/internal/models"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var (
	settingsAPIBase string
	settingsAPIKey  string
	settingsModel   string
)

//nolint:gochecknoglobals // Cobra boilerplate
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the model endpoint settings",
}

//nolint:gochecknoglobals // Cobra boilerplate
var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update the model endpoint settings",
	Long: `Update the OpenAI-compatible endpoint settings. Only the flags you pass
are changed.

Example:
  assistant settings set --api-base https://api.deepseek.com/v1 --api-key sk-... --model deepseek-chat`,
	Args: cobra.NoArgs,
	RunE: runSettingsSet,
}

//nolint:gochecknoglobals // Cobra boilerplate
var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the model endpoint settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsSetCmd, settingsShowCmd)
	settingsSetCmd.Flags().StringVar(&settingsAPIBase, "api-base", "", "API base URL, e.g. https://api.openai.com/v1")
	settingsSetCmd.Flags().StringVar(&settingsAPIKey, "api-key", "", "API key")
	settingsSetCmd.Flags().StringVar(&settingsModel, "model", "", "Model name")
}

// mergeSettings overlays the non-empty values onto s.
func mergeSettings(s models.ModelSettings, apiBase, apiKey, model string) models.ModelSettings {
	if v := strings.TrimSpace(apiBase); v != "" {
		s.APIBase = v
	}
	if v := strings.TrimSpace(apiKey); v != "" {
		s.APIKey = v
	}
	if v := strings.TrimSpace(model); v != "" {
		s.Model = v
	}
	return s
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:3] + strings.Repeat("*", len(key)-7) + key[len(key)-4:]
}

func runSettingsSet(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	_, kv, records, err := openRecords()
	if err != nil {
		return err
	}
	defer kv.Close()

	current, err := records.Settings(ctx)
	if err != nil {
		return err
	}
	updated := mergeSettings(current, settingsAPIBase, settingsAPIKey, settingsModel)
	if err := records.SaveSettings(ctx, updated); err != nil {
		return err
	}

	fmt.Println("✅ Settings saved")
	if !updated.Complete() {
		fmt.Println("⚠️ Settings are incomplete: api base, api key and model are all required")
	}
	return nil
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	_, kv, records, err := openRecords()
	if err != nil {
		return err
	}
	defer kv.Close()

	s, err := records.Settings(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("api_base: %s\napi_key:  %s\nmodel:    %s\n", s.APIBase, maskKey(s.APIKey), s.Model)
	return nil
}
