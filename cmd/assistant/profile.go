package main

import (
	"fmt"
	"os"

	"go-boss-assistant/internal/models"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

//nolint:gochecknoglobals // Cobra boilerplate
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the candidate profile the assistant answers from",
}

//nolint:gochecknoglobals // Cobra boilerplate
var profileImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the profile with the contents of a YAML or JSON file",
	Long: `Replace the stored candidate profile. The file uses the stored field
names (city, status, years, degree, direction, tech_stack, salary_prev,
leave_time, leave_reason, skills, projects) plus an optional extras map.

Example:
  assistant profile import profile.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileImport,
}

//nolint:gochecknoglobals // Cobra boilerplate
var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored profile as YAML",
	Args:  cobra.NoArgs,
	RunE:  runProfileShow,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileImportCmd, profileShowCmd)
}

// loadProfileFile parses a profile file. JSON is read as YAML.
func loadProfileFile(path string) (models.CandidateProfile, error) {
	var p models.CandidateProfile
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return p, nil
}

func runProfileImport(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	p, err := loadProfileFile(args[0])
	if err != nil {
		return err
	}

	_, kv, records, err := openRecords()
	if err != nil {
		return err
	}
	defer kv.Close()

	if err := records.SaveProfile(ctx, p); err != nil {
		return err
	}
	fmt.Printf("✅ Profile imported (%d fields, %d custom)\n", len(p.Fields()), len(p.ExtrasOrNil()))
	return nil
}

func runProfileShow(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	_, kv, records, err := openRecords()
	if err != nil {
		return err
	}
	defer kv.Close()

	p, err := records.Profile(ctx)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}
