package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var autoReplyCmd = &cobra.Command{
	Use:       "auto-reply [on|off]",
	Short:     "Show or switch automatic replies",
	Long:      `Without an argument prints the current state. A running assistant picks the change up within a few seconds.`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"on", "off"},
	RunE:      runAutoReply,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(autoReplyCmd)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func runAutoReply(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	_, kv, records, err := openRecords()
	if err != nil {
		return err
	}
	defer kv.Close()

	if len(args) == 0 {
		on, err := records.AutoReplyEnabled(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Auto-reply is %s\n", onOff(on))
		return nil
	}

	on := args[0] == "on"
	if err := records.SetAutoReplyEnabled(ctx, on); err != nil {
		return err
	}
	fmt.Printf("✅ Auto-reply switched %s\n", onOff(on))
	return nil
}
