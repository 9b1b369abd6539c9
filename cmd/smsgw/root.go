package main

import (
	"fmt"

	"smsgw/internal/version"

	"github.com/spf13/cobra"
)

// newRootCmd creates the root smsgw command with all subcommands attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "smsgw",
		Short:         "SMS gateway command queue and terminal dispatcher",
		Long:          "smsgw runs the gateway that queues SMS, call and USSD commands\nand dispatches them to connected GSM terminal pools.",
		Version:       fmt.Sprintf("smsgw %s", version.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.AddCommand(
		newServeCmd(),
		newQueueCmd(),
		newMessagesCmd(),
		newLogsCmd(),
		newDashCmd(),
	)

	return cmd
}
