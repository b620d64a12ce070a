package command

import (
	"fmt"

	"github.com/adamavenir/storytime/internal/core"
	"github.com/spf13/cobra"
)

// NewOptOutCmd creates the optout command.
func NewOptOutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "optout <on|off>",
		Short:     "Turn daily text reminders off (on) or back on (off)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			var optOut bool
			switch args[0] {
			case "on":
				optOut = true
			case "off":
				optOut = false
			default:
				return writeCommandError(cmd, fmt.Errorf("expected on or off, got %q", args[0]))
			}
			if err := core.SetSMSOptOut(ctx.Home, optOut); err != nil {
				return writeCommandError(cmd, err)
			}

			if ctx.JSONMode {
				return writeJSON(cmd.OutOrStdout(), map[string]bool{"opted_out": optOut})
			}
			if optOut {
				fmt.Fprintln(cmd.OutOrStdout(), "Daily text reminders are off")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Daily text reminders are on")
			}
			return nil
		},
	}
	return cmd
}
