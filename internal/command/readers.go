package command

import (
	"fmt"

	"github.com/adamavenir/storytime/internal/core"
	"github.com/adamavenir/storytime/internal/types"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// NewReadersCmd creates the readers command.
func NewReadersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readers",
		Short: "List readers and their progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			reg, err := ctx.Registry()
			if err != nil {
				return writeCommandError(cmd, err)
			}
			readers := reg.List()

			if ctx.JSONMode {
				return writeJSON(cmd.OutOrStdout(), readers)
			}
			out := cmd.OutOrStdout()
			if len(readers) == 0 {
				fmt.Fprintln(out, "No readers yet. Add one with: storytime readers add <name>")
				return nil
			}
			for _, reader := range readers {
				fmt.Fprintf(out, "%-16s %5s / %s  (%s)\n",
					reader.ID,
					humanize.Comma(int64(reader.ReadCount)),
					humanize.Comma(types.GoalBooks),
					formatPercent(reader))
			}
			return nil
		},
	}

	cmd.AddCommand(NewReadersAddCmd())
	return cmd
}

// NewReadersAddCmd creates the readers add command.
func NewReadersAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a reader",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			avatar, _ := cmd.Flags().GetString("avatar")
			settings, err := core.AddReader(ctx.Home, args[0], avatar)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			added := settings.Readers[len(settings.Readers)-1]

			if ctx.JSONMode {
				return writeJSON(cmd.OutOrStdout(), added)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added reader %s\n", added.ID)
			return nil
		},
	}

	cmd.Flags().String("avatar", "", "path to an avatar image")
	return cmd
}
