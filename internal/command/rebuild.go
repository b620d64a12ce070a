package command

import (
	"fmt"
	"os"

	"github.com/adamavenir/storytime/internal/db"
	"github.com/spf13/cobra"
)

// NewRebuildCmd creates the rebuild command.
func NewRebuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the book index from books_read.csv",
		Long: `Rebuild the SQLite book index from the authoritative CSV log.

Use this command when:
- You see schema errors (e.g., "no such column")
- The index file is corrupted
- After editing books_read.csv by hand`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			dbPath := ctx.Home.IndexPath()
			os.Remove(dbPath)
			os.Remove(dbPath + "-wal")
			os.Remove(dbPath + "-shm")

			index, err := db.OpenIndex(dbPath, ctx.Log)
			if err != nil {
				return writeCommandError(cmd, fmt.Errorf("rebuild: %w", err))
			}
			defer index.Close()

			entries, err := ctx.Log.List()
			if err != nil {
				return writeCommandError(cmd, err)
			}

			if ctx.JSONMode {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"status": "rebuilt", "rows": len(entries)})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Book index rebuilt from %d logged books\n", len(entries))
			return nil
		},
	}

	return cmd
}
