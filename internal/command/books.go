package command

import (
	"fmt"

	"github.com/adamavenir/storytime/internal/types"
	"github.com/spf13/cobra"
)

// NewBooksCmd creates the books command.
func NewBooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Show a reader's most read books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			readerID, _ := cmd.Flags().GetString("reader")
			limit, _ := cmd.Flags().GetInt("limit")
			match, _ := cmd.Flags().GetString("match")

			reg, err := ctx.Registry()
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if _, err := reg.Get(readerID); err != nil {
				return writeCommandError(cmd, err)
			}

			index, err := ctx.OpenIndex()
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer index.Close()

			var books []types.BookTally
			if match != "" {
				books, err = index.MatchBooks(readerID, match)
				if len(books) > limit {
					books = books[:limit]
				}
			} else {
				books, err = index.TopBooks(readerID, limit)
			}
			if err != nil {
				return writeCommandError(cmd, err)
			}

			if ctx.JSONMode {
				return writeJSON(cmd.OutOrStdout(), books)
			}
			out := cmd.OutOrStdout()
			if len(books) == 0 {
				fmt.Fprintf(out, "No books logged for %s yet.\n", readerID)
				return nil
			}
			for i, book := range books {
				line := fmt.Sprintf("%3d. %s", i+1, book.Title)
				if book.Author != "" {
					line += " by " + book.Author
				}
				fmt.Fprintf(out, "%s  ×%d\n", line, book.Times)
			}
			return nil
		},
	}

	cmd.Flags().String("reader", "", "reader whose books to show")
	cmd.Flags().Int("limit", 20, "number of books to show")
	cmd.Flags().String("match", "", "only titles matching a glob, e.g. \"goodnight*\"")
	_ = cmd.MarkFlagRequired("reader")
	return cmd
}
