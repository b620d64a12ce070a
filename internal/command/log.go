package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/adamavenir/storytime/internal/types"
	"github.com/adamavenir/storytime/internal/workflow"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// manualEntry answers every search with one book typed on the command line,
// so manual entries go through the same commit path as catalog results.
type manualEntry struct {
	result types.CatalogResult
}

func (m manualEntry) Search(context.Context, string) ([]types.CatalogResult, error) {
	return []types.CatalogResult{m.result}, nil
}

// NewLogCmd creates the log command.
func NewLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log [query]",
		Short: "Log a finished book for a reader",
		Long: `Log a finished book for a reader.

Either search the catalog and log one of the results:
  storytime log --reader Bellamy goodnight moon --pick 1

or enter the book by hand:
  storytime log --reader Bellamy --title "Goodnight Moon" --author "Margaret Wise Brown"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			readerID, _ := cmd.Flags().GetString("reader")
			title, _ := cmd.Flags().GetString("title")
			author, _ := cmd.Flags().GetString("author")
			isbn, _ := cmd.Flags().GetString("isbn")
			pick, _ := cmd.Flags().GetInt("pick")

			reg, err := ctx.Registry()
			if err != nil {
				return writeCommandError(cmd, err)
			}

			var source workflow.Catalog
			query := strings.Join(args, " ")
			if strings.TrimSpace(title) != "" {
				source = manualEntry{result: types.CatalogResult{
					Title:  strings.TrimSpace(title),
					Author: strings.TrimSpace(author),
					ISBN:   optionalString(isbn),
				}}
				query = title
				pick = 1
			} else {
				if strings.TrimSpace(query) == "" {
					return writeCommandError(cmd, fmt.Errorf("give a search query or --title"))
				}
				client, err := ctx.Catalog()
				if err != nil {
					return writeCommandError(cmd, err)
				}
				source = client
			}

			controller := workflow.New(source, ctx.Log, reg, ctx.Logger)
			if err := controller.SelectReader(readerID); err != nil {
				return writeCommandError(cmd, err)
			}
			ticket, err := controller.BeginSearch(query)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			controller.ApplySearch(controller.Search(context.Background(), ticket))
			if err := controller.SearchErr(); err != nil {
				return writeCommandError(cmd, err)
			}

			results := controller.Results()
			if len(results) == 0 {
				return writeCommandError(cmd, fmt.Errorf("no books matched %q", query))
			}
			if pick < 1 || pick > len(results) {
				out := cmd.OutOrStdout()
				for i, result := range results {
					fmt.Fprintln(out, formatResult(i, result))
				}
				return writeCommandError(cmd, fmt.Errorf("choose a result with --pick 1-%d", len(results)))
			}

			reader, err := controller.Commit(pick - 1)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			logged := results[pick-1]

			if ctx.JSONMode {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"reader": reader,
					"book":   logged,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %q for %s: %s book (%s / %s)\n",
				logged.Title, reader.ID, humanize.Ordinal(reader.ReadCount),
				humanize.Comma(int64(reader.ReadCount)), humanize.Comma(types.GoalBooks))
			if reader.ReadCount == types.GoalBooks {
				fmt.Fprintf(cmd.OutOrStdout(), "🎉 %s reached 1000 books!\n", reader.ID)
			}
			return nil
		},
	}

	cmd.Flags().String("reader", "", "reader to log the book for")
	cmd.Flags().String("title", "", "log a book by title without searching")
	cmd.Flags().String("author", "", "author for --title")
	cmd.Flags().String("isbn", "", "ISBN for --title")
	cmd.Flags().Int("pick", 0, "result number to log (from search)")
	_ = cmd.MarkFlagRequired("reader")
	return cmd
}
