package command

import (
	"fmt"
	"time"

	"github.com/adamavenir/storytime/internal/db"
	"github.com/adamavenir/storytime/internal/reminder"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type readerStats struct {
	ID             string  `json:"id"`
	ReadCount      int     `json:"read_count"`
	Progress       float64 `json:"progress"`
	DistinctTitles int     `json:"distinct_titles"`
}

type statsReport struct {
	Readers            []readerStats `json:"readers"`
	TotalBooks         int           `json:"total_books"`
	RemindersThisMonth int           `json:"reminders_this_month"`
}

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show reading totals for every reader",
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
			index, err := ctx.OpenIndex()
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer index.Close()

			var report statsReport
			for _, reader := range reg.List() {
				distinct, err := index.DistinctTitles(reader.ID)
				if err != nil {
					return writeCommandError(cmd, err)
				}
				report.Readers = append(report.Readers, readerStats{
					ID:             reader.ID,
					ReadCount:      reader.ReadCount,
					Progress:       reader.Progress(),
					DistinctTitles: distinct,
				})
				report.TotalBooks += reader.ReadCount
			}

			history, err := db.ReadReminders(ctx.Home.RemindersPath())
			if err != nil {
				return writeCommandError(cmd, err)
			}
			report.RemindersThisMonth = reminder.MonthCount(history, time.Now())

			if ctx.JSONMode {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			out := cmd.OutOrStdout()
			for _, r := range report.Readers {
				fmt.Fprintf(out, "%-16s %5s books  %5.1f%%  %s different titles\n",
					r.ID, humanize.Comma(int64(r.ReadCount)), r.Progress*100, humanize.Comma(int64(r.DistinctTitles)))
			}
			fmt.Fprintf(out, "Total: %s books\n", humanize.Comma(int64(report.TotalBooks)))
			fmt.Fprintf(out, "Reminders this month: %d\n", report.RemindersThisMonth)
			return nil
		},
	}
	return cmd
}
