package command

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adamavenir/storytime/internal/db"
	"github.com/adamavenir/storytime/internal/reminder"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// NewRemindCmd creates the remind command.
func NewRemindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Daily story-time text reminders",
	}
	cmd.AddCommand(newRemindRunCmd(), newRemindSendCmd(), newRemindStatusCmd())
	return cmd
}

func newScheduler(ctx *CommandContext) (*reminder.Scheduler, error) {
	sender, err := reminder.NewTwilioSender(ctx.Env)
	if err != nil {
		return nil, err
	}
	return reminder.New(reminder.Config{
		Home:       ctx.Home,
		At:         ctx.Env.RemindAt,
		Recipients: ctx.Env.RecipientList(),
		Sender:     sender,
		Logger:     ctx.Logger,
	})
}

func newRemindRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Send a reminder every day at STORYTIME_REMIND_AT",
		Long: `Run the reminder scheduler in the foreground.

Only one scheduler can run per data directory (enforced via lock file).
Use Ctrl+C or SIGTERM to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			scheduler, err := newScheduler(ctx)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Sending reminders daily at %s to %d recipient(s). Press Ctrl+C to stop.\n",
				ctx.Env.RemindAt, len(ctx.Env.RecipientList()))
			if err := scheduler.Run(runCtx); err != nil {
				return writeCommandError(cmd, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Reminder scheduler stopped")
			return nil
		},
	}
}

func newRemindSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send",
		Short: "Send one reminder now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			scheduler, err := newScheduler(ctx)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			dispatch, sendErr := scheduler.SendOnce(context.Background())

			if ctx.JSONMode {
				if err := writeJSON(cmd.OutOrStdout(), dispatch); err != nil {
					return err
				}
			} else if dispatch.Suppressed {
				fmt.Fprintln(cmd.OutOrStdout(), "Reminders are turned off (storytime optout off to turn them back on)")
			} else {
				for _, record := range dispatch.Records {
					if record.SID != nil {
						fmt.Fprintf(cmd.OutOrStdout(), "Sent message: %s\n", *record.SID)
					}
				}
			}
			if sendErr != nil {
				return writeCommandError(cmd, sendErr)
			}
			return nil
		},
	}
}

type remindStatus struct {
	Running       bool   `json:"running"`
	PID           int    `json:"pid,omitempty"`
	OptedOut      bool   `json:"opted_out"`
	NextAt        string `json:"next_at,omitempty"`
	ThisMonth     int    `json:"this_month"`
	LastSentAt    int64  `json:"last_sent_at,omitempty"`
	LastSentText  string `json:"last_sent_text,omitempty"`
	Configuration string `json:"configuration"`
}

func newRemindStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show reminder settings and this month's tally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			history, err := db.ReadReminders(ctx.Home.RemindersPath())
			if err != nil {
				return writeCommandError(cmd, err)
			}
			now := time.Now()

			status := remindStatus{
				OptedOut:      ctx.Settings.SMSOptOut,
				ThisMonth:     reminder.MonthCount(history, now),
				Configuration: "ok",
			}
			if info, ok := reminder.Running(ctx.Home.Dir); ok {
				status.Running = true
				status.PID = info.PID
			}
			if next, err := reminder.NextFire(now, ctx.Env.RemindAt); err == nil {
				status.NextAt = next.Format(time.RFC3339)
			}
			if last, ok := reminder.LastSent(history); ok {
				status.LastSentAt = last.SentAt
				status.LastSentText = last.Message
			}
			if err := ctx.Env.RequireSMS(); err != nil {
				status.Configuration = err.Error()
			}

			if ctx.JSONMode {
				return writeJSON(cmd.OutOrStdout(), status)
			}
			out := cmd.OutOrStdout()
			if status.Running {
				fmt.Fprintf(out, "Scheduler: running (pid %d)\n", status.PID)
			} else {
				fmt.Fprintln(out, "Scheduler: not running")
			}
			if status.OptedOut {
				fmt.Fprintln(out, "Texts: off")
			} else {
				fmt.Fprintln(out, "Texts: on")
			}
			if status.NextAt != "" {
				fmt.Fprintf(out, "Next reminder: %s\n", status.NextAt)
			}
			fmt.Fprintf(out, "Reminders this month: %d\n", status.ThisMonth)
			if status.LastSentAt != 0 {
				fmt.Fprintf(out, "Last sent %s: %s\n", humanize.Time(time.Unix(status.LastSentAt, 0)), status.LastSentText)
			}
			fmt.Fprintf(out, "Configuration: %s\n", status.Configuration)
			return nil
		},
	}
}
