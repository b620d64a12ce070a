package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/adamavenir/storytime/internal/core"
	"github.com/spf13/cobra"
)

func writeCommandError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())

	switch {
	case isSchemaError(err):
		fmt.Fprintln(cmd.ErrOrStderr(), "Hint: This looks like a stale book index. Try: storytime rebuild")
	case errors.Is(err, core.ErrCatalogUnavailable):
		fmt.Fprintln(cmd.ErrOrStderr(), "Hint: Set STORYTIME_SEARCH_URL and STORYTIME_COVER_URL (for example in ~/.storytime/.env)")
	case errors.Is(err, core.ErrReminderNotConfigured):
		fmt.Fprintln(cmd.ErrOrStderr(), "Hint: Set the Twilio credentials and RECIPIENT_PHONE_NUMBER in ~/.storytime/.env")
	case errors.Is(err, core.ErrUnknownReader):
		fmt.Fprintln(cmd.ErrOrStderr(), "Hint: List readers with: storytime readers")
	}

	return err
}

// isSchemaError checks if an error is a SQLite schema mismatch.
func isSchemaError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no such column") ||
		strings.Contains(msg, "no such table") ||
		strings.Contains(msg, "has no column")
}
