package core

import (
	"errors"
	"fmt"
)

// Error taxonomy surfaced to the workflow and the UI. Component boundaries
// convert transport and storage failures into one of these.
var (
	ErrInvalidQuery          = errors.New("invalid query")
	ErrCatalogUnavailable    = errors.New("catalog unavailable")
	ErrUnknownReader         = errors.New("unknown reader")
	ErrCommitFailed          = errors.New("commit failed")
	ErrImageFetchFailed      = errors.New("image fetch failed")
	ErrReminderNotConfigured = errors.New("reminders not configured")
)

// Wrap pairs a taxonomy sentinel with its cause so errors.Is matches both.
func Wrap(kind error, op string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, cause)
}
