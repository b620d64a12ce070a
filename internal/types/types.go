package types

// GoalBooks is the number of books the program counts toward.
const GoalBooks = 1000

// UnknownTitle is shown for catalog records that carry no title.
const UnknownTitle = "Unknown Title"

// Reader represents a tracked child and their cumulative read count.
type Reader struct {
	ID        string  `json:"id"`
	ReadCount int     `json:"read_count"`
	AvatarRef *string `json:"avatar_ref,omitempty"`
}

// Progress returns the fraction of the goal reached, capped at 1.
func (r Reader) Progress() float64 {
	if r.ReadCount <= 0 {
		return 0
	}
	if r.ReadCount >= GoalBooks {
		return 1
	}
	return float64(r.ReadCount) / float64(GoalBooks)
}

// ReaderSeed is a configured reader before counts are derived from the log.
type ReaderSeed struct {
	ID        string  `yaml:"id" json:"id"`
	AvatarRef *string `yaml:"avatar,omitempty" json:"avatar,omitempty"`
}

// CatalogResult is a normalized catalog search hit.
type CatalogResult struct {
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	ISBN     *string `json:"isbn,omitempty"`
	CoverURL *string `json:"cover_url,omitempty"`
}

// BookLogEntry is one persisted "book read" event.
type BookLogEntry struct {
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	ISBN     *string `json:"isbn,omitempty"`
	ReaderID string  `json:"reader"`
	Count    int     `json:"count"`
}

// NewBookLogEntry copies a catalog result into a log entry for a reader.
func NewBookLogEntry(result CatalogResult, readerID string) BookLogEntry {
	var isbn *string
	if result.ISBN != nil {
		value := *result.ISBN
		isbn = &value
	}
	return BookLogEntry{
		Title:    result.Title,
		Author:   result.Author,
		ISBN:     isbn,
		ReaderID: readerID,
		Count:    1,
	}
}

// ReminderStatus records the outcome of one SMS dispatch attempt.
type ReminderStatus string

const (
	ReminderStatusSent       ReminderStatus = "sent"
	ReminderStatusFailed     ReminderStatus = "failed"
	ReminderStatusSuppressed ReminderStatus = "suppressed"
)

// ReminderRecord is one line of the reminder history.
type ReminderRecord struct {
	ID      string         `json:"id"`
	Message string         `json:"message"`
	To      string         `json:"to,omitempty"`
	SID     *string        `json:"sid,omitempty"`
	Status  ReminderStatus `json:"status"`
	Error   *string        `json:"error,omitempty"`
	SentAt  int64          `json:"sent_at"`
}

// BookTally is an aggregated count of one title for a reader.
type BookTally struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Times  int    `json:"times"`
}
