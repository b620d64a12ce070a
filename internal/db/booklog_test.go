package db

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/adamavenir/storytime/internal/core"
	"github.com/adamavenir/storytime/internal/types"
)

func strPtr(value string) *string {
	return &value
}

func newTestLog(t *testing.T) *BookLog {
	t.Helper()
	return NewBookLog(filepath.Join(t.TempDir(), "books_read.csv"))
}

func TestBookLogRoundTrip(t *testing.T) {
	log := newTestLog(t)
	entry := types.BookLogEntry{
		Title:    "Goodnight Moon",
		Author:   "Margaret Wise Brown",
		ISBN:     strPtr("9780064430173"),
		ReaderID: "Bellamy",
		Count:    1,
	}
	if err := log.Append(entry); err != nil {
		t.Fatalf("append: %v", err)
	}

	reloaded := NewBookLog(log.Path())
	entries, err := reloaded.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if !reflect.DeepEqual(entries[0], entry) {
		t.Fatalf("round trip mismatch: %+v vs %+v", entries[0], entry)
	}
}

func TestBookLogWritesHeaderOnce(t *testing.T) {
	log := newTestLog(t)
	for _, title := range []string{"Goodnight Moon", "Corduroy", "Goodnight Moon"} {
		if err := log.Append(types.BookLogEntry{Title: title, ReaderID: "Bellamy"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	data, err := os.ReadFile(log.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines:\n%s", len(lines), data)
	}
	if lines[0] != "title,author,isbn,reader,count" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[3] != "Goodnight Moon,,,Bellamy,1" {
		t.Fatalf("unexpected row %q", lines[3])
	}
}

func TestBookLogQuotesAndAbsentISBN(t *testing.T) {
	log := newTestLog(t)
	entry := types.BookLogEntry{
		Title:    `Brown Bear, Brown Bear, What Do You See?`,
		Author:   `Bill Martin Jr., Eric Carle`,
		ReaderID: "Marceline",
		Count:    1,
	}
	if err := log.Append(entry); err != nil {
		t.Fatalf("append: %v", err)
	}
	entries, err := log.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || !reflect.DeepEqual(entries[0], entry) {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if entries[0].ISBN != nil {
		t.Fatalf("expected nil ISBN")
	}
}

func TestBookLogListByReaderAndCounts(t *testing.T) {
	log := newTestLog(t)
	appends := []struct{ title, reader string }{
		{"Goodnight Moon", "Bellamy"},
		{"Corduroy", "Marceline"},
		{"Madeline", "Bellamy"},
		{"Goodnight Moon", "Bellamy"},
	}
	for _, a := range appends {
		if err := log.Append(types.BookLogEntry{Title: a.title, ReaderID: a.reader}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	bellamy, err := log.ListByReader("Bellamy")
	if err != nil {
		t.Fatalf("list by reader: %v", err)
	}
	var titles []string
	for _, entry := range bellamy {
		titles = append(titles, entry.Title)
	}
	want := []string{"Goodnight Moon", "Madeline", "Goodnight Moon"}
	if !reflect.DeepEqual(titles, want) {
		t.Fatalf("expected %v, got %v", want, titles)
	}

	counts, err := log.CountByReader()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts["Bellamy"] != 3 || counts["Marceline"] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestBookLogMissingFile(t *testing.T) {
	log := newTestLog(t)
	entries, err := log.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func TestBookLogSurvivesTornWrite(t *testing.T) {
	log := newTestLog(t)
	if err := log.Append(types.BookLogEntry{Title: "Corduroy", ReaderID: "Bellamy"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	f, err := os.OpenFile(log.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.WriteString("Madeline,Ludwig Bemelmans,,Bell"); err != nil {
		t.Fatalf("write torn row: %v", err)
	}
	_ = f.Close()

	entries, err := log.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Corduroy" {
		t.Fatalf("expected only the complete row, got %+v", entries)
	}

	if err := log.Append(types.BookLogEntry{Title: "Madeline", ReaderID: "Bellamy"}); err != nil {
		t.Fatalf("append after torn row: %v", err)
	}
	entries, err = log.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 || entries[1].Title != "Madeline" {
		t.Fatalf("expected torn row skipped and new row kept, got %+v", entries)
	}
}

func TestBookLogTornQuotedRowDoesNotSwallowLaterRows(t *testing.T) {
	log := newTestLog(t)
	if err := log.Append(types.BookLogEntry{Title: "Corduroy", ReaderID: "Bellamy"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	f, err := os.OpenFile(log.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.WriteString(`"Goodnight, Mo`); err != nil {
		t.Fatalf("write torn row: %v", err)
	}
	_ = f.Close()

	for _, title := range []string{"Goodnight, Moon", "Madeline"} {
		if err := log.Append(types.BookLogEntry{Title: title, ReaderID: "Bellamy"}); err != nil {
			t.Fatalf("append %q: %v", title, err)
		}
	}

	entries, err := log.ListByReader("Bellamy")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var titles []string
	for _, entry := range entries {
		titles = append(titles, entry.Title)
	}
	want := []string{"Corduroy", "Goodnight, Moon", "Madeline"}
	if !reflect.DeepEqual(titles, want) {
		t.Fatalf("expected %v, got %v", want, titles)
	}

	data, err := os.ReadFile(log.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(data), `"Goodnight, Mo`+"\n") {
		t.Fatalf("expected torn row removed, got %q", data)
	}
}

func TestBookLogTornFirstRowKeepsHeader(t *testing.T) {
	log := newTestLog(t)
	if err := os.WriteFile(log.Path(), []byte(`title,author,isbn,reader,count`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := log.Append(types.BookLogEntry{Title: "Corduroy", ReaderID: "Bellamy"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	data, err := os.ReadFile(log.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(data), "title,author,isbn,reader,count\nCorduroy,") {
		t.Fatalf("expected header then row, got %q", data)
	}
}

func TestBookLogAppendFailureIsCommitFailed(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	log := NewBookLog(filepath.Join(blocker, "books_read.csv"))

	err := log.Append(types.BookLogEntry{Title: "Corduroy", ReaderID: "Bellamy"})
	if !errors.Is(err, core.ErrCommitFailed) {
		t.Fatalf("expected ErrCommitFailed, got %v", err)
	}
}

func TestBookLogReadsLegacyRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books_read.csv")
	content := "title,author,isbn,reader,count\r\n" +
		"Goodnight Moon,Margaret Wise Brown,9780064430173,Bellamy,1\r\n" +
		"Broken,row\r\n" +
		"No Count,Someone,,Bellamy,\r\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	entries, err := NewBookLog(path).List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Goodnight Moon" {
		t.Fatalf("expected only the valid row, got %+v", entries)
	}
}
