package db

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/adamavenir/storytime/internal/core"
	"github.com/adamavenir/storytime/internal/types"
)

// BookLogHeader is the header row of the book log file.
var BookLogHeader = []string{"title", "author", "isbn", "reader", "count"}

// BookLog is the append-only CSV record of every book read.
type BookLog struct {
	path string
}

// NewBookLog returns a book log backed by the file at path.
func NewBookLog(path string) *BookLog {
	return &BookLog{path: path}
}

// Path returns the backing file path.
func (l *BookLog) Path() string {
	return l.path
}

// Append durably writes one entry. The header is written with the first row.
// Failures are reported as core.ErrCommitFailed.
func (l *BookLog) Append(entry types.BookLogEntry) error {
	if entry.Count <= 0 {
		entry.Count = 1
	}
	if err := ensureDir(filepath.Dir(l.path)); err != nil {
		return core.Wrap(core.ErrCommitFailed, "append book log", err)
	}
	if err := appendCSVRecord(l.path, encodeBookLogEntry(entry)); err != nil {
		return core.Wrap(core.ErrCommitFailed, "append book log", err)
	}
	return nil
}

// List returns every entry in append order.
func (l *BookLog) List() ([]types.BookLogEntry, error) {
	rows, err := readCSVRows(l.path)
	if err != nil {
		return nil, err
	}
	entries := make([]types.BookLogEntry, 0, len(rows))
	for _, row := range rows {
		entry, ok := decodeBookLogEntry(row)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ListByReader returns the entries for one reader in append order.
func (l *BookLog) ListByReader(readerID string) ([]types.BookLogEntry, error) {
	all, err := l.List()
	if err != nil {
		return nil, err
	}
	var out []types.BookLogEntry
	for _, entry := range all {
		if entry.ReaderID == readerID {
			out = append(out, entry)
		}
	}
	return out, nil
}

// CountByReader tallies rows per reader.
func (l *BookLog) CountByReader() (map[string]int, error) {
	all, err := l.List()
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, entry := range all {
		counts[entry.ReaderID]++
	}
	return counts, nil
}

func encodeBookLogEntry(entry types.BookLogEntry) []string {
	isbn := ""
	if entry.ISBN != nil {
		isbn = *entry.ISBN
	}
	return []string{entry.Title, entry.Author, isbn, entry.ReaderID, strconv.Itoa(entry.Count)}
}

func decodeBookLogEntry(row []string) (types.BookLogEntry, bool) {
	if len(row) != len(BookLogHeader) {
		return types.BookLogEntry{}, false
	}
	count, err := strconv.Atoi(strings.TrimSpace(row[4]))
	if err != nil || count <= 0 {
		return types.BookLogEntry{}, false
	}
	if row[3] == "" {
		return types.BookLogEntry{}, false
	}
	entry := types.BookLogEntry{
		Title:    row[0],
		Author:   row[1],
		ReaderID: row[3],
		Count:    count,
	}
	if row[2] != "" {
		isbn := row[2]
		entry.ISBN = &isbn
	}
	return entry, true
}

// appendCSVRecord writes one record (and the header when the file is empty)
// in a single write under an exclusive lock, then syncs.
func appendCSVRecord(path string, record []string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return err
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	info, err := f.Stat()
	if err != nil {
		return err
	}

	size := info.Size()
	if size > 0 {
		torn, err := endsWithoutNewline(f, size)
		if err != nil {
			return err
		}
		if torn {
			// Drop the partial row of an interrupted write; an open quote
			// left in it would swallow every later row.
			if size, err = lastLineEnd(f, size); err != nil {
				return err
			}
			if err := f.Truncate(size); err != nil {
				return err
			}
		}
	}

	var buf bytes.Buffer
	if size == 0 {
		if err := writeCSV(&buf, BookLogHeader); err != nil {
			return err
		}
	}
	if err := writeCSV(&buf, record); err != nil {
		return err
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return err
	}
	return f.Sync()
}

func writeCSV(w io.Writer, record []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(record); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func endsWithoutNewline(f *os.File, size int64) (bool, error) {
	buf := make([]byte, 1)
	if _, err := f.ReadAt(buf, size-1); err != nil {
		return false, err
	}
	return buf[0] != '\n', nil
}

// lastLineEnd returns the offset just past the last newline before size,
// or 0 when there is none.
func lastLineEnd(f *os.File, size int64) (int64, error) {
	const chunk = 4096
	buf := make([]byte, chunk)
	end := size
	for end > 0 {
		start := end - chunk
		if start < 0 {
			start = 0
		}
		n, err := f.ReadAt(buf[:end-start], start)
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		if idx := bytes.LastIndexByte(buf[:n], '\n'); idx >= 0 {
			return start + int64(idx) + 1, nil
		}
		end = start
	}
	return 0, nil
}

// readCSVRows returns data rows, skipping the header, malformed rows and a
// trailing row left incomplete by an interrupted write.
func readCSVRows(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		if idx := bytes.LastIndexByte(data, '\n'); idx >= 0 {
			data = data[:idx+1]
		} else {
			data = nil
		}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	var rows [][]string
	first := true
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return nil, err
		}
		if first {
			first = false
			if isHeader(row) {
				continue
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isHeader(row []string) bool {
	if len(row) != len(BookLogHeader) {
		return false
	}
	for i, name := range BookLogHeader {
		if strings.TrimSpace(strings.TrimPrefix(row[i], "\ufeff")) != name {
			return false
		}
	}
	return true
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
