package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/adamavenir/storytime/internal/types"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

const (
	topBooksLimit = 25
	recentLimit   = 5
)

func (m *Model) handleBooksKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		m.reloadBooks()
		return m, nil
	case "]", "n":
		m.cycleReader(1)
		return m, nil
	case "[", "p":
		m.cycleReader(-1)
		return m, nil
	}
	var cmd tea.Cmd
	m.bookView, cmd = m.bookView.Update(msg)
	return m, cmd
}

func (m *Model) cycleReader(delta int) {
	readers := m.registry.List()
	if len(readers) == 0 {
		return
	}
	current := 0
	for i, reader := range readers {
		if reader.ID == m.controller.ActiveReader() {
			current = i
		}
	}
	next := (current + delta + len(readers)) % len(readers)
	m.readerIndex = next
	if err := m.controller.SelectReader(readers[next].ID); err != nil {
		m.logger.Error("select reader", zap.Error(err))
		return
	}
	m.reloadBooks()
}

// reloadBooks refreshes the aggregate view for the active reader from the
// log index, rebuilding the index first if the log changed.
func (m *Model) reloadBooks() {
	m.books = nil
	m.distinctBooks = 0
	m.booksErr = nil
	defer m.refreshBookView()

	reader, ok := m.activeReader()
	if !ok {
		return
	}
	if m.index == nil {
		m.booksErr = errors.New("book index unavailable")
		return
	}
	if err := m.index.Refresh(); err != nil {
		m.logger.Warn("refresh index", zap.Error(err))
		m.booksErr = err
		return
	}
	books, err := m.index.TopBooks(reader.ID, topBooksLimit)
	if err != nil {
		m.booksErr = err
		return
	}
	distinct, err := m.index.DistinctTitles(reader.ID)
	if err != nil {
		m.booksErr = err
		return
	}
	m.books = books
	m.distinctBooks = distinct
}

func (m *Model) refreshBookView() {
	m.bookView.SetContent(m.bookListContent())
}

func (m *Model) bookListContent() string {
	reader, ok := m.activeReader()
	if !ok {
		return emptyStyle.Render("Choose a reader to see their books.")
	}
	if m.booksErr != nil {
		return errorStyle.Render("Could not load the book list: " + m.booksErr.Error())
	}

	var b strings.Builder
	b.WriteString(nameStyle.Render(reader.ID))
	b.WriteString(metaStyle.Render(fmt.Sprintf("  %s books read · %s different titles",
		humanize.Comma(int64(reader.ReadCount)), humanize.Comma(int64(m.distinctBooks)))))
	b.WriteString("\n\n")

	if len(m.books) == 0 {
		b.WriteString(emptyStyle.Render("No books logged yet."))
		return b.String()
	}

	b.WriteString(titleStyle.Render("Favorites"))
	b.WriteString("\n")
	width := m.width - 16
	if width < 20 {
		width = 40
	}
	for i, tally := range m.books {
		line := tally.Title
		if tally.Author != "" {
			line += " · " + tally.Author
		}
		times := "once"
		if tally.Times > 1 {
			times = fmt.Sprintf("%d times", tally.Times)
		}
		b.WriteString(fmt.Sprintf("%3d. %s %s\n", i+1, ansi.Truncate(line, width, "…"), metaStyle.Render(times)))
	}

	if recent := m.recentBooks(reader.ID); len(recent) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("Recently read"))
		b.WriteString("\n")
		for _, entry := range recent {
			b.WriteString("  " + ansi.Truncate(entry.Title, width, "…") + "\n")
		}
	}
	return b.String()
}

func (m *Model) recentBooks(readerID string) []types.BookLogEntry {
	if m.log == nil {
		return nil
	}
	entries, err := m.log.ListByReader(readerID)
	if err != nil {
		m.logger.Warn("list books", zap.Error(err))
		return nil
	}
	if len(entries) > recentLimit {
		entries = entries[len(entries)-recentLimit:]
	}
	out := make([]types.BookLogEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
	}
	return out
}

func (m *Model) renderBooks() string {
	return m.bookView.View() + "\n" + helpStyle.Render("[↑/↓] scroll  [ [ / ] ] switch reader  [r] refresh")
}
