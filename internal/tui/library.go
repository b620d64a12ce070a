package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/adamavenir/storytime/internal/core"
	"github.com/adamavenir/storytime/internal/thumb"
	"github.com/adamavenir/storytime/internal/types"
	"github.com/adamavenir/storytime/internal/workflow"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

func (m *Model) handleSearchInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		return m.submitSearch()
	case tea.KeyEsc:
		m.inputFocused = false
		m.input.Blur()
		return m, nil
	case tea.KeyDown:
		if len(m.controller.Results()) > 0 {
			m.inputFocused = false
			m.input.Blur()
			return m, nil
		}
	case tea.KeyTab:
		return m.switchPage((m.page + 1) % page(len(pageTitles)))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleLibraryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	results := m.controller.Results()
	switch msg.String() {
	case "/", "i":
		m.inputFocused = true
		return m, m.input.Focus()
	case "up", "k":
		if m.resultIndex > 0 {
			m.resultIndex--
		} else {
			m.inputFocused = true
			return m, m.input.Focus()
		}
	case "down", "j":
		if m.resultIndex < len(results)-1 {
			m.resultIndex++
		}
	case "enter", "+", "r":
		return m.commitSelected()
	}
	return m, nil
}

// submitSearch starts a search for the input text. Blank input is ignored
// and leaves the current results in place.
func (m *Model) submitSearch() (tea.Model, tea.Cmd) {
	if m.catalogErr != nil {
		return m, m.setNotice("Search is unavailable: "+m.catalogErr.Error(), true)
	}
	ticket, err := m.controller.BeginSearch(m.input.Value())
	if err != nil {
		return m, nil
	}
	m.resultIndex = 0
	m.covers = make(map[int]*thumb.Thumbnail)
	m.coverFailed = make(map[int]bool)
	return m, tea.Batch(m.spinner.Tick, searchCmd(m.controller, ticket))
}

func (m *Model) handleSearchDone(msg searchDoneMsg) (tea.Model, tea.Cmd) {
	if !m.controller.ApplySearch(msg.outcome) {
		return m, nil
	}
	if len(m.controller.Results()) > 0 {
		m.inputFocused = false
		m.input.Blur()
	}
	var cmds []tea.Cmd
	for _, ticket := range m.controller.CoverTickets() {
		cmds = append(cmds, coverCmd(m.catalog, ticket))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleCover(msg coverMsg) (tea.Model, tea.Cmd) {
	if !m.controller.AcceptCover(msg.generation, msg.index) {
		return m, nil
	}
	if msg.err != nil {
		m.logger.Debug("cover unavailable", zap.Int("index", msg.index), zap.Error(msg.err))
		m.coverFailed[msg.index] = true
		return m, nil
	}
	m.covers[msg.index] = msg.thumb
	return m, nil
}

func (m *Model) commitSelected() (tea.Model, tea.Cmd) {
	results := m.controller.Results()
	if m.resultIndex < 0 || m.resultIndex >= len(results) {
		return m, nil
	}
	if m.controller.ActiveReader() == "" {
		return m, m.setNotice("Choose a reader on the Readers page first.", true)
	}
	title := results[m.resultIndex].Title

	reader, err := m.controller.Commit(m.resultIndex)
	switch {
	case err == nil:
		text := fmt.Sprintf("Logged %q for %s. That's book #%s (%s)!",
			title, reader.ID, humanize.Comma(int64(reader.ReadCount)), humanize.Ordinal(reader.ReadCount))
		return m, m.setNotice(text, false)
	case errors.Is(err, core.ErrCommitFailed):
		return m, m.setNotice("Could not save that book. The count was not changed.", true)
	case errors.Is(err, workflow.ErrNothingToCommit):
		return m, nil
	default:
		m.logger.Error("commit", zap.Error(err))
		return m, m.setNotice("Something went wrong logging that book.", true)
	}
}

func (m *Model) renderLibrary() string {
	var b strings.Builder

	if reader, ok := m.activeReader(); ok {
		b.WriteString(metaStyle.Render(fmt.Sprintf("Logging books for %s · %s read", reader.ID, humanize.Comma(int64(reader.ReadCount)))))
	} else {
		b.WriteString(errorStyle.Render("No reader selected"))
	}
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.catalogErr != nil:
		b.WriteString(emptyStyle.Render("Book search is unavailable. " + m.catalogErr.Error()))
	case m.controller.State() == workflow.StateSearching:
		b.WriteString(m.spinner.View() + " Searching for " + m.controller.Query() + "…")
	case m.controller.SearchErr() != nil:
		b.WriteString(emptyStyle.Render("Couldn't reach the catalog. Check your connection and try again."))
	case m.controller.Generation() == 0:
		b.WriteString(emptyStyle.Render("Type a title, author or ISBN and press enter."))
	case len(m.controller.Results()) == 0:
		b.WriteString(emptyStyle.Render("No books matched \"" + m.controller.Query() + "\"."))
	default:
		b.WriteString(m.renderResults())
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("[enter] search/log  [esc] results  [/] edit search  [tab] next page"))
	return b.String()
}

func (m *Model) renderResults() string {
	results := m.controller.Results()
	visible := m.visibleResults()
	start := 0
	if m.resultIndex >= visible {
		start = m.resultIndex - visible + 1
	}
	end := start + visible
	if end > len(results) {
		end = len(results)
	}

	textWidth := m.width - coverCols - 16
	if textWidth < 20 {
		textWidth = 20
	}

	var rows []string
	for i := start; i < end; i++ {
		rows = append(rows, m.renderResult(i, results[i], textWidth))
	}
	footer := metaStyle.Render(fmt.Sprintf("%d of %d results", m.resultIndex+1, len(results)))
	return lipgloss.JoinVertical(lipgloss.Left, append(rows, footer)...)
}

func (m *Model) visibleResults() int {
	if m.height <= 0 {
		return 3
	}
	n := (m.height - 12) / (coverRows + 1)
	if n < 1 {
		return 1
	}
	return n
}

func (m *Model) renderResult(index int, result types.CatalogResult, width int) string {
	var cover string
	switch {
	case m.covers[index] != nil:
		cover = m.covers[index].Render()
	case result.CoverURL == nil || m.coverFailed[index]:
		cover = thumb.Placeholder("No Cover", coverCols, coverRows)
	default:
		cover = thumb.Placeholder("…", coverCols, coverRows)
	}

	title := ansi.Truncate(result.Title, width, "…")
	if index == m.resultIndex && !m.inputFocused {
		title = selectedStyle.Render("▸ " + title)
	} else {
		title = nameStyle.Render(title)
	}
	author := result.Author
	if author == "" {
		author = "Unknown author"
	}
	lines := []string{title, metaStyle.Render(ansi.Truncate(author, width, "…"))}
	if result.ISBN != nil {
		lines = append(lines, metaStyle.Render("ISBN "+*result.ISBN))
	}
	lines = append(lines, "", m.zones.Mark(readZone(index), buttonStyle.Render("+Read")))

	return lipgloss.JoinHorizontal(lipgloss.Top, cover, "  ", lipgloss.JoinVertical(lipgloss.Left, lines...))
}
