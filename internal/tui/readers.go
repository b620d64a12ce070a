package tui

import (
	"fmt"
	"strings"

	"github.com/adamavenir/storytime/internal/thumb"
	"github.com/adamavenir/storytime/internal/types"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

func (m *Model) handleReadersKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := m.registry.Len()
	switch msg.String() {
	case "up", "k":
		if m.readerIndex > 0 {
			m.readerIndex--
		}
	case "down", "j":
		if m.readerIndex < count-1 {
			m.readerIndex++
		}
	case "enter", "s":
		return m.chooseReader()
	case "b":
		if count > 0 {
			m.selectHighlightedReader()
			return m.switchPage(pageBooks)
		}
	}
	return m, nil
}

// chooseReader makes the highlighted reader active and opens the Library.
func (m *Model) chooseReader() (tea.Model, tea.Cmd) {
	if !m.selectHighlightedReader() {
		return m, nil
	}
	return m.switchPage(pageLibrary)
}

func (m *Model) selectHighlightedReader() bool {
	readers := m.registry.List()
	if m.readerIndex < 0 || m.readerIndex >= len(readers) {
		return false
	}
	if err := m.controller.SelectReader(readers[m.readerIndex].ID); err != nil {
		m.logger.Error("select reader", zap.Error(err))
		return false
	}
	return true
}

func (m *Model) handleAvatar(msg avatarMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Debug("avatar unavailable", zap.String("reader", msg.readerID), zap.Error(msg.err))
		m.avatarFailed[msg.readerID] = true
		return m, nil
	}
	m.avatars[msg.readerID] = msg.thumb
	return m, nil
}

func (m *Model) renderReaders() string {
	readers := m.registry.List()
	if len(readers) == 0 {
		return emptyStyle.Render("No readers yet. Add one with: storytime readers add <name>")
	}

	active := m.controller.ActiveReader()
	var b strings.Builder
	for i, reader := range readers {
		card := m.renderReaderCard(reader, i == m.readerIndex, reader.ID == active)
		b.WriteString(m.zones.Mark(readerZone(reader.ID), card))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("[↑/↓] choose  [enter] log a book  [b] book list"))
	return b.String()
}

func (m *Model) renderReaderCard(reader types.Reader, highlighted, active bool) string {
	avatar := m.avatars[reader.ID]
	var picture string
	if avatar != nil {
		picture = avatar.Render()
	} else {
		picture = thumb.Placeholder(initial(reader.ID), avatarCols, avatarRows)
	}

	name := nameStyle.Render(reader.ID)
	if highlighted {
		name = selectedStyle.Render("▸ " + reader.ID)
	}
	if active {
		name += metaStyle.Render("  (reading now)")
	}

	countLine := fmt.Sprintf("%s / %s books", humanize.Comma(int64(reader.ReadCount)), humanize.Comma(types.GoalBooks))
	remaining := types.GoalBooks - reader.ReadCount
	var status string
	if remaining <= 0 {
		status = successStyle.Render("Goal reached! 🎉")
	} else {
		status = metaStyle.Render(fmt.Sprintf("%s to go", humanize.Comma(int64(remaining))))
	}

	details := lipgloss.JoinVertical(lipgloss.Left,
		name,
		m.progress.ViewAs(reader.Progress()),
		countLine,
		status,
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, picture, "  ", details)
	if highlighted {
		return activeCard.Render(body)
	}
	return cardStyle.Render(body)
}

func initial(name string) string {
	for _, r := range name {
		return strings.ToUpper(string(r))
	}
	return "?"
}
