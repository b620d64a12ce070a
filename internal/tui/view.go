package tui

import (
	"strings"

	"github.com/adamavenir/storytime/internal/types"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	switch m.page {
	case pageReaders:
		b.WriteString(m.renderReaders())
	case pageLibrary:
		b.WriteString(m.renderLibrary())
	case pageBooks:
		b.WriteString(m.renderBooks())
	case pageNotifications:
		b.WriteString(m.renderNotifications())
	case pageAbout:
		b.WriteString(renderAbout())
	}

	if m.notice != "" {
		b.WriteString("\n\n")
		if m.noticeIsError {
			b.WriteString(errorStyle.Render(m.notice))
		} else {
			b.WriteString(successStyle.Render(m.notice))
		}
	}
	return m.zones.Scan(b.String())
}

func (m *Model) renderTabs() string {
	tabs := make([]string, 0, len(pageTitles)+1)
	tabs = append(tabs, titleStyle.Render("📚 storytime "))
	for i, title := range pageTitles {
		style := tabStyle
		if page(i) == m.page {
			style = activeTabStyle
		}
		tabs = append(tabs, m.zones.Mark(tabZone(page(i)), style.Render(title)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func renderAbout() string {
	lines := []string{
		titleStyle.Render("1000 Books Before Kindergarten"),
		"",
		"Reading " + humanize.Comma(types.GoalBooks) + " books before kindergarten sounds like a lot,",
		"but one book a night gets you there in under three years.",
		"Repeats count: every time you read a book, log it.",
		"",
		"Readers: choose who you are reading with.",
		"Library: search the catalog and press +Read when you finish a book.",
		"Book list: favorites and recent reads for each reader.",
		"Notifications: daily text reminders and this month's tally.",
		"",
		helpStyle.Render("[tab] next page  [1-5] jump to page  [q] quit"),
	}
	return strings.Join(lines, "\n")
}
