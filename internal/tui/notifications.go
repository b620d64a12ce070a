package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/adamavenir/storytime/internal/core"
	"github.com/adamavenir/storytime/internal/reminder"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

func (m *Model) handleNotificationsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "o", " ", "enter":
		return m.toggleOptOut()
	case "d":
		return m.toggleDesktopNotify()
	}
	return m, nil
}

// toggleOptOut flips the SMS opt-out flag. The scheduler reads it before
// every dispatch, so the change applies to the next reminder.
func (m *Model) toggleOptOut() (tea.Model, tea.Cmd) {
	m.reloadSettings()
	optOut := m.settings == nil || !m.settings.SMSOptOut
	if err := core.SetSMSOptOut(m.home, optOut); err != nil {
		m.logger.Error("save opt-out", zap.Error(err))
		return m, m.setNotice("Could not save your reminder preference.", true)
	}
	m.reloadSettings()
	if optOut {
		return m, m.setNotice("Daily text reminders are off.", false)
	}
	return m, m.setNotice("Daily text reminders are on.", false)
}

func (m *Model) toggleDesktopNotify() (tea.Model, tea.Cmd) {
	m.reloadSettings()
	if m.settings == nil {
		return m, nil
	}
	settings := *m.settings
	settings.DesktopNotify = !settings.DesktopNotify
	if err := core.WriteSettings(m.home, settings); err != nil {
		m.logger.Error("save settings", zap.Error(err))
		return m, m.setNotice("Could not save your notification preference.", true)
	}
	m.reloadSettings()
	return m, nil
}

func (m *Model) renderNotifications() string {
	var b strings.Builder
	now := m.now()

	optedOut := m.settings != nil && m.settings.SMSOptOut
	toggle := "[x] Send me daily story-time texts"
	if optedOut {
		toggle = "[ ] Send me daily story-time texts"
	}
	b.WriteString(m.zones.Mark(optOutZone, nameStyle.Render(toggle)))
	b.WriteString("\n")
	desktop := "[ ] Desktop notifications"
	if m.settings != nil && m.settings.DesktopNotify {
		desktop = "[x] Desktop notifications"
	}
	b.WriteString(desktop)
	b.WriteString("\n\n")

	count := reminder.MonthCount(m.history, now)
	b.WriteString(titleStyle.Render(fmt.Sprintf("%d reminder%s this month", count, plural(count))))
	b.WriteString("\n")
	if last, ok := reminder.LastSent(m.history); ok {
		b.WriteString(metaStyle.Render("Last sent " + humanize.Time(time.Unix(last.SentAt, 0))))
		b.WriteString("\n")
		b.WriteString("  " + last.Message + "\n")
	} else {
		b.WriteString(emptyStyle.Render("No reminders sent yet."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if info, ok := reminder.Running(m.home.Dir); ok {
		b.WriteString(successStyle.Render(fmt.Sprintf("Reminder scheduler running (pid %d, since %s)",
			info.PID, humanize.Time(time.Unix(info.StartedAt, 0)))))
	} else {
		b.WriteString(metaStyle.Render("Reminder scheduler not running. Start it with: storytime remind run"))
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("[o] toggle texts  [d] toggle desktop notifications"))
	return b.String()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
