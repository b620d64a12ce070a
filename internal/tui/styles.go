package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("111"))
	tabStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Padding(0, 1)
	nameStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	metaStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	buttonStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("29")).Padding(0, 1)
	emptyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	cardStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
	activeCard     = cardStyle.BorderForeground(lipgloss.Color("220"))
)
