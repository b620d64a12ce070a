// Package tui is the interactive storytime terminal UI.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/adamavenir/storytime/internal/core"
	"github.com/adamavenir/storytime/internal/db"
	"github.com/adamavenir/storytime/internal/registry"
	"github.com/adamavenir/storytime/internal/thumb"
	"github.com/adamavenir/storytime/internal/types"
	"github.com/adamavenir/storytime/internal/watch"
	"github.com/adamavenir/storytime/internal/workflow"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"go.uber.org/zap"
)

// CoverFetcher downloads result covers.
type CoverFetcher interface {
	FetchCover(ctx context.Context, url string) (*thumb.Thumbnail, error)
}

// Catalog is what the Library page needs from the catalog client.
type Catalog interface {
	workflow.Catalog
	CoverFetcher
}

// Options configure the UI.
type Options struct {
	Home     core.Home
	Catalog  Catalog
	Log      *db.BookLog
	Index    *db.Index
	Registry *registry.Registry
	Logger   *zap.Logger
	// CatalogErr is shown on the Library page when searching is unavailable,
	// for example because the catalog endpoints are not configured.
	CatalogErr error
}

// Run starts the UI and blocks until it exits.
func Run(opts Options) error {
	model := NewModel(opts)
	defer model.Close()

	if w, err := watch.New(opts.Home.Dir, []string{core.RemindersFile, core.BookLogFile}, 0); err == nil {
		model.watcher = w
	} else {
		model.logger.Warn("file watcher unavailable", zap.Error(err))
	}

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := program.Run()
	return err
}

type page int

const (
	pageReaders page = iota
	pageLibrary
	pageBooks
	pageNotifications
	pageAbout
)

var pageTitles = []string{"Readers", "Library", "Book list", "Notifications", "About"}

// Model implements the storytime UI.
type Model struct {
	home       core.Home
	catalog    Catalog
	catalogErr error
	log        *db.BookLog
	index      *db.Index
	registry   *registry.Registry
	controller *workflow.Controller
	logger     *zap.Logger
	watcher    *watch.Watcher
	zones      *zone.Manager

	page          page
	width         int
	height        int
	readerIndex   int
	resultIndex   int
	inputFocused  bool
	input         textinput.Model
	spinner       spinner.Model
	progress      progress.Model
	bookView      viewport.Model
	covers        map[int]*thumb.Thumbnail
	coverFailed   map[int]bool
	avatars       map[string]*thumb.Thumbnail
	avatarFailed  map[string]bool
	books         []types.BookTally
	distinctBooks int
	booksErr      error
	settings      *core.Settings
	history       []types.ReminderRecord
	notice        string
	noticeIsError bool
	noticeSeq     int
	now           func() time.Time
}

// NewModel builds the UI model.
func NewModel(opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	input := textinput.New()
	input.Placeholder = "Search by title, author or ISBN"
	input.CharLimit = 120
	input.Width = 40

	spin := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := &Model{
		home:         opts.Home,
		catalog:      opts.Catalog,
		catalogErr:   opts.CatalogErr,
		log:          opts.Log,
		index:        opts.Index,
		registry:     opts.Registry,
		logger:       logger,
		zones:        zone.New(),
		input:        input,
		spinner:      spin,
		progress:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
		bookView:     viewport.New(60, 15),
		covers:       make(map[int]*thumb.Thumbnail),
		coverFailed:  make(map[int]bool),
		avatars:      make(map[string]*thumb.Thumbnail),
		avatarFailed: make(map[string]bool),
		now:          time.Now,
	}
	if m.catalog == nil && m.catalogErr == nil {
		m.catalogErr = core.ErrCatalogUnavailable
	}

	var source workflow.Catalog
	if m.catalog != nil {
		source = m.catalog
	}
	m.controller = workflow.New(source, opts.Log, opts.Registry, logger)
	m.controller.OnCommit(m.handleCommitted)

	if readers := m.registry.List(); len(readers) > 0 {
		_ = m.controller.SelectReader(readers[0].ID)
	}
	m.reloadSettings()
	m.reloadHistory()
	return m
}

// Close releases the watcher.
func (m *Model) Close() {
	if m.watcher != nil {
		_ = m.watcher.Close()
	}
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForFileEvent(m.watcher)}
	for _, reader := range m.registry.List() {
		if reader.AvatarRef != nil && *reader.AvatarRef != "" {
			cmds = append(cmds, avatarCmd(reader.ID, *reader.AvatarRef))
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSizeMsg(msg)
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.MouseMsg:
		return m.handleMouseMsg(msg)
	case searchDoneMsg:
		return m.handleSearchDone(msg)
	case coverMsg:
		return m.handleCover(msg)
	case avatarMsg:
		return m.handleAvatar(msg)
	case fileChangedMsg:
		return m.handleFileChanged(msg)
	case watchErrMsg:
		m.logger.Warn("file watcher error", zap.Error(msg.err))
		return m, waitForFileEvent(m.watcher)
	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil
	case spinner.TickMsg:
		if m.controller.State() != workflow.StateSearching {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		if m.inputFocused {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}
}

func (m *Model) handleWindowSizeMsg(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	barWidth := msg.Width - avatarCols - 30
	if barWidth > 50 {
		barWidth = 50
	}
	if barWidth < 10 {
		barWidth = 10
	}
	m.progress.Width = barWidth
	if msg.Width > 20 {
		m.input.Width = msg.Width - 20
	}
	m.bookView.Width = msg.Width
	if msg.Height > 8 {
		m.bookView.Height = msg.Height - 8
	}
	m.refreshBookView()
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.inputFocused {
		return m.handleSearchInputKey(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab", "right", "l":
		return m.switchPage((m.page + 1) % page(len(pageTitles)))
	case "shift+tab", "left", "h":
		return m.switchPage((m.page + page(len(pageTitles)) - 1) % page(len(pageTitles)))
	case "1", "2", "3", "4", "5":
		return m.switchPage(page(msg.String()[0] - '1'))
	}

	switch m.page {
	case pageReaders:
		return m.handleReadersKey(msg)
	case pageLibrary:
		return m.handleLibraryKey(msg)
	case pageBooks:
		return m.handleBooksKey(msg)
	case pageNotifications:
		return m.handleNotificationsKey(msg)
	}
	return m, nil
}

func (m *Model) switchPage(next page) (tea.Model, tea.Cmd) {
	m.page = next
	switch next {
	case pageLibrary:
		m.inputFocused = true
		return m, m.input.Focus()
	case pageBooks:
		m.reloadBooks()
	case pageNotifications:
		m.reloadSettings()
		m.reloadHistory()
	}
	m.inputFocused = false
	m.input.Blur()
	return m, nil
}

func (m *Model) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		if m.page == pageBooks {
			var cmd tea.Cmd
			m.bookView, cmd = m.bookView.Update(msg)
			return m, cmd
		}
		return m, nil
	}
	for i := range pageTitles {
		if m.zones.Get(tabZone(page(i))).InBounds(msg) {
			return m.switchPage(page(i))
		}
	}
	switch m.page {
	case pageReaders:
		for i, reader := range m.registry.List() {
			if m.zones.Get(readerZone(reader.ID)).InBounds(msg) {
				m.readerIndex = i
				return m.chooseReader()
			}
		}
	case pageLibrary:
		for i := range m.controller.Results() {
			if m.zones.Get(readZone(i)).InBounds(msg) {
				m.resultIndex = i
				return m.commitSelected()
			}
		}
	case pageNotifications:
		if m.zones.Get(optOutZone).InBounds(msg) {
			return m.toggleOptOut()
		}
	}
	return m, nil
}

func (m *Model) setNotice(text string, isError bool) tea.Cmd {
	m.noticeSeq++
	m.notice = text
	m.noticeIsError = isError
	return clearNoticeAfter(m.noticeSeq)
}

func (m *Model) handleFileChanged(msg fileChangedMsg) (tea.Model, tea.Cmd) {
	switch msg.name {
	case core.RemindersFile:
		m.reloadHistory()
	case core.BookLogFile:
		m.resyncCounts()
		if m.page == pageBooks {
			m.reloadBooks()
		}
	}
	return m, waitForFileEvent(m.watcher)
}

// resyncCounts re-derives reader counts from the log so rows written by
// another process (storytime log) are reflected before the next commit.
func (m *Model) resyncCounts() {
	if m.log == nil {
		return
	}
	counts, err := m.log.CountByReader()
	if err != nil {
		m.logger.Warn("recount book log", zap.Error(err))
		return
	}
	m.registry.Resync(counts)
}

func (m *Model) handleCommitted(reader types.Reader, entry types.BookLogEntry) {
	if m.page == pageBooks {
		m.reloadBooks()
	}
	m.logger.Debug("reader refreshed", zap.String("reader", reader.ID), zap.Int("count", reader.ReadCount))
}

func (m *Model) reloadSettings() {
	settings, err := core.ReadSettings(m.home)
	if err != nil {
		m.logger.Warn("read settings", zap.Error(err))
		return
	}
	m.settings = settings
}

func (m *Model) reloadHistory() {
	history, err := db.ReadReminders(m.home.RemindersPath())
	if err != nil {
		m.logger.Warn("read reminder history", zap.Error(err))
		return
	}
	m.history = history
}

func (m *Model) activeReader() (types.Reader, bool) {
	id := m.controller.ActiveReader()
	if id == "" {
		return types.Reader{}, false
	}
	reader, err := m.registry.Get(id)
	if err != nil {
		return types.Reader{}, false
	}
	return reader, true
}

func tabZone(p page) string { return fmt.Sprintf("tab-%d", int(p)) }

func readerZone(id string) string { return "reader-" + id }

func readZone(index int) string { return fmt.Sprintf("read-%d", index) }

const optOutZone = "optout"
