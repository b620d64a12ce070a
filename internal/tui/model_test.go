package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adamavenir/storytime/internal/core"
	"github.com/adamavenir/storytime/internal/db"
	"github.com/adamavenir/storytime/internal/registry"
	"github.com/adamavenir/storytime/internal/thumb"
	"github.com/adamavenir/storytime/internal/types"
	"github.com/adamavenir/storytime/internal/workflow"
	tea "github.com/charmbracelet/bubbletea"
)

type fakeCatalog struct {
	results map[string][]types.CatalogResult
	calls   int
}

func (f *fakeCatalog) Search(_ context.Context, query string) ([]types.CatalogResult, error) {
	f.calls++
	return f.results[query], nil
}

func (f *fakeCatalog) FetchCover(context.Context, string) (*thumb.Thumbnail, error) {
	return nil, core.ErrImageFetchFailed
}

func strPtr(value string) *string {
	return &value
}

func newTestModel(t *testing.T, logPath string) (*Model, *fakeCatalog) {
	t.Helper()
	home := core.NewHome(t.TempDir())
	if logPath == "" {
		logPath = home.BookLogPath()
	}
	cat := &fakeCatalog{results: map[string][]types.CatalogResult{
		"moon": {
			{Title: "Goodnight Moon", Author: "Margaret Wise Brown", ISBN: strPtr("9780064430173"), CoverURL: strPtr("https://covers.test/1-M.jpg")},
			{Title: "Papa, Please Get the Moon for Me", Author: "Eric Carle"},
		},
		"corduroy": {{Title: "Corduroy", Author: "Don Freeman"}},
	}}
	reg := registry.New([]types.ReaderSeed{{ID: "Bellamy"}, {ID: "Marceline"}}, nil)
	m := NewModel(Options{
		Home:     home,
		Catalog:  cat,
		Log:      db.NewBookLog(logPath),
		Registry: reg,
	})
	return m, cat
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// search submits query and delivers the finished search back to the model.
func search(t *testing.T, m *Model, query string) {
	t.Helper()
	m.input.SetValue(query)
	m.inputFocused = true
	m.Update(key("enter"))
	if m.controller.State() != workflow.StateSearching {
		t.Fatalf("expected searching, got %s", m.controller.State())
	}
	ticket := workflow.SearchTicket{Generation: m.controller.Generation(), Query: m.controller.Query()}
	m.Update(searchDoneMsg{outcome: m.controller.Search(context.Background(), ticket)})
}

func TestLibraryCommitAdvancesReader(t *testing.T) {
	m, _ := newTestModel(t, "")
	m.switchPage(pageLibrary)
	search(t, m, "Moon")

	if got := len(m.controller.Results()); got != 2 {
		t.Fatalf("expected 2 results, got %d", got)
	}
	if m.inputFocused {
		t.Fatalf("expected focus to move to results")
	}

	m.Update(key("j"))
	m.Update(key("enter"))

	reader, _ := m.registry.Get("Bellamy")
	if reader.ReadCount != 1 {
		t.Fatalf("expected count 1, got %d", reader.ReadCount)
	}
	rows, err := m.log.ListByReader("Bellamy")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].Title != "Papa, Please Get the Moon for Me" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if !strings.Contains(m.notice, "Logged") || m.noticeIsError {
		t.Fatalf("expected success notice, got %q", m.notice)
	}
}

func TestStaleSearchResultsAreDropped(t *testing.T) {
	m, _ := newTestModel(t, "")
	m.switchPage(pageLibrary)

	m.input.SetValue("moon")
	m.Update(key("enter"))
	stale := workflow.SearchTicket{Generation: m.controller.Generation(), Query: "moon"}

	m.inputFocused = true
	m.input.SetValue("corduroy")
	m.Update(key("enter"))
	current := workflow.SearchTicket{Generation: m.controller.Generation(), Query: "corduroy"}

	m.Update(searchDoneMsg{outcome: m.controller.Search(context.Background(), current)})
	m.Update(searchDoneMsg{outcome: m.controller.Search(context.Background(), stale)})

	results := m.controller.Results()
	if len(results) != 1 || results[0].Title != "Corduroy" {
		t.Fatalf("expected only the latest search, got %+v", results)
	}
}

func TestBlankSearchKeepsResults(t *testing.T) {
	m, cat := newTestModel(t, "")
	m.switchPage(pageLibrary)
	search(t, m, "moon")
	calls := cat.calls

	m.inputFocused = true
	m.input.SetValue("   ")
	_, cmd := m.Update(key("enter"))
	if cmd != nil {
		t.Fatalf("expected no command for a blank search")
	}
	if cat.calls != calls || len(m.controller.Results()) != 2 {
		t.Fatalf("expected results untouched")
	}
}

func TestCoversBindToGeneration(t *testing.T) {
	m, _ := newTestModel(t, "")
	m.switchPage(pageLibrary)
	search(t, m, "moon")
	old := m.controller.Generation()

	m.Update(coverMsg{generation: old, index: 0, err: core.ErrImageFetchFailed})
	if !m.coverFailed[0] {
		t.Fatalf("expected failed cover recorded for current search")
	}

	search(t, m, "corduroy")
	m.Update(coverMsg{generation: old, index: 0, thumb: &thumb.Thumbnail{}})
	if m.covers[0] != nil {
		t.Fatalf("expected stale cover ignored")
	}
	if !strings.Contains(m.View(), "Corduroy") {
		t.Fatalf("expected new results rendered")
	}
}

func TestCommitFailureShowsNotice(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	m, _ := newTestModel(t, filepath.Join(blocker, "books_read.csv"))
	m.switchPage(pageLibrary)
	search(t, m, "moon")

	m.Update(key("enter"))

	reader, _ := m.registry.Get("Bellamy")
	if reader.ReadCount != 0 {
		t.Fatalf("expected count unchanged, got %d", reader.ReadCount)
	}
	if !m.noticeIsError || !strings.Contains(m.notice, "not changed") {
		t.Fatalf("expected failure notice, got %q", m.notice)
	}
}

func TestCatalogUnavailableShowsInlineState(t *testing.T) {
	home := core.NewHome(t.TempDir())
	m := NewModel(Options{
		Home:       home,
		Log:        db.NewBookLog(home.BookLogPath()),
		Registry:   registry.New([]types.ReaderSeed{{ID: "Bellamy"}}, nil),
		CatalogErr: errors.New("set STORYTIME_SEARCH_URL"),
	})
	m.switchPage(pageLibrary)
	m.input.SetValue("moon")
	m.Update(key("enter"))

	if m.controller.State() != workflow.StateIdle {
		t.Fatalf("expected no search to start, got %s", m.controller.State())
	}
	if !strings.Contains(m.View(), "unavailable") {
		t.Fatalf("expected inline unavailable state")
	}
}

func TestReadersPageSelectsReader(t *testing.T) {
	m, _ := newTestModel(t, "")
	view := m.View()
	if !strings.Contains(view, "Bellamy") || !strings.Contains(view, "Marceline") {
		t.Fatalf("expected both readers rendered")
	}

	m.Update(key("j"))
	m.Update(key("enter"))
	if m.controller.ActiveReader() != "Marceline" {
		t.Fatalf("expected Marceline active, got %q", m.controller.ActiveReader())
	}
	if m.page != pageLibrary || !m.inputFocused {
		t.Fatalf("expected library page with focused search")
	}
}

func TestNotificationsToggleOptOut(t *testing.T) {
	m, _ := newTestModel(t, "")
	m.Update(key("4"))
	if m.page != pageNotifications {
		t.Fatalf("expected notifications page, got %d", m.page)
	}

	m.Update(key("o"))
	settings, err := core.ReadSettings(m.home)
	if err != nil {
		t.Fatalf("read settings: %v", err)
	}
	if !settings.SMSOptOut {
		t.Fatalf("expected opt-out saved")
	}

	m.Update(key("o"))
	settings, _ = core.ReadSettings(m.home)
	if settings.SMSOptOut {
		t.Fatalf("expected opt-out cleared")
	}
}

func TestNotificationsCountsMonth(t *testing.T) {
	m, _ := newTestModel(t, "")
	now := m.now()
	for i := 0; i < 3; i++ {
		record := types.ReminderRecord{ID: string(rune('a' + i)), Message: "Story time", Status: types.ReminderStatusSent, SentAt: now.Unix()}
		if err := db.AppendReminder(m.home.RemindersPath(), record); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	m.Update(fileChangedMsg{name: core.RemindersFile})
	m.page = pageNotifications
	if !strings.Contains(m.View(), "3 reminders this month") {
		t.Fatalf("expected monthly tally in view")
	}
}

func TestBookListUsesIndex(t *testing.T) {
	m, _ := newTestModel(t, "")
	for _, title := range []string{"Corduroy", "Goodnight Moon", "Corduroy"} {
		if err := m.log.Append(types.BookLogEntry{Title: title, ReaderID: "Bellamy"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	index, err := db.OpenIndex(m.home.IndexPath(), m.log)
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	t.Cleanup(func() { _ = index.Close() })
	m.index = index

	m.Update(key("3"))
	if len(m.books) != 2 || m.books[0].Title != "Corduroy" || m.books[0].Times != 2 {
		t.Fatalf("unexpected books %+v", m.books)
	}
	if m.distinctBooks != 2 {
		t.Fatalf("expected 2 distinct books, got %d", m.distinctBooks)
	}
}

func TestExternalLogWriteResyncsCounts(t *testing.T) {
	m, _ := newTestModel(t, "")
	other := db.NewBookLog(m.home.BookLogPath())
	if err := other.Append(types.BookLogEntry{Title: "Corduroy", Author: "Don Freeman", ReaderID: "Bellamy"}); err != nil {
		t.Fatalf("external append: %v", err)
	}

	m.Update(fileChangedMsg{name: core.BookLogFile})
	reader, _ := m.registry.Get("Bellamy")
	if reader.ReadCount != 1 {
		t.Fatalf("expected count 1 after external write, got %d", reader.ReadCount)
	}

	m.switchPage(pageLibrary)
	search(t, m, "moon")
	m.Update(key("enter"))

	rows, err := m.log.ListByReader("Bellamy")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	reader, _ = m.registry.Get("Bellamy")
	if len(rows) != 2 || reader.ReadCount != len(rows) {
		t.Fatalf("expected count to match rows: rows=%d count=%d", len(rows), reader.ReadCount)
	}
}
