package tui

import (
	"context"
	"time"

	"github.com/adamavenir/storytime/internal/catalog"
	"github.com/adamavenir/storytime/internal/thumb"
	"github.com/adamavenir/storytime/internal/watch"
	"github.com/adamavenir/storytime/internal/workflow"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	searchTimeout = 15 * time.Second
	coverTimeout  = 15 * time.Second
	noticeTTL     = 4 * time.Second
)

type searchDoneMsg struct {
	outcome workflow.SearchOutcome
}

type coverMsg struct {
	generation uint64
	index      int
	thumb      *thumb.Thumbnail
	err        error
}

type avatarMsg struct {
	readerID string
	thumb    *thumb.Thumbnail
	err      error
}

type fileChangedMsg struct {
	name string
}

type watchErrMsg struct {
	err error
}

type clearNoticeMsg struct {
	seq int
}

func searchCmd(controller *workflow.Controller, ticket workflow.SearchTicket) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
		defer cancel()
		return searchDoneMsg{outcome: controller.Search(ctx, ticket)}
	}
}

func coverCmd(fetcher CoverFetcher, ticket workflow.CoverTicket) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), coverTimeout)
		defer cancel()
		img, err := fetcher.FetchCover(ctx, ticket.URL)
		return coverMsg{generation: ticket.Generation, index: ticket.Index, thumb: img, err: err}
	}
}

func avatarCmd(readerID, path string) tea.Cmd {
	return func() tea.Msg {
		img, err := thumb.Load(path, avatarCols, avatarRows)
		return avatarMsg{readerID: readerID, thumb: img, err: err}
	}
}

func waitForFileEvent(w *watch.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case event, ok := <-w.Events():
			if !ok {
				return nil
			}
			return fileChangedMsg{name: event.Name}
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			return watchErrMsg{err: err}
		}
	}
}

func clearNoticeAfter(seq int) tea.Cmd {
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}

const (
	coverCols  = catalog.CoverCols
	coverRows  = catalog.CoverRows
	avatarCols = 10
	avatarRows = 5
)
