// Package workflow drives the search-then-log flow for the active reader.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/adamavenir/storytime/internal/catalog"
	"github.com/adamavenir/storytime/internal/core"
	"github.com/adamavenir/storytime/internal/registry"
	"github.com/adamavenir/storytime/internal/types"
	"go.uber.org/zap"
)

// Catalog searches for books.
type Catalog interface {
	Search(ctx context.Context, query string) ([]types.CatalogResult, error)
}

// LogStore durably records committed books.
type LogStore interface {
	Append(entry types.BookLogEntry) error
}

// State is the controller's position in the search/commit cycle.
type State int

const (
	StateIdle State = iota
	StateSearching
	StateResultsShown
	StateCommitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StateResultsShown:
		return "results"
	case StateCommitting:
		return "committing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrNothingToCommit is returned when no reader is selected, a search is
// still in flight, or the chosen result does not exist.
var ErrNothingToCommit = errors.New("nothing to commit")

// SearchTicket identifies one submitted search.
type SearchTicket struct {
	Generation uint64
	Query      string
}

// SearchOutcome carries a finished search back to the controller.
type SearchOutcome struct {
	Generation uint64
	Query      string
	Results    []types.CatalogResult
	Err        error
}

// CoverTicket asks for the cover of one result of one search.
type CoverTicket struct {
	Generation uint64
	Index      int
	URL        string
}

// CommitListener is told about every successful commit, after the count
// has advanced.
type CommitListener func(reader types.Reader, entry types.BookLogEntry)

// Controller owns the active reader, the current result list and the commit
// sequence. It is not safe for concurrent use; the UI event loop owns it and
// only Search may run elsewhere.
type Controller struct {
	catalog  Catalog
	log      LogStore
	registry *registry.Registry
	logger   *zap.Logger

	state      State
	active     string
	generation uint64
	query      string
	results    []types.CatalogResult
	searchErr  error
	listeners  []CommitListener
}

// New creates a controller in the idle state.
func New(source Catalog, log LogStore, reg *registry.Registry, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		catalog:  source,
		log:      log,
		registry: reg,
		logger:   logger,
	}
}

// OnCommit registers a listener for successful commits.
func (c *Controller) OnCommit(listener CommitListener) {
	if listener != nil {
		c.listeners = append(c.listeners, listener)
	}
}

// SelectReader makes id the active reader, replacing any prior selection.
func (c *Controller) SelectReader(id string) error {
	if !c.registry.Has(id) {
		c.logger.Error("select unknown reader", zap.String("reader", id))
		return fmt.Errorf("select %q: %w", id, core.ErrUnknownReader)
	}
	c.active = id
	return nil
}

// ActiveReader returns the selected reader ID, or "" when none is selected.
func (c *Controller) ActiveReader() string {
	return c.active
}

// BeginSearch validates raw and starts a new search generation. An invalid
// query changes nothing.
func (c *Controller) BeginSearch(raw string) (SearchTicket, error) {
	query, err := catalog.NormalizeQuery(raw)
	if err != nil {
		return SearchTicket{}, err
	}
	c.generation++
	c.query = query
	c.results = nil
	c.searchErr = nil
	c.state = StateSearching
	c.logger.Debug("search started", zap.String("query", query), zap.Uint64("generation", c.generation))
	return SearchTicket{Generation: c.generation, Query: query}, nil
}

// Search runs the catalog call for ticket. It does not read or write
// controller state.
func (c *Controller) Search(ctx context.Context, ticket SearchTicket) SearchOutcome {
	results, err := c.catalog.Search(ctx, ticket.Query)
	if err != nil && !errors.Is(err, core.ErrCatalogUnavailable) && !errors.Is(err, core.ErrInvalidQuery) {
		err = core.Wrap(core.ErrCatalogUnavailable, "search", err)
	}
	if err != nil {
		results = nil
	}
	return SearchOutcome{
		Generation: ticket.Generation,
		Query:      ticket.Query,
		Results:    results,
		Err:        err,
	}
}

// ApplySearch installs a finished search. Outcomes from superseded searches
// are dropped and false is returned.
func (c *Controller) ApplySearch(outcome SearchOutcome) bool {
	if outcome.Generation != c.generation || c.state != StateSearching {
		c.logger.Debug("stale search discarded",
			zap.Uint64("generation", outcome.Generation),
			zap.Uint64("current", c.generation))
		return false
	}
	c.state = StateResultsShown
	if outcome.Err != nil {
		c.logger.Warn("search failed", zap.String("query", outcome.Query), zap.Error(outcome.Err))
		c.results = nil
		c.searchErr = outcome.Err
		return true
	}
	c.results = outcome.Results
	c.searchErr = nil
	return true
}

// CoverTickets lists the covers to fetch for the current results.
func (c *Controller) CoverTickets() []CoverTicket {
	var tickets []CoverTicket
	for i, result := range c.results {
		if result.CoverURL == nil || *result.CoverURL == "" {
			continue
		}
		tickets = append(tickets, CoverTicket{Generation: c.generation, Index: i, URL: *result.CoverURL})
	}
	return tickets
}

// AcceptCover reports whether a cover for (generation, index) still belongs
// to the visible result list.
func (c *Controller) AcceptCover(generation uint64, index int) bool {
	return generation == c.generation && index >= 0 && index < len(c.results)
}

// Commit logs results[index] for the active reader. The entry is appended
// first; the count only advances once the append is durable, and listeners
// run last. On append failure the count is untouched and the error wraps
// core.ErrCommitFailed.
func (c *Controller) Commit(index int) (types.Reader, error) {
	if c.state == StateSearching || c.state == StateCommitting {
		return types.Reader{}, fmt.Errorf("commit while %s: %w", c.state, ErrNothingToCommit)
	}
	if c.active == "" {
		return types.Reader{}, fmt.Errorf("no reader selected: %w", ErrNothingToCommit)
	}
	if index < 0 || index >= len(c.results) {
		return types.Reader{}, fmt.Errorf("result %d: %w", index, ErrNothingToCommit)
	}
	if !c.registry.Has(c.active) {
		c.logger.Error("active reader missing from registry", zap.String("reader", c.active))
		return types.Reader{}, fmt.Errorf("commit for %q: %w", c.active, core.ErrUnknownReader)
	}

	previous := c.state
	c.state = StateCommitting
	entry := types.NewBookLogEntry(c.results[index], c.active)

	if err := c.log.Append(entry); err != nil {
		c.state = previous
		if !errors.Is(err, core.ErrCommitFailed) {
			err = core.Wrap(core.ErrCommitFailed, "commit", err)
		}
		c.logger.Error("commit failed",
			zap.String("reader", entry.ReaderID),
			zap.String("title", entry.Title),
			zap.Error(err))
		return types.Reader{}, err
	}

	reader, err := c.registry.Increment(c.active)
	if err != nil {
		c.state = previous
		return types.Reader{}, err
	}
	c.state = StateIdle
	c.logger.Info("book logged",
		zap.String("reader", reader.ID),
		zap.String("title", entry.Title),
		zap.Int("count", reader.ReadCount))

	for _, listener := range c.listeners {
		listener(reader, entry)
	}
	return reader, nil
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Generation returns the current search generation.
func (c *Controller) Generation() uint64 {
	return c.generation
}

// Query returns the normalized query of the current search.
func (c *Controller) Query() string {
	return c.query
}

// Results returns the current result list. Commits do not clear it, so the
// same list can be used to log several books.
func (c *Controller) Results() []types.CatalogResult {
	return c.results
}

// SearchErr returns the failure of the current search, if any.
func (c *Controller) SearchErr() error {
	return c.searchErr
}
