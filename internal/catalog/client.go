// Package catalog queries the public book catalog and normalizes its results.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/adamavenir/storytime/internal/core"
	"github.com/adamavenir/storytime/internal/types"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// MaxResults caps both the upstream request and the ranked output.
	MaxResults = 20

	defaultTimeout  = 10 * time.Second
	maxResponseSize = 5 * 1024 * 1024
	userAgent       = "storytime/1.0 (1000 books before kindergarten tracker)"
)

// Options configure a Client.
type Options struct {
	SearchURL  string
	CoverURL   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Logger     *zap.Logger
}

// Client searches an Open Library compatible endpoint.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	searchURL  string
	coverURL   string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewClient creates a catalog client.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	limiter := opts.Limiter
	if limiter == nil {
		// Open Library asks clients to stay around one request per second.
		limiter = rate.NewLimiter(rate.Every(time.Second), 3)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: httpClient,
		limiter:    limiter,
		searchURL:  strings.TrimSpace(opts.SearchURL),
		coverURL:   strings.TrimRight(strings.TrimSpace(opts.CoverURL), "/"),
		timeout:    timeout,
		logger:     logger,
	}
}

// NormalizeQuery trims and case-folds a raw query. Blank input yields
// core.ErrInvalidQuery.
func NormalizeQuery(raw string) (string, error) {
	query := strings.ToLower(strings.TrimSpace(raw))
	if query == "" {
		return "", core.ErrInvalidQuery
	}
	return query, nil
}

// Search queries the catalog and returns ranked results. Every failure other
// than an invalid query is reported as core.ErrCatalogUnavailable.
func (c *Client) Search(ctx context.Context, raw string) ([]types.CatalogResult, error) {
	query, err := NormalizeQuery(raw)
	if err != nil {
		return nil, err
	}
	if c.searchURL == "" {
		return nil, core.Wrap(core.ErrCatalogUnavailable, "search", fmt.Errorf("search URL not configured"))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, core.Wrap(core.ErrCatalogUnavailable, "rate limit", err)
	}

	searchURL := c.buildSearchURL(query)
	c.logger.Debug("catalog search", zap.String("query", query), zap.String("url", searchURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, core.Wrap(core.ErrCatalogUnavailable, "create request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("catalog request failed", zap.String("query", query), zap.Error(err))
		return nil, core.Wrap(core.ErrCatalogUnavailable, "search request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("catalog returned error status", zap.String("query", query), zap.Int("status", resp.StatusCode))
		return nil, core.Wrap(core.ErrCatalogUnavailable, "search", fmt.Errorf("status %d", resp.StatusCode))
	}

	var body searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&body); err != nil {
		return nil, core.Wrap(core.ErrCatalogUnavailable, "parse response", err)
	}
	if body.Docs == nil {
		return nil, core.Wrap(core.ErrCatalogUnavailable, "parse response", fmt.Errorf("missing docs array"))
	}

	results := rankDocs(query, *body.Docs, c.coverURL)
	c.logger.Debug("catalog results",
		zap.String("query", query),
		zap.Int("upstream", len(*body.Docs)),
		zap.Int("ranked", len(results)))
	return results, nil
}

func (c *Client) buildSearchURL(query string) string {
	sep := "?"
	if strings.Contains(c.searchURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%sq=%s&limit=%d", c.searchURL, sep, url.QueryEscape(query), MaxResults)
}
