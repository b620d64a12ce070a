package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/adamavenir/storytime/internal/core"
	"github.com/adamavenir/storytime/internal/thumb"
	"go.uber.org/zap"
)

const (
	maxCoverSize = 10 * 1024 * 1024

	// CoverCols and CoverRows size result thumbnails in terminal cells.
	CoverCols = 8
	CoverRows = 6
)

// FetchCover downloads and decodes a cover image. Any failure, including an
// image that cannot be decoded, is reported as core.ErrImageFetchFailed.
func (c *Client) FetchCover(ctx context.Context, coverURL string) (*thumb.Thumbnail, error) {
	if coverURL == "" {
		return nil, core.Wrap(core.ErrImageFetchFailed, "fetch cover", fmt.Errorf("empty cover URL"))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return nil, core.Wrap(core.ErrImageFetchFailed, "create request", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, core.Wrap(core.ErrImageFetchFailed, "download cover", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.Wrap(core.ErrImageFetchFailed, "download cover", fmt.Errorf("status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverSize))
	if err != nil {
		return nil, core.Wrap(core.ErrImageFetchFailed, "read cover", err)
	}

	img, err := thumb.Decode(data, CoverCols, CoverRows)
	if err != nil {
		c.logger.Debug("cover not decodable", zap.String("url", coverURL), zap.Error(err))
		return nil, core.Wrap(core.ErrImageFetchFailed, "decode cover", err)
	}
	return img, nil
}
