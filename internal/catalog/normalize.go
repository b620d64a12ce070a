package catalog

import (
	"strconv"
	"strings"

	"github.com/adamavenir/storytime/internal/types"
)

type searchResponse struct {
	Docs *[]searchDoc `json:"docs"`
}

type searchDoc struct {
	Title      *string  `json:"title"`
	AuthorName []string `json:"author_name"`
	ISBN       []string `json:"isbn"`
	CoverID    *int64   `json:"cover_i"`
}

// rankDocs ranks docs for query and converts them to results. Exact ISBN
// matches come first, then title or author substring matches; docs matching
// neither are dropped. Upstream order is kept within each group and the
// output holds at most MaxResults entries. query must already be normalized.
func rankDocs(query string, docs []searchDoc, coverBaseURL string) []types.CatalogResult {
	var exact, partial []searchDoc
	for _, doc := range docs {
		switch {
		case doc.matchesISBN(query):
			exact = append(exact, doc)
		case doc.matchesText(query):
			partial = append(partial, doc)
		}
	}

	ranked := append(exact, partial...)
	if len(ranked) > MaxResults {
		ranked = ranked[:MaxResults]
	}

	out := make([]types.CatalogResult, 0, len(ranked))
	for _, doc := range ranked {
		out = append(out, doc.toResult(coverBaseURL))
	}
	return out
}

func (d searchDoc) matchesISBN(query string) bool {
	for _, isbn := range d.ISBN {
		if strings.ToLower(strings.TrimSpace(isbn)) == query {
			return true
		}
	}
	return false
}

func (d searchDoc) matchesText(query string) bool {
	if d.Title != nil && strings.Contains(strings.ToLower(*d.Title), query) {
		return true
	}
	for _, author := range d.AuthorName {
		if strings.Contains(strings.ToLower(author), query) {
			return true
		}
	}
	return false
}

func (d searchDoc) toResult(coverBaseURL string) types.CatalogResult {
	result := types.CatalogResult{
		Title:  types.UnknownTitle,
		Author: strings.Join(d.AuthorName, ", "),
	}
	if d.Title != nil && strings.TrimSpace(*d.Title) != "" {
		result.Title = *d.Title
	}
	for _, isbn := range d.ISBN {
		if isbn = strings.TrimSpace(isbn); isbn != "" {
			result.ISBN = &isbn
			break
		}
	}
	if d.CoverID != nil && *d.CoverID > 0 && coverBaseURL != "" {
		cover := coverBaseURL + "/" + strconv.FormatInt(*d.CoverID, 10) + "-M.jpg"
		result.CoverURL = &cover
	}
	return result
}
