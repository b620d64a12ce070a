package command

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/adamavenir/storytime/internal/types"
)

func writeJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

func formatPercent(reader types.Reader) string {
	return fmt.Sprintf("%.1f%%", reader.Progress()*100)
}

func formatResult(index int, result types.CatalogResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%2d. %s", index+1, result.Title)
	if result.Author != "" {
		fmt.Fprintf(&b, " by %s", result.Author)
	}
	if result.ISBN != nil {
		fmt.Fprintf(&b, " (ISBN %s)", *result.ISBN)
	}
	return b.String()
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
