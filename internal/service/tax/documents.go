package tax

import (
	"strings"

	"github.com/taxmonster/backend/internal/model/tax"
)

// FilterDocuments keeps documents in category; "all" and "" match everything.
func FilterDocuments(docs []tax.Document, category string) []tax.Document {
	category = strings.ToLower(strings.TrimSpace(category))
	out := make([]tax.Document, 0, len(docs))
	for _, d := range docs {
		if category == "" || category == tax.CategoryAll || d.Category == category {
			out = append(out, d)
		}
	}
	return out
}
