package shared

import "strings"

const (
	// Sort directions
	SortAsc  = "asc"
	SortDesc = "desc"
)

// SortClause resolves a user supplied sort key against the allowed columns.
// Unknown keys fall back to def; the direction defaults to ascending.
func SortClause(allowed map[string]string, by, dir, def string) string {
	col, ok := allowed[by]
	if !ok {
		col = def
	}
	if strings.EqualFold(dir, SortDesc) {
		return col + " DESC"
	}
	return col + " ASC"
}
