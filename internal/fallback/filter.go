package fallback

import (
	"strings"

	"github.com/hyperjump/yowyob/internal/models"
)

// Matches reports whether r passes the type filter and contains query
// (case-insensitive) in its name, description, category or shop name.
// An empty typeFilter or query matches everything.
func Matches(r *models.SearchResult, typeFilter models.ResultType, query string) bool {
	if typeFilter != "" && r.Type != typeFilter {
		return false
	}
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(r.Name), q) ||
		strings.Contains(strings.ToLower(r.Description), q) ||
		strings.Contains(strings.ToLower(r.Category), q) ||
		strings.Contains(strings.ToLower(r.Shop.Name), q)
}

// Filter returns the records matching typeFilter and query, in dataset order.
func Filter(records []models.SearchResult, typeFilter models.ResultType, query string) []*models.SearchResult {
	out := make([]*models.SearchResult, 0, len(records))
	for i := range records {
		if Matches(&records[i], typeFilter, query) {
			r := records[i]
			out = append(out, &r)
		}
	}
	return out
}

// Search filters the current dataset records.
func (d *Dataset) Search(typeFilter models.ResultType, query string) []*models.SearchResult {
	return Filter(d.Records(), typeFilter, query)
}
