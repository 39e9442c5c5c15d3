package search

import (
	"fmt"

	"github.com/hyperjump/yowyob/internal/models"
)

// ProcessQuery validates and applies defaults to the search query.
func ProcessQuery(query *models.SearchQuery) error {
	query.Normalize()
	if _, err := models.ParseTab(string(query.Tab)); err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}
	return nil
}
