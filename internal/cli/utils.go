// Package cli provides output formatting and spreadsheet export for the yowyob command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hyperjump/yowyob/internal/models"
	"github.com/hyperjump/yowyob/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one line per item.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --format flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", OutputText:
		return OutputText, nil
	case OutputCompact, OutputJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
}

// WriteSearchResults writes search results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		for _, r := range response.Results {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Type, r.Name, utils.FormatPrice(r.Price))
		}
		return nil
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	origin := response.Source
	if response.NearMe {
		origin += ", near me"
	}
	fmt.Fprintf(w, "\nFound %d results for %q in %dms (%s)\n\n", response.Total, response.Query, response.QueryTime, origin)
	for i, result := range response.Results {
		writeOneResult(w, i+1, result)
	}
}

func writeOneResult(w io.Writer, rank int, result *models.SearchResult) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "%d. %s [%s]\n", rank, result.Name, result.Type)
	fmt.Fprintf(w, "ID: %s | Price: %s | Rating: %.1f\n", result.ID, utils.FormatPrice(result.Price), result.Rating)
	if result.Shop.Name != "" {
		fmt.Fprintf(w, "Shop: %s, %s\n", result.Shop.Name, result.Shop.Address)
	}
	if result.Description != "" {
		fmt.Fprintf(w, "\n%s\n", utils.Truncate(result.Description, 200))
	}
	fmt.Fprintln(w)
}

// PrintSearchResults prints search results to stdout in text format.
func PrintSearchResults(response *models.SearchResponse) {
	_ = WriteSearchResults(os.Stdout, response, OutputText)
}

// WriteHistory writes the recent search list, most recent first.
func WriteHistory(w io.Writer, history []string, format OutputFormat) error {
	if format == OutputJSON {
		if history == nil {
			history = []string{}
		}
		return writeJSON(w, map[string][]string{"history": history})
	}
	if len(history) == 0 && format != OutputCompact {
		fmt.Fprintln(w, "No recent searches.")
		return nil
	}
	for i, h := range history {
		if format == OutputCompact {
			fmt.Fprintln(w, h)
			continue
		}
		fmt.Fprintf(w, "%2d. %s\n", i+1, h)
	}
	return nil
}

// WriteListings writes a seller's listings followed by the dashboard stats.
func WriteListings(w io.Writer, listings []models.Listing, format OutputFormat) error {
	stats := models.Summarize(listings)
	switch format {
	case OutputJSON:
		if listings == nil {
			listings = []models.Listing{}
		}
		return writeJSON(w, map[string]interface{}{"listings": listings, "stats": stats})
	case OutputCompact:
		for _, l := range listings {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.ID, statusOf(l), l.Title, utils.FormatPrice(l.Price))
		}
		return nil
	}
	for _, l := range listings {
		fmt.Fprintf(w, "%-12s %-8s %-40s %14s\n", utils.Truncate(l.ID, 12), statusOf(l), utils.Truncate(l.Title, 37), utils.FormatPrice(l.Price))
	}
	fmt.Fprintf(w, "\n%d listings, %d active, total value %s\n", stats.Total, stats.Active, utils.FormatPrice(stats.TotalValue))
	return nil
}

func statusOf(l models.Listing) string {
	if l.Status == "" {
		return "ACTIVE"
	}
	return strings.ToUpper(l.Status)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
