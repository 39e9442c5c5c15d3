package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/yowyob/internal/models"
)

// ListingsSheet is the worksheet name used by ExportListings and ImportListings.
const ListingsSheet = "Listings"

var listingColumns = []string{"ID", "Title", "Category", "Price", "Status", "Address", "Latitude", "Longitude", "Description"}

// ExportListings writes listings as an xlsx workbook, with a totals row under the data.
func ExportListings(w io.Writer, listings []models.Listing) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ListingsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(ListingsSheet, "A1", &listingColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, l := range listings {
		row := []interface{}{l.ID, l.Title, l.Category, l.Price, statusOf(l), l.Address, l.Latitude, l.Longitude, l.Description}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(ListingsSheet, cell, &row); err != nil {
			return fmt.Errorf("write listing %s: %w", l.ID, err)
		}
	}

	stats := models.Summarize(listings)
	totals := []interface{}{"TOTAL", fmt.Sprintf("%d listings", stats.Total), fmt.Sprintf("%d active", stats.Active), stats.TotalValue}
	cell, _ := excelize.CoordinatesToCellName(1, len(listings)+3)
	if err := f.SetSheetRow(ListingsSheet, cell, &totals); err != nil {
		return fmt.Errorf("write totals: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ImportListings reads listing inputs from the first sheet of an xlsx workbook laid out
// like ExportListings output. Rows with an empty title, and the totals row, are skipped.
func ImportListings(r io.Reader, sellerID string) ([]models.ListingInput, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := make(map[string]int)
	for i, name := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["title"]; !ok {
		return nil, fmt.Errorf("sheet %q has no Title column", sheets[0])
	}
	get := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	num := func(row []string, name string, line int) (float64, error) {
		v := get(row, name)
		if v == "" {
			return 0, nil
		}
		n, err := strconv.ParseFloat(strings.ReplaceAll(v, " ", ""), 64)
		if err != nil {
			return 0, fmt.Errorf("row %d: invalid %s %q", line, name, v)
		}
		return n, nil
	}

	var out []models.ListingInput
	for i, row := range rows[1:] {
		line := i + 2
		if get(row, "id") == "TOTAL" || get(row, "title") == "" {
			continue
		}
		in := models.ListingInput{
			Title:       get(row, "title"),
			Description: get(row, "description"),
			Category:    get(row, "category"),
			SellerID:    sellerID,
			Address:     get(row, "address"),
		}
		if in.Price, err = num(row, "price", line); err != nil {
			return nil, err
		}
		if in.Latitude, err = num(row, "latitude", line); err != nil {
			return nil, err
		}
		if in.Longitude, err = num(row, "longitude", line); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}
