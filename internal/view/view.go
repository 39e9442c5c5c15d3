// Package view derives what the search page shows from search state: layout,
// page state, click targets, map markers and pagination.
package view

import (
	"fmt"
	"strings"

	"github.com/hyperjump/yowyob/internal/models"
)

// Layout is how results are arranged.
type Layout string

const (
	LayoutList  Layout = "list"
	LayoutGrid  Layout = "grid"
	LayoutSplit Layout = "split" // list beside the map
	LayoutMap   Layout = "map"
)

// LayoutFor returns the layout for a tab and map toggle. Shops browse as a grid
// without the map and as a full map with it; other tabs use a list, split with the map when shown.
func LayoutFor(tab models.Tab, showMap bool) Layout {
	switch {
	case tab == models.TabShop && showMap:
		return LayoutMap
	case tab == models.TabShop:
		return LayoutGrid
	case showMap:
		return LayoutSplit
	default:
		return LayoutList
	}
}

// PageState is the top-level state of the results area.
type PageState string

const (
	StateLoading     PageState = "loading"
	StateNotSearched PageState = "not_searched"
	StateNoResults   PageState = "no_results"
	StateResults     PageState = "results"
)

// StateFor returns the page state. Loading wins over everything else.
func StateFor(loading, hasSearched bool, resultCount int) PageState {
	switch {
	case loading:
		return StateLoading
	case !hasSearched:
		return StateNotSearched
	case resultCount == 0:
		return StateNoResults
	default:
		return StateResults
	}
}

// TargetKind says how a result click navigates.
type TargetKind string

const (
	TargetExternal TargetKind = "external" // open in a new tab
	TargetInternal TargetKind = "internal"
)

// Target is a click destination.
type Target struct {
	Kind TargetKind `json:"kind"`
	URL  string     `json:"url"`
}

// TargetFor returns where clicking r leads: an absolute details URL opens externally,
// a relative one is an internal route, and no URL falls back to the result detail page.
func TargetFor(r *models.SearchResult) Target {
	switch {
	case r.DetailsURL == "":
		return Target{Kind: TargetInternal, URL: "/search/" + r.ID}
	case strings.HasPrefix(r.DetailsURL, "http"):
		return Target{Kind: TargetExternal, URL: r.DetailsURL}
	default:
		return Target{Kind: TargetInternal, URL: r.DetailsURL}
	}
}

// Marker is one map pin.
type Marker struct {
	ID          string  `json:"id"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
}

// Markers builds map pins. Zero coordinates are replaced by def.
func Markers(results []*models.SearchResult, def models.Location) []Marker {
	out := make([]Marker, 0, len(results))
	for _, r := range results {
		lat, lng := r.Location.Lat, r.Location.Lng
		if lat == 0 {
			lat = def.Lat
		}
		if lng == 0 {
			lng = def.Lng
		}
		out = append(out, Marker{ID: r.ID, Lat: lat, Lng: lng, Title: r.Name, Description: r.Description})
	}
	return out
}

// MaxVisiblePages is the number of page buttons shown before ellipses are used.
const MaxVisiblePages = 7

// PageItem is a page button or an ellipsis.
type PageItem struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

func (p PageItem) String() string {
	if p.Ellipsis {
		return "..."
	}
	return fmt.Sprint(p.Page)
}

// PageNumbers returns the buttons for current of total pages: every page when
// total fits, otherwise first, last and the neighbours of current with ellipses between.
func PageNumbers(current, total int) []PageItem {
	if total <= 0 {
		return nil
	}
	var items []PageItem
	if total <= MaxVisiblePages {
		for i := 1; i <= total; i++ {
			items = append(items, PageItem{Page: i})
		}
		return items
	}
	items = append(items, PageItem{Page: 1})
	if current > 3 {
		items = append(items, PageItem{Ellipsis: true})
	}
	start := max(2, current-1)
	end := min(total-1, current+1)
	for i := start; i <= end; i++ {
		items = append(items, PageItem{Page: i})
	}
	if current < total-2 {
		items = append(items, PageItem{Ellipsis: true})
	}
	return append(items, PageItem{Page: total})
}

// Page is one page of results.
type Page struct {
	Number     int                    `json:"page"`
	TotalPages int                    `json:"total_pages"`
	Results    []*models.SearchResult `json:"results"`
	Buttons    []PageItem             `json:"buttons"`
}

// Paginate slices results into pages of size perPage and returns page n (1-based, clamped).
func Paginate(results []*models.SearchResult, n, perPage int) Page {
	if perPage <= 0 {
		perPage = len(results)
		if perPage == 0 {
			perPage = 1
		}
	}
	totalPages := (len(results) + perPage - 1) / perPage
	if n < 1 {
		n = 1
	}
	if totalPages > 0 && n > totalPages {
		n = totalPages
	}
	start := min((n-1)*perPage, len(results))
	end := min(start+perPage, len(results))
	return Page{
		Number:     n,
		TotalPages: totalPages,
		Results:    results[start:end],
		Buttons:    PageNumbers(n, totalPages),
	}
}

// Model is the full derived view of a search page.
type Model struct {
	State   PageState  `json:"state"`
	Layout  Layout     `json:"layout"`
	ShowMap bool       `json:"show_map"`
	Page    Page       `json:"page"`
	Markers []Marker   `json:"markers,omitempty"`
	Targets []Target   `json:"targets,omitempty"`
	Query   string     `json:"query"`
	Tab     models.Tab `json:"tab"`
}

// Input is the search state a Model is built from.
type Input struct {
	Query       string
	Tab         models.Tab
	ShowMap     bool
	Loading     bool
	HasSearched bool
	Results     []*models.SearchResult
	PageNumber  int
	PerPage     int
	DefaultLoc  models.Location
}

// Build derives the view model. Markers are only produced when the map is visible.
func Build(in Input) Model {
	m := Model{
		State:   StateFor(in.Loading, in.HasSearched, len(in.Results)),
		Layout:  LayoutFor(in.Tab, in.ShowMap),
		ShowMap: in.ShowMap,
		Page:    Paginate(in.Results, in.PageNumber, in.PerPage),
		Query:   in.Query,
		Tab:     in.Tab,
	}
	if in.ShowMap {
		m.Markers = Markers(in.Results, in.DefaultLoc)
	}
	m.Targets = make([]Target, 0, len(m.Page.Results))
	for _, r := range m.Page.Results {
		m.Targets = append(m.Targets, TargetFor(r))
	}
	return m
}
