package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tab is the active result tab of the search page.
type Tab string

const (
	TabAll      Tab = "all"
	TabShop     Tab = "shop"
	TabServices Tab = "services"
	TabProducts Tab = "products"
)

// ParseTab parses s into a Tab. An empty string is TabAll.
func ParseTab(s string) (Tab, error) {
	switch Tab(strings.ToLower(strings.TrimSpace(s))) {
	case "", TabAll:
		return TabAll, nil
	case TabShop:
		return TabShop, nil
	case TabServices:
		return TabServices, nil
	case TabProducts:
		return TabProducts, nil
	}
	return "", fmt.Errorf("unknown tab %q", s)
}

// TypeFilter returns the backend type filter for the tab, or "" for TabAll.
func (t Tab) TypeFilter() ResultType {
	switch t {
	case TabProducts:
		return TypeProduct
	case TabServices:
		return TypeService
	case TabShop:
		return TypeShop
	}
	return ""
}

// SortOrder orders merchant results.
type SortOrder string

const (
	SortRecent    SortOrder = "recent"
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortPopular   SortOrder = "popular"
)

// DefaultRadius is the default search radius in kilometres.
const DefaultRadius = 10

// Filters are the persisted search filters.
type Filters struct {
	Category string    `json:"category"`
	MinPrice *float64  `json:"minPrice"`
	MaxPrice *float64  `json:"maxPrice"`
	Location string    `json:"location"`
	Radius   int       `json:"radius"`
	SortBy   SortOrder `json:"sortBy"`
}

// DefaultFilters returns the initial filter set.
func DefaultFilters() Filters {
	return Filters{Radius: DefaultRadius, SortBy: SortRecent}
}

// FiltersPatch is a partial update of Filters; nil fields are left unchanged.
type FiltersPatch struct {
	Category *string    `json:"category,omitempty"`
	MinPrice PriceBound `json:"minPrice"`
	MaxPrice PriceBound `json:"maxPrice"`
	Location *string    `json:"location,omitempty"`
	Radius   *int       `json:"radius,omitempty"`
	SortBy   *SortOrder `json:"sortBy,omitempty"`
}

// PriceBound is a patchable price limit. Set distinguishes an explicit null
// (clear the bound) from an absent field.
type PriceBound struct {
	Set   bool
	Value *float64
}

// Bound returns a PriceBound that sets the limit to v.
func Bound(v float64) PriceBound {
	return PriceBound{Set: true, Value: &v}
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *PriceBound) UnmarshalJSON(data []byte) error {
	b.Set = true
	if string(data) == "null" {
		b.Value = nil
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid price bound: %w", err)
	}
	b.Value = &v
	return nil
}

// MarshalJSON implements json.Marshaler.
func (b PriceBound) MarshalJSON() ([]byte, error) {
	if b.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*b.Value)
}

// Merge returns f with the non-nil fields of p applied.
func (f Filters) Merge(p FiltersPatch) Filters {
	if p.Category != nil {
		f.Category = *p.Category
	}
	if p.MinPrice.Set {
		f.MinPrice = p.MinPrice.Value
	}
	if p.MaxPrice.Set {
		f.MaxPrice = p.MaxPrice.Value
	}
	if p.Location != nil {
		f.Location = *p.Location
	}
	if p.Radius != nil {
		f.Radius = *p.Radius
	}
	if p.SortBy != nil {
		f.SortBy = *p.SortBy
	}
	return f
}

// SearchQuery is one search request as issued by a front end.
type SearchQuery struct {
	Query string `json:"q"`
	Tab   Tab    `json:"tab"`
}

// Normalize trims the query and defaults the tab.
func (q *SearchQuery) Normalize() {
	q.Query = strings.TrimSpace(q.Query)
	if q.Tab == "" {
		q.Tab = TabAll
	}
}
