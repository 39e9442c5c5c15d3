// Package models defines core data structures for search results, queries, users, and listings.
package models

// ResultType is the normalized kind of a search result.
type ResultType string

const (
	TypeProduct ResultType = "product"
	TypeService ResultType = "service"
	TypeShop    ResultType = "shop"
)

// Valid reports whether t is one of the three display types.
func (t ResultType) Valid() bool {
	switch t {
	case TypeProduct, TypeService, TypeShop:
		return true
	}
	return false
}

// ShopInfo is the merchant attached to a result.
type ShopInfo struct {
	Name    string `json:"name" yaml:"name"`
	Address string `json:"address" yaml:"address"`
}

// Location is a WGS84 coordinate.
type Location struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// SearchResult is the display-ready shape every backend record is normalized into.
// After mapping, Type is always valid, Images has at least one element and Location is set.
type SearchResult struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Price       float64    `json:"price" yaml:"price"`
	Type        ResultType `json:"type" yaml:"type"`
	Category    string     `json:"category" yaml:"category"`
	City        string     `json:"city" yaml:"city"`
	Rating      float64    `json:"rating" yaml:"rating"`
	Images      []string   `json:"images" yaml:"images"`
	Shop        ShopInfo   `json:"shop" yaml:"shop"`
	Location    Location   `json:"location" yaml:"location"`
	Tags        []string   `json:"tags" yaml:"tags"`
	DetailsURL  string     `json:"detailsUrl,omitempty" yaml:"details_url,omitempty"`
}

// RawRecord is a backend search record as received. Every field is optional.
type RawRecord struct {
	ID          string    `json:"id" validate:"required"`
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description"`
	Price       *float64  `json:"price" validate:"omitempty,gte=0"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	City        string    `json:"city"`
	Rating      *float64  `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Images      []string  `json:"images"`
	Shop        *ShopInfo `json:"shop"`
	Location    *Location `json:"location"`
	Tags        []string  `json:"tags"`
	DetailsURL  string    `json:"detailsUrl"`
}

// SearchEnvelope is the backend search response body.
type SearchEnvelope struct {
	Success bool        `json:"success"`
	Results []RawRecord `json:"results"`
	Message string      `json:"message,omitempty"`
}

// SearchResponse is what the client layer returns for one executed search.
type SearchResponse struct {
	Query     string          `json:"query"`
	Tab       Tab             `json:"tab"`
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	Source    string          `json:"source"`
	NearMe    bool            `json:"near_me"`
	RequestID uint64          `json:"request_id"`
	QueryTime int64           `json:"query_time_ms"`
}
