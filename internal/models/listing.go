package models

import "time"

// Listing is a merchant listing as stored by the backend.
type Listing struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	SellerID    string    `json:"sellerId"`
	Address     string    `json:"address"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ListingInput creates or replaces a listing.
type ListingInput struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	Category    string  `json:"category" validate:"required"`
	SellerID    string  `json:"sellerId" validate:"required"`
	Address     string  `json:"address"`
	Latitude    float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// ListingStats summarizes a seller's dashboard.
type ListingStats struct {
	Total      int     `json:"total"`
	Active     int     `json:"active"`
	TotalValue float64 `json:"total_value"`
}

// Summarize computes dashboard stats over listings.
func Summarize(listings []Listing) ListingStats {
	var s ListingStats
	for _, l := range listings {
		s.Total++
		if l.Status == "" || l.Status == "ACTIVE" || l.Status == "active" {
			s.Active++
		}
		s.TotalValue += l.Price
	}
	return s
}
