package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hyperjump/yowyob/internal/models"
)

// ListingsBySeller returns every listing owned by sellerID.
func (c *Client) ListingsBySeller(ctx context.Context, sellerID string) ([]models.Listing, error) {
	var out []models.Listing
	if err := c.get(ctx, PathSellerPrefix+url.PathEscape(sellerID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Listing(ctx context.Context, id string) (*models.Listing, error) {
	var out models.Listing
	if err := c.get(ctx, listingPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateListing(ctx context.Context, in models.ListingInput) (*models.Listing, error) {
	var out models.Listing
	if err := c.do(ctx, http.MethodPost, PathListings, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateListing(ctx context.Context, id string, in models.ListingInput) (*models.Listing, error) {
	var out models.Listing
	if err := c.do(ctx, http.MethodPut, listingPath(id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteListing(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, listingPath(id), nil, nil, nil)
}

func listingPath(id string) string {
	return PathListings + "/" + url.PathEscape(id)
}
