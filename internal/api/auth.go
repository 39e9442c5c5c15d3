package api

import (
	"context"
	"net/http"

	"github.com/hyperjump/yowyob/internal/models"
)

// Login exchanges credentials for tokens.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.do(ctx, http.MethodPost, PathLogin, nil, creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, reg models.Registration) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.do(ctx, http.MethodPost, PathRegister, nil, reg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GoogleExchange trades an OAuth authorization code for backend tokens.
func (c *Client) GoogleExchange(ctx context.Context, code, redirectURI string) (*models.AuthResponse, error) {
	body := map[string]string{"code": code, "redirectUri": redirectURI}
	var out models.AuthResponse
	if err := c.do(ctx, http.MethodPost, PathGoogle, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile returns the authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.get(ctx, PathProfile, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile applies a partial profile change and returns the result.
func (c *Client) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPut, PathProfile, nil, upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
