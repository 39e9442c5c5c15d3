package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"

	"github.com/hyperjump/yowyob/internal/models"
)

// Search queries the standard search endpoint. An empty typ searches all types.
func (c *Client) Search(ctx context.Context, q string, typ models.ResultType) (*models.SearchEnvelope, error) {
	var env models.SearchEnvelope
	if err := c.get(ctx, PathSearch, searchParams(q, typ, ""), &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// NearMe queries the proximity endpoint for the caller at ip.
func (c *Client) NearMe(ctx context.Context, q string, typ models.ResultType, ip string) (*models.SearchEnvelope, error) {
	var env models.SearchEnvelope
	if err := c.get(ctx, PathNearMe, searchParams(q, typ, ip), &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func searchParams(q string, typ models.ResultType, ip string) url.Values {
	v := url.Values{}
	if q != "" {
		v.Set("q", q)
	}
	if typ != "" {
		v.Set("type", string(typ))
	}
	if ip != "" {
		v.Set("ip", ip)
	}
	return v
}

// Suggestions returns completion strings for q. The backend may answer with
// a bare array or with {"suggestions": [...]}.
func (c *Client) Suggestions(ctx context.Context, q string) ([]string, error) {
	var raw json.RawMessage
	if err := c.get(ctx, PathSuggestions, url.Values{"q": {q}}, &raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	var list []string
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var wrapped struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Suggestions, nil
}
