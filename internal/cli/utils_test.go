package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/hyperjump/yowyob/internal/models"
)

func sampleResponse() *models.SearchResponse {
	return &models.SearchResponse{
		Query:     "burger",
		Tab:       models.TabAll,
		Source:    "remote",
		QueryTime: 42,
		Total:     2,
		Results: []*models.SearchResult{
			{
				ID:          "p1",
				Name:        "Menu Burger King XL",
				Type:        models.TypeProduct,
				Price:       4500,
				Rating:      4.5,
				Description: "Burger, frites et boisson",
				Shop:        models.ShopInfo{Name: "Burger King Bastos", Address: "Bastos, Yaoundé"},
			},
			{ID: "s1", Name: "Livraison express", Type: models.TypeService, Price: 1000},
		},
	}
}

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": OutputText, "TEXT": OutputText, "json": OutputJSON, " compact ": OutputCompact} {
		got, err := ParseOutputFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseOutputFormat("yaml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestWriteSearchResults_JSON(t *testing.T) {
	response := sampleResponse()
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, response, OutputJSON); err != nil {
		t.Fatalf("WriteSearchResults(json): %v", err)
	}
	var decoded models.SearchResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Query != response.Query || decoded.QueryTime != response.QueryTime {
		t.Errorf("decoded query=%q query_time=%d", decoded.Query, decoded.QueryTime)
	}
	if len(decoded.Results) != 2 || decoded.Results[0].ID != "p1" {
		t.Errorf("decoded results = %+v", decoded.Results)
	}
}

func TestWriteSearchResults_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatalf("WriteSearchResults(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{`Found 2 results for "burger"`, "42ms", "remote", "1. Menu Burger King XL [product]", "4 500 FCFA", "Shop: Burger King Bastos", "2. Livraison express"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteSearchResults_compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputCompact); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || lines[1] != "s1\tservice\tLivraison express\t1 000 FCFA" {
		t.Errorf("compact output = %q", lines)
	}
}

func TestWriteSearchResults_nearMe(t *testing.T) {
	response := &models.SearchResponse{Query: "pizza", Source: "remote", NearMe: true}
	var buf bytes.Buffer
	_ = WriteSearchResults(&buf, response, OutputText)
	if !strings.Contains(buf.String(), "(remote, near me)") {
		t.Errorf("got %q", buf.String())
	}
}

func TestWriteHistory(t *testing.T) {
	tests := []struct {
		name    string
		history []string
		format  OutputFormat
		want    string
	}{
		{"text", []string{"pizza", "garage"}, OutputText, " 1. pizza\n 2. garage\n"},
		{"empty text", nil, OutputText, "No recent searches.\n"},
		{"compact", []string{"pizza"}, OutputCompact, "pizza\n"},
		{"empty compact", nil, OutputCompact, ""},
		{"empty json", nil, OutputJSON, "{\n  \"history\": []\n}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteHistory(&buf, tt.history, tt.format); err != nil {
				t.Fatal(err)
			}
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestWriteListings(t *testing.T) {
	listings := []models.Listing{
		{ID: "l1", Title: "Table en bois", Price: 20000},
		{ID: "l2", Title: "Chaise", Price: 5000, Status: "sold"},
	}
	var buf bytes.Buffer
	if err := WriteListings(&buf, listings, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{"Table en bois", "SOLD", "2 listings, 1 active, total value 25 000 FCFA"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}

	buf.Reset()
	if err := WriteListings(&buf, nil, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Listings []models.Listing   `json:"listings"`
		Stats    models.ListingStats `json:"stats"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Listings == nil || decoded.Stats.Total != 0 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestPrintSearchResults(t *testing.T) {
	response := &models.SearchResponse{Query: "print test", QueryTime: 1, Source: "fallback"}
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() {
		os.Stdout = oldStdout
		_ = w.Close()
	}()
	PrintSearchResults(response)
	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	if !strings.Contains(buf.String(), "Found 0 results") {
		t.Errorf("PrintSearchResults should write to stdout; got %q", buf.String())
	}
}
