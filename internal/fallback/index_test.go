package fallback

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/yowyob/internal/models"
)

func newTestIndex(t *testing.T, path string) *SuggestionIndex {
	t.Helper()
	idx, err := NewSuggestionIndex(path)
	if err != nil {
		t.Fatalf("NewSuggestionIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestSuggestionIndex_PrefixAndTypo(t *testing.T) {
	d, _ := Bundled()
	idx := newTestIndex(t, "")
	if err := idx.Rebuild(d.Records()); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	got, err := idx.Suggest(ctx, "burg", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 || got[0].Text != "Menu Burger King XL" {
		t.Errorf("Suggest(burg) = %+v, want the burger menu first", got)
	}
	if got[0].Type != string(models.TypeProduct) {
		t.Errorf("suggestion type = %q, want product", got[0].Type)
	}

	typo, err := idx.Suggest(ctx, "garaje", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(typo) == 0 || typo[0].Text != "Garage Auto Expert" {
		t.Errorf("Suggest(garaje) = %+v, want typo-tolerant match", typo)
	}
}

func TestSuggestionIndex_RebuildRemovesStale(t *testing.T) {
	idx := newTestIndex(t, "")
	ctx := context.Background()
	if err := idx.Rebuild([]models.SearchResult{{ID: "1", Name: "Pharmacie du Centre"}, {ID: "2", Name: "Boulangerie"}}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Rebuild([]models.SearchResult{{ID: "2", Name: "Boulangerie"}}); err != nil {
		t.Fatal(err)
	}
	n, err := idx.DocCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("DocCount() = %d, want 1", n)
	}
	got, _ := idx.Suggest(ctx, "pharma", 5)
	if len(got) != 0 {
		t.Errorf("stale record still suggested: %+v", got)
	}
}

func TestSuggestionIndex_LimitAndEmptyInput(t *testing.T) {
	d, _ := Bundled()
	idx := newTestIndex(t, "")
	_ = idx.Rebuild(d.Records())
	ctx := context.Background()

	if got, _ := idx.Suggest(ctx, "   ", 5); len(got) != 0 {
		t.Errorf("blank input returned %v", got)
	}
	got, err := idx.Suggest(ctx, "mode", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("limit 1 returned %d suggestions", len(got))
	}
}

func TestSuggestionIndex_OnDiskReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suggest.bleve")
	idx, err := NewSuggestionIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := idx.Rebuild([]models.SearchResult{{ID: "1", Name: "Marché Mokolo"}}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}
	reopened := newTestIndex(t, path)
	n, err := reopened.DocCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("reopened DocCount() = %d, want 1", n)
	}
}

func TestNewMapping(t *testing.T) {
	im := newMapping()
	if err := im.Validate(); err != nil {
		t.Fatal(err)
	}
	if im.DefaultType != "suggestion" || im.DefaultMapping != im.TypeMapping["suggestion"] {
		t.Errorf("default mapping not bound to suggestion documents: %q", im.DefaultType)
	}
}
