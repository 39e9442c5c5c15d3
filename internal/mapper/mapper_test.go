package mapper

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hyperjump/yowyob/internal/models"
)

var testDefaults = Defaults{
	PlaceholderImage: "https://img.example/placeholder.jpg",
	ShopName:         "Commerçant local",
	City:             "Yaoundé",
	Location:         models.Location{Lat: 3.8480, Lng: 11.5021},
}

func ptr(f float64) *float64 { return &f }

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		in   string
		want models.ResultType
	}{
		{"listing", models.TypeProduct},
		{"LISTING", models.TypeProduct},
		{"user", models.TypeShop},
		{"User", models.TypeShop},
		{"", models.TypeProduct},
		{"Service", models.TypeService},
		{"shop", models.TypeShop},
		{"event", "event"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeType(tt.in); got != tt.want {
				t.Errorf("NormalizeType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMap_DefaultsEveryMissingField(t *testing.T) {
	m := New(testDefaults)
	got := m.Map(models.RawRecord{ID: "42", Name: "Poulet DG", Type: "listing", Category: "Restauration", City: "Douala"})
	want := models.SearchResult{
		ID:       "42",
		Name:     "Poulet DG",
		Type:     models.TypeProduct,
		Category: "Restauration",
		City:     "Douala",
		Images:   []string{testDefaults.PlaceholderImage},
		Shop:     models.ShopInfo{Name: "Commerçant local", Address: "Douala"},
		Location: testDefaults.Location,
		Tags:     []string{"Restauration"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Map() mismatch (-want +got):\n%s", diff)
	}
}

func TestMap_ShopAddressFallsBackToDefaultCity(t *testing.T) {
	got := New(testDefaults).Map(models.RawRecord{ID: "1", Name: "x", Type: "user"})
	if got.Type != models.TypeShop {
		t.Errorf("type = %q, want shop", got.Type)
	}
	if got.Shop.Address != "Yaoundé" {
		t.Errorf("shop address = %q, want default city", got.Shop.Address)
	}
	if got.Tags != nil {
		t.Errorf("tags = %v, want none when category is empty", got.Tags)
	}
}

func TestMap_KeepsProvidedFields(t *testing.T) {
	raw := models.RawRecord{
		ID:       "7",
		Name:     "Casino",
		Type:     "shop",
		Price:    ptr(0),
		Rating:   ptr(4.4),
		Images:   []string{"a.jpg", "b.jpg"},
		Shop:     &models.ShopInfo{Name: "Casino Mvog-Mbi", Address: "Mvog-Mbi"},
		Location: &models.Location{Lat: 3.856, Lng: 11.525},
		Tags:     []string{"Courses"},
	}
	got := New(testDefaults).Map(raw)
	if diff := cmp.Diff([]string{"a.jpg", "b.jpg"}, got.Images); diff != "" {
		t.Errorf("images (-want +got):\n%s", diff)
	}
	if got.Shop.Name != "Casino Mvog-Mbi" || got.Location.Lat != 3.856 || got.Rating != 4.4 {
		t.Errorf("provided fields not kept: %+v", got)
	}
	if diff := cmp.Diff([]string{"Courses"}, got.Tags); diff != "" {
		t.Errorf("tags (-want +got):\n%s", diff)
	}
}

func TestMap_NeverEmptyImages(t *testing.T) {
	m := New(testDefaults)
	for _, images := range [][]string{nil, {}, {""}, {"", ""}} {
		got := m.Map(models.RawRecord{ID: "1", Name: "n", Images: images})
		if len(got.Images) == 0 {
			t.Errorf("images %v mapped to empty slice", images)
		}
	}
}

func TestMapAll_StrictDropsAndLogs(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	m := New(testDefaults, WithStrict(true), WithLogger(zap.New(core)))
	got := m.MapAll([]models.RawRecord{
		{ID: "1", Name: "ok", Type: "listing"},
		{ID: "", Name: "missing id"},
		{ID: "3", Name: "bad price", Price: ptr(-1)},
		{ID: "4", Name: "odd type", Type: "event"},
	})
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("strict MapAll kept %d records, want only id 1", len(got))
	}
	if logs.Len() != 3 {
		t.Errorf("expected 3 warnings, got %d", logs.Len())
	}
}

func TestMapAll_LenientKeepsEverything(t *testing.T) {
	m := New(testDefaults)
	got := m.MapAll([]models.RawRecord{{ID: "1", Name: "a"}, {}})
	if len(got) != 2 {
		t.Fatalf("lenient MapAll returned %d records, want 2", len(got))
	}
	for _, r := range got {
		if !r.Type.Valid() || len(r.Images) == 0 {
			t.Errorf("record not defaulted: %+v", r)
		}
	}
}
