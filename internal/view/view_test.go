package view

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hyperjump/yowyob/internal/models"
)

func TestLayoutFor(t *testing.T) {
	tests := []struct {
		tab     models.Tab
		showMap bool
		want    Layout
	}{
		{models.TabAll, false, LayoutList},
		{models.TabAll, true, LayoutSplit},
		{models.TabProducts, false, LayoutList},
		{models.TabServices, true, LayoutSplit},
		{models.TabShop, false, LayoutGrid},
		{models.TabShop, true, LayoutMap},
	}
	for _, tt := range tests {
		if got := LayoutFor(tt.tab, tt.showMap); got != tt.want {
			t.Errorf("LayoutFor(%s, %v) = %s, want %s", tt.tab, tt.showMap, got, tt.want)
		}
	}
}

func TestStateFor(t *testing.T) {
	tests := []struct {
		loading, searched bool
		n                 int
		want              PageState
	}{
		{true, true, 3, StateLoading},
		{true, false, 0, StateLoading},
		{false, false, 0, StateNotSearched},
		{false, true, 0, StateNoResults},
		{false, true, 2, StateResults},
	}
	for _, tt := range tests {
		if got := StateFor(tt.loading, tt.searched, tt.n); got != tt.want {
			t.Errorf("StateFor(%v, %v, %d) = %s, want %s", tt.loading, tt.searched, tt.n, got, tt.want)
		}
	}
}

func TestTargetFor(t *testing.T) {
	tests := []struct {
		r    models.SearchResult
		want Target
	}{
		{models.SearchResult{ID: "7", DetailsURL: "https://shop.example/p/7"}, Target{TargetExternal, "https://shop.example/p/7"}},
		{models.SearchResult{ID: "7", DetailsURL: "/shops/7"}, Target{TargetInternal, "/shops/7"}},
		{models.SearchResult{ID: "7"}, Target{TargetInternal, "/search/7"}},
	}
	for _, tt := range tests {
		if got := TargetFor(&tt.r); got != tt.want {
			t.Errorf("TargetFor(%+v) = %+v, want %+v", tt.r, got, tt.want)
		}
	}
}

func TestMarkers_DefaultCoordinate(t *testing.T) {
	def := models.Location{Lat: 3.848, Lng: 11.5021}
	got := Markers([]*models.SearchResult{
		{ID: "1", Name: "A", Location: models.Location{Lat: 4.05, Lng: 9.7}},
		{ID: "2", Name: "B"},
	}, def)
	want := []Marker{
		{ID: "1", Lat: 4.05, Lng: 9.7, Title: "A"},
		{ID: "2", Lat: 3.848, Lng: 11.5021, Title: "B"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Markers (-want +got):\n%s", diff)
	}
}

func render(items []PageItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	return strings.Join(parts, " ")
}

func TestPageNumbers(t *testing.T) {
	tests := []struct {
		current, total int
		want           string
	}{
		{1, 0, ""},
		{1, 1, "1"},
		{3, 7, "1 2 3 4 5 6 7"},
		{1, 10, "1 2 ... 10"},
		{3, 10, "1 2 3 4 ... 10"},
		{4, 10, "1 ... 3 4 5 ... 10"},
		{8, 10, "1 ... 7 8 9 10"},
		{10, 10, "1 ... 9 10"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_of_%d", tt.current, tt.total), func(t *testing.T) {
			if got := render(PageNumbers(tt.current, tt.total)); got != tt.want {
				t.Errorf("PageNumbers(%d, %d) = %q, want %q", tt.current, tt.total, got, tt.want)
			}
		})
	}
}

func results(n int) []*models.SearchResult {
	out := make([]*models.SearchResult, n)
	for i := range out {
		out[i] = &models.SearchResult{ID: fmt.Sprint(i + 1)}
	}
	return out
}

func TestPaginate(t *testing.T) {
	p := Paginate(results(45), 3, 20)
	if p.Number != 3 || p.TotalPages != 3 || len(p.Results) != 5 || p.Results[0].ID != "41" {
		t.Errorf("page = %+v", p)
	}
	p = Paginate(results(45), 99, 20)
	if p.Number != 3 {
		t.Errorf("clamped page = %d", p.Number)
	}
	p = Paginate(nil, 1, 20)
	if p.TotalPages != 0 || len(p.Results) != 0 || p.Buttons != nil {
		t.Errorf("empty page = %+v", p)
	}
}

func TestBuild(t *testing.T) {
	rs := []*models.SearchResult{{ID: "1", DetailsURL: "https://x"}, {ID: "2"}}
	m := Build(Input{Tab: models.TabShop, ShowMap: true, HasSearched: true, Results: rs, PageNumber: 1, PerPage: 20})
	if m.State != StateResults || m.Layout != LayoutMap || len(m.Markers) != 2 {
		t.Errorf("model = %+v", m)
	}
	if diff := cmp.Diff([]Target{{TargetExternal, "https://x"}, {TargetInternal, "/search/2"}}, m.Targets); diff != "" {
		t.Errorf("targets (-want +got):\n%s", diff)
	}

	m = Build(Input{Tab: models.TabAll, HasSearched: true, PerPage: 20})
	if m.State != StateNoResults || m.Markers != nil {
		t.Errorf("empty model = %+v", m)
	}
}
