package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/yowyob/internal/api"
	"github.com/hyperjump/yowyob/internal/auth"
	"github.com/hyperjump/yowyob/internal/config"
	"github.com/hyperjump/yowyob/internal/fallback"
	"github.com/hyperjump/yowyob/internal/mapper"
	"github.com/hyperjump/yowyob/internal/models"
	"github.com/hyperjump/yowyob/internal/search"
	"github.com/hyperjump/yowyob/internal/storage"
	"github.com/hyperjump/yowyob/internal/view"
)

type testServer struct {
	*Server
	cookie *http.Cookie
}

func newTestServer(t *testing.T, backend http.Handler) *testServer {
	t.Helper()
	upstream := httptest.NewServer(backend)
	t.Cleanup(upstream.Close)

	cfg := &config.Config{API: config.APIConfig{BaseURL: upstream.URL}}
	config.ApplyDefaults(cfg)
	cfg.Search.Debounce = 50 * time.Millisecond

	logger := zap.NewNop()
	client := api.NewClient(cfg.API)
	dataset, err := fallback.Bundled()
	if err != nil {
		t.Fatal(err)
	}
	index, err := fallback.NewSuggestionIndex("")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = index.Close() })
	if err := index.Rebuild(dataset.Records()); err != nil {
		t.Fatal(err)
	}
	st := storage.NewMemoryStorage()
	engine := search.NewEngine(client, dataset, mapper.New(mapper.DefaultsFromConfig(&cfg.Search)))
	authSvc := auth.NewService(client, st, cfg.Auth)

	srv := NewServer(client, engine, authSvc, st, dataset, index, cfg, logger)
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })
	return &testServer{Server: srv}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Content-Type", "application/json")
	if ts.cookie != nil {
		r.AddCookie(ts.cookie)
	}
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, r)
	for _, c := range w.Result().Cookies() {
		if c.Name == ts.config.Server.SessionCookie {
			ts.cookie = c
		}
	}
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func marketplace() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/search", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"results": []map[string]any{
				{"id": "1", "name": "Pizza Margherita", "type": "listing", "category": "Restauration"},
				{"id": "2", "name": "Pizzeria Roma", "type": "user", "detailsUrl": "https://roma.example"},
			},
		})
	})
	return mux
}

func TestHandleSearch_Remote(t *testing.T) {
	ts := newTestServer(t, marketplace())
	w := ts.do(t, http.MethodGet, "/api/v1/search?q=pizza&tab=products", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	if ts.cookie == nil {
		t.Fatal("expected a session cookie")
	}
	out := decode[searchPayload](t, w)
	if out.Source != search.SourceRemote || out.Total != 1 {
		t.Errorf("payload = %+v", out)
	}
	if out.View.State != view.StateResults || out.View.Layout != view.LayoutList {
		t.Errorf("view = %+v", out.View)
	}
	for _, r := range out.View.Page.Results {
		if r.Type != models.TypeProduct {
			t.Errorf("result %q has type %s", r.Name, r.Type)
		}
		if len(r.Images) == 0 {
			t.Errorf("result %q has no image", r.Name)
		}
	}

	w = ts.do(t, http.MethodGet, "/api/v1/search?q=pizza&tab=shop&map=true", nil)
	out = decode[searchPayload](t, w)
	if out.View.Layout != view.LayoutMap || len(out.View.Markers) != 1 || out.View.Targets[0].Kind != view.TargetExternal {
		t.Errorf("shop map view = %+v", out.View)
	}

	hist := decode[map[string][]string](t, ts.do(t, http.MethodGet, "/api/v1/history", nil))
	if len(hist["history"]) != 1 || hist["history"][0] != "pizza" {
		t.Errorf("history = %v", hist)
	}
}

func TestHandleSearch_ViewMatchesResponseDespiteLiveTyping(t *testing.T) {
	var (
		ts     *testServer
		cookie *http.Cookie
	)
	mux := marketplace()
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/search" && r.URL.Query().Get("q") == "pizza" {
			body := strings.NewReader(`{"q":"burger","tab":"all"}`)
			live := httptest.NewRequest(http.MethodPost, "/api/v1/search/live", body)
			live.AddCookie(cookie)
			ts.Handler().ServeHTTP(httptest.NewRecorder(), live)
		}
		mux.ServeHTTP(w, r)
	})
	ts = newTestServer(t, backend)
	ts.config.Search.Debounce = time.Second

	ts.do(t, http.MethodGet, "/api/v1/history", nil)
	cookie = ts.cookie
	out := decode[searchPayload](t, ts.do(t, http.MethodGet, "/api/v1/search?q=pizza", nil))
	if out.Query != "pizza" || out.View.Query != "pizza" {
		t.Errorf("payload query %q, view query %q", out.Query, out.View.Query)
	}
	if out.View.State != view.StateResults || len(out.View.Page.Results) != out.Total {
		t.Errorf("view = %+v, total %d", out.View, out.Total)
	}
}

func TestHandleSearch_NearMeUsesRequestIP(t *testing.T) {
	var gotIP string
	mux := marketplace()
	mux.HandleFunc("/api/search/near-me", func(w http.ResponseWriter, r *http.Request) {
		gotIP = r.URL.Query().Get("ip")
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "results": []map[string]any{
			{"id": "9", "name": "Pharmacie du Centre", "type": "user"},
		}})
	})
	ts := newTestServer(t, mux)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/search?q="+url.QueryEscape("pharmacie près de moi"), nil)
	r.Header.Set("X-Forwarded-For", "102.244.1.9")
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, r)

	out := decode[searchPayload](t, w)
	if !out.NearMe || gotIP != "102.244.1.9" {
		t.Errorf("near_me = %v, upstream ip = %q", out.NearMe, gotIP)
	}
}

func TestPublicIP(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"102.244.1.9:52814", "102.244.1.9"},
		{"102.244.1.9", "102.244.1.9"},
		{"[2c0f:f0f8::1]:443", "2c0f:f0f8::1"},
		{"127.0.0.1:1234", ""},
		{"192.168.1.20:80", ""},
		{"10.0.0.3", ""},
		{"[::1]:80", ""},
		{"not-an-ip", ""},
	}
	for _, tt := range tests {
		if got := publicIP(tt.addr); got != tt.want {
			t.Errorf("publicIP(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestSession_ConcurrentFirstRequestsShareOneSession(t *testing.T) {
	ts := newTestServer(t, marketplace())
	cookie := &http.Cookie{Name: ts.config.Server.SessionCookie, Value: uuid.NewString()}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
			r.AddCookie(cookie)
			ts.Handler().ServeHTTP(httptest.NewRecorder(), r)
		}()
	}
	wg.Wait()
	if n := ts.sessionCount(); n != 1 {
		t.Errorf("sessions = %d, want 1", n)
	}
}

func TestHandleSearch_FallbackWhenBackendDown(t *testing.T) {
	ts := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	out := decode[searchPayload](t, ts.do(t, http.MethodGet, "/api/v1/search?q=burger", nil))
	if out.Source != search.SourceFallback || out.Total == 0 {
		t.Errorf("payload = %+v", out)
	}
}

func TestHandleSearch_BadParams(t *testing.T) {
	ts := newTestServer(t, marketplace())
	for _, q := range []string{"tab=events", "page=0", "page=x", "map=maybe"} {
		w := ts.do(t, http.MethodGet, "/api/v1/search?q=a&"+q, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d", q, w.Code)
		}
	}
}

func TestHandleLiveSearch(t *testing.T) {
	ts := newTestServer(t, marketplace())
	for _, q := range []string{"p", "pi", "piz", "pizza"} {
		w := ts.do(t, http.MethodPost, "/api/v1/search/live", map[string]string{"q": q})
		if w.Code != http.StatusAccepted {
			t.Fatalf("status %d", w.Code)
		}
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		out := decode[struct {
			Search search.Snapshot `json:"search"`
			View   view.Model      `json:"view"`
		}](t, ts.do(t, http.MethodGet, "/api/v1/search/state", nil))
		if out.Search.HasSearched {
			if out.Search.RequestID != 1 || out.Search.Query != "pizza" || out.View.State != view.StateResults {
				t.Errorf("state = %+v", out)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("live search never settled")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHandleHistory(t *testing.T) {
	ts := newTestServer(t, marketplace())
	for _, q := range []string{"pizza", "burger frites", "pizza"} {
		ts.do(t, http.MethodGet, "/api/v1/search?q="+strings.ReplaceAll(q, " ", "+"), nil)
	}
	hist := decode[map[string][]string](t, ts.do(t, http.MethodGet, "/api/v1/history", nil))
	if strings.Join(hist["history"], ",") != "pizza,burger frites" {
		t.Errorf("history = %v", hist["history"])
	}
	hist = decode[map[string][]string](t, ts.do(t, http.MethodDelete, "/api/v1/history/burger%20frites", nil))
	if strings.Join(hist["history"], ",") != "pizza" {
		t.Errorf("after remove = %v", hist["history"])
	}
	hist = decode[map[string][]string](t, ts.do(t, http.MethodDelete, "/api/v1/history", nil))
	if len(hist["history"]) != 0 {
		t.Errorf("after clear = %v", hist["history"])
	}
}

func TestHandleFilters(t *testing.T) {
	ts := newTestServer(t, marketplace())
	f := decode[models.Filters](t, ts.do(t, http.MethodPut, "/api/v1/filters", map[string]any{"category": "Mode", "minPrice": 1000}))
	if f.Category != "Mode" || f.MinPrice == nil || *f.MinPrice != 1000 || f.Radius != models.DefaultRadius {
		t.Errorf("filters = %+v", f)
	}
	f = decode[models.Filters](t, ts.do(t, http.MethodPut, "/api/v1/filters", map[string]any{"minPrice": nil}))
	if f.MinPrice != nil || f.Category != "Mode" {
		t.Errorf("after clearing min price = %+v", f)
	}
	f = decode[models.Filters](t, ts.do(t, http.MethodDelete, "/api/v1/filters", nil))
	if f.Category != "" || f.SortBy != models.SortRecent {
		t.Errorf("after reset = %+v", f)
	}
}

func TestHandlePreferences(t *testing.T) {
	ts := newTestServer(t, marketplace())
	p := decode[preferences](t, ts.do(t, http.MethodPut, "/api/v1/preferences", map[string]any{"toggle": []string{"theme", "sidebar"}, "notifications": 2}))
	if p.Theme != "dark" || !p.SidebarOpen || p.MobileMenuOpen || p.Notifications != 2 {
		t.Errorf("prefs = %+v", p)
	}
	if w := ts.do(t, http.MethodPut, "/api/v1/preferences", map[string]any{"theme": "sepia"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown theme: status %d", w.Code)
	}
	if w := ts.do(t, http.MethodPut, "/api/v1/preferences", map[string]any{"toggle": []string{"footer"}}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown toggle: status %d", w.Code)
	}
}

func TestHandleSuggestions(t *testing.T) {
	mux := marketplace()
	mux.HandleFunc("/api/search/suggestions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"suggestions": []string{"pizza 4 fromages", "Pizza Margherita"}})
	})
	ts := newTestServer(t, mux)

	out := decode[map[string]any](t, ts.do(t, http.MethodGet, "/api/v1/suggestions?q=p", nil))
	if got := out["suggestions"].([]any); len(got) != 0 {
		t.Errorf("short query suggestions = %v", got)
	}

	ts.do(t, http.MethodGet, "/api/v1/search?q=pizza+margherita", nil)
	out = decode[map[string]any](t, ts.do(t, http.MethodGet, "/api/v1/suggestions?q=piz", nil))
	got := out["suggestions"].([]any)
	if len(got) != 2 || got[0] != "pizza margherita" || got[1] != "pizza 4 fromages" {
		t.Errorf("suggestions = %v", got)
	}
}

func TestHandleSuggestions_LocalIndexWhenBackendDown(t *testing.T) {
	ts := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	out := decode[map[string]any](t, ts.do(t, http.MethodGet, "/api/v1/suggestions?q=burg", nil))
	if out["source"] != "local" {
		t.Errorf("source = %v", out["source"])
	}
	found := false
	for _, v := range out["suggestions"].([]any) {
		found = found || v == "Menu Burger King XL"
	}
	if !found {
		t.Errorf("suggestions = %v", out["suggestions"])
	}
}

func TestAuthProfileAndListings(t *testing.T) {
	var gotAuth string
	mux := marketplace()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.AuthResponse{
			Success: true, AccessToken: "tok",
			User: &models.User{ID: "seller-1", Name: "Awa", Email: "awa@example.cm", Role: models.RoleMerchant},
		})
	})
	mux.HandleFunc("/api/user/profile", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, models.User{ID: "seller-1", Name: "Awa"})
	})
	mux.HandleFunc("/api/listings/seller/seller-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []models.Listing{{ID: "l1", Price: 1500}, {ID: "l2", Price: 500, Status: "SOLD"}})
	})
	mux.HandleFunc("/api/listings", func(w http.ResponseWriter, r *http.Request) {
		var in models.ListingInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		writeJSON(w, http.StatusCreated, models.Listing{ID: "l3", Title: in.Title, SellerID: in.SellerID})
	})
	ts := newTestServer(t, mux)

	if w := ts.do(t, http.MethodGet, "/api/v1/profile", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("profile before login: status %d", w.Code)
	}
	if w := ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "bad"}); w.Code != http.StatusBadRequest {
		t.Errorf("invalid login body: status %d", w.Code)
	}
	sv := decode[sessionView](t, ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "awa@example.cm", "password": "pw"}))
	if !sv.Authenticated || sv.UserID != "seller-1" {
		t.Fatalf("login = %+v", sv)
	}

	if w := ts.do(t, http.MethodGet, "/api/v1/profile", nil); w.Code != http.StatusOK || gotAuth != "Bearer tok" {
		t.Errorf("profile: status %d auth %q", w.Code, gotAuth)
	}

	list := decode[struct {
		Listings []models.Listing   `json:"listings"`
		Stats    models.ListingStats `json:"stats"`
	}](t, ts.do(t, http.MethodGet, "/api/v1/listings", nil))
	if len(list.Listings) != 2 || list.Stats.Active != 1 || list.Stats.TotalValue != 2000 {
		t.Errorf("listings = %+v", list)
	}

	if w := ts.do(t, http.MethodPost, "/api/v1/listings", map[string]any{"title": "Table", "price": -1, "category": "Maison"}); w.Code != http.StatusBadRequest {
		t.Errorf("invalid listing: status %d", w.Code)
	}
	created := decode[models.Listing](t, ts.do(t, http.MethodPost, "/api/v1/listings", map[string]any{"title": "Table", "price": 20000, "category": "Maison"}))
	if created.SellerID != "seller-1" {
		t.Errorf("created = %+v", created)
	}

	ts.do(t, http.MethodPost, "/api/v1/auth/logout", nil)
	if w := ts.do(t, http.MethodGet, "/api/v1/listings", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("listings after logout: status %d", w.Code)
	}
}

func TestHandleRegister_PasswordMismatch(t *testing.T) {
	ts := newTestServer(t, marketplace())
	w := ts.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": "Awa", "email": "awa@example.cm", "password": "secret1", "confirmPassword": "secret2",
	})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "passwords do not match") {
		t.Errorf("status %d body %s", w.Code, w.Body.String())
	}
}

func TestHandleStatusAndHealth(t *testing.T) {
	ts := newTestServer(t, marketplace())
	if w := ts.do(t, http.MethodGet, "/health", nil); w.Code != http.StatusOK {
		t.Errorf("health: %d", w.Code)
	}
	ts.do(t, http.MethodGet, "/api/v1/history", nil)
	out := decode[struct {
		Sessions        int    `json:"sessions"`
		FallbackRecords int    `json:"fallback_records"`
		SuggestionDocs  uint64 `json:"suggestion_docs"`
	}](t, ts.do(t, http.MethodGet, "/api/v1/status", nil))
	if out.Sessions != 1 || out.FallbackRecords != 9 || out.SuggestionDocs != 9 {
		t.Errorf("status = %+v", out)
	}
	if n := ts.sweep(0); n != 1 || ts.sessionCount() != 0 {
		t.Errorf("sweep dropped %d sessions, %d left", n, ts.sessionCount())
	}
}
