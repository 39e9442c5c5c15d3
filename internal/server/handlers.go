package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/yowyob/internal/api"
	"github.com/hyperjump/yowyob/internal/auth"
	"github.com/hyperjump/yowyob/internal/models"
	"github.com/hyperjump/yowyob/internal/search"
	"github.com/hyperjump/yowyob/internal/storage"
	"github.com/hyperjump/yowyob/internal/store"
	"github.com/hyperjump/yowyob/internal/view"
)

type searchPayload struct {
	Query     string     `json:"query"`
	Tab       models.Tab `json:"tab"`
	Total     int        `json:"total"`
	Source    string     `json:"source,omitempty"`
	NearMe    bool       `json:"near_me"`
	RequestID uint64     `json:"request_id"`
	QueryTime int64      `json:"query_time_ms"`
	View      view.Model `json:"view"`
}

type searchParams struct {
	query   string
	tab     models.Tab
	showMap bool
	page    int
}

func parseSearchParams(q url.Values) (searchParams, error) {
	p := searchParams{query: q.Get("q"), page: 1}
	tab, err := models.ParseTab(q.Get("tab"))
	if err != nil {
		return p, err
	}
	p.tab = tab
	if v := q.Get("map"); v != "" {
		if p.showMap, err = strconv.ParseBool(v); err != nil {
			return p, errors.New("map must be a boolean")
		}
	}
	if v := q.Get("page"); v != "" {
		if p.page, err = strconv.Atoi(v); err != nil || p.page < 1 {
			return p, errors.New("page must be a positive integer")
		}
	}
	return p, nil
}

func (s *Server) viewInput(p searchParams, snap search.Snapshot) view.Input {
	return view.Input{
		Query:       snap.Query,
		Tab:         snap.Tab,
		ShowMap:     p.showMap,
		Loading:     snap.Loading,
		HasSearched: snap.HasSearched,
		Results:     snap.Results,
		PageNumber:  p.page,
		PerPage:     s.config.Search.ResultsPerPage,
		DefaultLoc:  models.Location{Lat: s.config.Search.DefaultLat, Lng: s.config.Search.DefaultLng},
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	p, err := parseSearchParams(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	cs, err := s.session(w, r)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Debug("search request", zap.String("query", p.query), zap.String("tab", string(p.tab)))
	cs.state.SetQuery(p.query)
	response, err := cs.search.Run(r.Context(), p.query, p.tab)
	if errors.Is(err, search.ErrSuperseded) {
		s.respondError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if strings.TrimSpace(p.query) != "" {
		if err := cs.state.AddToHistory(r.Context(), p.query); err != nil {
			s.logger.Warn("failed to record history", zap.Error(err))
		}
	}
	snap := search.Snapshot{
		Query:       response.Query,
		Tab:         response.Tab,
		Results:     response.Results,
		Source:      response.Source,
		NearMe:      response.NearMe,
		RequestID:   response.RequestID,
		HasSearched: true,
	}
	s.respondJSON(w, http.StatusOK, searchPayload{
		Query:     response.Query,
		Tab:       response.Tab,
		Total:     response.Total,
		Source:    response.Source,
		NearMe:    response.NearMe,
		RequestID: response.RequestID,
		QueryTime: response.QueryTime,
		View:      view.Build(s.viewInput(p, snap)),
	})
}

type liveRequest struct {
	Query string     `json:"q"`
	Tab   models.Tab `json:"tab"`
}

// handleLiveUpdate feeds keystrokes to the session's debounced orchestrator.
func (s *Server) handleLiveUpdate(w http.ResponseWriter, r *http.Request) {
	var req liveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tab, err := models.ParseTab(string(req.Tab))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	cs, err := s.session(w, r)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	cs.state.SetQuery(req.Query)
	cs.search.Update(req.Query, tab)
	s.respondJSON(w, http.StatusAccepted, cs.search.Snapshot())
}

func (s *Server) handleSearchState(w http.ResponseWriter, r *http.Request) {
	p, err := parseSearchParams(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	cs, err := s.session(w, r)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	snap := cs.search.Snapshot()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"search": snap,
		"view":   view.Build(s.viewInput(p, snap)),
	})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if len([]rune(strings.TrimSpace(q))) < s.config.Search.SuggestionMinLength {
		s.respondJSON(w, http.StatusOK, search.Suggestions{Items: []string{}})
		return
	}
	cs, err := s.session(w, r)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ctx := api.WithToken(r.Context(), s.auth.Token(r.Context(), cs.id))
	s.respondJSON(w, http.StatusOK, s.suggester.Suggest(ctx, q, cs.state.History()))
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	cs, err := s.session(w, r)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"history": cs.state.History()})
}

func (s *Server) handleHistoryClear(w http.ResponseWriter, r *http.Request) {
	cs, err := s.session(w, r)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := cs.state.ClearHistory(r.Context()); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"history": cs.state.History()})
}

func (s *Server) handleHistoryRemove(w http.ResponseWriter, r *http.Request) {
	entry, err := url.PathUnescape(chi.URLParam(r, "entry"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid history entry")
		return
	}
	cs, err := s.session(w, r)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := cs.state.RemoveFromHistory(r.Context(), entry); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"history": cs.state.History()})
}

func (s *Server) handleFiltersGet(w http.ResponseWriter, r *http.Request) {
	cs, err := s.session(w, r)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, cs.state.Filters())
}

func (s *Server) handleFiltersUpdate(w http.ResponseWriter, r *http.Request) {
	var patch models.FiltersPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cs, err := s.session(w, r)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := cs.state.SetFilters(r.Context(), patch); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, cs.state.Filters())
}

func (s *Server) handleFiltersReset(w http.ResponseWriter, r *http.Request) {
	cs, err := s.session(w, r)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := cs.state.ResetFilters(r.Context()); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, cs.state.Filters())
}

type preferences struct {
	Theme          store.Theme `json:"theme"`
	SidebarOpen    bool        `json:"sidebarOpen"`
	MobileMenuOpen bool        `json:"mobileMenuOpen"`
	Notifications  int         `json:"notifications"`
}

type preferencesUpdate struct {
	Theme         *store.Theme `json:"theme,omitempty"`
	Toggle        []string     `json:"toggle,omitempty"` // "theme", "sidebar", "mobile_menu"
	Notifications *int         `json:"notifications,omitempty"`
}

func preferencesOf(snap store.Snapshot) preferences {
	return preferences{
		Theme:          snap.Theme,
		SidebarOpen:    snap.SidebarOpen,
		MobileMenuOpen: snap.MobileMenuOpen,
		Notifications:  snap.Notifications,
	}
}

func (s *Server) handlePreferencesGet(w http.ResponseWriter, r *http.Request) {
	cs, err := s.session(w, r)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, preferencesOf(cs.state.Snapshot()))
}

func (s *Server) handlePreferencesUpdate(w http.ResponseWriter, r *http.Request) {
	var req preferencesUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cs, err := s.session(w, r)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ctx := r.Context()
	if req.Theme != nil {
		if err := cs.state.SetTheme(ctx, *req.Theme); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	for _, t := range req.Toggle {
		switch t {
		case "theme":
			err = cs.state.ToggleTheme(ctx)
		case "sidebar":
			cs.state.ToggleSidebar()
		case "mobile_menu":
			cs.state.ToggleMobileMenu()
		default:
			s.respondError(w, http.StatusBadRequest, "unknown toggle "+strconv.Quote(t))
			return
		}
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	if req.Notifications != nil {
		cs.state.SetNotifications(*req.Notifications)
	}
	s.respondJSON(w, http.StatusOK, preferencesOf(cs.state.Snapshot()))
}

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type googleRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirectUri"`
}

type sessionView struct {
	Authenticated bool        `json:"authenticated"`
	UserID        string      `json:"user_id,omitempty"`
	Name          string      `json:"name,omitempty"`
	Email         string      `json:"email,omitempty"`
	Role          models.Role `json:"role,omitempty"`
	Local         bool        `json:"local,omitempty"`
}

func viewOf(sess *models.Session) sessionView {
	if sess == nil {
		return sessionView{}
	}
	return sessionView{
		Authenticated: true,
		UserID:        sess.UserID,
		Name:          sess.Name,
		Email:         sess.Email,
		Role:          sess.Role,
		Local:         sess.Local,
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cs, err := s.session(w, r)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sess, err := s.auth.Login(r.Context(), cs.id, creds)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cs, err := s.session(w, r)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sess, err := s.auth.Register(r.Context(), cs.id, models.Registration{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, viewOf(sess))
}

func (s *Server) handleGoogle(w http.ResponseWriter, r *http.Request) {
	var req googleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cs, err := s.session(w, r)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sess, err := s.auth.Google(r.Context(), cs.id, req.Code, req.RedirectURI)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	cs, err := s.session(w, r)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.auth.Logout(r.Context(), cs.id); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, viewOf(nil))
}

// requireAuth returns the signed-in session, or writes 401 and returns nil.
func (s *Server) requireAuth(w http.ResponseWriter, r *http.Request) (*clientSession, *models.Session) {
	cs, err := s.session(w, r)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return nil, nil
	}
	sess, err := s.auth.Session(r.Context(), cs.id)
	if err != nil {
		s.respondFailure(w, err)
		return nil, nil
	}
	return cs, sess
}

func (s *Server) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	_, sess := s.requireAuth(w, r)
	if sess == nil {
		return
	}
	if sess.Local {
		s.respondJSON(w, http.StatusOK, models.User{ID: sess.UserID, Email: sess.Email, Name: sess.Name, Role: sess.Role})
		return
	}
	user, err := s.client.Profile(api.WithToken(r.Context(), sess.AccessToken))
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	var upd models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := models.Validate(upd); err != nil {
		s.respondFailure(w, err)
		return
	}
	_, sess := s.requireAuth(w, r)
	if sess == nil {
		return
	}
	if sess.Local {
		s.respondError(w, http.StatusServiceUnavailable, "profile updates need the backend")
		return
	}
	user, err := s.client.UpdateProfile(api.WithToken(r.Context(), sess.AccessToken), upd)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleListingsList(w http.ResponseWriter, r *http.Request) {
	_, sess := s.requireAuth(w, r)
	if sess == nil {
		return
	}
	listings, err := s.client.ListingsBySeller(api.WithToken(r.Context(), sess.AccessToken), sess.UserID)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	if listings == nil {
		listings = []models.Listing{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"listings": listings,
		"stats":    models.Summarize(listings),
	})
}

func (s *Server) handleListingsCreate(w http.ResponseWriter, r *http.Request) {
	var in models.ListingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	_, sess := s.requireAuth(w, r)
	if sess == nil {
		return
	}
	if in.SellerID == "" {
		in.SellerID = sess.UserID
	}
	if err := models.Validate(in); err != nil {
		s.respondFailure(w, err)
		return
	}
	listing, err := s.client.CreateListing(api.WithToken(r.Context(), sess.AccessToken), in)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, listing)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"sessions":         s.sessionCount(),
		"fallback_records": s.dataset.Len(),
	}
	if s.index != nil {
		if n, err := s.index.DocCount(); err == nil {
			resp["suggestion_docs"] = n
		}
	}
	configInfo := map[string]interface{}{
		"api_base_url":    s.config.API.BaseURL,
		"storage_driver":  s.config.Storage.Driver,
		"debounce_ms":     s.config.Search.Debounce.Milliseconds(),
		"strict_records":  s.config.Search.StrictRecords,
		"near_me_enabled": s.config.Geo.EnabledOrDefault(),
	}
	if path := s.dataset.Path(); path != "" {
		configInfo["dataset_path"] = path
	}
	if sq, ok := s.storage.(*storage.SQLiteStorage); ok {
		configInfo["database_path"] = s.config.Storage.DatabasePath
		if n, err := sq.SizeBytes(); err == nil {
			resp["disk_usage_bytes"] = n
		}
	}
	resp["config"] = configInfo
	s.respondJSON(w, http.StatusOK, resp)
}

// respondFailure maps service errors to HTTP statuses.
func (s *Server) respondFailure(w http.ResponseWriter, err error) {
	var (
		ve     *models.ValidationError
		apiErr *api.APIError
	)
	switch {
	case errors.As(err, &ve):
		s.respondJSON(w, http.StatusBadRequest, map[string]interface{}{"error": ve.Error(), "fields": ve.Fields})
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrNotAuthenticated):
		s.respondError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &apiErr):
		s.respondJSON(w, apiErr.Status, map[string]interface{}{"error": apiErr.Message, "code": apiErr.Code})
	default:
		s.logger.Error("upstream request failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
