// Package store holds the per-session search and UI state and persists its durable subset.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/yowyob/internal/models"
	"github.com/hyperjump/yowyob/internal/storage"
)

// DefaultHistoryLimit caps the search history.
const DefaultHistoryLimit = 50

// Theme is the UI colour theme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Snapshot is a serializable copy of the full state.
type Snapshot struct {
	Query          string         `json:"query"`
	Filters        models.Filters `json:"filters"`
	History        []string       `json:"searchHistory"`
	IsSearching    bool           `json:"isSearching"`
	Theme          Theme          `json:"theme"`
	SidebarOpen    bool           `json:"sidebarOpen"`
	MobileMenuOpen bool           `json:"mobileMenuOpen"`
	Notifications  int            `json:"notifications"`
}

// Persisted is the subset of state that survives restarts.
type Persisted struct {
	Theme   Theme          `json:"theme"`
	Filters models.Filters `json:"filters"`
	History []string       `json:"searchHistory"`
}

type envelope struct {
	State   Persisted `json:"state"`
	Version int       `json:"version"`
}

// State is the search and UI state of one client. It is safe for concurrent use.
type State struct {
	mu           sync.RWMutex
	persistMu    sync.Mutex // orders writes so storage ends with the newest snapshot
	snap         Snapshot
	storage      storage.Storage
	key          string
	historyLimit int
	logger       *zap.Logger
	onChange     []func(Snapshot)
}

// Option configures a State.
type Option func(*State)

// WithHistoryLimit overrides the history cap.
func WithHistoryLimit(n int) Option {
	return func(s *State) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(l *zap.Logger) Option {
	return func(s *State) { s.logger = l }
}

// New returns a State with initial values and no persistence.
func New(opts ...Option) *State {
	s := &State{
		snap: Snapshot{
			Filters: models.DefaultFilters(),
			History: []string{},
			Theme:   ThemeLight,
		},
		historyLimit: DefaultHistoryLimit,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open returns a State backed by st under key, restoring any persisted subset.
func Open(ctx context.Context, st storage.Storage, key string, opts ...Option) (*State, error) {
	s := New(opts...)
	s.storage = st
	s.key = key

	var env envelope
	_, err := storage.GetJSON(ctx, st, key, &env)
	if errors.Is(err, storage.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to restore state: %w", err)
	}
	s.restore(env.State)
	return s, nil
}

func (s *State) restore(p Persisted) {
	if p.Theme == ThemeLight || p.Theme == ThemeDark {
		s.snap.Theme = p.Theme
	}
	s.snap.Filters = p.Filters
	if s.snap.Filters.Radius == 0 {
		s.snap.Filters.Radius = models.DefaultRadius
	}
	if s.snap.Filters.SortBy == "" {
		s.snap.Filters.SortBy = models.SortRecent
	}
	hist := make([]string, 0, len(p.History))
	for _, h := range p.History {
		if len(hist) == s.historyLimit {
			break
		}
		if h = strings.TrimSpace(h); h != "" {
			hist = append(hist, h)
		}
	}
	s.snap.History = hist
}

// Subscribe registers fn to be called with a snapshot after every change.
func (s *State) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

// Snapshot returns a copy of the full state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Persisted returns a copy of the durable subset.
func (s *State) Persisted() Persisted {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Persisted{
		Theme:   s.snap.Theme,
		Filters: s.snap.Filters,
		History: append([]string{}, s.snap.History...),
	}
}

// History returns the search history, most recent first.
func (s *State) History() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.snap.History...)
}

// Filters returns the current filters.
func (s *State) Filters() models.Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Filters
}

// SetQuery sets the live query. IsSearching follows whether the query is non-blank.
func (s *State) SetQuery(q string) {
	s.update(false, func(snap *Snapshot) {
		snap.Query = q
		snap.IsSearching = strings.TrimSpace(q) != ""
	})
}

// SetFilters merges a partial filter update.
func (s *State) SetFilters(ctx context.Context, p models.FiltersPatch) error {
	return s.updatePersisted(ctx, func(snap *Snapshot) {
		snap.Filters = snap.Filters.Merge(p)
	})
}

// ResetFilters restores the default filters.
func (s *State) ResetFilters(ctx context.Context) error {
	return s.updatePersisted(ctx, func(snap *Snapshot) {
		snap.Filters = models.DefaultFilters()
	})
}

// AddToHistory records q at the front of the history. Blank queries are ignored;
// an existing entry is moved to the front.
func (s *State) AddToHistory(ctx context.Context, q string) error {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	return s.updatePersisted(ctx, func(snap *Snapshot) {
		hist := make([]string, 0, len(snap.History)+1)
		hist = append(hist, q)
		for _, h := range snap.History {
			if h != q {
				hist = append(hist, h)
			}
		}
		if len(hist) > s.historyLimit {
			hist = hist[:s.historyLimit]
		}
		snap.History = hist
	})
}

// RemoveFromHistory removes q from the history.
func (s *State) RemoveFromHistory(ctx context.Context, q string) error {
	return s.updatePersisted(ctx, func(snap *Snapshot) {
		hist := make([]string, 0, len(snap.History))
		for _, h := range snap.History {
			if h != q {
				hist = append(hist, h)
			}
		}
		snap.History = hist
	})
}

// ClearHistory empties the history.
func (s *State) ClearHistory(ctx context.Context) error {
	return s.updatePersisted(ctx, func(snap *Snapshot) {
		snap.History = []string{}
	})
}

// ToggleTheme switches between light and dark.
func (s *State) ToggleTheme(ctx context.Context) error {
	return s.updatePersisted(ctx, func(snap *Snapshot) {
		if snap.Theme == ThemeDark {
			snap.Theme = ThemeLight
		} else {
			snap.Theme = ThemeDark
		}
	})
}

// SetTheme sets the theme explicitly.
func (s *State) SetTheme(ctx context.Context, t Theme) error {
	if t != ThemeLight && t != ThemeDark {
		return fmt.Errorf("unknown theme %q", t)
	}
	return s.updatePersisted(ctx, func(snap *Snapshot) { snap.Theme = t })
}

func (s *State) ToggleSidebar() {
	s.update(false, func(snap *Snapshot) { snap.SidebarOpen = !snap.SidebarOpen })
}

func (s *State) ToggleMobileMenu() {
	s.update(false, func(snap *Snapshot) { snap.MobileMenuOpen = !snap.MobileMenuOpen })
}

func (s *State) SetNotifications(n int) {
	s.update(false, func(snap *Snapshot) { snap.Notifications = n })
}

func (s *State) updatePersisted(ctx context.Context, fn func(*Snapshot)) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	p := s.update(true, fn)
	if s.storage == nil {
		return nil
	}
	if err := storage.PutJSON(ctx, s.storage, s.key, envelope{State: p}); err != nil {
		s.logger.Warn("failed to persist state", zap.String("key", s.key), zap.Error(err))
		return fmt.Errorf("failed to persist state: %w", err)
	}
	return nil
}

// update applies fn under the lock and notifies subscribers. It returns the
// persisted subset as of this change.
func (s *State) update(persist bool, fn func(*Snapshot)) Persisted {
	s.mu.Lock()
	fn(&s.snap)
	snap := s.copyLocked()
	subs := append([]func(Snapshot){}, s.onChange...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
	if !persist {
		return Persisted{}
	}
	return Persisted{Theme: snap.Theme, Filters: snap.Filters, History: snap.History}
}

func (s *State) copyLocked() Snapshot {
	c := s.snap
	c.History = append([]string{}, s.snap.History...)
	return c
}
