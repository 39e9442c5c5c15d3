package search

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Suggestion sources reported alongside autocomplete results.
const (
	SuggestionSourceRemote = "remote"
	SuggestionSourceLocal  = "local"
)

// RemoteSuggester is the backend autocomplete endpoint.
type RemoteSuggester interface {
	Suggestions(ctx context.Context, q string) ([]string, error)
}

// LocalSuggester answers autocomplete when the backend is unreachable.
type LocalSuggester interface {
	SuggestNames(ctx context.Context, q string, limit int) ([]string, error)
}

// Suggestions is one autocomplete answer.
type Suggestions struct {
	Items  []string `json:"suggestions"`
	Source string   `json:"source,omitempty"`
}

// Suggester merges recent searches with backend (or local) completions.
type Suggester struct {
	remote    RemoteSuggester
	local     LocalSuggester
	minLength int
	limit     int
	logger    *zap.Logger
}

// SuggesterOption configures a Suggester.
type SuggesterOption func(*Suggester)

// WithLocalSuggester sets the offline completion source.
func WithLocalSuggester(l LocalSuggester) SuggesterOption {
	return func(s *Suggester) { s.local = l }
}

// WithSuggestionLimits sets the minimum query length and the maximum number of items.
func WithSuggestionLimits(minLength, limit int) SuggesterOption {
	return func(s *Suggester) {
		if minLength > 0 {
			s.minLength = minLength
		}
		if limit > 0 {
			s.limit = limit
		}
	}
}

// WithSuggesterLogger sets the logger.
func WithSuggesterLogger(l *zap.Logger) SuggesterOption {
	return func(s *Suggester) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSuggester creates a Suggester. Queries shorter than two characters get no suggestions.
func NewSuggester(remote RemoteSuggester, opts ...SuggesterOption) *Suggester {
	s := &Suggester{
		remote:    remote,
		minLength: 2,
		limit:     10,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Suggest returns history entries starting with q first, then remote completions.
// When the backend fails, the local index is used instead. Items are deduplicated
// case-insensitively and capped at the configured limit.
func (s *Suggester) Suggest(ctx context.Context, q string, history []string) Suggestions {
	q = strings.TrimSpace(q)
	out := Suggestions{Items: make([]string, 0, s.limit)}
	if len([]rune(q)) < s.minLength {
		return out
	}

	seen := make(map[string]bool)
	add := func(v string) {
		k := strings.ToLower(strings.TrimSpace(v))
		if k == "" || seen[k] || len(out.Items) >= s.limit {
			return
		}
		seen[k] = true
		out.Items = append(out.Items, v)
	}

	lq := strings.ToLower(q)
	for _, h := range history {
		if strings.HasPrefix(strings.ToLower(h), lq) {
			add(h)
		}
	}

	remote, err := s.remote.Suggestions(ctx, q)
	if err == nil {
		out.Source = SuggestionSourceRemote
		for _, v := range remote {
			add(v)
		}
		return out
	}
	if s.local == nil {
		s.logger.Warn("remote suggestions failed", zap.Error(err))
		return out
	}

	s.logger.Debug("remote suggestions failed, using local index", zap.Error(err))
	out.Source = SuggestionSourceLocal
	local, lerr := s.local.SuggestNames(ctx, q, s.limit)
	if lerr != nil {
		s.logger.Warn("local suggestions failed", zap.Error(lerr))
	}
	for _, v := range local {
		add(v)
	}
	return out
}
