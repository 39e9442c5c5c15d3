// Package search runs marketplace searches against the backend with local fallback,
// and debounces interactive query changes.
package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/yowyob/internal/config"
	"github.com/hyperjump/yowyob/internal/mapper"
	"github.com/hyperjump/yowyob/internal/models"
)

// Result sources.
const (
	SourceRemote   = "remote"
	SourceFallback = "fallback"
)

// Backend is the remote search API.
type Backend interface {
	Search(ctx context.Context, q string, typ models.ResultType) (*models.SearchEnvelope, error)
	NearMe(ctx context.Context, q string, typ models.ResultType, ip string) (*models.SearchEnvelope, error)
}

// IPSource resolves the client's public address. An error means "unknown".
type IPSource interface {
	ClientIP(ctx context.Context) (string, error)
}

type clientIPKey struct{}

// WithClientIP returns a context carrying the requesting client's public address.
// It takes precedence over the engine's IPSource.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIPFrom returns the address stored by WithClientIP, or "".
func ClientIPFrom(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// DefaultIPLookupTimeout bounds how long a proximity search waits for the IPSource.
const DefaultIPLookupTimeout = 1500 * time.Millisecond

// Fallback answers searches locally when the backend is unavailable.
type Fallback interface {
	Search(typeFilter models.ResultType, query string) []*models.SearchResult
}

// Engine executes one search: proximity routing, remote call, mapping, and fallback.
type Engine struct {
	backend   Backend
	fallback  Fallback
	mapper    *mapper.Mapper
	ip        IPSource
	ipTimeout time.Duration
	proximity *Proximity
	logger    *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithIPSource enables near-me routing for proximity queries.
func WithIPSource(ip IPSource) EngineOption {
	return func(e *Engine) { e.ip = ip }
}

// WithIPLookupTimeout bounds the IPSource lookup of a proximity search.
func WithIPLookupTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.ipTimeout = d
		}
	}
}

// WithProximityPhrases replaces the proximity phrase list.
func WithProximityPhrases(phrases []string) EngineOption {
	return func(e *Engine) { e.proximity = NewProximity(phrases) }
}

func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(backend Backend, fallback Fallback, m *mapper.Mapper, opts ...EngineOption) *Engine {
	e := &Engine{
		backend:   backend,
		fallback:  fallback,
		mapper:    m,
		ipTimeout: DefaultIPLookupTimeout,
		proximity: NewProximity(config.DefaultNearMePhrases),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search runs the query. Backend failures degrade to the fallback and are not returned;
// the only errors are an invalid query and a cancelled ctx.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := ProcessQuery(query); err != nil {
		return nil, err
	}
	typ := query.Tab.TypeFilter()

	response := &models.SearchResponse{
		Query: query.Query,
		Tab:   query.Tab,
	}

	var ip string
	if e.proximity.Matches(query.Query) {
		ip = e.clientIP(ctx)
	}

	var (
		env *models.SearchEnvelope
		err error
	)
	if ip != "" {
		response.NearMe = true
		env, err = e.backend.NearMe(ctx, query.Query, typ, ip)
	} else {
		env, err = e.backend.Search(ctx, query.Query, typ)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	switch {
	case err != nil:
		e.logger.Warn("remote search failed, using fallback", zap.String("query", query.Query), zap.Error(err))
		response.Results = e.fallback.Search(typ, query.Query)
		response.Source = SourceFallback
	case env == nil || !env.Success:
		msg := ""
		if env != nil {
			msg = env.Message
		}
		e.logger.Warn("remote search unsuccessful, using fallback", zap.String("query", query.Query), zap.String("message", msg))
		response.Results = e.fallback.Search(typ, query.Query)
		response.Source = SourceFallback
	default:
		response.Results = filterType(e.mapper.MapAll(env.Results), typ)
		response.Source = SourceRemote
	}
	if response.Results == nil {
		response.Results = []*models.SearchResult{}
	}
	response.Total = len(response.Results)
	response.QueryTime = time.Since(startTime).Milliseconds()
	return response, nil
}

func filterType(results []*models.SearchResult, typ models.ResultType) []*models.SearchResult {
	if typ == "" {
		return results
	}
	filtered := results[:0]
	for _, r := range results {
		if r.Type == typ {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// clientIP prefers the address carried by ctx and otherwise asks the IPSource,
// waiting at most ipTimeout. It returns "" when no address is known.
func (e *Engine) clientIP(ctx context.Context) string {
	if ip := ClientIPFrom(ctx); ip != "" {
		return ip
	}
	if e.ip == nil {
		return ""
	}
	lookupCtx, cancel := context.WithTimeout(ctx, e.ipTimeout)
	defer cancel()
	ip, err := e.ip.ClientIP(lookupCtx)
	if err != nil {
		e.logger.Debug("no client ip, using standard search", zap.Error(err))
		return ""
	}
	return ip
}
