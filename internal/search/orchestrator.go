package search

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/yowyob/internal/api"
	"github.com/hyperjump/yowyob/internal/models"
)

// DefaultDebounce is the settle delay between the last query change and the request.
const DefaultDebounce = 300 * time.Millisecond

// ErrSuperseded is returned by Run when a newer search replaced it before it completed.
var ErrSuperseded = errors.New("search superseded by a newer request")

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("orchestrator closed")

// Snapshot is the observable search state of one client.
type Snapshot struct {
	Query       string                 `json:"query"`
	Tab         models.Tab             `json:"tab"`
	Results     []*models.SearchResult `json:"results"`
	Source      string                 `json:"source,omitempty"`
	NearMe      bool                   `json:"near_me"`
	RequestID   uint64                 `json:"request_id"`
	Loading     bool                   `json:"loading"`
	HasSearched bool                   `json:"has_searched"`
}

// Orchestrator turns a stream of {query, tab} changes into at most one search per
// settling window. Only the newest request may update the state; older in-flight
// requests are cancelled and their responses dropped.
type Orchestrator struct {
	engine   *Engine
	debounce time.Duration
	token    func() string

	mu       sync.Mutex
	timer    *time.Timer
	gen      uint64
	pending  models.SearchQuery
	clientIP string
	seq      uint64
	inflight context.CancelFunc
	snap     Snapshot
	subs     map[int]func(Snapshot)
	nextSub  int
	closed   bool

	base context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithDebounce sets the settle delay. Non-positive values keep the default.
func WithDebounce(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithTokenSource supplies the bearer token attached to each request.
func WithTokenSource(fn func() string) OrchestratorOption {
	return func(o *Orchestrator) { o.token = fn }
}

// NewOrchestrator returns an Orchestrator driving engine.
func NewOrchestrator(engine *Engine, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		engine:   engine,
		debounce: DefaultDebounce,
		subs:     make(map[int]func(Snapshot)),
		snap:     Snapshot{Tab: models.TabAll, Results: []*models.SearchResult{}},
	}
	o.base, o.stop = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Update records a query/tab change and re-arms the debounce timer.
// The search runs once no further Update arrives within the debounce delay.
func (o *Orchestrator) Update(query string, tab models.Tab) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.pending = models.SearchQuery{Query: query, Tab: tab}
	o.snap.Query = query
	o.snap.Tab = tab
	if o.timer != nil {
		o.timer.Stop()
	}
	o.gen++
	gen := o.gen
	o.timer = time.AfterFunc(o.debounce, func() { o.fire(gen) })
}

// fire runs the pending search if gen still names the newest timer. A timer that
// already fired while Update re-armed it finds a newer gen and does nothing.
func (o *Orchestrator) fire(gen uint64) {
	o.mu.Lock()
	if o.closed || gen != o.gen {
		o.mu.Unlock()
		return
	}
	q := o.pending
	o.timer = nil
	ctx, id, snap := o.beginLocked(o.base, q)
	o.mu.Unlock()

	o.publish(snap)
	defer o.wg.Done()
	resp, err := o.engine.Search(ctx, &q)
	o.finish(id, resp, err)
}

// SetClientIP records the public address of the client driving this orchestrator.
// Later searches carry it for near-me routing; "" clears it.
func (o *Orchestrator) SetClientIP(ip string) {
	o.mu.Lock()
	o.clientIP = ip
	o.mu.Unlock()
}

// Run searches immediately, cancelling any pending or in-flight search.
func (o *Orchestrator) Run(ctx context.Context, query string, tab models.Tab) (*models.SearchResponse, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, ErrClosed
	}
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.gen++
	q := models.SearchQuery{Query: query, Tab: tab}
	o.snap.Query = query
	o.snap.Tab = tab
	runCtx, id, snap := o.beginLocked(ctx, q)
	o.mu.Unlock()

	o.publish(snap)
	defer o.wg.Done()
	resp, err := o.engine.Search(runCtx, &q)
	if !o.finish(id, resp, err) {
		if err == nil || errors.Is(err, context.Canceled) {
			return nil, ErrSuperseded
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// beginLocked assigns the next request id, cancels the previous in-flight
// request and marks the state as loading. o.mu must be held.
func (o *Orchestrator) beginLocked(parent context.Context, q models.SearchQuery) (context.Context, uint64, Snapshot) {
	o.seq++
	if o.inflight != nil {
		o.inflight()
	}
	ctx, cancel := context.WithCancel(parent)
	stopAfter := context.AfterFunc(o.base, cancel)
	o.inflight = func() {
		stopAfter()
		cancel()
	}
	if o.token != nil {
		ctx = api.WithToken(ctx, o.token())
	}
	if o.clientIP != "" && ClientIPFrom(ctx) == "" {
		ctx = WithClientIP(ctx, o.clientIP)
	}
	o.wg.Add(1)
	o.snap.Loading = true
	return ctx, o.seq, o.copyLocked()
}

// finish applies the outcome of request id if it is still the newest. It reports whether it was applied.
func (o *Orchestrator) finish(id uint64, resp *models.SearchResponse, err error) bool {
	o.mu.Lock()
	if id != o.seq || o.closed {
		o.mu.Unlock()
		o.engine.logger.Debug("dropping stale search response", zap.Uint64("request_id", id))
		return false
	}
	if o.inflight != nil {
		o.inflight()
		o.inflight = nil
	}
	o.snap.Loading = false
	if err == nil {
		resp.RequestID = id
		o.snap.Results = resp.Results
		o.snap.Source = resp.Source
		o.snap.NearMe = resp.NearMe
		o.snap.RequestID = id
		o.snap.HasSearched = true
	} else {
		o.engine.logger.Warn("search failed", zap.Uint64("request_id", id), zap.Error(err))
	}
	snap := o.copyLocked()
	o.mu.Unlock()

	o.publish(snap)
	return true
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned function removes the subscription.
func (o *Orchestrator) Subscribe(fn func(Snapshot)) func() {
	o.mu.Lock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = fn
	o.mu.Unlock()
	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}

func (o *Orchestrator) publish(snap Snapshot) {
	o.mu.Lock()
	subs := make([]func(Snapshot), 0, len(o.subs))
	for _, fn := range o.subs {
		subs = append(subs, fn)
	}
	o.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.copyLocked()
}

func (o *Orchestrator) copyLocked() Snapshot {
	s := o.snap
	s.Results = append([]*models.SearchResult{}, o.snap.Results...)
	return s
}

// Close stops the debounce timer, cancels in-flight work and waits for it to return.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	if o.inflight != nil {
		o.inflight()
		o.inflight = nil
	}
	o.mu.Unlock()
	o.stop()
	o.wg.Wait()
}
