// Package geoip resolves the client's public IP address for proximity searches.
package geoip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hyperjump/yowyob/internal/storage"
)

// CacheKey is the storage key of the cached address.
const CacheKey = "yowyob_client_ip"

// DefaultTTL is how long a resolved address is reused.
const DefaultTTL = 24 * time.Hour

// DefaultRetryAfter is how long a failed lookup is remembered before the service is tried again.
const DefaultRetryAfter = time.Minute

// ErrUnavailable is returned while a recent lookup failure is remembered.
var ErrUnavailable = errors.New("ip service unavailable")

type cachedIP struct {
	IP        string `json:"ip"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

// Resolver looks up the public IP through an ipify-compatible service and caches it.
type Resolver struct {
	url    string
	ttl    time.Duration
	cache  storage.Storage
	client *http.Client
	group  singleflight.Group
	now    func() time.Time
	logger *zap.Logger

	retryAfter time.Duration
	mu         sync.Mutex
	failedAt   time.Time
	wg         sync.WaitGroup
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithRetryAfter sets how long a failed lookup short-circuits later calls.
func WithRetryAfter(d time.Duration) Option {
	return func(r *Resolver) { r.retryAfter = d }
}

// NewResolver returns a Resolver querying url. cache may be nil to disable caching.
func NewResolver(url string, ttl time.Duration, cache storage.Storage, opts ...Option) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	r := &Resolver{
		url:    url,
		ttl:    ttl,
		cache:  cache,
		client: &http.Client{Timeout: 5 * time.Second},
		now:    time.Now,
		logger: zap.NewNop(),

		retryAfter: DefaultRetryAfter,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ClientIP returns the cached address when still fresh, otherwise fetches it.
// Concurrent callers share one lookup. It returns "" and an error when the service is unreachable;
// after a failure it returns ErrUnavailable without a network call until the retry delay passes.
func (r *Resolver) ClientIP(ctx context.Context) (string, error) {
	if ip, ok := r.cached(ctx); ok {
		return ip, nil
	}
	if r.recentlyFailed() {
		return "", ErrUnavailable
	}
	v, err, _ := r.group.Do(CacheKey, func() (any, error) {
		ip, err := r.fetch(ctx)
		if err != nil {
			// Cancellation by the caller is not a service failure; a timeout is.
			if !errors.Is(ctx.Err(), context.Canceled) {
				r.markFailed()
			}
			return "", err
		}
		r.store(ctx, ip)
		return ip, nil
	})
	if err != nil {
		r.logger.Debug("client ip lookup failed", zap.Error(err))
		return "", err
	}
	return v.(string), nil
}

// Warm starts a lookup in the background so that the first proximity search finds a cached address.
func (r *Resolver) Warm(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if _, err := r.ClientIP(ctx); err != nil {
			r.logger.Info("client ip not resolved, near-me searches use the standard endpoint", zap.Error(err))
		}
	}()
}

// Wait blocks until background lookups started by Warm return.
func (r *Resolver) Wait() {
	r.wg.Wait()
}

func (r *Resolver) recentlyFailed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.failedAt.IsZero() && r.now().Sub(r.failedAt) < r.retryAfter
}

func (r *Resolver) markFailed() {
	r.mu.Lock()
	r.failedAt = r.now()
	r.mu.Unlock()
}

func (r *Resolver) cached(ctx context.Context) (string, bool) {
	if r.cache == nil {
		return "", false
	}
	var c cachedIP
	if _, err := storage.GetJSON(ctx, r.cache, CacheKey, &c); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			r.logger.Debug("ignoring unreadable ip cache", zap.Error(err))
		}
		return "", false
	}
	age := r.now().Sub(time.UnixMilli(c.Timestamp))
	if c.IP == "" || age >= r.ttl {
		return "", false
	}
	return c.IP, true
}

func (r *Resolver) store(ctx context.Context, ip string) {
	r.mu.Lock()
	r.failedAt = time.Time{}
	r.mu.Unlock()
	if r.cache == nil {
		return
	}
	c := cachedIP{IP: ip, Timestamp: r.now().UnixMilli()}
	if err := storage.PutJSON(ctx, r.cache, CacheKey, c); err != nil {
		r.logger.Warn("failed to cache client ip", zap.Error(err))
	}
}

func (r *Resolver) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach ip service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ip service returned HTTP %d", resp.StatusCode)
	}
	var body struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode ip service response: %w", err)
	}
	if body.IP == "" {
		return "", errors.New("ip service returned an empty address")
	}
	return body.IP, nil
}

// Forget drops the cached address.
func (r *Resolver) Forget(ctx context.Context) error {
	r.mu.Lock()
	r.failedAt = time.Time{}
	r.mu.Unlock()
	if r.cache == nil {
		return nil
	}
	return r.cache.Delete(ctx, CacheKey)
}
