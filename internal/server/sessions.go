package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/yowyob/internal/search"
	"github.com/hyperjump/yowyob/internal/store"
)

type clientSession struct {
	id       string
	state    *store.State
	search   *search.Orchestrator
	lastSeen time.Time
}

// session returns the caller's session, creating it (and its cookie) on first use.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*clientSession, error) {
	name := s.config.Server.SessionCookie
	id := ""
	if c, err := r.Cookie(name); err == nil {
		if _, perr := uuid.Parse(c.Value); perr == nil {
			id = c.Value
		}
	}
	if id == "" {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int(s.config.Server.SessionTTL.Seconds()),
		})
	}

	s.mu.Lock()
	cs, ok := s.sessions[id]
	if ok {
		cs.lastSeen = time.Now()
	}
	s.mu.Unlock()
	if !ok {
		opened, err := s.openSession(r.Context(), id)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		if cs, ok = s.sessions[id]; ok {
			cs.lastSeen = time.Now()
		} else {
			cs = opened
			s.sessions[id] = cs
		}
		s.mu.Unlock()
		if cs != opened {
			opened.search.Close()
		}
	}
	cs.search.SetClientIP(publicIP(r.RemoteAddr))
	return cs, nil
}

// publicIP returns the host of addr when it is a routable address, "" otherwise.
// Loopback and private clients fall back to the server's own resolver.
func publicIP(addr string) string {
	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}
	ip := net.ParseIP(host)
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return ""
	}
	return ip.String()
}

func (s *Server) openSession(ctx context.Context, id string) (*clientSession, error) {
	st, err := store.Open(ctx, s.storage, s.config.Storage.StateKey+":"+id,
		store.WithHistoryLimit(s.config.Search.HistoryLimit),
		store.WithLogger(s.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open session state: %w", err)
	}
	orch := search.NewOrchestrator(s.engine,
		search.WithDebounce(s.config.Search.Debounce),
		search.WithTokenSource(func() string { return s.auth.Token(context.Background(), id) }))
	s.logger.Debug("session opened", zap.String("session", id))
	return &clientSession{id: id, state: st, search: orch, lastSeen: time.Now()}, nil
}

func (s *Server) sweepLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-s.janitor:
			return
		case <-t.C:
			s.sweep(30 * time.Minute)
		}
	}
}

// sweep drops in-memory sessions idle for longer than maxIdle. Persisted state stays in storage.
func (s *Server) sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	var idle []*clientSession
	s.mu.Lock()
	for id, cs := range s.sessions {
		if cs.lastSeen.Before(cutoff) {
			idle = append(idle, cs)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()
	for _, cs := range idle {
		cs.search.Close()
	}
	return len(idle)
}

func (s *Server) closeSessions() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*clientSession)
	s.mu.Unlock()
	for _, cs := range all {
		cs.search.Close()
	}
}

func (s *Server) sessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
