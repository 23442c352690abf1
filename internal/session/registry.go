package session

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Registry owns every live session.
type Registry struct {
	opts Options
	idle time.Duration
	log  zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	opened metric.Int64Counter
}

// NewRegistry creates a registry whose sessions are built from opts.
// Sessions idle for longer than idle are closed by Sweep; zero disables it.
func NewRegistry(opts Options, idle time.Duration) (*Registry, error) {
	opened, err := otel.Meter(instrumentationName).Int64Counter(
		"map.sessions.opened",
		metric.WithDescription("Map sessions opened"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sessions counter: %w", err)
	}
	return &Registry{
		opts:     opts,
		idle:     idle,
		log:      opts.Log,
		sessions: make(map[string]*Session),
		opened:   opened,
	}, nil
}

// Create opens a new session.
func (r *Registry) Create() (*Session, error) {
	s, err := New(r.opts)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()

	r.opened.Add(context.Background(), 1)
	return s, nil
}

// Get returns a live session.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// List returns the live sessions, oldest first.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Session) int { return a.Opened().Compare(b.Opened()) })
	return out
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close closes and forgets a session. It reports false for unknown ids.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.Close()
	}
	return ok
}

// CloseAll closes every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// Sweep closes sessions inactive since before now minus the idle timeout
// and returns how many it closed. Sessions with an open event stream are
// kept.
func (r *Registry) Sweep(now time.Time) int {
	if r.idle <= 0 {
		return 0
	}
	cutoff := now.Add(-r.idle)

	var stale []string
	r.mu.RLock()
	for id, s := range r.sessions {
		if s.LastActive().Before(cutoff) && !s.Watched() {
			stale = append(stale, id)
		}
	}
	r.mu.RUnlock()

	closed := 0
	for _, id := range stale {
		if r.Close(id) {
			closed++
		}
	}
	if closed > 0 {
		r.log.Info().Int("closed", closed).Int("live", r.Len()).Msg("idle sessions closed")
	}
	return closed
}

// Run sweeps every interval until ctx is done, then closes all sessions.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.CloseAll()
			return
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}
