package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopchat/shopchat/core"
	"github.com/shopchat/shopchat/logging"
)

// ErrNotFound is returned when a turn references an unknown or expired
// session id.
var ErrNotFound = errors.New("session not found")

// Default lifecycle tuning. A session is evicted once idle longer than the
// TTL; the sweeper wakes on the interval.
const (
	DefaultTTL           = 30 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
)

// entry is the mutable per-session record. turnMu serializes whole turns;
// mu guards the fields for short reads/writes (sweeper, Ensure, AddProducts).
type entry struct {
	turnMu       sync.Mutex
	mu           sync.Mutex
	products     map[string]core.Product // keyed by normalized SKU
	history      []core.Message
	lastActivity time.Time
}

// Options configures a Store.
type Options struct {
	TTL           time.Duration
	SweepInterval time.Duration
	Logger        logging.Logger
}

// Store is a volatile session store. It owns the eviction sweeper and the
// per-session turn lock; different sessions remain fully concurrent.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	opts     Options
}

// NewStore constructs an empty store with default TTL/sweep settings.
func NewStore(optFns ...func(o *Options)) *Store {
	opts := Options{
		TTL:           DefaultTTL,
		SweepInterval: DefaultSweepInterval,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{sessions: make(map[string]*entry), opts: opts}
}

// Ensure creates a session with empty product map/history if absent;
// otherwise it only refreshes the activity timestamp. It never overwrites
// existing state.
func (s *Store) Ensure(id string) {
	e := s.ensure(id)
	e.mu.Lock()
	e.lastActivity = time.Now()
	e.mu.Unlock()
}

// AddProducts merges products into the session's explicit context by
// normalized SKU, creating the session if absent. Lookup-failure placeholder
// records are skipped so they never pollute grounding context.
func (s *Store) AddProducts(id string, products []core.Product) {
	e := s.ensure(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range products {
		if p.IsError() {
			continue
		}
		p.SKU = core.NormalizeSKU(p.SKU)
		e.products[p.SKU] = p
	}
	e.lastActivity = time.Now()
}

// Exists reports whether the session id is currently known.
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) ensure(id string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		e = &entry{products: make(map[string]core.Product), lastActivity: time.Now()}
		s.sessions[id] = e
	}
	return e
}

// BeginTurn checks out the session for exclusive turn processing. It blocks
// until any in-flight turn on the same session commits or rolls back, then
// snapshots the history for rollback. The returned Turn must be finished
// with exactly one Commit or Rollback call.
//
// A session evicted between lookup and lock acquisition is reported as
// ErrNotFound rather than silently resurrected.
func (s *Store) BeginTurn(id string) (*Turn, error) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	e.turnMu.Lock()

	// Re-check: the sweeper may have evicted the session while we waited.
	s.mu.RLock()
	cur, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || cur != e {
		e.turnMu.Unlock()
		return nil, ErrNotFound
	}

	e.mu.Lock()
	e.lastActivity = time.Now()
	snapshot := make([]core.Message, len(e.history))
	copy(snapshot, e.history)
	e.mu.Unlock()

	return &Turn{id: id, e: e, snapshot: snapshot}, nil
}

// StartSweeper launches the eviction loop. It runs until ctx is cancelled
// and never blocks turn processing: eviction only takes the short field
// lock, not the turn lock.
func (s *Store) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.opts.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := s.sweep(now); n > 0 {
					s.opts.Logger.Info("session.sweep.evicted", "count", n, "remaining", s.Len())
				}
			}
		}
	}()
}

// sweep deletes every session idle longer than the TTL and returns the
// eviction count.
func (s *Store) sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, e := range s.sessions {
		e.mu.Lock()
		idle := now.Sub(e.lastActivity)
		e.mu.Unlock()
		if idle > s.opts.TTL {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Turn is an exclusive checkout of one session for the duration of a single
// user turn. History mutations go through the Turn; Commit keeps them,
// Rollback restores the pre-turn snapshot.
type Turn struct {
	id       string
	e        *entry
	snapshot []core.Message
	done     bool
}

// SessionID returns the owning session id.
func (t *Turn) SessionID() string { return t.id }

// Messages returns a copy of the current history.
func (t *Turn) Messages() []core.Message {
	t.e.mu.Lock()
	defer t.e.mu.Unlock()
	out := make([]core.Message, len(t.e.history))
	copy(out, t.e.history)
	return out
}

// Products returns the explicit product context ordered by SKU for
// deterministic prompt rendering.
func (t *Turn) Products() []core.Product {
	t.e.mu.Lock()
	defer t.e.mu.Unlock()
	out := make([]core.Product, 0, len(t.e.products))
	for _, p := range t.e.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

// Append adds a message to the history.
func (t *Turn) Append(msg core.Message) {
	t.e.mu.Lock()
	defer t.e.mu.Unlock()
	t.e.history = append(t.e.history, msg)
}

// Trim drops the oldest entries so that at most max messages remain.
func (t *Turn) Trim(max int) {
	t.e.mu.Lock()
	defer t.e.mu.Unlock()
	if max > 0 && len(t.e.history) > max {
		t.e.history = append([]core.Message(nil), t.e.history[len(t.e.history)-max:]...)
	}
}

// Commit keeps the turn's history mutations and releases the session.
func (t *Turn) Commit() {
	if t.done {
		return
	}
	t.done = true
	t.e.mu.Lock()
	t.e.lastActivity = time.Now()
	t.e.mu.Unlock()
	t.e.turnMu.Unlock()
}

// Rollback restores the pre-turn history snapshot and releases the session.
// The session reads as if the turn never started.
func (t *Turn) Rollback() {
	if t.done {
		return
	}
	t.done = true
	t.e.mu.Lock()
	t.e.history = t.snapshot
	t.e.mu.Unlock()
	t.e.turnMu.Unlock()
}
