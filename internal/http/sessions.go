package http

import (
	"context"
	"sync"
	"time"

	"ledger/internal/cache"
	"ledger/internal/ledger"
	"ledger/internal/log"
)

// Sessions keeps one open ledger session per owner in an LRU cache. All
// access is serialized: a ledger session is single-threaded.
//
// An evicted session is reopened from the persister on the next request, so
// its undo and redo history is lost.
type Sessions struct {
	mu       sync.Mutex
	sessions *cache.LRUCache[*ledger.Session]
	opts     ledger.Options
	logger   *log.Logger
}

var _ cache.Cleaner = (*Sessions)(nil)

func NewSessions(size int, ttl time.Duration, opts ledger.Options, logger *log.Logger) *Sessions {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentLedger)
	if opts.Logger == nil {
		opts.Logger = logger
	}
	s := &Sessions{opts: opts, logger: logger}
	s.sessions = cache.NewLRUCache(size, ttl, cache.WithEvictCallback(func(owner string, _ *ledger.Session) {
		logger.Info("Ledger session evicted", log.FieldOwner, owner)
	}))
	return s
}

// Do runs fn against owner's session, opening it first if needed.
func (s *Sessions) Do(ctx context.Context, owner string, fn func(*ledger.Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions.Get(owner)
	if !ok {
		var err error
		sess, err = ledger.OpenSession(ctx, owner, s.opts)
		if err != nil {
			return err
		}
		s.sessions.Set(owner, sess)
		s.logger.InfoContext(ctx, "Ledger session opened", log.FieldOwner, owner, log.FieldCount, sess.Len())
	}
	return fn(sess)
}

// CleanExpired drops sessions idle for longer than the TTL.
func (s *Sessions) CleanExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.CleanExpired()
}

// Len returns the number of open sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Size()
}
