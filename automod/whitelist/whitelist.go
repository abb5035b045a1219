package whitelist

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
)

type AddResult int

const (
	Added AddResult = iota
	AlreadyPresent
)

func (r AddResult) String() string {
	switch r {
	case Added:
		return "added"
	case AlreadyPresent:
		return "already-present"
	default:
		return "unknown"
	}
}

type RemoveResult int

const (
	Removed RemoveResult = iota
	NotFound
)

func (r RemoveResult) String() string {
	switch r {
	case Removed:
		return "removed"
	case NotFound:
		return "not-found"
	default:
		return "unknown"
	}
}

// Lower-cased, trimmed form of a username. Two usernames with the same identity key are the same whitelist entry.
func NormalizeIdentity(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Manually curated set of accounts which are exempt from automated removal.
//
// The backend document is the source of truth; an in-memory set of identity keys serves Contains without I/O. Mutations are serialized: at most one Add or Remove is in flight at a time, and the in-memory state is only swapped after the backend write succeeds. Readers never block on backend I/O.
type Store struct {
	backend Backend
	logger  *slog.Logger

	// held for the full duration of a mutation, including the backend write
	writeLk sync.Mutex

	// guards entries and keys
	lk      sync.RWMutex
	entries []Entry
	keys    map[string]bool
}

// Loads the whitelist from the backend. If nothing has been persisted yet, an empty document is written before returning. Any other load failure is returned as a *PersistenceError, and the store must not be used.
func Open(ctx context.Context, backend Backend, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		backend: backend,
		logger:  logger.With("component", "whitelist"),
		keys:    make(map[string]bool),
	}

	doc, err := backend.Load(ctx)
	if errors.Is(err, ErrNotExist) {
		s.logger.Info("no existing whitelist, initializing empty", "err", err)
		doc = &Document{WhitelistedUsers: []Entry{}}
		if err := backend.Save(ctx, doc); err != nil {
			return nil, &PersistenceError{Op: "initialize", Err: err}
		}
	} else if err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}
	if doc == nil {
		s.logger.Warn("whitelist backend returned no document, treating as empty")
		doc = &Document{}
	}

	entries := make([]Entry, 0, len(doc.WhitelistedUsers))
	for _, e := range doc.WhitelistedUsers {
		k := NormalizeIdentity(e.Username)
		if k == "" {
			s.logger.Warn("skipping whitelist entry with empty username", "reason", e.Reason)
			continue
		}
		if s.keys[k] {
			s.logger.Warn("skipping duplicate whitelist entry", "username", e.Username)
			continue
		}
		s.keys[k] = true
		entries = append(entries, e)
	}
	s.entries = entries
	whitelistEntries.Set(float64(len(entries)))
	s.logger.Info("loaded whitelist", "count", len(entries))
	return s, nil
}

// Checks the in-memory identity set. Accepts either a raw username or an identity key.
func (s *Store) Contains(identity string) bool {
	k := NormalizeIdentity(identity)
	s.lk.RLock()
	defer s.lk.RUnlock()
	return s.keys[k]
}

// Returns a copy of all entries, in insertion order.
func (s *Store) List() []Entry {
	s.lk.RLock()
	defer s.lk.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) Len() int {
	s.lk.RLock()
	defer s.lk.RUnlock()
	return len(s.entries)
}

// Adds an entry unless one with the same identity key already exists, in which case the existing entry (and its reason) is left untouched.
func (s *Store) Add(ctx context.Context, username, reason string) (AddResult, error) {
	username = strings.TrimSpace(username)
	reason = strings.TrimSpace(reason)
	if username == "" || reason == "" {
		return 0, ErrInvalidInput
	}
	k := NormalizeIdentity(username)

	s.writeLk.Lock()
	defer s.writeLk.Unlock()

	// entries and keys only change while writeLk is held, so reading them here without lk is safe
	if s.keys[k] {
		return AlreadyPresent, nil
	}

	next := make([]Entry, len(s.entries), len(s.entries)+1)
	copy(next, s.entries)
	next = append(next, Entry{Username: username, Reason: reason})
	if err := s.backend.Save(ctx, &Document{WhitelistedUsers: next}); err != nil {
		return 0, &PersistenceError{Op: "add", Err: err}
	}

	s.lk.Lock()
	s.entries = next
	s.keys[k] = true
	s.lk.Unlock()

	whitelistEntries.Set(float64(len(next)))
	whitelistMutations.WithLabelValues("add").Inc()
	s.logger.Info("added account to whitelist", "username", username, "reason", reason)
	return Added, nil
}

func (s *Store) Remove(ctx context.Context, username string) (RemoveResult, error) {
	k := NormalizeIdentity(username)
	if k == "" {
		return 0, ErrInvalidInput
	}

	s.writeLk.Lock()
	defer s.writeLk.Unlock()

	if !s.keys[k] {
		return NotFound, nil
	}

	next := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if NormalizeIdentity(e.Username) != k {
			next = append(next, e)
		}
	}
	if err := s.backend.Save(ctx, &Document{WhitelistedUsers: next}); err != nil {
		return 0, &PersistenceError{Op: "remove", Err: err}
	}

	s.lk.Lock()
	s.entries = next
	delete(s.keys, k)
	s.lk.Unlock()

	whitelistEntries.Set(float64(len(next)))
	whitelistMutations.WithLabelValues("remove").Inc()
	s.logger.Info("removed account from whitelist", "username", username)
	return Removed, nil
}
