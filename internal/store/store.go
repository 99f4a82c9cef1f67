// Package store holds the in-memory todo collection the views render from.
//
// The collection is only ever replaced wholesale by a refresh. Refreshes are
// numbered; with DiscardStale a response older than the newest applied one is
// dropped instead of overwriting fresher data.
package store

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/model"
)

// Lister is the part of the API client a refresh needs.
type Lister interface {
	ListAll(ctx context.Context) ([]model.Todo, error)
}

// Policy decides what happens when refresh responses arrive out of order.
type Policy int

const (
	// DiscardStale drops any response whose sequence is older than the
	// newest one already applied.
	DiscardStale Policy = iota
	// LastResponseWins applies every successful response in arrival order.
	LastResponseWins
)

// Diff lists ids that changed between two applied snapshots.
type Diff struct {
	Added   []model.ID
	Removed []model.ID
	Changed []model.ID
}

func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Result reports what a refresh did.
type Result struct {
	Seq     uint64
	Applied bool
	Stale   bool
	Count   int
	Diff    Diff
	Err     error
}

type Store struct {
	mu      sync.RWMutex
	todos   []model.Todo
	issued  uint64
	applied uint64
	loaded  bool
	lastErr error

	policy Policy
	logger *log.Logger
}

type Option func(*Store)

func WithPolicy(p Policy) Option { return func(s *Store) { s.policy = p } }

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		todos:  []model.Todo{},
		policy: DiscardStale,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin hands out the sequence number for a new refresh request.
func (s *Store) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Apply records the outcome of refresh seq. With DiscardStale an outcome
// older than the newest applied snapshot is dropped, failures included. On
// error the collection is left untouched. On success the whole collection is replaced in one assignment,
// unless the policy rejects it as stale.
func (s *Store) Apply(seq uint64, todos []model.Todo, err error) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := Result{Seq: seq, Count: len(s.todos)}
	if s.policy == DiscardStale && seq < s.applied {
		res.Stale = true
		s.logger.Debug("discarding stale refresh", "seq", seq, "latest", s.applied, "err", err)
		return res
	}
	if err != nil {
		s.lastErr = err
		res.Err = err
		s.logger.Warn("refresh failed", "seq", seq, "err", err)
		return res
	}

	next := dedupe(todos, s.logger)
	res.Diff = diff(s.todos, next)
	res.Applied = true
	res.Count = len(next)

	s.todos = next
	if seq > s.applied {
		s.applied = seq
	}
	s.loaded = true
	s.lastErr = nil

	s.logger.Info("refreshed", "seq", seq, "count", len(next),
		"added", len(res.Diff.Added), "removed", len(res.Diff.Removed), "changed", len(res.Diff.Changed))
	return res
}

// Refresh fetches the collection and applies it. It is safe to call
// concurrently; overlapping calls are ordered by Policy.
func (s *Store) Refresh(ctx context.Context, l Lister) Result {
	seq := s.Begin()
	todos, err := l.ListAll(ctx)
	return s.Apply(seq, todos, err)
}

// Todos returns a copy of the current collection.
func (s *Store) Todos() []model.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Todo, len(s.todos))
	copy(out, s.todos)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.todos)
}

func (s *Store) Find(id model.ID) (model.Todo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.todos {
		if t.ID == id {
			return t, true
		}
	}
	return model.Todo{}, false
}

// Loaded reports whether any refresh has succeeded yet.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// LastError is the error of the most recent failed refresh, cleared by the
// next successful one.
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// dedupe keeps the first record for each id.
func dedupe(todos []model.Todo, logger *log.Logger) []model.Todo {
	out := make([]model.Todo, 0, len(todos))
	seen := make(map[model.ID]struct{}, len(todos))
	for _, t := range todos {
		if _, dup := seen[t.ID]; dup {
			logger.Warn("duplicate id in list response", "id", t.ID)
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

func diff(prev, next []model.Todo) Diff {
	var d Diff
	old := make(map[model.ID]model.Todo, len(prev))
	for _, t := range prev {
		old[t.ID] = t
	}
	for _, t := range next {
		p, ok := old[t.ID]
		switch {
		case !ok:
			d.Added = append(d.Added, t.ID)
		case p != t:
			d.Changed = append(d.Changed, t.ID)
		}
		delete(old, t.ID)
	}
	for _, t := range prev {
		if _, gone := old[t.ID]; gone {
			d.Removed = append(d.Removed, t.ID)
		}
	}
	return d
}
