// Package listing holds the active lost-item postings in memory.
package listing

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/google/uuid"
)

// Store is an ordered, most-recent-first collection of postings.
type Store struct {
	mu       sync.RWMutex
	postings []domain.Posting
}

func NewStore() *Store {
	return &Store{}
}

// List returns a copy of the postings, newest first.
func (s *Store) List() []domain.Posting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Posting, len(s.postings))
	copy(out, s.postings)
	return out
}

func (s *Store) Get(id string) (domain.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.postings[i], nil
	}
	return domain.Posting{}, fmt.Errorf("%w: %s", domain.ErrPostingNotFound, id)
}

// Add prepends p. An empty id is filled with a fresh uuid; an id already in
// the store is rejected with ErrDuplicatePosting.
func (s *Store) Add(p domain.Posting) (domain.Posting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if s.indexOf(p.ID) >= 0 {
		return domain.Posting{}, fmt.Errorf("%w: %s", domain.ErrDuplicatePosting, p.ID)
	}
	s.postings = append([]domain.Posting{p}, s.postings...)
	return p, nil
}

// Remove deletes id if present and reports whether anything was removed.
// Removing an unknown id is a no-op.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.postings = append(s.postings[:i:i], s.postings[i+1:]...)
	return true
}

// Seed replaces the contents with ps, keeping their order. Later duplicates
// of an id are dropped.
func (s *Store) Seed(ps []domain.Posting) {
	seen := make(map[string]struct{}, len(ps))
	out := make([]domain.Posting, 0, len(ps))
	for _, p := range ps {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	s.mu.Lock()
	s.postings = out
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.postings)
}

func (s *Store) indexOf(id string) int {
	for i := range s.postings {
		if s.postings[i].ID == id {
			return i
		}
	}
	return -1
}

// Compose orders the startup listing: stored postings that are not part of
// the fixture come first, newest first, followed by the fixture in its own
// order.
func Compose(fixture, stored []domain.Posting) []domain.Posting {
	inFixture := make(map[string]struct{}, len(fixture))
	for _, p := range fixture {
		inFixture[p.ID] = struct{}{}
	}
	extra := make([]domain.Posting, 0, len(stored))
	for _, p := range stored {
		if _, ok := inFixture[p.ID]; !ok {
			extra = append(extra, p)
		}
	}
	sort.SliceStable(extra, func(i, j int) bool {
		return extra[i].CreatedAt.After(extra[j].CreatedAt)
	})
	return append(extra, fixture...)
}
