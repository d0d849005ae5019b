package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore keeps records in process memory. Used by tests and as the
// default backend when no database is configured.
type InMemoryStore struct {
	mu        sync.RWMutex
	notebooks map[string]*Notebook // keyed by name
	users     map[string]*User
}

var _ Store = &InMemoryStore{}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		notebooks: make(map[string]*Notebook),
		users:     make(map[string]*User),
	}
}

func (s *InMemoryStore) SaveNotebook(ctx context.Context, nb *Notebook) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if nb.ID == "" {
		nb.ID = uuid.NewString()
	}
	nb.Authors = ensureAdmin(nb.Authors)
	nb.UpdatedAt = time.Now().UTC()
	stored := *nb
	stored.Authors = append([]string(nil), nb.Authors...)
	stored.Source = append([]byte(nil), nb.Source...)
	s.notebooks[nb.Name] = &stored
	return nil
}

func (s *InMemoryStore) NotebookByName(ctx context.Context, author, name string, withSource bool) (*Notebook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nb, ok := s.notebooks[name]
	if !ok || !nb.HasAuthor(author) {
		return nil, ErrNotFound
	}
	return copyNotebook(nb, withSource), nil
}

func (s *InMemoryStore) NotebooksByAuthor(ctx context.Context, author string, withSource bool) ([]*Notebook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Notebook
	for _, nb := range s.notebooks {
		if nb.HasAuthor(author) {
			out = append(out, copyNotebook(nb, withSource))
		}
	}
	return out, nil
}

func (s *InMemoryStore) DeleteNotebook(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notebooks[name]; !ok {
		return ErrNotFound
	}
	delete(s.notebooks, name)
	return nil
}

func (s *InMemoryStore) SaveUser(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *u
	s.users[u.ID] = &stored
	return nil
}

func (s *InMemoryStore) UserByID(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *InMemoryStore) Close() error {
	return nil
}

func copyNotebook(nb *Notebook, withSource bool) *Notebook {
	out := *nb
	out.Authors = append([]string(nil), nb.Authors...)
	if withSource {
		out.Source = append([]byte(nil), nb.Source...)
	} else {
		out.Source = nil
	}
	return &out
}
