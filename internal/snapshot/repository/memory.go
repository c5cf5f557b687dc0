package repository

import (
	"context"
	"sync"

	"github.com/smallbiznis/snelcrm/internal/snapshot/domain"
)

// MemoryStore keeps snapshots in process. Failures can be injected to
// exercise degraded persistence.
type MemoryStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	failPut error
	failGet error
	puts    int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, domain.ErrInvalidKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet != nil {
		return nil, s.failGet
	}
	data, ok := s.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) Put(_ context.Context, key string, data []byte) error {
	if key == "" {
		return domain.ErrInvalidKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut != nil {
		return s.failPut
	}
	s.data[key] = append([]byte(nil), data...)
	s.puts++
	return nil
}

// FailPuts makes every following Put return err. Pass nil to recover.
func (s *MemoryStore) FailPuts(err error) {
	s.mu.Lock()
	s.failPut = err
	s.mu.Unlock()
}

// FailGets makes every following Get return err. Pass nil to recover.
func (s *MemoryStore) FailGets(err error) {
	s.mu.Lock()
	s.failGet = err
	s.mu.Unlock()
}

func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

// Puts counts successful writes.
func (s *MemoryStore) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}
