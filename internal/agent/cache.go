package agent

import (
	"net/http"
	"sort"
	"sync"
)

// CachedResponse is one stored upstream response.
type CachedResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// Store keeps named cache generations. The generation name is an
// explicit version parameter threaded through install/activate, so a
// rollover is observable and testable rather than ambient state.
type Store struct {
	mu          sync.RWMutex
	generations map[string]map[string]CachedResponse
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{generations: make(map[string]map[string]CachedResponse)}
}

// Put stores a response under (version, key).
func (s *Store) Put(version, key string, resp CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen, ok := s.generations[version]
	if !ok {
		gen = make(map[string]CachedResponse)
		s.generations[version] = gen
	}
	gen[key] = resp
}

// Get looks a response up in one generation.
func (s *Store) Get(version, key string) (CachedResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gen, ok := s.generations[version]
	if !ok {
		return CachedResponse{}, false
	}
	resp, ok := gen[key]
	return resp, ok
}

// DropOthers deletes every generation whose name differs from keep.
func (s *Store) DropOthers(keep string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.generations {
		if name != keep {
			delete(s.generations, name)
		}
	}
}

// Generations lists the current generation names, sorted.
func (s *Store) Generations() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.generations))
	for name := range s.generations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
