package state

import "sync"

// MemoryStore is an in-process Store for tests and embedding. It honors the
// same idempotence contract as FileStore without touching the filesystem.
type MemoryStore struct {
	mu     sync.Mutex
	lockMu sync.Mutex
	set    bool
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Exists() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set, nil
}

func (s *MemoryStore) Set() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = true
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = false
	return nil
}

func (s *MemoryStore) Lock() (func(), error) {
	s.lockMu.Lock()
	return s.lockMu.Unlock, nil
}
