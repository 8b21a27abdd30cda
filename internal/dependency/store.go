// Package dependency records, per task, the state of every file the task
// depends on, and answers whether a file changed since the task last ran
// successfully.
package dependency

import (
	"strings"
	"sync"

	"doit/internal/errors"
)

// Key addresses one dependency record.
type Key struct {
	Task string
	Path string
}

// Store is the persisted key-value engine behind a Tracker.
//
// Get reports ok=false when no record exists. Set must be durable once it
// returns (or at the latest once Close returns). Close must be idempotent.
type Store interface {
	Get(key Key) (value []byte, ok bool, err error)
	Set(key Key, value []byte) error
	Close() error
}

// Backend names a Store implementation.
type Backend string

const (
	BackendBolt   Backend = "bolt"
	BackendJSON   Backend = "json"
	BackendMemory Backend = "memory"
)

// ParseBackend validates a backend name.
func ParseBackend(raw string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(raw))); b {
	case BackendBolt, BackendJSON, BackendMemory:
		return b, nil
	case "":
		return BackendBolt, nil
	default:
		return "", errors.Errorf("unknown dependency backend %q (expected bolt|json|memory)", raw)
	}
}

// Open opens the store for backend at path. path is ignored by the memory backend.
func Open(backend Backend, path string) (Store, error) {
	switch backend {
	case BackendBolt, "":
		return OpenBoltStore(path)
	case BackendJSON:
		return OpenFileStore(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, errors.Errorf("unknown dependency backend %q", backend)
	}
}

// MemoryStore implements Store in memory.
// Useful for testing and short-lived processes.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[Key][]byte
	closed  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[Key][]byte)}
}

func (s *MemoryStore) Get(key Key) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false, errStoreClosed
	}
	v, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemoryStore) Set(key Key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errStoreClosed
	}
	s.entries[key] = append([]byte(nil), value...)
	return nil
}

// Close marks the store closed. Records stay readable through Reopen so tests
// can simulate a second process run against the same data.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Reopen makes a closed MemoryStore usable again, keeping its records.
func (s *MemoryStore) Reopen() *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = false
	return s
}

// Len is the number of records held.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

var errStoreClosed = errors.New("dependency store is closed")
