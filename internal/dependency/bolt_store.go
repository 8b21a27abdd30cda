package dependency

import (
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"doit/internal/errors"
)

// openTimeout bounds how long Open waits for another process holding the database.
const openTimeout = 2 * time.Second

// BoltStore keeps dependency records in a bbolt database: one bucket per task,
// one key per dependency path. Every Set commits its own transaction.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (creating if needed) the database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if path == "" {
		return nil, errors.New("dependency store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "creating dependency store directory")
	}

	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, errors.Errorf("dependency store %q is locked by another process", path)
		}
		return nil, errors.WithStackTraceAndPrefix(err, "opening dependency store %q", path)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Get(key Key) ([]byte, bool, error) {
	if s.db == nil {
		return nil, false, errStoreClosed
	}

	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(key.Task))
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key.Path)); v != nil {
			// v is only valid for the life of the transaction.
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, errors.WithStackTraceAndPrefix(err, "reading dependency %q of task %q", key.Path, key.Task)
	}
	return value, value != nil, nil
}

func (s *BoltStore) Set(key Key, value []byte) error {
	if s.db == nil {
		return errStoreClosed
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(key.Task))
		if err != nil {
			return err
		}
		return b.Put([]byte(key.Path), value)
	})
	if err != nil {
		return errors.WithStackTraceAndPrefix(err, "saving dependency %q of task %q", key.Path, key.Task)
	}
	return nil
}

func (s *BoltStore) Close() error {
	if s.db == nil {
		return nil
	}
	db := s.db
	s.db = nil
	return errors.WithStackTrace(db.Close())
}
