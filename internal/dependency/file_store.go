package dependency

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"doit/internal/errors"
	"doit/internal/util"
)

// FileStore keeps all dependency records in one JSON document.
//
// The document is rewritten atomically on every Set, so a crash leaves
// either the previous or the new document. A sidecar "<path>.lock" file is held with flock while the store is
// open.
//
// Layout:
//
//	{"<task>": {"<path>": <signature json>, ...}, ...}
type FileStore struct {
	path    string
	lock    *flock.Flock
	records map[string]map[string]json.RawMessage
}

// OpenFileStore loads the document at path (a missing file is an empty store)
// and takes the lock.
func OpenFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("dependency store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "creating dependency store directory")
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "locking dependency store %q", path)
	}
	if !locked {
		return nil, errors.Errorf("dependency store %q is locked by another process", path)
	}

	records, err := readRecords(path)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return &FileStore{path: path, lock: lock, records: records}, nil
}

func readRecords(path string) (map[string]map[string]json.RawMessage, error) {
	records := make(map[string]map[string]json.RawMessage)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return records, nil
		}
		return nil, errors.WithStackTraceAndPrefix(err, "reading dependency store %q", path)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return records, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&records); err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "dependency store %q is corrupt", path)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, errors.Errorf("dependency store %q is corrupt: trailing content", path)
	}
	return records, nil
}

func (s *FileStore) Get(key Key) ([]byte, bool, error) {
	if s.records == nil {
		return nil, false, errStoreClosed
	}
	v, ok := s.records[key.Task][key.Path]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *FileStore) Set(key Key, value []byte) error {
	if s.records == nil {
		return errStoreClosed
	}
	if !json.Valid(value) {
		return errors.Errorf("dependency %q of task %q: value is not valid JSON", key.Path, key.Task)
	}

	paths, ok := s.records[key.Task]
	if !ok {
		paths = make(map[string]json.RawMessage)
		s.records[key.Task] = paths
	}
	prev, hadPrev := paths[key.Path]
	paths[key.Path] = append(json.RawMessage(nil), value...)

	if err := s.persist(); err != nil {
		if hadPrev {
			paths[key.Path] = prev
		} else {
			delete(paths, key.Path)
		}
		return err
	}
	return nil
}

func (s *FileStore) persist() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return errors.WithStackTraceAndPrefix(err, "encoding dependency store")
	}
	data = append(data, '\n')
	if err := util.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return errors.WithStackTraceAndPrefix(err, "writing dependency store %q", s.path)
	}
	return nil
}

// Close releases the lock. Records are already on disk.
func (s *FileStore) Close() error {
	if s.records == nil {
		return nil
	}
	s.records = nil
	return errors.WithStackTrace(s.lock.Unlock())
}
