package dependency

import (
	"encoding/json"
	"path/filepath"

	"doit/internal/errors"
)

// Tracker decides whether a task's dependency changed since the task last
// completed, and records the state of dependencies after it does.
//
// A Tracker is not safe for concurrent use; tasks run one at a time.
type Tracker struct {
	store Store
}

// NewTracker wraps an already opened store. The Tracker takes ownership of it.
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// OpenTracker opens the store for backend at path and wraps it.
func OpenTracker(backend Backend, path string) (*Tracker, error) {
	store, err := Open(backend, path)
	if err != nil {
		return nil, err
	}
	return NewTracker(store), nil
}

func keyFor(taskName, path string) Key {
	return Key{Task: taskName, Path: filepath.Clean(path)}
}

// Modified reports whether path changed since Save was last called for
// (taskName, path). A missing record counts as modified. A dependency that
// cannot be read, or a record that cannot be decoded, is an error.
func (t *Tracker) Modified(taskName, path string) (bool, error) {
	if t.store == nil {
		return false, errStoreClosed
	}

	raw, ok, err := t.store.Get(keyFor(taskName, path))
	if err != nil {
		return false, err
	}

	current, err := statSignature(path)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}

	var stored Signature
	if err := json.Unmarshal(raw, &stored); err != nil {
		return false, errors.WithStackTraceAndPrefix(err, "corrupt record for dependency %q of task %q", path, taskName)
	}

	if stored.ModTime == current.ModTime && stored.Size == current.Size {
		return false, nil
	}
	if stored.Size != current.Size {
		return true, nil
	}

	digest, err := fileDigest(path)
	if err != nil {
		return false, err
	}
	return digest != stored.Digest, nil
}

// Save records the current signature of path for taskName, replacing any
// previous record. Call it only after the task's action succeeded.
func (t *Tracker) Save(taskName, path string) error {
	if t.store == nil {
		return errStoreClosed
	}

	sig, err := ComputeSignature(path)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(sig)
	if err != nil {
		return errors.WithStackTrace(err)
	}
	return t.store.Set(keyFor(taskName, path), raw)
}

// Close releases the backing store. Calling it more than once is a no-op.
func (t *Tracker) Close() error {
	if t.store == nil {
		return nil
	}
	store := t.store
	t.store = nil
	return store.Close()
}
