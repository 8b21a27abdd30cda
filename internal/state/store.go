package state

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"doit/internal/errors"
	"doit/internal/util"
)

// Store persists run history under:
//
//	<baseDir>/.doit/runs/<run-id>/run.json
//	<baseDir>/.doit/runs/<run-id>/failure.json
//
// All writes are atomic and durable (file sync + atomic rename + dir sync).
type Store struct {
	baseDir string
}

func NewStore(baseDir string) (*Store, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New("baseDir is required")
	}
	return &Store{baseDir: baseDir}, nil
}

func (s *Store) runsRootDir() string {
	return filepath.Join(s.baseDir, ".doit", "runs")
}

func (s *Store) runDir(runID string) string {
	return filepath.Join(s.runsRootDir(), runID)
}

func (s *Store) runPath(runID string) string {
	return filepath.Join(s.runDir(runID), "run.json")
}

func (s *Store) failurePath(runID string) string {
	return filepath.Join(s.runDir(runID), "failure.json")
}

// ListRunIDs returns the recorded run IDs, newest first. Run IDs are
// time-ordered UUIDs so lexical order is creation order.
func (s *Store) ListRunIDs() ([]string, error) {
	entries, err := os.ReadDir(s.runsRootDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WithStackTrace(err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if name := strings.TrimSpace(e.Name()); name != "" {
			ids = append(ids, name)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}

func (s *Store) SaveRun(run Run) error {
	if run.Tasks == nil {
		run.Tasks = []TaskRecord{}
	}
	if err := run.Validate(); err != nil {
		return errors.WithStackTraceAndPrefix(err, "invalid run")
	}
	if err := util.EnsureDirectory(s.runDir(run.RunID)); err != nil {
		return errors.WithStackTraceAndPrefix(err, "ensure run dir")
	}
	data, err := jsonMarshalStable(run)
	if err != nil {
		return errors.WithStackTraceAndPrefix(err, "marshal run")
	}
	if err := util.WriteFileAtomic(s.runPath(run.RunID), data, 0o644); err != nil {
		return errors.WithStackTraceAndPrefix(err, "write run")
	}
	return nil
}

func (s *Store) LoadRun(runID string) (Run, error) {
	var run Run
	if strings.TrimSpace(runID) == "" {
		return Run{}, errors.New("runID is required")
	}
	if err := readJSONStrict(s.runPath(runID), &run); err != nil {
		return Run{}, err
	}
	if err := run.Validate(); err != nil {
		return Run{}, errors.WithStackTraceAndPrefix(err, "invalid run on disk")
	}
	return run, nil
}

func (s *Store) SaveFailure(runID string, failure Failure) error {
	if strings.TrimSpace(runID) == "" {
		return errors.New("runID is required")
	}
	if err := failure.Validate(); err != nil {
		return errors.WithStackTraceAndPrefix(err, "invalid failure")
	}
	if err := util.EnsureDirectory(s.runDir(runID)); err != nil {
		return errors.WithStackTraceAndPrefix(err, "ensure run dir")
	}
	data, err := jsonMarshalStable(failure)
	if err != nil {
		return errors.WithStackTraceAndPrefix(err, "marshal failure")
	}
	if err := util.WriteFileAtomic(s.failurePath(runID), data, 0o644); err != nil {
		return errors.WithStackTraceAndPrefix(err, "write failure")
	}
	return nil
}

// LoadFailure returns the failure recorded for runID. ok is false when the
// run has no failure record.
func (s *Store) LoadFailure(runID string) (failure Failure, ok bool, err error) {
	if strings.TrimSpace(runID) == "" {
		return Failure{}, false, errors.New("runID is required")
	}
	if err := readJSONStrict(s.failurePath(runID), &failure); err != nil {
		if os.IsNotExist(err) {
			return Failure{}, false, nil
		}
		return Failure{}, false, err
	}
	if err := failure.Validate(); err != nil {
		return Failure{}, false, errors.WithStackTraceAndPrefix(err, "invalid failure on disk")
	}
	return failure, true, nil
}

func jsonMarshalStable(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func readJSONStrict(path string, dst any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.WithStackTraceAndPrefix(err, "decoding %s", path)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.Errorf("invalid JSON in %s: trailing content", path)
	}
	return nil
}
