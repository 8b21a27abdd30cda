// Package config loads a task file (dodo.toml) into command tasks.
//
//	verbosity = 1
//	backend   = "bolt"
//	db        = ".doit.db"
//
//	[[task]]
//	name = "compile"
//	cmd  = "gcc -o hello hello.c"
//	deps = ["hello.c", "include/**/*.h"]
//	dir  = "."
//	env  = { CC = "gcc" }
//
// cmd is either a string, split the way a POSIX shell would, or an array of
// arguments. deps must be an array. Relative paths are resolved against the
// directory holding the task file.
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/shlex"
	"github.com/mattn/go-zglob"

	"doit/internal/errors"
	"doit/internal/task"
)

// DefaultFileName is the task file looked up when none is given.
const DefaultFileName = "dodo.toml"

// File is a parsed task file.
type File struct {
	// Path is where the file was loaded from, empty for Parse.
	Path string

	// Verbosity is nil when the file does not set it.
	Verbosity *int
	Backend   string
	DB        string

	Tasks []TaskDef
}

// TaskDef is one [[task]] entry with its command split and its dependency
// globs expanded.
type TaskDef struct {
	Name string
	Argv []string
	Deps []string
	Dir  string
	Env  map[string]string
}

type rawFile struct {
	Verbosity *int      `toml:"verbosity"`
	Backend   string    `toml:"backend"`
	DB        string    `toml:"db"`
	Tasks     []rawTask `toml:"task"`
}

type rawTask struct {
	Name string            `toml:"name"`
	Cmd  any               `toml:"cmd"`
	Deps any               `toml:"deps"`
	Dir  string            `toml:"dir"`
	Env  map[string]string `toml:"env"`
}

// Load reads and parses the task file at path.
func Load(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "reading task file")
	}
	f, err := Parse(string(content), filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	f.Path = path
	return f, nil
}

// Parse parses task file content. baseDir anchors relative paths.
func Parse(content, baseDir string) (*File, error) {
	var raw rawFile
	md, err := toml.Decode(content, &raw)
	if err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "parsing task file")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.Errorf("parsing task file: unknown keys %s", strings.Join(keys, ", "))
	}

	f := &File{
		Verbosity: raw.Verbosity,
		Backend:   raw.Backend,
		DB:        raw.DB,
		Tasks:     make([]TaskDef, 0, len(raw.Tasks)),
	}
	if f.DB != "" {
		f.DB = resolve(baseDir, f.DB)
	}

	names := make(map[string]struct{}, len(raw.Tasks))
	for i, rt := range raw.Tasks {
		def, err := rt.toDef(i, baseDir)
		if err != nil {
			return nil, err
		}
		if _, dup := names[def.Name]; dup {
			return nil, task.Invalidf(def.Name, "duplicate task name")
		}
		names[def.Name] = struct{}{}
		f.Tasks = append(f.Tasks, def)
	}
	return f, nil
}

func (rt rawTask) toDef(index int, baseDir string) (TaskDef, error) {
	name := strings.TrimSpace(rt.Name)
	if name == "" {
		return TaskDef{}, task.Invalidf("", "task[%d] has no name", index)
	}

	argv, err := parseCmd(name, rt.Cmd)
	if err != nil {
		return TaskDef{}, err
	}

	patterns, err := parseDeps(name, rt.Deps)
	if err != nil {
		return TaskDef{}, err
	}
	deps, err := ExpandDeps(baseDir, patterns)
	if err != nil {
		return TaskDef{}, errors.WithStackTraceAndPrefix(err, "task %q", name)
	}

	dir := baseDir
	if rt.Dir != "" {
		dir = resolve(baseDir, rt.Dir)
	}

	return TaskDef{Name: name, Argv: argv, Deps: deps, Dir: dir, Env: rt.Env}, nil
}

func parseCmd(name string, cmd any) ([]string, error) {
	switch v := cmd.(type) {
	case nil:
		return nil, task.Invalidf(name, "cmd is required")
	case string:
		argv, err := shlex.Split(v)
		if err != nil {
			return nil, task.Invalidf(name, "cannot split cmd %q: %v", v, err)
		}
		return argv, nil
	case []any:
		return stringList(name, "cmd", v)
	default:
		return nil, task.Invalidf(name, "cmd must be a string or an array of strings, got %T", cmd)
	}
}

// parseDeps rejects anything that is not a sequence of paths. A single
// string is not accepted as a one-element list.
func parseDeps(name string, deps any) ([]string, error) {
	switch v := deps.(type) {
	case nil:
		return nil, nil
	case []any:
		return stringList(name, "deps", v)
	default:
		return nil, task.Invalidf(name, "deps must be an array of paths, got %T", deps)
	}
}

func stringList(name, field string, values []any) ([]string, error) {
	out := make([]string, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, task.Invalidf(name, "%s[%d] must be a string, got %T", field, i, v)
		}
		out = append(out, s)
	}
	return out, nil
}

// ExpandDeps resolves dependency patterns against baseDir.
//
// Declaration order is kept: a task checks its dependencies in that order.
// Plain paths are kept even when the file does not exist yet, so the run
// reports it. Glob patterns (** included) are expanded in place to the files
// they match, sorted; a pattern matching nothing contributes nothing. A path
// listed twice keeps its first position.
func ExpandDeps(baseDir string, patterns []string) ([]string, error) {
	seen := make(map[string]struct{}, len(patterns))
	paths := make([]string, 0, len(patterns))
	add := func(p string) {
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}

	for _, pattern := range patterns {
		if pattern == "" {
			return nil, errors.New("empty dependency path")
		}
		full := resolve(baseDir, pattern)

		if !containsGlobChar(pattern) {
			add(full)
			continue
		}

		matches, err := zglob.Glob(full)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, errors.WithStackTraceAndPrefix(err, "expanding %q", pattern)
		}
		files := make([]string, 0, len(matches))
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && info.IsDir() {
				continue
			}
			files = append(files, filepath.Clean(m))
		}
		sort.Strings(files)
		for _, f := range files {
			add(f)
		}
	}
	return paths, nil
}

func resolve(baseDir, path string) string {
	if filepath.IsAbs(path) || baseDir == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(baseDir, path)
}

func containsGlobChar(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[]{}")
}

// Select returns the definitions named in names, keeping file order. An
// empty names selects every task; an unknown name is an error.
func (f *File) Select(names []string) ([]TaskDef, error) {
	if len(names) == 0 {
		return append([]TaskDef(nil), f.Tasks...), nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	selected := make([]TaskDef, 0, len(names))
	for _, def := range f.Tasks {
		if wanted[def.Name] {
			selected = append(selected, def)
			delete(wanted, def.Name)
		}
	}
	if len(wanted) > 0 {
		missing := make([]string, 0, len(wanted))
		for n := range wanted {
			missing = append(missing, n)
		}
		sort.Strings(missing)
		return nil, errors.Errorf("unknown task(s): %s", strings.Join(missing, ", "))
	}
	return selected, nil
}

// Build turns a definition into a command task.
func (d TaskDef) Build() (*task.CommandTask, error) {
	opts := []task.CommandOption{task.WithDir(d.Dir)}
	if len(d.Env) > 0 {
		opts = append(opts, task.WithEnv(d.Env))
	}
	return task.NewCommandTask(d.Name, d.Argv, d.Deps, opts...)
}
