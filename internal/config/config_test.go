package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doit/internal/task"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParse_TopLevelSettings(t *testing.T) {
	t.Parallel()

	f, err := Parse(`
verbosity = 2
backend = "json"
db = "state/deps.json"
`, "/work")
	require.NoError(t, err)

	require.NotNil(t, f.Verbosity)
	assert.Equal(t, 2, *f.Verbosity)
	assert.Equal(t, "json", f.Backend)
	assert.Equal(t, filepath.Join("/work", "state", "deps.json"), f.DB)
	assert.Empty(t, f.Tasks)
}

func TestParse_CommandStringIsShellSplit(t *testing.T) {
	t.Parallel()

	f, err := Parse(`
[[task]]
name = "greet"
cmd = "sh -c 'echo \"hello world\"'"
`, "")
	require.NoError(t, err)
	require.Len(t, f.Tasks, 1)
	assert.Equal(t, []string{"sh", "-c", `echo "hello world"`}, f.Tasks[0].Argv)
	assert.Nil(t, f.Verbosity)
}

func TestParse_CommandArray(t *testing.T) {
	t.Parallel()

	f, err := Parse(`
[[task]]
name = "greet"
cmd = ["echo", "a b"]
env = { GREETING = "hi" }
`, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", "a b"}, f.Tasks[0].Argv)
	assert.Equal(t, map[string]string{"GREETING": "hi"}, f.Tasks[0].Env)
}

func TestParse_InvalidTasks(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		content string
	}{
		{"scalar deps", "[[task]]\nname = \"a\"\ncmd = \"true\"\ndeps = \"a.txt\"\n"},
		{"numeric dep", "[[task]]\nname = \"a\"\ncmd = \"true\"\ndeps = [\"a.txt\", 3]\n"},
		{"missing name", "[[task]]\ncmd = \"true\"\n"},
		{"missing cmd", "[[task]]\nname = \"a\"\n"},
		{"numeric cmd", "[[task]]\nname = \"a\"\ncmd = 7\n"},
		{"unbalanced quote", "[[task]]\nname = \"a\"\ncmd = \"echo 'oops\"\n"},
	}

	for _, tc := range testCases {
		_, err := Parse(tc.content, "")
		require.Error(t, err, tc.name)
		assert.ErrorIs(t, err, task.ErrInvalidTask, tc.name)
	}
}

func TestParse_UnknownKeyIsRejected(t *testing.T) {
	t.Parallel()

	_, err := Parse("[[task]]\nname = \"a\"\ncmd = \"true\"\ndepz = []\n", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "depz")
}

func TestParse_MalformedTOML(t *testing.T) {
	t.Parallel()

	_, err := Parse("[[task]\nname=", "")
	assert.Error(t, err)
}

func TestExpandDeps_KeepsDeclarationOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "b.c"), "b")
	writeFile(t, filepath.Join(dir, "src", "a.c"), "a")
	writeFile(t, filepath.Join(dir, "src", "nested", "c.c"), "c")
	writeFile(t, filepath.Join(dir, "src", "notes.txt"), "n")

	deps, err := ExpandDeps(dir, []string{"z.c", "src/a.c", "src/**/*.c", "missing.h", "none/*.x", "z.c"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "z.c"),
		filepath.Join(dir, "src", "a.c"),
		filepath.Join(dir, "src", "b.c"),
		filepath.Join(dir, "src", "nested", "c.c"),
		filepath.Join(dir, "missing.h"),
	}, deps)
}

func TestParse_DependencyOrderIsKept(t *testing.T) {
	t.Parallel()

	f, err := Parse(`
[[task]]
name = "build"
cmd  = "true"
deps = ["z.c", "a.c"]
`, "/work")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("/work", "z.c"), filepath.Join("/work", "a.c")}, f.Tasks[0].Deps)
}

func TestParse_DuplicateTaskNameIsInvalid(t *testing.T) {
	t.Parallel()

	_, err := Parse(`
[[task]]
name = "t"
cmd  = "true"

[[task]]
name = "t"
cmd  = "false"
`, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, task.ErrInvalidTask)
	assert.Contains(t, err.Error(), "duplicate task name")
}

func TestLoad_ResolvesAgainstFileDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "hello.c"), "int main(){}")
	path := filepath.Join(dir, DefaultFileName)
	writeFile(t, path, `
[[task]]
name = "compile"
cmd = "cc -o hello hello.c"
deps = ["hello.c"]
`)

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Path)
	require.Len(t, f.Tasks, 1)
	assert.Equal(t, []string{filepath.Join(dir, "hello.c")}, f.Tasks[0].Deps)
	assert.Equal(t, dir, f.Tasks[0].Dir)

	ct, err := f.Tasks[0].Build()
	require.NoError(t, err)
	assert.Equal(t, "compile => Cmd: cc -o hello hello.c", ct.Title())
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestSelect(t *testing.T) {
	t.Parallel()

	f, err := Parse(`
[[task]]
name = "a"
cmd = "true"

[[task]]
name = "b"
cmd = "true"

[[task]]
name = "c"
cmd = "true"
`, "")
	require.NoError(t, err)

	all, err := f.Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	some, err := f.Select([]string{"c", "a"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "a", some[0].Name, "file order is kept")
	assert.Equal(t, "c", some[1].Name)

	_, err = f.Select([]string{"a", "zzz"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zzz")
}
