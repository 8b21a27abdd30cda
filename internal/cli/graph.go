package cli

import (
	"os"

	"doit/internal/config"
	"doit/internal/task"
)

// loadTaskFile reads the task file. A missing or malformed file, or an invalid
// task definition, is an invocation error.
func loadTaskFile(path string) (*config.File, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, invalidInvocationf("task file %s not found", path)
	}
	file, err := config.Load(path)
	if err != nil {
		return nil, invalidInvocation(err)
	}
	return file, nil
}

// buildTasks selects and builds the named tasks, all of them when names is
// empty.
func buildTasks(file *config.File, names []string) ([]task.Task, error) {
	defs, err := file.Select(names)
	if err != nil {
		return nil, invalidInvocation(err)
	}
	tasks := make([]task.Task, 0, len(defs))
	for _, def := range defs {
		t, err := def.Build()
		if err != nil {
			return nil, invalidInvocation(err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
