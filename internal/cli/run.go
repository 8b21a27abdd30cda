package cli

import (
	"context"
	"fmt"
	"io"
)

// Run is the command line entrypoint, suitable for black-box tests. args
// excludes the program name. It returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	code := ExitSuccess
	app := NewApp(stdout, stderr, &code)

	if err := app.RunContext(ctx, append([]string{"doit"}, args...)); err != nil {
		fmt.Fprintln(stderr, "doit:", err)
		return ExitCode(err)
	}
	return code
}
