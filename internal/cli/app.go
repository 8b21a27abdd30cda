// Package cli wires the task file, the runner and run history into the doit
// command line.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	"doit/internal/log"
	"doit/internal/runner"
)

// Flag names.
const (
	FlagFile      = "file"
	FlagVerbosity = "verbosity"
	FlagBackend   = "backend"
	FlagDB        = "db"
	FlagLogLevel  = "log-level"
	FlagTrace     = "trace"
	FlagQuiet     = "quiet"
)

// app carries the writers and the exit code of the run command between the
// urfave actions and Run.
type app struct {
	stdout io.Writer
	stderr io.Writer
	code   int
}

// NewApp builds the doit command line. The exit code of a run ends up in
// *code; errors returned by the app are mapped with ExitCode.
func NewApp(stdout, stderr io.Writer, code *int) *cli.App {
	a := &app{stdout: stdout, stderr: stderr}

	runCmd := &cli.Command{
		Name:      "run",
		Usage:     "Run tasks whose dependencies changed (all tasks when none are named)",
		ArgsUsage: "[task...]",
		Action:    a.withCode(code, a.runAction),
	}

	return &cli.App{
		Name:                 "doit",
		Usage:                "Run tasks, skipping those whose file dependencies did not change",
		UsageText:            "doit [global options] [command] [task...]",
		HideVersion:          true,
		Writer:               stdout,
		ErrWriter:            stderr,
		EnableBashCompletion: false,
		Flags:                globalFlags(),
		Commands: []*cli.Command{
			runCmd,
			{
				Name:   "list",
				Usage:  "Print the title of every task in the task file",
				Action: a.listAction,
			},
			{
				Name:   "history",
				Usage:  "Print recorded runs, newest first",
				Action: a.historyAction,
			},
			{
				Name:   "forget",
				Usage:  "Delete the dependency store so every task runs next time",
				Action: a.forgetAction,
			},
		},
		Action:         runCmd.Action,
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    FlagFile,
			Aliases: []string{"f"},
			Usage:   "Task file",
			Value:   "dodo.toml",
		},
		&cli.IntFlag{
			Name:    FlagVerbosity,
			Aliases: []string{"v"},
			Usage:   "0 hides task output unless a task fails, 1 shows stderr, 2 shows everything",
			Value:   runner.DefaultVerbosity,
		},
		&cli.StringFlag{
			Name:  FlagBackend,
			Usage: "Dependency store backend: bolt, json or memory",
		},
		&cli.StringFlag{
			Name:  FlagDB,
			Usage: "Dependency store file",
		},
		&cli.StringFlag{
			Name:  FlagLogLevel,
			Usage: "Engine log level (trace, debug, info, warn, error)",
			Value: "info",
		},
		&cli.StringFlag{
			Name:  FlagTrace,
			Usage: "Write the decisions taken for each task to this JSON file",
		},
		&cli.BoolFlag{
			Name:    FlagQuiet,
			Aliases: []string{"q"},
			Usage:   "Do not print task titles",
		},
	}
}

func (a *app) withCode(code *int, action func(*cli.Context) (int, error)) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		c, err := action(ctx)
		if code != nil {
			*code = c
		}
		return err
	}
}

func (a *app) newLogger(level string) (log.Logger, error) {
	logger := log.New(log.WithOutput(a.stderr))
	if err := logger.SetLevel(level); err != nil {
		return nil, invalidInvocationf("invalid --%s %q", FlagLogLevel, level)
	}
	return logger, nil
}
