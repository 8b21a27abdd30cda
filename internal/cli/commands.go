package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"doit/internal/runner"
	"doit/internal/state"
)

func (a *app) listAction(ctx *cli.Context) error {
	path, err := resolveTaskFile(ctx.String(FlagFile))
	if err != nil {
		return err
	}
	file, err := loadTaskFile(path)
	if err != nil {
		return err
	}
	tasks, err := buildTasks(file, ctx.Args().Slice())
	if err != nil {
		return err
	}
	for _, t := range tasks {
		fmt.Fprintln(a.stdout, t.Title())
	}
	return nil
}

func (a *app) historyAction(ctx *cli.Context) error {
	path, err := resolveTaskFile(ctx.String(FlagFile))
	if err != nil {
		return err
	}
	store, err := state.NewStore(filepath.Dir(path))
	if err != nil {
		return internal(err)
	}
	ids, err := store.ListRunIDs()
	if err != nil {
		return internal(err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(a.stdout, "no runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTARTED\tDURATION\tSTATUS\tDETAIL")
	for _, id := range ids {
		run, err := store.LoadRun(id)
		if err != nil {
			fmt.Fprintf(w, "%s\t-\t-\tunreadable\t%v\n", id, err)
			continue
		}
		detail := fmt.Sprintf("%d task(s)", len(run.Tasks))
		if f, ok, err := store.LoadFailure(id); err == nil && ok {
			detail = f.Message
			if f.Task != nil {
				detail = *f.Task + ": " + detail
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			run.RunID,
			run.StartTime.Local().Format(time.DateTime),
			run.Duration().Round(time.Millisecond),
			run.Status,
			detail,
		)
	}
	return internal(w.Flush())
}

func (a *app) forgetAction(ctx *cli.Context) error {
	path, err := resolveTaskFile(ctx.String(FlagFile))
	if err != nil {
		return err
	}

	db := ctx.String(FlagDB)
	if !ctx.IsSet(FlagDB) {
		db = runner.DefaultDBFile
		if file, err := loadTaskFile(path); err == nil && file.DB != "" {
			db = file.DB
		}
	}
	db = resolveUnderWorkDir(filepath.Dir(path), db)

	removed := false
	for _, p := range []string{db, db + ".lock"} {
		err := os.Remove(p)
		switch {
		case err == nil:
			removed = removed || p == db
		case !os.IsNotExist(err):
			return internal(err)
		}
	}
	if removed {
		fmt.Fprintf(a.stdout, "removed %s\n", db)
	} else {
		fmt.Fprintf(a.stdout, "nothing to forget: %s does not exist\n", db)
	}
	return nil
}
