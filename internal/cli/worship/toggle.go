package worship

import (
	"context"
	"fmt"

	"github.com/julianstephens/ibadah/internal/cli"
)

type ToggleCmd struct {
	TaskID string `arg:"" help:"Task id to check or uncheck (see 'ibadah day')."`
	Date   string `help:"Date to edit (YYYY-MM-DD or 'today')." default:"today"`
}

func (c *ToggleCmd) Run(ctx *cli.Context) error {
	date, err := ctx.ResolveDate(c.Date)
	if err != nil {
		return err
	}
	runCtx := context.Background()
	ctl := ctx.Controller(runCtx)
	if _, err := load(runCtx, ctl, date); err != nil {
		return err
	}

	rec, err := ctl.ToggleTask(runCtx, date, c.TaskID)
	if err != nil {
		return err
	}
	for _, t := range rec.Tasks {
		if t.ID == c.TaskID {
			state := "unchecked"
			if t.Completed {
				state = "checked"
			}
			fmt.Printf("✓ %s %s for %s\n", t.Label, state, date)
		}
	}
	fmt.Printf("  Progress: %d%%\n", rec.Progress)
	return nil
}
