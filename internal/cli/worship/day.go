package worship

import (
	"context"
	"fmt"

	"github.com/julianstephens/ibadah/internal/cli"
	"github.com/julianstephens/ibadah/internal/models"
	"github.com/julianstephens/ibadah/internal/tracker"
)

type DayCmd struct {
	Date string `arg:"" optional:"" help:"Date to show (YYYY-MM-DD or 'today')." default:"today"`
}

func (c *DayCmd) Run(ctx *cli.Context) error {
	date, err := ctx.ResolveDate(c.Date)
	if err != nil {
		return err
	}
	runCtx := context.Background()
	ctl := ctx.Controller(runCtx)
	rec, err := load(runCtx, ctl, date)
	if err != nil {
		return err
	}

	printDay(rec, ctl.Fasted(date))
	return nil
}

// load selects date and applies its record so it can be edited.
func load(ctx context.Context, ctl *tracker.Controller, date string) (models.DayRecord, error) {
	t, err := ctl.Select(date)
	if err != nil {
		return models.DayRecord{}, err
	}
	rec := ctl.Fetch(ctx, t)
	ctl.Apply(t, rec)
	return rec, nil
}

func printDay(rec models.DayRecord, fasted bool) {
	fasting := "no"
	if fasted {
		fasting = "yes"
	}
	fmt.Printf("Ibadah for %s: %d%% (%d/%d), fasting: %s\n\n",
		rec.Date, rec.Progress, rec.Completed(), len(rec.Tasks), fasting)

	var last models.Category
	for _, t := range rec.Tasks {
		if t.Category != last {
			fmt.Printf("  %s\n", t.Category)
			last = t.Category
		}
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Printf("    [%s] %-28s %s\n", mark, t.Label, t.ID)
	}
}
