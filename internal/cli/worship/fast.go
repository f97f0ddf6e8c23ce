package worship

import (
	"context"
	"fmt"

	"github.com/julianstephens/ibadah/internal/cli"
)

type FastCmd struct {
	Date string `help:"Date to mark (YYYY-MM-DD or 'today')." default:"today"`
	Off  bool   `help:"Mark the day as not fasted."`
}

func (c *FastCmd) Run(ctx *cli.Context) error {
	date, err := ctx.ResolveDate(c.Date)
	if err != nil {
		return err
	}
	runCtx := context.Background()
	ctl := ctx.Controller(runCtx)
	if _, err := load(runCtx, ctl, date); err != nil {
		return err
	}

	current, err := ctl.ToggleFasting(runCtx, date, !c.Off)
	if err != nil {
		return err
	}
	if c.Off {
		fmt.Printf("✓ %s marked as not fasted\n", date)
	} else {
		fmt.Printf("✓ %s marked as fasted\n", date)
	}
	fmt.Printf("  Current streak: %d day(s)\n", current)
	return nil
}

type StreakCmd struct{}

func (c *StreakCmd) Run(ctx *cli.Context) error {
	ctl := ctx.Controller(context.Background())
	fmt.Printf("Current fasting streak: %d day(s)\n", ctl.Streak())
	fmt.Printf("Days fasted: %d\n", len(ctx.Journal().Fasting.Dates()))
	return nil
}
