package worship

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/julianstephens/ibadah/internal/cli"
	"github.com/julianstephens/ibadah/internal/logger"
	"github.com/julianstephens/ibadah/internal/recap"
	"github.com/julianstephens/ibadah/internal/remote"
	"github.com/julianstephens/ibadah/internal/tui/components/history"
)

type RecapCmd struct {
	JSON bool `name:"json" help:"Print the recap as JSON."`
}

func (c *RecapCmd) Run(ctx *cli.Context) error {
	r, err := recap.Build(ctx.Journal(), ctx.TodayKey())
	if err != nil {
		return err
	}
	if c.JSON {
		return printJSON(r)
	}

	fmt.Println("Ramadan recap")
	fmt.Println()
	fmt.Printf("  Days fasted:      %d\n", r.FastingDays)
	fmt.Printf("  Average worship:  %d%%\n", r.AvgWorship)
	fmt.Printf("  Current streak:   %d\n", r.CurrentStreak)
	fmt.Printf("  Longest streak:   %d\n", r.LongestStreak)
	if len(r.TopTasks) > 0 {
		fmt.Println()
		fmt.Println("  Most consistent:")
		for i, t := range r.TopTasks {
			fmt.Printf("    %d. %-28s %d day(s)\n", i+1, t.Label, t.Count)
		}
	}
	return nil
}

type HistoryCmd struct{}

func (c *HistoryCmd) Run(ctx *cli.Context) error {
	summary := ctx.Journal().Summary.Load()
	fasting := ctx.Journal().Fasting.Set()
	dates := summary.Dates()
	if len(dates) == 0 && len(fasting) == 0 {
		fmt.Println("No history yet.")
		return nil
	}
	seen := make(map[string]bool, len(dates))
	for _, d := range dates {
		seen[d] = true
		_, fasted := fasting[d]
		fmt.Println(history.Line(d, summary[d], fasted))
	}
	for _, d := range ctx.Journal().Fasting.Dates() {
		if !seen[d] {
			fmt.Println(history.Line(d, 0, true))
		}
	}
	return nil
}

type ProfileCmd struct {
	Month string `help:"Month to break down (YYYY-MM). Defaults to the current month."`
	JSON  bool   `name:"json" help:"Print the profile as JSON."`
}

func (c *ProfileCmd) Run(ctx *cli.Context) error {
	today := ctx.TodayKey()
	month := c.Month
	if month == "" {
		month = today[:7]
	}

	runCtx := context.Background()
	var (
		r   remote.Provider
		uid string
	)
	if sess, ok := ctx.Session(); ok {
		uid = sess.UID
		var err error
		if r, err = ctx.Remote(runCtx); err != nil {
			logger.Warn("remote unavailable, using local records", "error", err)
			r = nil
		}
	}

	p, err := recap.BuildProfile(runCtx, ctx.Journal(), r, uid, today, month)
	if err != nil {
		return err
	}
	if c.JSON {
		return printJSON(p)
	}

	fmt.Printf("Profile (%s data)\n\n", p.Source)
	fmt.Printf("  Today:          %d%%\n", p.TodayProgress)
	fmt.Printf("  Fasting streak: %d\n", p.FastingStreak)
	fmt.Printf("  Days fasted:    %d\n", p.TotalFastingDays)
	fmt.Printf("\n  %s (%d days)\n", p.Month, p.DaysInMonth)
	for _, t := range p.Breakdown {
		fmt.Printf("    %-28s %2d/%d  %3d%%\n", t.Label, t.Count, p.DaysInMonth, t.Percent)
	}
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
