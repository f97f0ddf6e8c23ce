package system

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/ibadah/internal/cli"
	"github.com/julianstephens/ibadah/internal/logger"
	"github.com/julianstephens/ibadah/internal/reconcile"
	"github.com/julianstephens/ibadah/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	if path, err := ctx.PerformBackup("tui"); err != nil {
		logger.Warn("automatic backup failed", "error", err)
	} else if path != "" {
		logger.Debug("automatic backup created", "path", path)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := tui.NewModel(runCtx, ctx.Controller(runCtx), ctx.Journal())
	if fn := launchSync(runCtx, ctx); fn != nil {
		model = model.WithSync(fn)
	}
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui exited with error: %w", err)
	}
	return nil
}

// launchSync returns the reconciliation to run when the TUI starts, or nil
// when nobody is signed in or no remote store is reachable.
func launchSync(runCtx context.Context, ctx *cli.Context) tui.SyncFunc {
	sess, ok := ctx.Session()
	if !ok {
		return nil
	}
	r, err := ctx.Remote(runCtx)
	if err != nil {
		logger.Warn("remote unavailable, skipping launch sync", "error", err)
		return nil
	}
	if r == nil {
		return nil
	}
	engine := ctx.Engine(r)
	return func(c context.Context) (reconcile.Result, error) {
		return engine.Reconcile(c, sess.UID)
	}
}
