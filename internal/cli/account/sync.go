package account

import (
	"context"
	"fmt"

	"github.com/julianstephens/ibadah/internal/cli"
)

type SyncCmd struct{}

func (c *SyncCmd) Run(ctx *cli.Context) error {
	sess, ok := ctx.Session()
	if !ok {
		return cli.ErrNotSignedIn
	}
	runCtx := context.Background()
	r, err := ctx.Remote(runCtx)
	if err != nil {
		return err
	}
	if r == nil {
		return errNoRemote
	}

	res, err := ctx.Engine(r).Reconcile(runCtx, sess.UID)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	fmt.Printf("✓ Synced %s (run %s)\n", sess.UID, res.RunID)
	printResult(res)
	return nil
}
