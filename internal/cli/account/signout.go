package account

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/ibadah/internal/cli"
)

type SignoutCmd struct {
	NoBackup bool `name:"no-backup" help:"Skip the backup taken before local data is cleared."`
	Yes      bool `short:"y" help:"Skip the confirmation prompt."`
}

func (c *SignoutCmd) Run(ctx *cli.Context) error {
	sess, ok := ctx.Session()
	if !ok {
		return cli.ErrNotSignedIn
	}

	if !c.Yes {
		confirm := false
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Sign out %s?", sess.UID)).
					Description("Local worship and fasting records on this device will be removed.").
					Value(&confirm),
			),
		).WithTheme(huh.ThemeDracula()).Run()
		if err != nil {
			return err
		}
		if !confirm {
			fmt.Println("Sign-out cancelled.")
			return nil
		}
	}

	if !c.NoBackup {
		path, err := ctx.PerformBackup("signout")
		if err != nil {
			return fmt.Errorf("backup before sign-out failed, use --no-backup to skip: %w", err)
		}
		if path != "" {
			fmt.Printf("✓ Backup created: %s\n", filepath.Base(path))
		}
	}

	// Remote records are kept; only this device forgets the user.
	if err := ctx.Engine(nil).SignOut(); err != nil {
		return err
	}
	fmt.Printf("✓ Signed out %s\n", sess.UID)
	return nil
}
