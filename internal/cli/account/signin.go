package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/ibadah/internal/cli"
	"github.com/julianstephens/ibadah/internal/logger"
	"github.com/julianstephens/ibadah/internal/models"
	"github.com/julianstephens/ibadah/internal/reconcile"
)

var errNoRemote = errors.New("no remote backend configured, set IBADAH_REMOTE_BACKEND")

type SigninCmd struct {
	UID     string `help:"User id to sign in as. Use with trusted backends such as postgres."`
	IDToken string `name:"id-token" env:"IBADAH_ID_TOKEN" help:"Identity token to verify with the firestore backend."`
	Email   string `help:"Email stored on the user document."`
	Name    string `help:"Display name stored on the user document."`
}

func (c *SigninCmd) Run(ctx *cli.Context) error {
	if c.UID == "" && c.IDToken == "" {
		if err := c.prompt(); err != nil {
			return err
		}
	}

	runCtx := context.Background()
	r, err := ctx.Remote(runCtx)
	if err != nil {
		return err
	}
	if r == nil {
		return errNoRemote
	}

	uid := strings.TrimSpace(c.UID)
	var profile models.Profile
	if c.IDToken != "" {
		verify, err := ctx.Verifier(runCtx)
		if err != nil {
			return err
		}
		uid, profile, err = verify(runCtx, strings.TrimSpace(c.IDToken))
		if err != nil {
			return fmt.Errorf("sign-in failed: %w", err)
		}
	}
	if uid == "" {
		return errors.New("a user id or identity token is required")
	}
	if c.Email != "" {
		profile.Email = c.Email
	}
	if c.Name != "" {
		profile.DisplayName = c.Name
	}

	if sess, ok := ctx.Session(); ok && sess.UID != uid {
		return fmt.Errorf("already signed in as %s, run 'ibadah signout' first", sess.UID)
	}

	if _, err := r.EnsureUser(runCtx, uid, profile); err != nil {
		return fmt.Errorf("failed to create user document: %w", err)
	}
	if err := ctx.Journal().Session.Save(models.Session{UID: uid, Profile: profile, SignedInAt: time.Now()}); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	logger.Info("signed in", "uid", uid)

	res, err := ctx.Engine(r).Reconcile(runCtx, uid)
	if err != nil {
		return fmt.Errorf("signed in, but sync failed: %w", err)
	}

	name := profile.DisplayName
	if name == "" {
		name = uid
	}
	fmt.Printf("✓ Signed in as %s\n", name)
	printResult(res)
	return nil
}

func (c *SigninCmd) prompt() error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Identity token").
				Description("Paste the token issued by your sign-in provider.").
				EchoMode(huh.EchoModePassword).
				Value(&c.IDToken).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("token cannot be empty")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
	return form.Run()
}

func printResult(res reconcile.Result) {
	fmt.Printf("  Synced %d day(s): %d pulled, %d restored, %d pushed\n",
		len(res.Summary), res.Pulled, res.Seeded, res.Pushed)
	fmt.Printf("  Fasting days: %d, current streak: %d\n", len(res.Fasting), res.Streak)
	if res.PushFailures > 0 {
		fmt.Printf("  ⚠️  %d remote write(s) failed and will be retried on the next sync\n", res.PushFailures)
	}
}
