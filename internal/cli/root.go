package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/ibadah/internal/backup"
	"github.com/julianstephens/ibadah/internal/catalog"
	"github.com/julianstephens/ibadah/internal/config"
	"github.com/julianstephens/ibadah/internal/journal"
	"github.com/julianstephens/ibadah/internal/keyring"
	"github.com/julianstephens/ibadah/internal/logger"
	"github.com/julianstephens/ibadah/internal/metrics"
	"github.com/julianstephens/ibadah/internal/models"
	"github.com/julianstephens/ibadah/internal/reconcile"
	"github.com/julianstephens/ibadah/internal/remote"
	"github.com/julianstephens/ibadah/internal/remote/firestore"
	"github.com/julianstephens/ibadah/internal/remote/postgres"
	"github.com/julianstephens/ibadah/internal/storage"
	"github.com/julianstephens/ibadah/internal/tracker"
	"github.com/julianstephens/ibadah/internal/utils"
)

// ErrNotSignedIn is returned by commands that need a session.
var ErrNotSignedIn = errors.New("not signed in, run 'ibadah signin' first")

// VerifyFunc exchanges an identity token for a uid and profile.
type VerifyFunc func(ctx context.Context, idToken string) (string, models.Profile, error)

type Context struct {
	Store   storage.Provider
	Config  *config.Config
	Metrics *metrics.Metrics
	// Today overrides the current day key when set.
	Today string

	// NewRemote and Verify replace the configured backends when set.
	NewRemote func(ctx context.Context) (remote.Provider, error)
	Verify    VerifyFunc

	journal  *journal.Journal
	remote   remote.Provider
	verifier VerifyFunc
}

// Journal returns the local stores over the loaded key/value backend.
func (c *Context) Journal() *journal.Journal {
	if c.journal == nil {
		c.journal = journal.New(c.Store, catalog.Default())
	}
	return c.journal
}

// Validate checks the global overrides before any command runs.
func (c *Context) Validate() error {
	if c.Today != "" {
		if err := utils.ValidateDayKey(c.Today); err != nil {
			return fmt.Errorf("invalid --today value: %w", err)
		}
	}
	return nil
}

// TodayKey returns the current day key in the configured timezone.
func (c *Context) TodayKey() string {
	if c.Today != "" {
		return c.Today
	}
	tz := ""
	if c.Config != nil {
		tz = c.Config.Timezone
	}
	key, err := utils.TodayKey(tz)
	if err != nil {
		logger.Warn("invalid timezone, using local time", "timezone", tz, "error", err)
		return utils.DayKey(time.Now())
	}
	return key
}

func (c *Context) todayFunc() func() string {
	return func() string { return c.TodayKey() }
}

// ResolveDate maps "" and "today" to today and validates anything else.
func (c *Context) ResolveDate(s string) (string, error) {
	if s == "" || strings.EqualFold(s, "today") {
		return c.TodayKey(), nil
	}
	if err := utils.ValidateDayKey(s); err != nil {
		return "", err
	}
	return s, nil
}

// Session returns the signed-in session, if any.
func (c *Context) Session() (models.Session, bool) {
	return c.Journal().Session.Current()
}

// Remote returns the configured remote store, or nil when none is
// configured. The store is built once per process.
func (c *Context) Remote(ctx context.Context) (remote.Provider, error) {
	if c.remote != nil {
		return c.remote, nil
	}
	if c.NewRemote != nil {
		r, err := c.NewRemote(ctx)
		if err != nil {
			return nil, err
		}
		c.remote = r
		return r, nil
	}
	if c.Config == nil || !c.Config.RemoteEnabled() {
		return nil, nil
	}

	var (
		r   remote.Provider
		err error
	)
	switch c.Config.RemoteBackend {
	case config.RemoteFirestore:
		encoded := c.Config.FirebaseCredentials
		if encoded == "" && c.Config.CredentialsFile == "" {
			if v, kerr := keyring.Get(keyring.FirebaseCredentials); kerr == nil {
				encoded = v
			}
		}
		var fs *firestore.Store
		fs, err = firestore.New(ctx, firestore.Config{
			ProjectID:          c.Config.FirebaseProjectID,
			EncodedCredentials: encoded,
			CredentialsFile:    c.Config.CredentialsFile,
		})
		if err == nil {
			r = fs
			c.verifier = func(ctx context.Context, idToken string) (string, models.Profile, error) {
				v, err := fs.NewVerifier(ctx)
				if err != nil {
					return "", models.Profile{}, err
				}
				return v.Verify(ctx, idToken)
			}
		}
	case config.RemotePostgres:
		dsn := c.Config.DatabaseURL
		if dsn == "" {
			dsn, err = keyring.GetConnectionString()
			if errors.Is(err, keyring.ErrNotFound) {
				return nil, errors.New("no database url configured, set IBADAH_DATABASE_URL or run 'ibadah keyring set'")
			}
			if err != nil {
				return nil, err
			}
		}
		r, err = postgres.New(ctx, dsn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.Config.RemoteBackend, err)
	}

	c.remote = remote.Throttle(r, c.Config.RemoteWritesPerSec, c.Config.RemoteWriteBurst)
	return c.remote, nil
}

// Verifier returns the identity token verifier, if the backend has one.
func (c *Context) Verifier(ctx context.Context) (VerifyFunc, error) {
	if c.Verify != nil {
		return c.Verify, nil
	}
	if _, err := c.Remote(ctx); err != nil {
		return nil, err
	}
	if c.verifier == nil {
		return nil, errors.New("identity tokens require the firestore backend")
	}
	return c.verifier, nil
}

// Engine returns a reconciliation engine over r.
func (c *Context) Engine(r remote.Provider) *reconcile.Engine {
	return reconcile.New(c.Journal(), r,
		reconcile.WithMetrics(c.Metrics),
		reconcile.WithToday(c.todayFunc()),
	)
}

// Controller returns a tracker that pushes to the remote store when signed in.
// Remote connection failures degrade to local-only tracking.
func (c *Context) Controller(ctx context.Context) *tracker.Controller {
	opts := []tracker.Option{
		tracker.WithToday(c.todayFunc()),
		tracker.WithMetrics(c.Metrics),
	}
	if sess, ok := c.Session(); ok {
		r, err := c.Remote(ctx)
		if err != nil {
			logger.Warn("remote unavailable, tracking locally", "error", err)
		} else if r != nil {
			opts = append(opts, tracker.WithRemote(r, sess.UID))
		}
	}
	return tracker.New(c.Journal(), opts...)
}

// PerformBackup snapshots file-backed journals. Other backends are skipped.
func (c *Context) PerformBackup(label string) (string, error) {
	switch c.Store.(type) {
	case *storage.SQLiteStore, *storage.JSONStore:
	default:
		return "", nil
	}
	return backup.NewManager(c.Store.GetConfigPath()).CreateBackup(label)
}

// FlushMetrics writes the metrics textfile when one is configured.
func (c *Context) FlushMetrics() {
	if c.Config == nil || c.Config.MetricsFile == "" {
		return
	}
	if err := c.Metrics.WriteTextfile(c.Config.MetricsFile); err != nil {
		logger.Warn("failed to write metrics textfile", "path", c.Config.MetricsFile, "error", err)
	}
}

// Close releases the remote connection.
func (c *Context) Close() {
	if c.remote != nil {
		if err := c.remote.Close(); err != nil {
			logger.Warn("failed to close remote store", "error", err)
		}
		c.remote = nil
	}
}
