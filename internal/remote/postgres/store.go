// Package postgres stores user documents and daily logs in PostgreSQL. The
// user document is a JSONB value updated with row-locked read-merge-write.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/julianstephens/ibadah/internal/constants"
	"github.com/julianstephens/ibadah/internal/models"
	"github.com/julianstephens/ibadah/internal/remote"
	"github.com/julianstephens/ibadah/migrations"
)

// Store is a remote.Provider backed by a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// New connects to connStr and applies the schema.
func New(ctx context.Context, connStr string) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}
	poolConfig.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}

	s := &Store{pool: pool, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	schema, err := migrations.FS.ReadFile("postgres/001_init.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	if _, err := s.pool.Exec(ctx, string(schema)); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, uid string) (*remote.UserDocument, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM users WHERE uid = $1`, uid).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, remote.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read user %s: %w", uid, err)
	}
	return decodeDoc(uid, raw)
}

func decodeDoc(uid string, raw []byte) (*remote.UserDocument, error) {
	var doc remote.UserDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", uid, err)
	}
	doc.UID = uid
	if doc.WorshipHistory == nil {
		doc.WorshipHistory = models.SummaryMap{}
	}
	return &doc, nil
}

// update locks the user row, applies fn and writes the document back. A
// missing row starts from blank fields, matching a set-with-merge.
func (s *Store) update(ctx context.Context, uid string, create func() *remote.UserDocument, fn func(*remote.UserDocument)) (*remote.UserDocument, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var raw []byte
	var doc *remote.UserDocument
	err = tx.QueryRow(ctx, `SELECT doc FROM users WHERE uid = $1 FOR UPDATE`, uid).Scan(&raw)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		doc = create()
	case err != nil:
		return nil, fmt.Errorf("failed to lock user %s: %w", uid, err)
	default:
		if doc, err = decodeDoc(uid, raw); err != nil {
			return nil, err
		}
		fn(doc)
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user %s: %w", uid, err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO users (uid, doc, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (uid) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		uid, encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to write user %s: %w", uid, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit user %s: %w", uid, err)
	}
	return doc, nil
}

func (s *Store) blank(uid string) func() *remote.UserDocument {
	return func() *remote.UserDocument {
		return &remote.UserDocument{UID: uid, WorshipHistory: models.SummaryMap{}, FastingHistory: []string{}}
	}
}

func (s *Store) EnsureUser(ctx context.Context, uid string, profile models.Profile) (*remote.UserDocument, error) {
	return s.update(ctx, uid,
		func() *remote.UserDocument {
			return remote.NewUserDocument(uid, profile, constants.DefaultCity, s.now())
		},
		func(doc *remote.UserDocument) { remote.ApplyProfile(doc, profile) },
	)
}

func (s *Store) MergeUser(ctx context.Context, uid string, patch remote.UserPatch) error {
	if patch.Empty() {
		return nil
	}
	apply := func(doc *remote.UserDocument) { remote.ApplyPatch(doc, patch) }
	_, err := s.update(ctx, uid, func() *remote.UserDocument {
		doc := s.blank(uid)()
		apply(doc)
		return doc
	}, apply)
	return err
}

func (s *Store) SetFasting(ctx context.Context, uid, date string, fasted bool, streak int) error {
	apply := func(doc *remote.UserDocument) { remote.ApplyFasting(doc, date, fasted, streak) }
	_, err := s.update(ctx, uid, func() *remote.UserDocument {
		doc := s.blank(uid)()
		apply(doc)
		return doc
	}, apply)
	return err
}

func (s *Store) SaveDailyLog(ctx context.Context, uid string, log remote.DailyLog) error {
	if log.UpdatedAt.IsZero() {
		log.UpdatedAt = s.now()
	}
	tasks, err := json.Marshal(log.Tasks)
	if err != nil {
		return fmt.Errorf("failed to encode tasks: %w", err)
	}
	// Logs hang off the user row.
	if _, err := s.pool.Exec(ctx, `INSERT INTO users (uid) VALUES ($1) ON CONFLICT (uid) DO NOTHING`, uid); err != nil {
		return fmt.Errorf("failed to ensure user %s: %w", uid, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO daily_logs (uid, day, tasks, progress, updated_at) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (uid, day) DO UPDATE SET tasks = EXCLUDED.tasks, progress = EXCLUDED.progress, updated_at = EXCLUDED.updated_at`,
		uid, log.Date, tasks, log.Progress, log.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save daily log %s: %w", log.Date, err)
	}
	return nil
}

func (s *Store) GetDailyLog(ctx context.Context, uid, date string) (*remote.DailyLog, error) {
	row := s.pool.QueryRow(ctx, `SELECT day, tasks, progress, updated_at FROM daily_logs WHERE uid = $1 AND day = $2`, uid, date)
	l, err := scanLog(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, remote.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read daily log %s: %w", date, err)
	}
	return l, nil
}

func (s *Store) ListDailyLogs(ctx context.Context, uid string) ([]remote.DailyLog, error) {
	rows, err := s.pool.Query(ctx, `SELECT day, tasks, progress, updated_at FROM daily_logs WHERE uid = $1`, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily logs: %w", err)
	}
	defer rows.Close()

	var logs []remote.DailyLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily log: %w", err)
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

func scanLog(row pgx.Row) (*remote.DailyLog, error) {
	var (
		l    remote.DailyLog
		raw  []byte
		when time.Time
	)
	if err := row.Scan(&l.Date, &raw, &l.Progress, &when); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &l.Tasks); err != nil {
		return nil, fmt.Errorf("malformed tasks for %s: %w", l.Date, err)
	}
	l.UpdatedAt = when
	return &l, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
