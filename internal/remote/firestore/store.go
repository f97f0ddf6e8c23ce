// Package firestore stores user documents and daily logs in Cloud Firestore
// under users/{uid} and users/{uid}/dailyLogs/{date}.
package firestore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/julianstephens/ibadah/internal/constants"
	"github.com/julianstephens/ibadah/internal/logger"
	"github.com/julianstephens/ibadah/internal/models"
	"github.com/julianstephens/ibadah/internal/remote"
)

// Config selects the Firebase project and credentials. EncodedCredentials
// (base64 service-account JSON) wins over CredentialsFile. With neither set
// the SDK falls back to application default credentials or the emulator.
type Config struct {
	ProjectID          string
	EncodedCredentials string
	CredentialsFile    string
}

// Store is a remote.Provider backed by Firestore.
type Store struct {
	app    *firebase.App
	client *firestore.Client
	now    func() time.Time
}

// New initializes the Firebase app and its Firestore client.
func New(ctx context.Context, cfg Config) (*Store, error) {
	var opts []option.ClientOption
	switch {
	case cfg.EncodedCredentials != "":
		decoded, err := base64.StdEncoding.DecodeString(cfg.EncodedCredentials)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 firebase credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(decoded))
		logger.Debug("firestore: using credentials from environment")
	case cfg.CredentialsFile != "":
		if _, err := os.Stat(cfg.CredentialsFile); err != nil {
			return nil, fmt.Errorf("firebase credentials file not found: %s", cfg.CredentialsFile)
		}
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		logger.Debug("firestore: using credentials file", "path", cfg.CredentialsFile)
	}

	var fbConfig *firebase.Config
	if cfg.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}
	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firestore client: %w", err)
	}
	return &Store{app: app, client: client, now: time.Now}, nil
}

func (s *Store) userRef(uid string) *firestore.DocumentRef {
	return s.client.Collection(constants.UsersCollection).Doc(uid)
}

func (s *Store) logsRef(uid string) *firestore.CollectionRef {
	return s.userRef(uid).Collection(constants.DailyLogsCollection)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func (s *Store) GetUser(ctx context.Context, uid string) (*remote.UserDocument, error) {
	snap, err := s.userRef(uid).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, remote.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read user %s: %w", uid, err)
	}
	var doc remote.UserDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", uid, err)
	}
	doc.UID = uid
	if doc.WorshipHistory == nil {
		doc.WorshipHistory = models.SummaryMap{}
	}
	return &doc, nil
}

func (s *Store) EnsureUser(ctx context.Context, uid string, profile models.Profile) (*remote.UserDocument, error) {
	ref := s.userRef(uid)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		_, err := tx.Get(ref)
		if err != nil {
			if !isNotFound(err) {
				return err
			}
			return tx.Create(ref, remote.NewUserDocument(uid, profile, constants.DefaultCity, s.now()))
		}
		fields := profileFields(profile)
		if len(fields) == 0 {
			return nil
		}
		return tx.Set(ref, fields, firestore.MergeAll)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user %s: %w", uid, err)
	}
	return s.GetUser(ctx, uid)
}

func profileFields(p models.Profile) map[string]interface{} {
	fields := map[string]interface{}{}
	if p.Email != "" {
		fields["email"] = p.Email
	}
	if p.DisplayName != "" {
		fields["displayName"] = p.DisplayName
	}
	if p.PhotoURL != "" {
		fields["photoURL"] = p.PhotoURL
	}
	return fields
}

func (s *Store) MergeUser(ctx context.Context, uid string, patch remote.UserPatch) error {
	if patch.Empty() {
		return nil
	}
	fields := map[string]interface{}{}
	if len(patch.WorshipHistory) > 0 {
		// Nested maps under MergeAll merge per day key.
		history := make(map[string]interface{}, len(patch.WorshipHistory))
		for k, v := range patch.WorshipHistory {
			history[k] = v
		}
		fields["worshipHistory"] = history
	}
	if patch.FastingHistory != nil {
		fields["fastingHistory"] = patch.FastingHistory
	}
	if patch.FastingStreak != nil {
		fields["fastingStreak"] = *patch.FastingStreak
	}
	if patch.WorshipProgress != nil {
		fields["worshipProgress"] = *patch.WorshipProgress
	}
	if patch.LastRead != nil {
		fields["lastRead"] = map[string]interface{}{
			"surah":     patch.LastRead.Surah,
			"ayah":      patch.LastRead.Ayah,
			"updatedAt": patch.LastRead.UpdatedAt,
		}
	}
	if _, err := s.userRef(uid).Set(ctx, fields, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to merge user %s: %w", uid, err)
	}
	return nil
}

func (s *Store) SetFasting(ctx context.Context, uid, date string, fasted bool, streak int) error {
	var transform interface{} = firestore.ArrayUnion(date)
	if !fasted {
		transform = firestore.ArrayRemove(date)
	}
	_, err := s.userRef(uid).Set(ctx, map[string]interface{}{
		"fastingHistory": transform,
		"fastingStreak":  streak,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update fasting for %s: %w", uid, err)
	}
	return nil
}

func (s *Store) SaveDailyLog(ctx context.Context, uid string, log remote.DailyLog) error {
	if log.UpdatedAt.IsZero() {
		log.UpdatedAt = s.now()
	}
	_, err := s.logsRef(uid).Doc(log.Date).Set(ctx, map[string]interface{}{
		"date":      log.Date,
		"tasks":     log.Tasks,
		"progress":  log.Progress,
		"updatedAt": log.UpdatedAt,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to save daily log %s: %w", log.Date, err)
	}
	return nil
}

func (s *Store) GetDailyLog(ctx context.Context, uid, date string) (*remote.DailyLog, error) {
	snap, err := s.logsRef(uid).Doc(date).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, remote.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read daily log %s: %w", date, err)
	}
	return decodeLog(snap)
}

func (s *Store) ListDailyLogs(ctx context.Context, uid string) ([]remote.DailyLog, error) {
	snaps, err := s.logsRef(uid).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list daily logs: %w", err)
	}
	logs := make([]remote.DailyLog, 0, len(snaps))
	for _, snap := range snaps {
		l, err := decodeLog(snap)
		if err != nil {
			logger.Warn("skipping malformed daily log", "id", snap.Ref.ID, "error", err)
			continue
		}
		logs = append(logs, *l)
	}
	return logs, nil
}

func decodeLog(snap *firestore.DocumentSnapshot) (*remote.DailyLog, error) {
	var l remote.DailyLog
	if err := snap.DataTo(&l); err != nil {
		return nil, fmt.Errorf("failed to decode daily log %s: %w", snap.Ref.ID, err)
	}
	// The document id is the date key.
	l.Date = snap.Ref.ID
	return &l, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Verifier resolves Firebase ID tokens to a uid and profile.
type Verifier struct {
	client *auth.Client
}

// NewVerifier returns a token verifier sharing the store's Firebase app.
func (s *Store) NewVerifier(ctx context.Context) (*Verifier, error) {
	client, err := s.app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting auth client: %w", err)
	}
	return &Verifier{client: client}, nil
}

// Verify checks idToken and returns the signed-in user.
func (v *Verifier) Verify(ctx context.Context, idToken string) (string, models.Profile, error) {
	if idToken == "" {
		return "", models.Profile{}, errors.New("id token cannot be empty")
	}
	tok, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", models.Profile{}, fmt.Errorf("invalid id token: %w", err)
	}
	claim := func(k string) string {
		s, _ := tok.Claims[k].(string)
		return s
	}
	return tok.UID, models.Profile{
		Email:       claim("email"),
		DisplayName: claim("name"),
		PhotoURL:    claim("picture"),
	}, nil
}
