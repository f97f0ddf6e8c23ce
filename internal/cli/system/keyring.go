package system

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/julianstephens/ibadah/internal/cli"
	"github.com/julianstephens/ibadah/internal/keyring"
)

// KeyringSetCmd stores a remote credential in the OS keyring.
type KeyringSetCmd struct {
	Value    string `arg:"" help:"PostgreSQL connection string, or base64 service-account JSON with --firebase."`
	Firebase bool   `help:"Store Firebase credentials instead of the database URL."`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	secret := slot(cmd.Firebase)
	var err error
	if cmd.Firebase {
		err = validateFirebaseCredentials(cmd.Value)
	} else {
		err = validateConnectionString(cmd.Value)
	}
	if err != nil {
		return err
	}

	if err := keyring.Set(secret, cmd.Value); err != nil {
		return err
	}
	fmt.Printf("✓ %s stored in OS keyring\n", secret)
	if cmd.Firebase {
		fmt.Println("  Set IBADAH_REMOTE_BACKEND=firestore to sync with it")
	} else {
		fmt.Println("  Set IBADAH_REMOTE_BACKEND=postgres to sync with it")
	}
	return nil
}

type KeyringGetCmd struct {
	Firebase bool `help:"Show whether Firebase credentials are stored."`
}

func (cmd *KeyringGetCmd) Run(ctx *cli.Context) error {
	secret := slot(cmd.Firebase)
	v, err := keyring.Get(secret)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring. Use 'ibadah keyring set' to store one", secret)
		}
		return fmt.Errorf("failed to retrieve %s from keyring: %w", secret, err)
	}
	if cmd.Firebase {
		fmt.Printf("stored (%d bytes)\n", len(v))
		return nil
	}
	fmt.Println(maskPassword(v))
	return nil
}

type KeyringDeleteCmd struct {
	Firebase bool `help:"Delete the Firebase credentials instead of the database URL."`
}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	secret := slot(cmd.Firebase)
	if err := keyring.Delete(secret); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring", secret)
		}
		return err
	}
	fmt.Printf("✓ %s deleted from OS keyring\n", secret)
	return nil
}

type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		fmt.Println("OS keyring: unavailable")
		return nil
	}
	fmt.Println("OS keyring: available")
	for _, s := range keyring.Secrets {
		state := "not set"
		if _, err := keyring.Get(s); err == nil {
			state = "stored"
		}
		fmt.Printf("  %-22s %s\n", s, state)
	}
	return nil
}

func slot(firebase bool) keyring.Secret {
	if firebase {
		return keyring.FirebaseCredentials
	}
	return keyring.ConnectionString
}

func validateConnectionString(connStr string) error {
	if _, err := pgxpool.ParseConfig(connStr); err != nil {
		return fmt.Errorf("invalid connection string: %w", err)
	}
	if !strings.HasPrefix(connStr, "postgres://") &&
		!strings.HasPrefix(connStr, "postgresql://") &&
		!strings.Contains(connStr, "host=") {
		return errors.New("connection string must be a valid PostgreSQL connection string")
	}
	return nil
}

func validateFirebaseCredentials(encoded string) error {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("firebase credentials must be base64 encoded: %w", err)
	}
	if !json.Valid(raw) {
		return errors.New("firebase credentials must decode to service-account JSON")
	}
	return nil
}

// maskPassword hides the password of URL and key=value connection strings.
func maskPassword(connStr string) string {
	if i := strings.Index(connStr, "://"); i != -1 {
		rest := connStr[i+3:]
		if at := strings.LastIndex(rest, "@"); at != -1 {
			userInfo := rest[:at]
			if colon := strings.Index(userInfo, ":"); colon != -1 {
				return connStr[:i+3] + userInfo[:colon] + ":****" + rest[at:]
			}
		}
		return connStr
	}

	parts := strings.Fields(connStr)
	for i, part := range parts {
		if strings.HasPrefix(part, "password=") {
			parts[i] = "password=****"
		}
	}
	return strings.Join(parts, " ")
}
