package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/and161185/jobassist/internal/crypto/clientcrypto"
	"github.com/and161185/jobassist/internal/model"
)

// PgxPool is the subset of *pgxpool.Pool used by PGStore; pgxmock.PgxPoolIface implements it too.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PGStore persists sessions in the client_sessions table, one row per profile.
// It lets several hosts share one login (CI runners, remote shells), so the
// row is sealed under a key derived from the shared passphrase and a per-row salt.
type PGStore struct {
	pool       PgxPool
	profile    string
	passphrase []byte
}

// NewPGStore connects to dsn. Run migrate.Up first.
func NewPGStore(ctx context.Context, dsn, profile, passphrase string) (*PGStore, error) {
	if passphrase == "" {
		return nil, ErrPassphraseRequired
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return NewPGStoreWithPool(pool, profile, passphrase), nil
}

// NewPGStoreWithPool wraps an existing pool.
func NewPGStoreWithPool(pool PgxPool, profile, passphrase string) *PGStore {
	if profile == "" {
		profile = "default"
	}
	return &PGStore{pool: pool, profile: profile, passphrase: []byte(passphrase)}
}

// Close shuts down the underlying pool.
func (p *PGStore) Close() { p.pool.Close() }

// Load implements Persister.
func (p *PGStore) Load(ctx context.Context) (model.Session, bool, error) {
	const q = `SELECT salt, token, user_json FROM client_sessions WHERE profile=$1`
	var salt, tokBlob, userBlob []byte
	err := p.pool.QueryRow(ctx, q, p.profile).Scan(&salt, &tokBlob, &userBlob)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Session{}, false, nil
	}
	if err != nil {
		return model.Session{}, false, err
	}
	if len(p.passphrase) == 0 {
		return model.Session{}, false, fmt.Errorf("%w: %w", ErrUnreadable, ErrPassphraseRequired)
	}

	key := clientcrypto.DeriveKEK(p.passphrase, salt)
	tok, err := clientcrypto.Open(key, TokenRecord, tokBlob)
	if err != nil {
		return model.Session{}, false, fmt.Errorf("%w: open %s: %w", ErrUnreadable, TokenRecord, err)
	}
	rawUser, err := clientcrypto.Open(key, UserRecord, userBlob)
	if err != nil {
		return model.Session{}, false, fmt.Errorf("%w: open %s: %w", ErrUnreadable, UserRecord, err)
	}
	var u model.User
	if err := json.Unmarshal(rawUser, &u); err != nil {
		return model.Session{}, false, fmt.Errorf("%w: decode user_json: %w", ErrUnreadable, err)
	}
	return model.Session{Token: string(tok), User: u}, true, nil
}

// Save implements Persister. Every save draws a fresh salt.
func (p *PGStore) Save(ctx context.Context, s model.Session) error {
	if len(p.passphrase) == 0 {
		return ErrPassphraseRequired
	}
	rawUser, err := json.Marshal(s.User)
	if err != nil {
		return err
	}
	salt, err := clientcrypto.Rand(clientcrypto.SaltLen)
	if err != nil {
		return err
	}
	key := clientcrypto.DeriveKEK(p.passphrase, salt)
	tokBlob, err := clientcrypto.Seal(key, TokenRecord, []byte(s.Token))
	if err != nil {
		return err
	}
	userBlob, err := clientcrypto.Seal(key, UserRecord, rawUser)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO client_sessions (profile, salt, token, user_json, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (profile)
DO UPDATE SET salt=EXCLUDED.salt, token=EXCLUDED.token, user_json=EXCLUDED.user_json, updated_at=now()`
	_, err = p.pool.Exec(ctx, q, p.profile, salt, tokBlob, userBlob)
	return err
}

// Delete implements Persister.
func (p *PGStore) Delete(ctx context.Context) error {
	const q = `DELETE FROM client_sessions WHERE profile=$1`
	_, err := p.pool.Exec(ctx, q, p.profile)
	return err
}
