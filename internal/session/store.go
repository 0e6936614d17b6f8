// Package session holds the authenticated identity and its persisted credential.
//
// Store is the only writer of the persisted session: Establish after login or
// signup, Clear on logout. Everything else reads.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/and161185/jobassist/internal/errs"
	"github.com/and161185/jobassist/internal/model"
)

// ErrUnreadable marks persisted values that exist but cannot be decoded: a
// lost or foreign session key, a wrong passphrase, or a tampered record.
var ErrUnreadable = errors.New("persisted session is unreadable")

// Persister is durable storage for the two session values.
type Persister interface {
	// Load returns the persisted session; ok is false when nothing is stored.
	// Values that exist but cannot be decoded yield an error wrapping ErrUnreadable.
	Load(ctx context.Context) (s model.Session, ok bool, err error)
	// Save replaces the persisted session.
	Save(ctx context.Context, s model.Session) error
	// Delete removes the persisted session; deleting nothing is not an error.
	Delete(ctx context.Context) error
}

// Store is the single source of truth for "is a user authenticated, and as whom".
type Store struct {
	p   Persister
	log *zap.Logger

	mu     sync.RWMutex
	active bool
	token  string
	user   model.User
}

// New constructs an inactive Store. Call Restore once at start-up.
func New(p Persister, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{p: p, log: log}
}

// Restore reads the persisted credential and identity. Both present means
// active; anything else means inactive. Unreadable values also mean inactive,
// so a later Establish or Clear can replace them. It never talks to the backend.
func (s *Store) Restore(ctx context.Context) error {
	sess, ok, err := s.p.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.active, s.token, s.user = false, "", model.User{}
	if errors.Is(err, ErrUnreadable) {
		s.log.Warn("stored session is unreadable; continuing logged out", zap.Error(err))
		return nil
	}
	if err != nil {
		s.log.Warn("session restore failed", zap.Error(err))
		return err
	}
	if !ok || strings.TrimSpace(sess.Token) == "" || sess.User.ID == "" {
		return nil
	}
	s.active, s.token, s.user = true, sess.Token, sess.User
	s.log.Debug("session restored", zap.String("user_id", sess.User.ID))
	return nil
}

// Establish persists the credential and identity and marks the session active.
func (s *Store) Establish(ctx context.Context, token string, user model.User) error {
	if strings.TrimSpace(token) == "" || user.ID == "" {
		return errs.Validation("session needs both a token and a user id")
	}
	if err := s.p.Save(ctx, model.Session{Token: token, User: user}); err != nil {
		return err
	}
	s.mu.Lock()
	s.active, s.token, s.user = true, token, user
	s.mu.Unlock()
	s.log.Debug("session established", zap.String("user_id", user.ID))
	return nil
}

// Clear removes the persisted values and marks the session inactive. The
// in-memory state is cleared even when the persister fails.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.active, s.token, s.user = false, "", model.User{}
	s.mu.Unlock()
	return s.p.Delete(ctx)
}

// Active reports whether a session is established.
func (s *Store) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Token returns the current credential or "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the current identity.
func (s *Store) User() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.active
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.Session{Token: s.token, User: s.user}
}

// TokenSource exposes the current credential to HTTP transports.
func (s *Store) TokenSource() oauth2.TokenSource { return tokenSource{s: s} }

type tokenSource struct{ s *Store }

// Token never expires locally; the backend is the only judge of validity.
func (ts tokenSource) Token() (*oauth2.Token, error) {
	tok := ts.s.Token()
	if tok == "" {
		return nil, errs.ErrNoSession
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}

// HasToken reports whether src currently yields a credential.
func HasToken(src oauth2.TokenSource) bool {
	if src == nil {
		return false
	}
	_, err := src.Token()
	return err == nil
}
