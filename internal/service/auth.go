// Package service contains the account and settings services used by the CLI.
package service

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/zap"

	"github.com/and161185/jobassist/internal/api"
	"github.com/and161185/jobassist/internal/errs"
	"github.com/and161185/jobassist/internal/model"
)

// AuthAPI is the auth resource group.
type AuthAPI interface {
	Signup(ctx context.Context, name, email, password string) (api.AuthResult, error)
	Login(ctx context.Context, email, password string) (api.AuthResult, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (model.User, error)
}

// SessionWriter is the part of the session store the account service mutates.
type SessionWriter interface {
	Establish(ctx context.Context, token string, user model.User) error
	Clear(ctx context.Context) error
	Active() bool
}

// AccountService defines the account lifecycle.
type AccountService interface {
	// Signup creates an account and establishes its session.
	Signup(ctx context.Context, name, email, password string) (model.User, error)
	// Login authenticates and establishes the session.
	Login(ctx context.Context, email, password string) (model.User, error)
	// Logout ends the session locally even when the backend call fails.
	Logout(ctx context.Context) error
	// Me returns the identity the backend associates with the token.
	Me(ctx context.Context) (model.User, error)
}

type AccountServiceImpl struct {
	api     AuthAPI
	session SessionWriter
	log     *zap.Logger
}

var _ AccountService = (*AccountServiceImpl)(nil)

// NewAccountService constructs AccountService with required dependencies.
func NewAccountService(c AuthAPI, s SessionWriter, log *zap.Logger) *AccountServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountServiceImpl{api: c, session: s, log: log}
}

type signupForm struct {
	Name     string
	Email    string
	Password string
}

func (f signupForm) validate(needName bool) error {
	nameRules := []validation.Rule{validation.Length(0, 120)}
	if needName {
		nameRules = append(nameRules, validation.Required)
	}
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, nameRules...),
		validation.Field(&f.Email, validation.Required, is.EmailFormat),
		validation.Field(&f.Password, validation.Required),
	)
}

// Signup validates locally, registers and stores the returned session.
func (s *AccountServiceImpl) Signup(ctx context.Context, name, email, password string) (model.User, error) {
	f := signupForm{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email), Password: password}
	if err := errs.Invalid(f.validate(true)); err != nil {
		return model.User{}, err
	}
	res, err := s.api.Signup(ctx, f.Name, f.Email, f.Password)
	if err != nil {
		return model.User{}, err
	}
	return s.establish(ctx, res)
}

// Login validates locally, authenticates and stores the returned session.
func (s *AccountServiceImpl) Login(ctx context.Context, email, password string) (model.User, error) {
	f := signupForm{Email: strings.TrimSpace(email), Password: password}
	if err := errs.Invalid(f.validate(false)); err != nil {
		return model.User{}, err
	}
	res, err := s.api.Login(ctx, f.Email, f.Password)
	if err != nil {
		return model.User{}, err
	}
	return s.establish(ctx, res)
}

func (s *AccountServiceImpl) establish(ctx context.Context, res api.AuthResult) (model.User, error) {
	if res.Token == "" || res.User.ID == "" {
		return model.User{}, &errs.Error{Kind: errs.KindResponse, Message: "server returned no session"}
	}
	if err := s.session.Establish(ctx, res.Token, res.User); err != nil {
		return model.User{}, err
	}
	s.log.Info("logged in", zap.String("user_id", res.User.ID))
	return res.User, nil
}

// Logout notifies the backend (best-effort) and always clears the session.
func (s *AccountServiceImpl) Logout(ctx context.Context) error {
	if !s.session.Active() {
		return s.session.Clear(ctx)
	}
	if err := s.api.Logout(ctx); err != nil {
		s.log.Warn("logout request failed; clearing local session anyway", zap.Error(err))
	}
	return s.session.Clear(ctx)
}

// Me asks the backend who the current token belongs to.
func (s *AccountServiceImpl) Me(ctx context.Context) (model.User, error) {
	if !s.session.Active() {
		return model.User{}, errs.ErrNoSession
	}
	return s.api.CurrentUser(ctx)
}
