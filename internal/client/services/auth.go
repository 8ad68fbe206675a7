// Package services contains the application services the CLI talks to.
// This file defines the authentication service: register, login and
// teardown of the per-process session.
package services

import (
	"context"

	"github.com/dmitrijs2005/lockbox/internal/directory"
	"github.com/dmitrijs2005/lockbox/internal/logging"
	"github.com/dmitrijs2005/lockbox/internal/session"
)

// AuthService defines the sign-in operations for the CLI.
//
// Contract:
//   - Register: create a new identity in the credential directory.
//   - Login: verify credentials and open the session for that identity.
//   - Logout: close the session and wipe any cached master secret.
//     Must be safe to call when no session is open.
type AuthService interface {
	Register(ctx context.Context, email string, secret []byte) error
	Login(ctx context.Context, email string, secret []byte) error
	Logout(ctx context.Context) error
}

type authService struct {
	dir     *directory.Directory
	session *session.Holder
	log     logging.Logger
}

// NewAuthService constructs an AuthService bound to the given directory and
// session holder.
func NewAuthService(dir *directory.Directory, holder *session.Holder, log logging.Logger) AuthService {
	return &authService{dir: dir, session: holder, log: log}
}

func (a *authService) Register(ctx context.Context, email string, secret []byte) error {
	if err := a.dir.Register(ctx, email, secret); err != nil {
		return err
	}
	a.log.Info(ctx, "registered new identity", "email", email)
	return nil
}

// Login verifies credentials and, on success, opens the session. The vault
// stays locked until the master secret is supplied separately.
func (a *authService) Login(ctx context.Context, email string, secret []byte) error {
	if err := a.dir.Authenticate(ctx, email, secret); err != nil {
		return err
	}
	a.session.Open(email)
	a.log.Info(ctx, "session opened", "email", email)
	return nil
}

func (a *authService) Logout(ctx context.Context) error {
	a.session.Close()
	a.log.Info(ctx, "session closed")
	return nil
}
