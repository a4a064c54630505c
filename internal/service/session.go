package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"loot-tracker/internal/api"
	"loot-tracker/internal/auth"
	"loot-tracker/internal/reconcile"

	"github.com/rs/zerolog"
)

type SessionService struct {
	session  *auth.Session
	identity *api.IdentityClient
	engine   *reconcile.Engine
	logger   zerolog.Logger
}

func NewSessionService(session *auth.Session, identity *api.IdentityClient, engine *reconcile.Engine, logger zerolog.Logger) *SessionService {
	return &SessionService{
		session:  session,
		identity: identity,
		engine:   engine,
		logger:   logger,
	}
}

func (s *SessionService) Login(ctx context.Context, email, password string) (*auth.Identity, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	resp, err := s.identity.SignInWithPassword(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, identityError(err)
	}
	return s.signIn(ctx, auth.Identity{UserID: resp.LocalID, Email: resp.Email, RefreshToken: resp.RefreshToken})
}

func (s *SessionService) Signup(ctx context.Context, email, password string) (*auth.Identity, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	resp, err := s.identity.SignUp(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, identityError(err)
	}
	return s.signIn(ctx, auth.Identity{UserID: resp.LocalID, Email: resp.Email, RefreshToken: resp.RefreshToken})
}

// Guest signs in anonymously. Without an identity backend the guest id is
// generated on the device.
func (s *SessionService) Guest(ctx context.Context) (*auth.Identity, error) {
	if !s.identity.Enabled() {
		id, err := s.session.GuestIdentity(ctx)
		if err != nil {
			return nil, err
		}
		return s.signIn(ctx, id)
	}
	resp, err := s.identity.SignInAnonymously(ctx)
	if err != nil {
		return nil, identityError(err)
	}
	return s.signIn(ctx, auth.Identity{UserID: resp.LocalID, Guest: true, RefreshToken: resp.RefreshToken})
}

func (s *SessionService) Logout(ctx context.Context) error {
	return s.session.SignOut(ctx)
}

func (s *SessionService) Current() *auth.Identity {
	return s.session.Current()
}

func (s *SessionService) Restore(ctx context.Context) (*auth.Identity, error) {
	return s.session.Restore(ctx)
}

// Sync reconciles every record set with the remote store and waits.
func (s *SessionService) Sync(ctx context.Context) error {
	uid := s.session.UserID()
	if uid == "" {
		return fmt.Errorf("%w: sign in to sync", ErrValidation)
	}
	return s.engine.SyncNow(ctx, uid)
}

func (s *SessionService) signIn(ctx context.Context, id auth.Identity) (*auth.Identity, error) {
	if err := s.session.SignIn(ctx, id); err != nil {
		return nil, err
	}
	return s.session.Current(), nil
}

func validateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	return nil
}

func identityError(err error) error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message)
	}
	if errors.Is(err, api.ErrNoAPIKey) {
		return fmt.Errorf("%w: account sign-in is not configured", ErrValidation)
	}
	return fmt.Errorf("identity request failed: %w", err)
}
