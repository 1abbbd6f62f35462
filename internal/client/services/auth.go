// Package services contains application services for the SecureBank client.
// This file defines the authentication service: password protection and
// submission for login/register, logout, the current-user probe, and the
// derived session state the UI renders.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/securebank/internal/client/client"
	"github.com/dmitrijs2005/securebank/internal/client/keys"
	"github.com/dmitrijs2005/securebank/internal/client/models"
	"github.com/dmitrijs2005/securebank/internal/cryptox"
	"github.com/dmitrijs2005/securebank/internal/logging"
)

// PasswordPolicy decides what happens when the public key cannot be obtained.
type PasswordPolicy string

const (
	// PolicyStrict blocks submission.
	PolicyStrict PasswordPolicy = "strict"
	// PolicyFallback sends the plaintext password and warns the user.
	PolicyFallback PasswordPolicy = "fallback"
)

var (
	ErrPasswordEncryptionRequired = errors.New("password encryption unavailable, submission blocked")
	ErrNoToken                    = errors.New("no token received")
	ErrTokenNotStored             = errors.New("failed to store authentication token")
)

// FallbackWarning is the text shown when a password leaves unencrypted.
const FallbackWarning = "encryption key unavailable: password sent without client-side encryption"

// KeySource yields the server's public key.
type KeySource interface {
	PublicKey(ctx context.Context) (cryptox.PublicKey, error)
}

type SecretEncryptor interface {
	Encrypt(plaintext string, key cryptox.PublicKey) (cryptox.EncryptedSecret, error)
}

// SessionTokens is the part of session.TokenStore the service writes through.
type SessionTokens interface {
	Store(ctx context.Context, token string) error
	Remove(ctx context.Context)
	IsExpired(ctx context.Context) bool
}

// Warner surfaces a degraded-mode warning to the user.
type Warner func(ctx context.Context, msg string)

// State is the session projection rendered by the UI.
type State struct {
	User          *models.User
	Authenticated bool
	Loading       bool
	Error         string
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login/Register: protect the password, submit it, store the token.
//   - Logout: drop the token and the cached profile.
//   - CurrentUser: load the profile for the stored token.
//   - Snapshot: current State; Authenticated is read from the token store.
//   - PrefetchKey: warm the key cache without blocking the caller.
type AuthService interface {
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, req models.RegisterRequest) error
	Logout(ctx context.Context)
	CurrentUser(ctx context.Context) (*models.User, error)
	Snapshot(ctx context.Context) State
	PrefetchKey(ctx context.Context)
	ClearError()
}

type authService struct {
	doer   client.Doer
	keys   KeySource
	enc    SecretEncryptor
	tokens SessionTokens
	policy PasswordPolicy
	warn   Warner
	log    logging.Logger

	mu      sync.Mutex
	user    *models.User
	loading bool
	lastErr string
}

type AuthOption func(*authService)

func WithWarner(w Warner) AuthOption {
	return func(s *authService) { s.warn = w }
}

func WithPasswordPolicy(p PasswordPolicy) AuthOption {
	return func(s *authService) { s.policy = p }
}

// NewAuthService wires the service. The policy defaults to PolicyStrict.
func NewAuthService(doer client.Doer, keys KeySource, enc SecretEncryptor, tokens SessionTokens, log logging.Logger, opts ...AuthOption) AuthService {
	s := &authService{
		doer:   doer,
		keys:   keys,
		enc:    enc,
		tokens: tokens,
		policy: PolicyStrict,
		log:    logging.OrDiscard(log),
	}
	for _, o := range opts {
		o(s)
	}
	if s.warn == nil {
		s.warn = func(context.Context, string) {}
	}
	return s
}

func (s *authService) Login(ctx context.Context, username, password string) error {
	return s.submit(ctx, password, func(pw string) (models.AuthResponse, error) {
		return client.Call(ctx, s.doer, client.LoginEndpoint, models.LoginRequest{Username: username, Password: pw})
	})
}

func (s *authService) Register(ctx context.Context, req models.RegisterRequest) error {
	password := req.Password
	return s.submit(ctx, password, func(pw string) (models.AuthResponse, error) {
		req.Password = pw
		return client.Call(ctx, s.doer, client.RegisterEndpoint, req)
	})
}

func (s *authService) submit(ctx context.Context, password string, send func(pw string) (models.AuthResponse, error)) error {
	s.begin()

	resp, err := s.protectAndSend(ctx, password, send)
	if err != nil {
		s.fail(err)
		return err
	}

	if strings.TrimSpace(resp.Token) == "" {
		s.fail(ErrNoToken)
		return ErrNoToken
	}
	if err := s.tokens.Store(ctx, resp.Token); err != nil {
		err = fmt.Errorf("%w: %w", ErrTokenNotStored, err)
		s.fail(err)
		return err
	}

	user := resp.User
	if user == nil {
		// profile is optional in the auth response
		if u, err := client.Call(ctx, s.doer, client.MeEndpoint, client.NoParams{}); err == nil {
			user = &u
		} else {
			s.log.Warn(ctx, "profile not loaded after login", "error", err)
		}
	}

	s.mu.Lock()
	s.user = user
	s.loading = false
	s.lastErr = ""
	s.mu.Unlock()
	return nil
}

// protectAndSend encrypts the password and hands the result to send. The
// plaintext never leaves this function except under PolicyFallback.
func (s *authService) protectAndSend(ctx context.Context, password string, send func(pw string) (models.AuthResponse, error)) (models.AuthResponse, error) {
	key, err := s.keys.PublicKey(ctx)
	if err != nil {
		if s.policy != PolicyFallback || !errors.Is(err, keys.ErrKeyUnavailable) {
			s.log.Warn(ctx, "submission blocked, password cannot be encrypted", "error", err)
			return models.AuthResponse{}, fmt.Errorf("%w: %w", ErrPasswordEncryptionRequired, err)
		}
		s.log.Warn(ctx, "sending password without client-side encryption", "policy", string(s.policy), "error", err)
		s.warn(ctx, FallbackWarning)
		return send(password)
	}

	secret, err := s.enc.Encrypt(password, key)
	if err != nil {
		s.log.Error(ctx, "password encryption failed", "error", err)
		return models.AuthResponse{}, err
	}
	return send(string(secret))
}

func (s *authService) Logout(ctx context.Context) {
	s.tokens.Remove(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.lastErr = ""
	s.loading = false
}

// CurrentUser loads the profile. On 401 the gateway has already dropped the
// token; any rejection clears the cached profile.
func (s *authService) CurrentUser(ctx context.Context) (*models.User, error) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	u, err := client.Call(ctx, s.doer, client.MeEndpoint, client.NoParams{})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) || errors.Is(err, client.ErrRequestRejected) {
			s.user = nil
		}
		return nil, err
	}
	s.user = &u
	return &u, nil
}

// Snapshot never reports Authenticated without a live token, whatever the
// cached profile says.
func (s *authService) Snapshot(ctx context.Context) State {
	authenticated := !s.tokens.IsExpired(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{Authenticated: authenticated, Loading: s.loading, Error: s.lastErr}
	if authenticated && s.user != nil {
		u := *s.user
		st.User = &u
	}
	return st
}

func (s *authService) PrefetchKey(ctx context.Context) {
	go func() {
		if _, err := s.keys.PublicKey(ctx); err != nil {
			s.log.Debug(ctx, "public key prefetch failed", "error", err)
		}
	}()
}

func (s *authService) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""
}

func (s *authService) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.lastErr = ""
}

func (s *authService) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.lastErr = userMessage(err)
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrPasswordEncryptionRequired):
		return ErrPasswordEncryptionRequired.Error()
	case errors.Is(err, cryptox.ErrEncryptionFailure):
		return "password could not be encrypted"
	case errors.Is(err, ErrTokenNotStored):
		return ErrTokenNotStored.Error()
	}
	return client.UserMessage(err)
}
