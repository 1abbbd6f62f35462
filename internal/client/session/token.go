package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/securebank/internal/common"
	"github.com/dmitrijs2005/securebank/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

// ErrStorageFailure is returned by Store when the token is rejected or the
// storage medium refuses the write.
var ErrStorageFailure = errors.New("storage failure")

// expiryClaims is the only part of the claims segment the client reads.
type expiryClaims struct {
	ExpiresAt *jwt.NumericDate `json:"exp"`
}

// Snapshot is a consistent view of the token at one instant.
type Snapshot struct {
	Token   string
	Present bool
	Expired bool
	Epoch   uint64
}

// TokenStore persists, retrieves and evaluates the session token.
// All methods are safe for concurrent use; each one runs under a single
// mutex so that read-check-remove sequences are atomic.
type TokenStore struct {
	mu      sync.Mutex
	storage Storage
	log     logging.Logger
	now     func() time.Time
	parser  *jwt.Parser
	epoch   uint64
}

type Option func(*TokenStore)

// WithClock replaces the wall clock used for expiration checks.
func WithClock(now func() time.Time) Option {
	return func(s *TokenStore) { s.now = now }
}

func NewTokenStore(storage Storage, log logging.Logger, opts ...Option) *TokenStore {
	s := &TokenStore{
		storage: storage,
		log:     logging.OrDiscard(log),
		now:     time.Now,
		parser:  jwt.NewParser(jwt.WithPaddingAllowed()),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Store saves token, replacing any previous one. Empty or whitespace-only
// tokens are rejected without touching storage.
func (s *TokenStore) Store(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		s.log.Warn(ctx, "attempted to store empty token")
		return fmt.Errorf("%w: empty token", ErrStorageFailure)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Set(ctx, common.TokenStorageKey, []byte(token)); err != nil {
		s.log.Error(ctx, "error storing token", "error", err)
		return fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}
	s.epoch++
	return nil
}

// Get returns the stored token. Storage read errors are logged and reported
// as "no token".
func (s *TokenStore) Get(ctx context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(ctx)
}

func (s *TokenStore) get(ctx context.Context) (string, bool) {
	v, err := s.storage.Get(ctx, common.TokenStorageKey)
	if err != nil {
		s.log.Error(ctx, "error retrieving token", "error", err)
		return "", false
	}
	if len(v) == 0 {
		return "", false
	}
	return string(v), true
}

// Remove deletes the token. It is idempotent and never fails observably;
// storage errors are logged.
func (s *TokenStore) Remove(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(ctx)
}

func (s *TokenStore) remove(ctx context.Context) {
	if err := s.storage.Delete(ctx, common.TokenStorageKey); err != nil {
		s.log.Error(ctx, "error removing token", "error", err)
	}
	s.epoch++
}

// RemoveIfEpoch removes the token only if nothing was stored or removed since
// the Snapshot with the given epoch was taken and a token is still present.
// It reports whether this call removed the token.
func (s *TokenStore) RemoveIfEpoch(ctx context.Context, epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return false
	}
	if _, ok := s.get(ctx); !ok {
		return false
	}
	s.remove(ctx)
	return true
}

// IsExpired is true if no token is stored, its claims cannot be decoded, the
// claims carry no expiration, or the current time is at/after expiration.
func (s *TokenStore) IsExpired(ctx context.Context) bool {
	return s.Snapshot(ctx).Expired
}

// Snapshot reads token, expiration state and epoch atomically.
func (s *TokenStore) Snapshot(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.get(ctx)
	snap := Snapshot{Token: token, Present: ok, Expired: true, Epoch: s.epoch}
	if !ok {
		return snap
	}

	exp, err := s.expiration(token)
	if err != nil {
		s.log.Debug(ctx, "token expiration unreadable", "error", err)
		return snap
	}
	snap.Expired = !s.now().Before(exp)
	return snap
}

// Expiration returns the expiration instant carried by token.
func (s *TokenStore) Expiration(token string) (time.Time, error) {
	return s.expiration(token)
}

func (s *TokenStore) expiration(token string) (time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("token has %d segments", len(parts))
	}

	payload, err := s.parser.DecodeSegment(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("decode claims: %w", err)
	}

	var claims expiryClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return time.Time{}, fmt.Errorf("unmarshal claims: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("claims carry no exp")
	}
	return claims.ExpiresAt.Time, nil
}
