package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/securebank/internal/client/client"
	"github.com/dmitrijs2005/securebank/internal/client/keys"
	"github.com/dmitrijs2005/securebank/internal/client/session"
	"github.com/dmitrijs2005/securebank/internal/cryptox"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var (
	rsaOnce sync.Once
	rsaKey  *rsa.PrivateKey
)

func serverKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	rsaOnce.Do(func() {
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		rsaKey = k
	})
	return rsaKey
}

// fakeBank emulates the banking API closely enough to drive the services.
type fakeBank struct {
	t     *testing.T
	priv  *rsa.PrivateKey
	clock func() time.Time

	mu           sync.Mutex
	publicKey    string
	keyStatus    int
	keyHits      int
	authStatus   int
	omitToken    bool
	omitUser     bool
	meStatus     int
	passwords    []string
	registered   []map[string]string
	authHeaders  map[string][]string
	loginHits    int
	tokenTTL     time.Duration
	transferHits int
}

func newFakeBank(t *testing.T, clock func() time.Time) (*fakeBank, *httptest.Server) {
	t.Helper()
	priv := serverKey(t)
	pub, err := cryptox.EncodePublicKey(&priv.PublicKey)
	require.NoError(t, err)

	b := &fakeBank{
		t:           t,
		priv:        priv,
		clock:       clock,
		publicKey:   string(pub),
		keyStatus:   http.StatusOK,
		authStatus:  http.StatusOK,
		meStatus:    http.StatusOK,
		authHeaders: map[string][]string{},
		tokenTTL:    time.Hour,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/security/public-key", b.handleKey)
	mux.HandleFunc("POST /api/auth/login", b.handleAuth)
	mux.HandleFunc("POST /api/auth/register", b.handleAuth)
	mux.HandleFunc("GET /api/auth/me", b.handleMe)
	mux.HandleFunc("GET /api/bank/accounts/{id}", b.handleAccounts)
	mux.HandleFunc("POST /api/bank/transfer", b.handleTransfer)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *fakeBank) record(r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.authHeaders[r.URL.Path] = append(b.authHeaders[r.URL.Path], r.Header.Get("Authorization"))
}

func (b *fakeBank) headers(path string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.authHeaders[path]...)
}

func (b *fakeBank) handleKey(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.keyHits++
	status, key := b.keyStatus, b.publicKey
	b.mu.Unlock()

	if status != http.StatusOK {
		writeJSON(w, status, map[string]string{"message": "key service down"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"publicKey": key})
}

func (b *fakeBank) decrypt(secret string) (string, bool) {
	ct, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return "", false
	}
	pt, err := rsa.DecryptOAEP(sha256.New(), nil, b.priv, ct, nil)
	if err != nil {
		return "", false
	}
	return string(pt), true
}

func (b *fakeBank) handleAuth(w http.ResponseWriter, r *http.Request) {
	b.record(r)
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad body"})
		return
	}

	b.mu.Lock()
	b.loginHits++
	b.passwords = append(b.passwords, body["password"])
	if r.URL.Path == "/api/auth/register" {
		b.registered = append(b.registered, body)
	}
	status, omitToken, omitUser, ttl := b.authStatus, b.omitToken, b.omitUser, b.tokenTTL
	b.mu.Unlock()

	if status != http.StatusOK {
		writeJSON(w, status, map[string]string{"message": "Invalid username or password"})
		return
	}

	resp := map[string]any{}
	if !omitToken {
		resp["token"] = b.mint(ttl)
	}
	if !omitUser {
		resp["user"] = map[string]any{"id": 1, "username": body["username"], "roles": []string{"USER"}}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (b *fakeBank) handleMe(w http.ResponseWriter, r *http.Request) {
	b.record(r)
	b.mu.Lock()
	status := b.meStatus
	b.mu.Unlock()

	if status != http.StatusOK || r.Header.Get("Authorization") == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Full authentication is required"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": 1, "username": "alice", "firstName": "Alice"})
}

func (b *fakeBank) handleAccounts(w http.ResponseWriter, r *http.Request) {
	b.record(r)
	if r.Header.Get("Authorization") == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Full authentication is required"})
		return
	}
	writeJSON(w, http.StatusOK, []map[string]any{{"id": 10, "customerId": 1, "type": "CHECKING", "balance": 50}})
}

func (b *fakeBank) handleTransfer(w http.ResponseWriter, r *http.Request) {
	b.record(r)
	b.mu.Lock()
	b.transferHits++
	b.mu.Unlock()
	_, _ = w.Write([]byte("Transfer successful"))
}

func (b *fakeBank) mint(ttl time.Duration) string {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(b.clock().Add(ttl)),
	}).SignedString([]byte("server-secret"))
	if err != nil {
		panic(err)
	}
	return tok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type eventLog struct {
	mu     sync.Mutex
	events []client.SessionEvent
}

func (l *eventLog) SessionInvalidated(_ context.Context, ev client.SessionEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) reasons() []client.SessionReason {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]client.SessionReason, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Reason)
	}
	return out
}

type warnings struct {
	mu   sync.Mutex
	msgs []string
}

func (w *warnings) warn(_ context.Context, msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msg)
}

func (w *warnings) all() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.msgs...)
}

// stack is a fully wired client against a fakeBank.
type stack struct {
	bank     *fakeBank
	clock    *manualClock
	tokens   *session.TokenStore
	gateway  *client.Gateway
	keys     *keys.Provider
	auth     AuthService
	bankSvc  BankService
	events   *eventLog
	warnings *warnings
}

func newStack(t *testing.T, policy PasswordPolicy) *stack {
	t.Helper()
	s := &stack{
		clock:    &manualClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)},
		events:   &eventLog{},
		warnings: &warnings{},
	}
	var srv *httptest.Server
	s.bank, srv = newFakeBank(t, s.clock.Now)

	s.tokens = session.NewTokenStore(session.NewMemoryStorage(), nil, session.WithClock(s.clock.Now))
	gw, err := client.NewGateway(srv.URL+"/api", 5*time.Second, s.tokens, nil, client.WithListener(s.events))
	require.NoError(t, err)
	s.gateway = gw
	s.keys = keys.NewProvider(keys.GatewayFetcher(gw), nil)
	s.auth = NewAuthService(gw, s.keys, cryptox.NewEncryptor(), s.tokens, nil,
		WithPasswordPolicy(policy), WithWarner(s.warnings.warn))
	s.bankSvc = NewBankService(gw, nil)
	return s
}

func (b *fakeBank) sentPasswords() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.passwords...)
}

func (b *fakeBank) registeredBodies() []map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]string(nil), b.registered...)
}

func (b *fakeBank) hits() (key, login, transfer int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.keyHits, b.loginHits, b.transferHits
}

func (b *fakeBank) set(fn func(b *fakeBank)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}
