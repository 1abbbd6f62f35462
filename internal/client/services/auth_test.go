package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/securebank/internal/client/client"
	"github.com/dmitrijs2005/securebank/internal/client/keys"
	"github.com/dmitrijs2005/securebank/internal/client/models"
	"github.com/dmitrijs2005/securebank/internal/client/session"
	"github.com/dmitrijs2005/securebank/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_EncryptsPasswordAndStoresToken(t *testing.T) {
	s := newStack(t, PolicyStrict)
	ctx := context.Background()

	require.False(t, s.auth.Snapshot(ctx).Authenticated)
	require.NoError(t, s.auth.Login(ctx, "alice", "hunter2"))

	require.Len(t, s.bank.sentPasswords(), 1)
	sent := s.bank.sentPasswords()[0]
	assert.NotEqual(t, "hunter2", sent, "plaintext must not leave the client")
	pt, ok := s.bank.decrypt(sent)
	require.True(t, ok)
	assert.Equal(t, "hunter2", pt)

	st := s.auth.Snapshot(ctx)
	assert.True(t, st.Authenticated)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
	require.NotNil(t, st.User)
	assert.Equal(t, "alice", st.User.Username)

	_, ok = s.tokens.Get(ctx)
	assert.True(t, ok)
	assert.Empty(t, s.warnings.all())
}

func TestLogin_PasswordsDifferPerSubmission(t *testing.T) {
	s := newStack(t, PolicyStrict)
	ctx := context.Background()

	require.NoError(t, s.auth.Login(ctx, "alice", "hunter2"))
	require.NoError(t, s.auth.Login(ctx, "alice", "hunter2"))

	require.Len(t, s.bank.sentPasswords(), 2)
	assert.NotEqual(t, s.bank.sentPasswords()[0], s.bank.sentPasswords()[1])
	keyHits, _, _ := s.bank.hits()
	assert.Equal(t, 1, keyHits, "key fetched once per session")
}

func TestLogin_KeyUnavailable_StrictBlocks(t *testing.T) {
	s := newStack(t, PolicyStrict)
	s.bank.set(func(b *fakeBank) { b.keyStatus = http.StatusServiceUnavailable })
	ctx := context.Background()

	err := s.auth.Login(ctx, "alice", "hunter2")
	require.ErrorIs(t, err, ErrPasswordEncryptionRequired)
	require.ErrorIs(t, err, keys.ErrKeyUnavailable)

	_, logins, _ := s.bank.hits()
	assert.Zero(t, logins, "nothing was submitted")
	st := s.auth.Snapshot(ctx)
	assert.False(t, st.Authenticated)
	assert.False(t, st.Loading)
	assert.Equal(t, ErrPasswordEncryptionRequired.Error(), st.Error)
	assert.Empty(t, s.warnings.all())
}

func TestLogin_KeyUnavailable_FallbackWarnsAndSendsPlaintext(t *testing.T) {
	s := newStack(t, PolicyFallback)
	s.bank.set(func(b *fakeBank) { b.keyStatus = http.StatusNotFound })
	ctx := context.Background()

	require.NoError(t, s.auth.Login(ctx, "alice", "hunter2"))

	assert.Equal(t, []string{"hunter2"}, s.bank.sentPasswords())
	assert.Equal(t, []string{FallbackWarning}, s.warnings.all())
	assert.True(t, s.auth.Snapshot(ctx).Authenticated)
}

func TestLogin_MalformedKey_BlocksEvenUnderFallback(t *testing.T) {
	for _, policy := range []PasswordPolicy{PolicyStrict, PolicyFallback} {
		t.Run(string(policy), func(t *testing.T) {
			s := newStack(t, policy)
			s.bank.set(func(b *fakeBank) { b.publicKey = "bm90IGEga2V5" })
			ctx := context.Background()

			err := s.auth.Login(ctx, "alice", "hunter2")
			require.ErrorIs(t, err, cryptox.ErrEncryptionFailure)
			_, logins, _ := s.bank.hits()
			assert.Zero(t, logins)
			assert.Empty(t, s.warnings.all())
			assert.Equal(t, "password could not be encrypted", s.auth.Snapshot(ctx).Error)
		})
	}
}

func TestLogin_RejectedCredentials(t *testing.T) {
	s := newStack(t, PolicyStrict)
	s.bank.set(func(b *fakeBank) { b.authStatus = http.StatusUnauthorized })
	ctx := context.Background()

	err := s.auth.Login(ctx, "alice", "wrong")
	require.ErrorIs(t, err, client.ErrUnauthorized)

	st := s.auth.Snapshot(ctx)
	assert.False(t, st.Authenticated)
	assert.Equal(t, "Invalid username or password", st.Error)
	assert.Empty(t, s.events.reasons(), "no session existed, nothing to invalidate")
}

func TestLogin_NoTokenInResponse(t *testing.T) {
	s := newStack(t, PolicyStrict)
	s.bank.set(func(b *fakeBank) { b.omitToken = true })
	ctx := context.Background()

	err := s.auth.Login(ctx, "alice", "hunter2")
	require.ErrorIs(t, err, ErrNoToken)
	assert.Equal(t, "no token received", s.auth.Snapshot(ctx).Error)
	assert.False(t, s.auth.Snapshot(ctx).Authenticated)
}

func TestLogin_ProfileLoadedWhenResponseOmitsUser(t *testing.T) {
	s := newStack(t, PolicyStrict)
	s.bank.set(func(b *fakeBank) { b.omitUser = true })
	ctx := context.Background()

	require.NoError(t, s.auth.Login(ctx, "alice", "hunter2"))

	st := s.auth.Snapshot(ctx)
	require.NotNil(t, st.User)
	assert.Equal(t, "Alice", st.User.FirstName)
	require.Len(t, s.bank.headers("/api/auth/me"), 1)
	assert.True(t, strings.HasPrefix(s.bank.headers("/api/auth/me")[0], "Bearer "))
}

// brokenTokens fails every write.
type brokenTokens struct{}

func (brokenTokens) Store(context.Context, string) error {
	return session.ErrStorageFailure
}
func (brokenTokens) Remove(context.Context)         {}
func (brokenTokens) IsExpired(context.Context) bool { return true }

func TestLogin_TokenStoreFailure(t *testing.T) {
	s := newStack(t, PolicyStrict)
	auth := NewAuthService(s.gateway, s.keys, cryptox.NewEncryptor(), brokenTokens{}, nil)
	ctx := context.Background()

	err := auth.Login(ctx, "alice", "hunter2")
	require.ErrorIs(t, err, ErrTokenNotStored)
	require.ErrorIs(t, err, session.ErrStorageFailure)
	assert.Equal(t, "failed to store authentication token", auth.Snapshot(ctx).Error)
}

func TestRegister_SendsProfileWithEncryptedPassword(t *testing.T) {
	s := newStack(t, PolicyStrict)
	ctx := context.Background()

	err := s.auth.Register(ctx, models.RegisterRequest{
		Username: "bob", Email: "bob@example.com", FirstName: "Bob", LastName: "Builder", Password: "s3cret",
	})
	require.NoError(t, err)

	require.Len(t, s.bank.registeredBodies(), 1)
	body := s.bank.registeredBodies()[0]
	assert.Equal(t, "bob@example.com", body["email"])
	assert.Equal(t, "Bob", body["firstName"])
	pt, ok := s.bank.decrypt(body["password"])
	require.True(t, ok)
	assert.Equal(t, "s3cret", pt)
	assert.True(t, s.auth.Snapshot(ctx).Authenticated)
}

func TestLogout_ClearsSession(t *testing.T) {
	s := newStack(t, PolicyStrict)
	ctx := context.Background()
	require.NoError(t, s.auth.Login(ctx, "alice", "hunter2"))

	s.auth.Logout(ctx)
	s.auth.Logout(ctx)

	st := s.auth.Snapshot(ctx)
	assert.False(t, st.Authenticated)
	assert.Nil(t, st.User)
	_, ok := s.tokens.Get(ctx)
	assert.False(t, ok)
}

func TestSession_ExpiresOnClock(t *testing.T) {
	s := newStack(t, PolicyStrict)
	s.bank.set(func(b *fakeBank) { b.tokenTTL = time.Second })
	ctx := context.Background()
	require.NoError(t, s.auth.Login(ctx, "alice", "hunter2"))
	require.True(t, s.auth.Snapshot(ctx).Authenticated)

	s.clock.Advance(time.Second)

	st := s.auth.Snapshot(ctx)
	assert.False(t, st.Authenticated, "authenticated only while a live token exists")
	assert.Nil(t, st.User)

	_, err := s.bankSvc.Accounts(ctx, 1)
	require.ErrorIs(t, err, client.ErrUnauthorized)

	headers := s.bank.headers("/api/bank/accounts/1")
	require.Len(t, headers, 1)
	assert.Empty(t, headers[0], "expired token is not attached")
	assert.Equal(t, []client.SessionReason{client.ReasonExpired}, s.events.reasons())
}

func TestCurrentUser(t *testing.T) {
	s := newStack(t, PolicyStrict)
	ctx := context.Background()
	require.NoError(t, s.auth.Login(ctx, "alice", "hunter2"))

	u, err := s.auth.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.DisplayName())
	assert.Equal(t, "Alice", s.auth.Snapshot(ctx).User.FirstName)
}

func TestCurrentUser_ConcurrentRejections(t *testing.T) {
	s := newStack(t, PolicyStrict)
	ctx := context.Background()
	require.NoError(t, s.auth.Login(ctx, "alice", "hunter2"))
	s.bank.set(func(b *fakeBank) { b.meStatus = http.StatusUnauthorized })

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.auth.CurrentUser(ctx)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.True(t, errors.Is(err, client.ErrUnauthorized))
	}
	st := s.auth.Snapshot(ctx)
	assert.False(t, st.Authenticated)
	assert.Nil(t, st.User)
	assert.Equal(t, []client.SessionReason{client.ReasonRejected}, s.events.reasons())
}

func TestPrefetchKey_WarmsCache(t *testing.T) {
	s := newStack(t, PolicyStrict)

	s.auth.PrefetchKey(context.Background())

	require.Eventually(t, func() bool {
		_, ok := s.keys.Cached()
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.auth.Login(context.Background(), "alice", "hunter2"))
	keyHits, _, _ := s.bank.hits()
	assert.Equal(t, 1, keyHits)
}

func TestClearError(t *testing.T) {
	s := newStack(t, PolicyStrict)
	s.bank.set(func(b *fakeBank) { b.authStatus = http.StatusBadRequest })
	ctx := context.Background()

	require.Error(t, s.auth.Login(ctx, "alice", "x"))
	require.NotEmpty(t, s.auth.Snapshot(ctx).Error)

	s.auth.ClearError()
	assert.Empty(t, s.auth.Snapshot(ctx).Error)
}
