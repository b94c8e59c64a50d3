package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/acmeworks/identity/pkg/auth"
	"github.com/acmeworks/identity/pkg/validator"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type message struct {
	purpose auth.Purpose
	email   string
	token   string
}

type mailbox struct {
	mu   sync.Mutex
	sent []message
	err  error
}

func (m *mailbox) record(p auth.Purpose, identity auth.PublicIdentity, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, message{purpose: p, email: identity.Email, token: token})
	return m.err
}

func (m *mailbox) SendVerificationEmail(_ context.Context, identity auth.PublicIdentity, token string) error {
	return m.record(auth.PurposeVerifyEmail, identity, token)
}

func (m *mailbox) SendPasswordResetEmail(_ context.Context, identity auth.PublicIdentity, token string) error {
	return m.record(auth.PurposeResetPassword, identity, token)
}

func (m *mailbox) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// last returns the newest token sent to email for purpose.
func (m *mailbox) last(t *testing.T, p auth.Purpose, email string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].purpose == p && m.sent[i].email == email {
			return m.sent[i].token
		}
	}
	require.FailNow(t, "no message", "%s to %s", p, email)
	return ""
}

// fakeVerifier resolves an ID token to a canned profile.
type fakeVerifier struct {
	profiles map[string]auth.ProviderProfile
}

func (f *fakeVerifier) Provider() string { return auth.ProviderGoogle }

func (f *fakeVerifier) Verify(_ context.Context, a auth.Assertion) (auth.ProviderProfile, error) {
	p, ok := f.profiles[a.IDToken]
	if !ok {
		return auth.ProviderProfile{}, errors.New("signature mismatch")
	}
	return p, nil
}

type fixture struct {
	svc   *auth.Service
	store *auth.MemoryStore
	mail  *mailbox
	clock *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: auth.NewMemoryStore(),
		mail:  &mailbox{},
		clock: &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
	}
	verifier := &fakeVerifier{profiles: map[string]auth.ProviderProfile{
		"ann":        {Subject: "g-ann", Email: "Ann@Example.com", EmailVerified: true, Name: "Ann"},
		"ann-moved":  {Subject: "g-ann", Email: "ann@elsewhere.example", EmailVerified: true},
		"bob":        {Subject: "g-bob", Email: "bob@example.com", EmailVerified: true, Name: "Bob"},
		"unverified": {Subject: "g-x", Email: "x@example.com", EmailVerified: false},
	}}

	svc, err := auth.New(auth.DefaultConfig("access-secret", "refresh-secret"), auth.Deps{
		Credentials: f.store,
		Sessions:    f.store,
		Ephemeral:   f.store,
		Notifier:    f.mail,
	},
		auth.WithHasher(auth.NewBcryptHasher(bcrypt.MinCost)),
		auth.WithClock(f.clock.Now),
		auth.WithVerifier(verifier),
	)
	require.NoError(t, err)
	f.svc = svc
	return f
}

// verifiedUser registers email and confirms it through the mailed link.
func (f *fixture) verifiedUser(t *testing.T, email, password string) auth.PublicIdentity {
	t.Helper()
	ctx := context.Background()
	user, err := f.svc.Register(ctx, auth.RegisterInput{Email: email, Password: password, Name: "Test"})
	require.NoError(t, err)
	require.NoError(t, f.svc.VerifyEmail(ctx, f.mail.last(t, auth.PurposeVerifyEmail, user.Email)))
	return *user
}

func TestNew(t *testing.T) {
	t.Parallel()

	store := auth.NewMemoryStore()
	deps := auth.Deps{Credentials: store, Sessions: store, Ephemeral: store}

	_, err := auth.New(auth.DefaultConfig("", ""), deps)
	assert.ErrorIs(t, err, auth.ErrInvalidConfig)

	_, err = auth.New(auth.DefaultConfig("same", "same"), deps)
	assert.ErrorIs(t, err, auth.ErrInvalidConfig)

	_, err = auth.New(auth.DefaultConfig("a", "b"), auth.Deps{Credentials: store})
	assert.ErrorIs(t, err, auth.ErrInvalidConfig)

	svc, err := auth.New(auth.DefaultConfig("a", "b"), deps)
	require.NoError(t, err)
	assert.Empty(t, svc.Providers())
}

func TestRegister(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates unverified identity without session", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		user, err := f.svc.Register(ctx, auth.RegisterInput{Email: "  New.User@Example.COM ", Password: "secret1", Name: " Ann  Lee "})
		require.NoError(t, err)
		assert.Equal(t, "new.user@example.com", user.Email)
		assert.Equal(t, "Ann Lee", user.Name)
		assert.False(t, user.EmailVerified)
		assert.True(t, user.HasPassword)
		assert.Equal(t, auth.RoleUser, user.Role)

		assert.Empty(t, f.store.Sessions())
		assert.NotEmpty(t, f.mail.last(t, auth.PurposeVerifyEmail, user.Email))
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.svc.Register(ctx, auth.RegisterInput{Email: "dup@example.com", Password: "secret1"})
		require.NoError(t, err)

		_, err = f.svc.Register(ctx, auth.RegisterInput{Email: "DUP@example.com", Password: "other-secret"})
		assert.ErrorIs(t, err, auth.ErrEmailTaken)
		assert.Equal(t, auth.KindConflict, auth.KindOf(err))
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		_, err := f.svc.Register(ctx, auth.RegisterInput{Email: "not-an-email", Password: "123"})
		require.Error(t, err)
		assert.Equal(t, auth.KindBadRequest, auth.KindOf(err))

		verrs, ok := validator.Extract(err)
		require.True(t, ok)
		assert.True(t, verrs.Has("email"))
		assert.True(t, verrs.Has("password"))
		assert.Zero(t, f.mail.count())
	})

	t.Run("mail failure does not fail registration", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.mail.err = errors.New("smtp down")

		user, err := f.svc.Register(ctx, auth.RegisterInput{Email: "ann@example.com", Password: "secret1"})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, user.ID)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t)
	_, err := f.svc.Register(ctx, auth.RegisterInput{Email: "pending@example.com", Password: "secret1"})
	require.NoError(t, err)
	f.verifiedUser(t, "ann@example.com", "secret1")

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"unknown email", "ghost@example.com", "secret1", auth.ErrInvalidCredentials},
		{"wrong password", "ann@example.com", "secret2", auth.ErrInvalidCredentials},
		{"unverified with wrong password", "pending@example.com", "nope-nope", auth.ErrInvalidCredentials},
		{"unverified", "pending@example.com", "secret1", auth.ErrEmailNotVerified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Login(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("success", func(t *testing.T) {
		res, err := f.svc.Login(ctx, " ANN@example.com", "secret1")
		require.NoError(t, err)
		assert.NotEmpty(t, res.AccessToken)
		assert.NotEmpty(t, res.RefreshToken)
		assert.True(t, res.Identity.EmailVerified)
		assert.Equal(t, f.clock.Now().Add(15*time.Minute), res.AccessExpiresAt)
		assert.Equal(t, f.clock.Now().Add(7*24*time.Hour), res.RefreshExpiresAt)

		claims, err := f.svc.Authenticate(ctx, res.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, res.Identity.ID.String(), claims.Subject)
		assert.Equal(t, "ann@example.com", claims.Email)
		assert.Len(t, f.store.Sessions(), 1)
	})
}

func TestVerifyEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("single use", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		user, err := f.svc.Register(ctx, auth.RegisterInput{Email: "ann@example.com", Password: "secret1"})
		require.NoError(t, err)
		token := f.mail.last(t, auth.PurposeVerifyEmail, user.Email)

		require.NoError(t, f.svc.VerifyEmail(ctx, token))
		assert.ErrorIs(t, f.svc.VerifyEmail(ctx, token), auth.ErrInvalidEphemeral)

		me, err := f.svc.Me(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, me.EmailVerified)
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		user, err := f.svc.Register(ctx, auth.RegisterInput{Email: "ann@example.com", Password: "secret1"})
		require.NoError(t, err)

		f.clock.Advance(24 * time.Hour)
		err = f.svc.VerifyEmail(ctx, f.mail.last(t, auth.PurposeVerifyEmail, user.Email))
		assert.ErrorIs(t, err, auth.ErrInvalidEphemeral)
	})

	t.Run("wrong purpose and garbage", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		user := f.verifiedUser(t, "ann@example.com", "secret1")
		require.NoError(t, f.svc.ForgotPassword(ctx, user.Email))

		assert.ErrorIs(t, f.svc.VerifyEmail(ctx, f.mail.last(t, auth.PurposeResetPassword, user.Email)), auth.ErrInvalidEphemeral)
		assert.ErrorIs(t, f.svc.VerifyEmail(ctx, ""), auth.ErrInvalidEphemeral)
		assert.ErrorIs(t, f.svc.VerifyEmail(ctx, "garbage"), auth.ErrInvalidEphemeral)
	})
}

func TestRefresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("rotates in place", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.verifiedUser(t, "ann@example.com", "secret1")
		first, err := f.svc.Login(ctx, "ann@example.com", "secret1")
		require.NoError(t, err)
		sessionID := f.store.Sessions()[0].ID

		f.clock.Advance(time.Minute)
		second, err := f.svc.Refresh(ctx, first.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
		assert.NotEqual(t, first.AccessToken, second.AccessToken)

		sessions := f.store.Sessions()
		require.Len(t, sessions, 1)
		assert.Equal(t, sessionID, sessions[0].ID)
		assert.Equal(t, second.RefreshToken, sessions[0].Token)

		_, err = f.svc.Refresh(ctx, first.RefreshToken)
		assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)

		_, err = f.svc.Refresh(ctx, second.RefreshToken)
		assert.NoError(t, err)
	})

	t.Run("rejects foreign tokens", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.verifiedUser(t, "ann@example.com", "secret1")
		res, err := f.svc.Login(ctx, "ann@example.com", "secret1")
		require.NoError(t, err)

		for _, token := range []string{"", "garbage", res.AccessToken} {
			_, err := f.svc.Refresh(ctx, token)
			assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
			assert.Equal(t, auth.KindUnauthorized, auth.KindOf(err))
		}

		_, err = f.svc.Authenticate(ctx, res.RefreshToken)
		assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
	})

	t.Run("expired session", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.verifiedUser(t, "ann@example.com", "secret1")
		res, err := f.svc.Login(ctx, "ann@example.com", "secret1")
		require.NoError(t, err)

		f.clock.Advance(7*24*time.Hour + time.Second)
		_, err = f.svc.Refresh(ctx, res.RefreshToken)
		assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
	})

	t.Run("concurrent rotation has one winner", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.verifiedUser(t, "ann@example.com", "secret1")
		res, err := f.svc.Login(ctx, "ann@example.com", "secret1")
		require.NoError(t, err)

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := f.svc.Refresh(ctx, res.RefreshToken); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
	})
}

func TestAuthenticateExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.verifiedUser(t, "ann@example.com", "secret1")
	res, err := f.svc.Login(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)

	f.clock.Advance(15*time.Minute + time.Second)
	_, err = f.svc.Authenticate(ctx, res.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}

func TestLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.verifiedUser(t, "ann@example.com", "secret1")
	res, err := f.svc.Login(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)

	f.svc.Logout(ctx, "")
	f.svc.Logout(ctx, "unknown")
	f.svc.Logout(ctx, res.RefreshToken)
	f.svc.Logout(ctx, res.RefreshToken)

	assert.Empty(t, f.store.Sessions())
	_, err = f.svc.Refresh(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

func TestForgotAndResetPassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("unknown and malformed emails are silent", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		assert.NoError(t, f.svc.ForgotPassword(ctx, "ghost@example.com"))
		assert.NoError(t, f.svc.ForgotPassword(ctx, "not an email"))
		assert.Zero(t, f.mail.count())
		assert.Empty(t, f.store.EphemeralTokens())
	})

	t.Run("reset revokes sessions and verifies email", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		user, err := f.svc.Register(ctx, auth.RegisterInput{Email: "ann@example.com", Password: "secret1"})
		require.NoError(t, err)

		require.NoError(t, f.svc.ForgotPassword(ctx, "ANN@example.com"))
		token := f.mail.last(t, auth.PurposeResetPassword, user.Email)

		err = f.svc.ResetPassword(ctx, token, "123")
		assert.Equal(t, auth.KindBadRequest, auth.KindOf(err))

		require.NoError(t, f.svc.ResetPassword(ctx, token, "brand-new"))
		assert.ErrorIs(t, f.svc.ResetPassword(ctx, token, "brand-new"), auth.ErrInvalidEphemeral)

		_, err = f.svc.Login(ctx, user.Email, "secret1")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
		_, err = f.svc.Login(ctx, user.Email, "brand-new")
		require.NoError(t, err, "reset also verified the address")
	})

	t.Run("sessions opened before the reset are gone", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		user := f.verifiedUser(t, "ann@example.com", "secret1")
		res, err := f.svc.Login(ctx, user.Email, "secret1")
		require.NoError(t, err)

		require.NoError(t, f.svc.ForgotPassword(ctx, user.Email))
		require.NoError(t, f.svc.ResetPassword(ctx, f.mail.last(t, auth.PurposeResetPassword, user.Email), "brand-new"))

		_, err = f.svc.Refresh(ctx, res.RefreshToken)
		assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
		assert.Empty(t, f.store.Sessions())
	})

	t.Run("a new request replaces the previous token", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		user := f.verifiedUser(t, "ann@example.com", "secret1")

		require.NoError(t, f.svc.ForgotPassword(ctx, user.Email))
		first := f.mail.last(t, auth.PurposeResetPassword, user.Email)
		require.NoError(t, f.svc.ForgotPassword(ctx, user.Email))
		second := f.mail.last(t, auth.PurposeResetPassword, user.Email)

		assert.ErrorIs(t, f.svc.ResetPassword(ctx, first, "brand-new"), auth.ErrInvalidEphemeral)
		assert.NoError(t, f.svc.ResetPassword(ctx, second, "brand-new"))
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		user := f.verifiedUser(t, "ann@example.com", "secret1")
		require.NoError(t, f.svc.ForgotPassword(ctx, user.Email))

		f.clock.Advance(time.Hour)
		err := f.svc.ResetPassword(ctx, f.mail.last(t, auth.PurposeResetPassword, user.Email), "brand-new")
		assert.ErrorIs(t, err, auth.ErrInvalidEphemeral)
		assert.Empty(t, f.store.EphemeralTokens(), "expired token is consumed")

		_, err = f.svc.Login(ctx, user.Email, "secret1")
		assert.NoError(t, err, "password unchanged")
	})
}

func TestResendVerification(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	user, err := f.svc.Register(ctx, auth.RegisterInput{Email: "ann@example.com", Password: "secret1"})
	require.NoError(t, err)
	first := f.mail.last(t, auth.PurposeVerifyEmail, user.Email)

	require.NoError(t, f.svc.ResendVerification(ctx, user.Email))
	second := f.mail.last(t, auth.PurposeVerifyEmail, user.Email)
	assert.NotEqual(t, first, second)
	assert.ErrorIs(t, f.svc.VerifyEmail(ctx, first), auth.ErrInvalidEphemeral)
	require.NoError(t, f.svc.VerifyEmail(ctx, second))

	sent := f.mail.count()
	require.NoError(t, f.svc.ResendVerification(ctx, user.Email))
	require.NoError(t, f.svc.ResendVerification(ctx, "ghost@example.com"))
	assert.Equal(t, sent, f.mail.count(), "verified and unknown addresses get nothing")
}

func TestOAuthLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("rejections", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		_, err := f.svc.OAuthLogin(ctx, "github", auth.Assertion{IDToken: "ann"})
		assert.ErrorIs(t, err, auth.ErrUnsupportedProvider)

		_, err = f.svc.OAuthLogin(ctx, "google", auth.Assertion{})
		assert.ErrorIs(t, err, auth.ErrMissingAssertion)

		_, err = f.svc.OAuthLogin(ctx, "google", auth.Assertion{IDToken: "forged"})
		assert.ErrorIs(t, err, auth.ErrOAuthFailed)
		assert.Equal(t, auth.KindUnauthorized, auth.KindOf(err))

		_, err = f.svc.OAuthLogin(ctx, "google", auth.Assertion{IDToken: "unverified"})
		assert.ErrorIs(t, err, auth.ErrProviderUnverified)
	})

	t.Run("first login creates a verified identity", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		res, err := f.svc.OAuthLogin(ctx, "Google", auth.Assertion{IDToken: "ann"})
		require.NoError(t, err)
		assert.Equal(t, "ann@example.com", res.Identity.Email)
		assert.True(t, res.Identity.EmailVerified)
		assert.False(t, res.Identity.HasPassword)

		links, err := f.svc.LinkedAccounts(ctx, res.Identity.ID)
		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, "g-ann", links[0].Subject)

		// The link wins over a changed provider email.
		again, err := f.svc.OAuthLogin(ctx, "google", auth.Assertion{IDToken: "ann-moved"})
		require.NoError(t, err)
		assert.Equal(t, res.Identity.ID, again.Identity.ID)
	})

	t.Run("matches and verifies an existing password account", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		user, err := f.svc.Register(ctx, auth.RegisterInput{Email: "ann@example.com", Password: "secret1"})
		require.NoError(t, err)

		res, err := f.svc.OAuthLogin(ctx, "google", auth.Assertion{IDToken: "ann"})
		require.NoError(t, err)
		assert.Equal(t, user.ID, res.Identity.ID)
		assert.True(t, res.Identity.EmailVerified)
		assert.True(t, res.Identity.HasPassword)

		_, err = f.svc.Login(ctx, user.Email, "secret1")
		assert.NoError(t, err)
	})
}

func TestLinking(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("link and unlink with a password", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		user := f.verifiedUser(t, "carol@example.com", "secret1")

		require.NoError(t, f.svc.LinkAccount(ctx, user.ID, "google", auth.Assertion{IDToken: "bob"}))
		require.NoError(t, f.svc.LinkAccount(ctx, user.ID, "google", auth.Assertion{IDToken: "bob"}), "relinking is a no-op")

		// bob's Google account now signs in as carol.
		res, err := f.svc.OAuthLogin(ctx, "google", auth.Assertion{IDToken: "bob"})
		require.NoError(t, err)
		assert.Equal(t, user.ID, res.Identity.ID)

		require.NoError(t, f.svc.UnlinkAccount(ctx, user.ID, "google"))
		assert.ErrorIs(t, f.svc.UnlinkAccount(ctx, user.ID, "google"), auth.ErrLinkMissing)
	})

	t.Run("account owned by someone else", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.svc.OAuthLogin(ctx, "google", auth.Assertion{IDToken: "bob"})
		require.NoError(t, err)
		carol := f.verifiedUser(t, "carol@example.com", "secret1")

		err = f.svc.LinkAccount(ctx, carol.ID, "google", auth.Assertion{IDToken: "bob"})
		assert.ErrorIs(t, err, auth.ErrAccountLinked)
	})

	t.Run("second account of the same provider", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		carol := f.verifiedUser(t, "carol@example.com", "secret1")
		require.NoError(t, f.svc.LinkAccount(ctx, carol.ID, "google", auth.Assertion{IDToken: "bob"}))

		err := f.svc.LinkAccount(ctx, carol.ID, "google", auth.Assertion{IDToken: "ann"})
		assert.ErrorIs(t, err, auth.ErrProviderAlreadyUsed)
	})

	t.Run("last sign-in method is kept", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		res, err := f.svc.OAuthLogin(ctx, "google", auth.Assertion{IDToken: "ann"})
		require.NoError(t, err)
		id := res.Identity.ID

		assert.ErrorIs(t, f.svc.UnlinkAccount(ctx, id, "google"), auth.ErrLastSignInMethod)

		require.NoError(t, f.svc.SetPassword(ctx, id, "", "secret1"))
		require.NoError(t, f.svc.UnlinkAccount(ctx, id, "google"))

		_, err = f.svc.Login(ctx, "ann@example.com", "secret1")
		assert.NoError(t, err)
	})

	t.Run("unknown identity", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		err := f.svc.LinkAccount(ctx, uuid.New(), "google", auth.Assertion{IDToken: "ann"})
		assert.ErrorIs(t, err, auth.ErrIdentityMissing)
	})

	t.Run("unverified provider email", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		carol := f.verifiedUser(t, "carol@example.com", "secret1")

		err := f.svc.LinkAccount(ctx, carol.ID, "google", auth.Assertion{IDToken: "unverified"})
		assert.ErrorIs(t, err, auth.ErrProviderUnverified)
		assert.Equal(t, auth.KindForbidden, auth.KindOf(err))

		links, err := f.svc.LinkedAccounts(ctx, carol.ID)
		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("email match with another account of the provider", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		user := f.verifiedUser(t, "ann@example.com", "secret1")
		require.NoError(t, f.svc.LinkAccount(ctx, user.ID, "google", auth.Assertion{IDToken: "bob"}))

		// g-ann matches by email but the identity already holds g-bob.
		_, err := f.svc.OAuthLogin(ctx, "google", auth.Assertion{IDToken: "ann"})
		assert.ErrorIs(t, err, auth.ErrProviderAlreadyUsed)
		assert.Equal(t, auth.KindConflict, auth.KindOf(err))

		links, err := f.svc.LinkedAccounts(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, "g-bob", links[0].Subject)
		assert.Empty(t, f.store.Sessions())
	})
}

func TestAccount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	user := f.verifiedUser(t, "ann@example.com", "secret1")

	t.Run("set password requires the current one", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.SetPassword(ctx, user.ID, "wrong", "secret2"), auth.ErrWrongPassword)
		assert.Equal(t, auth.KindBadRequest, auth.KindOf(f.svc.SetPassword(ctx, user.ID, "secret1", "x")))
		require.NoError(t, f.svc.SetPassword(ctx, user.ID, "secret1", "secret2"))

		_, err := f.svc.Login(ctx, user.Email, "secret2")
		assert.NoError(t, err)
	})

	t.Run("update profile", func(t *testing.T) {
		name := "  Ann   Smith "
		avatar := "https://cdn.example.com/avatars/a.png"
		me, err := f.svc.UpdateProfile(ctx, user.ID, auth.ProfileInput{Name: &name, AvatarURL: &avatar})
		require.NoError(t, err)
		assert.Equal(t, "Ann Smith", me.Name)
		assert.Equal(t, avatar, me.AvatarURL)

		bad := "not a url"
		_, err = f.svc.UpdateProfile(ctx, user.ID, auth.ProfileInput{AvatarURL: &bad})
		verrs, ok := validator.Extract(err)
		require.True(t, ok)
		assert.True(t, verrs.Has("avatarUrl"))

		// Nil fields are left alone.
		me, err = f.svc.UpdateProfile(ctx, user.ID, auth.ProfileInput{})
		require.NoError(t, err)
		assert.Equal(t, "Ann Smith", me.Name)
	})

	t.Run("missing identity", func(t *testing.T) {
		_, err := f.svc.Me(ctx, uuid.New())
		assert.ErrorIs(t, err, auth.ErrIdentityMissing)
	})
}

func TestPurgeExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	user := f.verifiedUser(t, "ann@example.com", "secret1")
	_, err := f.svc.Login(ctx, user.Email, "secret1")
	require.NoError(t, err)
	require.NoError(t, f.svc.ForgotPassword(ctx, user.Email))

	sessions, tokens, err := f.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, sessions)
	assert.Zero(t, tokens)

	f.clock.Advance(8 * 24 * time.Hour)
	sessions, tokens, err = f.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sessions)
	assert.Equal(t, int64(1), tokens)
}

func TestProviders(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{auth.ProviderGoogle}, newFixture(t).svc.Providers())
}
