// Package storetest holds behaviour tests shared by every auth store
// implementation.
package storetest

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acmeworks/identity/pkg/auth"
)

func newIdentity(withPassword bool) *auth.Identity {
	now := time.Now().UTC().Truncate(time.Microsecond)
	i := &auth.Identity{
		ID:        uuid.New(),
		Email:     uuid.NewString() + "@example.com",
		Name:      "Test",
		Role:      auth.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if withPassword {
		i.PasswordHash = []byte("hash")
	}
	return i
}

func newLink(identityID uuid.UUID, provider string) *auth.ExternalAccount {
	return &auth.ExternalAccount{
		IdentityID: identityID,
		Provider:   provider,
		Subject:    uuid.NewString(),
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

// SeedIdentity is used by session stores that need an owning identity row.
type SeedIdentity func(t *testing.T) uuid.UUID

// Credentials exercises an auth.CredentialStore.
func Credentials(t *testing.T, store auth.CredentialStore) {
	t.Run("create and read", func(t *testing.T) {
		ctx := t.Context()
		identity := newIdentity(true)
		require.NoError(t, store.CreateIdentity(ctx, identity))

		byID, err := store.GetIdentityByID(ctx, identity.ID)
		require.NoError(t, err)
		assert.Equal(t, identity.Email, byID.Email)
		assert.True(t, byID.HasPassword())
		assert.False(t, byID.IsVerified())

		byEmail, err := store.GetIdentityByEmail(ctx, identity.Email)
		require.NoError(t, err)
		assert.Equal(t, identity.ID, byEmail.ID)
	})

	t.Run("missing identity", func(t *testing.T) {
		_, err := store.GetIdentityByID(t.Context(), uuid.New())
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
		_, err = store.GetIdentityByEmail(t.Context(), "nobody@example.com")
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		ctx := t.Context()
		first := newIdentity(true)
		require.NoError(t, store.CreateIdentity(ctx, first))

		second := newIdentity(true)
		second.Email = first.Email
		assert.ErrorIs(t, store.CreateIdentity(ctx, second), auth.ErrDuplicateEmail)
	})

	t.Run("identity with link is atomic", func(t *testing.T) {
		ctx := t.Context()
		owner := newIdentity(false)
		link := newLink(owner.ID, auth.ProviderGoogle)
		require.NoError(t, store.CreateIdentityWithLink(ctx, owner, link))

		got, err := store.GetLink(ctx, auth.ProviderGoogle, link.Subject)
		require.NoError(t, err)
		assert.Equal(t, owner.ID, got.IdentityID)

		other := newIdentity(false)
		dup := newLink(other.ID, auth.ProviderGoogle)
		dup.Subject = link.Subject
		assert.ErrorIs(t, store.CreateIdentityWithLink(ctx, other, dup), auth.ErrDuplicateLink)

		_, err = store.GetIdentityByEmail(ctx, other.Email)
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
	})

	t.Run("mark verified keeps first timestamp", func(t *testing.T) {
		ctx := t.Context()
		identity := newIdentity(true)
		require.NoError(t, store.CreateIdentity(ctx, identity))

		first := time.Now().UTC().Truncate(time.Second)
		require.NoError(t, store.MarkEmailVerified(ctx, identity.ID, first))
		require.NoError(t, store.MarkEmailVerified(ctx, identity.ID, first.Add(time.Hour)))

		got, err := store.GetIdentityByID(ctx, identity.ID)
		require.NoError(t, err)
		require.NotNil(t, got.EmailVerifiedAt)
		assert.True(t, got.EmailVerifiedAt.Equal(first))

		assert.ErrorIs(t, store.MarkEmailVerified(ctx, uuid.New(), first), auth.ErrIdentityNotFound)
	})

	t.Run("update password and profile", func(t *testing.T) {
		ctx := t.Context()
		identity := newIdentity(false)
		require.NoError(t, store.CreateIdentity(ctx, identity))

		require.NoError(t, store.UpdatePasswordHash(ctx, identity.ID, []byte("new")))
		got, err := store.GetIdentityByID(ctx, identity.ID)
		require.NoError(t, err)
		assert.Equal(t, []byte("new"), got.PasswordHash)

		avatar := "https://cdn.example.com/a.png"
		updated, err := store.UpdateProfile(ctx, identity.ID, auth.ProfileInput{AvatarURL: &avatar})
		require.NoError(t, err)
		assert.Equal(t, avatar, updated.AvatarURL)
		assert.Equal(t, "Test", updated.Name)

		_, err = store.UpdateProfile(ctx, uuid.New(), auth.ProfileInput{})
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
		assert.ErrorIs(t, store.UpdatePasswordHash(ctx, uuid.New(), []byte("x")), auth.ErrIdentityNotFound)
	})

	t.Run("links", func(t *testing.T) {
		ctx := t.Context()
		identity := newIdentity(false)
		require.NoError(t, store.CreateIdentity(ctx, identity))

		google := newLink(identity.ID, auth.ProviderGoogle)
		require.NoError(t, store.CreateLink(ctx, google))
		github := newLink(identity.ID, "github")
		github.CreatedAt = google.CreatedAt.Add(time.Second)
		require.NoError(t, store.CreateLink(ctx, github))

		// one link per provider per identity
		assert.ErrorIs(t, store.CreateLink(ctx, newLink(identity.ID, auth.ProviderGoogle)), auth.ErrDuplicateLink)

		links, err := store.ListLinks(ctx, identity.ID)
		require.NoError(t, err)
		require.Len(t, links, 2)
		assert.Equal(t, auth.ProviderGoogle, links[0].Provider)

		require.NoError(t, store.DeleteLink(ctx, identity.ID, "github"))
		assert.ErrorIs(t, store.DeleteLink(ctx, identity.ID, "github"), auth.ErrLinkNotFound)

		// last method without password
		assert.ErrorIs(t, store.DeleteLink(ctx, identity.ID, auth.ProviderGoogle), auth.ErrLastAuthMethod)

		require.NoError(t, store.UpdatePasswordHash(ctx, identity.ID, []byte("hash")))
		require.NoError(t, store.DeleteLink(ctx, identity.ID, auth.ProviderGoogle))

		_, err = store.GetLink(ctx, auth.ProviderGoogle, google.Subject)
		assert.ErrorIs(t, err, auth.ErrLinkNotFound)
	})

	t.Run("concurrent unlink keeps one method", func(t *testing.T) {
		ctx := t.Context()
		identity := newIdentity(false)
		require.NoError(t, store.CreateIdentity(ctx, identity))
		require.NoError(t, store.CreateLink(ctx, newLink(identity.ID, auth.ProviderGoogle)))
		require.NoError(t, store.CreateLink(ctx, newLink(identity.ID, "github")))

		var wg sync.WaitGroup
		for _, p := range []string{auth.ProviderGoogle, "github"} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = store.DeleteLink(ctx, identity.ID, p)
			}()
		}
		wg.Wait()

		links, err := store.ListLinks(ctx, identity.ID)
		require.NoError(t, err)
		assert.Len(t, links, 1)
	})
}

// Sessions exercises an auth.SessionStore. seed must return the id of an
// existing identity.
func Sessions(t *testing.T, store auth.SessionStore, seed SeedIdentity) {
	newSession := func(identityID uuid.UUID, ttl time.Duration) *auth.Session {
		now := time.Now().UTC().Truncate(time.Microsecond)
		return &auth.Session{
			ID:         uuid.New(),
			Token:      uuid.NewString(),
			IdentityID: identityID,
			ExpiresAt:  now.Add(ttl),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}

	t.Run("create, read, delete", func(t *testing.T) {
		ctx := t.Context()
		sess := newSession(seed(t), time.Hour)
		require.NoError(t, store.CreateSession(ctx, sess))

		got, err := store.GetSessionByToken(ctx, sess.Token)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, got.ID)
		assert.Equal(t, sess.IdentityID, got.IdentityID)

		require.NoError(t, store.DeleteSessionByToken(ctx, sess.Token))
		require.NoError(t, store.DeleteSessionByToken(ctx, sess.Token))
		_, err = store.GetSessionByToken(ctx, sess.Token)
		assert.ErrorIs(t, err, auth.ErrSessionNotFound)
	})

	t.Run("rotate is compare and swap", func(t *testing.T) {
		ctx := t.Context()
		sess := newSession(seed(t), time.Hour)
		require.NoError(t, store.CreateSession(ctx, sess))

		next := uuid.NewString()
		expires := sess.ExpiresAt.Add(time.Hour)
		require.NoError(t, store.RotateSession(ctx, sess.ID, sess.Token, next, expires))
		assert.ErrorIs(t, store.RotateSession(ctx, sess.ID, sess.Token, uuid.NewString(), expires), auth.ErrSessionNotFound)

		_, err := store.GetSessionByToken(ctx, sess.Token)
		assert.ErrorIs(t, err, auth.ErrSessionNotFound)

		got, err := store.GetSessionByToken(ctx, next)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, got.ID)
		assert.WithinDuration(t, expires, got.ExpiresAt, time.Second)
	})

	t.Run("concurrent rotate has one winner", func(t *testing.T) {
		ctx := t.Context()
		sess := newSession(seed(t), time.Hour)
		require.NoError(t, store.CreateSession(ctx, sess))

		var wins atomic.Int32
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if store.RotateSession(ctx, sess.ID, sess.Token, uuid.NewString(), sess.ExpiresAt) == nil {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins.Load())
	})

	t.Run("delete by identity", func(t *testing.T) {
		ctx := t.Context()
		owner := seed(t)
		a, b := newSession(owner, time.Hour), newSession(owner, time.Hour)
		other := newSession(seed(t), time.Hour)
		for _, s := range []*auth.Session{a, b, other} {
			require.NoError(t, store.CreateSession(ctx, s))
		}

		require.NoError(t, store.DeleteSessionsByIdentity(ctx, owner))
		for _, s := range []*auth.Session{a, b} {
			_, err := store.GetSessionByToken(ctx, s.Token)
			assert.ErrorIs(t, err, auth.ErrSessionNotFound)
		}
		_, err := store.GetSessionByToken(ctx, other.Token)
		assert.NoError(t, err)
	})

	t.Run("delete expired", func(t *testing.T) {
		ctx := t.Context()
		expired := newSession(seed(t), -time.Minute)
		live := newSession(seed(t), time.Hour)
		require.NoError(t, store.CreateSession(ctx, expired))
		require.NoError(t, store.CreateSession(ctx, live))

		n, err := store.DeleteExpiredSessions(ctx, time.Now())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, int64(1))

		_, err = store.GetSessionByToken(ctx, expired.Token)
		assert.ErrorIs(t, err, auth.ErrSessionNotFound)
		_, err = store.GetSessionByToken(ctx, live.Token)
		assert.NoError(t, err)
	})
}

// Ephemeral exercises an auth.EphemeralTokenStore.
func Ephemeral(t *testing.T, store auth.EphemeralTokenStore) {
	newToken := func(identifier string, purpose auth.Purpose, ttl time.Duration) *auth.EphemeralToken {
		now := time.Now().UTC().Truncate(time.Microsecond)
		return &auth.EphemeralToken{
			Token:      uuid.NewString(),
			Identifier: identifier,
			Purpose:    purpose,
			ExpiresAt:  now.Add(ttl),
			CreatedAt:  now,
		}
	}

	t.Run("consume once", func(t *testing.T) {
		ctx := t.Context()
		tok := newToken(uuid.NewString()+"@example.com", auth.PurposeVerifyEmail, time.Hour)
		require.NoError(t, store.ReplaceEphemeralToken(ctx, tok))

		got, err := store.ConsumeEphemeralToken(ctx, tok.Token, auth.PurposeVerifyEmail)
		require.NoError(t, err)
		assert.Equal(t, tok.Identifier, got.Identifier)

		_, err = store.ConsumeEphemeralToken(ctx, tok.Token, auth.PurposeVerifyEmail)
		assert.ErrorIs(t, err, auth.ErrEphemeralTokenNotFound)
	})

	t.Run("purpose must match", func(t *testing.T) {
		ctx := t.Context()
		tok := newToken(uuid.NewString()+"@example.com", auth.PurposeResetPassword, time.Hour)
		require.NoError(t, store.ReplaceEphemeralToken(ctx, tok))

		_, err := store.ConsumeEphemeralToken(ctx, tok.Token, auth.PurposeVerifyEmail)
		assert.ErrorIs(t, err, auth.ErrEphemeralTokenNotFound)

		_, err = store.ConsumeEphemeralToken(ctx, tok.Token, auth.PurposeResetPassword)
		assert.NoError(t, err)
	})

	t.Run("replace invalidates previous token in scope", func(t *testing.T) {
		ctx := t.Context()
		email := uuid.NewString() + "@example.com"
		first := newToken(email, auth.PurposeResetPassword, time.Hour)
		other := newToken(email, auth.PurposeVerifyEmail, time.Hour)
		second := newToken(email, auth.PurposeResetPassword, time.Hour)
		require.NoError(t, store.ReplaceEphemeralToken(ctx, first))
		require.NoError(t, store.ReplaceEphemeralToken(ctx, other))
		require.NoError(t, store.ReplaceEphemeralToken(ctx, second))

		_, err := store.ConsumeEphemeralToken(ctx, first.Token, auth.PurposeResetPassword)
		assert.ErrorIs(t, err, auth.ErrEphemeralTokenNotFound)
		_, err = store.ConsumeEphemeralToken(ctx, second.Token, auth.PurposeResetPassword)
		assert.NoError(t, err)
		_, err = store.ConsumeEphemeralToken(ctx, other.Token, auth.PurposeVerifyEmail)
		assert.NoError(t, err)
	})

	t.Run("expired tokens are still returned", func(t *testing.T) {
		ctx := t.Context()
		tok := newToken(uuid.NewString()+"@example.com", auth.PurposeVerifyEmail, -time.Minute)
		require.NoError(t, store.ReplaceEphemeralToken(ctx, tok))

		got, err := store.ConsumeEphemeralToken(ctx, tok.Token, auth.PurposeVerifyEmail)
		require.NoError(t, err)
		assert.True(t, got.IsExpired(time.Now()))
	})

	t.Run("delete expired", func(t *testing.T) {
		ctx := t.Context()
		expired := newToken(uuid.NewString()+"@example.com", auth.PurposeVerifyEmail, -time.Minute)
		live := newToken(uuid.NewString()+"@example.com", auth.PurposeVerifyEmail, time.Hour)
		require.NoError(t, store.ReplaceEphemeralToken(ctx, expired))
		require.NoError(t, store.ReplaceEphemeralToken(ctx, live))

		n, err := store.DeleteExpiredEphemeralTokens(ctx, time.Now())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, int64(1))

		_, err = store.ConsumeEphemeralToken(ctx, expired.Token, auth.PurposeVerifyEmail)
		assert.ErrorIs(t, err, auth.ErrEphemeralTokenNotFound)
		_, err = store.ConsumeEphemeralToken(ctx, live.Token, auth.PurposeVerifyEmail)
		assert.NoError(t, err)
	})

	t.Run("concurrent consume has one winner", func(t *testing.T) {
		ctx := t.Context()
		tok := newToken(uuid.NewString()+"@example.com", auth.PurposeResetPassword, time.Hour)
		require.NoError(t, store.ReplaceEphemeralToken(ctx, tok))

		var wins atomic.Int32
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := store.ConsumeEphemeralToken(ctx, tok.Token, auth.PurposeResetPassword); err == nil {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins.Load())
	})

	t.Run("concurrent replace leaves one live token", func(t *testing.T) {
		ctx := t.Context()
		email := uuid.NewString() + "@example.com"

		issued := make([]*auth.EphemeralToken, 8)
		var wg sync.WaitGroup
		for i := range issued {
			issued[i] = newToken(email, auth.PurposeResetPassword, time.Hour)
			wg.Add(1)
			go func(tok *auth.EphemeralToken) {
				defer wg.Done()
				assert.NoError(t, store.ReplaceEphemeralToken(ctx, tok))
			}(issued[i])
		}
		wg.Wait()

		live := 0
		for _, tok := range issued {
			if _, err := store.ConsumeEphemeralToken(ctx, tok.Token, auth.PurposeResetPassword); err == nil {
				live++
			}
		}
		assert.Equal(t, 1, live)
	})
}
