package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/acmeworks/identity/pkg/logger"
	"github.com/acmeworks/identity/pkg/sanitizer"
)

// verifyExternal runs the provider round trip outside of any store
// transaction and maps its failures: unknown provider is a bad request, any
// verification failure is unauthorized, an unverified email is forbidden.
func (s *Service) verifyExternal(ctx context.Context, provider string, assertion Assertion) (ProviderProfile, error) {
	verifier, ok := s.verifiers[strings.ToLower(provider)]
	if !ok {
		return ProviderProfile{}, ErrUnsupportedProvider
	}
	if assertion.IDToken == "" && assertion.Code == "" {
		return ProviderProfile{}, ErrMissingAssertion
	}

	profile, err := verifier.Verify(ctx, assertion)
	if err != nil {
		s.logger.WarnContext(ctx, "external identity verification failed",
			logger.Provider(provider),
			logger.Error(err),
		)
		return ProviderProfile{}, newError(KindUnauthorized, ErrOAuthFailed.Message, err)
	}
	if !profile.EmailVerified {
		return ProviderProfile{}, ErrProviderUnverified
	}

	profile.Provider = verifier.Provider()
	profile.Email = sanitizer.NormalizeEmail(profile.Email)
	return profile, nil
}

// OAuthLogin signs in with an external identity. An existing link wins over
// the current email; otherwise the identity is matched by verified email and
// linked, or created verified together with its link.
func (s *Service) OAuthLogin(ctx context.Context, provider string, assertion Assertion) (*AuthResult, error) {
	profile, err := s.verifyExternal(ctx, provider, assertion)
	if err != nil {
		return nil, err
	}

	identity, err := s.resolveExternal(ctx, profile)
	if err != nil {
		return nil, err
	}

	result, err := s.openSession(ctx, identity)
	if err != nil {
		return nil, s.internal(ctx, "oauth_login", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		logger.UserID(identity.ID),
		logger.Provider(profile.Provider),
	)
	return result, nil
}

func (s *Service) resolveExternal(ctx context.Context, profile ProviderProfile) (*Identity, error) {
	link, err := s.credentials.GetLink(ctx, profile.Provider, profile.Subject)
	switch {
	case err == nil:
		identity, err := s.credentials.GetIdentityByID(ctx, link.IdentityID)
		if err != nil {
			return nil, s.internal(ctx, "oauth_login", err)
		}
		return identity, nil
	case !errors.Is(err, ErrLinkNotFound):
		return nil, s.internal(ctx, "oauth_login", err)
	}

	identity, err := s.credentials.GetIdentityByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		return s.autoLink(ctx, identity, profile)
	case !errors.Is(err, ErrIdentityNotFound):
		return nil, s.internal(ctx, "oauth_login", err)
	}

	return s.createFromExternal(ctx, profile)
}

func (s *Service) autoLink(ctx context.Context, identity *Identity, profile ProviderProfile) (*Identity, error) {
	if !identity.IsVerified() {
		now := s.now()
		if err := s.credentials.MarkEmailVerified(ctx, identity.ID, now); err != nil {
			return nil, s.internal(ctx, "oauth_login", err)
		}
		identity.EmailVerifiedAt = &now
	}

	err := s.credentials.CreateLink(ctx, &ExternalAccount{
		IdentityID: identity.ID,
		Provider:   profile.Provider,
		Subject:    profile.Subject,
		CreatedAt:  s.now(),
	})
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "external account auto-linked",
			logger.UserID(identity.ID),
			logger.Provider(profile.Provider),
		)
		return identity, nil
	case errors.Is(err, ErrDuplicateLink):
		return s.resolveLinkRace(ctx, identity, profile)
	default:
		return nil, s.internal(ctx, "oauth_login", err)
	}
}

// resolveLinkRace handles a duplicate link reported after we saw none: a
// concurrent login linked the same subject, or the identity already holds a
// different account of this provider.
func (s *Service) resolveLinkRace(ctx context.Context, identity *Identity, profile ProviderProfile) (*Identity, error) {
	link, err := s.credentials.GetLink(ctx, profile.Provider, profile.Subject)
	if err != nil {
		if errors.Is(err, ErrLinkNotFound) {
			return nil, ErrProviderAlreadyUsed
		}
		return nil, s.internal(ctx, "oauth_login", err)
	}
	if link.IdentityID != identity.ID {
		return nil, ErrAccountLinked
	}
	return identity, nil
}

func (s *Service) createFromExternal(ctx context.Context, profile ProviderProfile) (*Identity, error) {
	now := s.now()
	identity := &Identity{
		ID:              uuid.New(),
		Email:           profile.Email,
		Name:            sanitizer.CleanName(profile.Name),
		AvatarURL:       profile.AvatarURL,
		EmailVerifiedAt: &now,
		Role:            RoleUser,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	link := &ExternalAccount{
		IdentityID: identity.ID,
		Provider:   profile.Provider,
		Subject:    profile.Subject,
		CreatedAt:  now,
	}

	err := s.credentials.CreateIdentityWithLink(ctx, identity, link)
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "user registered",
			logger.UserID(identity.ID),
			logger.Provider(profile.Provider),
		)
		return identity, nil
	case errors.Is(err, ErrDuplicateEmail), errors.Is(err, ErrDuplicateLink):
		// Lost a race with a concurrent first login; the winner's records are
		// authoritative now.
		return s.resolveExternalOnce(ctx, profile)
	default:
		return nil, s.internal(ctx, "oauth_login", err)
	}
}

func (s *Service) resolveExternalOnce(ctx context.Context, profile ProviderProfile) (*Identity, error) {
	if link, err := s.credentials.GetLink(ctx, profile.Provider, profile.Subject); err == nil {
		identity, err := s.credentials.GetIdentityByID(ctx, link.IdentityID)
		if err != nil {
			return nil, s.internal(ctx, "oauth_login", err)
		}
		return identity, nil
	}
	identity, err := s.credentials.GetIdentityByEmail(ctx, profile.Email)
	if err != nil {
		return nil, s.internal(ctx, "oauth_login", err)
	}
	return s.autoLink(ctx, identity, profile)
}

// LinkAccount attaches an external account to an authenticated identity.
// Linking the same account twice is a no-op.
func (s *Service) LinkAccount(ctx context.Context, identityID uuid.UUID, provider string, assertion Assertion) error {
	profile, err := s.verifyExternal(ctx, provider, assertion)
	if err != nil {
		return err
	}

	if _, err := s.credentials.GetIdentityByID(ctx, identityID); err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return ErrIdentityMissing
		}
		return s.internal(ctx, "link_account", err)
	}

	existing, err := s.credentials.GetLink(ctx, profile.Provider, profile.Subject)
	switch {
	case err == nil && existing.IdentityID == identityID:
		return nil
	case err == nil:
		return ErrAccountLinked
	case !errors.Is(err, ErrLinkNotFound):
		return s.internal(ctx, "link_account", err)
	}

	err = s.credentials.CreateLink(ctx, &ExternalAccount{
		IdentityID: identityID,
		Provider:   profile.Provider,
		Subject:    profile.Subject,
		CreatedAt:  s.now(),
	})
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "external account linked",
			logger.UserID(identityID),
			logger.Provider(profile.Provider),
		)
		return nil
	case errors.Is(err, ErrDuplicateLink):
		link, lookupErr := s.credentials.GetLink(ctx, profile.Provider, profile.Subject)
		switch {
		case lookupErr == nil && link.IdentityID == identityID:
			return nil
		case lookupErr == nil:
			return ErrAccountLinked
		default:
			return ErrProviderAlreadyUsed
		}
	default:
		return s.internal(ctx, "link_account", err)
	}
}

// UnlinkAccount removes the identity's link for provider unless it is the
// last way to sign in.
func (s *Service) UnlinkAccount(ctx context.Context, identityID uuid.UUID, provider string) error {
	err := s.credentials.DeleteLink(ctx, identityID, strings.ToLower(provider))
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "external account unlinked",
			logger.UserID(identityID),
			logger.Provider(provider),
		)
		return nil
	case errors.Is(err, ErrLinkNotFound):
		return ErrLinkMissing
	case errors.Is(err, ErrLastAuthMethod):
		return ErrLastSignInMethod
	default:
		return s.internal(ctx, "unlink_account", err)
	}
}

// LinkedAccounts lists the providers linked to identityID.
func (s *Service) LinkedAccounts(ctx context.Context, identityID uuid.UUID) ([]ExternalAccount, error) {
	links, err := s.credentials.ListLinks(ctx, identityID)
	if err != nil {
		return nil, s.internal(ctx, "list_links", err)
	}
	return links, nil
}
