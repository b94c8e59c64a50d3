package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/acmeworks/identity/pkg/logger"
	"github.com/acmeworks/identity/pkg/sanitizer"
	"github.com/acmeworks/identity/pkg/validator"
)

// Me returns the public projection of the authenticated identity.
func (s *Service) Me(ctx context.Context, identityID uuid.UUID) (*PublicIdentity, error) {
	identity, err := s.credentials.GetIdentityByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, ErrIdentityMissing
		}
		return nil, s.internal(ctx, "me", err)
	}
	public := identity.Public()
	return &public, nil
}

// SetPassword sets or changes the password. An identity without a password
// (signed up through a provider) may set one without current; otherwise
// current must match.
func (s *Service) SetPassword(ctx context.Context, identityID uuid.UUID, current, newPassword string) error {
	if err := s.validatePassword("newPassword", newPassword); err != nil {
		return err
	}

	identity, err := s.credentials.GetIdentityByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return ErrIdentityMissing
		}
		return s.internal(ctx, "set_password", err)
	}

	if identity.HasPassword() {
		if err := s.hasher.Compare(identity.PasswordHash, current); err != nil {
			if errors.Is(err, ErrHashMismatch) {
				return ErrWrongPassword
			}
			return s.internal(ctx, "set_password", err)
		}
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return s.internal(ctx, "set_password", err)
	}
	if err := s.credentials.UpdatePasswordHash(ctx, identityID, hash); err != nil {
		return s.internal(ctx, "set_password", err)
	}

	s.logger.InfoContext(ctx, "password changed", logger.UserID(identityID))
	return nil
}

// UpdateProfile changes display name and avatar reference.
func (s *Service) UpdateProfile(ctx context.Context, identityID uuid.UUID, in ProfileInput) (*PublicIdentity, error) {
	var rules []validator.Rule
	if in.Name != nil {
		name := sanitizer.CleanName(*in.Name)
		in.Name = &name
		rules = append(rules, validator.MaxRunesString("name", name, 100))
	}
	if in.AvatarURL != nil && *in.AvatarURL != "" {
		rules = append(rules, validator.ValidURL("avatarUrl", *in.AvatarURL))
	}
	if err := validator.Apply(rules...); err != nil {
		return nil, newError(KindBadRequest, ErrInvalidInput.Message, err)
	}

	identity, err := s.credentials.UpdateProfile(ctx, identityID, in)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, ErrIdentityMissing
		}
		return nil, s.internal(ctx, "update_profile", err)
	}
	public := identity.Public()
	return &public, nil
}
