package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/acmeworks/identity/pkg/logger"
	"github.com/acmeworks/identity/pkg/sanitizer"
	"github.com/acmeworks/identity/pkg/validator"
)

const ephemeralTokenBytes = 32

// ForgotPassword sends a reset link when the email is known. The result is
// the same for known and unknown addresses.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	identity, err := s.lookupForMail(ctx, email)
	if err != nil || identity == nil {
		return err
	}
	if err := s.issueEphemeral(ctx, identity, PurposeResetPassword); err != nil {
		return s.internal(ctx, "forgot_password", err)
	}
	return nil
}

// ResendVerification sends a fresh verification link to a known, still
// unverified address. Like ForgotPassword it reveals nothing about the email.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	identity, err := s.lookupForMail(ctx, email)
	if err != nil || identity == nil || identity.IsVerified() {
		return err
	}
	if err := s.issueEphemeral(ctx, identity, PurposeVerifyEmail); err != nil {
		return s.internal(ctx, "resend_verification", err)
	}
	return nil
}

// VerifyEmail consumes a verify-email token and marks the address verified.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	identity, err := s.consume(ctx, token, PurposeVerifyEmail)
	if err != nil {
		return err
	}
	if err := s.credentials.MarkEmailVerified(ctx, identity.ID, s.now()); err != nil {
		return s.internal(ctx, "verify_email", err)
	}
	s.logger.InfoContext(ctx, "email verified", logger.UserID(identity.ID))
	return nil
}

// ResetPassword consumes a reset token, stores the new password and revokes
// every session of the identity. Proving mailbox control also verifies the
// email address.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := s.validatePassword("password", newPassword); err != nil {
		return err
	}

	identity, err := s.consume(ctx, token, PurposeResetPassword)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return s.internal(ctx, "reset_password", err)
	}
	if err := s.credentials.UpdatePasswordHash(ctx, identity.ID, hash); err != nil {
		return s.internal(ctx, "reset_password", err)
	}
	if !identity.IsVerified() {
		if err := s.credentials.MarkEmailVerified(ctx, identity.ID, s.now()); err != nil {
			return s.internal(ctx, "reset_password", err)
		}
	}
	if err := s.sessions.DeleteSessionsByIdentity(ctx, identity.ID); err != nil {
		return s.internal(ctx, "reset_password", err)
	}

	s.logger.InfoContext(ctx, "password reset", logger.UserID(identity.ID))
	return nil
}

// consume claims the token before any mutation happens, so a replay loses
// even if the first caller is still running.
func (s *Service) consume(ctx context.Context, token string, purpose Purpose) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidEphemeral
	}

	record, err := s.ephemeral.ConsumeEphemeralToken(ctx, token, purpose)
	if err != nil {
		if errors.Is(err, ErrEphemeralTokenNotFound) {
			return nil, ErrInvalidEphemeral
		}
		return nil, s.internal(ctx, "consume_token", err)
	}
	if record.IsExpired(s.now()) {
		s.logger.DebugContext(ctx, "expired token consumed", logger.Purpose(string(purpose)))
		return nil, ErrInvalidEphemeral
	}

	identity, err := s.credentials.GetIdentityByEmail(ctx, record.Identifier)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, ErrInvalidEphemeral
		}
		return nil, s.internal(ctx, "consume_token", err)
	}
	return identity, nil
}

// lookupForMail returns (nil, nil) for unknown or malformed addresses so that
// callers can succeed silently.
func (s *Service) lookupForMail(ctx context.Context, email string) (*Identity, error) {
	email = sanitizer.NormalizeEmail(email)
	if err := validator.Apply(validator.ValidEmail("email", email)); err != nil {
		return nil, nil
	}

	identity, err := s.credentials.GetIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, nil
		}
		return nil, s.internal(ctx, "lookup_identity", err)
	}
	return identity, nil
}

// issueEphemeral replaces any live token for (email, purpose) and dispatches
// the matching message.
func (s *Service) issueEphemeral(ctx context.Context, identity *Identity, purpose Purpose) error {
	value, err := newOpaqueToken(ephemeralTokenBytes)
	if err != nil {
		return err
	}

	now := s.now()
	record := &EphemeralToken{
		Token:      value,
		Identifier: identity.Email,
		Purpose:    purpose,
		ExpiresAt:  now.Add(s.ttlFor(purpose)),
		CreatedAt:  now,
	}
	if err := s.ephemeral.ReplaceEphemeralToken(ctx, record); err != nil {
		return fmt.Errorf("failed to store %s token: %w", purpose, err)
	}

	public := identity.Public()
	switch purpose {
	case PurposeVerifyEmail:
		s.dispatch(ctx, "verification_email", public, func(ctx context.Context) error {
			return s.notifier.SendVerificationEmail(ctx, public, value)
		})
	case PurposeResetPassword:
		s.dispatch(ctx, "password_reset_email", public, func(ctx context.Context) error {
			return s.notifier.SendPasswordResetEmail(ctx, public, value)
		})
	}
	return nil
}

func (s *Service) ttlFor(purpose Purpose) time.Duration {
	if purpose == PurposeResetPassword {
		return s.cfg.ResetPasswordTTL
	}
	return s.cfg.VerifyEmailTTL
}

func (s *Service) validatePassword(field, password string) error {
	if err := validator.Apply(
		validator.MinLenString(field, password, s.cfg.PasswordMinLength),
		validator.MaxLenString(field, password, maxPasswordLength),
	); err != nil {
		return newError(KindBadRequest, ErrInvalidInput.Message, err)
	}
	return nil
}
