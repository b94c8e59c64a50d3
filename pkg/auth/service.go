package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/acmeworks/identity/pkg/logger"
)

// maxPasswordLength is bcrypt's input limit in bytes.
const maxPasswordLength = 72

// Deps are the collaborators a Service is composed from.
type Deps struct {
	Credentials CredentialStore
	Sessions    SessionStore
	Ephemeral   EphemeralTokenStore
	Notifier    Notifier
}

// Service orchestrates sign-in, session rotation, external account linking
// and ephemeral-token flows. It keeps no state between calls.
type Service struct {
	cfg         Config
	credentials CredentialStore
	sessions    SessionStore
	ephemeral   EphemeralTokenStore
	notifier    Notifier
	hasher      Hasher
	codec       *TokenCodec
	verifiers   map[string]IdentityVerifier
	logger      *slog.Logger
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets a structured logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHasher replaces the bcrypt hasher.
func WithHasher(h Hasher) Option {
	return func(s *Service) {
		if h != nil {
			s.hasher = h
		}
	}
}

// WithClock overrides the time source for every expiry decision.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithVerifier registers an external identity verifier under its provider name.
func WithVerifier(v IdentityVerifier) Option {
	return func(s *Service) {
		if v != nil {
			s.verifiers[v.Provider()] = v
		}
	}
}

// New validates cfg and wires a Service. Credentials, Sessions and Ephemeral
// are required; a nil Notifier disables dispatch.
func New(cfg Config, deps Deps, opts ...Option) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if deps.Credentials == nil || deps.Sessions == nil || deps.Ephemeral == nil {
		return nil, errors.Join(ErrInvalidConfig, errors.New("credential, session and ephemeral stores are required"))
	}

	s := &Service{
		cfg:         cfg,
		credentials: deps.Credentials,
		sessions:    deps.Sessions,
		ephemeral:   deps.Ephemeral,
		notifier:    deps.Notifier,
		verifiers:   make(map[string]IdentityVerifier),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hasher == nil {
		s.hasher = NewBcryptHasher(cfg.BcryptCost)
	}

	codec, err := NewTokenCodec(cfg, s.now)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	s.codec = codec
	s.logger = s.logger.With(logger.Component("auth"))

	return s, nil
}

// Providers lists the registered OAuth provider names.
func (s *Service) Providers() []string {
	out := make([]string, 0, len(s.verifiers))
	for name := range s.verifiers {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// internal logs an unexpected infrastructure failure and hides it behind a
// generic error.
func (s *Service) internal(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "auth operation failed",
		logger.Operation(op),
		logger.Error(err),
	)
	return newError(KindInternal, ErrInternal.Message, fmt.Errorf("%s: %w", op, err))
}

// compareDummy spends one hash comparison so that a missing account costs
// roughly the same as a wrong password.
func (s *Service) compareDummy(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("dummy-password-for-timing")
		if err == nil {
			s.dummyHash = hash
		}
	})
	if s.dummyHash != nil {
		_ = s.hasher.Compare(s.dummyHash, password)
	}
}

// dispatch runs a notifier call with its own deadline, detached from request
// cancellation. Failures are logged and never reach the caller.
func (s *Service) dispatch(ctx context.Context, kind string, identity PublicIdentity, send func(context.Context) error) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.NotifyTimeout)
	defer cancel()

	if err := send(ctx); err != nil {
		s.logger.WarnContext(ctx, "notification dispatch failed",
			logger.Event(kind),
			logger.UserID(identity.ID),
			logger.Error(err),
		)
	}
}
