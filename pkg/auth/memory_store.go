package auth

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type linkKey struct {
	provider string
	subject  string
}

type ephemeralKey struct {
	identifier string
	purpose    Purpose
}

// MemoryStore implements CredentialStore, SessionStore and EphemeralTokenStore
// in process memory. It is meant for tests and single-instance development.
type MemoryStore struct {
	mu         sync.Mutex
	identities map[uuid.UUID]*Identity
	byEmail    map[string]uuid.UUID
	links      map[linkKey]*ExternalAccount
	sessions   map[uuid.UUID]*Session
	byToken    map[string]uuid.UUID
	ephemeral  map[string]*EphemeralToken
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		identities: make(map[uuid.UUID]*Identity),
		byEmail:    make(map[string]uuid.UUID),
		links:      make(map[linkKey]*ExternalAccount),
		sessions:   make(map[uuid.UUID]*Session),
		byToken:    make(map[string]uuid.UUID),
		ephemeral:  make(map[string]*EphemeralToken),
	}
}

func cloneIdentity(i *Identity) *Identity {
	c := *i
	c.PasswordHash = slices.Clone(i.PasswordHash)
	if i.EmailVerifiedAt != nil {
		t := *i.EmailVerifiedAt
		c.EmailVerifiedAt = &t
	}
	return &c
}

func (m *MemoryStore) CreateIdentity(_ context.Context, identity *Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[identity.Email]; ok {
		return ErrDuplicateEmail
	}
	m.identities[identity.ID] = cloneIdentity(identity)
	m.byEmail[identity.Email] = identity.ID
	return nil
}

func (m *MemoryStore) CreateIdentityWithLink(_ context.Context, identity *Identity, link *ExternalAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[identity.Email]; ok {
		return ErrDuplicateEmail
	}
	if _, ok := m.links[linkKey{link.Provider, link.Subject}]; ok {
		return ErrDuplicateLink
	}
	m.identities[identity.ID] = cloneIdentity(identity)
	m.byEmail[identity.Email] = identity.ID
	l := *link
	m.links[linkKey{link.Provider, link.Subject}] = &l
	return nil
}

func (m *MemoryStore) GetIdentityByID(_ context.Context, id uuid.UUID) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	identity, ok := m.identities[id]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	return cloneIdentity(identity), nil
}

func (m *MemoryStore) GetIdentityByEmail(_ context.Context, email string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	return cloneIdentity(m.identities[id]), nil
}

func (m *MemoryStore) MarkEmailVerified(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	identity, ok := m.identities[id]
	if !ok {
		return ErrIdentityNotFound
	}
	if identity.EmailVerifiedAt == nil {
		identity.EmailVerifiedAt = &at
		identity.UpdatedAt = at
	}
	return nil
}

func (m *MemoryStore) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	identity, ok := m.identities[id]
	if !ok {
		return ErrIdentityNotFound
	}
	identity.PasswordHash = slices.Clone(hash)
	identity.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) UpdateProfile(_ context.Context, id uuid.UUID, in ProfileInput) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	identity, ok := m.identities[id]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	if in.Name != nil {
		identity.Name = *in.Name
	}
	if in.AvatarURL != nil {
		identity.AvatarURL = *in.AvatarURL
	}
	identity.UpdatedAt = time.Now()
	return cloneIdentity(identity), nil
}

func (m *MemoryStore) CreateLink(_ context.Context, link *ExternalAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[linkKey{link.Provider, link.Subject}]; ok {
		return ErrDuplicateLink
	}
	for _, l := range m.links {
		if l.IdentityID == link.IdentityID && l.Provider == link.Provider {
			return ErrDuplicateLink
		}
	}
	l := *link
	m.links[linkKey{link.Provider, link.Subject}] = &l
	return nil
}

func (m *MemoryStore) GetLink(_ context.Context, provider, subject string) (*ExternalAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.links[linkKey{provider, subject}]
	if !ok {
		return nil, ErrLinkNotFound
	}
	c := *l
	return &c, nil
}

func (m *MemoryStore) ListLinks(_ context.Context, identityID uuid.UUID) ([]ExternalAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []ExternalAccount
	for _, l := range m.links {
		if l.IdentityID == identityID {
			out = append(out, *l)
		}
	}
	slices.SortFunc(out, func(a, b ExternalAccount) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) DeleteLink(_ context.Context, identityID uuid.UUID, provider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var target *linkKey
	count := 0
	for k, l := range m.links {
		if l.IdentityID != identityID {
			continue
		}
		count++
		if l.Provider == provider {
			key := k
			target = &key
		}
	}
	if target == nil {
		return ErrLinkNotFound
	}
	identity, ok := m.identities[identityID]
	if !ok {
		return ErrIdentityNotFound
	}
	if !identity.HasPassword() && count <= 1 {
		return ErrLastAuthMethod
	}
	delete(m.links, *target)
	return nil
}

func (m *MemoryStore) CreateSession(_ context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *session
	m.sessions[session.ID] = &c
	m.byToken[session.Token] = session.ID
	return nil
}

func (m *MemoryStore) GetSessionByToken(_ context.Context, token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byToken[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	c := *m.sessions[id]
	return &c, nil
}

func (m *MemoryStore) RotateSession(_ context.Context, id uuid.UUID, oldToken, newToken string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok || session.Token != oldToken {
		return ErrSessionNotFound
	}
	delete(m.byToken, oldToken)
	session.Token = newToken
	session.ExpiresAt = expiresAt
	session.UpdatedAt = time.Now()
	m.byToken[newToken] = id
	return nil
}

func (m *MemoryStore) DeleteSessionByToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byToken[token]; ok {
		delete(m.sessions, id)
		delete(m.byToken, token)
	}
	return nil
}

func (m *MemoryStore) DeleteSessionsByIdentity(_ context.Context, identityID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		if s.IdentityID == identityID {
			delete(m.byToken, s.Token)
			delete(m.sessions, id)
		}
	}
	return nil
}

func (m *MemoryStore) DeleteExpiredSessions(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, s := range m.sessions {
		if s.IsExpired(before) {
			delete(m.byToken, s.Token)
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// Sessions returns a copy of every stored session.
func (m *MemoryStore) Sessions() []Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	return out
}

func (m *MemoryStore) ReplaceEphemeralToken(_ context.Context, token *EphemeralToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	scope := ephemeralKey{token.Identifier, token.Purpose}
	for value, t := range m.ephemeral {
		if (ephemeralKey{t.Identifier, t.Purpose}) == scope {
			delete(m.ephemeral, value)
		}
	}
	c := *token
	m.ephemeral[token.Token] = &c
	return nil
}

func (m *MemoryStore) ConsumeEphemeralToken(_ context.Context, token string, purpose Purpose) (*EphemeralToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.ephemeral[token]
	if !ok || t.Purpose != purpose {
		return nil, ErrEphemeralTokenNotFound
	}
	delete(m.ephemeral, token)
	c := *t
	return &c, nil
}

func (m *MemoryStore) DeleteExpiredEphemeralTokens(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for value, t := range m.ephemeral {
		if t.IsExpired(before) {
			delete(m.ephemeral, value)
			n++
		}
	}
	return n, nil
}

// EphemeralTokens returns a copy of every stored ephemeral token.
func (m *MemoryStore) EphemeralTokens() []EphemeralToken {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]EphemeralToken, 0, len(m.ephemeral))
	for _, t := range m.ephemeral {
		out = append(out, *t)
	}
	return out
}

var (
	_ CredentialStore     = (*MemoryStore)(nil)
	_ SessionStore        = (*MemoryStore)(nil)
	_ EphemeralTokenStore = (*MemoryStore)(nil)
)
