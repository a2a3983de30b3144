package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/biosecret/todo-auth/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

// Manager creates, resolves and destroys sessions. The token handed to
// the client is an HS256 JWT whose jti is the session id; the user id
// only lives server-side.
type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	clock  clockwork.Clock
}

func NewManager(store Store, secret []byte, ttl time.Duration, clock clockwork.Clock) *Manager {
	return &Manager{
		store:  store,
		secret: secret,
		ttl:    ttl,
		clock:  clock,
	}
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create starts a new session for userID and returns its signed token.
func (m *Manager) Create(ctx context.Context, userID int64) (string, Session, error) {
	id, err := utils.GenerateSessionID()
	if err != nil {
		return "", Session{}, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := m.clock.Now()
	s := Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Save(ctx, s); err != nil {
		return "", Session{}, err
	}

	token, err := m.sign(s)
	if err != nil {
		_ = m.store.Delete(ctx, s.ID)
		return "", Session{}, err
	}
	return token, s, nil
}

// Resolve returns the live session behind token, or ErrNoSession.
// Store failures other than a missing session are returned as-is.
func (m *Manager) Resolve(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrNoSession
	}

	id, err := m.parse(token, true)
	if err != nil {
		return Session{}, ErrNoSession
	}

	s, err := m.store.Load(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, err
	}
	if s.Expired(m.clock.Now()) {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Destroy deletes the session behind token. Empty, forged and unknown
// tokens are ignored; expired but authentic tokens are still deleted.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	id, err := m.parse(token, false)
	if err != nil {
		return nil
	}
	return m.store.Delete(ctx, id)
}

func (m *Manager) sign(s Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        s.ID,
		IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}

func (m *Manager) parse(token string, validateClaims bool) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.clock.Now),
	}
	if !validateClaims {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return "", err
	}
	if claims.ID == "" {
		return "", errors.New("session token has no id")
	}
	return claims.ID, nil
}
