// Package auth implements the console's single-operator login: HS256 session
// tokens carried in a cookie and tracked in a server-side registry so logout
// revokes them.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the cookie carrying the session token.
const CookieName = "session_token"

// DefaultTTL is the session lifetime.
const DefaultTTL = 24 * time.Hour

var (
	// ErrInvalidCredentials is returned by Login for a wrong username or password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidSession is returned for unknown, revoked or expired tokens.
	ErrInvalidSession = errors.New("invalid or expired session")
)

// Config holds the operator credentials and the signing secret.
type Config struct {
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	Secret   string        `koanf:"secret"`
	TTL      time.Duration `koanf:"ttl"`
	// SecureCookie sets the Secure attribute on the session cookie.
	SecureCookie bool `koanf:"secure_cookie"`
}

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type session struct {
	username string
	expires  time.Time
}

// Manager issues and validates sessions.
type Manager struct {
	cfg    Config
	secret []byte
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]session
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("auth username and password are required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &Manager{
		cfg:      cfg,
		secret:   []byte(cfg.Secret),
		now:      time.Now,
		sessions: make(map[string]session),
	}, nil
}

// Login checks the credentials and opens a session.
func (m *Manager) Login(username, password string) (string, time.Time, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(m.cfg.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(m.cfg.Password)) == 1
	if !userOK || !passOK {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := m.now()
	expires := now.Add(m.cfg.TTL)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := tok.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked(now)
	m.sessions[signed] = session{username: username, expires: expires}
	return signed, expires, nil
}

// Validate returns the username behind a live session token.
func (m *Manager) Validate(token string) (string, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			delete(m.sessions, token)
		}
		return "", ErrInvalidSession
	}
	s, ok := m.sessions[token]
	if !ok {
		return "", ErrInvalidSession
	}
	return s.username, nil
}

// Logout revokes token. Unknown tokens are ignored.
func (m *Manager) Logout(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

// Active reports the number of live sessions.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked(m.now())
	return len(m.sessions)
}

func (m *Manager) pruneLocked(now time.Time) {
	for tok, s := range m.sessions {
		if !now.Before(s.expires) {
			delete(m.sessions, tok)
		}
	}
}
