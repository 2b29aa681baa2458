// Package auth resolves requests to the user behind them.
//
// Handlers depend only on IdentityResolver. SessionManager implements it
// with HS256 JWT session tokens carried in a cookie or a Bearer header;
// OAuthProvider turns an external sign-in into an Identity to issue a
// session for.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/SergeiKhy/sus/internal/config"
	"github.com/SergeiKhy/sus/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrNoSession = errors.New("no valid session")
)

// IdentityResolver answers one question: who is making this request.
type IdentityResolver interface {
	Resolve(r *http.Request) (*models.Identity, error)
}

// RevocationStore remembers sessions ended before their expiry.
type RevocationStore interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// SessionClaims are the claims of a session token.
// Subject is the user id; AccountID is the external (OAuth) account id.
type SessionClaims struct {
	jwt.RegisteredClaims
	AccountID string `json:"acct,omitempty"`
}

type SessionManager struct {
	secret       []byte
	ttl          time.Duration
	cookieName   string
	cookieSecure bool
	revoked      RevocationStore
	nowFunc      func() time.Time
}

func NewSessionManager(cfg config.SessionConfig, revoked RevocationStore) *SessionManager {
	return &SessionManager{
		secret:       []byte(cfg.Secret),
		ttl:          cfg.TTL,
		cookieName:   cfg.CookieName,
		cookieSecure: cfg.CookieSecure,
		revoked:      revoked,
		nowFunc:      time.Now,
	}
}

func (m *SessionManager) CookieName() string { return m.cookieName }
func (m *SessionManager) CookieSecure() bool { return m.cookieSecure }
func (m *SessionManager) TTL() time.Duration { return m.ttl }

// Issue signs a new session token for identity.
func (m *SessionManager) Issue(identity models.Identity) (string, time.Time, error) {
	if identity.UserID == "" {
		return "", time.Time{}, errors.New("identity without user id")
	}

	now := m.nowFunc()
	expiresAt := now.Add(m.ttl)

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		AccountID: identity.ExternalAccountID,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return token, expiresAt, nil
}

// Parse validates signature, expiry and revocation of a session token.
// Every rejection of the token itself is ErrNoSession; a failing
// revocation store is returned as is.
func (m *SessionManager) Parse(ctx context.Context, tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.nowFunc),
	)

	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrNoSession
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrNoSession
	}

	if m.revoked != nil {
		revoked, err := m.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrNoSession
		}
	}

	return claims, nil
}

// Resolve implements IdentityResolver.
func (m *SessionManager) Resolve(r *http.Request) (*models.Identity, error) {
	tokenString := m.TokenFromRequest(r)
	if tokenString == "" {
		return nil, ErrNoSession
	}

	claims, err := m.Parse(r.Context(), tokenString)
	if err != nil {
		return nil, err
	}

	return &models.Identity{
		UserID:            claims.Subject,
		ExternalAccountID: claims.AccountID,
	}, nil
}

// Revoke ends the session behind tokenString for the rest of its lifetime.
// Invalid or already expired tokens need no revocation.
func (m *SessionManager) Revoke(ctx context.Context, tokenString string) error {
	claims, err := m.Parse(ctx, tokenString)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil
		}
		return err
	}
	if m.revoked == nil {
		return nil
	}

	ttl := claims.ExpiresAt.Time.Sub(m.nowFunc())
	return m.revoked.Revoke(ctx, claims.ID, ttl)
}

// TokenFromRequest reads the session cookie, falling back to an
// "Authorization: Bearer" header for API clients.
func (m *SessionManager) TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}

	return ""
}
