package application

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "reservas"

// TokenClaims is what a verified access token asserts.
type TokenClaims struct {
	UserID       string
	SessionToken string
	ExpiresAt    time.Time
}

type sessionClaims struct {
	SessionToken string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenSigner issues and verifies HS256 access tokens that point at a
// stored session.
type TokenSigner struct {
	secret []byte
	now    func() time.Time
}

// NewTokenSigner builds a signer for secret. now defaults to time.Now.
func NewTokenSigner(secret string, now func() time.Time) (*TokenSigner, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	if now == nil {
		now = time.Now
	}
	return &TokenSigner{secret: []byte(secret), now: now}, nil
}

// Sign returns a token whose subject is the session's user, whose sid claim is
// the session token and which expires with the session.
func (s *TokenSigner) Sign(session Session) (string, error) {
	claims := sessionClaims{
		SessionToken: session.Token,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   session.UserID,
			ID:        session.ID,
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature, issuer and expiry. Expired tokens yield
// ErrSessionExpired; anything else unverifiable yields ErrUnauthorized.
func (s *TokenSigner) Parse(token string) (TokenClaims, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenClaims{}, ErrSessionExpired
		}
		return TokenClaims{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.Subject == "" || claims.SessionToken == "" {
		return TokenClaims{}, fmt.Errorf("%w: incomplete token claims", ErrUnauthorized)
	}

	out := TokenClaims{UserID: claims.Subject, SessionToken: claims.SessionToken}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
