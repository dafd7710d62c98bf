// Package token verifies the bearer tokens that identify API callers.
// Firebase ID tokens are used when Firebase is enabled; otherwise the
// service issues and checks its own HS256 tokens.
package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v4"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// RoleAdmin marks moderators.
const RoleAdmin = "admin"

// IDTokenVerifier verifies Firebase ID tokens. *auth.Client implements it.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Service handles token generation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	verifier   IDTokenVerifier
	now        func() time.Time
}

// Claims are the claims carried by locally issued tokens.
type Claims struct {
	UserID string   `json:"uid"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the verified caller behind a request.
type Identity struct {
	UserID string
	Email  string
	Roles  []string
}

func (i Identity) IsAdmin() bool {
	for _, r := range i.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}

// New creates a token service. With a non-nil verifier, bearer tokens are
// checked as Firebase ID tokens; otherwise as HS256 tokens signed with
// signingKey.
func New(signingKey, issuer string, verifier IDTokenVerifier) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		verifier:   verifier,
		now:        time.Now,
	}
}

// GenerateSigningKey generates a random 256-bit signing key.
func GenerateSigningKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate signing key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateToken creates an HS256 token for userID.
func (s *Service) GenerateToken(userID, email string, roles []string, expiresIn time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

// ValidateToken validates an HS256 token and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	parser := jwt.Parser{}
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	if s.issuer != "" && !claims.VerifyIssuer(s.issuer, true) {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, claims.Issuer)
	}
	return claims, nil
}

// Verify checks a bearer token and returns the caller it identifies.
func (s *Service) Verify(ctx context.Context, raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, ErrInvalidToken
	}
	if s.verifier == nil {
		claims, err := s.ValidateToken(raw)
		if err != nil {
			return Identity{}, err
		}
		return Identity{UserID: claims.UserID, Email: claims.Email, Roles: claims.Roles}, nil
	}

	tok, err := s.verifier.VerifyIDToken(ctx, raw)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: firebase: %v", ErrInvalidToken, err)
	}
	id := Identity{UserID: tok.UID}
	if email, ok := tok.Claims["email"].(string); ok {
		id.Email = email
	}
	id.Roles = rolesFromClaims(tok.Claims)
	return id, nil
}

// rolesFromClaims reads roles from Firebase custom claims: a "roles" list,
// a single "role" string, or an "admin": true flag.
func rolesFromClaims(claims map[string]interface{}) []string {
	var roles []string
	switch v := claims["roles"].(type) {
	case []interface{}:
		for _, r := range v {
			if s, ok := r.(string); ok && s != "" {
				roles = append(roles, s)
			}
		}
	case []string:
		roles = append(roles, v...)
	}
	if r, ok := claims["role"].(string); ok && r != "" {
		roles = append(roles, r)
	}
	if admin, ok := claims["admin"].(bool); ok && admin {
		roles = append(roles, RoleAdmin)
	}
	return roles
}
