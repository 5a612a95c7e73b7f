// Package service holds the token layer for the HTTP surface: admin
// sessions established by the session manager are carried across requests
// as signed JWTs with the same lifetime as the session itself.
package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MustakimRidoyMR/rewards-admin/internal/model"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// TokenService issues and validates admin session tokens.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService signing with the given secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

type sessionClaims struct {
	DisplayName string   `json:"displayName"`
	Phone       string   `json:"phone,omitempty"`
	AdminCode   string   `json:"adminCode"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Issue creates a signed token for the principal. The token expires when
// the session window does: ttl from the session's issue time, not from now.
func (s *TokenService) Issue(p *model.AdminPrincipal, ttl time.Duration) (string, error) {
	claims := sessionClaims{
		DisplayName: p.DisplayName,
		Phone:       p.Phone,
		AdminCode:   p.AdminCode,
		Permissions: p.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Email,
			IssuedAt:  jwt.NewNumericDate(p.SessionIssuedAt),
			ExpiresAt: jwt.NewNumericDate(p.SessionIssuedAt.Add(ttl)),
			Issuer:    "rewards-admin",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate verifies a token and reconstructs the principal it carries.
// Expired or tampered tokens return ErrInvalidToken.
func (s *TokenService) Validate(tokenStr string) (*model.AdminPrincipal, error) {
	claims := &sessionClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	p := &model.AdminPrincipal{
		Email:       claims.Subject,
		DisplayName: claims.DisplayName,
		Phone:       claims.Phone,
		AdminCode:   claims.AdminCode,
		Permissions: claims.Permissions,
	}
	if claims.IssuedAt != nil {
		p.SessionIssuedAt = claims.IssuedAt.Time
	}
	return p, nil
}
