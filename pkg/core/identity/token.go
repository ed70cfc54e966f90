package identity

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jakechorley/care-shifts/pkg/core/model"
)

// Claims are the session token claims we read. Any role claim the identity
// provider adds is ignored; the profile store is authoritative for roles.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Verifier checks session tokens signed with a shared HMAC secret
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

// NewVerifier creates a Verifier. issuer and audience are only checked when non-empty.
func NewVerifier(secret, issuer, audience string) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &Verifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}, nil
}

// ParseToken verifies raw and returns the identity it was issued for
func (v *Verifier) ParseToken(raw string) (model.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to verify session token: %w", err)
	}
	if !token.Valid {
		return model.Identity{}, fmt.Errorf("session token is not valid")
	}

	if claims.Subject == "" {
		return model.Identity{}, fmt.Errorf("session token has no subject")
	}
	if strings.TrimSpace(claims.Email) == "" {
		return model.Identity{}, fmt.Errorf("session token has no email")
	}

	return model.Identity{ID: claims.Subject, Email: claims.Email}, nil
}

// IssueToken signs a token for id, valid for ttl. Used by tests and local tooling.
func IssueToken(secret string, id model.Identity, issuer, audience string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: id.Email,
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}
