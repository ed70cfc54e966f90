package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/care-shifts/pkg/core/model"
)

const secret = "0123456789abcdef0123"

func sign(t *testing.T, key string, method jwt.SigningMethod, claims jwt.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func TestParseToken_RoundTrip(t *testing.T) {
	v, err := NewVerifier(secret, "https://auth.example.com", "care-shifts")
	require.NoError(t, err)

	token, err := IssueToken(secret, model.Identity{ID: "user-1", Email: "ada@example.com"}, "https://auth.example.com", "care-shifts", time.Hour)
	require.NoError(t, err)

	id, err := v.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.ID)
	assert.Equal(t, "ada@example.com", id.Email)
}

func TestNewVerifier_RequiresSecret(t *testing.T) {
	_, err := NewVerifier("", "", "")
	assert.Error(t, err)
}

func TestParseToken_Rejects(t *testing.T) {
	v, err := NewVerifier(secret, "https://auth.example.com", "")
	require.NoError(t, err)

	valid := func() Claims {
		return Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "https://auth.example.com",
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Email: "ada@example.com",
		}
	}

	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noExpiry := valid()
	noExpiry.ExpiresAt = nil

	wrongIssuer := valid()
	wrongIssuer.Issuer = "https://evil.example.com"

	noSubject := valid()
	noSubject.Subject = ""

	noEmail := valid()
	noEmail.Email = " "

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", sign(t, "another-secret-entirely", jwt.SigningMethodHS256, valid())},
		{"wrong algorithm", sign(t, secret, jwt.SigningMethodHS512, valid())},
		{"expired", sign(t, secret, jwt.SigningMethodHS256, expired)},
		{"no expiry", sign(t, secret, jwt.SigningMethodHS256, noExpiry)},
		{"wrong issuer", sign(t, secret, jwt.SigningMethodHS256, wrongIssuer)},
		{"no subject", sign(t, secret, jwt.SigningMethodHS256, noSubject)},
		{"no email", sign(t, secret, jwt.SigningMethodHS256, noEmail)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.ParseToken(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestParseToken_IgnoresRoleClaim(t *testing.T) {
	v, err := NewVerifier(secret, "", "")
	require.NoError(t, err)

	token := sign(t, secret, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-1",
		"email": "ada@example.com",
		"role":  "admin",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	id, err := v.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, model.Identity{ID: "user-1", Email: "ada@example.com"}, id)
}

func TestParseToken_UsesVerifierClock(t *testing.T) {
	v, err := NewVerifier(secret, "", "")
	require.NoError(t, err)

	token, err := IssueToken(secret, model.Identity{ID: "user-1", Email: "ada@example.com"}, "", "", time.Hour)
	require.NoError(t, err)

	v.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = v.ParseToken(token)
	assert.Error(t, err)
}
