package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestValidateToken(t *testing.T) {
	v := NewVerifier("s3cret", "idp.college.edu")
	valid := Claims{
		Email: "registrar@college.edu",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "idp.college.edu",
			Subject:   "staff-7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	claims, err := v.ValidateToken(sign(t, "s3cret", valid))
	require.NoError(t, err)
	assert.Equal(t, "registrar@college.edu", claims.Actor())

	_, err = v.ValidateToken(sign(t, "other", valid))
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := valid
	wrongIssuer.Issuer = "elsewhere"
	_, err = v.ValidateToken(sign(t, "s3cret", wrongIssuer))
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	_, err = v.ValidateToken(sign(t, "s3cret", expired))
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestClaimsActorFallsBackToSubject(t *testing.T) {
	c := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "staff-7"}}
	assert.Equal(t, "staff-7", c.Actor())
}

func TestExtractBearerToken(t *testing.T) {
	token, err := ExtractBearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	token, err = ExtractBearerToken("bearer  abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	for _, h := range []string{"", "Bearer", "Basic abc", "Bearer   "} {
		_, err := ExtractBearerToken(h)
		assert.ErrorIs(t, err, ErrInvalidFormat, h)
	}
}
