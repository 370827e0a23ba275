package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAccessToken_RoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", TokenSubject{ID: 42, Email: "kim@example.com", Name: "Kim", SnsType: "email"}, 60)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, 5*time.Second)

	claims, err := ParseAccessToken("s3cret", tok.Token)
	require.NoError(t, err)
	uid, err := claims.UserID()
	require.NoError(t, err)
	assert.EqualValues(t, 42, uid)
	assert.Equal(t, "kim@example.com", claims.Email)
	assert.Equal(t, "Bearer "+tok.Token, tok.Bearer())
}

func TestParseAccessToken_Rejects(t *testing.T) {
	tok, err := NewAccessToken("s3cret", TokenSubject{ID: 1}, 60)
	require.NoError(t, err)

	_, err = ParseAccessToken("other", tok.Token)
	assert.Error(t, err, "wrong secret")

	expired, err := NewAccessToken("s3cret", TokenSubject{ID: 1}, -1)
	require.NoError(t, err)
	_, err = ParseAccessToken("s3cret", expired.Token)
	assert.Error(t, err, "expired")

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = ParseAccessToken("s3cret", noExp)
	assert.Error(t, err, "exp is required")

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = ParseAccessToken("s3cret", hs512)
	assert.Error(t, err, "only HS256 is accepted")
}

func TestRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(14)
	require.NoError(t, err)
	b, err := NewRefreshToken(14)
	require.NoError(t, err)

	assert.Len(t, a.Raw, 96)
	assert.NotEqual(t, a.Raw, b.Raw)
	assert.Len(t, HashRefreshRaw(a.Raw), 64)
	assert.Equal(t, HashRefreshRaw(a.Raw), HashRefreshRaw(a.Raw))
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("pw1234", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, VerifyPassword(hash, "pw1234"))
	assert.False(t, VerifyPassword(hash, "pw12345"))
	assert.False(t, VerifyPassword("", ""), "empty hash never matches")

	assert.False(t, NeedsRehash(hash, bcrypt.MinCost))
	assert.True(t, NeedsRehash(hash, bcrypt.MinCost+1))
	assert.False(t, NeedsRehash("not-a-hash", bcrypt.MinCost))

	_, err = HashPassword(strings.Repeat("x", 73), bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestClampCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, clampCost(0))
	assert.Equal(t, bcrypt.MaxCost, clampCost(99))
	assert.Equal(t, 12, clampCost(12))
}
