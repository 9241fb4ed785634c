package firestream

import (
	"testing"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/go-playground/assert/v2"
)

func signedToken(t *testing.T, claims gojwt.MapClaims) string {
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	assert.Equal(t, nil, err)
	return signed
}

func TestTokenAuthUserId(t *testing.T) {
	auth, err := NewTokenAuth(signedToken(t, gojwt.MapClaims{
		"user_id": "alice",
		"sub":     "ignored",
	}))
	assert.Equal(t, nil, err)

	userId, err := auth.CurrentUserId()
	assert.Equal(t, nil, err)
	assert.Equal(t, "alice", userId)
}

func TestTokenAuthSubFallback(t *testing.T) {
	auth, err := NewTokenAuth(signedToken(t, gojwt.MapClaims{
		"sub": "bob",
	}))
	assert.Equal(t, nil, err)

	userId, err := auth.CurrentUserId()
	assert.Equal(t, nil, err)
	assert.Equal(t, "bob", userId)
}

func TestTokenAuthNoIdentity(t *testing.T) {
	auth, err := NewTokenAuth(signedToken(t, gojwt.MapClaims{
		"aud": "firestream",
	}))
	assert.Equal(t, nil, err)

	_, err = auth.CurrentUserId()
	assert.Equal(t, ErrNotAuthenticated, err)
}

func TestTokenAuthMalformed(t *testing.T) {
	_, err := NewTokenAuth("not a token")
	assert.NotEqual(t, nil, err)
}

func TestStaticAuth(t *testing.T) {
	auth := &StaticAuth{UserId: "alice"}
	userId, err := auth.CurrentUserId()
	assert.Equal(t, nil, err)
	assert.Equal(t, "alice", userId)

	empty := &StaticAuth{}
	_, err = empty.CurrentUserId()
	assert.Equal(t, ErrNotAuthenticated, err)
}
