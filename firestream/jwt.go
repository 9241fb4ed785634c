package firestream

import (
	gojwt "github.com/golang-jwt/jwt/v5"
)

// TokenAuth extracts the authenticated user id from an ID token. The token is
// parsed unverified - signature verification happened when the backend issued
// the session.
type TokenAuth struct {
	userId string
}

func NewTokenAuth(token string) (*TokenAuth, error) {
	parser := gojwt.NewParser()
	parsed, _, err := parser.ParseUnverified(token, gojwt.MapClaims{})
	if err != nil {
		return nil, err
	}

	claims := parsed.Claims.(gojwt.MapClaims)

	auth := &TokenAuth{}
	if userId, ok := claims["user_id"].(string); ok {
		auth.userId = userId
	} else if sub, ok := claims["sub"].(string); ok {
		auth.userId = sub
	}
	return auth, nil
}

func (self *TokenAuth) CurrentUserId() (string, error) {
	if self.userId == "" {
		return "", ErrNotAuthenticated
	}
	return self.userId, nil
}

// StaticAuth is a fixed-identity Auth for tests and local tools.
type StaticAuth struct {
	UserId string
}

func (self *StaticAuth) CurrentUserId() (string, error) {
	if self.UserId == "" {
		return "", ErrNotAuthenticated
	}
	return self.UserId, nil
}
