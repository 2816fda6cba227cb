package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"teahouse/internal/pkg/auth"
)

type stubResolver map[string]auth.Actor

func (s stubResolver) Resolve(_ context.Context, token string) (auth.Actor, error) {
	actor, ok := s[token]
	if !ok {
		return auth.Actor{}, ErrSessionNotFound
	}
	return actor, nil
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", TokenFromRequest(r))

	r.AddCookie(&http.Cookie{Name: CookieName, Value: "cookie-token"})
	assert.Equal(t, "cookie-token", TokenFromRequest(r))

	r.Header.Set("Authorization", "Bearer header-token")
	assert.Equal(t, "header-token", TokenFromRequest(r))
}

func TestMiddleware(t *testing.T) {
	resolver := stubResolver{"good": {UserID: "u-1", Role: auth.RoleCustomer}}

	var got auth.Actor
	var found bool
	h := Middleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = auth.FromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer good")
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.True(t, found)
	assert.Equal(t, "u-1", got.UserID)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer bad")
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.False(t, found)
}

func TestResolveEmptyToken(t *testing.T) {
	m := NewManager(nil, 0)
	_, err := m.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
