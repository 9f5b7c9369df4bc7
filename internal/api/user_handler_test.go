package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/entity"
)

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, request{method: http.MethodGet, path: "/health"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = s.do(t, request{method: http.MethodGet, path: "/metrics"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/products/list", "/user/me", "/orders/price/1", "/admin/list_of_users"} {
		rec := s.do(t, request{method: http.MethodGet, path: path})
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := s.do(t, request{method: http.MethodGet, path: "/user/me", token: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)
	token, id := s.customer(t, "jane")

	rec := s.do(t, request{method: http.MethodGet, path: "/user/me", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, rec)
	assert.EqualValues(t, id, me["id"])
	assert.Equal(t, "jane", me["username"])
	assert.Equal(t, "customer", me["role"])
	assert.NotContains(t, me, "hashed_password")

	rec = s.do(t, request{method: http.MethodPost, path: "/auth/register", body: map[string]string{
		"username": "jane", "email": "other@example.com", "first_name": "Jane", "last_name": "Doe", "password": "password1",
	}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, request{method: http.MethodPost, path: "/auth/register", body: map[string]string{
		"username": "jo", "email": "jo@example.com", "first_name": "Jo", "last_name": "Doe", "password": "password1",
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, request{method: http.MethodPost, path: "/auth/token", body: map[string]string{"username": "jane", "password": "wrong-one"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, request{method: http.MethodPost, path: "/auth/token", body: map[string]string{"username": "jane", "password": "password1"}})
	assert.Equal(t, http.StatusOK, rec.Code, "login also accepts JSON")
}

func TestNewLoginReplacesSession(t *testing.T) {
	s := newTestServer(t)
	first, _ := s.customer(t, "jane")
	second := s.login(t, "jane")

	rec := s.do(t, request{method: http.MethodGet, path: "/user/me", token: first})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, request{method: http.MethodGet, path: "/user/me", token: second})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, request{method: http.MethodPost, path: "/auth/logout", token: second})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, request{method: http.MethodGet, path: "/user/me", token: second})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileEndpoints(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.customer(t, "jane")

	rec := s.do(t, request{method: http.MethodPatch, path: "/user/modify_details", token: token, body: map[string]any{
		"first_name": "Janet", "age": 30,
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	user := decode[entity.User](t, rec)
	assert.Equal(t, "Janet", user.FirstName)
	require.NotNil(t, user.Age)
	assert.Equal(t, 30, *user.Age)

	rec = s.do(t, request{method: http.MethodPut, path: "/user/password_change", token: token, body: map[string]string{
		"password": "nope-nope", "new_password": "password2",
	}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, request{method: http.MethodPut, path: "/user/password_change", token: token, body: map[string]string{
		"password": "password1", "new_password": "password2",
	}})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, request{method: http.MethodPost, path: "/auth/token", body: map[string]string{"username": "jane", "password": "password2"}})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginForm(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "jane")
	token := s.login(t, "jane")
	assert.Equal(t, 3, len(strings.Split(token, ".")))
}
