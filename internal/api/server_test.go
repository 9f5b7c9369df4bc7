package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront-service/internal/entity"
	"storefront-service/internal/producer"
	"storefront-service/internal/repository/memstore"
	"storefront-service/internal/service"
)

type testServer struct {
	e     *echo.Echo
	store *memstore.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memstore.New()
	cache := memstore.NewProductCache()
	tokens := service.NewTokenIssuer("test-secret", time.Hour)

	svc := Services{
		Users:     service.NewUserService(store.Users(), memstore.NewSessionStore(), tokens, bcrypt.MinCost),
		Products:  service.NewProductService(store.Products(), cache),
		Discounts: service.NewDiscountService(store.Discounts()),
		Orders:    service.NewOrderService(store.Orders(), memstore.NewIdempotencyStore(), producer.LogPublisher{}, cache),
		Tokens:    tokens,
	}
	e := NewRouter("storefront-test", svc, RateLimit{RequestsPerSecond: 10000, Burst: 10000, ExpiresIn: time.Minute})
	return &testServer{e: e, store: store}
}

type request struct {
	method  string
	path    string
	token   string
	body    any
	headers map[string]string
}

func (s *testServer) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()
	var payload string
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		require.NoError(t, err)
		payload = string(raw)
	}

	req := httptest.NewRequest(r.method, r.path, strings.NewReader(payload))
	if r.body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if r.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+r.token)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(t *testing.T, username string) {
	t.Helper()
	rec := s.do(t, request{method: http.MethodPost, path: "/auth/register", body: map[string]string{
		"username":   username,
		"email":      username + "@example.com",
		"first_name": "Test",
		"last_name":  "User",
		"password":   "password1",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()
	form := url.Values{"username": {username}, "password": {"password1"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "bearer", body["token_type"])
	return body["access_token"]
}

// customer registers a customer and returns their token and id.
func (s *testServer) customer(t *testing.T, username string) (string, int) {
	t.Helper()
	s.register(t, username)
	u, err := s.store.Users().GetByUsername(context.Background(), username)
	require.NoError(t, err)
	return s.login(t, username), u.ID
}

func (s *testServer) admin(t *testing.T, username string) string {
	t.Helper()
	s.register(t, username)
	ctx := context.Background()
	u, err := s.store.Users().GetByUsername(ctx, username)
	require.NoError(t, err)
	u.Role = entity.RoleAdmin
	require.NoError(t, s.store.Users().Update(ctx, u))
	return s.login(t, username)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
