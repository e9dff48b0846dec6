package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bendadvisor/internal/auth"
	"bendadvisor/internal/config"
	"bendadvisor/internal/handler"
	"bendadvisor/internal/middleware"
	"bendadvisor/internal/model"
	"bendadvisor/internal/router"
	"bendadvisor/internal/service"
)

// memStore is a minimal in-memory service.UserStore for handler tests.
type memStore struct {
	users map[string]model.User
}

func newMemStore() *memStore {
	return &memStore{users: map[string]model.User{}}
}

func (m *memStore) FindByID(_ context.Context, id string) (model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (m *memStore) FindByUsername(_ context.Context, username string) (model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Username, strings.TrimSpace(username)) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (m *memStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := m.FindByUsername(ctx, username)
	return err == nil, nil
}

func (m *memStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) Create(_ context.Context, u model.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *memStore) RecordLoginFailure(_ context.Context, userID string, attempts int, lockedUntil *time.Time) error {
	u := m.users[userID]
	u.FailedLoginAttempts = attempts
	u.LockedUntil = lockedUntil
	m.users[userID] = u
	return nil
}

func (m *memStore) RecordLoginSuccess(_ context.Context, userID string, at time.Time) error {
	u := m.users[userID]
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.LastLoginAt = &at
	m.users[userID] = u
	return nil
}

func (m *memStore) List(_ context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memStore) Count(_ context.Context) (int, error) {
	return len(m.users), nil
}

func newTestServer(t *testing.T) (*httptest.Server, *service.AuthService) {
	t.Helper()

	store := newMemStore()
	tokens := auth.NewTokenService(auth.TokenConfig{Secret: []byte("handler-test-secret"), TTL: time.Hour})
	authService := service.NewAuthService(store, tokens)

	_, err := authService.CreateUser(context.Background(), model.CreateUserRequest{
		Username: "siteadmin",
		Email:    "siteadmin@example.com",
		Password: "admin-password-1",
		Role:     "admin",
	})
	require.NoError(t, err)

	cfg := &config.Config{
		RequestTimeout:   5 * time.Second,
		RateLimitRPM:     10000,
		AuthRateLimitRPM: 10000,
		CORSOrigins:      []string{"*"},
	}

	h := router.New(cfg, middleware.NewAuthMiddleware(tokens), handler.NewAuthHandler(authService), nil, nil)
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	return server, authService
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func getWithToken(t *testing.T, url string, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) model.APIResponse {
	t.Helper()
	var env model.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func login(t *testing.T, serverURL, username, password string) model.LoginResponse {
	t.Helper()
	resp := postJSON(t, serverURL+"/api/auth/login", model.LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	require.True(t, env.Success)

	raw, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var out model.LoginResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestLoginEndpointSuccess(t *testing.T) {
	server, _ := newTestServer(t)

	out := login(t, server.URL, "siteadmin", "admin-password-1")
	require.NotEmpty(t, out.Token)
	require.Equal(t, "siteadmin", out.User.Username)
	require.Equal(t, "admin", out.User.Role)
}

func TestLoginEndpointSanitizesUser(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/auth/login", model.LoginRequest{Username: "siteadmin", Password: "admin-password-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	data := raw["data"].(map[string]any)
	user := data["user"].(map[string]any)
	require.NotContains(t, user, "password_hash")
	require.NotContains(t, user, "failed_login_attempts")
	require.NotContains(t, user, "locked_until")
}

func TestLoginEndpointValidation(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/auth/login", model.LoginRequest{Username: "ab", Password: "admin-password-1"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	require.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestLoginEndpointBadCredentials(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/auth/login", model.LoginRequest{Username: "siteadmin", Password: "wrong-password-1"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	require.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)
}

func TestMeEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	out := login(t, server.URL, "siteadmin", "admin-password-1")

	resp := getWithToken(t, server.URL+"/api/auth/me", out.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	require.True(t, env.Success)
}

func TestMeEndpointWithoutToken(t *testing.T) {
	server, _ := newTestServer(t)

	resp := getWithToken(t, server.URL+"/api/auth/me", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "NO_TOKEN", decodeEnvelope(t, resp).Error.Code)
}

func TestMeEndpointWithBadToken(t *testing.T) {
	server, _ := newTestServer(t)

	resp := getWithToken(t, server.URL+"/api/auth/me", "not.a.valid.token")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "INVALID_TOKEN", decodeEnvelope(t, resp).Error.Code)
}

func TestAdminRouteRequiresAdminRole(t *testing.T) {
	server, authService := newTestServer(t)

	_, err := authService.CreateUser(context.Background(), model.CreateUserRequest{
		Username: "reviewer1",
		Email:    "reviewer1@example.com",
		Password: "reviewer-pass-1",
		Role:     "editor",
	})
	require.NoError(t, err)

	editor := login(t, server.URL, "reviewer1", "reviewer-pass-1")

	// Editor hitting an admin-only route gets 403; the session stays valid.
	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/auth/users", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+editor.Token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "FORBIDDEN", decodeEnvelope(t, resp).Error.Code)

	meResp := getWithToken(t, server.URL+"/api/auth/me", editor.Token)
	require.Equal(t, http.StatusOK, meResp.StatusCode)
}

func TestAdminCanProvisionUser(t *testing.T) {
	server, _ := newTestServer(t)
	admin := login(t, server.URL, "siteadmin", "admin-password-1")

	body, err := json.Marshal(model.CreateUserRequest{
		Username: "neweditor",
		Email:    "neweditor@example.com",
		Password: "editor-pass-12",
		Role:     "editor",
	})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/auth/users", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+admin.Token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	listResp := getWithToken(t, server.URL+"/api/auth/users", admin.Token)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
}
