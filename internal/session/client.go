package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"bendadvisor/internal/model"
)

var (
	// ErrSessionRejected is returned when the server answers an identity
	// check with 401 or 403: the held token is no longer acceptable.
	ErrSessionRejected = errors.New("session rejected by server")

	// ErrMalformedResponse is returned when a login succeeds at the HTTP
	// level but the body is missing the token or the user.
	ErrMalformedResponse = errors.New("login response missing token or user")
)

// APIClient talks to the auth endpoints and attaches the bearer token where
// one is required.
type APIClient struct {
	baseURL string
	http    *http.Client
}

func NewAPIClient(baseURL string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &APIClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
}

type loginData struct {
	Token string            `json:"token"`
	User  *model.PublicUser `json:"user"`
}

type meData struct {
	User *model.PublicUser `json:"user"`
}

// Login posts credentials and returns the issued token with the user
// snapshot. A 2xx response missing either field is an error.
func (c *APIClient) Login(ctx context.Context, username string, password string) (string, model.PublicUser, error) {
	body, err := json.Marshal(model.LoginRequest{Username: username, Password: password})
	if err != nil {
		return "", model.PublicUser{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", model.PublicUser{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", model.PublicUser{}, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", model.PublicUser{}, fmt.Errorf("decode login response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", model.PublicUser{}, serverError(resp.StatusCode, env.Error)
	}

	var data loginData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", model.PublicUser{}, ErrMalformedResponse
	}
	if data.Token == "" || data.User == nil {
		return "", model.PublicUser{}, ErrMalformedResponse
	}

	return data.Token, *data.User, nil
}

// FetchMe runs the identity check with the given token. 401 and 403 map to
// ErrSessionRejected; any other failure is reported as-is so the caller can
// keep its credentials.
func (c *APIClient) FetchMe(ctx context.Context, token string) (model.PublicUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/auth/me", nil)
	if err != nil {
		return model.PublicUser{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return model.PublicUser{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return model.PublicUser{}, ErrSessionRejected
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return model.PublicUser{}, fmt.Errorf("decode identity response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return model.PublicUser{}, serverError(resp.StatusCode, env.Error)
	}

	var data meData
	if err := json.Unmarshal(env.Data, &data); err != nil || data.User == nil {
		return model.PublicUser{}, fmt.Errorf("identity response missing user")
	}

	return *data.User, nil
}

func serverError(status int, apiErr *model.APIError) error {
	if apiErr != nil {
		return fmt.Errorf("server returned %d: %s: %s", status, apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("server returned %d", status)
}
