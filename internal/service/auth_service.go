package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"bendadvisor/internal/auth"
	"bendadvisor/internal/metrics"
	"bendadvisor/internal/model"
	"bendadvisor/pkg/apierror"
)

// UserStore is the persistence surface the auth service needs. The pgx
// repository implements it in production; tests use an in-memory fake.
type UserStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u model.User) error
	RecordLoginFailure(ctx context.Context, userID string, attempts int, lockedUntil *time.Time) error
	RecordLoginSuccess(ctx context.Context, userID string, at time.Time) error
	List(ctx context.Context) ([]model.User, error)
	Count(ctx context.Context) (int, error)
}

type AuthService struct {
	store  UserStore
	tokens *auth.TokenService
	now    func() time.Time
}

func NewAuthService(store UserStore, tokens *auth.TokenService) *AuthService {
	return &AuthService{store: store, tokens: tokens, now: time.Now}
}

// invalidCredentials is deliberately identical for unknown usernames and
// wrong passwords so responses cannot be used for account enumeration.
func invalidCredentials() *apierror.APIError {
	return apierror.New("INVALID_CREDENTIALS", "invalid username or password", "", http.StatusUnauthorized)
}

func lockedError(remaining time.Duration) *apierror.APIError {
	minutes := int(remaining.Minutes())
	if remaining > time.Duration(minutes)*time.Minute {
		minutes++
	}
	return apierror.New("ACCOUNT_LOCKED",
		fmt.Sprintf("account is locked, try again in %d minutes", minutes),
		"", http.StatusUnauthorized)
}

// Login runs the full attempt pipeline: input validation, lockout gate,
// credential check, failure bookkeeping, then token issuance. The returned
// user is always the sanitized view.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error) {
	if verr := auth.ValidateLoginRequest(req); verr != nil {
		metrics.RecordLogin(metrics.ResultValidationError)
		return model.LoginResponse{}, verr
	}

	user, err := s.store.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			metrics.RecordLogin(metrics.ResultInvalidCredentials)
			return model.LoginResponse{}, invalidCredentials()
		}
		return model.LoginResponse{}, err
	}

	if !user.IsActive {
		metrics.RecordLogin(metrics.ResultInvalidCredentials)
		return model.LoginResponse{}, invalidCredentials()
	}

	now := s.now().UTC()
	if auth.IsLocked(user.LockedUntil, now) {
		metrics.RecordLogin(metrics.ResultLocked)
		return model.LoginResponse{}, lockedError(auth.RemainingLockout(user.LockedUntil, now))
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		attempts := user.FailedLoginAttempts + 1
		var lockedUntil *time.Time
		if auth.ShouldLock(attempts) {
			expiry := auth.LockoutExpiry(now)
			lockedUntil = &expiry
			metrics.LockoutsTriggered.Inc()
			slog.Warn("account locked after repeated failures", "username", user.Username, "until", expiry)
		}
		if err := s.store.RecordLoginFailure(ctx, user.ID, attempts, lockedUntil); err != nil {
			slog.Error("failed to record login failure", "user_id", user.ID, "error", err)
		}
		metrics.RecordLogin(metrics.ResultInvalidCredentials)
		return model.LoginResponse{}, invalidCredentials()
	}

	if err := s.store.RecordLoginSuccess(ctx, user.ID, now); err != nil {
		return model.LoginResponse{}, fmt.Errorf("record login success: %w", err)
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now

	token, err := s.tokens.Issue(user)
	if err != nil {
		return model.LoginResponse{}, fmt.Errorf("issue token: %w", err)
	}

	metrics.RecordLogin(metrics.ResultSuccess)
	slog.Info("login succeeded", "username", user.Username)
	return model.LoginResponse{Token: token, User: user.Public()}, nil
}

// Me returns the sanitized account for the id carried in verified claims.
func (s *AuthService) Me(ctx context.Context, userID string) (model.PublicUser, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.PublicUser{}, apierror.New("NOT_FOUND", "user not found", userID, http.StatusNotFound)
		}
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

// CreateUser provisions a new account. Reachable only through the admin-only
// route.
func (s *AuthService) CreateUser(ctx context.Context, req model.CreateUserRequest) (model.PublicUser, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = "admin"
	}

	if verr := auth.ValidateLoginRequest(model.LoginRequest{Username: req.Username, Password: req.Password}); verr != nil {
		return model.PublicUser{}, verr
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return model.PublicUser{}, apierror.New("VALIDATION_ERROR", "a valid email is required", "email", http.StatusBadRequest)
	}
	if role != "admin" && role != "editor" {
		return model.PublicUser{}, apierror.New("VALIDATION_ERROR", "invalid role", role, http.StatusBadRequest)
	}

	if exists, err := s.store.ExistsByUsername(ctx, req.Username); err != nil {
		return model.PublicUser{}, err
	} else if exists {
		return model.PublicUser{}, apierror.New("ALREADY_EXISTS", "username already exists", req.Username, http.StatusConflict)
	}
	if exists, err := s.store.ExistsByEmail(ctx, req.Email); err != nil {
		return model.PublicUser{}, err
	} else if exists {
		return model.PublicUser{}, apierror.New("ALREADY_EXISTS", "email already exists", req.Email, http.StatusConflict)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return model.PublicUser{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Create(ctx, user); err != nil {
		return model.PublicUser{}, err
	}

	slog.Info("user provisioned", "username", user.Username, "role", user.Role)
	return user.Public(), nil
}

// ListUsers returns sanitized views of every account (admin-only route).
func (s *AuthService) ListUsers(ctx context.Context) ([]model.PublicUser, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

// EnsureBootstrapAdmin creates the first admin account when the store is
// empty and bootstrap credentials were configured. Nothing is seeded
// otherwise; there is no built-in default password.
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, username, email, password string) error {
	if username == "" || password == "" {
		return nil
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	if email == "" {
		email = username + "@localhost"
	}

	_, err = s.CreateUser(ctx, model.CreateUserRequest{
		Username: username,
		Email:    email,
		Password: password,
		Role:     "admin",
	})
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	slog.Info("bootstrap admin created", "username", username)
	return nil
}
