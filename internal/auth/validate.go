package auth

import (
	"net/http"

	"bendadvisor/internal/model"
	"bendadvisor/pkg/apierror"
)

const (
	UsernameMinLen = 3
	UsernameMaxLen = 50
	PasswordMinLen = 8
	PasswordMaxLen = 100
)

// ValidateLoginRequest is the input-shape guard that runs before any store
// lookup or bcrypt work. It returns nil when the request is well formed and
// never mutates it.
func ValidateLoginRequest(req model.LoginRequest) *apierror.APIError {
	if req.Username == "" {
		return apierror.New("VALIDATION_ERROR", "username is required", "username", http.StatusBadRequest)
	}
	if req.Password == "" {
		return apierror.New("VALIDATION_ERROR", "password is required", "password", http.StatusBadRequest)
	}
	if len(req.Username) < UsernameMinLen || len(req.Username) > UsernameMaxLen {
		return apierror.New("VALIDATION_ERROR", "username must be between 3 and 50 characters", "username", http.StatusBadRequest)
	}
	if len(req.Password) < PasswordMinLen || len(req.Password) > PasswordMaxLen {
		return apierror.New("VALIDATION_ERROR", "password must be between 8 and 100 characters", "password", http.StatusBadRequest)
	}
	return nil
}
