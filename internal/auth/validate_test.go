package auth

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"bendadvisor/internal/model"
)

func TestValidateLoginRequest(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
	}{
		{"valid", "admin", "password123", false},
		{"missing username", "", "password123", true},
		{"missing password", "admin", "", true},
		{"username too short", "ab", "password123", true},
		{"username at min", "abc", "password123", false},
		{"username too long", strings.Repeat("a", 51), "password123", true},
		{"username at max", strings.Repeat("a", 50), "password123", false},
		{"password too short", "admin", "short12", true},
		{"password at min", "admin", "12345678", false},
		{"password too long", "admin", strings.Repeat("p", 101), true},
		{"password at max", "admin", strings.Repeat("p", 100), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLoginRequest(model.LoginRequest{Username: tt.username, Password: tt.password})
			if tt.wantErr {
				require.NotNil(t, err)
				require.Equal(t, "VALIDATION_ERROR", err.Code)
				require.Equal(t, http.StatusBadRequest, err.HTTPStatus)
			} else {
				require.Nil(t, err)
			}
		})
	}
}
