package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"bendadvisor/internal/model"
	"bendadvisor/pkg/apierror"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *model.APIError {
	t.Helper()
	var resp model.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestWriteErrorUsesAPIErrorStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, apierror.New("ACCOUNT_LOCKED", "account is locked, try again in 5 minutes", "", http.StatusUnauthorized))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeError(t, rec)
	require.Equal(t, "ACCOUNT_LOCKED", body.Code)
	require.Equal(t, "account is locked, try again in 5 minutes", body.Message)
}

func TestWriteErrorMapsWrappedUserNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, fmt.Errorf("find user %q: %w", "ghost", model.ErrUserNotFound))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
}

func TestWriteErrorFallsBackToInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("pool exhausted"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "INTERNAL_ERROR", decodeError(t, rec).Code)
}
