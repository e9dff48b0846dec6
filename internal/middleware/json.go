package middleware

import (
	"encoding/json"
	"net/http"

	"bendadvisor/internal/model"
)

// writeFailure sends the failure envelope every middleware rejection uses,
// so middleware and handler responses stay shape-identical.
func writeFailure(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    code,
			Message: message,
		},
	})
}
