package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/comandaviva/pdv/pkg/apperr"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// writeError maps an error to the {"error": message} envelope. Errors
// outside the apperr taxonomy become generic 500s and are logged with
// their internals, which never reach the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.StatusOf(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	writeJSON(w, status, errorResponse{Error: apperr.MessageOf(err)})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, apperr.Validation("invalid request body"))

		return false
	}

	return true
}
