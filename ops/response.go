package ops

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error codes sent in ErrorBody.Code.
const (
	CodeNotFound         = "not_found"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeUnavailable      = "unavailable"
)

const contentTypeJSON = "application/json; charset=utf-8"

// ErrorBody is the JSON body of every ops error.
type ErrorBody struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

// WriteError sends status with an ErrorBody.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	if err := WriteJSON(w, status, ErrorBody{Code: code, Message: message}); err != nil {
		slog.Warn("encode ops error body", "status", status, "code", code, "error", err)
	}
}

// WriteJSON encodes v as the body. The status is committed before encoding starts.
// Ops responses are never cached.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	h := w.Header()
	h.Set("Content-Type", contentTypeJSON)
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
