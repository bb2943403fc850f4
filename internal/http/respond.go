package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeJSON writes JSON response with status code. The payload is encoded
// before any header is sent so an unencodable value becomes a 500.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("encode response", "status", status, "error", err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"Internal server error"}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Default().Debug("write response", "error", err)
	}
}

// writeError sends an error message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeMessage sends a success message.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
