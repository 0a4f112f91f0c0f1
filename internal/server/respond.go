package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// respondJSON writes a JSON response. HTML is not escaped so fragments
// reach the caller as written.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}
