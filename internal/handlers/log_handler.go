package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"
)

const maxClientLogBytes = 16 << 10

// ClientLogPayload defines the structure for logs coming from a front end.
type ClientLogPayload struct {
	Level   string `json:"level"`             // e.g., "info", "error", "warn"
	Message string `json:"message"`           // The main log message
	Context any    `json:"context,omitempty"` // Optional extra data (e.g., stack trace)
}

// ClientLogHandler forwards front-end log events into the server log.
type ClientLogHandler struct {
	logger Logger
}

func NewClientLogHandler(logger Logger) *ClientLogHandler {
	return &ClientLogHandler{logger: logger}
}

// LogClientEvent accepts one event and answers 204.
func (h *ClientLogHandler) LogClientEvent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxClientLogBytes)
	var payload ClientLogPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.Message) == "" || !utf8.ValidString(payload.Message) {
		writeError(w, "message is required", http.StatusBadRequest)
		return
	}

	kv := []interface{}{"client_level", payload.Level, "message", payload.Message, "context", payload.Context}
	switch strings.ToLower(payload.Level) {
	case "error":
		h.logger.Error("[CLIENT_LOG]", kv...)
	case "warn", "warning":
		h.logger.Warn("[CLIENT_LOG]", kv...)
	case "debug":
		h.logger.Debug("[CLIENT_LOG]", kv...)
	default:
		h.logger.Info("[CLIENT_LOG]", kv...)
	}

	w.WriteHeader(http.StatusNoContent)
}
