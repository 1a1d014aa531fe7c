// File: internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/iyunix/go-docchat/internal/domain"
	"github.com/iyunix/go-docchat/internal/services/session"
)

const storageUnavailable = "The conversation store is unavailable. Check DB_PATH and free disk space, then retry."

// writeJSON is a helper for sending JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError is a helper for sending JSON error responses.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

type errorResponse struct {
	Error   string           `json:"error"`
	Warning string           `json:"warning,omitempty"`
	Effects *session.Effects `json:"effects,omitempty"`
}

// statusFor maps typed domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrPrecondition), errors.Is(err, domain.ErrReferentialIntegrity):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrStorage):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeSessionError reports a failed session operation. Storage details stay
// in the log; the client gets an actionable message. Effects that were
// already produced (a persisted question, a cleared view) are included so
// the caller can keep its display in sync.
func (h *ConversationHandler) writeSessionError(w http.ResponseWriter, r *http.Request, op string, err error, effects session.Effects) {
	status := statusFor(err)
	resp := errorResponse{Warning: effects.Warning}

	var derr *domain.Error
	switch {
	case status == http.StatusServiceUnavailable:
		resp.Error = storageUnavailable
	case status == http.StatusInternalServerError:
		resp.Error = "Internal server error"
	case errors.As(err, &derr):
		resp.Error = derr.Message
	default:
		resp.Error = err.Error()
	}
	if effects.Clear || len(effects.Append) > 0 || effects.RefreshList {
		resp.Effects = &effects
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("[ConversationHandler] operation failed", "op", op, "status", status, "path", r.URL.Path, "error", err)
	} else {
		h.logger.Debug("[ConversationHandler] operation rejected", "op", op, "status", status, "error", err)
	}
	writeJSON(w, status, resp)
}

func parseID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil || id == 0 {
		return 0, domain.NewInvalidArgumentError("parse_id", "invalid conversation ID")
	}
	return uint(id), nil
}
