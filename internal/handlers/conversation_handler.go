// File: internal/handlers/conversation_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/iyunix/go-docchat/internal/format"
	"github.com/iyunix/go-docchat/internal/services/export"
	"github.com/iyunix/go-docchat/internal/services/session"
)

const DefaultMaxUploadBytes = 32 << 20

// Logger defines the logging interface used by the handlers
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// ConversationHandler exposes the session over JSON.
type ConversationHandler struct {
	session        *session.Session
	uploadDir      string
	docsDir        string
	maxUploadBytes int64
	supported      func(path string) bool
	logger         Logger
}

type HandlerOption func(*ConversationHandler)

// WithSupportedCheck rejects uploads whose name fails supported.
func WithSupportedCheck(supported func(path string) bool) HandlerOption {
	return func(h *ConversationHandler) { h.supported = supported }
}

// WithDocsDir enables loading by path for files under dir. Without it
// only uploads are accepted.
func WithDocsDir(dir string) HandlerOption {
	return func(h *ConversationHandler) { h.docsDir = dir }
}

func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *ConversationHandler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

func NewConversationHandler(s *session.Session, uploadDir string, logger Logger, opts ...HandlerOption) *ConversationHandler {
	h := &ConversationHandler{
		session:        s,
		uploadDir:      uploadDir,
		maxUploadBytes: DefaultMaxUploadBytes,
		supported:      func(string) bool { return true },
		logger:         logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ListConversations returns summaries, most recent first.
func (h *ConversationHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	list, err := h.session.Conversations(r.Context())
	if err != nil {
		h.writeSessionError(w, r, "list", err, session.Effects{})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// LoadDocument accepts either a multipart upload in field "file" or a JSON
// body {"path": "..."} naming a file under the document directory.
func (h *ConversationHandler) LoadDocument(w http.ResponseWriter, r *http.Request) {
	var path string
	uploaded := false
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		saved, status, err := h.saveUpload(w, r)
		if err != nil {
			writeError(w, err.Error(), status)
			return
		}
		path = saved
		uploaded = true
	case "application/json":
		var req struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		raw := strings.TrimSpace(req.Path)
		if raw == "" {
			writeError(w, "path is required", http.StatusBadRequest)
			return
		}
		if !h.supported(raw) {
			writeError(w, "Unsupported file type", http.StatusBadRequest)
			return
		}
		resolved, status, err := h.docPath(raw)
		if err != nil {
			h.logger.Warn("[ConversationHandler] path load refused", "path", raw, "status", status)
			writeError(w, err.Error(), status)
			return
		}
		path = resolved
	default:
		writeError(w, "Unsupported Content-Type", http.StatusUnsupportedMediaType)
		return
	}

	effects, err := h.session.LoadDocument(r.Context(), path)
	if err != nil {
		if uploaded {
			h.removeUpload(path)
		}
		h.writeSessionError(w, r, "load", err, effects)
		return
	}
	h.logger.Info("[ConversationHandler] document loaded", "path", path, "conversation_id", h.session.State().ActiveID)
	writeJSON(w, http.StatusCreated, effects)
}

// docPath resolves raw against the document directory, following
// symlinks, and refuses anything that lands outside it.
func (h *ConversationHandler) docPath(raw string) (string, int, error) {
	if h.docsDir == "" {
		return "", http.StatusForbidden, errors.New("Loading by path is disabled; upload the file instead")
	}
	root, err := filepath.EvalSymlinks(h.docsDir)
	if err == nil {
		root, err = filepath.Abs(root)
	}
	if err != nil {
		h.logger.Error("[ConversationHandler] document dir unavailable", "dir", h.docsDir, "error", err)
		return "", http.StatusInternalServerError, errors.New("Document directory unavailable")
	}

	candidate := raw
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(root, candidate)
	}
	resolved, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", http.StatusNotFound, errors.New("Document not found")
		}
		return "", http.StatusBadRequest, errors.New("Invalid path")
	}
	if !within(root, resolved) {
		return "", http.StatusForbidden, errors.New("Path is outside the document directory")
	}
	return resolved, http.StatusOK, nil
}

// within reports whether path is root or lies below it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// removeUpload deletes a stored upload. Paths outside uploadDir belong to
// the user and are never touched.
func (h *ConversationHandler) removeUpload(path string) {
	if path == "" {
		return
	}
	root, err := filepath.Abs(h.uploadDir)
	if err != nil {
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil || !within(root, abs) || abs == root {
		return
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		h.logger.Warn("[ConversationHandler] cannot remove upload", "path", abs, "error", err)
	}
}

// saveUpload stores the multipart file under uploadDir with a unique name
// that keeps the original extension, and returns its path.
func (h *ConversationHandler) saveUpload(w http.ResponseWriter, r *http.Request) (string, int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", http.StatusRequestEntityTooLarge, errors.New("Upload too large")
		}
		return "", http.StatusBadRequest, errors.New("Invalid multipart form")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", http.StatusBadRequest, errors.New("file is required")
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !h.supported(name) {
		return "", http.StatusBadRequest, errors.New("Unsupported file type")
	}
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.logger.Error("[ConversationHandler] cannot create upload dir", "dir", h.uploadDir, "error", err)
		return "", http.StatusInternalServerError, errors.New("Could not store upload")
	}

	dest := filepath.Join(h.uploadDir, uuid.NewString()+"-"+name)
	out, err := os.Create(dest)
	if err != nil {
		h.logger.Error("[ConversationHandler] cannot create upload file", "path", dest, "error", err)
		return "", http.StatusInternalServerError, errors.New("Could not store upload")
	}
	defer out.Close()
	if _, err := io.Copy(out, file); err != nil {
		h.logger.Error("[ConversationHandler] cannot write upload file", "path", dest, "error", err)
		_ = os.Remove(dest)
		return "", http.StatusInternalServerError, errors.New("Could not store upload")
	}
	return dest, http.StatusOK, nil
}

func (h *ConversationHandler) NewConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	// An empty body means an untitled conversation.
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	effects, err := h.session.NewConversation(r.Context(), req.Title)
	if err != nil {
		h.writeSessionError(w, r, "new", err, effects)
		return
	}
	writeJSON(w, http.StatusCreated, effects)
}

// SelectConversation makes the conversation active and returns its history.
func (h *ConversationHandler) SelectConversation(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, "Invalid conversation ID", http.StatusBadRequest)
		return
	}
	effects, err := h.session.Select(r.Context(), id)
	if err != nil {
		h.writeSessionError(w, r, "select", err, effects)
		return
	}
	writeJSON(w, http.StatusOK, effects)
}

// DeleteConversation is idempotent: an unknown id returns 200 with no effects.
// A stored upload behind the conversation is removed with it.
func (h *ConversationHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, "Invalid conversation ID", http.StatusBadRequest)
		return
	}
	var source string
	if conv, err := h.session.Conversation(r.Context(), id); err == nil {
		source = conv.SourceRef()
	}
	effects, err := h.session.Delete(r.Context(), id)
	if err != nil {
		h.writeSessionError(w, r, "delete", err, effects)
		return
	}
	if effects.RefreshList {
		h.removeUpload(source)
	}
	writeJSON(w, http.StatusOK, effects)
}

func (h *ConversationHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	effects, err := h.session.Ask(r.Context(), req.Question)
	if err != nil {
		h.writeSessionError(w, r, "ask", err, effects)
		return
	}
	writeJSON(w, http.StatusOK, effects)
}

// ExportConversation downloads a transcript; format is md (default) or html.
func (h *ConversationHandler) ExportConversation(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, "Invalid conversation ID", http.StatusBadRequest)
		return
	}
	kind, err := export.Normalize(r.URL.Query().Get("format"))
	if err != nil {
		h.writeSessionError(w, r, "export", err, session.Effects{})
		return
	}

	conv, messages, err := h.session.Transcript(r.Context(), id)
	if err != nil {
		h.writeSessionError(w, r, "export", err, session.Effects{})
		return
	}
	doc, contentType, err := export.Render(kind, conv, messages)
	if err != nil {
		h.writeSessionError(w, r, "export", err, session.Effects{})
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="conversation-%d.%s"`, id, kind))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, doc)
}

// Copy decodes a copy action href back into the exact code it carries.
// Anything that is not a copy action is rejected, never followed.
func (h *ConversationHandler) Copy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Href string `json:"href"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !format.IsCopyAction(req.Href) {
		writeError(w, "Not a copy action", http.StatusBadRequest)
		return
	}
	code, err := format.DecodeCopyAction(req.Href)
	if err != nil {
		writeError(w, "Malformed copy action", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": code})
}

type stateResponse struct {
	ActiveID  uint `json:"active_id"`
	HasActive bool `json:"has_active"`
}

func (h *ConversationHandler) GetState(w http.ResponseWriter, r *http.Request) {
	st := h.session.State()
	writeJSON(w, http.StatusOK, stateResponse{ActiveID: st.ActiveID, HasActive: st.HasActive()})
}
