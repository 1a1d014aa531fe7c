package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type levelLogger struct {
	nopLogger
	levels []string
}

func (l *levelLogger) Error(string, ...interface{}) { l.levels = append(l.levels, "error") }
func (l *levelLogger) Warn(string, ...interface{})  { l.levels = append(l.levels, "warn") }
func (l *levelLogger) Info(string, ...interface{})  { l.levels = append(l.levels, "info") }

func TestLogClientEvent(t *testing.T) {
	logger := &levelLogger{}
	h := NewClientLogHandler(logger)

	tests := []struct {
		body string
		want int
	}{
		{`{"level":"error","message":"boom","context":{"line":3}}`, http.StatusNoContent},
		{`{"level":"WARNING","message":"slow"}`, http.StatusNoContent},
		{`{"message":"hi"}`, http.StatusNoContent},
		{`{"level":"info"}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
		{`{"message":"` + strings.Repeat("x", maxClientLogBytes) + `"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		h.LogClientEvent(rr, httptest.NewRequest(http.MethodPost, "/api/log", strings.NewReader(tt.body)))
		assert.Equal(t, tt.want, rr.Code, tt.body)
	}
	assert.Equal(t, []string{"error", "warn", "info"}, logger.levels)
}
