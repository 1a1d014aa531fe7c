// Package ingest extracts plain text from documents. Extraction is best
// effort: any failure is logged and yields an empty string.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/iyunix/go-docchat/internal/metrics"
)

// DefaultMaxBytes caps the extracted text kept per document.
const DefaultMaxBytes = 8 << 20

// Extractor returns the text of the document at path, or "" when the
// document cannot be read.
type Extractor interface {
	ExtractText(ctx context.Context, path string) string
}

// Logger defines the logging interface used by the extractor
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

type extractFunc func(path string) (string, error)

// FileExtractor dispatches on the file extension.
type FileExtractor struct {
	maxBytes int
	logger   Logger
	byExt    map[string]extractFunc
}

type Option func(*FileExtractor)

func WithLogger(logger Logger) Option {
	return func(e *FileExtractor) { e.logger = logger }
}

// WithMaxBytes sets the text ceiling; values <= 0 keep the default.
func WithMaxBytes(n int) Option {
	return func(e *FileExtractor) {
		if n > 0 {
			e.maxBytes = n
		}
	}
}

func NewFileExtractor(opts ...Option) *FileExtractor {
	e := &FileExtractor{
		maxBytes: DefaultMaxBytes,
		logger:   noopLogger{},
		byExt: map[string]extractFunc{
			".pdf":  extractPDF,
			".docx": extractDOCX,
			".txt":  extractPlain,
			".md":   extractMarkdown,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Supported reports whether path has an extension the extractor handles.
func (e *FileExtractor) Supported(path string) bool {
	_, ok := e.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

func (e *FileExtractor) ExtractText(ctx context.Context, path string) (text string) {
	ext := strings.ToLower(filepath.Ext(path))
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("[Ingest] extractor panicked", "path", path, "panic", fmt.Sprint(r))
			text = ""
		}
		outcome := metrics.OutcomeOK
		if text == "" {
			outcome = metrics.OutcomeEmpty
		}
		metrics.IngestionsTotal.WithLabelValues(extLabel(ext), outcome).Inc()
	}()

	if err := ctx.Err(); err != nil {
		e.logger.Warn("[Ingest] extraction cancelled", "path", path, "error", err)
		return ""
	}

	extract, ok := e.byExt[ext]
	if !ok {
		e.logger.Warn("[Ingest] unsupported document type", "path", path, "extension", ext)
		return ""
	}

	text, err := extract(path)
	if err != nil {
		e.logger.Warn("[Ingest] text extraction failed", "path", path, "error", err)
		return ""
	}

	if len(text) > e.maxBytes {
		e.logger.Warn("[Ingest] extracted text truncated", "path", path, "bytes", len(text), "max_bytes", e.maxBytes)
		text = truncateBytes(text, e.maxBytes)
	}
	e.logger.Info("[Ingest] document extracted", "path", path, "bytes", len(text))
	return text
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func extLabel(ext string) string {
	switch ext {
	case ".pdf", ".docx", ".txt", ".md":
		return strings.TrimPrefix(ext, ".")
	default:
		return "other"
	}
}

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Warn(string, ...interface{})  {}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, path string) string

func (f ExtractorFunc) ExtractText(ctx context.Context, path string) string {
	return f(ctx, path)
}
