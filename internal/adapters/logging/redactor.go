// Package logging builds slog handlers that redact credentials and session
// material.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// RedactedValue is the placeholder for redacted sensitive data.
const RedactedValue = "[REDACTED]"

var defaultSensitiveFields = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"credential",
	"session",
	"bearer",
	"authorization",
	"private_key",
}

// RedactorHandler wraps an slog.Handler and masks attributes whose key names
// a secret, at any group depth.
type RedactorHandler struct {
	handler   slog.Handler
	sensitive []string
}

// NewRedactorHandler creates a handler that redacts the default sensitive fields
// plus any extra ones given.
func NewRedactorHandler(handler slog.Handler, extra ...string) *RedactorHandler {
	sensitive := make([]string, 0, len(defaultSensitiveFields)+len(extra))
	sensitive = append(sensitive, defaultSensitiveFields...)
	for _, f := range extra {
		sensitive = append(sensitive, strings.ToLower(f))
	}
	return &RedactorHandler{handler: handler, sensitive: sensitive}
}

// Enabled implements slog.Handler.
func (h *RedactorHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle implements slog.Handler.
//
//nolint:gocritic // Required by slog.Handler interface
func (h *RedactorHandler) Handle(ctx context.Context, record slog.Record) error {
	out := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(h.redactAttr(attr))
		return true
	})

	if err := h.handler.Handle(ctx, out); err != nil {
		return fmt.Errorf("redactor handle failed: %w", err)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *RedactorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		redacted[i] = h.redactAttr(attr)
	}
	return &RedactorHandler{handler: h.handler.WithAttrs(redacted), sensitive: h.sensitive}
}

// WithGroup implements slog.Handler.
func (h *RedactorHandler) WithGroup(name string) slog.Handler {
	return &RedactorHandler{handler: h.handler.WithGroup(name), sensitive: h.sensitive}
}

func (h *RedactorHandler) redactAttr(attr slog.Attr) slog.Attr {
	if h.isSensitiveField(attr.Key) {
		return slog.String(attr.Key, RedactedValue)
	}

	// LogValuers such as domain.PasswordCredentials resolve to groups.
	value := attr.Value.Resolve()
	if value.Kind() != slog.KindGroup {
		return slog.Attr{Key: attr.Key, Value: value}
	}

	group := value.Group()
	redacted := make([]slog.Attr, len(group))
	for i, ga := range group {
		redacted[i] = h.redactAttr(ga)
	}
	return slog.Attr{Key: attr.Key, Value: slog.GroupValue(redacted...)}
}

func (h *RedactorHandler) isSensitiveField(fieldName string) bool {
	lower := strings.ToLower(fieldName)
	for _, s := range h.sensitive {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
