package log

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// sensitiveKeys contains attribute keys whose values are always masked.
var sensitiveKeys = map[string]bool{
	"authorization":        true,
	"proxy-authorization":  true,
	"cookie":               true,
	"password":             true,
	"passwd":               true,
	"secret":               true,
	"token":                true,
	"access_token":         true,
	"refresh_token":        true,
	"private_key":          true,
	"private_key_id":       true,
	"credential":           true,
	"credentials":          true,
	"gcs_credentials_json": true,
}

// uriKeys contains attribute keys holding connection strings. Their password
// is masked and the rest is kept for troubleshooting.
var uriKeys = map[string]bool{
	"mongo_uri": true,
	"uri":       true,
	"dsn":       true,
}

// sensitivePatterns contains regex patterns that indicate sensitive values.
var sensitivePatterns = []*regexp.Regexp{
	// JWT tokens
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),

	// Bearer tokens
	regexp.MustCompile(`(?i)^bearer\s+.+`),

	// Google OAuth access tokens
	regexp.MustCompile(`^ya29\.[A-Za-z0-9_-]+$`),

	// Private key markers
	regexp.MustCompile(`(?i)-----BEGIN.*PRIVATE KEY-----`),

	// Service-account key documents
	regexp.MustCompile(`"private_key"\s*:`),
}

// userinfoPattern finds a password inside a URI embedded in free text.
var userinfoPattern = regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.-]*://[^:/@\s]+):([^@\s]+)@`)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// SecureHandler wraps an slog.Handler and masks sensitive attribute values
// before passing records on.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler creates a new SecureHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled reports whether the underlying handler handles the level.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's attributes and message and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, RedactURIs(r.Message), r.PC)

	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.sanitizeAttr(a))
		return true
	})

	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new handler with the given attributes sanitized and added.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitizedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitizedAttrs[i] = h.sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitizedAttrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

// sanitizeAttr sanitizes a single attribute, recursively handling groups.
func (h *SecureHandler) sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitizedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			sanitizedAttrs[i] = h.sanitizeAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitizedAttrs...)}
	}

	keyLower := strings.ToLower(a.Key)
	if sensitiveKeys[keyLower] || containsSensitiveKeyword(keyLower) {
		return slog.String(a.Key, MaskValue)
	}

	if uriKeys[keyLower] {
		return slog.String(a.Key, RedactURI(a.Value.String()))
	}

	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if isSensitiveValue(s) {
			return slog.String(a.Key, MaskValue)
		}
		if redacted := RedactURIs(s); redacted != s {
			return slog.String(a.Key, redacted)
		}
	case slog.KindAny:
		// Errors often quote the connection string they failed on.
		if err, ok := a.Value.Any().(error); ok {
			msg := err.Error()
			if redacted := RedactURIs(msg); redacted != msg {
				return slog.String(a.Key, redacted)
			}
		}
	}

	return a
}

// containsSensitiveKeyword checks if the key contains sensitive keywords.
// The bare word "key" is not one of them: object keys are logged everywhere.
func containsSensitiveKeyword(key string) bool {
	sensitiveKeywords := []string{
		"password", "passwd", "secret", "token", "credential", "private",
	}

	for _, keyword := range sensitiveKeywords {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

// isSensitiveValue checks if a value matches sensitive patterns.
func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// RedactURI masks the password of a connection string. Strings that are not
// URIs are masked entirely.
func RedactURI(raw string) string {
	if raw == "" {
		return raw
	}
	if userinfoPattern.MatchString(raw) {
		return RedactURIs(raw)
	}
	if u, err := url.Parse(raw); err != nil || u.Scheme == "" {
		return MaskValue
	}
	return raw
}

// RedactURIs masks the password of every URI found in s.
func RedactURIs(s string) string {
	return userinfoPattern.ReplaceAllString(s, "${1}:"+MaskValue+"@")
}
