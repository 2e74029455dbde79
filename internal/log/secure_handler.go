package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// sensitiveKeys contains attribute keys whose values are always masked.
// In a password recovery tool nearly every interesting value is a secret:
// candidates are guesses at the real password and a winning candidate is
// the password itself.
var sensitiveKeys = map[string]bool{
	"password":       true,
	"passwd":         true,
	"pwd":            true,
	"passphrase":     true,
	"found":          true,
	"found_password": true,
	"foundpassword":  true,
	"winner":         true,
	"candidate":      true,
	"candidates":     true,
	"guess":          true,
	"plaintext":      true,
	"secret":         true,
	"sample":         true,
}

// sensitiveKeywords mask any key that contains them, such as "last_candidate".
var sensitiveKeywords = []string{
	"password", "passwd", "passphrase", "candidate", "secret", "plaintext",
}

// sensitivePatterns match values that carry a password regardless of the key,
// typically oracle command-line switches.
var sensitivePatterns = []*regexp.Regexp{
	// 7-Zip and rar style: -p<password>
	regexp.MustCompile(`^-p\S+$`),

	// GNU style long option: --password=<password>
	regexp.MustCompile(`(?i)^--pass(word|phrase)?=.+`),

	// Shell-joined oracle command lines: "7z t -psecret -y a.zip"
	regexp.MustCompile(`(^|\s)-p\S+(\s|$)`),
}

// passwordSwitches are arguments whose following argument is a password,
// as in "unzip -P secret".
var passwordSwitches = map[string]bool{
	"-P":         true,
	"--password": true,
	"-password":  true,
	"-pass":      true,
}

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// SecureHandler wraps an slog.Handler and masks passwords and candidates
// before records reach the underlying handler. Masking applies to
// attribute keys, string values, string slices (oracle argv) and groups.
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

// Enabled reports whether the handler handles records at the given level.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks the record's attributes and passes it to the underlying handler.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(sanitizeAttr(a))
		return true
	})

	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new handler with the given attributes masked and added.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitizedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitizedAttrs[i] = sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitizedAttrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

// sanitizeAttr masks a single attribute, recursing into groups.
func sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitizedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			sanitizedAttrs[i] = sanitizeAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitizedAttrs...)}
	}

	// Numbers and durations under a sensitive key (candidate counts, for
	// example) carry no secret and stay visible.
	kind := a.Value.Kind()
	if isSensitiveKey(a.Key) && (kind == slog.KindString || kind == slog.KindAny) {
		return slog.String(a.Key, MaskValue)
	}

	switch kind {
	case slog.KindString:
		if isSensitiveValue(a.Value.String()) {
			return slog.String(a.Key, MaskValue)
		}
	case slog.KindAny:
		if args, ok := a.Value.Any().([]string); ok {
			return slog.Any(a.Key, MaskArgs(args))
		}
	}

	return a
}

// isSensitiveKey reports whether a key names a secret.
func isSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	if sensitiveKeys[keyLower] {
		return true
	}
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(keyLower, keyword) {
			return true
		}
	}
	return false
}

// isSensitiveValue reports whether a value matches a password pattern.
func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// MaskArgs returns a copy of an argument vector with every password masked.
// It masks arguments that embed a password (-psecret, --password=secret)
// and the argument following a password switch (-P secret).
func MaskArgs(args []string) []string {
	masked := make([]string, len(args))
	maskNext := false
	for i, arg := range args {
		switch {
		case maskNext:
			masked[i] = MaskValue
			maskNext = false
		case passwordSwitches[arg]:
			masked[i] = arg
			maskNext = true
		case isSensitiveValue(arg):
			masked[i] = maskSwitchValue(arg)
		default:
			masked[i] = arg
		}
	}
	return masked
}

// maskSwitchValue keeps the switch name of an embedded password so the
// masked command line stays readable: "-psecret" becomes "-p***REDACTED***".
func maskSwitchValue(arg string) string {
	if idx := strings.Index(arg, "="); idx > 0 && strings.HasPrefix(arg, "--") {
		return arg[:idx+1] + MaskValue
	}
	if strings.HasPrefix(arg, "-p") && !strings.ContainsAny(arg, " \t") {
		return "-p" + MaskValue
	}
	return MaskValue
}

// NewSecureLogger creates a text logger that masks secrets.
// verbose selects Debug level; otherwise only warnings and errors are written.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewSecureJSONLogger creates a JSON logger that masks secrets.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
