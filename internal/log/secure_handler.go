package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// MaskValue replaces a value that must not reach the log.
const MaskValue = "***REDACTED***"

// sessionPrefix is how much of a backend session id survives masking.
// Enough to tell two upload jobs apart in one run.
const sessionPrefix = 4

// masking is what happens to an attribute.
type masking int

const (
	keep masking = iota
	maskAll
	maskCookie
	maskSession
)

// keyRules classifies attribute keys, compared lower-cased.
var keyRules = map[string]masking{
	"authorization":       maskAll,
	"proxy-authorization": maskAll,
	"x-api-key":           maskAll,
	"x-auth-token":        maskAll,
	"x-csrf-token":        maskAll,
	"password":            maskAll,
	"passwd":              maskAll,
	"secret":              maskAll,
	"token":               maskAll,
	"api_key":             maskAll,
	"apikey":              maskAll,
	"api-key":             maskAll,
	"access_token":        maskAll,
	"refresh_token":       maskAll,
	"private_key":         maskAll,
	"secret_key":          maskAll,
	"csrf_token":          maskAll,
	"remember_token":      maskAll,
	"credential":          maskAll,
	"credentials":         maskAll,
	"auth":                maskAll,

	"cookie":     maskCookie,
	"set-cookie": maskCookie,
	"cookies":    maskCookie,

	"session":    maskSession,
	"session_id": maskSession,
	"sessionid":  maskSession,
	"sid":        maskSession,
}

// keywords catch compound keys such as "db_password" or "auth_header".
// A bare "key" is left out: "primary_key" and "keyboard" are not secrets.
var keywords = []string{"password", "passwd", "secret", "token", "auth", "credential", "private", "csrf"}

// secretValues match values that are secrets whatever their key.
var secretValues = []*regexp.Regexp{
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),              // JWT
	regexp.MustCompile(`(?i)^bearer\s+.+`),                                                    // bearer token
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),                                       // basic auth
	regexp.MustCompile(`^[a-zA-Z0-9]{32,}$`),                                                  // long opaque key
	regexp.MustCompile(`^AKIA[0-9A-Z]{16}$`),                                                  // AWS access key
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),                          // PEM block
	regexp.MustCompile(`^\.?eJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`),               // signed session cookie
	regexp.MustCompile(`(?i)^(session|remember_token)=[^;\s]+(;\s*[A-Za-z0-9_-]+=[^;\s]*)*$`), // raw cookie header
}

// SecureHandler wraps an slog.Handler and masks credentials before a
// record reaches it. Cookie headers keep their cookie names, session ids
// keep a short prefix and URLs keep everything but their password and
// secret query parameters.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler wraps handler, or slog.Default().Handler() when nil.
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks the record's attributes and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(sanitize(a))
		return true
	})
	return h.handler.Handle(ctx, masked)
}

// WithAttrs masks attrs once, when they are attached.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = sanitize(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(out)}
}

// WithGroup delegates to the wrapped handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

func sanitize(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, g := range group {
			out[i] = sanitize(g)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	switch classify(a.Key) {
	case maskAll:
		return slog.String(a.Key, MaskValue)
	case maskCookie:
		return slog.String(a.Key, maskCookies(a.Value.String()))
	case maskSession:
		return slog.String(a.Key, maskSessionID(a.Value.String()))
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}
	v := a.Value.String()
	if isSecret(v) {
		return slog.String(a.Key, MaskValue)
	}
	if u, ok := maskURL(v); ok {
		return slog.String(a.Key, u)
	}
	return a
}

func classify(key string) masking {
	key = strings.ToLower(key)
	if m, ok := keyRules[key]; ok {
		return m
	}
	if strings.Contains(key, "cookie") {
		return maskCookie
	}
	for _, kw := range keywords {
		if strings.Contains(key, kw) {
			return maskAll
		}
	}
	return keep
}

func isSecret(v string) bool {
	for _, re := range secretValues {
		if re.MatchString(v) {
			return true
		}
	}
	return false
}

// maskCookies keeps the names of a "name=value; name2=value2" header.
func maskCookies(header string) string {
	parts := strings.Split(header, ";")
	for i, p := range parts {
		name, _, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok || name == "" {
			parts[i] = MaskValue
			continue
		}
		parts[i] = name + "=" + MaskValue
	}
	return strings.Join(parts, "; ")
}

func maskSessionID(id string) string {
	if len(id) <= sessionPrefix {
		return MaskValue
	}
	return id[:sessionPrefix] + MaskValue
}

// maskURL hides the password and secret query parameters of an absolute
// URL such as an RTSP camera address. ok is false when v is not a URL or
// nothing needed masking.
func maskURL(v string) (string, bool) {
	if !strings.Contains(v, "://") {
		return "", false
	}
	u, err := url.Parse(v)
	if err != nil || u.Host == "" {
		return "", false
	}

	changed := false
	if _, hasPass := u.User.Password(); hasPass {
		u.User = url.UserPassword(u.User.Username(), MaskValue)
		changed = true
	}
	if u.RawQuery != "" {
		q := u.Query()
		for k := range q {
			if classify(k) != keep {
				q.Set(k, MaskValue)
				changed = true
			}
		}
		if changed {
			u.RawQuery = q.Encode()
		}
	}
	if !changed {
		return "", false
	}
	s, err := url.PathUnescape(u.String())
	if err != nil {
		return u.String(), true
	}
	return s, true
}

func newLogger(h slog.Handler) *slog.Logger {
	return slog.New(NewSecureHandler(h))
}

func level(verbose bool) *slog.HandlerOptions {
	if verbose {
		return &slog.HandlerOptions{Level: slog.LevelDebug}
	}
	return &slog.HandlerOptions{Level: slog.LevelWarn}
}

// NewSecureLogger returns a masking text logger writing to w. verbose
// lowers the level from Warn to Debug.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return newLogger(slog.NewTextHandler(w, level(verbose)))
}

// NewSecureJSONLogger is NewSecureLogger with JSON lines output.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return newLogger(slog.NewJSONHandler(w, level(verbose)))
}

// NewDiscardLogger returns a logger that drops every record.
// Controllers use it when no logger is configured.
func NewDiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
