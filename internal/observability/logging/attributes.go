package logging

import (
	"log/slog"
	"net/url"
	"regexp"
	"unicode/utf8"
)

// RedactedDSN is a database connection string that hides its password when logged
type RedactedDSN string

var userinfoPassword = regexp.MustCompile(`(?P<User>[^:/@]+):[^@/]+@`)

// LogValue implements slog.LogValuer. URL-shaped DSNs (postgres://) go through
// url.Redacted; anything else gets the user:password@ segment masked.
func (s RedactedDSN) LogValue() slog.Value {
	raw := string(s)
	if u, err := url.Parse(raw); err == nil && u.User != nil {
		return slog.StringValue(u.Redacted())
	}
	return slog.StringValue(userinfoPassword.ReplaceAllString(raw, `${User}:xxxxx@`))
}

// RedactDSN returns a safely loggable database connection string
func RedactDSN(dsn string) slog.LogValuer {
	return RedactedDSN(dsn)
}

// Username is a login name as typed by a client. It is truncated so a client
// cannot flood the logs through the username field.
type Username string

// LogValue implements slog.LogValuer
func (u Username) LogValue() slog.Value {
	const max = 64
	s := string(u)
	if len(s) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return slog.StringValue(s)
}
