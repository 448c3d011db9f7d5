// Package privacy keeps database credentials out of logs and error messages.
package privacy

import (
	"net/url"
	"regexp"
	"strings"
)

// secretPatterns match credentials that can appear in connection strings or
// driver errors.
var secretPatterns = []*regexp.Regexp{
	// key=value DSN passwords (libpq style)
	regexp.MustCompile(`(?i)(password|passwd|pwd)\s*=\s*('[^']*'|"[^"]*"|\S+)`),

	// userinfo passwords in URLs
	regexp.MustCompile(`(?i)([a-z][a-z0-9+.-]*://[^:/@\s]+):[^@\s]+@`),
}

// ContainsSecrets reports whether text looks like it carries a credential.
func ContainsSecrets(text string) bool {
	if text == "" {
		return false
	}
	for _, pattern := range secretPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// RedactSecrets replaces detected credentials with a redaction marker.
func RedactSecrets(text string) string {
	if text == "" {
		return text
	}

	result := secretPatterns[0].ReplaceAllString(text, "$1=[REDACTED]")
	return secretPatterns[1].ReplaceAllString(result, "$1:[REDACTED]@")
}

// RedactDSN returns a database DSN safe for logging. SQLite file paths pass
// through unchanged.
func RedactDSN(dsn string) string {
	if !strings.Contains(dsn, "://") {
		return RedactSecrets(dsn)
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return RedactSecrets(dsn)
	}
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "REDACTED")
		}
	}
	q := u.Query()
	if q.Has("password") {
		q.Set("password", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
