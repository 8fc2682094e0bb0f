// Package redact renders secrets in a form that is safe to log.
package redact

import "strings"

// Email keeps the domain and the first two characters of the local part.
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}
	local := []rune(parts[0])
	if len(local) > 2 {
		return string(local[:2]) + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// Token hides a bearer or refresh credential, keeping only its last four
// characters so two log lines can be told apart.
func Token(tok string) string {
	if tok == "" {
		return "[EMPTY]"
	}
	if len(tok) <= 12 {
		return "[REDACTED_TOKEN]"
	}
	return "[REDACTED_TOKEN …" + tok[len(tok)-4:] + "]"
}

// Password never reveals anything about the input.
func Password() string { return "[REDACTED_PASSWORD]" }

// Login renders a login identifier, which may be a username or an e-mail.
func Login(s string) string {
	if strings.Contains(s, "@") {
		return Email(s)
	}
	return s
}
