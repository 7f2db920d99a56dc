package store

import "strings"

// NormalizeEmail trims whitespace and lowercases the domain part only.
// The local part is kept as entered: "Foo@EXAMPLE.com" -> "Foo@example.com".
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
