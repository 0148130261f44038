package main

import (
	"net/url"
	"regexp"
	"strings"
)

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

// redactURL drops the password from a connection string.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}
	if parsed.User != nil {
		if username := parsed.User.Username(); username != "" {
			parsed.User = url.User(username)
		} else {
			parsed.User = url.User("redacted")
		}
	}
	return parsed.String()
}

// sanitizeError removes secrets (whole connection strings and
// password= parameters) from an error message before it is logged.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}
	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
