package redact

import (
	"regexp"
	"strings"
)

const placeholder = "[REDACTED]"

var secretPatterns = []*regexp.Regexp{
	// Bearer tokens
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._~+/=-]{8,}`),
	// JWTs (three base64 segments separated by dots)
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	// GitHub tokens
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	regexp.MustCompile(`github_pat_[A-Za-z0-9_]{22,}`),
}

// credentialFields matches JSON and form fields whose values are credentials.
var credentialFields = regexp.MustCompile(`(?i)("?(?:access_token|token|password|secret)"?\s*[:=]\s*)("[^"]*"|[^\s,&}]+)`)

// Secrets replaces detected credentials in text with [REDACTED].
func Secrets(text string) string {
	result := credentialFields.ReplaceAllString(text, `${1}"`+placeholder+`"`)
	for _, pat := range secretPatterns {
		result = pat.ReplaceAllString(result, placeholder)
	}
	return result
}

// Mask hides all but the last four characters of a configured secret.
// Short values are hidden entirely.
func Mask(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return strings.Repeat("*", 8)
	}
	return strings.Repeat("*", 8) + value[len(value)-4:]
}
