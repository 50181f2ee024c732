package cli

import "regexp"

var redactionPatterns = []struct {
	pattern *regexp.Regexp
	replace string
}{
	// Bearer tokens and authorization headers
	{regexp.MustCompile(`Bearer\s+[A-Za-z0-9\-._~+/]+=*`), "Bearer [REDACTED]"},
	{regexp.MustCompile(`Authorization:\s*[^\s]+`), "Authorization: [REDACTED]"},

	// Session and token values
	{regexp.MustCompile(`(?i)(session|token)([_-]?id)?[\s:=]+[A-Za-z0-9\-]{8,}`), "$1=[REDACTED]"},

	// Password-like patterns, including --password flags
	{regexp.MustCompile(`(?i)--password[\s=]+[^\s]+`), "--password [REDACTED]"},
	{regexp.MustCompile(`[Pp]assword[\s:=]+[^\s]+`), "password=[REDACTED]"},
	{regexp.MustCompile(`[Pp]asswd[\s:=]+[^\s]+`), "passwd=[REDACTED]"},

	// Secret environment variables
	{regexp.MustCompile(`[A-Z_]*(SECRET|TOKEN|PASSWORD)[A-Z_]*=\S+`), "[SECRET REDACTED]"},

	// Home directories in config paths
	{regexp.MustCompile(`/home/[^/\s]+`), "/home/[USER]"},
	{regexp.MustCompile(`/Users/[^/\s]+`), "/Users/[USER]"},
}

// RedactString masks credentials and user paths in s.
func RedactString(s string) string {
	for _, p := range redactionPatterns {
		s = p.pattern.ReplaceAllString(s, p.replace)
	}
	return s
}

// RedactError redacts sensitive information from an error message.
func RedactError(err error) string {
	if err == nil {
		return ""
	}
	return RedactString(err.Error())
}
