package config

import (
	"net/url"
	"regexp"
	"strings"
)

const maskedPassword = "xxxxx"

var keywordPassword = regexp.MustCompile(`(password\s*=\s*)('[^']*'|\S+)`)

// MaskDSN hides the password of a PostgreSQL connection string so it can
// be logged. Both URL and keyword/value forms are handled.
func MaskDSN(dsn string) string {
	if dsn == "" {
		return ""
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "***"
		}
		return u.Redacted()
	}

	return keywordPassword.ReplaceAllString(dsn, "${1}"+maskedPassword)
}
