package http

import (
	"strings"

	"github.com/indigo-web/utils/strcomp"
)

// HasToken reports whether a comma-separated header value contains the token,
// compared case-insensitively.
func HasToken(value, token string) bool {
	return hasToken(value, token)
}

func hasToken(value, token string) bool {
	for value != "" {
		var elem string
		elem, value, _ = strings.Cut(value, ",")
		if strcomp.EqualFold(strings.TrimSpace(elem), token) {
			return true
		}
	}

	return false
}
