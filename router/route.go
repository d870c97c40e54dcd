package router

import (
	"strings"

	"github.com/indigo-web/feather/http/method"
	"github.com/indigo-web/feather/kv"
)

// Route is immutable after the server started.
type Route struct {
	Method     method.Method
	Pattern    string
	Middleware Middleware
	segments   []string
}

func NewRoute(m method.Method, pattern string, mw Middleware) Route {
	return Route{
		Method:     m,
		Pattern:    pattern,
		Middleware: mw,
		segments:   strings.Split(strings.Trim(pattern, "/"), "/"),
	}
}

// Match compares the path segment by segment. Both the path and the pattern are trimmed
// of leading and trailing slashes beforehand, and must have the same number of segments.
// Segments of the pattern starting with a colon match anything and are bound to params
// by their name, a later segment with the same name overriding the earlier one. Params
// are touched only if the path matched.
func (r Route) Match(path string, params *kv.Storage) bool {
	path = strings.Trim(path, "/")
	if strings.Count(path, "/")+1 != len(r.segments) {
		return false
	}

	rest := path
	for _, segment := range r.segments {
		var value string
		value, rest, _ = strings.Cut(rest, "/")
		if !isParam(segment) && value != segment {
			return false
		}
	}

	params.Clear()
	rest = path
	for _, segment := range r.segments {
		var value string
		value, rest, _ = strings.Cut(rest, "/")
		if isParam(segment) {
			params.Set(segment[1:], value)
		}
	}

	return true
}

func isParam(segment string) bool {
	return len(segment) > 0 && segment[0] == ':'
}
