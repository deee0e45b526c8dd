package security

import (
	"net/http"
	"net/url"
	"strings"
)

// SafeRedirect validates a caller-supplied post-login destination. Only
// same-origin targets are accepted: a relative path, or an absolute URL
// whose scheme and host match the current request. Anything else falls
// back to the given default. This is the open-redirect guard on the
// login flow's "next" parameter.
func SafeRedirect(next string, r *http.Request, fallback string) string {
	if next == "" {
		return fallback
	}

	u, err := url.Parse(next)
	if err != nil {
		return fallback
	}

	if u.Scheme != "" || u.Host != "" {
		if u.Scheme == requestScheme(r) && u.Host == r.Host && u.Path != "" {
			return u.String()
		}
		return fallback
	}

	// Relative target: require a rooted path and reject protocol-relative
	// ("//host") and backslash ("/\host") forms browsers normalize.
	if !strings.HasPrefix(u.Path, "/") ||
		strings.HasPrefix(u.Path, "//") ||
		strings.HasPrefix(u.Path, "/\\") {
		return fallback
	}

	return u.String()
}

func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
