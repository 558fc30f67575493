package stores

import (
	"net/url"
	"strings"
)

// AbsoluteURL rewrites protocol-relative and site-relative links against base.
// Absolute URLs are returned unchanged.
func AbsoluteURL(base, raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "/"):
		return strings.TrimRight(base, "/") + raw
	}

	ref, err := url.Parse(raw)
	if err != nil || ref.IsAbs() {
		return raw
	}
	baseURL, err := url.Parse(strings.TrimRight(base, "/") + "/")
	if err != nil {
		return raw
	}
	return baseURL.ResolveReference(ref).String()
}

// encodeTerm escapes a search term for use inside a query string
func encodeTerm(term string) string {
	return strings.ReplaceAll(url.QueryEscape(term), "+", "%20")
}
