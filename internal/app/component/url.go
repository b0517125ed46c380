package component

import (
	"net/url"
	"strings"
)

// CurrentUserPath is the route of the authenticated user.
const CurrentUserPath = "/users/me"

// Links builds absolute URIs for resources served under a base URL.
type Links struct {
	base *url.URL
}

// NewLinks returns Links rooted at base, which must be an absolute URL. A
// trailing slash and any query or fragment on base are ignored.
func NewLinks(base string) (Links, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return Links{}, err
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	parsed.RawPath = ""
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return Links{base: parsed}, nil
}

// Resolve returns the absolute URI of path, which must start with a slash.
func (l Links) Resolve(path string) string {
	if l.base == nil {
		return path
	}
	resolved := *l.base
	resolved.Path += path
	return resolved.String()
}
