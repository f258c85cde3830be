package auth

import "strings"

// RequiresAuth reports whether path is protected given the excluded set.
//
// An empty path or an empty excluded set always requires auth. Both path
// and exact patterns are compared with a trailing slash, so "/x" and "/x/"
// are equivalent. A pattern containing '*' exempts every path that starts
// with the text before the first '*'.
func RequiresAuth(path string, excluded []string) bool {
	if path == "" || len(excluded) == 0 {
		return true
	}
	path = withSlash(path)

	for _, pattern := range excluded {
		if pattern == "" {
			continue
		}
		if i := strings.IndexByte(pattern, '*'); i >= 0 {
			if strings.HasPrefix(path, pattern[:i]) {
				return false
			}
			continue
		}
		if path == withSlash(pattern) {
			return false
		}
	}
	return true
}

func withSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
