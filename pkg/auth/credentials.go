package auth

import "net/http"

// AuthorizationHeader returns the Authorization header value, or "" when the
// request is nil or the header is absent.
func AuthorizationHeader(r *http.Request) string {
	if r == nil {
		return ""
	}
	return r.Header.Get("Authorization")
}

// SessionCookie returns the value of the named cookie, or "" when the
// request is nil, the name is empty or the cookie is absent.
func SessionCookie(r *http.Request, name string) string {
	if r == nil || name == "" {
		return ""
	}
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
