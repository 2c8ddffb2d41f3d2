package posclient

import (
	"net/http"
	"net/url"
)

// csrfCookieName is the session cookie the server issues the anti-forgery
// token under.
const csrfCookieName = "csrftoken"

// csrfHeader is echoed back on every state-changing request.
const csrfHeader = "X-CSRFToken"

// CredentialProvider supplies the anti-forgery token attached to
// state-changing requests. Implementations return the empty string when no
// token is available; the header is still sent so the server applies its own
// rejection policy.
type CredentialProvider interface {
	CSRFToken() string
}

// StaticCredentials returns a fixed token. Useful for tests and for callers
// that obtain the token out of band.
type StaticCredentials string

func (s StaticCredentials) CSRFToken() string { return string(s) }

// CookieCredentials reads the token from a cookie jar, mirroring how the
// server delivers it alongside the session. The stored value is URL-decoded
// before use.
type CookieCredentials struct {
	jar http.CookieJar
	url *url.URL
}

// NewCookieCredentials returns a provider reading the csrftoken cookie
// scoped to baseURL from jar.
func NewCookieCredentials(jar http.CookieJar, baseURL *url.URL) *CookieCredentials {
	return &CookieCredentials{jar: jar, url: baseURL}
}

func (c *CookieCredentials) CSRFToken() string {
	for _, ck := range c.jar.Cookies(c.url) {
		if ck.Name != csrfCookieName {
			continue
		}
		decoded, err := url.QueryUnescape(ck.Value)
		if err != nil {
			return ck.Value
		}
		return decoded
	}
	return ""
}
