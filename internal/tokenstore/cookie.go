package tokenstore

import (
	"encoding/base64"
	"net/http"
	"sync"
)

// AccessTokenCookieName is the browser cookie holding the access token in the frontend server
const AccessTokenCookieName = "access_token"

// CookieStore is a request-scoped Store backed by browser cookies.
//
// Values are read from the incoming request and written to the response as HttpOnly, SameSite=Strict cookies.
// Values set during the request are visible to later Gets on the same store.
// Values are base64 encoded to avoid cookie encoding issues with opaque tokens.
type CookieStore struct {
	r      *http.Request
	w      http.ResponseWriter
	secure bool

	mu      sync.Mutex
	pending map[string]*string // nil value = deleted during this request
}

// NewCookieStore creates a store for a single browser request.
// secure should be true when the frontend is served over https (prod, staging).
func NewCookieStore(w http.ResponseWriter, r *http.Request, secure bool) *CookieStore {
	return &CookieStore{
		r:       r,
		w:       w,
		secure:  secure,
		pending: map[string]*string{},
	}
}

// cookieName maps a storage key to the cookie it is kept in
func cookieName(key string) string {
	if key == AccessTokenKey {
		return AccessTokenCookieName
	}
	return key
}

func (c *CookieStore) Get(key string) (string, bool) {
	c.mu.Lock()
	if value, ok := c.pending[key]; ok {
		c.mu.Unlock()
		if value == nil {
			return "", false
		}
		return *value, true
	}
	c.mu.Unlock()

	cookie, err := c.r.Cookie(cookieName(key))
	if err != nil {
		return "", false
	}
	decoded, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}

func (c *CookieStore) Set(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	http.SetCookie(c.w, &http.Cookie{
		Name:     cookieName(key),
		Value:    base64.RawURLEncoding.EncodeToString([]byte(value)),
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	})
	c.pending[key] = &value
	return nil
}

func (c *CookieStore) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	http.SetCookie(c.w, &http.Cookie{
		Name:     cookieName(key),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	})
	c.pending[key] = nil
	return nil
}
