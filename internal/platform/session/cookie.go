package session

import (
	"net/http"
	"time"

	"shelfflix_backend/internal/feature/auth/domain/entity"
)

// CookieName is the name of the session cookie.
const CookieName = "shelfflix.sid"

// Codec seals a session id into the cookie value and opens it again.
// jwtmw.Sealer implements it.
type Codec interface {
	Seal(sessionID string, expiresAt time.Time) (string, error)
	Open(value string) (string, error)
}

// CookieOptions defines how session cookies are issued.
type CookieOptions struct {
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

// normalize applies defaults without breaking callers.
func (o CookieOptions) normalize() CookieOptions {
	if o.Path == "" {
		o.Path = "/"
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}
	if o.MaxAge <= 0 {
		o.MaxAge = 7 * 24 * time.Hour
	}
	return o
}

// Cookies issues, reads and clears the session cookie.
type Cookies struct {
	codec Codec
	opts  CookieOptions
}

// NewCookies creates a Cookies helper.
func NewCookies(codec Codec, opts CookieOptions) *Cookies {
	return &Cookies{codec: codec, opts: opts.normalize()}
}

// Issue writes a cookie carrying the sealed session id.
func (c *Cookies) Issue(w http.ResponseWriter, s *entity.Session) error {
	value, err := c.codec.Seal(s.ID, s.ExpiresAt)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     c.opts.Path,
		Domain:   c.opts.Domain,
		MaxAge:   int(c.opts.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   c.opts.Secure,
		SameSite: c.opts.SameSite,
	})
	return nil
}

// SessionID returns the session id carried by r.
// A missing cookie and a cookie that fails verification both yield "".
func (c *Cookies) SessionID(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}

	id, err := c.codec.Open(cookie.Value)
	if err != nil {
		return ""
	}
	return id
}

// Clear removes the session cookie from the client.
func (c *Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     c.opts.Path,
		Domain:   c.opts.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.opts.Secure,
		SameSite: c.opts.SameSite,
	})
}
