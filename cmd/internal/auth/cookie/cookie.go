// Package cookie computes the attributes of the session cookie.
//
// Policy is a pure function of the deployment mode and the request's transport:
// the same inputs always produce the same attributes, and the clearing cookie
// reuses them so browsers match and drop the issued one.
package cookie

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// DefaultName is the session cookie name.
const DefaultName = "token"

// DefaultMaxAge matches the session token lifetime.
const DefaultMaxAge = time.Hour

// ErrCrossSiteRequiresSecure is returned when cross-site delivery is requested without a secure transport.
// Browsers reject SameSite=None cookies that are not Secure.
var ErrCrossSiteRequiresSecure = errors.New("cookie: cross-site cookies require a secure transport")

// Input is the policy input for one response.
type Input struct {
	// Production is true when the process runs in production mode.
	Production bool
	// HTTPS is true when the request arrived over TLS (directly or via a trusted proxy) or HTTPS is forced.
	HTTPS bool
	// CrossSite is true when the cookie must be sent on cross-site requests.
	CrossSite bool
	// MaxAge overrides DefaultMaxAge when positive.
	MaxAge time.Duration
}

// Attributes is the computed cookie policy.
type Attributes struct {
	HTTPOnly bool
	Secure   bool
	SameSite http.SameSite
	Path     string
	MaxAge   time.Duration
}

// Policy computes the cookie attributes for in.
func Policy(in Input) (Attributes, error) {
	secure := in.Production || in.HTTPS

	sameSite := http.SameSiteStrictMode
	if in.CrossSite {
		if !secure {
			return Attributes{}, ErrCrossSiteRequiresSecure
		}
		sameSite = http.SameSiteNoneMode
	}

	maxAge := DefaultMaxAge
	if in.MaxAge > 0 {
		maxAge = in.MaxAge
	}

	return Attributes{
		HTTPOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Path:     "/",
		MaxAge:   maxAge,
	}, nil
}

// Cookie builds the issuance cookie.
func (a Attributes) Cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     a.Path,
		MaxAge:   int(a.MaxAge / time.Second),
		HttpOnly: a.HTTPOnly,
		Secure:   a.Secure,
		SameSite: a.SameSite,
	}
}

// Expired builds the clearing cookie. Path, SameSite, Secure and HttpOnly match Cookie.
func (a Attributes) Expired(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     a.Path,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: a.HTTPOnly,
		Secure:   a.Secure,
		SameSite: a.SameSite,
	}
}

// RequestIsHTTPS reports whether r reached the service over TLS.
// X-Forwarded-Proto is honored only when trustProxy is set; only its first value counts.
func RequestIsHTTPS(r *http.Request, trustProxy bool) bool {
	if r == nil {
		return false
	}
	if r.TLS != nil {
		return true
	}
	if !trustProxy {
		return false
	}
	proto := r.Header.Get("X-Forwarded-Proto")
	if i := strings.IndexByte(proto, ','); i >= 0 {
		proto = proto[:i]
	}
	return strings.EqualFold(strings.TrimSpace(proto), "https")
}
