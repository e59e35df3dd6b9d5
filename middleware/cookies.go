package middleware

import (
	"net/http"
	"time"
)

// Cookie names used by the refresh and trusted-device credentials.
const (
	RefreshCookieName = "refreshToken"
	DeviceCookieName  = "deviceToken"
)

// CookiePolicy defines the transport attributes applied to every credential
// cookie. Leave SameSite zero to get SameSiteLaxMode.
type CookiePolicy struct {
	Secure   bool
	SameSite http.SameSite
	Domain   string
}

func (p CookiePolicy) sameSite() http.SameSite {
	if p.SameSite == 0 {
		return http.SameSiteLaxMode
	}
	return p.SameSite
}

// SetRefreshCookie writes the refresh credential as an HTTP-only cookie with
// a lifetime matching the credential's TTL.
func SetRefreshCookie(w http.ResponseWriter, policy CookiePolicy, token string, ttl time.Duration) {
	setCredentialCookie(w, policy, RefreshCookieName, token, ttl)
}

// SetDeviceCookie writes the trusted-device credential as an HTTP-only cookie
// with a lifetime matching the credential's TTL.
func SetDeviceCookie(w http.ResponseWriter, policy CookiePolicy, token string, ttl time.Duration) {
	setCredentialCookie(w, policy, DeviceCookieName, token, ttl)
}

// ClearSessionCookies expires both credential cookies. Used on logout.
func ClearSessionCookies(w http.ResponseWriter, policy CookiePolicy) {
	setCredentialCookie(w, policy, RefreshCookieName, "", -time.Second)
	setCredentialCookie(w, policy, DeviceCookieName, "", -time.Second)
}

// RefreshTokenFromRequest extracts the refresh credential cookie, returning
// the empty string when absent.
func RefreshTokenFromRequest(r *http.Request) string {
	return cookieValue(r, RefreshCookieName)
}

// DeviceTokenFromRequest extracts the trusted-device credential cookie,
// returning the empty string when absent.
func DeviceTokenFromRequest(r *http.Request) string {
	return cookieValue(r, DeviceCookieName)
}

func setCredentialCookie(w http.ResponseWriter, policy CookiePolicy, name, value string, ttl time.Duration) {
	maxAge := int(ttl / time.Second)
	if value == "" {
		maxAge = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   policy.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   policy.Secure,
		SameSite: policy.sameSite(),
	})
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
