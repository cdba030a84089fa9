package session

import (
	"net/http"
	"time"
)

// DefaultCookieName はセッションCookieの既定名。
const DefaultCookieName = "session_token"

// CookieConfig はセッションCookieの属性。
type CookieConfig struct {
	Name     string
	Domain   string
	Secure   bool
	Duration time.Duration
}

func (c CookieConfig) name() string {
	if c.Name == "" {
		return DefaultCookieName
	}
	return c.Name
}

// CookieName は設定済み、または既定のCookie名を返す。
func (c CookieConfig) CookieName() string {
	return c.name()
}

// SetCookie はセッショントークンをHttpOnly Cookieとして設定する。
func SetCookie(w http.ResponseWriter, cfg CookieConfig, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.name(),
		Value:    token,
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   int(cfg.Duration.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie はセッションCookieを削除する。
func ClearCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.name(),
		Value:    "",
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
