// Package transport はセッショントークンをHTTP Cookieでクライアントと受け渡す。
package transport

import (
	"net/http"
	"time"
)

// DefaultCookieName はセッションCookieの既定名。
const DefaultCookieName = "session"

// CookieConfig はセッションCookieの属性。
type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
}

// CookieTransport は1つのリクエスト/レスポンスに束縛されたトークンの受け渡し手段。
// リクエストごとに生成し、ゴルーチン間で共有しない。
type CookieTransport struct {
	w      http.ResponseWriter
	r      *http.Request
	config CookieConfig

	// 同一リクエスト内でPersistToken/ClearTokenした後のReadTokenに反映する
	overridden bool
	token      string
}

// NewCookieTransport はCookieTransportを生成する。Nameが空の場合はDefaultCookieNameを使う。
func NewCookieTransport(w http.ResponseWriter, r *http.Request, config CookieConfig) *CookieTransport {
	if config.Name == "" {
		config.Name = DefaultCookieName
	}
	return &CookieTransport{w: w, r: r, config: config}
}

// PersistToken はHTTP OnlyのセッションCookieを設定する。
// Cookieの有効期限はセッションの有効期限と一致させる。
func (t *CookieTransport) PersistToken(token string, expiresAt time.Time) {
	http.SetCookie(t.w, &http.Cookie{
		Name:     t.config.Name,
		Value:    token,
		Path:     "/",
		Domain:   t.config.Domain,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   t.config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	t.overridden = true
	t.token = token
}

// ClearToken はセッションCookieを削除する。
func (t *CookieTransport) ClearToken() {
	http.SetCookie(t.w, &http.Cookie{
		Name:     t.config.Name,
		Value:    "",
		Path:     "/",
		Domain:   t.config.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   t.config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	t.overridden = true
	t.token = ""
}

// ReadToken はリクエストのセッションCookieの値を返す。
func (t *CookieTransport) ReadToken() (string, bool) {
	if t.overridden {
		return t.token, t.token != ""
	}
	cookie, err := t.r.Cookie(t.config.Name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
