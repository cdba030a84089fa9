// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/codereview/internal/auth"
	"github.com/hitoshi/codereview/internal/middleware"
	"github.com/hitoshi/codereview/internal/model"
	"github.com/hitoshi/codereview/internal/session"
)

const (
	oauthStateCookie    = "oauth_state"
	oauthVerifierCookie = "oauth_verifier"
	oauthCookieMaxAge   = 600 // 10分
	oauthCookiePath     = "/auth/google"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	GetLoginURL(state, verifier string) string
	HandleCallback(ctx context.Context, code, verifier string) (*model.User, *model.Session, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	// BaseURL はログイン完了後のリダイレクト先。空の場合は"/"。
	BaseURL string
	Cookie  session.CookieConfig
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	if config.BaseURL == "" {
		config.BaseURL = "/"
	}
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// Login はGoogle OAuthフローを開始する。
// GET /auth/google
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := auth.GenerateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	verifier := auth.GenerateVerifier()

	// stateとPKCEのverifierをCookieに保存（CSRF対策）
	h.setOAuthCookie(w, oauthStateCookie, state, oauthCookieMaxAge)
	h.setOAuthCookie(w, oauthVerifierCookie, verifier, oauthCookieMaxAge)

	http.Redirect(w, r, h.service.GetLoginURL(state, verifier), http.StatusTemporaryRedirect)
}

// Callback はOAuthコールバックを処理する。
// GET /auth/google/callback?code=xxx&state=yyy
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// 1. stateの検証（CSRF対策）
	state := query.Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(stateCookie.Value), []byte(state)) != 1 {
		slog.Warn("oauth state mismatch")
		http.Error(w, "invalid state parameter", http.StatusBadRequest)
		return
	}
	verifierCookie, err := r.Cookie(oauthVerifierCookie)
	if err != nil || verifierCookie.Value == "" {
		slog.Warn("oauth verifier cookie missing")
		http.Error(w, "invalid state parameter", http.StatusBadRequest)
		return
	}

	// 一度使ったstateとverifierは削除する
	h.setOAuthCookie(w, oauthStateCookie, "", -1)
	h.setOAuthCookie(w, oauthVerifierCookie, "", -1)

	// 2. 認可コードの取得（同意拒否時はerrorパラメータのみが返る）
	if oauthErr := query.Get("error"); oauthErr != "" {
		slog.Warn("oauth provider returned error", slog.String("error", oauthErr))
		http.Error(w, "authorization was not granted", http.StatusBadRequest)
		return
	}
	code := query.Get("code")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	// 3. ユーザーの検索または作成とセッションの発行
	_, sess, err := h.service.HandleCallback(r.Context(), code, verifierCookie.Value)
	if err != nil {
		if errors.Is(err, model.ErrAuthenticationFailed) {
			slog.Error("oauth callback failed", slog.String("error", err.Error()))
			http.Error(w, "authentication failed", http.StatusInternalServerError)
			return
		}
		middleware.WriteDomainError(w, r, err)
		return
	}

	// 4. セッションCookieを設定（HTTP Only）
	session.SetCookie(w, h.config.Cookie, sess.Token)

	// 5. フロントエンドにリダイレクト
	http.Redirect(w, r, h.config.BaseURL, http.StatusTemporaryRedirect)
}

// Logout はセッションを破棄する。
// POST /auth/logout
// セッションの有無や削除の成否にかかわらず常に成功を返す。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.config.Cookie.CookieName())
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			// ログアウト失敗してもCookieはクリアする
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
		}
	}

	session.ClearCookie(w, h.config.Cookie)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

func (h *AuthHandler) setOAuthCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     oauthCookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
