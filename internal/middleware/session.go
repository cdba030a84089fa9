// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/codereview/internal/metrics"
	"github.com/hitoshi/codereview/internal/model"
	"github.com/hitoshi/codereview/internal/session"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	userContextKey  = contextKey("user")
	tokenContextKey = contextKey("session_token")
)

// SessionFinder はセッションの検索に必要なインターフェース。
// session.Storeの部分集合として定義する。
type SessionFinder interface {
	FindByToken(ctx context.Context, token string) (*model.Session, error)
}

// UserFinder はユーザーの検索に必要なインターフェース。
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// SessionConfig はセッションミドルウェアの設定。
type SessionConfig struct {
	CookieName string
	// Now は有効期限の判定に使う時計。nilの場合はtime.Now。
	Now func() time.Time
}

// NewSessionMiddleware はCookieのセッショントークンを検証し、
// 認証済みユーザーとトークンをリクエストコンテキストに注入するミドルウェアを返す。
// 検証失敗はすべて同じ401レスポンスになり、理由はログとメトリクスにのみ残す。
// セッションもユーザーも書き換えない。
func NewSessionMiddleware(cfg SessionConfig, sessions SessionFinder, users UserFinder, recorder metrics.MetricsCollector) func(next http.Handler) http.Handler {
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = session.DefaultCookieName
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	reject := func(w http.ResponseWriter, r *http.Request, reason string) {
		if recorder != nil {
			recorder.RecordAuthRejection(reason)
		}
		slog.Debug("request rejected by session check",
			slog.String("reason", reason),
			slog.String("path", r.URL.Path),
		)
		WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
	}

	storeFailure := func(w http.ResponseWriter, r *http.Request, err error) {
		if recorder != nil {
			recorder.RecordAuthRejection(metrics.RejectStoreError)
		}
		slog.Error("session check failed",
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path),
		)
		WriteInternalServerError(w)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Cookieからトークンを取得
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				reject(w, r, metrics.RejectMissingCookie)
				return
			}

			// 2. トークンに一致するセッションを検索
			s, err := sessions.FindByToken(r.Context(), cookie.Value)
			if err != nil {
				storeFailure(w, r, err)
				return
			}
			if s == nil {
				reject(w, r, metrics.RejectUnknownToken)
				return
			}

			// 3. 有効期限を検証
			if session.IsExpired(s, now()) {
				reject(w, r, metrics.RejectExpiredSession)
				return
			}

			// 4. セッションの所有ユーザーを解決
			user, err := users.FindByID(r.Context(), s.UserID)
			if err != nil {
				storeFailure(w, r, err)
				return
			}
			if user == nil {
				reject(w, r, metrics.RejectOrphanSession)
				return
			}

			// 5. ユーザーとトークンをコンテキストに注入
			ctx := ContextWithUser(r.Context(), user)
			ctx = context.WithValue(ctx, tokenContextKey, cookie.Value)
			setRequestUserID(ctx, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// errNoUser はコンテキストに認証済みユーザーが無いことを表す。
var errNoUser = errors.New("user not found in context")

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	return user, ok && user != nil
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (int64, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return 0, errNoUser
	}
	return user.ID, nil
}

// SessionTokenFromContext は検証済みのセッショントークンを取得する。
func SessionTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey).(string)
	return token, ok && token != ""
}

// ContextWithUser はコンテキストにユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
