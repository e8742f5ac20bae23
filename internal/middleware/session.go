// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/markiiman/ecommerce-app/internal/model"
	"github.com/markiiman/ecommerce-app/internal/transport"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
	userIDContextKey = contextKey("user_id")
	// sessionContextKey は検証済みセッションを格納するためのキー。
	sessionContextKey = contextKey("session")
	// userContextKey は検証済みセッションの所有ユーザーを格納するためのキー。
	userContextKey = contextKey("user")
)

// SessionValidator はセッショントークンの検証に必要なインターフェース。
// session.Managerの部分集合として定義する。
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*model.Session, *model.SafeUser, error)
}

// NewSessionMiddleware はセッションCookieを検証し、
// 有効なセッションとユーザーをリクエストコンテキストに注入するミドルウェアを返す。
// 未認証のリクエストもそのまま通す。認証必須のルートにはRequireSessionを重ねる。
//
// 有効期限が延長された場合はCookieの有効期限も更新する。
// 無効なトークンを持つリクエストにはCookieの削除を指示する。
func NewSessionMiddleware(validator SessionValidator, cookie transport.CookieConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := transport.NewCookieTransport(w, r, cookie)

			token, ok := t.ReadToken()
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			session, user, err := validator.ValidateSession(r.Context(), token)
			if err != nil {
				slog.Error("failed to validate session",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if session == nil {
				t.ClearToken()
				next.ServeHTTP(w, r)
				return
			}

			if session.Renewed {
				t.PersistToken(token, session.ExpiresAt)
			}

			ctx := ContextWithSession(r.Context(), session, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession はNewSessionMiddlewareで検証済みのセッションがないリクエストに
// 401 Unauthorizedを返すミドルウェアを返す。
func RequireSession() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := SessionFromContext(r.Context()); !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContextWithSession はコンテキストに検証済みセッションと所有ユーザーを注入する。
func ContextWithSession(ctx context.Context, session *model.Session, user *model.SafeUser) context.Context {
	ctx = context.WithValue(ctx, sessionContextKey, session)
	ctx = context.WithValue(ctx, userContextKey, user)
	setLogUserID(ctx, session.UserID)
	return ContextWithUserID(ctx, session.UserID)
}

// SessionFromContext はリクエストコンテキストから検証済みセッションを取得する。
func SessionFromContext(ctx context.Context) (*model.Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(*model.Session)
	return session, ok && session != nil
}

// UserFromContext はリクエストコンテキストから検証済みセッションの所有ユーザーを取得する。
func UserFromContext(ctx context.Context) (*model.SafeUser, bool) {
	user, ok := ctx.Value(userContextKey).(*model.SafeUser)
	return user, ok && user != nil
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}
