// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/markiiman/ecommerce-app/internal/auth"
	"github.com/markiiman/ecommerce-app/internal/middleware"
	"github.com/markiiman/ecommerce-app/internal/model"
	"github.com/markiiman/ecommerce-app/internal/transport"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	RegisterUser(ctx context.Context, email, password string) (*model.SafeUser, error)
	LoginUser(ctx context.Context, t auth.TokenTransport, email, password string) (*model.SafeUser, error)
	LogoutUser(ctx context.Context, t auth.TokenTransport, current *model.Session) error
	LogoutAllSessions(ctx context.Context, t auth.TokenTransport, current *model.Session) error
}

// credentialsRequest は登録・ログインのリクエストボディ。
type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=5,max=128"`
}

// userResponse はユーザー情報のレスポンス。
type userResponse struct {
	User *model.SafeUser `json:"user"`
}

// AuthHandler はメールアドレスとパスワードによる認証のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	cookie  transport.CookieConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, cookie transport.CookieConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		cookie:  cookie,
	}
}

// Register はユーザーを登録する。セッションは作成しない。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeRequest(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	user, err := h.service.RegisterUser(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{User: user})
}

// Login は認証に成功した場合にセッションCookieを設定してユーザー情報を返す。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeRequest(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	t := transport.NewCookieTransport(w, r, h.cookie)
	user, err := h.service.LoginUser(r.Context(), t, req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{User: user})
}

// Logout は現在のセッションを破棄する。
// セッションがない場合やストアの失敗時もCookieは削除される。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	t := transport.NewCookieTransport(w, r, h.cookie)
	current, _ := middleware.SessionFromContext(r.Context())
	if err := h.service.LogoutUser(r.Context(), t, current); err != nil {
		// ログアウト失敗してもCookieはクリア済み
		slog.Error("failed to logout", slog.String("error", err.Error()))
	}

	w.WriteHeader(http.StatusNoContent)
}

// LogoutAll は現在のユーザーの全セッションを破棄する。
// POST /auth/logout-all
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	t := transport.NewCookieTransport(w, r, h.cookie)
	current, _ := middleware.SessionFromContext(r.Context())
	if err := h.service.LogoutAllSessions(r.Context(), t, current); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	writeJSON(w, http.StatusOK, userResponse{User: user})
}
