package handler

import (
	"context"
	"net/http"

	"github.com/markiiman/ecommerce-app/internal/middleware"
	"github.com/markiiman/ecommerce-app/internal/model"
	"github.com/markiiman/ecommerce-app/internal/transport"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// ChangePassword は現在のパスワードを確認して新しいパスワードに変更する。
	// ユーザーの全セッションは無効化される。
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error

	// Withdraw はユーザーの全セッションを無効化してユーザーを削除する。
	Withdraw(ctx context.Context, userID string) error
}

// changePasswordRequest はパスワード変更のリクエストボディ。
type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,max=128"`
	NewPassword     string `json:"new_password" validate:"required,min=5,max=128,nefield=CurrentPassword"`
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
	cookie  transport.CookieConfig
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, cookie transport.CookieConfig) *UserHandler {
	return &UserHandler{
		service: service,
		cookie:  cookie,
	}
}

// ChangePassword はパスワードを変更する。
// 全セッションが無効化されるため、現在のセッションCookieも削除する。
// PUT /api/users/me/password
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req changePasswordRequest
	if err := decodeRequest(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		handleServiceError(w, err)
		return
	}

	transport.NewCookieTransport(w, r, h.cookie).ClearToken()
	w.WriteHeader(http.StatusNoContent)
}

// Withdraw はユーザーの退会処理を実行する。
// DELETE /api/users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if err := h.service.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	transport.NewCookieTransport(w, r, h.cookie).ClearToken()
	w.WriteHeader(http.StatusNoContent)
}
