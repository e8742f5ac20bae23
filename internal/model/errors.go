package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUserAlreadyExists      = "USER_ALREADY_EXISTS"
	ErrCodeInvalidCredentials     = "INVALID_CREDENTIALS"
	ErrCodeRegistrationFailed     = "REGISTRATION_FAILED"
	ErrCodeUnauthorized           = "UNAUTHORIZED"
	ErrCodeUserNotFound           = "USER_NOT_FOUND"
	ErrCodeInvalidInput           = "INVALID_INPUT"
	ErrCodeInvalidCurrentPassword = "INVALID_CURRENT_PASSWORD"
	ErrCodeCSRFValidation         = "CSRF_VALIDATION_FAILED"
	ErrCodeRateLimited            = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal               = "INTERNAL_ERROR"
)

// NewUserAlreadyExistsError は登録済みメールアドレスでの登録エラーを生成する。
func NewUserAlreadyExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeUserAlreadyExists,
		Message:  "User already exists. Please login instead",
		Category: "auth",
		Action:   "Sign in with this email address.",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// メールアドレス未登録とパスワード不一致を区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid email and/or password",
		Category: "auth",
		Action:   "Check your email address and password.",
	}
}

// NewRegistrationFailedError は永続化の失敗による登録エラーを生成する。
// 原因の詳細はログにのみ記録する。
func NewRegistrationFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeRegistrationFailed,
		Message:  "Failed to register user",
		Category: "system",
		Action:   "Please try again later.",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Authentication required",
		Category: "auth",
		Action:   "Please sign in.",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found",
		Category: "auth",
		Action:   "Please sign in again.",
	}
}

// NewInvalidInputError は入力値の検証エラーを生成する。
func NewInvalidInputError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidInput,
		Message:  fmt.Sprintf("Invalid input: %s", reason),
		Category: "validation",
		Action:   "Check the submitted form data.",
	}
}

// NewInvalidCurrentPasswordError はパスワード変更時に現在のパスワードが一致しない場合のエラーを生成する。
func NewInvalidCurrentPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCurrentPassword,
		Message:  "Current password is incorrect",
		Category: "auth",
		Action:   "Enter your current password.",
	}
}

// NewCSRFValidationError はCSRFトークン検証失敗エラーを生成する。
func NewCSRFValidationError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFValidation,
		Message:  "CSRF token validation failed",
		Category: "auth",
		Action:   "Reload the page and try again.",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
		Action:   "Please wait and retry after the specified time.",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログにのみ記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "An internal error occurred.",
		Category: "system",
		Action:   "Please try again later.",
	}
}
