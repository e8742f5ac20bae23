// Package model はドメインモデルを定義する。
package model

import "time"

// User は登録済みユーザーを表す。
// PasswordHashは永続化層と認証サービスの内部でのみ扱い、外部には返さない。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SafeUser はパスワードハッシュを除いたユーザー情報。
// サービス層の外へ返すユーザーは常にこの型を使う。
type SafeUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Safe はパスワードハッシュを取り除いたSafeUserを返す。
func (u *User) Safe() *SafeUser {
	if u == nil {
		return nil
	}
	return &SafeUser{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Session はユーザーのログインセッションを表す。
// IDはクライアントが保持するトークンのダイジェストであり、トークンそのものではない。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time

	// Renewed は直前の検証で有効期限が延長されたことを示す。永続化しない。
	Renewed bool
}
