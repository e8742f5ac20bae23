// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/markiiman/ecommerce-app/internal/model"
)

// ErrDuplicateEmail は同じメールアドレスのユーザーが既に存在する場合に返される。
// usersテーブルのUNIQUE制約違反から変換される。
var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
	// メールアドレスは保存されたとおり大文字小文字を区別して比較する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成して返す。
	// メールアドレスが重複している場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, email, passwordHash string) (*model.User, error)

	// UpdatePasswordHash はユーザーのパスワードハッシュを更新する。
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するsessionsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByIDWithUser は指定IDのセッションを所有ユーザーと合わせて取得する。
	// 期限切れかどうかは判定しない。見つからない場合はnil, nilを返す。
	FindByIDWithUser(ctx context.Context, id string) (*model.Session, *model.User, error)

	// UpdateExpiresAt はセッションの有効期限を更新する。
	UpdateExpiresAt(ctx context.Context, id string, expiresAt time.Time) error

	// DeleteByID は指定IDのセッションを削除する。存在しない場合もエラーにしない。
	DeleteByID(ctx context.Context, id string) error

	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error

	// DeleteExpired はexpires_atがnow以前のセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
