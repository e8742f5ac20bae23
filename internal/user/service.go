// Package user はアカウント管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/markiiman/ecommerce-app/internal/credential"
	"github.com/markiiman/ecommerce-app/internal/model"
	"github.com/markiiman/ecommerce-app/internal/repository"
)

// SessionInvalidator はユーザーの全セッション無効化インターフェース。
type SessionInvalidator interface {
	InvalidateAllSessions(ctx context.Context, userID string) error
}

// Service はアカウント管理のサービス層。
// パスワード変更と退会処理のビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	sessions SessionInvalidator
	hasher   credential.PasswordHasher
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessions SessionInvalidator,
	hasher credential.PasswordHasher,
) *Service {
	return &Service{
		userRepo: userRepo,
		sessions: sessions,
		hasher:   hasher,
	}
}

// ChangePassword は現在のパスワードを確認してから新しいパスワードに変更する。
// 変更後はこのユーザーの全セッションを無効化し、全端末で再ログインを求める。
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	ok, err := s.hasher.Verify(user.PasswordHash, currentPassword)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return model.NewInvalidCurrentPasswordError()
	}

	hash, err := s.hasher.Hash(newPassword)
	if errors.Is(err, credential.ErrPasswordTooLong) {
		return model.NewInvalidInputError("new password is too long")
	}
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.sessions.InvalidateAllSessions(ctx, userID); err != nil {
		return fmt.Errorf("failed to invalidate sessions: %w", err)
	}

	slog.Info("パスワードを変更しました",
		slog.String("user_id", userID),
	)

	return nil
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: sessions → user
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	// ユーザー存在確認
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します",
		slog.String("user_id", userID),
	)

	// 1. セッションを削除
	if err := s.sessions.InvalidateAllSessions(ctx, userID); err != nil {
		return fmt.Errorf("failed to invalidate sessions: %w", err)
	}

	// 2. ユーザーを削除（残ったsessionsもCASCADE削除）
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", userID),
	)

	return nil
}
