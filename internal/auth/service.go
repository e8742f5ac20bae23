// Package auth はメールアドレスとパスワードによるユーザー登録、ログイン、ログアウトを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/markiiman/ecommerce-app/internal/credential"
	"github.com/markiiman/ecommerce-app/internal/metrics"
	"github.com/markiiman/ecommerce-app/internal/model"
	"github.com/markiiman/ecommerce-app/internal/repository"
)

// TokenTransport はセッショントークンをクライアントへ受け渡す手段。
// 1リクエストに対して1つ生成され、リクエストをまたいで共有しない。
type TokenTransport interface {
	// PersistToken はトークンを有効期限付きでクライアントに保存させる。
	PersistToken(token string, expiresAt time.Time)
	// ClearToken はクライアントに保存されたトークンを削除させる。
	ClearToken()
	// ReadToken はリクエストに含まれるトークンを返す。
	ReadToken() (string, bool)
}

// SessionManager は認証サービスが利用するセッション操作。
type SessionManager interface {
	CreateSession(ctx context.Context, token, userID string) (*model.Session, error)
	ValidateSession(ctx context.Context, token string) (*model.Session, *model.SafeUser, error)
	InvalidateSession(ctx context.Context, sessionID string) error
	InvalidateAllSessions(ctx context.Context, userID string) error
}

// TokenGenerator はセッショントークンを生成する関数。
type TokenGenerator func() (string, error)

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo      repository.UserRepository
	sessions      SessionManager
	hasher        credential.PasswordHasher
	metrics       metrics.AuthRecorder
	generateToken TokenGenerator
}

// NewService はServiceを生成する。recorderがnilの場合はメトリクスを記録しない。
func NewService(
	userRepo repository.UserRepository,
	sessions SessionManager,
	hasher credential.PasswordHasher,
	generateToken TokenGenerator,
	recorder metrics.AuthRecorder,
) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{
		userRepo:      userRepo,
		sessions:      sessions,
		hasher:        hasher,
		metrics:       recorder,
		generateToken: generateToken,
	}
}

// RegisterUser は新しいユーザーを登録する。
//
// 登録済みのメールアドレスの場合はNewUserAlreadyExistsErrorを返す。
// 事前チェックをすり抜けた同時登録はusersテーブルのUNIQUE制約で検出し、同じエラーにする。
// 永続化の失敗はNewRegistrationFailedErrorとして返し、原因はログにのみ記録する。
func (s *Service) RegisterUser(ctx context.Context, email, password string) (*model.SafeUser, error) {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		slog.Error("failed to check existing user", slog.String("error", err.Error()))
		s.metrics.RecordRegistration(metrics.ResultError)
		return nil, model.NewRegistrationFailedError()
	}
	if existing != nil {
		s.metrics.RecordRegistration(metrics.ResultDuplicate)
		return nil, model.NewUserAlreadyExistsError()
	}

	passwordHash, err := s.hasher.Hash(password)
	if errors.Is(err, credential.ErrPasswordTooLong) {
		s.metrics.RecordRegistration(metrics.ResultInvalidInput)
		return nil, model.NewInvalidInputError("password is too long")
	}
	if err != nil {
		slog.Error("failed to hash password", slog.String("error", err.Error()))
		s.metrics.RecordRegistration(metrics.ResultError)
		return nil, model.NewRegistrationFailedError()
	}

	user, err := s.userRepo.Create(ctx, email, passwordHash)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		s.metrics.RecordRegistration(metrics.ResultDuplicate)
		return nil, model.NewUserAlreadyExistsError()
	}
	if err != nil {
		slog.Error("failed to create user", slog.String("error", err.Error()))
		s.metrics.RecordRegistration(metrics.ResultError)
		return nil, model.NewRegistrationFailedError()
	}

	s.metrics.RecordRegistration(metrics.ResultSuccess)
	slog.Info("user registered", slog.String("user_id", user.ID))
	return user.Safe(), nil
}

// LoginUser はメールアドレスとパスワードを検証し、新しいセッションを発行する。
//
// 未登録のメールアドレスとパスワード不一致はどちらもNewInvalidCredentialsErrorを返す。
// 成功時はトークンをtransportに渡し、パスワードハッシュを含まないユーザーを返す。
func (s *Service) LoginUser(ctx context.Context, t TokenTransport, email, password string) (*model.SafeUser, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		s.metrics.RecordLogin(metrics.ResultError)
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.metrics.RecordLogin(metrics.ResultInvalidCredentials)
		return nil, model.NewInvalidCredentialsError()
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		s.metrics.RecordLogin(metrics.ResultError)
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.metrics.RecordLogin(metrics.ResultInvalidCredentials)
		return nil, model.NewInvalidCredentialsError()
	}

	token, err := s.generateToken()
	if err != nil {
		s.metrics.RecordLogin(metrics.ResultError)
		return nil, err
	}

	session, err := s.sessions.CreateSession(ctx, token, user.ID)
	if err != nil {
		s.metrics.RecordLogin(metrics.ResultError)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	t.PersistToken(token, session.ExpiresAt)

	s.metrics.RecordLogin(metrics.ResultSuccess)
	slog.Info("user logged in", slog.String("user_id", user.ID))
	return user.Safe(), nil
}

// LogoutUser は現在のセッションを無効化し、transportのトークンを削除する。
// currentには検証済みのセッションを渡す。nilの場合はtransportのトークンから検証する。
// セッションが存在しない場合やストアの失敗時もトークンは必ず削除する。
func (s *Service) LogoutUser(ctx context.Context, t TokenTransport, current *model.Session) error {
	defer t.ClearToken()

	session, err := s.resolveSession(ctx, t, current)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}

	if err := s.sessions.InvalidateSession(ctx, session.ID); err != nil {
		return err
	}

	slog.Info("user logged out", slog.String("user_id", session.UserID))
	return nil
}

// LogoutAllSessions は現在のユーザーの全セッションを無効化し、transportのトークンを削除する。
// currentの扱いはLogoutUserと同じ。有効なセッションがない場合はNewUnauthorizedErrorを返す。
func (s *Service) LogoutAllSessions(ctx context.Context, t TokenTransport, current *model.Session) error {
	defer t.ClearToken()

	session, err := s.resolveSession(ctx, t, current)
	if err != nil {
		return err
	}
	if session == nil {
		return model.NewUnauthorizedError()
	}

	return s.sessions.InvalidateAllSessions(ctx, session.UserID)
}

// resolveSession はcurrentがあればそれを返し、なければtransportのトークンを検証する。
func (s *Service) resolveSession(ctx context.Context, t TokenTransport, current *model.Session) (*model.Session, error) {
	if current != nil {
		return current, nil
	}
	session, _, err := s.CurrentSession(ctx, t)
	return session, err
}

// CurrentSession はtransportのトークンに対応する有効なセッションとユーザーを返す。
// トークンがない場合や無効な場合はnil, nil, nilを返す。
func (s *Service) CurrentSession(ctx context.Context, t TokenTransport) (*model.Session, *model.SafeUser, error) {
	token, ok := t.ReadToken()
	if !ok || token == "" {
		return nil, nil, nil
	}
	return s.sessions.ValidateSession(ctx, token)
}
