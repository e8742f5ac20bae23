// Package session はセッショントークンの発行、検証、延長、無効化を提供する。
//
// クライアントにはランダムなトークンを渡し、DBにはそのダイジェストだけを
// セッションIDとして保存する。DBの内容が漏れても有効なトークンは復元できない。
package session

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/markiiman/ecommerce-app/internal/credential"
	"github.com/markiiman/ecommerce-app/internal/metrics"
	"github.com/markiiman/ecommerce-app/internal/model"
	"github.com/markiiman/ecommerce-app/internal/repository"
)

// tokenBytes はトークン生成に使う乱数のバイト数（160ビット）。
const tokenBytes = 20

var tokenEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Config はセッション管理の設定。
type Config struct {
	TTL         time.Duration // 作成時および延長時の有効期間
	RenewWindow time.Duration // 残り期間がこの値以下になったら延長する
}

// DefaultConfig は有効期間30日、延長判定15日の設定を返す。
func DefaultConfig() Config {
	return Config{
		TTL:         30 * 24 * time.Hour,
		RenewWindow: 15 * 24 * time.Hour,
	}
}

// Manager はセッションのライフサイクルを管理する。
// プロセス内に共有の可変状態は持たず、すべての状態はSessionRepositoryにある。
type Manager struct {
	repo    repository.SessionRepository
	config  Config
	metrics metrics.SessionRecorder
	now     func() time.Time
}

// NewManager はManagerを生成する。recorderがnilの場合はメトリクスを記録しない。
func NewManager(repo repository.SessionRepository, config Config, recorder metrics.SessionRecorder) *Manager {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Manager{
		repo:    repo,
		config:  config,
		metrics: recorder,
		now:     time.Now,
	}
}

// GenerateToken は暗号論的に安全な乱数から新しいセッショントークンを生成する。
// 20バイトの乱数を小文字base32（パディングなし）で表現する。
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return strings.ToLower(tokenEncoding.EncodeToString(b)), nil
}

// SessionID はトークンから保存用のセッションIDを導出する。
func SessionID(token string) string {
	return credential.DigestString(token)
}

// CreateSession はトークンに対応するセッションを作成し永続化する。
// 永続化に失敗した場合はエラーをそのまま呼び出し元に返す。
func (m *Manager) CreateSession(ctx context.Context, token, userID string) (*model.Session, error) {
	now := m.now()
	session := &model.Session{
		ID:        SessionID(token),
		UserID:    userID,
		ExpiresAt: now.Add(m.config.TTL),
		CreatedAt: now,
	}

	if err := m.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	m.metrics.RecordSessionCreated()
	return session, nil
}

// ValidateSession はトークンに対応するセッションと所有ユーザーを返す。
//
// セッションが存在しない場合、または期限切れの場合はnil, nil, nilを返す。
// 期限切れのセッションはこの呼び出しの中で削除する。
// 残り期間がRenewWindow以下の場合は有効期限をnow+TTLに延長して永続化してから返す。
func (m *Manager) ValidateSession(ctx context.Context, token string) (*model.Session, *model.SafeUser, error) {
	sessionID := SessionID(token)

	session, user, err := m.repo.FindByIDWithUser(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil || user == nil {
		return nil, nil, nil
	}

	now := m.now()
	if !now.Before(session.ExpiresAt) {
		if err := m.repo.DeleteByID(ctx, sessionID); err != nil {
			return nil, nil, fmt.Errorf("failed to delete expired session: %w", err)
		}
		m.metrics.RecordSessionExpired()
		slog.Info("expired session reaped", slog.String("user_id", session.UserID))
		return nil, nil, nil
	}

	if !now.Before(session.ExpiresAt.Add(-m.config.RenewWindow)) {
		expiresAt := now.Add(m.config.TTL)
		if err := m.repo.UpdateExpiresAt(ctx, sessionID, expiresAt); err != nil {
			return nil, nil, fmt.Errorf("failed to renew session: %w", err)
		}
		session.ExpiresAt = expiresAt
		session.Renewed = true
		m.metrics.RecordSessionRenewed()
		slog.Debug("session renewed",
			slog.String("user_id", session.UserID),
			slog.Time("expires_at", expiresAt),
		)
	}

	return session, user.Safe(), nil
}

// InvalidateSession は指定IDのセッションを削除する。
func (m *Manager) InvalidateSession(ctx context.Context, sessionID string) error {
	if err := m.repo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}
	m.metrics.RecordSessionInvalidated()
	return nil
}

// InvalidateAllSessions は指定ユーザーの全セッションを削除する。
func (m *Manager) InvalidateAllSessions(ctx context.Context, userID string) error {
	if err := m.repo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to invalidate user sessions: %w", err)
	}
	m.metrics.RecordSessionInvalidated()
	slog.Info("all sessions invalidated", slog.String("user_id", userID))
	return nil
}
