// Package cleanup は期限切れセッションの定期削除ジョブを提供する。
// セッションは検証時にも遅延削除されるが、二度とアクセスされない
// セッションはこのジョブで回収する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ExpiredSessionDeleter は期限切れセッションの一括削除インターフェース。
// repository.SessionRepositoryの部分集合。
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Recorder は削除件数のメトリクス記録インターフェース。
type Recorder interface {
	RecordSessionsCleaned(count int64)
}

// CleanupJob は期限切れセッションの削除ジョブ。
// 冪等であり、何度実行しても削除対象がなければ何もしない。
type CleanupJob struct {
	sessions ExpiredSessionDeleter
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
}

// NewCleanupJob は新しいCleanupJobを生成する。recorderはnilでもよい。
func NewCleanupJob(sessions ExpiredSessionDeleter, logger *slog.Logger, recorder Recorder) *CleanupJob {
	return &CleanupJob{
		sessions: sessions,
		logger:   logger,
		recorder: recorder,
		now:      time.Now,
	}
}

// Run はexpires_atが現在時刻以前のセッションを削除する。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := j.now()

	deletedCount, err := j.sessions.DeleteExpired(ctx, start)
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to clean up expired sessions: %w", err)
	}

	if j.recorder != nil {
		j.recorder.RecordSessionsCleaned(deletedCount)
	}

	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// Start は起動直後に1回、以降intervalごとにRunを実行する。
// ctxがキャンセルされるまでブロックする。Runの失敗はログに記録して継続する。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	j.runOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("セッションクリーンアップジョブを停止しました")
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *CleanupJob) runOnce(ctx context.Context) {
	// エラーはRun内でログ出力済み
	_ = j.Run(ctx)
}
