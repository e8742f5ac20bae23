// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 認証処理の結果ラベル
const (
	ResultSuccess            = "success"
	ResultDuplicate          = "duplicate"
	ResultInvalidCredentials = "invalid_credentials"
	ResultInvalidInput       = "invalid_input"
	ResultError              = "error"
)

// SessionRecorder はセッション管理から利用するメトリクス記録インターフェース。
type SessionRecorder interface {
	RecordSessionCreated()
	RecordSessionRenewed()
	RecordSessionExpired()
	RecordSessionInvalidated()
}

// AuthRecorder は認証サービスから利用するメトリクス記録インターフェース。
type AuthRecorder interface {
	RecordRegistration(result string)
	RecordLogin(result string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	registrations       *prometheus.CounterVec
	logins              *prometheus.CounterVec
	sessionsCreated     prometheus.Counter
	sessionsRenewed     prometheus.Counter
	sessionsExpired     prometheus.Counter
	sessionsInvalidated prometheus.Counter
	sessionsCleaned     prometheus.Counter
	httpStatus          *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecommerce_auth_registrations_total",
			Help: "結果別のユーザー登録数",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecommerce_auth_logins_total",
			Help: "結果別のログイン試行数",
		}, []string{"result"}),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecommerce_sessions_created_total",
			Help: "作成されたセッションの合計数",
		}),
		sessionsRenewed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecommerce_sessions_renewed_total",
			Help: "有効期限が延長されたセッションの合計数",
		}),
		sessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecommerce_sessions_expired_total",
			Help: "アクセス時に期限切れとして削除されたセッションの合計数",
		}),
		sessionsInvalidated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecommerce_sessions_invalidated_total",
			Help: "ログアウト等で無効化されたセッション操作の合計数",
		}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecommerce_sessions_cleaned_total",
			Help: "クリーンアップジョブで削除された期限切れセッションの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecommerce_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.registrations,
		c.logins,
		c.sessionsCreated,
		c.sessionsRenewed,
		c.sessionsExpired,
		c.sessionsInvalidated,
		c.sessionsCleaned,
		c.httpStatus,
	)

	return c
}

// RecordRegistration はユーザー登録の結果を記録する。
func (c *Collector) RecordRegistration(result string) {
	c.registrations.WithLabelValues(result).Inc()
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

// RecordSessionCreated はセッション作成を記録する。
func (c *Collector) RecordSessionCreated() {
	c.sessionsCreated.Inc()
}

// RecordSessionRenewed はセッションの有効期限延長を記録する。
func (c *Collector) RecordSessionRenewed() {
	c.sessionsRenewed.Inc()
}

// RecordSessionExpired は期限切れセッションの削除を記録する。
func (c *Collector) RecordSessionExpired() {
	c.sessionsExpired.Inc()
}

// RecordSessionInvalidated はセッション無効化を記録する。
func (c *Collector) RecordSessionInvalidated() {
	c.sessionsInvalidated.Inc()
}

// RecordSessionsCleaned はクリーンアップで削除された件数を記録する。
func (c *Collector) RecordSessionsCleaned(count int64) {
	c.sessionsCleaned.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しないレコーダー。メトリクス不要なテストやツールで使う。
type Nop struct{}

func (Nop) RecordRegistration(string) {}
func (Nop) RecordLogin(string) {}
func (Nop) RecordSessionCreated() {}
func (Nop) RecordSessionRenewed() {}
func (Nop) RecordSessionExpired() {}
func (Nop) RecordSessionInvalidated() {}
func (Nop) RecordSessionsCleaned(int64) {}
func (Nop) RecordHTTPStatus(int) {}

// compile-time interface check
var (
	_ SessionRecorder = (*Collector)(nil)
	_ AuthRecorder    = (*Collector)(nil)
	_ SessionRecorder = Nop{}
	_ AuthRecorder    = Nop{}
)
