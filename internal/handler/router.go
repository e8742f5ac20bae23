package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/markiiman/ecommerce-app/internal/middleware"
	"github.com/markiiman/ecommerce-app/internal/transport"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	SessionValidator  middleware.SessionValidator
	CookieConfig      transport.CookieConfig
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	HTTPMetrics       middleware.HTTPStatusRecorder

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// 認証
	AuthService AuthServiceInterface

	// ユーザー
	UserService UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP → Recovery → SecurityHeaders → Logging → Metrics → CORS → Session → CSRF
//
// /health と /metrics はSession以降のミドルウェアの外に配置する。
// 認証必須のルートにはさらに RequireSession → RateLimit(General) を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	csrfConfig := middleware.CSRFConfig{
		CookieSecure: deps.CookieConfig.Secure,
		CookieDomain: deps.CookieConfig.Domain,
	}
	authHandler := NewAuthHandler(deps.AuthService, deps.CookieConfig)
	userHandler := NewUserHandler(deps.UserService, deps.CookieConfig)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

		// トークン発行はCSRFミドルウェアの外に置く
		r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(csrfConfig))

		r.Group(func(r chi.Router) {
			r.Use(middleware.NewSessionMiddleware(deps.SessionValidator, deps.CookieConfig))
			r.Use(middleware.NewCSRFMiddleware(csrfConfig))

			// --- 認証ルート ---
			r.Route("/auth", func(r chi.Router) {
				// 認証試行はIP単位で制限する
				r.With(deps.RateLimiter.AuthAttemptMiddleware()).Post("/register", authHandler.Register)
				r.With(deps.RateLimiter.AuthAttemptMiddleware()).Post("/login", authHandler.Login)

				r.Post("/logout", authHandler.Logout)
				r.Post("/logout-all", authHandler.LogoutAll)
				r.Get("/me", authHandler.Me)
			})

			// --- 認証が必要なルート ---
			// ミドルウェアスタック: RequireSession → RateLimit(General)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSession())
				r.Use(deps.RateLimiter.GeneralMiddleware())

				r.Route("/api/users/me", func(r chi.Router) {
					r.Put("/password", userHandler.ChangePassword)
					r.Delete("/", userHandler.Withdraw)
				})
			})
		})
	})

	return r
}
