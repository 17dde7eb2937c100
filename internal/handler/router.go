package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/taskboard/internal/metrics"
	"github.com/hitoshi/taskboard/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator     middleware.Authenticator
	CORSAllowedOrigin string
	TrustProxy        bool
	APIRateLimiter    *middleware.RateLimiter
	AuthRateLimiter   *middleware.RateLimiter
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler // nilの場合 /metrics を公開しない

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ユーザー
	UserService UserServiceInterface

	// タスク
	TaskService TaskServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → SecurityHeaders → CORS → [RealIP] → ルート
//
// /api 配下はAPIレート制限、ログイン系はさらに認証レート制限を通る。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.Nop{}
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(collector))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.TrustProxy {
		r.Use(chimw.RealIP)
	}

	// 未定義ルート・未対応メソッドはどちらも404
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	userHandler := NewUserHandler(deps.UserService)
	taskHandler := NewTaskHandler(deps.TaskService)
	healthHandler := NewHealthHandler(deps.HealthChecker)
	requireAuth := middleware.NewAuthMiddleware(deps.Authenticator)

	// --- 認証不要のルート ---
	r.Get("/health", healthHandler.Health)
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		if deps.APIRateLimiter != nil {
			r.Use(deps.APIRateLimiter.Middleware())
		}

		r.Route("/auth", func(r chi.Router) {
			// ログイン系（認証レート制限を追加）
			r.Group(func(r chi.Router) {
				if deps.AuthRateLimiter != nil {
					r.Use(deps.AuthRateLimiter.Middleware())
				}
				r.Post("/google-login", authHandler.GoogleLogin)
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
			})

			r.Post("/logout", authHandler.Logout)

			// --- 認証が必要なルート ---
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/set-password", userHandler.SetPassword)
				r.Get("/me", userHandler.Me)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/", taskHandler.ListTasks)
			r.Post("/", taskHandler.CreateTask)
			r.Get("/dashboard", taskHandler.Dashboard)
			r.Put("/{id}", taskHandler.UpdateTask)
			r.Delete("/{id}", taskHandler.DeleteTask)
		})
	})

	return r
}
