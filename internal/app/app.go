package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/taskboard/internal/auth"
	"github.com/hitoshi/taskboard/internal/config"
	"github.com/hitoshi/taskboard/internal/database"
	"github.com/hitoshi/taskboard/internal/handler"
	"github.com/hitoshi/taskboard/internal/logger"
	"github.com/hitoshi/taskboard/internal/metrics"
	"github.com/hitoshi/taskboard/internal/middleware"
	"github.com/hitoshi/taskboard/internal/repository"
	"github.com/hitoshi/taskboard/internal/task"
	"github.com/hitoshi/taskboard/internal/user"
)

const (
	defaultPort         = "5000"
	dbPingTimeout       = 5 * time.Second
	shutdownGracePeriod = 30 * time.Second
)

// Init はアプリケーションの初期化を行う。
// .envと環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. .envの読み込み（既存の環境変数が優先される）
	if err := config.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 4. 設定されたログレベルでロガーを再構成する
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		slog.Warn("unknown LOG_LEVEL, falling back to info", slog.String("log_level", cfg.LogLevel))
	}
	logger.SetupDefault(w, level)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = defaultPort
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("env", cfg.AppEnv),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := database.Ping(context.Background(), db, dbPingTimeout); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	// 2. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 3. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	taskRepo := repository.NewPostgresTaskRepo(db)

	// 4. 認証サービスの初期化
	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpire)
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}
	verifier := newIdentityVerifier(cfg.FirebaseProjectID)
	authService := auth.NewService(verifier, userRepo, tokens, collector)

	// 5. ドメインサービスの初期化
	userService := user.NewService(userRepo)
	taskService := task.NewService(taskRepo, collector)

	// 6. レート制限
	apiLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Name:    "api",
		Max:     cfg.RateLimitMax,
		Window:  cfg.RateLimitWindow,
		Message: middleware.APIRateLimitMessage,
	})
	defer apiLimiter.Stop()
	authLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Name:    "auth",
		Max:     cfg.AuthRateLimitMax,
		Window:  cfg.RateLimitWindow,
		Message: middleware.AuthRateLimitMessage,
	})
	defer authLimiter.Stop()

	// 7. ルーターの構築
	deps := &handler.RouterDeps{
		Authenticator:     authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		TrustProxy:        cfg.TrustProxy,
		APIRateLimiter:    apiLimiter,
		AuthRateLimiter:   authLimiter,
		Logger:            slog.Default(),
		Metrics:           collector,

		HealthChecker: db,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:   cfg.CookieDomain,
			CookieSecure:   cfg.CookieSecure,
			CookieSameSite: cfg.CookieSameSite,
			SessionMaxAge:  cfg.JWTExpire,
		},

		UserService: userService,
		TaskService: taskService,
	}
	if cfg.MetricsEnabled {
		deps.MetricsHandler = metrics.Handler(registry)
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
			slog.String("frontend_url", cfg.CORSAllowedOrigin),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-stop:
		slog.Info("shutting down API server...")
	case err := <-serverErr:
		return fmt.Errorf("server listen error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// newIdentityVerifier はFirebaseのIDトークン検証器を生成する。
// プロジェクトが特定できない場合は警告を出し、常に失敗する検証器を返す。
func newIdentityVerifier(projectID string) auth.IdentityVerifier {
	if projectID == "" {
		slog.Warn("firebase project is not configured, google login is disabled")
		return auth.UnavailableVerifier{}
	}

	verifier, err := auth.NewFirebaseVerifier(context.Background(), projectID)
	if err != nil {
		slog.Warn("firebase verifier initialization failed, google login is disabled",
			slog.String("error", err.Error()),
		)
		return auth.UnavailableVerifier{}
	}

	slog.Info("firebase verifier initialized", slog.String("project_id", projectID))
	return verifier
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
// 解釈できないURLは全体を伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
