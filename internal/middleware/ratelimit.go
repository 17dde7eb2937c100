package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/taskboard/internal/model"
)

// レート制限超過時のメッセージ
const (
	APIRateLimitMessage  = "Too many requests. Please try again later."
	AuthRateLimitMessage = "Too many authentication attempts. Please try again later."
)

// RateLimiterConfig はレート制限の設定を保持する。
// Window あたり Max リクエストをトークンバケットで近似する。
type RateLimiterConfig struct {
	Name            string        // ログに出力する識別子（api / auth）
	Max             int           // Window内の最大リクエスト数（バーストサイズ）
	Window          time.Duration // 制限のウィンドウ
	Message         string        // 429レスポンスのメッセージ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// 15分あたり100リクエスト/クライアント。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Name:            "api",
		Max:             100,
		Window:          15 * time.Minute,
		Message:         APIRateLimitMessage,
		CleanupInterval: 5 * time.Minute,
	}
}

// clientLimiter はクライアントごとのレートリミッターとアクセス時刻を保持する。
type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter はクライアントIPごとのレート制限を管理する。
type RateLimiter struct {
	config RateLimiterConfig
	limit  rate.Limit
	now    func() time.Time

	mu       sync.Mutex
	limiters map[string]*clientLimiter

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Max <= 0 {
		config.Max = 1
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	if config.Message == "" {
		config.Message = APIRateLimitMessage
	}

	rl := &RateLimiter{
		config:   config,
		limit:    rate.Limit(float64(config.Max) / config.Window.Seconds()),
		now:      time.Now,
		limiters: make(map[string]*clientLimiter),
		stopCh:   make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。複数回呼んでもよい。
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Middleware はクライアントIP単位のレート制限ミドルウェアを返す。
// プロキシ配下ではRealIPミドルウェアの後に配置する。
func (rl *RateLimiter) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)

			if !rl.allow(key) {
				rl.writeRateLimitResponse(w)
				slog.Warn("rate limit exceeded",
					slog.String("client", key),
					slog.String("limit_type", rl.config.Name),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LimiterCount は現在管理されているリミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) LimiterCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// allow はクライアントのリミッターを取得または作成し、1トークン消費できるかを返す。
func (rl *RateLimiter) allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	cl, exists := rl.limiters[key]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.config.Max)}
		rl.limiters[key] = cl
	}
	cl.lastAccess = now
	rl.mu.Unlock()

	return cl.limiter.AllowN(now, 1)
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup はウィンドウ以上アクセスのないエントリを削除する。
// その時点でバケットは満杯に戻っているため、削除しても制限結果は変わらない。
func (rl *RateLimiter) cleanup() {
	ttl := rl.config.Window
	if ttl < rl.config.CleanupInterval*2 {
		ttl = rl.config.CleanupInterval * 2
	}

	now := rl.now()

	rl.mu.Lock()
	for key, cl := range rl.limiters {
		if now.Sub(cl.lastAccess) > ttl {
			delete(rl.limiters, key)
		}
	}
	rl.mu.Unlock()
}

// retryAfterSeconds は1トークンが補充されるまでの秒数を返す。
func (rl *RateLimiter) retryAfterSeconds() int {
	sec := int(math.Ceil(1.0 / float64(rl.limit)))
	if sec < 1 {
		sec = 1
	}
	return sec
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
func (rl *RateLimiter) writeRateLimitResponse(w http.ResponseWriter) {
	w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfterSeconds()))
	WriteErrorResponse(w, http.StatusTooManyRequests, model.NewRateLimitedError(rl.config.Message))
}

// clientKey はRemoteAddrからポートを除いたクライアントIPを返す。
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
