package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// healthCheckTimeout はDB疎通確認のタイムアウト。
const healthCheckTimeout = 2 * time.Second

// HealthChecker はDB疎通確認のインターフェース。*sql.DBが実装する。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// HealthHandler はヘルスチェックのHTTPハンドラー。
type HealthHandler struct {
	checker HealthChecker
	now     func() time.Time
}

// NewHealthHandler はHealthHandlerを生成する。checkerがnilの場合はDB確認を省略する。
func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker, now: time.Now}
}

type healthResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
}

// Health はサーバーとDBの状態を返す。DBに接続できない場合は503。
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Success:   true,
		Message:   "Server is running",
		Timestamp: h.now().UTC(),
		Database:  "unchecked",
	}

	if h.checker != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if err := h.checker.PingContext(ctx); err != nil {
			slog.Warn("health check database ping failed", slog.String("error", err.Error()))
			resp.Success = false
			resp.Message = "Database unavailable"
			resp.Database = "disconnected"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Database = "connected"
	}

	writeJSON(w, http.StatusOK, resp)
}
