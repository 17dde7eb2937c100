package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTExpire はJWT_EXPIRE未設定時のセッション有効期間（7日）。
const DefaultJWTExpire = 7 * 24 * time.Hour

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Session
	JWTSecret string
	JWTExpire time.Duration

	// Identity provider
	FirebaseProjectID string

	// Rate Limit
	RateLimitWindow  time.Duration
	RateLimitMax     int
	AuthRateLimitMax int
	TrustProxy       bool

	// Server
	ServerPort string
	AppEnv     string

	// Cookie
	CookieSecure   bool
	CookieSameSite http.SameSite
	CookieDomain   string

	// CORS
	CORSAllowedOrigin string

	// Observability
	MetricsEnabled bool
	LogLevel       string
}

// LoadDotEnv はカレントディレクトリの.envを環境変数に読み込む。
// 既に設定されている環境変数は上書きしない。ファイルがない場合は何もしない。
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合や値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	expire, err := ParseExpire(getEnvString("JWT_EXPIRE", ""), DefaultJWTExpire)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRE: %w", err)
	}
	cfg.JWTExpire = expire

	sameSite, err := ParseSameSite(getEnvString("COOKIE_SAME_SITE", "lax"))
	if err != nil {
		return nil, fmt.Errorf("invalid COOKIE_SAME_SITE: %w", err)
	}
	cfg.CookieSameSite = sameSite

	projectID, err := resolveFirebaseProjectID()
	if err != nil {
		return nil, err
	}
	cfg.FirebaseProjectID = projectID

	// Optional fields with defaults
	cfg.RateLimitWindow = getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute)
	cfg.RateLimitMax = getEnvInt("RATE_LIMIT_MAX", 100)
	cfg.AuthRateLimitMax = getEnvInt("AUTH_RATE_LIMIT_MAX", 100)
	cfg.TrustProxy = getEnvBool("TRUST_PROXY", false)
	cfg.ServerPort = getEnvString("PORT", "5000")
	cfg.AppEnv = getEnvString("APP_ENV", "development")
	cfg.CookieSecure = getEnvBool("COOKIE_SECURE", false)
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("FRONTEND_URL", "http://localhost:4200")
	cfg.MetricsEnabled = getEnvBool("METRICS_ENABLED", true)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	// ブラウザはSecureなしのSameSite=Noneを拒否する
	if cfg.CookieSameSite == http.SameSiteNoneMode && !cfg.CookieSecure {
		return nil, fmt.Errorf("COOKIE_SAME_SITE=none requires COOKIE_SECURE=true")
	}

	return cfg, nil
}

// ParseExpire はGoのduration表記または "<n>d" 形式の日数を解釈する。
// 空文字の場合はdefaultValを返す。
func ParseExpire(v string, defaultVal time.Duration) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return defaultVal, nil
	}

	var d time.Duration
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", v)
		}
		d = time.Duration(n) * 24 * time.Hour
	} else {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return 0, err
		}
		d = parsed
	}

	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive: %q", v)
	}
	return d, nil
}

// ParseSameSite はCookieのSameSite属性名をhttp.SameSiteに変換する。
func ParseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("unknown SameSite value %q", v)
	}
}

// resolveFirebaseProjectID はFIREBASE_PROJECT_ID、FIREBASE_SERVICE_ACCOUNT、
// GOOGLE_APPLICATION_CREDENTIALSの順にプロジェクトIDを探す。見つからない場合は空文字を返す。
func resolveFirebaseProjectID() (string, error) {
	if id := getEnvString("FIREBASE_PROJECT_ID", ""); id != "" {
		return id, nil
	}

	if raw := os.Getenv("FIREBASE_SERVICE_ACCOUNT"); raw != "" {
		id, err := projectIDFromServiceAccount([]byte(raw))
		if err != nil {
			return "", fmt.Errorf("invalid FIREBASE_SERVICE_ACCOUNT: %w", err)
		}
		return id, nil
	}

	if path := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read GOOGLE_APPLICATION_CREDENTIALS: %w", err)
		}
		id, err := projectIDFromServiceAccount(data)
		if err != nil {
			return "", fmt.Errorf("invalid GOOGLE_APPLICATION_CREDENTIALS: %w", err)
		}
		return id, nil
	}

	return "", nil
}

func projectIDFromServiceAccount(data []byte) (string, error) {
	var account struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(data, &account); err != nil {
		return "", err
	}
	return account.ProjectID, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
