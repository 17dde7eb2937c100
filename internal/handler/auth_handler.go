// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/taskboard/internal/auth"
	"github.com/hitoshi/taskboard/internal/middleware"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	GoogleLogin(ctx context.Context, idToken string) (*auth.LoginResult, error)
	Register(ctx context.Context, input auth.RegisterInput) (*auth.LoginResult, error)
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite
	SessionMaxAge  time.Duration // セッションCookieの有効期間
}

// AuthHandler はログイン・登録・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	if config.CookieSameSite == 0 {
		config.CookieSameSite = http.SameSiteLaxMode
	}
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

type googleLoginRequest struct {
	Token string `json:"token"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse はセッション発行時のレスポンス。
// Cookieを使えないクライアント向けにトークンもボディで返す。
type loginResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    userResponse `json:"user"`
}

// GoogleLogin はIdPのIDトークンでログインする。
// POST /api/auth/google-login
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.GoogleLogin(r.Context(), req.Token)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.writeSession(w, http.StatusOK, "Login successful", result)
}

// Register はメールアドレス/パスワードでユーザーを登録する。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.Register(r.Context(), auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.writeSession(w, http.StatusCreated, "Registration successful", result)
}

// Login はメールアドレス/パスワードでログインする。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.writeSession(w, http.StatusOK, "Login successful", result)
}

// Logout はセッションCookieを削除する。トークン自体はサーバー側で失効させない。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.cookie("", -1))
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Logout successful"})
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, statusCode int, message string, result *auth.LoginResult) {
	http.SetCookie(w, h.cookie(result.Token, int(h.config.SessionMaxAge.Seconds())))
	writeJSON(w, statusCode, loginResponse{
		Success: true,
		Message: message,
		Token:   result.Token,
		User:    toUserResponse(result.User),
	})
}

func (h *AuthHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    value,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: h.config.CookieSameSite,
	}
}
