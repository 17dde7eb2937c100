// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/taskboard/internal/model"
)

// TokenCookieName はセッショントークンを保持するCookie名。
const TokenCookieName = "token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	userContextKey        = contextKey("user")
	requestInfoContextKey = contextKey("request_info")
)

// Authenticator はセッショントークンからユーザーを解決するインターフェース。
// auth.Serviceが実装する。
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// NewAuthMiddleware はCookieまたはAuthorizationヘッダーからセッショントークンを読み取り、
// 認証済みユーザーをリクエストコンテキストに注入するミドルウェアを返す。
// トークンの欠落・不正・期限切れ・ユーザー不在はすべて401を返す。
func NewAuthMiddleware(authenticator Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			user, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				var apiErr *model.APIError
				if !errors.As(err, &apiErr) {
					slog.Error("failed to authenticate request", slog.String("error", err.Error()))
				}
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// TokenFromRequest はCookie "token" を優先し、なければBearerトークンを返す。
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(TokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// ContextWithUser はコンテキストに認証済みユーザーを注入する。
// ロギングミドルウェア配下であればアクセスログにもユーザーIDを記録する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	if info, ok := ctx.Value(requestInfoContextKey).(*requestInfo); ok && user != nil {
		info.userID = user.ID
	}
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("user not found in context")
	}
	return user, nil
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	user, err := UserFromContext(ctx)
	if err != nil {
		return "", err
	}
	if user.ID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return user.ID, nil
}
