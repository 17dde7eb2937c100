// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// Errors はバリデーション失敗時の個別メッセージを保持する。
type APIError struct {
	Code     string   // エラーコード
	Message  string   // クライアントに返すメッセージ
	Category string   // カテゴリ: auth, validation, task, system
	Errors   []string // バリデーションエラーの詳細
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, strings.Join(e.Errors, "; "))
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeTaskNotFound       = "TASK_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeRouteNotFound      = "ROUTE_NOT_FOUND"
	ErrCodeAccountConflict    = "ACCOUNT_CONFLICT"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(messages ...string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  "Validation failed",
		Category: "validation",
		Errors:   messages,
	}
}

// NewBadRequestError は単一メッセージの400エラーを生成する。
func NewBadRequestError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  message,
		Category: "validation",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Not authorized",
		Category: "auth",
	}
}

// NewInvalidTokenError は外部IdPのトークン検証失敗エラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "Invalid token",
		Category: "auth",
	}
}

// NewInvalidCredentialsError はメールアドレス/パスワード認証の失敗エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid email or password",
		Category: "auth",
	}
}

// NewForbiddenError は所有者以外による操作のエラーを生成する。
// action には "update" や "delete" を指定する。
func NewForbiddenError(action string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  fmt.Sprintf("Not authorized to %s this task", action),
		Category: "task",
	}
}

// NewTaskNotFoundError はタスク未検出エラーを生成する。
func NewTaskNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  "Task not found",
		Category: "task",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found",
		Category: "auth",
	}
}

// NewRouteNotFoundError は未定義ルートへのアクセスエラーを生成する。
func NewRouteNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeRouteNotFound,
		Message:  "Route not found",
		Category: "system",
	}
}

// NewAccountConflictError はGoogleアカウントの紐付けが曖昧な場合のエラーを生成する。
func NewAccountConflictError() *APIError {
	return &APIError{
		Code:     ErrCodeAccountConflict,
		Message:  "This email is already linked to a different Google account",
		Category: "auth",
	}
}

// NewEmailTakenError は登録済みメールアドレスでの新規登録エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "Email is already registered",
		Category: "auth",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  message,
		Category: "system",
	}
}

// NewInternalError は内部エラーを生成する。詳細はクライアントに返さない。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Internal server error",
		Category: "system",
	}
}
