package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/taskboard/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	Get(ctx context.Context, userID string) (*model.User, error)
	SetPassword(ctx context.Context, userID, password string) error
}

// UserHandler は認証済みユーザー自身に関するHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

type setPasswordRequest struct {
	Password string `json:"password"`
}

type meResponse struct {
	Success bool         `json:"success"`
	User    userResponse `json:"user"`
}

// SetPassword はログイン中のユーザーのパスワードを設定する。
// POST /api/auth/set-password
func (h *UserHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req setPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.SetPassword(r.Context(), userID, req.Password); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Password set successfully"})
}

// Me は現在のログインユーザー情報を返す。
// GET /api/auth/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	user, err := h.service.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{Success: true, User: toUserResponse(user)})
}
