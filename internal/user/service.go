// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/taskboard/internal/auth"
	"github.com/hitoshi/taskboard/internal/model"
)

// UserStore はユーザー管理に必要な永続化操作。
type UserStore interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) (bool, error)
}

// Service はユーザー管理のサービス層。
// ログイン中ユーザーの参照とパスワード設定を提供する。
type Service struct {
	users UserStore
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(users UserStore) *Service {
	return &Service{users: users}
}

// Get はユーザーを取得する。存在しない場合はUSER_NOT_FOUNDを返す。
func (s *Service) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// SetPassword はユーザーのパスワードを設定（または変更）する。
// 長さの検証はストアへのアクセス前に行い、平文は保存しない。
// Googleアカウントのみのユーザーもこれ以降パスワードログインが可能になる。
func (s *Service) SetPassword(ctx context.Context, userID, password string) error {
	if err := auth.ValidatePassword(password); err != nil {
		return model.NewValidationError(auth.PasswordErrorMessage(err))
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	updated, err := s.users.UpdatePasswordHash(ctx, userID, hash)
	if err != nil {
		return fmt.Errorf("パスワードの保存に失敗しました: %w", err)
	}
	if !updated {
		return model.NewUserNotFoundError()
	}

	slog.Info("パスワードを設定しました",
		slog.String("user_id", userID),
		slog.Bool("had_password", user.HasPassword()),
	)
	return nil
}
