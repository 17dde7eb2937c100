// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/taskboard/internal/model"
)

// ErrDuplicate は一意制約違反を表す。
// 呼び出し側はメールアドレスやGoogle IDの重複判定に使用する。
var ErrDuplicate = errors.New("duplicate key")

// UserRepository はユーザーデータの永続化インターフェース。
// 検索系メソッドは見つからない場合にnilを返す。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は小文字化済みのメールアドレスでユーザーを取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByGoogleID はGoogle ID（IdPのsubject）でユーザーを取得する。
	FindByGoogleID(ctx context.Context, googleID string) (*model.User, error)

	// Create はユーザーを作成し、ID・タイムスタンプを設定する。
	// 一意制約違反の場合はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error

	// LinkGoogleID は未紐付けのユーザーにGoogle IDを設定する。
	// 既に別のGoogle IDが設定されている場合は更新せずfalseを返す。
	LinkGoogleID(ctx context.Context, userID, googleID string) (bool, error)

	// UpdatePasswordHash はパスワードハッシュを更新する。
	// 対象ユーザーが存在しない場合はfalseを返す。
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) (bool, error)
}

// TaskRepository はタスクデータの永続化インターフェース。
type TaskRepository interface {
	// FindByID は指定IDのタスクを所有者を問わず取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Task, error)

	// List はfilter.UserIDのタスクを条件に従って取得する。
	List(ctx context.Context, filter model.TaskFilter) ([]*model.Task, error)

	// Create はタスクを作成し、ID・タイムスタンプを設定する。
	Create(ctx context.Context, task *model.Task) error

	// Update は所有者が一致する場合のみタスク全体を書き戻し、UpdatedAtを更新する。
	// 該当行がない場合はfalseを返す。
	Update(ctx context.Context, task *model.Task) (bool, error)

	// Delete は所有者が一致する場合のみタスクを削除する。該当行がない場合はfalseを返す。
	Delete(ctx context.Context, id, userID string) (bool, error)
}
