// Package task はタスクの参照・作成・更新・削除のドメインロジックを提供する。
// すべての操作は認証済みユーザーの所有範囲に限定される。
package task

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/taskboard/internal/metrics"
	"github.com/hitoshi/taskboard/internal/model"
	"github.com/hitoshi/taskboard/internal/repository"
	"github.com/hitoshi/taskboard/internal/taskview"
)

// Service はタスク管理のサービス層。
type Service struct {
	repo    repository.TaskRepository
	metrics metrics.MetricsCollector
}

// NewService はServiceの新しいインスタンスを生成する。collectorはnilでもよい。
func NewService(repo repository.TaskRepository, collector metrics.MetricsCollector) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{repo: repo, metrics: collector}
}

// BuildFilter はクエリパラメータを所有者付きの検索条件に変換する。
// status / priority の空文字と "all" は絞り込みなし、sortOrder は "asc" または "1" のみ昇順。
func BuildFilter(userID string, q ListQuery) (model.TaskFilter, error) {
	filter := model.TaskFilter{
		UserID:    userID,
		Search:    strings.TrimSpace(q.Search),
		SortBy:    q.SortBy,
		SortOrder: model.SortDesc,
	}

	if q.Status != "" && q.Status != taskview.FilterAll {
		filter.Status = model.TaskStatus(q.Status)
	}
	if q.Priority != "" && q.Priority != taskview.FilterAll {
		filter.Priority = model.TaskPriority(q.Priority)
	}
	if filter.SortBy == "" {
		filter.SortBy = model.SortByCreatedAt
	}
	if !repository.IsSortableField(filter.SortBy) {
		return model.TaskFilter{}, model.NewBadRequestError(msgInvalidSort)
	}
	if order := strings.ToLower(q.SortOrder); order == "asc" || order == "1" {
		filter.SortOrder = model.SortAsc
	}

	return filter, nil
}

// List は所有者のタスクを条件に従って返す。
func (s *Service) List(ctx context.Context, userID string, q ListQuery) ([]*model.Task, error) {
	filter, err := BuildFilter(userID, q)
	if err != nil {
		return nil, err
	}

	tasks, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	return tasks, nil
}

// Dashboard は所有者の全タスクを取得し、表示条件の適用結果と全件の集計を返す。
func (s *Service) Dashboard(ctx context.Context, userID string, f taskview.Filter) (taskview.View, error) {
	if f.SortBy != "" && !repository.IsSortableField(f.SortBy) {
		return taskview.View{}, model.NewBadRequestError(msgInvalidSort)
	}

	tasks, err := s.repo.List(ctx, model.TaskFilter{UserID: userID})
	if err != nil {
		return taskview.View{}, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	return taskview.Derive(tasks, f), nil
}

// Create は入力を検証してタスクを作成する。所有者は常に認証済みユーザー。
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*model.Task, error) {
	fields, problems := in.validate()
	if len(problems) > 0 {
		return nil, model.NewValidationError(problems...)
	}

	t := &model.Task{
		UserID:   userID,
		Status:   model.TaskStatusTodo,
		Priority: model.TaskPriorityMedium,
	}
	fields.apply(t)

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}

	s.metrics.RecordTaskOperation("create")
	slog.Info("task created", slog.String("user_id", userID), slog.String("task_id", t.ID))
	return t, nil
}

// Update は指定されたフィールドのみを変更する。
// 検証 → 存在確認（404）→ 所有者確認（403）の順に判定する。
func (s *Service) Update(ctx context.Context, userID, taskID string, in UpdateInput) (*model.Task, error) {
	fields, problems := in.validate()
	if len(problems) > 0 {
		return nil, model.NewValidationError(problems...)
	}

	t, err := s.findOwned(ctx, userID, taskID, "update")
	if err != nil {
		return nil, err
	}

	fields.apply(t)

	ok, err := s.repo.Update(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}
	if !ok {
		return nil, model.NewTaskNotFoundError()
	}

	s.metrics.RecordTaskOperation("update")
	return t, nil
}

// Delete はタスクを物理削除する。
func (s *Service) Delete(ctx context.Context, userID, taskID string) error {
	if _, err := s.findOwned(ctx, userID, taskID, "delete"); err != nil {
		return err
	}

	ok, err := s.repo.Delete(ctx, taskID, userID)
	if err != nil {
		return fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	if !ok {
		return model.NewTaskNotFoundError()
	}

	s.metrics.RecordTaskOperation("delete")
	slog.Info("task deleted", slog.String("user_id", userID), slog.String("task_id", taskID))
	return nil
}

// findOwned はタスクを取得し、所有者でなければFORBIDDENを返す。
func (s *Service) findOwned(ctx context.Context, userID, taskID, action string) (*model.Task, error) {
	t, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	if t == nil {
		return nil, model.NewTaskNotFoundError()
	}
	if t.UserID != userID {
		slog.Warn("task ownership check failed",
			slog.String("user_id", userID),
			slog.String("task_id", taskID),
			slog.String("action", action),
		)
		return nil, model.NewForbiddenError(action)
	}
	return t, nil
}
