package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/taskboard/internal/model"
)

const taskColumns = `id, user_id, title, description, status, priority, due_date, created_at, updated_at`

// sortColumns はAPIのソートフィールド名とカラム名の対応表。
// ここに存在しないフィールドでのソートは許可しない。
var sortColumns = map[string]string{
	model.SortByCreatedAt: "created_at",
	model.SortByUpdatedAt: "updated_at",
	model.SortByDueDate:   "due_date",
	model.SortByTitle:     "title",
	model.SortByStatus:    "status",
	model.SortByPriority:  "priority",
}

// IsSortableField はソート可能なフィールド名かを返す。
func IsSortableField(field string) bool {
	_, ok := sortColumns[field]
	return ok
}

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// FindByID は指定IDのタスクを取得する。
// UUIDとして不正なIDや存在しないIDの場合はnilを返す。
func (r *PostgresTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	task := &model.Task{}
	var dueDate sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`,
		id,
	).Scan(
		&task.ID, &task.UserID, &task.Title, &task.Description, &task.Status, &task.Priority,
		&dueDate, &task.CreatedAt, &task.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task by ID: %w", err)
	}
	task.DueDate = timePtr(dueDate)

	return task, nil
}

// List は所有者のタスクを絞り込み・ソートして返す。ページネーションは行わない。
func (r *PostgresTaskRepo) List(ctx context.Context, filter model.TaskFilter) ([]*model.Task, error) {
	query, args, err := buildListQuery(filter)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*model.Task, 0)
	for rows.Next() {
		task := &model.Task{}
		var dueDate sql.NullTime
		if err := rows.Scan(
			&task.ID, &task.UserID, &task.Title, &task.Description, &task.Status, &task.Priority,
			&dueDate, &task.CreatedAt, &task.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		task.DueDate = timePtr(dueDate)
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate task rows: %w", err)
	}

	return tasks, nil
}

// Create はタスクを作成する。IDが空の場合は新規に採番する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO tasks (id, user_id, title, description, status, priority, due_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		task.ID, task.UserID, task.Title, task.Description, string(task.Status), string(task.Priority),
		nullTime(task),
	).Scan(&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	return nil
}

// Update は所有者が一致する行のみを書き戻す。
func (r *PostgresTaskRepo) Update(ctx context.Context, task *model.Task) (bool, error) {
	err := r.db.QueryRowContext(ctx,
		`UPDATE tasks
		 SET title = $3, description = $4, status = $5, priority = $6, due_date = $7, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING updated_at`,
		task.ID, task.UserID, task.Title, task.Description, string(task.Status), string(task.Priority),
		nullTime(task),
	).Scan(&task.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to update task: %w", err)
	}
	return true, nil
}

// Delete は所有者が一致する行のみを削除する。
func (r *PostgresTaskRepo) Delete(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	return affectedOne(result)
}

// buildListQuery は一覧取得SQLと引数を組み立てる。
// 所有者条件は常に付与される。NULLの期限は昇順で先頭、降順で末尾に並ぶ。
func buildListQuery(filter model.TaskFilter) (string, []any, error) {
	if filter.UserID == "" {
		return "", nil, fmt.Errorf("task list requires user ID")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = model.SortByCreatedAt
	}
	column, ok := sortColumns[sortBy]
	if !ok {
		return "", nil, fmt.Errorf("unsupported sort field: %s", sortBy)
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`)
	args := []any{filter.UserID}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		fmt.Fprintf(&b, ` AND status = $%d`, len(args))
	}
	if filter.Priority != "" {
		args = append(args, string(filter.Priority))
		fmt.Fprintf(&b, ` AND priority = $%d`, len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		n := len(args)
		fmt.Fprintf(&b, ` AND (title ILIKE $%d ESCAPE '\' OR description ILIKE $%d ESCAPE '\')`, n, n)
	}

	if filter.SortOrder == model.SortAsc {
		fmt.Fprintf(&b, ` ORDER BY %s ASC NULLS FIRST, id ASC`, column)
	} else {
		fmt.Fprintf(&b, ` ORDER BY %s DESC NULLS LAST, id ASC`, column)
	}

	return b.String(), args, nil
}

// escapeLike はLIKEパターンのメタ文字をリテラルとして扱うようにエスケープする。
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func nullTime(task *model.Task) sql.NullTime {
	if task.DueDate == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *task.DueDate, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
