// Package model はドメインモデルを定義する。
package model

import "time"

// TaskStatus はタスクの進捗状態を表す。
type TaskStatus string

const (
	// TaskStatusTodo は未着手。
	TaskStatusTodo TaskStatus = "todo"
	// TaskStatusInProgress は作業中。
	TaskStatusInProgress TaskStatus = "in-progress"
	// TaskStatusDone は完了。
	TaskStatusDone TaskStatus = "done"
)

// Valid は定義済みの状態かを返す。
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// TaskPriority はタスクの優先度を表す。
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Valid は定義済みの優先度かを返す。
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// タスクのフィールド長上限
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

// Task はユーザーが所有するタスクを表す。
type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Status      TaskStatus
	Priority    TaskPriority
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SortOrder はソート方向を表す。
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// タスク一覧のソート可能フィールド（APIで受け付ける名前）
const (
	SortByCreatedAt = "createdAt"
	SortByUpdatedAt = "updatedAt"
	SortByDueDate   = "dueDate"
	SortByTitle     = "title"
	SortByStatus    = "status"
	SortByPriority  = "priority"
)

// TaskFilter はタスク一覧取得の条件を表す。
// Status / Priority が空の場合は絞り込まない。
type TaskFilter struct {
	UserID    string
	Status    TaskStatus
	Priority  TaskPriority
	Search    string
	SortBy    string
	SortOrder SortOrder
}
