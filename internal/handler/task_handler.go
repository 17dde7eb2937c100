package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskboard/internal/model"
	"github.com/hitoshi/taskboard/internal/task"
	"github.com/hitoshi/taskboard/internal/taskview"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	List(ctx context.Context, userID string, q task.ListQuery) ([]*model.Task, error)
	Dashboard(ctx context.Context, userID string, f taskview.Filter) (taskview.View, error)
	Create(ctx context.Context, userID string, in task.CreateInput) (*model.Task, error)
	Update(ctx context.Context, userID, taskID string, in task.UpdateInput) (*model.Task, error)
	Delete(ctx context.Context, userID, taskID string) error
}

// TaskHandler はタスク管理のHTTPハンドラー。
type TaskHandler struct {
	service TaskServiceInterface
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface) *TaskHandler {
	return &TaskHandler{service: service}
}

// taskResponse はタスクのAPIレスポンス。期限がない場合はdueDateを省略する。
type taskResponse struct {
	ID          string     `json:"_id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type taskListResponse struct {
	Success bool           `json:"success"`
	Count   int            `json:"count"`
	Tasks   []taskResponse `json:"tasks"`
}

type dashboardResponse struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Counts  taskview.Counts `json:"counts"`
	Tasks   []taskResponse  `json:"tasks"`
}

type taskMutationResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Task    taskResponse `json:"task"`
}

// ListTasks は所有者のタスク一覧を返す。
// GET /api/tasks?status&priority&search&sortBy&sortOrder
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	tasks, err := h.service.List(r.Context(), userID, task.ParseListQuery(r.URL.Query()))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := toTaskResponses(tasks)
	writeJSON(w, http.StatusOK, taskListResponse{Success: true, Count: len(resp), Tasks: resp})
}

// Dashboard は全タスクの件数集計と、表示条件を適用したタスク一覧を返す。
// GET /api/tasks/dashboard
func (h *TaskHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	view, err := h.service.Dashboard(r.Context(), userID, taskview.Filter{
		Search:    q.Get("search"),
		Status:    q.Get("status"),
		Priority:  q.Get("priority"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := toTaskResponses(view.Tasks)
	writeJSON(w, http.StatusOK, dashboardResponse{
		Success: true,
		Count:   len(resp),
		Counts:  view.Counts,
		Tasks:   resp,
	})
}

// CreateTask はタスクを作成する。
// POST /api/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var in task.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		handleServiceError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, taskMutationResponse{
		Success: true,
		Message: "Task created successfully",
		Task:    toTaskResponse(created),
	})
}

// UpdateTask は指定されたフィールドのみを更新する。
// PUT /api/tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var in task.UpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		handleServiceError(w, err)
		return
	}

	updated, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, taskMutationResponse{
		Success: true,
		Message: "Task updated successfully",
		Task:    toTaskResponse(updated),
	})
}

// DeleteTask はタスクを削除する。
// DELETE /api/tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Task deleted successfully"})
}

func toTaskResponse(t *model.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toTaskResponses(tasks []*model.Task) []taskResponse {
	resp := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, toTaskResponse(t))
	}
	return resp
}
