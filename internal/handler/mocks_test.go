package handler

import (
	"context"

	"github.com/hitoshi/taskboard/internal/auth"
	"github.com/hitoshi/taskboard/internal/model"
	"github.com/hitoshi/taskboard/internal/task"
	"github.com/hitoshi/taskboard/internal/taskview"
)

// --- モック定義 ---

type mockAuthService struct {
	googleLoginFn func(ctx context.Context, idToken string) (*auth.LoginResult, error)
	registerFn    func(ctx context.Context, input auth.RegisterInput) (*auth.LoginResult, error)
	loginFn       func(ctx context.Context, email, password string) (*auth.LoginResult, error)
}

func (m *mockAuthService) GoogleLogin(ctx context.Context, idToken string) (*auth.LoginResult, error) {
	if m.googleLoginFn != nil {
		return m.googleLoginFn(ctx, idToken)
	}
	return nil, model.NewInvalidTokenError()
}

func (m *mockAuthService) Register(ctx context.Context, input auth.RegisterInput) (*auth.LoginResult, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, input)
	}
	return nil, model.NewEmailTakenError()
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, model.NewInvalidCredentialsError()
}

type mockUserService struct {
	getFn         func(ctx context.Context, userID string) (*model.User, error)
	setPasswordFn func(ctx context.Context, userID, password string) error
}

func (m *mockUserService) Get(ctx context.Context, userID string) (*model.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return nil, model.NewUserNotFoundError()
}

func (m *mockUserService) SetPassword(ctx context.Context, userID, password string) error {
	if m.setPasswordFn != nil {
		return m.setPasswordFn(ctx, userID, password)
	}
	return nil
}

type mockTaskService struct {
	listFn      func(ctx context.Context, userID string, q task.ListQuery) ([]*model.Task, error)
	dashboardFn func(ctx context.Context, userID string, f taskview.Filter) (taskview.View, error)
	createFn    func(ctx context.Context, userID string, in task.CreateInput) (*model.Task, error)
	updateFn    func(ctx context.Context, userID, taskID string, in task.UpdateInput) (*model.Task, error)
	deleteFn    func(ctx context.Context, userID, taskID string) error
}

func (m *mockTaskService) List(ctx context.Context, userID string, q task.ListQuery) ([]*model.Task, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, q)
	}
	return []*model.Task{}, nil
}

func (m *mockTaskService) Dashboard(ctx context.Context, userID string, f taskview.Filter) (taskview.View, error) {
	if m.dashboardFn != nil {
		return m.dashboardFn(ctx, userID, f)
	}
	return taskview.View{}, nil
}

func (m *mockTaskService) Create(ctx context.Context, userID string, in task.CreateInput) (*model.Task, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, in)
	}
	return nil, nil
}

func (m *mockTaskService) Update(ctx context.Context, userID, taskID string, in task.UpdateInput) (*model.Task, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, taskID, in)
	}
	return nil, model.NewTaskNotFoundError()
}

func (m *mockTaskService) Delete(ctx context.Context, userID, taskID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, taskID)
	}
	return nil
}

type mockAuthenticator struct {
	authenticateFn func(ctx context.Context, token string) (*model.User, error)
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, token)
	}
	return nil, model.NewUnauthorizedError()
}

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}

var (
	_ AuthServiceInterface = (*mockAuthService)(nil)
	_ UserServiceInterface = (*mockUserService)(nil)
	_ TaskServiceInterface = (*mockTaskService)(nil)
	_ HealthChecker        = (*mockHealthChecker)(nil)
)
