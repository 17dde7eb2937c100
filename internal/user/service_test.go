package user

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/taskboard/internal/auth"
	"github.com/hitoshi/taskboard/internal/model"
)

// --- モック ---

type mockUserStore struct {
	findByIDFn           func(ctx context.Context, id string) (*model.User, error)
	updatePasswordHashFn func(ctx context.Context, userID, hash string) (bool, error)
}

func (m *mockUserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserStore) UpdatePasswordHash(ctx context.Context, userID, hash string) (bool, error) {
	if m.updatePasswordHashFn != nil {
		return m.updatePasswordHashFn(ctx, userID, hash)
	}
	return true, nil
}

var _ UserStore = (*mockUserStore)(nil)

func googleUser() *model.User {
	googleID := "g-1"
	return &model.User{ID: "user-1", Name: "Alice", Email: "alice@example.com", GoogleID: &googleID}
}

func apiErrorOf(t *testing.T, err error) *model.APIError {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %v", err)
	}
	return apiErr
}

// --- テスト ---

func TestSetPassword_ShortPassword_RejectedBeforeStoreAccess(t *testing.T) {
	store := &mockUserStore{
		findByIDFn: func(context.Context, string) (*model.User, error) {
			t.Fatal("store must not be accessed for invalid password")
			return nil, nil
		},
	}
	svc := NewService(store)

	err := svc.SetPassword(context.Background(), "user-1", "12345")

	apiErr := apiErrorOf(t, err)
	if apiErr.Code != model.ErrCodeValidationFailed {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeValidationFailed)
	}
	if len(apiErr.Errors) != 1 || apiErr.Errors[0] != "Password must be at least 6 characters long" {
		t.Errorf("errors = %v", apiErr.Errors)
	}
}

func TestSetPassword_StoresComparableHash(t *testing.T) {
	var storedHash string
	store := &mockUserStore{
		findByIDFn: func(context.Context, string) (*model.User, error) { return googleUser(), nil },
		updatePasswordHashFn: func(_ context.Context, userID, hash string) (bool, error) {
			if userID != "user-1" {
				t.Errorf("userID = %q, want user-1", userID)
			}
			storedHash = hash
			return true, nil
		},
	}
	svc := NewService(store)

	if err := svc.SetPassword(context.Background(), "user-1", "123456"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}

	if storedHash == "" || storedHash == "123456" {
		t.Fatalf("stored hash = %q, want bcrypt hash", storedHash)
	}
	ok, err := auth.ComparePassword(storedHash, "123456")
	if err != nil || !ok {
		t.Errorf("ComparePassword() = %v, %v; want true", ok, err)
	}
}

func TestSetPassword_UserNotFound(t *testing.T) {
	svc := NewService(&mockUserStore{})

	err := svc.SetPassword(context.Background(), "ghost", "123456")

	if apiErr := apiErrorOf(t, err); apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeUserNotFound)
	}
}

func TestSetPassword_UserDeletedDuringUpdate(t *testing.T) {
	store := &mockUserStore{
		findByIDFn:           func(context.Context, string) (*model.User, error) { return googleUser(), nil },
		updatePasswordHashFn: func(context.Context, string, string) (bool, error) { return false, nil },
	}
	svc := NewService(store)

	err := svc.SetPassword(context.Background(), "user-1", "123456")

	if apiErr := apiErrorOf(t, err); apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeUserNotFound)
	}
}

func TestSetPassword_StoreError_IsInternal(t *testing.T) {
	store := &mockUserStore{
		findByIDFn: func(context.Context, string) (*model.User, error) { return nil, errors.New("db down") },
	}
	svc := NewService(store)

	err := svc.SetPassword(context.Background(), "user-1", "123456")

	var apiErr *model.APIError
	if err == nil || errors.As(err, &apiErr) {
		t.Errorf("expected non-API error, got %v", err)
	}
}

func TestGet(t *testing.T) {
	store := &mockUserStore{
		findByIDFn: func(_ context.Context, id string) (*model.User, error) {
			if id == "user-1" {
				return googleUser(), nil
			}
			return nil, nil
		},
	}
	svc := NewService(store)

	user, err := svc.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email = %q", user.Email)
	}

	_, err = svc.Get(context.Background(), "ghost")
	if apiErr := apiErrorOf(t, err); apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeUserNotFound)
	}
}
