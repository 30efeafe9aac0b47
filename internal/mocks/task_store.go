package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/store"
)

// MockTaskStore implements store.TaskStore for testing.
type MockTaskStore struct {
	CreateFn     func(ctx context.Context, task *domain.Task) error
	GetForUserFn func(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	ListFn       func(ctx context.Context, userID uuid.UUID, filter store.TaskFilter, page store.Page) ([]*domain.Task, int, error)
	UpdateFn     func(ctx context.Context, task *domain.Task) error
	DeleteFn     func(ctx context.Context, userID, taskID uuid.UUID) error

	// Default responses used when the corresponding Fn is nil
	Task  *domain.Task
	Tasks []*domain.Task
	Total int
	Err   error
}

var _ store.TaskStore = (*MockTaskStore)(nil)

func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	return m.Err
}

func (m *MockTaskStore) GetForUser(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	if m.GetForUserFn != nil {
		return m.GetForUserFn(ctx, userID, taskID)
	}
	return m.Task, m.Err
}

func (m *MockTaskStore) List(
	ctx context.Context,
	userID uuid.UUID,
	filter store.TaskFilter,
	page store.Page,
) ([]*domain.Task, int, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, userID, filter, page)
	}
	return m.Tasks, m.Total, m.Err
}

func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, task)
	}
	return m.Err
}

func (m *MockTaskStore) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, userID, taskID)
	}
	return m.Err
}

// WithTx returns the mock itself; transactions are not modeled in tests.
func (m *MockTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return m
}
