package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
)

// TaskFilter holds the optional predicates of a task list query. The
// owning-user scoping is not part of the filter: it is a mandatory argument
// of List and is always applied before any predicate here.
type TaskFilter struct {
	// Completed, when non-nil, restricts results to tasks whose completed
	// flag matches exactly.
	Completed *bool

	// Search, when non-blank, restricts results to tasks whose title or
	// non-null description contains it as a literal, case-sensitive
	// substring.
	Search string
}

// Page describes a 1-indexed page of results.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of rows to skip for this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// TaskStore defines the interface for task data persistence. Every read and
// mutation is scoped to the owning user; a task belonging to another user is
// reported as ErrTaskNotFound, indistinguishable from a missing task.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns ErrUserNotFound if the owning user does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetForUser retrieves a task by ID, scoped to the given owner.
	// Returns ErrTaskNotFound if the task is absent or owned by another user.
	GetForUser(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)

	// List returns one page of the user's tasks matching the filter, plus
	// the total number of matching tasks before pagination. Results are
	// ordered by due date descending with tasks lacking a due date first
	// (a null due date sorts as the maximum possible date), then by
	// priority descending, then by creation time descending, then by ID.
	// An out-of-range page yields an empty slice, not an error.
	List(
		ctx context.Context,
		userID uuid.UUID,
		filter TaskFilter,
		page Page,
	) ([]*domain.Task, int, error)

	// Update persists the mutable fields of the task (title, description,
	// due date, completed flag, priority), scoped to task.UserID.
	// CreatedAt and ownership are never updated.
	// Returns ErrTaskNotFound if the task is absent or owned by another user.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task permanently, scoped to the given owner.
	// Returns ErrTaskNotFound if the task is absent or owned by another
	// user; repeating a delete therefore reports ErrTaskNotFound again.
	Delete(ctx context.Context, userID, taskID uuid.UUID) error

	// WithTx returns a new TaskStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) TaskStore
}
