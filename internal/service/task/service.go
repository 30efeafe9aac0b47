// Package task implements the task query engine and mutator: filtered,
// sorted, paginated views over a single user's tasks, and ownership-scoped
// create/update/delete. Every operation takes the authenticated user's ID
// and applies it before any other predicate; that scoping is the sole
// access-control mechanism for tasks.
package task

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

// Pagination bounds. Out-of-range values are clamped, never rejected.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Field is an explicit presence wrapper for partial updates. A zero Field
// means "leave unchanged"; a set Field carries the new value, which for
// pointer-typed fields may be nil to clear an optional value. This keeps
// "absent" and "explicit null" distinguishable all the way down from the
// request body.
type Field[T any] struct {
	Set   bool
	Value T
}

// NewField returns a set Field carrying v.
func NewField[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// Patch describes a partial update of a task. Only set fields are applied.
type Patch struct {
	Title       Field[string]
	Description Field[*string]
	DueDate     Field[*time.Time]
	Completed   Field[bool]
	Priority    Field[int]
}

// ListResult is one page of a user's tasks plus the total match count
// before pagination.
type ListResult struct {
	Items      []*domain.Task
	TotalCount int
	Page       int
	PageSize   int
}

// Service coordinates task operations against the user and task stores.
// It holds no mutable state; each call is independent and safe to run
// concurrently with others.
type Service struct {
	userStore store.UserStore
	taskStore store.TaskStore
	db        *sql.DB
	emitter   events.Emitter
	logger    *slog.Logger
}

// NewService creates a task Service with the given dependencies.
func NewService(userStore store.UserStore, taskStore store.TaskStore, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		userStore: userStore,
		taskStore: taskStore,
		logger:    log.With(slog.String("component", "task_service")),
	}
}

// WithEmitter sets the event emitter used to publish task mutation events.
// Without one, mutations simply emit nothing.
func (s *Service) WithEmitter(emitter events.Emitter) *Service {
	s.emitter = emitter
	return s
}

// WithDB provides the database handle used to run read-modify-write
// operations inside a transaction. Without one, those operations run
// non-transactionally, which is what the in-memory test stores need.
func (s *Service) WithDB(db *sql.DB) *Service {
	s.db = db
	return s
}

// emit publishes a task mutation event when an emitter is configured.
// Event delivery failures are logged, never surfaced to the caller; the
// mutation itself already succeeded.
func (s *Service) emit(ctx context.Context, eventType events.EventType, userID, taskID uuid.UUID) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.Emit(ctx, events.NewTaskEvent(eventType, userID, taskID)); err != nil {
		s.logger.Warn("failed to emit task event",
			slog.String("event_type", string(eventType)),
			slog.String("task_id", taskID.String()),
			slog.String("error", err.Error()))
	}
}

// List returns one page of the user's tasks. The completed filter and
// search text are optional; page and pageSize are clamped to valid bounds.
// A page past the end of the result set yields empty items, not an error.
func (s *Service) List(
	ctx context.Context,
	userID uuid.UUID,
	page, pageSize int,
	completed *bool,
	search string,
) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	// A blank search is no search. The text itself is matched verbatim,
	// interior and surrounding whitespace included.
	if strings.TrimSpace(search) == "" {
		search = ""
	}

	filter := store.TaskFilter{
		Completed: completed,
		Search:    search,
	}

	items, total, err := s.taskStore.List(
		ctx,
		userID,
		filter,
		store.Page{Number: page, Size: pageSize},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return &ListResult{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// Get returns one of the user's tasks by ID. A task owned by another user
// is reported as store.ErrTaskNotFound, same as a missing one.
func (s *Service) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	return s.taskStore.GetForUser(ctx, userID, taskID)
}

// Create makes a new task for the user. The user must still exist in the
// store; a valid token can outlive its account, and such a request fails
// with store.ErrUserNotFound. A zero priority selects the default.
func (s *Service) Create(
	ctx context.Context,
	userID uuid.UUID,
	title string,
	description *string,
	dueDate *time.Time,
	priority int,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	exists, err := s.userStore.Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if !exists {
		log.Warn("task creation attempted for vanished user",
			slog.String("user_id", userID.String()))
		return nil, store.ErrUserNotFound
	}

	if priority == 0 {
		priority = domain.DefaultPriority
	}

	task, err := domain.NewTask(userID, title, description, dueDate, priority)
	if err != nil {
		return nil, err
	}

	if err := s.taskStore.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", userID.String()))
	s.emit(ctx, events.TaskCreated, userID, task.ID)
	return task, nil
}

// Update applies a partial update to one of the user's tasks and returns
// the updated task. Only fields explicitly set on the patch change; setting
// Description or DueDate to nil clears them. Returns store.ErrTaskNotFound
// if the task is absent or owned by another user.
func (s *Service) Update(
	ctx context.Context,
	userID, taskID uuid.UUID,
	patch Patch,
) (*domain.Task, error) {
	if s.db == nil {
		return s.applyPatch(ctx, s.taskStore, userID, taskID, patch)
	}

	// The fetch and the write must see the same row version; concurrent
	// updates of the same task otherwise silently drop fields.
	var updated *domain.Task
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		var txErr error
		updated, txErr = s.applyPatch(ctx, s.taskStore.WithTx(tx), userID, taskID, patch)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) applyPatch(
	ctx context.Context,
	taskStore store.TaskStore,
	userID, taskID uuid.UUID,
	patch Patch,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := taskStore.GetForUser(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if patch.Title.Set {
		task.Title = patch.Title.Value
	}
	if patch.Description.Set {
		task.Description = patch.Description.Value
	}
	if patch.DueDate.Set {
		task.DueDate = domain.NormalizeDueDate(patch.DueDate.Value)
	}
	if patch.Completed.Set {
		task.Completed = patch.Completed.Value
	}
	if patch.Priority.Set {
		task.Priority = patch.Priority.Value
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := taskStore.Update(ctx, task); err != nil {
		return nil, err
	}

	log.Info("task updated",
		slog.String("task_id", taskID.String()),
		slog.String("user_id", userID.String()))
	s.emit(ctx, events.TaskUpdated, userID, taskID)
	return task, nil
}

// Delete removes one of the user's tasks permanently. Returns
// store.ErrTaskNotFound if the task is absent or owned by another user,
// including on repeated deletes of the same ID.
func (s *Service) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.taskStore.Delete(ctx, userID, taskID); err != nil {
		return err
	}

	log.Info("task deleted",
		slog.String("task_id", taskID.String()),
		slog.String("user_id", userID.String()))
	s.emit(ctx, events.TaskDeleted, userID, taskID)
	return nil
}
