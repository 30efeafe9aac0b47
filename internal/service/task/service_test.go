package task

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/store"
)

// fakeTaskStore is an in-memory store.TaskStore that mirrors the ordering,
// filtering, and pagination contract of the Postgres implementation, so the
// service's observable behavior can be tested without a database.
type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (f *fakeTaskStore) Create(ctx context.Context, task *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *task
	f.tasks[task.ID] = &copied
	return nil
}

func (f *fakeTaskStore) GetForUser(
	ctx context.Context,
	userID, taskID uuid.UUID,
) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[taskID]
	if !ok || task.UserID != userID {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (f *fakeTaskStore) List(
	ctx context.Context,
	userID uuid.UUID,
	filter store.TaskFilter,
	page store.Page,
) ([]*domain.Task, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []*domain.Task
	for _, task := range f.tasks {
		if task.UserID != userID {
			continue
		}
		if filter.Completed != nil && task.Completed != *filter.Completed {
			continue
		}
		if filter.Search != "" {
			inTitle := strings.Contains(task.Title, filter.Search)
			inDesc := task.Description != nil &&
				strings.Contains(*task.Description, filter.Search)
			if !inTitle && !inDesc {
				continue
			}
		}
		copied := *task
		matched = append(matched, &copied)
	}

	// Due date descending with nil first, then priority descending, then
	// created_at descending, then ID.
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch {
		case a.DueDate == nil && b.DueDate != nil:
			return true
		case a.DueDate != nil && b.DueDate == nil:
			return false
		case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.After(*b.DueDate)
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})

	total := len(matched)
	start := page.Offset()
	if start >= total {
		return nil, total, nil
	}
	end := start + page.Size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (f *fakeTaskStore) Update(ctx context.Context, task *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.tasks[task.ID]
	if !ok || existing.UserID != task.UserID {
		return store.ErrTaskNotFound
	}
	copied := *task
	copied.CreatedAt = existing.CreatedAt
	f.tasks[task.ID] = &copied
	return nil
}

func (f *fakeTaskStore) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[taskID]
	if !ok || task.UserID != userID {
		return store.ErrTaskNotFound
	}
	delete(f.tasks, taskID)
	return nil
}

func (f *fakeTaskStore) WithTx(tx *sql.Tx) store.TaskStore { return f }

// fakeUserStore is a minimal in-memory store.UserStore.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (f *fakeUserStore) addUser() uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.users[id] = &domain.User{ID: id, Email: id.String() + "@example.com"}
	return id
}

func (f *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[id]
	return ok, nil
}

func (f *fakeUserStore) WithTx(tx *sql.Tx) store.UserStore { return f }

func newTestService(t *testing.T) (*Service, *fakeUserStore, *fakeTaskStore) {
	t.Helper()
	users := newFakeUserStore()
	tasks := newFakeTaskStore()
	return NewService(users, tasks, nil), users, tasks
}

func strPtr(s string) *string { return &s }

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestCreate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("round trip create then get", func(t *testing.T) {
		t.Parallel()

		svc, users, _ := newTestService(t)
		userID := users.addUser()

		loc := time.FixedZone("UTC+2", 2*60*60)
		due := time.Date(2025, 6, 1, 12, 0, 0, 0, loc)

		created, err := svc.Create(ctx, userID, "buy milk", strPtr("2 liters"), &due, 4)
		require.NoError(t, err)

		got, err := svc.Get(ctx, userID, created.ID)
		require.NoError(t, err)

		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "buy milk", got.Title)
		require.NotNil(t, got.Description)
		assert.Equal(t, "2 liters", *got.Description)
		require.NotNil(t, got.DueDate)
		assert.Equal(t, time.UTC, got.DueDate.Location())
		assert.True(t, got.DueDate.Equal(due))
		assert.False(t, got.Completed)
		assert.Equal(t, 4, got.Priority)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("zero priority selects default", func(t *testing.T) {
		t.Parallel()

		svc, users, _ := newTestService(t)
		userID := users.addUser()

		created, err := svc.Create(ctx, userID, "defaults", nil, nil, 0)
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultPriority, created.Priority)
	})

	t.Run("vanished user is rejected", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newTestService(t)

		_, err := svc.Create(ctx, uuid.New(), "orphan", nil, nil, 0)
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("empty title is rejected", func(t *testing.T) {
		t.Parallel()

		svc, users, _ := newTestService(t)
		userID := users.addUser()

		_, err := svc.Create(ctx, userID, "", nil, nil, 0)
		assert.ErrorIs(t, err, domain.ErrEmptyTaskTitle)
	})
}

func TestOwnershipScoping(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, users, _ := newTestService(t)
	owner := users.addUser()
	other := users.addUser()

	task, err := svc.Create(ctx, owner, "private", nil, nil, 0)
	require.NoError(t, err)

	t.Run("get by another user reports not found", func(t *testing.T) {
		t.Parallel()

		_, err := svc.Get(ctx, other, task.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("update by another user reports not found", func(t *testing.T) {
		t.Parallel()

		_, err := svc.Update(ctx, other, task.ID, Patch{Title: NewField("stolen")})
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("delete by another user reports not found", func(t *testing.T) {
		t.Parallel()

		err := svc.Delete(ctx, other, task.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("list by another user is empty", func(t *testing.T) {
		t.Parallel()

		result, err := svc.List(ctx, other, 1, 10, nil, "")
		require.NoError(t, err)
		assert.Empty(t, result.Items)
		assert.Zero(t, result.TotalCount)
	})
}

func TestListPagination(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, users, _ := newTestService(t)
	userID := users.addUser()

	for i := 0; i < 25; i++ {
		_, err := svc.Create(ctx, userID, "task", nil, nil, 0)
		require.NoError(t, err)
	}

	tests := []struct {
		name      string
		page      int
		wantItems int
	}{
		{"first page full", 1, 10},
		{"second page full", 2, 10},
		{"last page partial", 3, 5},
		{"past the end is empty", 4, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			result, err := svc.List(ctx, userID, tc.page, 10, nil, "")
			require.NoError(t, err)
			assert.Len(t, result.Items, tc.wantItems)
			assert.Equal(t, 25, result.TotalCount)
			assert.Equal(t, tc.page, result.Page)
			assert.Equal(t, 10, result.PageSize)
		})
	}

	t.Run("bounds are clamped", func(t *testing.T) {
		t.Parallel()

		result, err := svc.List(ctx, userID, 0, 0, nil, "")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Page)
		assert.Equal(t, DefaultPageSize, result.PageSize)

		result, err = svc.List(ctx, userID, 1, MaxPageSize+1, nil, "")
		require.NoError(t, err)
		assert.Equal(t, MaxPageSize, result.PageSize)
	})
}

func TestListOrdering(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, users, _ := newTestService(t)
	userID := users.addUser()

	early, err := svc.Create(ctx, userID, "early due", nil, datePtr(2025, 1, 1), 3)
	require.NoError(t, err)
	late, err := svc.Create(ctx, userID, "late due", nil, datePtr(2025, 3, 1), 3)
	require.NoError(t, err)
	noDue, err := svc.Create(ctx, userID, "no due date", nil, nil, 3)
	require.NoError(t, err)

	t.Run("null due date sorts as the maximum date", func(t *testing.T) {
		t.Parallel()

		result, err := svc.List(ctx, userID, 1, 10, nil, "")
		require.NoError(t, err)
		require.Len(t, result.Items, 3)
		assert.Equal(t, noDue.ID, result.Items[0].ID)
		assert.Equal(t, late.ID, result.Items[1].ID)
		assert.Equal(t, early.ID, result.Items[2].ID)
	})

	t.Run("priority breaks due date ties", func(t *testing.T) {
		t.Parallel()

		svc2, users2, _ := newTestService(t)
		uid := users2.addUser()

		low, err := svc2.Create(ctx, uid, "low", nil, datePtr(2025, 2, 1), 1)
		require.NoError(t, err)
		high, err := svc2.Create(ctx, uid, "high", nil, datePtr(2025, 2, 1), 5)
		require.NoError(t, err)

		result, err := svc2.List(ctx, uid, 1, 10, nil, "")
		require.NoError(t, err)
		require.Len(t, result.Items, 2)
		assert.Equal(t, high.ID, result.Items[0].ID)
		assert.Equal(t, low.ID, result.Items[1].ID)
	})
}

func TestListFilters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, users, _ := newTestService(t)
	userID := users.addUser()

	done, err := svc.Create(ctx, userID, "walk the dog", nil, nil, 0)
	require.NoError(t, err)
	_, err = svc.Update(ctx, userID, done.ID, Patch{Completed: NewField(true)})
	require.NoError(t, err)

	_, err = svc.Create(ctx, userID, "buy milk", strPtr("from the corner shop"), nil, 0)
	require.NoError(t, err)
	_, err = svc.Create(ctx, userID, "write report", nil, nil, 0)
	require.NoError(t, err)

	t.Run("completed filter", func(t *testing.T) {
		t.Parallel()

		completed := true
		result, err := svc.List(ctx, userID, 1, 10, &completed, "")
		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, done.ID, result.Items[0].ID)

		completed = false
		result, err = svc.List(ctx, userID, 1, 10, &completed, "")
		require.NoError(t, err)
		assert.Len(t, result.Items, 2)
	})

	t.Run("search matches title", func(t *testing.T) {
		t.Parallel()

		result, err := svc.List(ctx, userID, 1, 10, nil, "milk")
		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, "buy milk", result.Items[0].Title)
	})

	t.Run("search matches description", func(t *testing.T) {
		t.Parallel()

		result, err := svc.List(ctx, userID, 1, 10, nil, "corner shop")
		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, "buy milk", result.Items[0].Title)
	})

	t.Run("search with no matches", func(t *testing.T) {
		t.Parallel()

		result, err := svc.List(ctx, userID, 1, 10, nil, "nothing like this")
		require.NoError(t, err)
		assert.Empty(t, result.Items)
		assert.Zero(t, result.TotalCount)
	})

	t.Run("blank search is no filter", func(t *testing.T) {
		t.Parallel()

		// Whitespace-only search must not become a literal " " predicate.
		for _, search := range []string{"", " ", "   ", "\t", " \t "} {
			result, err := svc.List(ctx, userID, 1, 10, nil, search)
			require.NoError(t, err)
			assert.Len(t, result.Items, 3, "search %q", search)
			assert.Equal(t, 3, result.TotalCount, "search %q", search)
		}
	})
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	setup := func(t *testing.T) (*Service, uuid.UUID, *domain.Task) {
		svc, users, _ := newTestService(t)
		userID := users.addUser()
		task, err := svc.Create(
			ctx,
			userID,
			"original",
			strPtr("description"),
			datePtr(2025, 5, 1),
			2,
		)
		require.NoError(t, err)
		return svc, userID, task
	}

	t.Run("empty patch leaves task unchanged", func(t *testing.T) {
		t.Parallel()

		svc, userID, task := setup(t)
		updated, err := svc.Update(ctx, userID, task.ID, Patch{})
		require.NoError(t, err)

		assert.Equal(t, task.Title, updated.Title)
		assert.Equal(t, *task.Description, *updated.Description)
		assert.True(t, task.DueDate.Equal(*updated.DueDate))
		assert.Equal(t, task.Completed, updated.Completed)
		assert.Equal(t, task.Priority, updated.Priority)
	})

	t.Run("set fields are applied, others untouched", func(t *testing.T) {
		t.Parallel()

		svc, userID, task := setup(t)
		updated, err := svc.Update(ctx, userID, task.ID, Patch{
			Title:     NewField("renamed"),
			Completed: NewField(true),
		})
		require.NoError(t, err)

		assert.Equal(t, "renamed", updated.Title)
		assert.True(t, updated.Completed)
		require.NotNil(t, updated.Description)
		assert.Equal(t, "description", *updated.Description)
		assert.Equal(t, 2, updated.Priority)
	})

	t.Run("explicit null clears optional fields", func(t *testing.T) {
		t.Parallel()

		svc, userID, task := setup(t)
		updated, err := svc.Update(ctx, userID, task.ID, Patch{
			Description: NewField[*string](nil),
			DueDate:     NewField[*time.Time](nil),
		})
		require.NoError(t, err)

		assert.Nil(t, updated.Description)
		assert.Nil(t, updated.DueDate)
	})

	t.Run("due date is normalized to UTC", func(t *testing.T) {
		t.Parallel()

		svc, userID, task := setup(t)
		loc := time.FixedZone("UTC-7", -7*60*60)
		due := time.Date(2025, 8, 1, 9, 0, 0, 0, loc)

		updated, err := svc.Update(ctx, userID, task.ID, Patch{
			DueDate: NewField(&due),
		})
		require.NoError(t, err)
		require.NotNil(t, updated.DueDate)
		assert.Equal(t, time.UTC, updated.DueDate.Location())
		assert.True(t, updated.DueDate.Equal(due))
	})

	t.Run("created timestamp is never updated", func(t *testing.T) {
		t.Parallel()

		svc, userID, task := setup(t)
		updated, err := svc.Update(ctx, userID, task.ID, Patch{
			Title: NewField("renamed"),
		})
		require.NoError(t, err)
		assert.True(t, task.CreatedAt.Equal(updated.CreatedAt))
	})

	t.Run("clearing the title is rejected", func(t *testing.T) {
		t.Parallel()

		svc, userID, task := setup(t)
		_, err := svc.Update(ctx, userID, task.ID, Patch{Title: NewField("")})
		assert.ErrorIs(t, err, domain.ErrEmptyTaskTitle)
	})

	t.Run("invalid priority is rejected", func(t *testing.T) {
		t.Parallel()

		svc, userID, task := setup(t)
		_, err := svc.Update(ctx, userID, task.ID, Patch{Priority: NewField(9)})
		assert.ErrorIs(t, err, domain.ErrInvalidPriority)
	})

	t.Run("missing task reports not found", func(t *testing.T) {
		t.Parallel()

		svc, userID, _ := setup(t)
		_, err := svc.Update(ctx, userID, uuid.New(), Patch{Title: NewField("x")})
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, users, _ := newTestService(t)
	userID := users.addUser()

	task, err := svc.Create(ctx, userID, "temporary", nil, nil, 0)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, userID, task.ID))

	_, err = svc.Get(ctx, userID, task.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	// Deleting again reports not found, never a crash.
	assert.ErrorIs(t, svc.Delete(ctx, userID, task.ID), store.ErrTaskNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, userID, uuid.New()), store.ErrTaskNotFound)
}

func TestMutationEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, users, _ := newTestService(t)
	userID := users.addUser()

	emitter := events.NewInMemoryEmitter(nil)
	recorder := &recordingEventHandler{}
	emitter.RegisterHandler(recorder)
	svc.WithEmitter(emitter)

	task, err := svc.Create(ctx, userID, "tracked", nil, nil, 0)
	require.NoError(t, err)

	_, err = svc.Update(ctx, userID, task.ID, Patch{Completed: NewField(true)})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, userID, task.ID))

	require.Len(t, recorder.events, 3)
	assert.Equal(t, events.TaskCreated, recorder.events[0].Type)
	assert.Equal(t, events.TaskUpdated, recorder.events[1].Type)
	assert.Equal(t, events.TaskDeleted, recorder.events[2].Type)
	for _, event := range recorder.events {
		assert.Equal(t, userID, event.UserID)
		assert.Equal(t, task.ID, event.TaskID)
	}

	// Failed mutations emit nothing.
	_, err = svc.Update(ctx, userID, uuid.New(), Patch{Title: NewField("x")})
	require.Error(t, err)
	assert.Len(t, recorder.events, 3)
}

func TestEmitFailureDoesNotFailMutation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	users := newFakeUserStore()
	tasks := newFakeTaskStore()

	var logBuf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logBuf, nil))
	svc := NewService(users, tasks, log)
	userID := users.addUser()

	emitter := events.NewInMemoryEmitter(nil)
	emitter.RegisterHandler(&failingEventHandler{err: errors.New("audit sink unavailable")})
	svc.WithEmitter(emitter)

	// The mutation succeeds; the delivery failure is logged with its cause.
	task, err := svc.Create(ctx, userID, "still created", nil, nil, 0)
	require.NoError(t, err)
	require.NotNil(t, task)

	logged := logBuf.String()
	assert.Contains(t, logged, "failed to emit task event")
	assert.Contains(t, logged, "audit sink unavailable")
}

type failingEventHandler struct {
	err error
}

func (h *failingEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	return h.err
}

type recordingEventHandler struct {
	mu     sync.Mutex
	events []*events.Event
}

func (h *recordingEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}
