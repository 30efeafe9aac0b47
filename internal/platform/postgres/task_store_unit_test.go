package postgres

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/todo-api/internal/store"
)

func boolPtr(b bool) *bool { return &b }

func TestBuildListWhere(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	tests := []struct {
		name      string
		filter    store.TaskFilter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "scoping only",
			filter:    store.TaskFilter{},
			wantWhere: "user_id = $1",
			wantArgs:  []any{userID},
		},
		{
			name:      "completed filter",
			filter:    store.TaskFilter{Completed: boolPtr(true)},
			wantWhere: "user_id = $1 AND completed = $2",
			wantArgs:  []any{userID, true},
		},
		{
			name:   "search filter",
			filter: store.TaskFilter{Search: "milk"},
			wantWhere: "user_id = $1 AND " +
				"(position($2 in title) > 0 OR (description IS NOT NULL AND position($2 in description) > 0))",
			wantArgs: []any{userID, "milk"},
		},
		{
			name:      "blank search is not a predicate",
			filter:    store.TaskFilter{Search: " \t "},
			wantWhere: "user_id = $1",
			wantArgs:  []any{userID},
		},
		{
			name:   "all predicates",
			filter: store.TaskFilter{Completed: boolPtr(false), Search: "report"},
			wantWhere: "user_id = $1 AND completed = $2 AND " +
				"(position($3 in title) > 0 OR (description IS NOT NULL AND position($3 in description) > 0))",
			wantArgs: []any{userID, false, "report"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			where, args := buildListWhere(userID, tc.filter)
			assert.Equal(t, tc.wantWhere, where)
			assert.Equal(t, tc.wantArgs, args)
		})
	}
}

func TestBuildListWhereScopesUserFirst(t *testing.T) {
	t.Parallel()

	// The ownership predicate is always the first clause and always bound
	// to $1, regardless of the rest of the filter.
	where, args := buildListWhere(uuid.New(), store.TaskFilter{Search: "x", Completed: boolPtr(true)})
	require.NotEmpty(t, args)
	assert.True(t, strings.HasPrefix(where, "user_id = $1"))
}

func TestTaskListOrder(t *testing.T) {
	t.Parallel()

	// NULLS FIRST under a descending sort is what makes a missing due date
	// behave as the maximum possible date.
	assert.Equal(
		t,
		"ORDER BY due_date DESC NULLS FIRST, priority DESC, created_at DESC, id",
		taskListOrder,
	)
}
