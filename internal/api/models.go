package api

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
)

// Optional is a tri-state JSON field for partial updates. It distinguishes
// a field that is absent from the request body (Present false) from one
// that is explicitly null (Present true, Valid false) and from one carrying
// a value. Plain pointers cannot express the first distinction, and a
// legitimate update may want to clear an optional field.
type Optional[T any] struct {
	Present bool
	Valid   bool
	Value   T
}

// UnmarshalJSON implements json.Unmarshaler. It is only invoked for fields
// present in the body, which is what makes Present reliable.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

// Ptr returns the value as a pointer, nil when the field was null.
// Only meaningful when Present is true.
func (o Optional[T]) Ptr() *T {
	if !o.Valid {
		return nil
	}
	return &o.Value
}

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// MessageResponse is the generic success payload for endpoints that return
// no entity.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginResponse defines the successful response for the login endpoint.
type LoginResponse struct {
	Token  string    `json:"token"`
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
}

// CreateTaskRequest defines the payload for task creation. A zero priority
// means "not supplied" and selects the default.
type CreateTaskRequest struct {
	Title       string     `json:"title"       validate:"required,max=200"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    int        `json:"priority"    validate:"omitempty,min=1,max=5"`
}

// UpdateTaskRequest defines the payload for partial task updates. Every
// field is independently optional; omitted fields leave the task unchanged,
// explicit nulls clear the optional fields.
type UpdateTaskRequest struct {
	Title       Optional[string]    `json:"title"`
	Description Optional[string]    `json:"description"`
	DueDate     Optional[time.Time] `json:"dueDate"`
	IsCompleted Optional[bool]      `json:"isCompleted"`
	Priority    Optional[int]       `json:"priority"`
}

// TaskResponse is the wire representation of a task.
type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	IsCompleted bool       `json:"isCompleted"`
	Priority    int        `json:"priority"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// TaskListResponse is one page of tasks plus pagination metadata.
// TotalCount is the number of matching tasks before pagination.
type TaskListResponse struct {
	Items      []TaskResponse `json:"items"`
	TotalCount int            `json:"totalCount"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

// taskToResponse maps a domain task onto its wire representation. The
// owning user ID is deliberately absent: ownership is implied by the
// authenticated request.
func taskToResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate,
		IsCompleted: task.Completed,
		Priority:    task.Priority,
		CreatedAt:   task.CreatedAt,
	}
}

// totalPages computes the page count for a total and page size.
func totalPages(totalCount, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (totalCount + pageSize - 1) / pageSize
}
