package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task validation errors. Each wraps ErrValidation so callers can match
// the whole category with errors.Is.
var (
	ErrEmptyTaskID      = fmt.Errorf("%w: task ID cannot be empty", ErrValidation)
	ErrEmptyTaskOwner   = fmt.Errorf("%w: task owner ID cannot be empty", ErrValidation)
	ErrEmptyTaskTitle   = fmt.Errorf("%w: task title cannot be empty", ErrValidation)
	ErrTaskTitleTooLong = fmt.Errorf("%w: task title must be at most 200 characters", ErrValidation)
	ErrInvalidPriority  = fmt.Errorf("%w: task priority must be between 1 and 5", ErrValidation)
)

// Priority scale. Higher priority sorts first when due dates tie.
const (
	MinPriority     = 1
	MaxPriority     = 5
	DefaultPriority = 3
)

// MaxTitleLength bounds task titles.
const MaxTitleLength = 200

// Task represents a single todo item owned by exactly one user.
// Ownership is set at creation and never transferable; every read and
// mutation of a task is scoped to its owner.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"-"` // Owner; never exposed in task payloads
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Completed   bool       `json:"isCompleted"`
	Priority    int        `json:"priority"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NewTask creates a new Task owned by the given user. It generates a fresh
// task ID, normalizes the due date to UTC, defaults the completed flag to
// false, and assigns the creation timestamp. CreatedAt is set exactly once
// here and is never updated afterwards.
// Returns an error if validation fails.
func NewTask(
	userID uuid.UUID,
	title string,
	description *string,
	dueDate *time.Time,
	priority int,
) (*Task, error) {
	task := &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		DueDate:     NormalizeDueDate(dueDate),
		Completed:   false,
		Priority:    priority,
		CreatedAt:   time.Now().UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// NormalizeDueDate converts a due date to UTC so stored comparisons are
// timezone-free. Returns nil for a nil input.
func NormalizeDueDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.UserID == uuid.Nil {
		return ErrEmptyTaskOwner
	}

	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTaskTitle
	}

	if len(t.Title) > MaxTitleLength {
		return ErrTaskTitleTooLong
	}

	if t.Priority < MinPriority || t.Priority > MaxPriority {
		return ErrInvalidPriority
	}

	return nil
}
