package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/api/middleware"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/service/task"
)

// TaskHandler handles the per-user task CRUD and query endpoints. Every
// request is scoped to the authenticated user taken from the context;
// tasks owned by other users are indistinguishable from missing ones.
type TaskHandler struct {
	tasks *task.Service
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks *task.Service) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// List handles GET /api/tasks. Supported query parameters: page, pageSize,
// completed, search. Out-of-range values are clamped rather than rejected.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	q := r.URL.Query()
	page := parseIntParam(q.Get("page"), 1)
	pageSize := parseIntParam(q.Get("pageSize"), task.DefaultPageSize)

	var completed *bool
	if raw := q.Get("completed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest,
				"completed must be true or false")
			return
		}
		completed = &v
	}

	result, err := h.tasks.List(r.Context(), userID, page, pageSize, completed, q.Get("search"))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err),
			GetSafeErrorMessage(err), err)
		return
	}

	items := make([]TaskResponse, 0, len(result.Items))
	for _, t := range result.Items {
		items = append(items, taskToResponse(t))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: totalPages(result.TotalCount, result.PageSize),
	})
}

// Get handles GET /api/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	taskID, err := parseTaskID(r)
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	t, err := h.tasks.Get(r.Context(), userID, taskID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err),
			GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(t))
}

// Create handles POST /api/tasks. Responds with 201, the created task, and
// a Location header pointing at it.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithValidationError(w, r, "validation failed", validationFields(err))
		return
	}

	t, err := h.tasks.Create(r.Context(), userID, req.Title, req.Description, req.DueDate, req.Priority)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err),
			GetSafeErrorMessage(err), err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/tasks/%s", t.ID))
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(t))
}

// Update handles PUT /api/tasks/{id}. The body is a partial update:
// omitted fields keep their current values, explicit nulls clear the
// optional ones. Responds with 204 on success.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	taskID, err := parseTaskID(r)
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	patch, err := patchFromRequest(req)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.tasks.Update(r.Context(), userID, taskID, patch); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err),
			GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/tasks/{id}. Responds with 204 on success.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	taskID, err := parseTaskID(r)
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	if err := h.tasks.Delete(r.Context(), userID, taskID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err),
			GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// patchFromRequest maps the wire-level update request onto a service patch.
// Title, isCompleted, and priority are non-nullable; an explicit null for
// any of them is rejected here before the service sees it.
func patchFromRequest(req UpdateTaskRequest) (task.Patch, error) {
	var patch task.Patch

	if req.Title.Present {
		if !req.Title.Valid {
			return task.Patch{}, errors.New("title cannot be null")
		}
		patch.Title = task.NewField(req.Title.Value)
	}
	if req.Description.Present {
		patch.Description = task.NewField(req.Description.Ptr())
	}
	if req.DueDate.Present {
		patch.DueDate = task.NewField(req.DueDate.Ptr())
	}
	if req.IsCompleted.Present {
		if !req.IsCompleted.Valid {
			return task.Patch{}, errors.New("isCompleted cannot be null")
		}
		patch.Completed = task.NewField(req.IsCompleted.Value)
	}
	if req.Priority.Present {
		if !req.Priority.Valid {
			return task.Patch{}, errors.New("priority cannot be null")
		}
		if req.Priority.Value < domain.MinPriority || req.Priority.Value > domain.MaxPriority {
			return task.Patch{}, domain.ErrInvalidPriority
		}
		patch.Priority = task.NewField(req.Priority.Value)
	}

	return patch, nil
}

// parseTaskID extracts and parses the {id} URL parameter. A malformed ID
// is reported as domain.ErrInvalidID so the shared error mapping turns it
// into a 400 with a stable message.
func parseTaskID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", domain.ErrInvalidID, err)
	}
	return id, nil
}

// parseIntParam parses a positive integer query parameter, falling back to
// def when the parameter is absent or not a number. Range clamping happens
// in the service layer.
func parseIntParam(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
