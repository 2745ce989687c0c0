package v1

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noorhaan-almohammed/task-manager-api/internal/models"
	"github.com/noorhaan-almohammed/task-manager-api/internal/services"
)

type commentResponse struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type attachmentResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type taskResponse struct {
	ID          int64                `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Type        string               `json:"type"`
	Status      string               `json:"status"`
	Priority    string               `json:"priority"`
	DueDate     string               `json:"due_date"`
	AssignTo    *string              `json:"assign_to"`
	CreatedBy   string               `json:"created_by"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	DependsOn   []int64              `json:"depends_on,omitempty"`
	Comments    []commentResponse    `json:"comments,omitempty"`
	Attachments []attachmentResponse `json:"attachments,omitempty"`
}

func newTaskResponse(task *models.Task) taskResponse {
	resp := taskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Type:        task.Type,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     task.DueDate.Format(time.DateOnly),
		AssignTo:    task.AssignTo,
		CreatedBy:   task.CreatedBy,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		DependsOn:   task.DependsOn,
	}
	for _, comment := range task.Comments {
		resp.Comments = append(resp.Comments, commentResponse{
			ID:        comment.ID,
			Content:   comment.Content,
			UserID:    comment.UserID,
			CreatedAt: comment.CreatedAt,
		})
	}
	for _, attachment := range task.Attachments {
		resp.Attachments = append(resp.Attachments, attachmentResponse{
			ID:        attachment.ID,
			Name:      attachment.Name,
			Path:      attachment.Path,
			UserID:    attachment.UserID,
			CreatedAt: attachment.CreatedAt,
		})
	}
	return resp
}

func newTaskListResponse(tasks []*models.Task) []taskResponse {
	response := make([]taskResponse, len(tasks))
	for i, task := range tasks {
		response[i] = newTaskResponse(task)
	}
	return response
}

// taskIDParam parses the :id route parameter. A malformed id aborts
// with a 400 and returns false.
func (h *handlerImpl) taskIDParam(c *gin.Context) (int64, bool) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.logger.Error().
			Str("id", c.Param("id")).
			Msg("invalid task id")
		abort(c, newBadRequestError("invalid task id"))
		return 0, false
	}
	return taskID, true
}

func pageQuery(c *gin.Context) uint32 {
	page, err := strconv.ParseUint(c.Query("page"), 10, 32)
	if err != nil {
		return 0
	}
	return uint32(page)
}

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	DueDate     string  `json:"due_date"`
	AssignTo    string  `json:"assign_to"`
	DependsOn   []int64 `json:"depends_on"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	dueDate, err := time.Parse(time.DateOnly, req.DueDate)
	if err != nil {
		h.logger.Warn().
			Str("due_date", req.DueDate).
			Msg("invalid due date")
		abortValidation(c, &services.ValidationError{
			Field:   "due_date",
			Message: "due date must be a valid date (YYYY-MM-DD)",
		})
		return
	}

	task, err := h.tasks.CreateTask(c, services.CreateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     dueDate,
		AssignTo:    req.AssignTo,
		DependsOn:   req.DependsOn,
		ActorID:     userID,
	})
	if err != nil {
		if abortIfValidation(c, err) {
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to create task")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusCreated, newTaskResponse(task))
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	taskID, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c, taskID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to get task")
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

func (h *handlerImpl) HandleFilterTasks(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	filter := services.TaskFilter{
		ActorID:  userID,
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Type:     c.Query("type"),
		DueDate:  c.Query("due_date"),
		AssignTo: c.Query("assign_to"),
		Page:     pageQuery(c),
	}

	if raw := c.Query("depends_on"); raw != "" && raw != "null" {
		dependsOn, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.logger.Error().
				Str("depends_on", raw).
				Msg("invalid depends_on filter")
			abort(c, newBadRequestError("invalid depends_on filter"))
			return
		}
		filter.DependsOn = &dependsOn
	}

	tasks, err := h.tasks.FilterTasks(c, filter)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to filter tasks")
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			abort(c, newNotFoundError("no tasks matched the filter"))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, newTaskListResponse(tasks))
}

func (h *handlerImpl) HandleListAssignedTasks(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	tasks, err := h.tasks.TasksAssignedTo(c, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list assigned tasks")
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			abort(c, newNotFoundError("no assigned tasks found"))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, newTaskListResponse(tasks))
}

type setTaskStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *handlerImpl) HandleSetTaskStatus(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	taskID, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	var req setTaskStatusRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.UpdateTaskStatus(c, services.UpdateTaskStatusParams{
		TaskID:  taskID,
		Status:  req.Status,
		ActorID: userID,
	})
	if err != nil {
		if abortIfValidation(c, err) {
			return
		}

		h.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to update task status")
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		case errors.Is(err, services.ErrNotTaskAssignee):
			abort(c, newForbiddenError(services.ErrNotTaskAssignee.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

type addCommentRequest struct {
	Content string `json:"content"`
}

func (h *handlerImpl) HandleAddComment(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	taskID, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	var req addCommentRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	if req.Content == "" {
		abortValidation(c, &services.ValidationError{
			Field:   "content",
			Message: "content is required",
		})
		return
	}

	task, err := h.tasks.AddComment(c, services.AddCommentParams{
		TaskID:  taskID,
		Content: req.Content,
		ActorID: userID,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to add comment")
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusCreated, newTaskResponse(task))
}

type blockedTaskResponse struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	Priority string `json:"priority"`
	DueDate  string `json:"due_date"`
}

func (h *handlerImpl) HandleBlockedTasks(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	tasks, err := h.tasks.BlockedTasks(c, userID, pageQuery(c))
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list blocked tasks")
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			abort(c, newNotFoundError("no blocked tasks found"))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	response := make([]blockedTaskResponse, len(tasks))
	for i, task := range tasks {
		response[i] = blockedTaskResponse{
			ID:       task.ID,
			Title:    task.Title,
			Type:     task.Type,
			Priority: task.Priority,
			DueDate:  task.DueDate.Format(time.DateOnly),
		}
	}
	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	taskID, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	err := h.tasks.DeleteTask(c, taskID, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to delete task")
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		case errors.Is(err, services.ErrNotTaskCreator):
			abort(c, newForbiddenError(services.ErrNotTaskCreator.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleTrashedTasks(c *gin.Context) {
	tasks, err := h.tasks.TrashedTasks(c, pageQuery(c))
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list trashed tasks")
		switch {
		case errors.Is(err, services.ErrTrashedTaskNotFound):
			abort(c, newNotFoundError("no trashed tasks found"))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, newTaskListResponse(tasks))
}

func (h *handlerImpl) HandleRestoreTask(c *gin.Context) {
	taskID, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	task, err := h.tasks.RestoreTask(c, taskID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to restore task")
		switch {
		case errors.Is(err, services.ErrTrashedTaskNotFound):
			abort(c, newNotFoundError(services.ErrTrashedTaskNotFound.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

func (h *handlerImpl) HandlePurgeTask(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	taskID, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	err := h.tasks.ForceDeleteTask(c, taskID, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to purge task")
		switch {
		case errors.Is(err, services.ErrTrashedTaskNotFound):
			abort(c, newNotFoundError(services.ErrTrashedTaskNotFound.Error()))
		case errors.Is(err, services.ErrNotTaskCreator):
			abort(c, newForbiddenError(services.ErrNotTaskCreator.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.Status(http.StatusNoContent)
}

type assignTaskRequest struct {
	AssignTo string `json:"assign_to" binding:"required"`
}

func (h *handlerImpl) HandleAssignTask(c *gin.Context) {
	h.handleAssignment(c, h.assignments.AssignTask)
}

func (h *handlerImpl) HandleReassignTask(c *gin.Context) {
	h.handleAssignment(c, h.assignments.ReassignTask)
}

func (h *handlerImpl) handleAssignment(
	c *gin.Context,
	assign func(ctx context.Context, params services.AssignmentParams) (*models.Task, error),
) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	taskID, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	var req assignTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := assign(c, services.AssignmentParams{
		TaskID:      taskID,
		CandidateID: req.AssignTo,
		ActorID:     userID,
	})
	if err != nil {
		if abortIfValidation(c, err) {
			return
		}

		h.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to assign task")
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		case errors.Is(err, services.ErrNotTaskCreator):
			abort(c, newForbiddenError(services.ErrNotTaskCreator.Error()))
		case errors.Is(err, services.ErrTaskAlreadyAssigned):
			abort(c, newConflictError(services.ErrTaskAlreadyAssigned.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}
