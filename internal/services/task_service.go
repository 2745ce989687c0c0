package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/noorhaan-almohammed/task-manager-api/internal/cache"
	"github.com/noorhaan-almohammed/task-manager-api/internal/models"
)

const tasksPerPage = 10

type taskServiceImpl struct {
	logger     zerolog.Logger
	pgPool     *pgxpool.Pool
	queryCache *cache.Cache[[]*models.Task]
	uploadsDir string
}

func NewTaskService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	queryCache *cache.Cache[[]*models.Task],
	uploadsDir string,
) TaskService {
	return &taskServiceImpl{
		logger:     logger,
		pgPool:     pgPool,
		queryCache: queryCache,
		uploadsDir: uploadsDir,
	}
}

// statusRequiresDependencies reports whether a task created with the
// given status must carry at least one dependency edge.
func statusRequiresDependencies(status string) bool {
	return status == models.StatusBlocked
}

// canTransitionTo reports whether updateStatus may move a task to the
// given status. Open and Blocked are set at creation only.
func canTransitionTo(status string) bool {
	return status == models.StatusInProgress || status == models.StatusCompleted
}

func validateNewTask(params CreateTaskParams, now time.Time) *ValidationError {
	if params.Title == "" {
		return newValidationError("title", "title is required")
	}
	if len(params.Title) > 30 {
		return newValidationError("title", "title must not exceed 30 characters")
	}
	if len(params.Description) > 225 {
		return newValidationError("description", "description must not exceed 225 characters")
	}

	switch params.Type {
	case models.TypeBug, models.TypeFeature, models.TypeImprovement:
	default:
		return newValidationError("type", "type should be Bug, Feature or Improvement")
	}

	switch params.Status {
	case models.StatusOpen, models.StatusBlocked:
	default:
		return newValidationError("status", "status should be Open or Blocked")
	}

	switch params.Priority {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
	default:
		return newValidationError("priority", "priority should be Low, Medium or High")
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	due := time.Date(params.DueDate.Year(), params.DueDate.Month(), params.DueDate.Day(),
		0, 0, 0, 0, now.Location())
	if !due.After(today) {
		return newValidationError("due_date", "due date must be after today")
	}

	if params.AssignTo == "" {
		return newValidationError("assign_to", "assign_to is required")
	}

	if statusRequiresDependencies(params.Status) && len(params.DependsOn) == 0 {
		return newValidationError("depends_on", "depends_on is required when status is Blocked")
	}
	return nil
}

// validateDependencySet checks that every referenced task exists and
// that the set holds no duplicates. Edges are only ever created here,
// at task birth, pointing at pre-existing tasks, so the dependency
// graph stays acyclic by construction.
func (s *taskServiceImpl) validateDependencySet(ctx context.Context, ids []int64) error {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return newValidationError("depends_on", fmt.Sprintf("duplicate dependency on task %d", id))
		}
		seen[id] = struct{}{}
	}

	const countTasksByIDsQuery = `
SELECT count(*)
FROM tasks
WHERE id = ANY ($1) AND
      deleted_at IS NULL
`
	var count int64
	err := s.pgPool.QueryRow(
		ctx,
		countTasksByIDsQuery,
		ids,
	).Scan(&count)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to count dependency tasks")
		return err
	}

	if count != int64(len(ids)) {
		return newValidationError("depends_on", "one or more dependency tasks do not exist")
	}
	return nil
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	now := time.Now()
	if vErr := validateNewTask(params, now); vErr != nil {
		s.logger.Warn().
			Str("field", vErr.Field).
			Msg("rejected task creation")
		return nil, vErr
	}

	candidate, err := s.lookupUser(ctx, params.AssignTo)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, newValidationError("assign_to", "User not found")
		}
		return nil, err
	}
	if candidate.Role == models.RoleAdmin {
		return nil, newValidationError("assign_to", "Cannot assign task to an admin.")
	}

	if statusRequiresDependencies(params.Status) {
		if err = s.validateDependencySet(ctx, params.DependsOn); err != nil {
			return nil, err
		}
	}

	task := &models.Task{
		Title:       params.Title,
		Description: params.Description,
		Type:        params.Type,
		Status:      params.Status,
		Priority:    params.Priority,
		DueDate:     params.DueDate,
		AssignTo:    &candidate.ID,
		CreatedBy:   params.ActorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertTaskQuery = `
INSERT INTO tasks (title,
                   description,
                   type,
                   status,
                   priority,
                   due_date,
                   assign_to,
                   created_by,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id
`
	err = tx.QueryRow(
		ctx,
		insertTaskQuery,
		task.Title,
		task.Description,
		task.Type,
		task.Status,
		task.Priority,
		task.DueDate,
		task.AssignTo,
		task.CreatedBy,
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&task.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			s.logger.Warn().
				Str("title", task.Title).
				Msg("task title already taken")
			return nil, newValidationError("title", "title has already been taken")
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}

	const insertStatusUpdateQuery = `
INSERT INTO task_status_updates (task_id, status, changed_by, created_at)
VALUES ($1, $2, $3, $4)
`
	_, err = tx.Exec(
		ctx,
		insertStatusUpdateQuery,
		task.ID,
		task.Status,
		task.CreatedBy,
		now,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to insert status update")
		return nil, err
	}

	if statusRequiresDependencies(task.Status) {
		const insertDependencyQuery = `
INSERT INTO task_dependencies (task_id, depends_on_id, created_at, updated_at)
VALUES ($1, $2, $3, $4)
`
		for _, dependsOnID := range params.DependsOn {
			_, err = tx.Exec(
				ctx,
				insertDependencyQuery,
				task.ID,
				dependsOnID,
				now,
				now,
			)
			if err != nil {
				s.logger.Error().
					Err(err).
					Int64("task_id", task.ID).
					Int64("depends_on_id", dependsOnID).
					Msg("failed to insert dependency")
				return nil, err
			}
		}
		task.DependsOn = params.DependsOn
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Str("status", task.Status).
		Msg("created task")

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("created_by", task.CreatedBy).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, taskID int64) (*models.Task, error) {
	task := &models.Task{ID: taskID}

	const selectTaskByIDQuery = `
SELECT title,
       description,
       type,
       status,
       priority,
       due_date,
       assign_to,
       created_by,
       created_at,
       updated_at
FROM tasks
WHERE id = $1 AND
      deleted_at IS NULL
`
	err := s.pgPool.QueryRow(
		ctx,
		selectTaskByIDQuery,
		task.ID,
	).Scan(
		&task.Title,
		&task.Description,
		&task.Type,
		&task.Status,
		&task.Priority,
		&task.DueDate,
		&task.AssignTo,
		&task.CreatedBy,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Int64("task_id", task.ID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to select task")
		return nil, err
	}

	err = s.loadRelations(ctx, task)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Msg("selected task")
	return task, nil
}

func (s *taskServiceImpl) TasksAssignedTo(ctx context.Context, userID string) ([]*models.Task, error) {
	key := assignedTasksKey(userID)
	if tasks, ok := s.queryCache.Get(key); ok {
		s.logger.Debug().
			Str("user_id", userID).
			Msg("assigned tasks served from cache")
		return tasks, nil
	}

	const selectAssignedTasksQuery = `
SELECT id,
       title,
       description,
       type,
       status,
       priority,
       due_date,
       assign_to,
       created_by,
       created_at,
       updated_at
FROM tasks
WHERE assign_to = $1 AND
      deleted_at IS NULL
ORDER BY created_at DESC
`
	tasks, err := s.queryTasks(ctx, selectAssignedTasksQuery, userID)
	if err != nil {
		return nil, err
	}

	if len(tasks) == 0 {
		s.logger.Info().
			Str("user_id", userID).
			Msg("no assigned tasks found")
		return nil, ErrTaskNotFound
	}
	s.queryCache.Set(key, tasks)

	s.logger.Info().
		Int("count", len(tasks)).
		Str("user_id", userID).
		Msg("assigned tasks found")
	return tasks, nil
}

func (s *taskServiceImpl) UpdateTaskStatus(ctx context.Context, params UpdateTaskStatusParams) (*models.Task, error) {
	if !canTransitionTo(params.Status) {
		return nil, newValidationError("status", "Status should be In_Progress or Completed")
	}

	task := &models.Task{ID: params.TaskID}

	const selectTaskForStatusQuery = `
SELECT title,
       description,
       type,
       status,
       priority,
       due_date,
       assign_to,
       created_by,
       created_at
FROM tasks
WHERE id = $1 AND
      deleted_at IS NULL
`
	err := s.pgPool.QueryRow(
		ctx,
		selectTaskForStatusQuery,
		task.ID,
	).Scan(
		&task.Title,
		&task.Description,
		&task.Type,
		&task.Status,
		&task.Priority,
		&task.DueDate,
		&task.AssignTo,
		&task.CreatedBy,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Int64("task_id", task.ID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to select task")
		return nil, err
	}

	if task.AssignTo == nil || *task.AssignTo != params.ActorID {
		s.logger.Warn().
			Int64("task_id", task.ID).
			Str("actor_id", params.ActorID).
			Msg("status update by non-assignee rejected")
		return nil, ErrNotTaskAssignee
	}

	now := time.Now()
	task.Status = params.Status
	task.UpdatedAt = now

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const updateTaskStatusQuery = `
UPDATE tasks
SET status = $1,
    updated_at = $2
WHERE id = $3
`
	_, err = tx.Exec(
		ctx,
		updateTaskStatusQuery,
		task.Status,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to update task status")
		return nil, err
	}

	const insertStatusUpdateQuery = `
INSERT INTO task_status_updates (task_id, status, changed_by, created_at)
VALUES ($1, $2, $3, $4)
`
	_, err = tx.Exec(
		ctx,
		insertStatusUpdateQuery,
		task.ID,
		task.Status,
		params.ActorID,
		now,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to insert status update")
		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	err = s.loadRelations(ctx, task)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Str("status", task.Status).
		Msg("updated task status")

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("changed_by", params.ActorID).
		Str("status", task.Status).
		Msg("updated task status")
	return task, nil
}

func (s *taskServiceImpl) AddComment(ctx context.Context, params AddCommentParams) (*models.Task, error) {
	task, err := s.GetTask(ctx, params.TaskID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	const insertCommentQuery = `
INSERT INTO comments (content, owner_kind, owner_id, user_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id
`
	comment := models.Comment{
		Content:   params.Content,
		OwnerKind: models.OwnerKindTask,
		OwnerID:   task.ID,
		UserID:    params.ActorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.pgPool.QueryRow(
		ctx,
		insertCommentQuery,
		comment.Content,
		comment.OwnerKind,
		comment.OwnerID,
		comment.UserID,
		comment.CreatedAt,
		comment.UpdatedAt,
	).Scan(&comment.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to insert comment")
		return nil, err
	}
	task.Comments = append(task.Comments, comment)
	s.logger.Debug().
		Int64("task_id", task.ID).
		Int64("comment_id", comment.ID).
		Msg("inserted comment")

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("user_id", params.ActorID).
		Msg("added comment")
	return task, nil
}

// assignedTasksKey caches the per-user assigned list under the same
// cache as the filter queries.
type assignedTasksKey string

func (k assignedTasksKey) CacheKey() string {
	return "assigned_" + string(k)
}

func (f TaskFilter) CacheKey() string {
	orDefault := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}

	dependsOn := "none"
	if f.DependsOn != nil {
		dependsOn = strconv.FormatInt(*f.DependsOn, 10)
	}

	var b strings.Builder
	b.WriteString("tasks_")
	b.WriteString(f.ActorID)
	b.WriteString("&status:")
	b.WriteString(orDefault(f.Status, "all_status"))
	b.WriteString("&priority:")
	b.WriteString(orDefault(f.Priority, "all_priority"))
	b.WriteString("&type:")
	b.WriteString(orDefault(f.Type, "all_type"))
	b.WriteString("&due_date:")
	b.WriteString(orDefault(f.DueDate, "all_due_date"))
	b.WriteString("&assign_to:")
	b.WriteString(orDefault(f.AssignTo, "all_assign_to"))
	b.WriteString("&depends_on:")
	b.WriteString(dependsOn)
	b.WriteString("&page:")
	b.WriteString(strconv.FormatUint(uint64(f.Page), 10))
	return b.String()
}

func (s *taskServiceImpl) FilterTasks(ctx context.Context, filter TaskFilter) ([]*models.Task, error) {
	if tasks, ok := s.queryCache.Get(filter); ok {
		s.logger.Debug().
			Str("cache_key", filter.CacheKey()).
			Msg("filtered tasks served from cache")
		return tasks, nil
	}

	query := strings.Builder{}
	query.WriteString(`
SELECT id,
       title,
       description,
       type,
       status,
       priority,
       due_date,
       assign_to,
       created_by,
       created_at,
       updated_at
FROM tasks
WHERE created_by = $1 AND
      deleted_at IS NULL
`)
	args := []any{filter.ActorID}

	addFilter := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		query.WriteString(fmt.Sprintf(" AND %s = $%d", column, len(args)))
	}
	addFilter("status", filter.Status)
	addFilter("priority", filter.Priority)
	addFilter("type", filter.Type)
	addFilter("due_date", filter.DueDate)
	addFilter("assign_to", filter.AssignTo)

	if filter.DependsOn != nil {
		args = append(args, *filter.DependsOn)
		query.WriteString(fmt.Sprintf(` AND EXISTS (
    SELECT 1 FROM task_dependencies d
    WHERE d.task_id = tasks.id AND d.depends_on_id = $%d)`, len(args)))
	} else {
		query.WriteString(` AND NOT EXISTS (
    SELECT 1 FROM task_dependencies d
    WHERE d.task_id = tasks.id)`)
	}

	args = append(args, tasksPerPage, filter.Page*tasksPerPage)
	query.WriteString(fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args)))

	tasks, err := s.queryTasks(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}

	if len(tasks) == 0 {
		s.logger.Info().
			Str("cache_key", filter.CacheKey()).
			Msg("no tasks matched filter")
		return nil, ErrTaskNotFound
	}
	s.queryCache.Set(filter, tasks)

	s.logger.Info().
		Int("count", len(tasks)).
		Msg("filtered tasks")
	return tasks, nil
}

func (s *taskServiceImpl) BlockedTasks(ctx context.Context, actorID string, page uint32) ([]*models.Task, error) {
	const selectBlockedTasksQuery = `
SELECT id,
       title,
       type,
       priority,
       due_date
FROM tasks
WHERE status = 'Blocked' AND
      created_by = $1 AND
      deleted_at IS NULL
ORDER BY due_date
LIMIT $2 OFFSET $3
`
	rows, err := s.pgPool.Query(
		ctx,
		selectBlockedTasksQuery,
		actorID,
		tasksPerPage,
		page*tasksPerPage,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select blocked tasks")
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0, tasksPerPage)
	for rows.Next() {
		task := &models.Task{Status: models.StatusBlocked}
		err = rows.Scan(
			&task.ID,
			&task.Title,
			&task.Type,
			&task.Priority,
			&task.DueDate,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan blocked task")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	if len(tasks) == 0 {
		s.logger.Info().
			Str("actor_id", actorID).
			Msg("no blocked tasks found")
		return nil, ErrTaskNotFound
	}

	s.logger.Info().
		Int("count", len(tasks)).
		Msg("blocked tasks found")
	return tasks, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, taskID int64, actorID string) error {
	var createdBy string

	const selectTaskCreatorQuery = `
SELECT created_by
FROM tasks
WHERE id = $1 AND
      deleted_at IS NULL
`
	err := s.pgPool.QueryRow(
		ctx,
		selectTaskCreatorQuery,
		taskID,
	).Scan(&createdBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Int64("task_id", taskID).
				Msg("task not found")
			return ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to select task creator")
		return err
	}

	if createdBy != actorID {
		s.logger.Warn().
			Int64("task_id", taskID).
			Str("actor_id", actorID).
			Msg("delete by non-creator rejected")
		return ErrNotTaskCreator
	}

	const softDeleteTaskQuery = `
UPDATE tasks
SET deleted_at = $1,
    updated_at = $1
WHERE id = $2
`
	_, err = s.pgPool.Exec(
		ctx,
		softDeleteTaskQuery,
		time.Now(),
		taskID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to soft-delete task")
		return err
	}

	s.logger.Info().
		Int64("task_id", taskID).
		Str("actor_id", actorID).
		Msg("soft-deleted task")
	return nil
}

func (s *taskServiceImpl) TrashedTasks(ctx context.Context, page uint32) ([]*models.Task, error) {
	const selectTrashedTasksQuery = `
SELECT id,
       title,
       description,
       type,
       status,
       priority,
       due_date,
       assign_to,
       created_by,
       created_at,
       updated_at
FROM tasks
WHERE deleted_at IS NOT NULL
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`
	tasks, err := s.queryTasks(ctx, selectTrashedTasksQuery, tasksPerPage, page*tasksPerPage)
	if err != nil {
		return nil, err
	}

	if len(tasks) == 0 {
		s.logger.Info().Msg("no trashed tasks found")
		return nil, ErrTrashedTaskNotFound
	}

	s.logger.Info().
		Int("count", len(tasks)).
		Msg("trashed tasks found")
	return tasks, nil
}

func (s *taskServiceImpl) RestoreTask(ctx context.Context, taskID int64) (*models.Task, error) {
	task := &models.Task{ID: taskID}

	const restoreTaskQuery = `
UPDATE tasks
SET deleted_at = NULL,
    updated_at = $1
WHERE id = $2 AND
      deleted_at IS NOT NULL
RETURNING title, description, type, status, priority, due_date, assign_to, created_by, created_at, updated_at
`
	err := s.pgPool.QueryRow(
		ctx,
		restoreTaskQuery,
		time.Now(),
		task.ID,
	).Scan(
		&task.Title,
		&task.Description,
		&task.Type,
		&task.Status,
		&task.Priority,
		&task.DueDate,
		&task.AssignTo,
		&task.CreatedBy,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Int64("task_id", task.ID).
				Msg("trashed task not found")
			return nil, ErrTrashedTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to restore task")
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Msg("restored task")
	return task, nil
}

func (s *taskServiceImpl) ForceDeleteTask(ctx context.Context, taskID int64, actorID string) error {
	var createdBy string

	const selectTrashedTaskCreatorQuery = `
SELECT created_by
FROM tasks
WHERE id = $1 AND
      deleted_at IS NOT NULL
`
	err := s.pgPool.QueryRow(
		ctx,
		selectTrashedTaskCreatorQuery,
		taskID,
	).Scan(&createdBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Int64("task_id", taskID).
				Msg("trashed task not found")
			return ErrTrashedTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to select trashed task")
		return err
	}

	if createdBy != actorID {
		s.logger.Warn().
			Int64("task_id", taskID).
			Str("actor_id", actorID).
			Msg("purge by non-creator rejected")
		return ErrNotTaskCreator
	}

	const selectAttachmentPathsQuery = `
SELECT path
FROM attachments
WHERE owner_kind = $1 AND
      owner_id = $2
`
	rows, err := s.pgPool.Query(
		ctx,
		selectAttachmentPathsQuery,
		models.OwnerKindTask,
		taskID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to select attachment paths")
		return err
	}

	var paths []string
	for rows.Next() {
		var path string
		if err = rows.Scan(&path); err != nil {
			rows.Close()
			s.logger.Error().
				Err(err).
				Msg("failed to scan attachment path")
			return err
		}
		paths = append(paths, path)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return err
	}

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cascade := []struct {
		query string
		args  []any
	}{
		{`DELETE FROM task_dependencies WHERE task_id = $1 OR depends_on_id = $1`, []any{taskID}},
		{`DELETE FROM task_status_updates WHERE task_id = $1`, []any{taskID}},
		{`DELETE FROM comments WHERE owner_kind = $1 AND owner_id = $2`, []any{models.OwnerKindTask, taskID}},
		{`DELETE FROM attachments WHERE owner_kind = $1 AND owner_id = $2`, []any{models.OwnerKindTask, taskID}},
		{`DELETE FROM tasks WHERE id = $1`, []any{taskID}},
	}
	for _, step := range cascade {
		if _, err = tx.Exec(ctx, step.query, step.args...); err != nil {
			s.logger.Error().
				Err(err).
				Int64("task_id", taskID).
				Msg("failed to purge task")
			return err
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return err
	}

	// Stored bytes are removed after the commit; a leftover file is
	// preferable to a dangling attachment row.
	for _, path := range paths {
		if err = os.Remove(filepath.Join(s.uploadsDir, path)); err != nil && !os.IsNotExist(err) {
			s.logger.Warn().
				Err(err).
				Str("path", path).
				Msg("failed to remove attachment file")
		}
	}

	s.logger.Info().
		Int64("task_id", taskID).
		Str("actor_id", actorID).
		Msg("purged task")
	return nil
}

func (s *taskServiceImpl) queryTasks(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := s.pgPool.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks")
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0, tasksPerPage)
	for rows.Next() {
		task := new(models.Task)
		err = rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.Type,
			&task.Status,
			&task.Priority,
			&task.DueDate,
			&task.AssignTo,
			&task.CreatedBy,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	return tasks, nil
}

func (s *taskServiceImpl) loadRelations(ctx context.Context, task *models.Task) error {
	const selectDependenciesQuery = `
SELECT depends_on_id
FROM task_dependencies
WHERE task_id = $1
ORDER BY depends_on_id
`
	rows, err := s.pgPool.Query(ctx, selectDependenciesQuery, task.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to select dependencies")
		return err
	}
	task.DependsOn = task.DependsOn[:0]
	for rows.Next() {
		var dependsOnID int64
		if err = rows.Scan(&dependsOnID); err != nil {
			rows.Close()
			s.logger.Error().
				Err(err).
				Msg("failed to scan dependency")
			return err
		}
		task.DependsOn = append(task.DependsOn, dependsOnID)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return err
	}

	const selectCommentsQuery = `
SELECT id, content, user_id, created_at, updated_at
FROM comments
WHERE owner_kind = $1 AND
      owner_id = $2
ORDER BY created_at
`
	rows, err = s.pgPool.Query(ctx, selectCommentsQuery, models.OwnerKindTask, task.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to select comments")
		return err
	}
	task.Comments = task.Comments[:0]
	for rows.Next() {
		comment := models.Comment{OwnerKind: models.OwnerKindTask, OwnerID: task.ID}
		err = rows.Scan(
			&comment.ID,
			&comment.Content,
			&comment.UserID,
			&comment.CreatedAt,
			&comment.UpdatedAt,
		)
		if err != nil {
			rows.Close()
			s.logger.Error().
				Err(err).
				Msg("failed to scan comment")
			return err
		}
		task.Comments = append(task.Comments, comment)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return err
	}

	const selectAttachmentsQuery = `
SELECT id, name, path, user_id, created_at
FROM attachments
WHERE owner_kind = $1 AND
      owner_id = $2
ORDER BY created_at
`
	rows, err = s.pgPool.Query(ctx, selectAttachmentsQuery, models.OwnerKindTask, task.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to select attachments")
		return err
	}
	task.Attachments = task.Attachments[:0]
	for rows.Next() {
		attachment := models.Attachment{OwnerKind: models.OwnerKindTask, OwnerID: task.ID}
		err = rows.Scan(
			&attachment.ID,
			&attachment.Name,
			&attachment.Path,
			&attachment.UserID,
			&attachment.CreatedAt,
		)
		if err != nil {
			rows.Close()
			s.logger.Error().
				Err(err).
				Msg("failed to scan attachment")
			return err
		}
		task.Attachments = append(task.Attachments, attachment)
	}
	rows.Close()
	return rows.Err()
}

// lookupUser fetches the id and role of a prospective assignee.
func (s *taskServiceImpl) lookupUser(ctx context.Context, userID string) (*models.User, error) {
	return lookupUser(ctx, s.pgPool, s.logger, userID)
}

func lookupUser(ctx context.Context, pgPool *pgxpool.Pool, logger zerolog.Logger, userID string) (*models.User, error) {
	user := &models.User{ID: userID}

	const selectUserRoleQuery = `
SELECT name, role
FROM users
WHERE id = $1
`
	err := pgPool.QueryRow(
		ctx,
		selectUserRoleQuery,
		user.ID,
	).Scan(
		&user.Name,
		&user.Role,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Warn().
				Str("user_id", user.ID).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to select user")
		return nil, err
	}
	return user, nil
}
