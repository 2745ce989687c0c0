package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/noorhaan-almohammed/task-manager-api/internal/models"
)

type assignmentServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewAssignmentService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) AssignmentService {
	return &assignmentServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

// validateCandidate applies the assignment rules in order: existence,
// role, then self/duplicate checks. The first failing rule wins.
func validateCandidate(task *models.Task, candidate *models.User, reassign bool) *ValidationError {
	if candidate == nil {
		return newValidationError("assign_to", "User not found")
	}
	if candidate.Role == models.RoleAdmin {
		return newValidationError("assign_to", "Cannot assign task to an admin.")
	}
	if !reassign {
		return nil
	}
	if task.CreatedBy == candidate.ID {
		return newValidationError("assign_to", "You cannot assign a task to yourself.")
	}
	if task.AssignTo != nil && *task.AssignTo == candidate.ID {
		return newValidationError("assign_to", "Task is already assigned to this user.")
	}
	return nil
}

func (s *assignmentServiceImpl) AssignTask(ctx context.Context, params AssignmentParams) (*models.Task, error) {
	task, err := s.selectTaskForAssignment(ctx, params.TaskID)
	if err != nil {
		return nil, err
	}

	if task.CreatedBy != params.ActorID {
		s.logger.Warn().
			Int64("task_id", task.ID).
			Str("actor_id", params.ActorID).
			Msg("assignment by non-creator rejected")
		return nil, ErrNotTaskCreator
	}

	if task.AssignTo != nil {
		s.logger.Warn().
			Int64("task_id", task.ID).
			Msg("task already assigned")
		return nil, ErrTaskAlreadyAssigned
	}

	candidate, err := s.fetchCandidate(ctx, params.CandidateID)
	if err != nil {
		return nil, err
	}
	if vErr := validateCandidate(task, candidate, false); vErr != nil {
		return nil, vErr
	}

	err = s.writeAssignee(ctx, task, candidate.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("assign_to", candidate.ID).
		Msg("assigned task")
	return task, nil
}

func (s *assignmentServiceImpl) ReassignTask(ctx context.Context, params AssignmentParams) (*models.Task, error) {
	task, err := s.selectTaskForAssignment(ctx, params.TaskID)
	if err != nil {
		return nil, err
	}

	if task.CreatedBy != params.ActorID {
		s.logger.Warn().
			Int64("task_id", task.ID).
			Str("actor_id", params.ActorID).
			Msg("reassignment by non-creator rejected")
		return nil, ErrNotTaskCreator
	}

	candidate, err := s.fetchCandidate(ctx, params.CandidateID)
	if err != nil {
		return nil, err
	}
	if vErr := validateCandidate(task, candidate, true); vErr != nil {
		return nil, vErr
	}

	err = s.writeAssignee(ctx, task, candidate.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("assign_to", candidate.ID).
		Msg("reassigned task")
	return task, nil
}

// fetchCandidate maps a missing user to a nil candidate so the rule
// chain reports it as a field error rather than a lookup failure.
func (s *assignmentServiceImpl) fetchCandidate(ctx context.Context, candidateID string) (*models.User, error) {
	candidate, err := lookupUser(ctx, s.pgPool, s.logger, candidateID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return candidate, nil
}

func (s *assignmentServiceImpl) selectTaskForAssignment(ctx context.Context, taskID int64) (*models.Task, error) {
	task := &models.Task{ID: taskID}

	const selectTaskQuery = `
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
		selectTaskQuery,
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
	return task, nil
}

func (s *assignmentServiceImpl) writeAssignee(ctx context.Context, task *models.Task, assigneeID string) error {
	now := time.Now()

	const updateAssigneeQuery = `
UPDATE tasks
SET assign_to = $1,
    updated_at = $2
WHERE id = $3
`
	_, err := s.pgPool.Exec(
		ctx,
		updateAssigneeQuery,
		assigneeID,
		now,
		task.ID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to update assignee")
		return err
	}

	task.AssignTo = &assigneeID
	task.UpdatedAt = now
	s.logger.Debug().
		Int64("task_id", task.ID).
		Str("assign_to", assigneeID).
		Msg("updated assignee")
	return nil
}
