package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/noorhaan-almohammed/task-manager-api/internal/models"
	"github.com/noorhaan-almohammed/task-manager-api/internal/notify"
)

const reportQueueSize = 64

type reportServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
	mailer notify.Mailer
	queue  chan string
}

func NewReportService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	mailer notify.Mailer,
) ReportService {
	return &reportServiceImpl{
		logger: logger,
		pgPool: pgPool,
		mailer: mailer,
		queue:  make(chan string, reportQueueSize),
	}
}

func (s *reportServiceImpl) Trigger(userID string) error {
	select {
	case s.queue <- userID:
		s.logger.Info().
			Str("user_id", userID).
			Msg("queued daily report")
		return nil
	default:
		s.logger.Warn().
			Str("user_id", userID).
			Msg("report queue full")
		return ErrReportQueueFull
	}
}

func (s *reportServiceImpl) Run(ctx context.Context) {
	s.logger.Info().Msg("report worker started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("report worker stopped")
			return
		case userID := <-s.queue:
			// Best-effort and at-least-once: the report is
			// recomputed from scratch on every run, so a
			// duplicate delivery carries the same content.
			if err := s.deliver(ctx, userID); err != nil {
				s.logger.Error().
					Err(err).
					Str("user_id", userID).
					Msg("failed to deliver daily report")
			}
		}
	}
}

func (s *reportServiceImpl) deliver(ctx context.Context, userID string) error {
	var email string

	const selectUserEmailQuery = `
SELECT email
FROM users
WHERE id = $1
`
	err := s.pgPool.QueryRow(
		ctx,
		selectUserEmailQuery,
		userID,
	).Scan(&email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to select user: %w", err)
	}

	const selectDueTodayQuery = `
SELECT title, type, status, priority
FROM tasks
WHERE created_by = $1 AND
      due_date = $2 AND
      deleted_at IS NULL
ORDER BY priority, title
`
	rows, err := s.pgPool.Query(
		ctx,
		selectDueTodayQuery,
		userID,
		time.Now().Format(time.DateOnly),
	)
	if err != nil {
		return fmt.Errorf("failed to select due tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task := new(models.Task)
		err = rows.Scan(
			&task.Title,
			&task.Type,
			&task.Status,
			&task.Priority,
		)
		if err != nil {
			return fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate over rows: %w", err)
	}

	if len(tasks) == 0 {
		s.logger.Info().
			Str("user_id", userID).
			Msg("no tasks due today, skipping report")
		return nil
	}

	body := formatDailyReport(tasks)
	if err = s.mailer.Send(email, "Your Daily Task Report", body); err != nil {
		return err
	}

	s.logger.Info().
		Str("user_id", userID).
		Int("count", len(tasks)).
		Msg("sent daily report")
	return nil
}

func formatDailyReport(tasks []*models.Task) string {
	var b strings.Builder
	b.WriteString("Here is your task report for today:\n\n")
	for _, task := range tasks {
		fmt.Fprintf(&b, "Title: %s, Type: %s, Status: %s, Priority: %s\n",
			task.Title, task.Type, task.Status, task.Priority)
	}
	b.WriteString("\nThank you for using our application!\n")
	return b.String()
}
