package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noorhaan-almohammed/task-manager-api/internal/models"
	"github.com/noorhaan-almohammed/task-manager-api/internal/vtscan"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")

	ErrTaskNotFound        = errors.New("task not found")
	ErrTrashedTaskNotFound = errors.New("trashed task not found")
	ErrNotTaskCreator      = errors.New("you are not the creator of this task")
	ErrNotTaskAssignee     = errors.New("you are not assigned to this task")
	ErrTaskAlreadyAssigned = errors.New("task already assigned to user")

	ErrUploadJobNotFound = errors.New("upload job not found")
	ErrReportQueueFull   = errors.New("report queue is full")
)

// ValidationError is a field-level rejection detected before any
// write. Rule checks stop at the first failing rule per field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

type AuthService interface {
	// Login authenticates the user by email and password.
	//
	// It deletes all sessions with the same user ID and creates
	// a new session and generates a new JWT token pair.
	//
	// It returns ErrUserNotFound if the user with the given
	// email doesn't exist or ErrUserPasswordMismatch if the
	// given password doesn't match the user's password.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Refresh updates the session with the given refresh token.
	//
	// It returns ErrSessionNotFound if the session with the
	// given refresh token doesn't exist or ErrSessionExpired
	// if the session is expired.
	Refresh(ctx context.Context, params RefreshParams) (*LoginResult, error)

	// Register a user with the given name, email and password.
	// New accounts always get the non-admin role.
	//
	// It returns ErrUserAlreadyExists if the user
	// with the given email already exists.
	Register(ctx context.Context, params RegisterParams) (*LoginResult, error)

	// Logout invalidates all sessions with the given user ID.
	Logout(ctx context.Context, userID string) error

	// Profile returns the user with the given ID.
	Profile(ctx context.Context, userID string) (*models.User, error)

	// ParseJWTToken parses the given JWT token and returns the registered
	// claims or jwt.ErrTokenExpired if the token is expired.
	ParseJWTToken(token string) (*jwt.RegisteredClaims, error)
}

type SessionService interface {
	GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error)
}

type TaskService interface {
	// CreateTask validates the input and inserts the task, its initial
	// audit record and, for a Blocked task, its dependency edges in a
	// single transaction. The actor becomes the creator.
	CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error)

	// GetTask returns the task with loaded dependency ids, comments
	// and attachments, or ErrTaskNotFound.
	GetTask(ctx context.Context, taskID int64) (*models.Task, error)

	// TasksAssignedTo lists the tasks currently assigned to the user.
	// Results are cached per user.
	TasksAssignedTo(ctx context.Context, userID string) ([]*models.Task, error)

	// UpdateTaskStatus moves the task to In_Progress or Completed.
	// Only the current assignee may call it. The status change and
	// the audit record commit together.
	UpdateTaskStatus(ctx context.Context, params UpdateTaskStatusParams) (*models.Task, error)

	// AddComment appends a comment to the task.
	AddComment(ctx context.Context, params AddCommentParams) (*models.Task, error)

	// FilterTasks combines the optional equality filters with the
	// dependency filter, always scoped to tasks created by the actor.
	// Results are cached by the composed filter for a bounded TTL;
	// writes do not invalidate the cache.
	FilterTasks(ctx context.Context, filter TaskFilter) ([]*models.Task, error)

	// BlockedTasks lists the actor's Blocked tasks.
	BlockedTasks(ctx context.Context, actorID string, page uint32) ([]*models.Task, error)

	// DeleteTask soft-deletes the task. Creator only.
	DeleteTask(ctx context.Context, taskID int64, actorID string) error

	// TrashedTasks pages through soft-deleted tasks.
	TrashedTasks(ctx context.Context, page uint32) ([]*models.Task, error)

	// RestoreTask brings a soft-deleted task back, or returns
	// ErrTrashedTaskNotFound.
	RestoreTask(ctx context.Context, taskID int64) (*models.Task, error)

	// ForceDeleteTask permanently removes an already soft-deleted task
	// together with its dependency edges, audit trail, comments and
	// attachments. Creator only.
	ForceDeleteTask(ctx context.Context, taskID int64, actorID string) error
}

type AssignmentService interface {
	// AssignTask sets the assignee of an unassigned task. Only the
	// creator may assign; the candidate must exist and must not hold
	// the admin role.
	AssignTask(ctx context.Context, params AssignmentParams) (*models.Task, error)

	// ReassignTask replaces the assignee. Only the creator may
	// reassign; the candidate must exist, must not hold the admin
	// role, must not be the creator and must not already be assigned.
	ReassignTask(ctx context.Context, params AssignmentParams) (*models.Task, error)
}

// Scanner is the narrow surface of the external virus-scanning
// service the upload pipeline needs.
type Scanner interface {
	Submit(ctx context.Context, filename string, content []byte) (string, error)
	Poll(ctx context.Context, analysisID string) (*vtscan.Analysis, error)
}

type AttachmentService interface {
	// StartUpload registers an upload job for the task and returns
	// immediately; scanning and persistence happen on a background
	// goroutine. The returned job id can be polled with JobStatus.
	StartUpload(ctx context.Context, params UploadParams) (*UploadJob, error)

	// JobStatus returns a snapshot of the upload job.
	JobStatus(jobID string) (*UploadJob, error)
}

type ReportService interface {
	// Trigger enqueues a daily report for the user and returns
	// immediately. Delivery is at-least-once and best-effort.
	Trigger(userID string) error

	// Run consumes queued reports until the context is cancelled.
	Run(ctx context.Context)
}

type LoginParams struct {
	Email       string
	Password    string
	Fingerprint string
}

type RegisterParams struct {
	Name        string
	Email       string
	Password    string
	Fingerprint string
}

type LoginResult struct {
	UserID                string
	SessionID             string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

type RefreshParams struct {
	RefreshToken string
	Fingerprint  string
}

type CreateTaskParams struct {
	Title       string
	Description string
	Type        string
	Status      string
	Priority    string
	DueDate     time.Time
	AssignTo    string
	DependsOn   []int64
	ActorID     string
}

type UpdateTaskStatusParams struct {
	TaskID  int64
	Status  string
	ActorID string
}

type AddCommentParams struct {
	TaskID  int64
	Content string
	ActorID string
}

type AssignmentParams struct {
	TaskID      int64
	CandidateID string
	ActorID     string
}

// TaskFilter is the value object the filter cache is keyed by.
type TaskFilter struct {
	ActorID  string
	Status   string
	Priority string
	Type     string
	DueDate  string
	AssignTo string
	// DependsOn selects tasks that depend on the given task id; nil
	// selects tasks with no dependencies at all.
	DependsOn *int64
	Page      uint32
}

type UploadParams struct {
	TaskID     int64
	FileName   string
	MIMEType   string
	Content    []byte
	UploaderID string
}
