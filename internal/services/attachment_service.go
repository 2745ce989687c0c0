package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/noorhaan-almohammed/task-manager-api/internal/models"
	"github.com/noorhaan-almohammed/task-manager-api/internal/vtscan"
)

// Upload job states. Submitted and Scanning are transient; the rest
// are terminal.
type UploadState string

const (
	UploadStateSubmitted UploadState = "Submitted"
	UploadStateScanning  UploadState = "Scanning"
	UploadStateClean     UploadState = "Clean"
	UploadStateRejected  UploadState = "Rejected"
	UploadStateTimedOut  UploadState = "Timed_Out"
	UploadStateFailed    UploadState = "Failed"
)

// Stable machine-checkable reasons for terminal upload states.
const (
	UploadReasonMalicious       = "malicious_content"
	UploadReasonInvalidFile     = "invalid_file"
	UploadReasonUnsupportedType = "unsupported_type"
	UploadReasonScanTimeout     = "scan_timeout"
	UploadReasonScanFailed      = "scan_failed"
	UploadReasonStorageError    = "storage_error"
	UploadReasonPersistence     = "persistence_error"
)

type UploadJob struct {
	ID         string
	TaskID     int64
	FileName   string
	State      UploadState
	Reason     string
	Message    string
	Attachment *models.Attachment
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

var allowedMIMETypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/gif":       {},
	"image/webp":      {},
	"application/pdf": {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

type attachmentServiceImpl struct {
	logger       zerolog.Logger
	pgPool       *pgxpool.Pool
	scanner      Scanner
	uploadsDir   string
	pollInterval time.Duration
	maxPolls     int
	jobTTL       time.Duration

	mu   sync.Mutex
	jobs map[string]*UploadJob
}

func NewAttachmentService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	scanner Scanner,
	uploadsDir string,
	pollInterval time.Duration,
	maxPolls int,
	jobTTL time.Duration,
) AttachmentService {
	return &attachmentServiceImpl{
		logger:       logger,
		pgPool:       pgPool,
		scanner:      scanner,
		uploadsDir:   uploadsDir,
		pollInterval: pollInterval,
		maxPolls:     maxPolls,
		jobTTL:       jobTTL,
		jobs:         make(map[string]*UploadJob),
	}
}

// validateFileName rejects names without an extension, with directory
// traversal sequences or with path separators, and returns the bare
// extension on success.
func validateFileName(name string) (string, bool) {
	if strings.Contains(name, "..") ||
		strings.ContainsAny(name, `/\`) {
		return "", false
	}
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "", false
	}
	return ext, true
}

func isAllowedMIMEType(mimeType string) bool {
	_, ok := allowedMIMETypes[mimeType]
	return ok
}

// randomFileName returns a 32-symbol opaque name for stored bytes.
func randomFileName() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate file name: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

func (s *attachmentServiceImpl) StartUpload(ctx context.Context, params UploadParams) (*UploadJob, error) {
	now := time.Now()

	jobUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate job uuid")
		return nil, err
	}

	job := &UploadJob{
		ID:        jobUUID.String(),
		TaskID:    params.TaskID,
		FileName:  params.FileName,
		State:     UploadStateSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.reapExpiredLocked(now)
	s.jobs[job.ID] = job
	s.mu.Unlock()

	// The scan outlives the request; it must not die with the
	// caller's context.
	go s.process(context.Background(), job.ID, params)

	s.logger.Info().
		Str("job_id", job.ID).
		Int64("task_id", params.TaskID).
		Str("file_name", params.FileName).
		Msg("registered upload job")
	return s.snapshot(job), nil
}

func (s *attachmentServiceImpl) JobStatus(jobID string) (*UploadJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrUploadJobNotFound
	}
	return s.snapshotLocked(job), nil
}

func (s *attachmentServiceImpl) process(ctx context.Context, jobID string, params UploadParams) {
	s.transition(jobID, UploadStateScanning, "", "")

	stats, reason, message := s.runScan(ctx, params.FileName, params.Content)
	if reason != "" {
		state := UploadStateFailed
		if reason == UploadReasonScanTimeout {
			state = UploadStateTimedOut
		}
		s.transition(jobID, state, reason, message)
		return
	}

	if stats.Malicious > 0 {
		s.logger.Warn().
			Str("job_id", jobID).
			Int("malicious", stats.Malicious).
			Msg("upload rejected: malicious content")
		s.transition(jobID, UploadStateRejected, UploadReasonMalicious, "File contains a virus!")
		return
	}

	ext, ok := validateFileName(params.FileName)
	if !ok {
		s.logger.Warn().
			Str("job_id", jobID).
			Str("file_name", params.FileName).
			Msg("upload rejected: invalid file name")
		s.transition(jobID, UploadStateRejected, UploadReasonInvalidFile, "File name is not allowed")
		return
	}

	if !isAllowedMIMEType(params.MIMEType) {
		s.logger.Warn().
			Str("job_id", jobID).
			Str("mime_type", params.MIMEType).
			Msg("upload rejected: unsupported type")
		s.transition(jobID, UploadStateRejected, UploadReasonUnsupportedType, "File type is not supported")
		return
	}

	storedName, err := randomFileName()
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("job_id", jobID).
			Msg("failed to generate stored name")
		s.transition(jobID, UploadStateFailed, UploadReasonStorageError, "Failed to store file")
		return
	}
	storedName = storedName + "." + ext

	if err = os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		s.logger.Error().
			Err(err).
			Str("job_id", jobID).
			Msg("failed to create uploads dir")
		s.transition(jobID, UploadStateFailed, UploadReasonStorageError, "Failed to store file")
		return
	}
	path := filepath.Join(s.uploadsDir, storedName)
	if err = os.WriteFile(path, params.Content, 0o644); err != nil {
		s.logger.Error().
			Err(err).
			Str("job_id", jobID).
			Str("path", path).
			Msg("failed to write file")
		s.transition(jobID, UploadStateFailed, UploadReasonStorageError, "Failed to store file")
		return
	}

	attachment := &models.Attachment{
		Name:      params.FileName,
		Path:      storedName,
		OwnerKind: models.OwnerKindTask,
		OwnerID:   params.TaskID,
		UserID:    params.UploaderID,
		CreatedAt: time.Now(),
	}

	const insertAttachmentQuery = `
INSERT INTO attachments (name, path, owner_kind, owner_id, user_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id
`
	err = s.pgPool.QueryRow(
		ctx,
		insertAttachmentQuery,
		attachment.Name,
		attachment.Path,
		attachment.OwnerKind,
		attachment.OwnerID,
		attachment.UserID,
		attachment.CreatedAt,
	).Scan(&attachment.ID)
	if err != nil {
		// No orphan bytes without a row.
		if removeErr := os.Remove(path); removeErr != nil {
			s.logger.Warn().
				Err(removeErr).
				Str("path", path).
				Msg("failed to remove stored file")
		}

		s.logger.Error().
			Err(err).
			Str("job_id", jobID).
			Msg("failed to insert attachment")
		s.transition(jobID, UploadStateFailed, UploadReasonPersistence, "Failed to store file")
		return
	}

	s.mu.Lock()
	if job, ok := s.jobs[jobID]; ok {
		job.State = UploadStateClean
		job.Reason = ""
		job.Message = "Scan completed successfully, no virus found :)"
		job.Attachment = attachment
		job.UpdatedAt = time.Now()
	}
	s.mu.Unlock()

	s.logger.Info().
		Str("job_id", jobID).
		Int64("attachment_id", attachment.ID).
		Int64("task_id", params.TaskID).
		Msg("stored attachment")
}

// runScan submits the bytes and polls for a terminal verdict at a
// fixed interval, capped at maxPolls attempts. It returns the verdict
// stats, or a terminal failure reason.
func (s *attachmentServiceImpl) runScan(ctx context.Context, filename string, content []byte) (*vtscan.Stats, string, string) {
	analysisID, err := s.scanner.Submit(ctx, filename, content)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to submit file for scanning")
		return nil, UploadReasonScanFailed, "Failed to scan file"
	}

	for attempt := 0; attempt < s.maxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return nil, UploadReasonScanFailed, "Failed to scan file"
		case <-time.After(s.pollInterval):
		}

		analysis, err := s.scanner.Poll(ctx, analysisID)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("analysis_id", analysisID).
				Msg("failed to poll scan result")
			return nil, UploadReasonScanFailed, "Failed to scan file"
		}

		if analysis.Status == vtscan.StatusCompleted {
			return &analysis.Stats, "", ""
		}
	}

	s.logger.Error().
		Str("analysis_id", analysisID).
		Int("attempts", s.maxPolls).
		Msg("scan timed out")
	return nil, UploadReasonScanTimeout, "Scan timeout or failed to complete after polling."
}

func (s *attachmentServiceImpl) transition(jobID string, state UploadState, reason, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return
	}
	job.State = state
	job.Reason = reason
	job.Message = message
	job.UpdatedAt = time.Now()
}

// reapExpiredLocked drops terminal jobs older than the job TTL.
// Callers must hold mu.
func (s *attachmentServiceImpl) reapExpiredLocked(now time.Time) {
	for id, job := range s.jobs {
		switch job.State {
		case UploadStateSubmitted, UploadStateScanning:
			continue
		}
		if now.Sub(job.UpdatedAt) > s.jobTTL {
			delete(s.jobs, id)
		}
	}
}

func (s *attachmentServiceImpl) snapshot(job *UploadJob) *UploadJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(job)
}

func (s *attachmentServiceImpl) snapshotLocked(job *UploadJob) *UploadJob {
	copied := *job
	if job.Attachment != nil {
		attachment := *job.Attachment
		copied.Attachment = &attachment
	}
	return &copied
}
