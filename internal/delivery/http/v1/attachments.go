package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noorhaan-almohammed/task-manager-api/internal/services"
)

const maxUploadSize = 10 << 20 // 10 MiB

type uploadJobResponse struct {
	JobID      string              `json:"job_id"`
	State      string              `json:"state"`
	Reason     string              `json:"reason,omitempty"`
	Message    string              `json:"message,omitempty"`
	Attachment *attachmentResponse `json:"attachment,omitempty"`
}

func newUploadJobResponse(job *services.UploadJob) uploadJobResponse {
	resp := uploadJobResponse{
		JobID:   job.ID,
		State:   string(job.State),
		Reason:  job.Reason,
		Message: job.Message,
	}
	if job.Attachment != nil {
		resp.Attachment = &attachmentResponse{
			ID:        job.Attachment.ID,
			Name:      job.Attachment.Name,
			Path:      job.Attachment.Path,
			UserID:    job.Attachment.UserID,
			CreatedAt: job.Attachment.CreatedAt,
		}
	}
	return resp
}

func (h *handlerImpl) HandleUploadAttachment(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	taskID, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	// The task must exist before any bytes leave the request.
	_, err := h.tasks.GetTask(c, taskID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to get task for upload")
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind multipart file")
		abort(c, newBadRequestError("file is required"))
		return
	}

	if fileHeader.Size > maxUploadSize {
		abortValidation(c, &services.ValidationError{
			Field:   "file",
			Message: "file must not exceed 10 MiB",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to open multipart file")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to read multipart file")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	job, err := h.attachments.StartUpload(c, services.UploadParams{
		TaskID:     taskID,
		FileName:   fileHeader.Filename,
		MIMEType:   fileHeader.Header.Get("Content-Type"),
		Content:    content,
		UploaderID: userID,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to start upload")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusAccepted, newUploadJobResponse(job))
}

func (h *handlerImpl) HandleUploadStatus(c *gin.Context) {
	jobID := c.Param("jobID")
	if jobID == "" {
		abort(c, newBadRequestError("invalid job id"))
		return
	}

	job, err := h.attachments.JobStatus(jobID)
	if err != nil {
		h.logger.Warn().
			Str("job_id", jobID).
			Msg("upload job not found")
		abort(c, newNotFoundError(services.ErrUploadJobNotFound.Error()))
		return
	}

	c.JSON(http.StatusOK, newUploadJobResponse(job))
}
