package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/noorhaan-almohammed/task-manager-api/internal/services"
)

type Handler interface {
	HandleLogin(c *gin.Context)
	HandleRefresh(c *gin.Context)
	HandleRegister(c *gin.Context)
	HandleLogout(c *gin.Context)
	HandleProfile(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)
	HandleRequireAdmin(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleFilterTasks(c *gin.Context)
	HandleListAssignedTasks(c *gin.Context)
	HandleSetTaskStatus(c *gin.Context)
	HandleAddComment(c *gin.Context)
	HandleBlockedTasks(c *gin.Context)
	HandleDeleteTask(c *gin.Context)
	HandleTrashedTasks(c *gin.Context)
	HandleRestoreTask(c *gin.Context)
	HandlePurgeTask(c *gin.Context)

	HandleAssignTask(c *gin.Context)
	HandleReassignTask(c *gin.Context)

	HandleUploadAttachment(c *gin.Context)
	HandleUploadStatus(c *gin.Context)

	HandleDailyReport(c *gin.Context)
}

type handlerImpl struct {
	logger      zerolog.Logger
	auth        services.AuthService
	sessions    services.SessionService
	tasks       services.TaskService
	assignments services.AssignmentService
	attachments services.AttachmentService
	reports     services.ReportService
}

func New(
	logger zerolog.Logger,
	authService services.AuthService,
	sessionService services.SessionService,
	taskService services.TaskService,
	assignmentService services.AssignmentService,
	attachmentService services.AttachmentService,
	reportService services.ReportService,
) Handler {
	return &handlerImpl{
		logger:      logger,
		auth:        authService,
		sessions:    sessionService,
		tasks:       taskService,
		assignments: assignmentService,
		attachments: attachmentService,
		reports:     reportService,
	}
}
