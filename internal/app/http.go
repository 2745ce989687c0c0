package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/noorhaan-almohammed/task-manager-api/internal/cache"
	"github.com/noorhaan-almohammed/task-manager-api/internal/config"
	v1 "github.com/noorhaan-almohammed/task-manager-api/internal/delivery/http/v1"
	"github.com/noorhaan-almohammed/task-manager-api/internal/models"
	"github.com/noorhaan-almohammed/task-manager-api/internal/notify"
	"github.com/noorhaan-almohammed/task-manager-api/internal/services"
	"github.com/noorhaan-almohammed/task-manager-api/internal/vtscan"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	registerRoutes(router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server with a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	// kill (no params) by default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be caught, so don't need to add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	StopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router gin.IRouter) {
	cfg := config.Global()

	authService := services.NewAuthService(
		globalLogger,
		globalPostgresPool,
		cfg.JWT.Issuer,
		cfg.JWT.SigningKey,
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
	)
	sessionService := services.NewSessionService(globalLogger, globalPostgresPool)

	queryCache := cache.New[[]*models.Task](clockwork.NewRealClock(), cfg.Cache.FilterTTL)
	taskService := services.NewTaskService(
		globalLogger,
		globalPostgresPool,
		queryCache,
		cfg.Uploads.Dir,
	)
	assignmentService := services.NewAssignmentService(globalLogger, globalPostgresPool)

	scanner := vtscan.NewClient(
		cfg.VirusTotal.APIKey,
		cfg.VirusTotal.BaseURL,
		cfg.VirusTotal.Timeout,
	)
	attachmentService := services.NewAttachmentService(
		globalLogger,
		globalPostgresPool,
		scanner,
		cfg.Uploads.Dir,
		cfg.Uploads.PollInterval,
		cfg.Uploads.MaxPolls,
		cfg.Uploads.JobTTL,
	)

	mailer := notify.NewSMTPMailer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
		cfg.SMTP.From,
	)
	reportService := services.NewReportService(globalLogger, globalPostgresPool, mailer)
	StartReportWorker(reportService)

	v1Handler := v1.New(
		globalLogger,
		authService,
		sessionService,
		taskService,
		assignmentService,
		attachmentService,
		reportService,
	)
	router = router.Group("/api/v1")

	authRouter := router.Group("/auth")
	authRouter.POST("/login", v1Handler.HandleLogin)
	authRouter.POST("/refresh", v1Handler.HandleRefresh)
	authRouter.POST("/register", v1Handler.HandleRegister)
	authRouter.POST("/logout", v1Handler.HandleAuthMiddleware, v1Handler.HandleLogout)
	authRouter.GET("/profile", v1Handler.HandleAuthMiddleware, v1Handler.HandleProfile)

	userRouter := router.Group("/", v1Handler.HandleAuthMiddleware)
	userRouter.GET("/listTasks", v1Handler.HandleListAssignedTasks)
	userRouter.PUT("/tasks/:id/status", v1Handler.HandleSetTaskStatus)
	userRouter.POST("/tasks/:id/comments", v1Handler.HandleAddComment)
	userRouter.POST("/tasks/:id/attachment", v1Handler.HandleUploadAttachment)
	userRouter.GET("/tasks/attachment/:jobID", v1Handler.HandleUploadStatus)

	adminRouter := router.Group("/", v1Handler.HandleAuthMiddleware, v1Handler.HandleRequireAdmin)
	adminRouter.POST("/tasks", v1Handler.HandleCreateTask)
	adminRouter.GET("/tasks", v1Handler.HandleFilterTasks)
	adminRouter.GET("/tasks/blocked", v1Handler.HandleBlockedTasks)
	adminRouter.GET("/tasks/trashed", v1Handler.HandleTrashedTasks)
	adminRouter.GET("/tasks/:id", v1Handler.HandleGetTask)
	adminRouter.PUT("/tasks/:id/assign", v1Handler.HandleAssignTask)
	adminRouter.PUT("/tasks/:id/reassign", v1Handler.HandleReassignTask)
	adminRouter.PUT("/tasks/:id/restore", v1Handler.HandleRestoreTask)
	adminRouter.DELETE("/tasks/:id", v1Handler.HandleDeleteTask)
	adminRouter.DELETE("/tasks/:id/purge", v1Handler.HandlePurgeTask)
	adminRouter.GET("/reports/daily-tasks", v1Handler.HandleDailyReport)
}
