package app

import (
	"context"
	"sync"

	"github.com/noorhaan-almohammed/task-manager-api/internal/services"
)

var (
	workersCancel context.CancelFunc
	workersWG     sync.WaitGroup
)

// StartReportWorker launches the daily report consumer. It runs until
// StopWorkers is called during shutdown.
func StartReportWorker(reportService services.ReportService) {
	ctx, cancel := context.WithCancel(context.Background())
	workersCancel = cancel

	workersWG.Add(1)
	go func() {
		defer workersWG.Done()
		reportService.Run(ctx)
	}()

	globalLogger.Info().Msg("started report worker")
}

func StopWorkers() {
	if workersCancel == nil {
		return
	}
	workersCancel()
	workersWG.Wait()
	globalLogger.Info().Msg("stopped workers")
}
