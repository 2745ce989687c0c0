package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/noorhaan-almohammed/task-manager-api/internal/models"
)

func TestFormatDailyReportListsEveryTask(t *testing.T) {
	tasks := []*models.Task{
		{Title: "Fix login redirect", Type: models.TypeBug, Status: models.StatusOpen, Priority: models.PriorityHigh},
		{Title: "Dark mode", Type: models.TypeFeature, Status: models.StatusInProgress, Priority: models.PriorityLow},
	}

	body := formatDailyReport(tasks)

	if !strings.Contains(body, "Here is your task report for today:") {
		t.Error("body misses the greeting line")
	}
	if !strings.Contains(body, "Title: Fix login redirect, Type: Bug, Status: Open, Priority: High") {
		t.Errorf("body misses the first task line:\n%s", body)
	}
	if !strings.Contains(body, "Title: Dark mode, Type: Feature, Status: In_Progress, Priority: Low") {
		t.Errorf("body misses the second task line:\n%s", body)
	}
	if !strings.Contains(body, "Thank you for using our application!") {
		t.Error("body misses the closing line")
	}
}

func TestTriggerRejectsWhenQueueIsFull(t *testing.T) {
	s := NewReportService(zerolog.Nop(), nil, nil)

	for i := 0; i < reportQueueSize; i++ {
		if err := s.Trigger("user-1"); err != nil {
			t.Fatalf("trigger %d: %v", i, err)
		}
	}

	err := s.Trigger("user-1")
	if !errors.Is(err, ErrReportQueueFull) {
		t.Fatalf("got %v, want ErrReportQueueFull", err)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	s := NewReportService(zerolog.Nop(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
