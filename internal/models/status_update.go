package models

import "time"

// TaskStatusUpdate is one row of a task's append-only status audit
// trail. The status field holds the value transitioned to.
type TaskStatusUpdate struct {
	ID        int64
	TaskID    int64
	Status    string
	ChangedBy string
	CreatedAt time.Time
}
