package models

import "time"

const (
	StatusOpen       = "Open"
	StatusInProgress = "In_Progress"
	StatusCompleted  = "Completed"
	StatusBlocked    = "Blocked"
)

const (
	TypeBug         = "Bug"
	TypeFeature     = "Feature"
	TypeImprovement = "Improvement"
)

const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

type Task struct {
	ID          int64
	Title       string
	Description string
	Type        string
	Status      string
	Priority    string
	DueDate     time.Time
	AssignTo    *string
	CreatedBy   string
	DeletedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Loaded relations, populated by the task service on reads.
	DependsOn   []int64
	Comments    []Comment
	Attachments []Attachment
}
