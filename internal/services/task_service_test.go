package services

import (
	"strings"
	"testing"
	"time"

	"github.com/noorhaan-almohammed/task-manager-api/internal/models"
)

func validCreateParams(now time.Time) CreateTaskParams {
	return CreateTaskParams{
		Title:       "Fix login redirect",
		Description: "Redirect loops on expired sessions",
		Type:        models.TypeBug,
		Status:      models.StatusOpen,
		Priority:    models.PriorityHigh,
		DueDate:     now.AddDate(0, 0, 3),
		AssignTo:    "user-1",
		ActorID:     "admin-1",
	}
}

func TestValidateNewTaskAcceptsValidParams(t *testing.T) {
	now := time.Now()
	if vErr := validateNewTask(validCreateParams(now), now); vErr != nil {
		t.Fatalf("unexpected validation error: %v", vErr)
	}
}

func TestValidateNewTaskRejections(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		mutate func(p *CreateTaskParams)
		field  string
	}{
		{
			name:   "empty title",
			mutate: func(p *CreateTaskParams) { p.Title = "" },
			field:  "title",
		},
		{
			name:   "title too long",
			mutate: func(p *CreateTaskParams) { p.Title = strings.Repeat("x", 31) },
			field:  "title",
		},
		{
			name:   "description too long",
			mutate: func(p *CreateTaskParams) { p.Description = strings.Repeat("x", 226) },
			field:  "description",
		},
		{
			name:   "unknown type",
			mutate: func(p *CreateTaskParams) { p.Type = "Chore" },
			field:  "type",
		},
		{
			name:   "in-progress at creation",
			mutate: func(p *CreateTaskParams) { p.Status = models.StatusInProgress },
			field:  "status",
		},
		{
			name:   "completed at creation",
			mutate: func(p *CreateTaskParams) { p.Status = models.StatusCompleted },
			field:  "status",
		},
		{
			name:   "unknown priority",
			mutate: func(p *CreateTaskParams) { p.Priority = "Urgent" },
			field:  "priority",
		},
		{
			name:   "due date today",
			mutate: func(p *CreateTaskParams) { p.DueDate = now },
			field:  "due_date",
		},
		{
			name:   "due date in the past",
			mutate: func(p *CreateTaskParams) { p.DueDate = now.AddDate(0, 0, -1) },
			field:  "due_date",
		},
		{
			name:   "missing assignee",
			mutate: func(p *CreateTaskParams) { p.AssignTo = "" },
			field:  "assign_to",
		},
		{
			name: "blocked without dependencies",
			mutate: func(p *CreateTaskParams) {
				p.Status = models.StatusBlocked
				p.DependsOn = nil
			},
			field: "depends_on",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validCreateParams(now)
			tt.mutate(&params)

			vErr := validateNewTask(params, now)
			if vErr == nil {
				t.Fatal("expected a validation error")
			}
			if vErr.Field != tt.field {
				t.Fatalf("got field %q, want %q", vErr.Field, tt.field)
			}
		})
	}
}

func TestValidateNewTaskAllowsBlockedWithDependencies(t *testing.T) {
	now := time.Now()
	params := validCreateParams(now)
	params.Status = models.StatusBlocked
	params.DependsOn = []int64{1, 2}

	if vErr := validateNewTask(params, now); vErr != nil {
		t.Fatalf("unexpected validation error: %v", vErr)
	}
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{models.StatusInProgress, true},
		{models.StatusCompleted, true},
		{models.StatusOpen, false},
		{models.StatusBlocked, false},
		{"Archived", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := canTransitionTo(tt.status); got != tt.want {
			t.Errorf("canTransitionTo(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestStatusRequiresDependencies(t *testing.T) {
	if !statusRequiresDependencies(models.StatusBlocked) {
		t.Error("Blocked must require dependencies")
	}
	for _, status := range []string{models.StatusOpen, models.StatusInProgress, models.StatusCompleted} {
		if statusRequiresDependencies(status) {
			t.Errorf("%s must not require dependencies", status)
		}
	}
}

func TestTaskFilterCacheKeyIsDeterministic(t *testing.T) {
	dependsOn := int64(7)
	filter := TaskFilter{
		ActorID:   "admin-1",
		Status:    models.StatusOpen,
		Priority:  models.PriorityLow,
		DependsOn: &dependsOn,
		Page:      2,
	}

	if filter.CacheKey() != filter.CacheKey() {
		t.Fatal("cache key differs between calls on the same filter")
	}
}

func TestTaskFilterCacheKeyDistinguishesFilters(t *testing.T) {
	base := TaskFilter{ActorID: "admin-1"}

	dependsOn := int64(7)
	variants := []TaskFilter{
		{ActorID: "admin-2"},
		{ActorID: "admin-1", Status: models.StatusOpen},
		{ActorID: "admin-1", Priority: models.PriorityHigh},
		{ActorID: "admin-1", Type: models.TypeFeature},
		{ActorID: "admin-1", DueDate: "2026-09-01"},
		{ActorID: "admin-1", AssignTo: "user-1"},
		{ActorID: "admin-1", DependsOn: &dependsOn},
		{ActorID: "admin-1", Page: 1},
	}

	seen := map[string]struct{}{base.CacheKey(): {}}
	for _, variant := range variants {
		key := variant.CacheKey()
		if _, ok := seen[key]; ok {
			t.Errorf("filter %+v collides with a previous key %q", variant, key)
		}
		seen[key] = struct{}{}
	}
}

func TestTaskFilterCacheKeyUsesPlaceholdersForEmptyFields(t *testing.T) {
	key := TaskFilter{ActorID: "admin-1"}.CacheKey()

	for _, placeholder := range []string{"all_status", "all_priority", "all_type", "all_due_date", "all_assign_to"} {
		if !strings.Contains(key, placeholder) {
			t.Errorf("key %q misses placeholder %q", key, placeholder)
		}
	}
}

func TestAssignedTasksKeyIsScopedPerUser(t *testing.T) {
	a := assignedTasksKey("user-1").CacheKey()
	b := assignedTasksKey("user-2").CacheKey()
	if a == b {
		t.Fatal("assigned task keys collide across users")
	}
}
