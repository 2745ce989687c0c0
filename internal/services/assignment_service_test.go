package services

import (
	"testing"

	"github.com/noorhaan-almohammed/task-manager-api/internal/models"
)

func TestValidateCandidateRejectsMissingUser(t *testing.T) {
	task := &models.Task{ID: 1, CreatedBy: "admin-1"}

	vErr := validateCandidate(task, nil, false)
	if vErr == nil || vErr.Field != "assign_to" {
		t.Fatalf("expected assign_to error, got %v", vErr)
	}
}

func TestValidateCandidateRejectsAdmin(t *testing.T) {
	task := &models.Task{ID: 1, CreatedBy: "admin-1"}
	candidate := &models.User{ID: "admin-2", Role: models.RoleAdmin}

	vErr := validateCandidate(task, candidate, false)
	if vErr == nil || vErr.Field != "assign_to" {
		t.Fatalf("expected assign_to error, got %v", vErr)
	}
}

func TestValidateCandidateAcceptsUserOnAssign(t *testing.T) {
	task := &models.Task{ID: 1, CreatedBy: "admin-1"}
	candidate := &models.User{ID: "user-1", Role: models.RoleUser}

	if vErr := validateCandidate(task, candidate, false); vErr != nil {
		t.Fatalf("unexpected validation error: %v", vErr)
	}
}

func TestValidateCandidateReassignRejectsCreator(t *testing.T) {
	task := &models.Task{ID: 1, CreatedBy: "admin-1"}
	candidate := &models.User{ID: "admin-1", Role: models.RoleUser}

	vErr := validateCandidate(task, candidate, true)
	if vErr == nil {
		t.Fatal("expected a validation error")
	}
	if vErr.Message != "You cannot assign a task to yourself." {
		t.Fatalf("got message %q", vErr.Message)
	}
}

func TestValidateCandidateReassignRejectsCurrentAssignee(t *testing.T) {
	assignee := "user-1"
	task := &models.Task{ID: 1, CreatedBy: "admin-1", AssignTo: &assignee}
	candidate := &models.User{ID: "user-1", Role: models.RoleUser}

	vErr := validateCandidate(task, candidate, true)
	if vErr == nil {
		t.Fatal("expected a validation error")
	}
	if vErr.Message != "Task is already assigned to this user." {
		t.Fatalf("got message %q", vErr.Message)
	}
}

func TestValidateCandidateReassignAcceptsNewAssignee(t *testing.T) {
	assignee := "user-1"
	task := &models.Task{ID: 1, CreatedBy: "admin-1", AssignTo: &assignee}
	candidate := &models.User{ID: "user-2", Role: models.RoleUser}

	if vErr := validateCandidate(task, candidate, true); vErr != nil {
		t.Fatalf("unexpected validation error: %v", vErr)
	}
}

// Self and duplicate checks are reassignment rules; a plain assign only
// gates on existence and role.
func TestValidateCandidateAssignSkipsReassignRules(t *testing.T) {
	task := &models.Task{ID: 1, CreatedBy: "admin-1"}
	candidate := &models.User{ID: "admin-1", Role: models.RoleUser}

	if vErr := validateCandidate(task, candidate, false); vErr != nil {
		t.Fatalf("unexpected validation error: %v", vErr)
	}
}
