package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/noorhaan-almohammed/task-manager-api/internal/vtscan"
)

type stubScanner struct {
	submitErr error
	analysis  vtscan.Analysis
	pollErr   error
}

func (s *stubScanner) Submit(context.Context, string, []byte) (string, error) {
	if s.submitErr != nil {
		return "", s.submitErr
	}
	return "analysis-1", nil
}

func (s *stubScanner) Poll(context.Context, string) (*vtscan.Analysis, error) {
	if s.pollErr != nil {
		return nil, s.pollErr
	}
	analysis := s.analysis
	return &analysis, nil
}

func completedScan(malicious int) *stubScanner {
	return &stubScanner{
		analysis: vtscan.Analysis{
			Status: vtscan.StatusCompleted,
			Stats:  vtscan.Stats{Malicious: malicious},
		},
	}
}

func newTestAttachmentService(t *testing.T, scanner Scanner) AttachmentService {
	t.Helper()
	return NewAttachmentService(
		zerolog.Nop(),
		nil, // terminal failure paths never reach the pool
		scanner,
		t.TempDir(),
		time.Millisecond,
		3,
		time.Hour,
	)
}

func waitForTerminal(t *testing.T, s AttachmentService, jobID string) *UploadJob {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := s.JobStatus(jobID)
		if err != nil {
			t.Fatalf("job status: %v", err)
		}
		switch job.State {
		case UploadStateSubmitted, UploadStateScanning:
			time.Sleep(time.Millisecond)
		default:
			return job
		}
	}
	t.Fatal("upload job never reached a terminal state")
	return nil
}

func TestUploadRejectedWhenScanFindsMalware(t *testing.T) {
	s := newTestAttachmentService(t, completedScan(3))

	job, err := s.StartUpload(context.Background(), UploadParams{
		TaskID:     1,
		FileName:   "report.pdf",
		MIMEType:   "application/pdf",
		Content:    []byte("payload"),
		UploaderID: "user-1",
	})
	if err != nil {
		t.Fatalf("start upload: %v", err)
	}

	job = waitForTerminal(t, s, job.ID)
	if job.State != UploadStateRejected {
		t.Fatalf("got state %s, want %s", job.State, UploadStateRejected)
	}
	if job.Reason != UploadReasonMalicious {
		t.Fatalf("got reason %s, want %s", job.Reason, UploadReasonMalicious)
	}
}

func TestUploadRejectedOnTraversalFileName(t *testing.T) {
	s := newTestAttachmentService(t, completedScan(0))

	job, err := s.StartUpload(context.Background(), UploadParams{
		TaskID:     1,
		FileName:   "../../etc/passwd.pdf",
		MIMEType:   "application/pdf",
		Content:    []byte("payload"),
		UploaderID: "user-1",
	})
	if err != nil {
		t.Fatalf("start upload: %v", err)
	}

	job = waitForTerminal(t, s, job.ID)
	if job.State != UploadStateRejected || job.Reason != UploadReasonInvalidFile {
		t.Fatalf("got %s/%s, want %s/%s",
			job.State, job.Reason, UploadStateRejected, UploadReasonInvalidFile)
	}
}

func TestUploadRejectedOnUnsupportedMIMEType(t *testing.T) {
	s := newTestAttachmentService(t, completedScan(0))

	job, err := s.StartUpload(context.Background(), UploadParams{
		TaskID:     1,
		FileName:   "script.sh",
		MIMEType:   "application/x-sh",
		Content:    []byte("#!/bin/sh"),
		UploaderID: "user-1",
	})
	if err != nil {
		t.Fatalf("start upload: %v", err)
	}

	job = waitForTerminal(t, s, job.ID)
	if job.State != UploadStateRejected || job.Reason != UploadReasonUnsupportedType {
		t.Fatalf("got %s/%s, want %s/%s",
			job.State, job.Reason, UploadStateRejected, UploadReasonUnsupportedType)
	}
}

func TestUploadTimesOutWhenScanNeverCompletes(t *testing.T) {
	s := newTestAttachmentService(t, &stubScanner{
		analysis: vtscan.Analysis{Status: "queued"},
	})

	job, err := s.StartUpload(context.Background(), UploadParams{
		TaskID:     1,
		FileName:   "photo.png",
		MIMEType:   "image/png",
		Content:    []byte("png bytes"),
		UploaderID: "user-1",
	})
	if err != nil {
		t.Fatalf("start upload: %v", err)
	}

	job = waitForTerminal(t, s, job.ID)
	if job.State != UploadStateTimedOut {
		t.Fatalf("got state %s, want %s", job.State, UploadStateTimedOut)
	}
	if job.Reason != UploadReasonScanTimeout {
		t.Fatalf("got reason %s, want %s", job.Reason, UploadReasonScanTimeout)
	}
}

func TestUploadFailsWhenSubmitFails(t *testing.T) {
	s := newTestAttachmentService(t, &stubScanner{
		submitErr: errors.New("connection refused"),
	})

	job, err := s.StartUpload(context.Background(), UploadParams{
		TaskID:     1,
		FileName:   "photo.png",
		MIMEType:   "image/png",
		Content:    []byte("png bytes"),
		UploaderID: "user-1",
	})
	if err != nil {
		t.Fatalf("start upload: %v", err)
	}

	job = waitForTerminal(t, s, job.ID)
	if job.State != UploadStateFailed || job.Reason != UploadReasonScanFailed {
		t.Fatalf("got %s/%s, want %s/%s",
			job.State, job.Reason, UploadStateFailed, UploadReasonScanFailed)
	}
}

func TestJobStatusUnknownJob(t *testing.T) {
	s := newTestAttachmentService(t, completedScan(0))

	_, err := s.JobStatus("no-such-job")
	if !errors.Is(err, ErrUploadJobNotFound) {
		t.Fatalf("got %v, want ErrUploadJobNotFound", err)
	}
}

func TestValidateFileName(t *testing.T) {
	tests := []struct {
		name    string
		wantExt string
		wantOK  bool
	}{
		{"report.pdf", "pdf", true},
		{"photo.tar.gz", "gz", true},
		{"noextension", "", false},
		{"../traversal.pdf", "", false},
		{"dir/inside.pdf", "", false},
		{`windows\path.pdf`, "", false},
		{"trailingdot.", "", false},
	}
	for _, tt := range tests {
		ext, ok := validateFileName(tt.name)
		if ok != tt.wantOK || ext != tt.wantExt {
			t.Errorf("validateFileName(%q) = (%q, %v), want (%q, %v)",
				tt.name, ext, ok, tt.wantExt, tt.wantOK)
		}
	}
}

func TestIsAllowedMIMEType(t *testing.T) {
	allowed := []string{
		"image/jpeg", "image/png", "image/gif", "image/webp",
		"application/pdf", "application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
	for _, mimeType := range allowed {
		if !isAllowedMIMEType(mimeType) {
			t.Errorf("%s must be allowed", mimeType)
		}
	}

	for _, mimeType := range []string{"application/x-sh", "text/html", ""} {
		if isAllowedMIMEType(mimeType) {
			t.Errorf("%s must not be allowed", mimeType)
		}
	}
}

func TestRandomFileNameShapeAndUniqueness(t *testing.T) {
	a, err := randomFileName()
	if err != nil {
		t.Fatalf("random file name: %v", err)
	}
	if len(a) != 32 {
		t.Fatalf("got length %d, want 32", len(a))
	}

	b, err := randomFileName()
	if err != nil {
		t.Fatalf("random file name: %v", err)
	}
	if a == b {
		t.Fatal("two generated names collide")
	}
}
