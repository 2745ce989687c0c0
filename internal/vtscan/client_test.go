package vtscan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSubmitReturnsAnalysisID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/files" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("x-apikey"); got != "test-key" {
			t.Errorf("got api key %q, want %q", got, "test-key")
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		w.Write([]byte(`{"data":{"id":"analysis-123"}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", srv.URL, 5*time.Second)
	id, err := client.Submit(context.Background(), "report.pdf", []byte("content"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id != "analysis-123" {
		t.Fatalf("got analysis id %q, want %q", id, "analysis-123")
	}
}

func TestSubmitRejectedByService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":"WrongCredentialsError"}}`))
	}))
	defer srv.Close()

	client := NewClient("bad-key", srv.URL, 5*time.Second)
	if _, err := client.Submit(context.Background(), "report.pdf", []byte("content")); err == nil {
		t.Fatal("expected error for rejected upload")
	}
}

func TestSubmitMissingAnalysisID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", srv.URL, 5*time.Second)
	if _, err := client.Submit(context.Background(), "report.pdf", []byte("content")); err == nil {
		t.Fatal("expected error for empty analysis id")
	}
}

func TestPollPendingAnalysis(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyses/analysis-123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":{"attributes":{"status":"queued","stats":{}}}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", srv.URL, 5*time.Second)
	analysis, err := client.Poll(context.Background(), "analysis-123")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if analysis.Status == StatusCompleted {
		t.Fatal("queued analysis reported as completed")
	}
}

func TestPollCompletedAnalysis(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"attributes":{"status":"completed","stats":{"malicious":2,"harmless":60}}}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", srv.URL, 5*time.Second)
	analysis, err := client.Poll(context.Background(), "analysis-123")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if analysis.Status != StatusCompleted {
		t.Fatalf("got status %q, want %q", analysis.Status, StatusCompleted)
	}
	if analysis.Stats.Malicious != 2 {
		t.Fatalf("got malicious count %d, want 2", analysis.Stats.Malicious)
	}
}
