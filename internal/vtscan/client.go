package vtscan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// StatusCompleted is the terminal analysis status reported by the
// VirusTotal v3 API. Anything else means the scan is still pending.
const StatusCompleted = "completed"

type Stats struct {
	Malicious  int `json:"malicious"`
	Suspicious int `json:"suspicious"`
	Harmless   int `json:"harmless"`
	Undetected int `json:"undetected"`
}

type Analysis struct {
	Status string
	Stats  Stats
}

// Client talks to the VirusTotal v3 file-scanning API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Submit uploads file content for scanning and returns the analysis
// id to poll for the verdict.
func (c *Client) Submit(ctx context.Context, filename string, content []byte) (string, error) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err = part.Write(content); err != nil {
		return "", fmt.Errorf("failed to write form file: %w", err)
	}
	if err = writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-apikey", c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("file upload rejected: status %d: %s", resp.StatusCode, detail)
	}

	var submitResp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&submitResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if submitResp.Data.ID == "" {
		return "", fmt.Errorf("no analysis id in response")
	}
	return submitResp.Data.ID, nil
}

// Poll fetches the current state of an analysis.
func (c *Client) Poll(ctx context.Context, analysisID string) (*Analysis, error) {
	url := c.baseURL + "/analyses/" + analysisID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch analysis: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("analysis fetch rejected: status %d: %s", resp.StatusCode, detail)
	}

	var pollResp struct {
		Data struct {
			Attributes struct {
				Status string `json:"status"`
				Stats  Stats  `json:"stats"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&pollResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &Analysis{
		Status: pollResp.Data.Attributes.Status,
		Stats:  pollResp.Data.Attributes.Stats,
	}, nil
}
