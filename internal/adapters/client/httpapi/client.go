package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/refcheck-dev/refcheck/internal/domain"
	"github.com/refcheck-dev/refcheck/internal/ports"
)

// Client talks JSON over HTTP to the verification backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ ports.CheckClient = (*Client)(nil)

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{baseURL: baseURL, httpClient: httpClient}
}

type startRequest struct {
	SessionID string `json:"session_id"`
	Title     string `json:"title,omitempty"`
	Source    string `json:"source"`
}

type startResponse struct {
	SessionID string `json:"session_id"`
	CheckID   string `json:"check_id"`
}

type checkPayload struct {
	ID              string          `json:"id"`
	Status          string          `json:"status"`
	TotalRefs       int             `json:"total_refs"`
	ErrorsCount     int             `json:"errors_count"`
	WarningsCount   int             `json:"warnings_count"`
	UnverifiedCount int             `json:"unverified_count"`
	Title           string          `json:"title,omitempty"`
	Source          string          `json:"source,omitempty"`
	Timestamp       string          `json:"timestamp,omitempty"`
	Results         []resultPayload `json:"results,omitempty"`
}

type resultPayload struct {
	Reference string `json:"reference"`
	Verdict   string `json:"verdict"`
	Detail    string `json:"detail,omitempty"`
}

type historyResponse struct {
	Checks []checkPayload `json:"checks"`
}

func (c *Client) Start(ctx context.Context, submission ports.Submission) (domain.CheckID, error) {
	body, err := json.Marshal(startRequest{
		SessionID: string(submission.SessionID),
		Title:     submission.Title,
		Source:    submission.Source,
	})
	if err != nil {
		return "", fmt.Errorf("encode start request: %w", err)
	}

	var response startResponse
	if err := c.doJSON(ctx, http.MethodPost, "/checks", body, &response); err != nil {
		return "", fmt.Errorf("start check: %w", err)
	}
	if response.CheckID == "" {
		return "", errors.New("start check: backend assigned no check id")
	}

	return domain.CheckID(response.CheckID), nil
}

func (c *Client) Detail(ctx context.Context, id domain.CheckID) (domain.Check, error) {
	var payload checkPayload
	path := "/checks/" + url.PathEscape(string(id))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return domain.Check{}, fmt.Errorf("fetch check %s: %w", id, err)
	}

	return fromPayload(payload)
}

func (c *Client) History(ctx context.Context) ([]domain.Check, error) {
	var response historyResponse
	if err := c.doJSON(ctx, http.MethodGet, "/checks", nil, &response); err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	checks := make([]domain.Check, 0, len(response.Checks))
	for _, payload := range response.Checks {
		check, err := fromPayload(payload)
		if err != nil {
			return nil, err
		}
		checks = append(checks, check)
	}

	return checks, nil
}

func (c *Client) Cancel(ctx context.Context, id domain.CheckID) error {
	path := "/checks/" + url.PathEscape(string(id))
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("cancel check %s: %w", id, err)
	}

	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return fmt.Errorf("backend returned %s: %s", response.Status, bytes.TrimSpace(snippet))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil
	}

	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func fromPayload(payload checkPayload) (domain.Check, error) {
	status, err := domain.ParseStatus(payload.Status)
	if err != nil {
		return domain.Check{}, fmt.Errorf("decode check %s: %w", payload.ID, err)
	}

	results := make([]domain.Result, 0, len(payload.Results))
	for _, result := range payload.Results {
		results = append(results, domain.Result{
			Reference: result.Reference,
			Verdict:   domain.Verdict(result.Verdict),
			Detail:    result.Detail,
		})
	}
	if len(results) == 0 {
		results = nil
	}

	return domain.Check{
		ID:              domain.CheckID(payload.ID),
		Status:          status,
		TotalRefs:       payload.TotalRefs,
		ErrorsCount:     payload.ErrorsCount,
		WarningsCount:   payload.WarningsCount,
		UnverifiedCount: payload.UnverifiedCount,
		Title:           payload.Title,
		Source:          payload.Source,
		Timestamp:       parseTimestamp(payload.Timestamp),
		Results:         results,
	}, nil
}

func parseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}
