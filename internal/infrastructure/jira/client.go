// Package jira opens Jira Cloud issues for requirements added to a sprint.
package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"
	"github.com/felixgeelhaar/riskaudit/internal/infrastructure/config"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/tracker"
)

// Marker is appended to every issue description so tickets can be traced
// back to their requirement.
const Marker = "riskaudit-id: "

// APIError is a non-2xx answer from the Jira REST API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jira api error (%d): %s", e.StatusCode, e.Body)
}

// Client implements tracker.IssueTracker against the Jira Cloud REST API v3.
type Client struct {
	domain     string
	projectKey string
	email      string
	apiToken   string
	issueType  string
	opts       options
}

var _ tracker.IssueTracker = (*Client)(nil)

// NewClient builds a client from config, falling back to JIRA_DOMAIN,
// JIRA_PROJECT_KEY, JIRA_EMAIL and JIRA_API_TOKEN for blank fields.
func NewClient(cfg config.JiraConfig, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	c := &Client{
		domain:     fallback(cfg.Domain, "JIRA_DOMAIN"),
		projectKey: fallback(cfg.ProjectKey, "JIRA_PROJECT_KEY"),
		email:      fallback(cfg.Email, "JIRA_EMAIL"),
		apiToken:   fallback(cfg.APIToken, "JIRA_API_TOKEN"),
		issueType:  cfg.IssueType,
		opts:       o,
	}
	if c.issueType == "" {
		c.issueType = "Task"
	}

	if c.domain == "" || c.projectKey == "" || c.email == "" || c.apiToken == "" {
		return nil, fmt.Errorf("jira configuration missing (domain, project_key, email, api_token required)")
	}
	if !strings.HasPrefix(c.domain, "http") {
		c.domain = "https://" + c.domain
	}
	c.domain = strings.TrimRight(c.domain, "/")
	return c, nil
}

func fallback(value, env string) string {
	if value != "" {
		return value
	}
	return os.Getenv(env)
}

// CreateIssue opens one issue for a sprint entry.
func (c *Client) CreateIssue(ctx context.Context, req tracker.IssueRequest) (tracker.IssueRef, error) {
	body, err := json.Marshal(c.issuePayload(req))
	if err != nil {
		return tracker.IssueRef{}, fmt.Errorf("failed to marshal issue: %w", err)
	}

	r := retry.New[tracker.IssueRef](retry.Config{
		MaxAttempts:   c.opts.maxAttempts,
		InitialDelay:  c.opts.initialDelay,
		BackoffPolicy: retry.BackoffExponential,
		IsRetryable:   retryable,
	})
	t := timeout.New[tracker.IssueRef](timeout.Config{
		DefaultTimeout: c.opts.timeout,
	})

	return t.Execute(ctx, c.opts.timeout, func(ctx context.Context) (tracker.IssueRef, error) {
		return r.Do(ctx, func(ctx context.Context) (tracker.IssueRef, error) {
			data, err := c.request(ctx, http.MethodPost, "issue", body)
			if err != nil {
				return tracker.IssueRef{}, err
			}
			var created struct {
				ID   string `json:"id"`
				Key  string `json:"key"`
				Self string `json:"self"`
			}
			if err := json.Unmarshal(data, &created); err != nil {
				return tracker.IssueRef{}, fmt.Errorf("failed to decode jira response: %w", err)
			}
			if created.Key == "" {
				return tracker.IssueRef{}, fmt.Errorf("jira response carried no issue key")
			}
			return tracker.IssueRef{
				Key: created.Key,
				URL: fmt.Sprintf("%s/browse/%s", c.domain, created.Key),
			}, nil
		})
	})
}

// retryable reports whether a failed call is worth repeating. Rejections by
// Jira other than rate limiting are final.
func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return true
}

func (c *Client) issuePayload(req tracker.IssueRequest) map[string]any {
	summary := req.Summary
	if summary == "" {
		summary = req.RequirementID
	}

	lines := []string{}
	if req.Description != "" {
		lines = append(lines, strings.Split(req.Description, "\n")...)
	}
	lines = append(lines,
		fmt.Sprintf("Sprint: %d", req.SprintNumber),
		fmt.Sprintf("Story points: %d", req.Effort),
		fmt.Sprintf("Risk: %.2f", req.Risk),
		fmt.Sprintf("Catalog: %s", req.CatalogID),
		Marker+req.RequirementID,
	)

	return map[string]any{
		"fields": map[string]any{
			"project":     map[string]string{"key": c.projectKey},
			"summary":     summary,
			"description": document(lines),
			"issuetype":   map[string]string{"name": c.issueType},
			"labels":      []string{"riskaudit", fmt.Sprintf("sprint-%d", req.SprintNumber)},
		},
	}
}

// document renders lines as an Atlassian document, one paragraph per
// non-blank line.
func document(lines []string) map[string]any {
	content := []any{}
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		content = append(content, map[string]any{
			"type": "paragraph",
			"content": []any{
				map[string]any{"type": "text", "text": line},
			},
		})
	}
	return map[string]any{
		"type":    "doc",
		"version": 1,
		"content": content,
	}
}

func (c *Client) request(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	url := fmt.Sprintf("%s/rest/api/3/%s", c.domain, path)
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	auth := base64.StdEncoding.EncodeToString([]byte(c.email + ":" + c.apiToken))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.opts.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}
