// Package civicdata is the HTTP client for the civic data-store service.
//
// Failures are split into two kinds the loader treats differently: transport
// errors (connection refused, timeout) are transient and safe to retry, while
// a well-formed error response from the service wraps [ErrRemote] and is
// surfaced immediately.
package civicdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flintspark/civicflow/internal/errors"
	"github.com/flintspark/civicflow/internal/models"
)

// ErrRemote marks a logical failure response from the data store.
var ErrRemote = errors.NewSentinel("data store rejected request")

// IsRemote reports whether err is a logical failure rather than a transport one.
func IsRemote(err error) bool {
	return errors.Is(err, ErrRemote)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a data-store client. The timeout bounds every call; a
// fetch exceeding it is abandoned and reported as a transport failure.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("source", "civicdata.Client"),
	}
}

// IssuesResponse is the fetch-all-issues payload.
type IssuesResponse struct {
	Issues     []models.Issue `json:"issues"`
	TotalUsers int64          `json:"total_users"`
	Timestamp  time.Time      `json:"timestamp"`
}

// OfficesResponse echoes the issue filter it was queried with.
type OfficesResponse struct {
	Offices    []models.Office `json:"offices"`
	Count      int             `json:"count"`
	FilteredBy []string        `json:"filtered_by"`
	Timestamp  time.Time       `json:"timestamp"`
}

type MeasuresResponse struct {
	Measures   []models.BallotMeasure `json:"measures"`
	Count      int                    `json:"count"`
	FilteredBy []string               `json:"filtered_by"`
	Timestamp  time.Time              `json:"timestamp"`
}

type CandidatesResponse struct {
	Candidates []models.Candidate `json:"candidates"`
	Count      int                `json:"count"`
	FilteredBy []string           `json:"filtered_by"`
	Timestamp  time.Time          `json:"timestamp"`
}

// Issues fetches the full issue catalog with the aggregate participant count.
func (c *Client) Issues(ctx context.Context) (IssuesResponse, error) {
	var out IssuesResponse
	if err := c.get(ctx, "/api/issues", nil, &out); err != nil {
		return out, errors.Wrap(err, "fetch issues")
	}
	return out, nil
}

// Offices fetches the offices matching the given issues; no filter fetches all.
func (c *Client) Offices(ctx context.Context, issueIDs []string) (OfficesResponse, error) {
	var out OfficesResponse
	if err := c.get(ctx, "/api/offices", issueIDs, &out); err != nil {
		return out, errors.Wrap(err, "fetch offices")
	}
	return out, nil
}

// Measures fetches the ballot measures matching the given issues.
func (c *Client) Measures(ctx context.Context, issueIDs []string) (MeasuresResponse, error) {
	var out MeasuresResponse
	if err := c.get(ctx, "/api/measures", issueIDs, &out); err != nil {
		return out, errors.Wrap(err, "fetch measures")
	}
	return out, nil
}

// Candidates fetches the candidates matching the given issues, through either
// their own platform or the office they run for.
func (c *Client) Candidates(ctx context.Context, issueIDs []string) (CandidatesResponse, error) {
	var out CandidatesResponse
	if err := c.get(ctx, "/api/candidates", issueIDs, &out); err != nil {
		return out, errors.Wrap(err, "fetch candidates")
	}
	return out, nil
}

// IncrementIssueCounts bumps the engagement counters. Best-effort: callers log
// failures and move on.
func (c *Client) IncrementIssueCounts(ctx context.Context, issueIDs []string, sessionToken string) error {
	payload := struct {
		IssueIDs     []string `json:"issue_ids"`
		SessionToken string   `json:"session_token"`
	}{IssueIDs: issueIDs, SessionToken: sessionToken}
	if err := c.post(ctx, "/api/issues/increment", payload, nil); err != nil {
		return errors.Wrap(err, "increment issue counts")
	}
	return nil
}

// StoreCompletion ships a finished journey snapshot. Best-effort.
func (c *Client) StoreCompletion(ctx context.Context, completion models.Completion) error {
	if err := c.post(ctx, "/api/completions", completion, nil); err != nil {
		return errors.Wrap(err, "store completion")
	}
	return nil
}

// StoreSignup ships an email signup. Best-effort.
func (c *Client) StoreSignup(ctx context.Context, signup models.Signup) error {
	if err := c.post(ctx, "/api/signups", signup, nil); err != nil {
		return errors.Wrap(err, "store signup")
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, issueFilter []string, out any) error {
	endpoint := c.baseURL + path
	if len(issueFilter) > 0 {
		query := url.Values{"issues": []string{strings.Join(issueFilter, ",")}}
		endpoint = fmt.Sprintf("%s?%s", endpoint, query.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "encode payload")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// errorResponse is the data store's well-formed failure payload.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport failure: connection refused, timeout, DNS. Retryable.
		return errors.Wrap(err, "do request")
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.LogAttrs(req.Context(), slog.LevelWarn, "close response body", errors.SlogError(closeErr))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var remoteErr errorResponse
		// The body may not be the documented shape; the status code alone is
		// enough to classify this as a logical failure.
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&remoteErr)
		return errors.Wrap(ErrRemote, "error response",
			slog.Int("status", resp.StatusCode),
			slog.String("remote_error", remoteErr.Error),
			slog.String("remote_message", remoteErr.Message))
	}

	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
