// ABOUTME: HTTP client for the capacity planner API
// ABOUTME: Wraps API calls with proper error handling for CLI usage

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/obgclub/capacity-planner/models"
)

// Client is the API client for a running capacity planner server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client with the given base URL
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			// Sweeps solve every candidate, so allow well over the per-solve limit.
			Timeout: 2 * time.Minute,
		},
	}
}

// Health calls GET /api/v1/health
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var health models.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Capacity calls GET /api/v1/capacity
func (c *Client) Capacity(ctx context.Context) (*models.SweepResult, error) {
	var sweep models.SweepResult
	if err := c.do(ctx, http.MethodGet, "/api/v1/capacity", nil, &sweep); err != nil {
		return nil, err
	}
	return &sweep, nil
}

// Sweep calls POST /api/v1/capacity/sweep
func (c *Client) Sweep(ctx context.Context, candidates []int) (*models.SweepResult, error) {
	var sweep models.SweepResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/capacity/sweep", models.SweepInput{Candidates: candidates}, &sweep); err != nil {
		return nil, err
	}
	return &sweep, nil
}

// Solve calls POST /api/v1/solve for a member count
func (c *Client) Solve(ctx context.Context, members int) (*models.CandidateResult, error) {
	var result models.CandidateResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/solve", models.SolveInput{Members: &members}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Revenue calls GET /api/v1/revenue. A negative member count projects at the largest feasible one.
func (c *Client) Revenue(ctx context.Context, members int) (*models.RevenueProjection, error) {
	path := "/api/v1/revenue"
	if members >= 0 {
		path += "?" + url.Values{"members": {strconv.Itoa(members)}}.Encode()
	}
	var projection models.RevenueProjection
	if err := c.do(ctx, http.MethodGet, path, nil, &projection); err != nil {
		return nil, err
	}
	return &projection, nil
}

// ListScenarios calls GET /api/v1/scenarios
func (c *Client) ListScenarios(ctx context.Context) (*models.ScenarioList, error) {
	var list models.ScenarioList
	if err := c.do(ctx, http.MethodGet, "/api/v1/scenarios", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// ActivateScenario calls POST /api/v1/scenarios/{name}/activate
func (c *Client) ActivateScenario(ctx context.Context, name string) (*models.Scenario, error) {
	var scenario models.Scenario
	if err := c.do(ctx, http.MethodPost, "/api/v1/scenarios/"+url.PathEscape(name)+"/activate", nil, &scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// PutConfig calls PUT /api/v1/config
func (c *Client) PutConfig(ctx context.Context, scenario models.Scenario) (*models.Scenario, error) {
	var stored models.Scenario
	if err := c.do(ctx, http.MethodPut, "/api/v1/config", scenario, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (c *Client) do(ctx context.Context, method, path string, input, dest any) error {
	var body io.Reader
	if input != nil {
		data, err := json.Marshal(input)
		if err != nil {
			return fmt.Errorf("failed to marshal input: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if input != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.handleErrorResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid response from backend: %w", err)
	}
	return nil
}

// handleRequestError converts context errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if ctx.Err() == context.Canceled {
		return fmt.Errorf("request canceled")
	}
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("request timed out")
	}
	return fmt.Errorf("cannot connect to backend at %s: %w", c.baseURL, err)
}

// APIError is a JSON error response from the backend.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("backend error: %s (%s)", e.Message, e.Details)
	}
	return "backend error: " + e.Message
}

// handleErrorResponse parses API error responses
func (c *Client) handleErrorResponse(resp *http.Response) error {
	var errResp models.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error, Details: errResp.Details}
}
