package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ktane-tracker/tracker/internal/models"
)

// DiscordIDHeader identifies the caller to the tracker API
const DiscordIDHeader = "X-Discord-ID"

// Client is a Go SDK for the ktane-tracker API
type Client struct {
	baseURL    string
	discordID  string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithDiscordID makes requests on behalf of a tracker user
func WithDiscordID(id string) Option {
	return func(c *Client) {
		c.discordID = id
	}
}

// NewClient creates a new ktane-tracker client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is an error envelope returned by the API
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s - %s", e.Status, e.Code, e.Message)
}

type envelope[T any] struct {
	Success bool      `json:"success"`
	Data    T         `json:"data"`
	Error   *APIError `json:"error"`
}

// ListModules retrieves the module catalog
func (c *Client) ListModules(ctx context.Context) ([]models.Module, error) {
	var data struct {
		Modules []models.Module `json:"modules"`
		Total   int             `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/modules", nil, &data); err != nil {
		return nil, err
	}
	return data.Modules, nil
}

// QueryMissions scores and filters the mission catalog for a team
func (c *Client) QueryMissions(ctx context.Context, req models.MissionQueryRequest) ([]models.Mission, error) {
	var data struct {
		Missions []models.Mission `json:"missions"`
		Total    int              `json:"total"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/missions/query", req, &data); err != nil {
		return nil, err
	}
	return data.Missions, nil
}

// GeneratePractice requests a practice bomb
func (c *Client) GeneratePractice(ctx context.Context, req models.PracticeRequest) (*models.PracticeBomb, error) {
	var bomb models.PracticeBomb
	if err := c.do(ctx, http.MethodPost, "/api/v1/practice", req, &bomb); err != nil {
		return nil, err
	}
	return &bomb, nil
}

// UserScores retrieves every module score of a user
func (c *Client) UserScores(ctx context.Context, discordID string) ([]models.ModuleScore, error) {
	var data struct {
		Scores []models.ModuleScore `json:"scores"`
		Total  int                  `json:"total"`
	}
	path := "/api/v1/users/" + url.PathEscape(discordID) + "/scores"
	if err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	return data.Scores, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// do performs a request and decodes the envelope's data into out when non-nil
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.discordID != "" {
		req.Header.Set(DiscordIDHeader, c.discordID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var result envelope[json.RawMessage]
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode >= 400 {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if resp.StatusCode >= 400 || !result.Success {
		apiErr := &APIError{Status: resp.StatusCode}
		if result.Error != nil {
			apiErr.Code, apiErr.Message = result.Error.Code, result.Error.Message
		}
		return apiErr
	}

	if out == nil || len(result.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
