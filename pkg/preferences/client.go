// Package preferences talks to the forum backend's user-preferences
// service to seed default settings for newly registered users.
package preferences

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Initializer seeds default user settings after registration
type Initializer interface {
	CreateDefaultSettings(ctx context.Context, userID uuid.UUID) error
}

// Config holds preferences service configuration
type Config struct {
	BaseURL string        // URL of the preferences service API endpoint
	Timeout time.Duration // HTTP request timeout
}

// Client implements Initializer against the forum backend over HTTP
type Client struct {
	client     *http.Client
	serviceURL string
}

type createSettingsRequest struct {
	UserID string `json:"user_id"`
}

type createSettingsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewClient creates a new preferences service client
func NewClient(config *Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("preferences service URL is required")
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		serviceURL: config.BaseURL,
	}, nil
}

// CreateDefaultSettings asks the preferences service to initialize default
// settings for a user. Called once per registration.
func (c *Client) CreateDefaultSettings(ctx context.Context, userID uuid.UUID) error {
	jsonData, err := json.Marshal(createSettingsRequest{UserID: userID.String()})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.serviceURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send preferences request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("preferences service returned status %d: %s", resp.StatusCode, string(body))
	}

	var serviceResp createSettingsResponse
	if err := json.Unmarshal(body, &serviceResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if !serviceResp.Success {
		return fmt.Errorf("preferences service failed: %s", serviceResp.Error)
	}

	return nil
}
