/**
 * @description
 * Client for the user-service nickname-existence check. The auth-service
 * calls this synchronously during registration; uniqueness is never assumed
 * without a positive answer, so any transport or status failure is an error.
 */
package userclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a client for the user service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new user service client with a bounded request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ExistsByNickname reports whether a nickname is already taken in the
// profile store. The caller-supplied context bounds the call.
func (c *Client) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	endpoint := fmt.Sprintf("%s/users/exists/nickname/%s", c.baseURL, url.PathEscape(nickname))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to reach user service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("user service returned status %d", resp.StatusCode)
	}

	var exists bool
	if err := json.NewDecoder(resp.Body).Decode(&exists); err != nil {
		return false, fmt.Errorf("failed to parse user service response: %w", err)
	}
	return exists, nil
}
