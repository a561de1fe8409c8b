/**
 * @description
 * Client for the public JokeAPI (v2.jokeapi.dev). Always requests safe-mode
 * jokes and flattens two-part jokes into a single display string.
 */
package jokes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/secsys/security-service/internal/domain"
)

// DefaultBaseURL is the public JokeAPI endpoint.
const DefaultBaseURL = "https://v2.jokeapi.dev"

// Client fetches random jokes.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a joke API client. An empty baseURL falls back to the
// public endpoint.
func NewClient(baseURL string) *Client {
	normalizedURL := strings.TrimSuffix(baseURL, "/")
	if normalizedURL == "" {
		normalizedURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    normalizedURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type jokeResponse struct {
	Error    bool   `json:"error"`
	Type     string `json:"type"`
	Joke     string `json:"joke"`
	Setup    string `json:"setup"`
	Delivery string `json:"delivery"`
	Category string `json:"category"`
}

// FetchRandom requests one random safe-mode joke.
func (c *Client) FetchRandom(ctx context.Context) (*domain.Joke, error) {
	url := c.baseURL + "/joke/Any?safe-mode"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("joke API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("joke API returned status %d", resp.StatusCode)
	}

	var payload jokeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode joke API response: %w", err)
	}
	if payload.Error {
		return nil, fmt.Errorf("joke API reported an error response")
	}

	text := payload.Joke
	if payload.Type != "single" {
		text = payload.Setup + "\n\n" + payload.Delivery
	}
	category := payload.Category
	if category == "" {
		category = "Unknown"
	}

	return &domain.Joke{Text: text, Category: category}, nil
}
