package lyrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

const (
	defaultBaseURL     = "https://api.genius.com"
	defaultHTTPTimeout = 15 * time.Second
)

// ErrNoToken is returned when no API token is configured.
var ErrNoToken = errors.New("genius: api token is required")

// ClientConfig describes the Genius client configuration.
type ClientConfig struct {
	Token      string
	BaseURL    string
	HTTPClient *http.Client
}

// Client wraps the Genius search endpoint.
type Client struct {
	token   string
	baseURL *url.URL
	http    *http.Client
}

// NewClient creates a Client from the supplied configuration.
func NewClient(cfg ClientConfig) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, ErrNoToken
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("genius: parse base url: %w", err)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{token: token, baseURL: baseURL, http: client}, nil
}

type searchResponse struct {
	Response struct {
		Hits []struct {
			Result struct {
				URL string `json:"url"`
			} `json:"result"`
		} `json:"hits"`
	} `json:"response"`
}

// Search returns the page URL of the first hit for query, or "" when the
// search has no hits.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	endpoint := c.baseURL.JoinPath("search")
	endpoint.RawQuery = url.Values{"q": []string{query}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", fmt.Errorf("genius: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("genius: search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("genius: search returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var payload searchResponse
	if err := jsoniter.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("genius: decode search response: %w", err)
	}
	for _, hit := range payload.Response.Hits {
		if u := strings.TrimSpace(hit.Result.URL); u != "" {
			return u, nil
		}
	}
	return "", nil
}
