package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"allowsync/internal/config"
	"allowsync/internal/version"

	"go.uber.org/zap"
)

const acceptHeader = "application/vnd.github+json"

// Fetcher retrieves the current set of CIDR ranges for one category
type Fetcher interface {
	Fetch(ctx context.Context) ([]string, error)
}

// Client fetches address ranges from the remote meta API
type Client struct {
	url      string
	token    string
	category string
	client   *http.Client
	logger   *zap.Logger
}

// NewClient creates a new meta API client
func NewClient(cfg *config.APIConfig, token string, logger *zap.Logger) *Client {
	client := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}

	return &Client{
		url:      cfg.URL,
		token:    token,
		category: cfg.Category,
		client:   client,
		logger:   logger,
	}
}

// Fetch performs one authenticated GET against the meta API and returns the
// deduplicated, sorted CIDR list for the configured category.
func (c *Client) Fetch(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("User-Agent", config.AppName+"/"+version.GetInfo().Version)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Error("Failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("meta API returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}

	var payload map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode meta response: %w", err)
	}

	raw, ok := payload[c.category]
	if !ok {
		return nil, fmt.Errorf("category %q not present in meta response", c.category)
	}

	var cidrs []string
	if err := json.Unmarshal(raw, &cidrs); err != nil {
		return nil, fmt.Errorf("category %q is not an array of strings: %w", c.category, err)
	}

	return normalize(cidrs), nil
}

// normalize deduplicates and sorts the address set so that reorder-only
// responses from the source never count as a change.
func normalize(cidrs []string) []string {
	seen := make(map[string]struct{}, len(cidrs))
	result := make([]string, 0, len(cidrs))

	for _, cidr := range cidrs {
		if _, exists := seen[cidr]; exists {
			continue
		}
		seen[cidr] = struct{}{}
		result = append(result, cidr)
	}

	sort.Strings(result)
	return result
}
