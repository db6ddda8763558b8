// Package cms fetches published quiz content from an external CMS by model
// name. The CMS is strictly optional: on any error, non-200, or undecodable
// body the caller falls back to local state, and the end user never sees a
// CMS failure.
package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/editor"
	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/theme"
)

// Content is the published quiz payload a CMS model resolves to.
type Content struct {
	Stages []editor.Stage `json:"stages"`
	Theme  *theme.Theme   `json:"theme,omitempty"`
}

// Client fetches content models from the CMS.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the given base URL. Requests time out after five
// seconds; a hung CMS must not hang the quiz.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Configured reports whether a CMS base URL is set.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// Fetch retrieves the content blob for a model name. Any transport error,
// non-200 status, or undecodable body is returned as an error; callers treat
// every error the same way, by falling back.
func (c *Client) Fetch(ctx context.Context, model string) (*Content, error) {
	u := fmt.Sprintf("%s/content/%s", c.baseURL, url.PathEscape(model))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching model %q: %w", model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model %q: status %d", model, resp.StatusCode)
	}

	var content Content
	if err := json.NewDecoder(resp.Body).Decode(&content); err != nil {
		return nil, fmt.Errorf("decoding model %q: %w", model, err)
	}
	if len(content.Stages) == 0 {
		return nil, fmt.Errorf("model %q: empty content", model)
	}
	return &content, nil
}
