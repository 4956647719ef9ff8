// Package client talks to the listing service over its JSON API.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/bantamhq/arbor/internal/tree"
)

// ErrUnauthorized is returned when the server rejects the token.
var ErrUnauthorized = errors.New("unauthorized")

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type response struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

type listResponse struct {
	Data       json.RawMessage `json:"data"`
	NextCursor *string         `json:"next_cursor,omitempty"`
	HasMore    bool            `json:"has_more"`
}

func (c *Client) doRequest(ctx context.Context, method, path string) (*http.Response, error) {
	return c.doRequestWithBody(ctx, method, path, nil)
}

func (c *Client) doRequestWithBody(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	return resp, nil
}

// decodeError turns a failed response into an error. A 404 wraps
// tree.ErrNotFound so the browsers can walk up to a surviving ancestor.
func (c *Client) decodeError(resp *http.Response, operation string) error {
	var errResp response
	msg := fmt.Sprintf("status %d", resp.StatusCode)
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		msg = errResp.Error
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %s: %w", operation, msg, ErrUnauthorized)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %s: %w", operation, msg, tree.ErrNotFound)
	}
	return fmt.Errorf("%s: %s", operation, msg)
}

// decodeData unwraps the data envelope of a successful response into v.
func decodeData(resp *http.Response, v any) error {
	var dataResp response
	if err := json.NewDecoder(resp.Body).Decode(&dataResp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(dataResp.Data, v); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func locationQuery(repo, path string) string {
	params := url.Values{}
	params.Set("repo", repo)
	if p := strings.Trim(path, "/"); p != "" {
		params.Set("path", p)
	}
	return params.Encode()
}
