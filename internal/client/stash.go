package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/bantamhq/arbor/internal/tree"
)

const stashPageSize = 500

// Stash lists every stashed search result, following the server's pages.
func (c *Client) Stash(ctx context.Context) ([]tree.Info, error) {
	var items []tree.Info
	cursor := ""
	for {
		page, next, err := c.stashPage(ctx, cursor, stashPageSize)
		if err != nil {
			return nil, err
		}
		items = append(items, page...)
		if next == "" {
			return items, nil
		}
		cursor = next
	}
}

func (c *Client) stashPage(ctx context.Context, cursor string, limit int) ([]tree.Info, string, error) {
	params := url.Values{}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	params.Set("limit", strconv.Itoa(limit))

	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/stash?"+params.Encode())
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", c.decodeError(resp, "list stash")
	}

	var listResp listResponse
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, "", fmt.Errorf("decode response: %w", err)
	}

	var items []tree.Info
	if err := json.Unmarshal(listResp.Data, &items); err != nil {
		return nil, "", fmt.Errorf("decode stash: %w", err)
	}

	next := ""
	if listResp.HasMore && listResp.NextCursor != nil {
		next = *listResp.NextCursor
	}
	return items, next, nil
}

// SearchResult reports how many artifacts a search found and how many of
// them were not stashed yet.
type SearchResult struct {
	Found int `json:"found"`
	Added int `json:"added"`
}

// SearchIntoStash adds every artifact whose name matches the shell pattern
// to the stash.
func (c *Client) SearchIntoStash(ctx context.Context, pattern string) (*SearchResult, error) {
	body := map[string]string{"pattern": pattern}

	resp, err := c.doRequestWithBody(ctx, http.MethodPost, "/api/v1/stash", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.decodeError(resp, "search")
	}

	var result SearchResult
	if err := decodeData(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DiscardStash empties the stash.
func (c *Client) DiscardStash(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, "/api/v1/stash")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return c.decodeError(resp, "discard stash")
	}
	return nil
}

// DiscardFromStash removes an entry, and everything stashed below it, from
// the stash. The artifacts themselves are untouched.
func (c *Client) DiscardFromStash(ctx context.Context, repo, path string) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, "/api/v1/stash/item?"+locationQuery(repo, path))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return c.decodeError(resp, "discard from stash")
	}
	return nil
}
