package client

import (
	"context"
	"net/http"

	"github.com/bantamhq/arbor/internal/tree"
)

// Roots lists the repositories and the trash can.
func (c *Client) Roots(ctx context.Context) ([]tree.Info, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/browse/roots")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.decodeError(resp, "list roots")
	}

	var roots []tree.Info
	if err := decodeData(resp, &roots); err != nil {
		return nil, err
	}
	return roots, nil
}

// Children lists the entries below a folder or repository root.
func (c *Client) Children(ctx context.Context, repo, path string, compact bool) ([]tree.Info, error) {
	q := locationQuery(repo, path)
	if compact {
		q += "&compact=true"
	}

	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/browse/children?"+q)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.decodeError(resp, "list children")
	}

	var children []tree.Info
	if err := decodeData(resp, &children); err != nil {
		return nil, err
	}
	return children, nil
}

// Info fetches the metadata of one entry.
func (c *Client) Info(ctx context.Context, repo, path string) (*tree.Metadata, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/browse/info?"+locationQuery(repo, path))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.decodeError(resp, "get info")
	}

	var meta tree.Metadata
	if err := decodeData(resp, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Lister adapts the client to the tree's listing service.
func (c *Client) Lister() tree.Lister {
	return lister{c}
}

type lister struct {
	c *Client
}

func (l lister) Roots(ctx context.Context, _ tree.ListOptions) ([]tree.Info, error) {
	return l.c.Roots(ctx)
}

func (l lister) Children(ctx context.Context, parent tree.Info, opts tree.ListOptions) ([]tree.Info, error) {
	return l.c.Children(ctx, parent.RepoKey, parent.Path, opts.Compact)
}

func (l lister) Metadata(ctx context.Context, node tree.Info) (*tree.Metadata, error) {
	return l.c.Info(ctx, node.RepoKey, node.Path)
}
