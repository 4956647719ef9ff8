package client

import (
	"context"
	"net/http"
)

type transferRequest struct {
	Repo     string `json:"repo"`
	Path     string `json:"path"`
	ToRepo   string `json:"to_repo"`
	ToFolder string `json:"to_folder"`
}

type transferResponse struct {
	Repo string `json:"repo"`
	Path string `json:"path"`
}

// Delete moves an entry to the trash can, or removes it for good when it is
// already there.
func (c *Client) Delete(ctx context.Context, repo, path string) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, "/api/v1/artifacts?"+locationQuery(repo, path))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return c.decodeError(resp, "delete")
	}
	return nil
}

// Move relocates an entry into the target folder and returns its new full
// path, "repoKey/path".
func (c *Client) Move(ctx context.Context, repo, path, toRepo, toFolder string) (string, error) {
	return c.transfer(ctx, "move", repo, path, toRepo, toFolder)
}

// Copy duplicates an entry into the target folder and returns the full path
// of the copy.
func (c *Client) Copy(ctx context.Context, repo, path, toRepo, toFolder string) (string, error) {
	return c.transfer(ctx, "copy", repo, path, toRepo, toFolder)
}

func (c *Client) transfer(ctx context.Context, action, repo, path, toRepo, toFolder string) (string, error) {
	body := transferRequest{Repo: repo, Path: path, ToRepo: toRepo, ToFolder: toFolder}

	resp, err := c.doRequestWithBody(ctx, http.MethodPost, "/api/v1/artifacts/"+action, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.decodeError(resp, action)
	}

	var moved transferResponse
	if err := decodeData(resp, &moved); err != nil {
		return "", err
	}
	return moved.Repo + "/" + moved.Path, nil
}
