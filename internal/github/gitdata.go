package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
)

// Committer is the identity recorded on publish commits.
type Committer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type refResponse struct {
	Ref    string `json:"ref"`
	Object struct {
		Type string `json:"type"`
		SHA  string `json:"sha"`
	} `json:"object"`
}

// GetBranchSHA resolves a branch to its head commit SHA. A missing branch
// yields ErrNotFound so callers can create it.
func (c *Client) GetBranchSHA(ctx context.Context, owner, repo, branch string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet,
		fmt.Sprintf("/repos/%s/%s/git/ref/heads/%s", owner, repo, branch), nil)
	if err != nil {
		return "", err
	}
	var out refResponse
	if err := c.doRequest(req, &out); err != nil {
		return "", err
	}
	return out.Object.SHA, nil
}

// CommitInfo carries the git commit object fields the publisher needs.
type CommitInfo struct {
	SHA  string `json:"sha"`
	Tree struct {
		SHA string `json:"sha"`
	} `json:"tree"`
}

// GetCommit fetches a git commit object by SHA.
func (c *Client) GetCommit(ctx context.Context, owner, repo, sha string) (*CommitInfo, error) {
	req, err := c.newRequest(ctx, http.MethodGet,
		fmt.Sprintf("/repos/%s/%s/git/commits/%s", owner, repo, sha), nil)
	if err != nil {
		return nil, err
	}
	var out CommitInfo
	if err := c.doRequest(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type blobRequest struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type shaResponse struct {
	SHA string `json:"sha"`
}

// CreateBlob uploads one file's content and returns the blob SHA.
func (c *Client) CreateBlob(ctx context.Context, owner, repo string, content []byte) (string, error) {
	payload := blobRequest{
		Content:  base64.StdEncoding.EncodeToString(content),
		Encoding: "base64",
	}
	req, err := c.newRequest(ctx, http.MethodPost,
		fmt.Sprintf("/repos/%s/%s/git/blobs", owner, repo), payload)
	if err != nil {
		return "", err
	}
	var out shaResponse
	if err := c.doRequest(req, &out); err != nil {
		return "", err
	}
	return out.SHA, nil
}

type treeRequest struct {
	BaseTree string      `json:"base_tree,omitempty"`
	Tree     []TreeEntry `json:"tree"`
}

// CreateTree creates a git tree from the given entries. An empty baseTree
// builds the tree from scratch, replacing the branch contents entirely.
func (c *Client) CreateTree(ctx context.Context, owner, repo string, entries []TreeEntry, baseTree string) (string, error) {
	payload := treeRequest{BaseTree: baseTree, Tree: entries}
	req, err := c.newRequest(ctx, http.MethodPost,
		fmt.Sprintf("/repos/%s/%s/git/trees", owner, repo), payload)
	if err != nil {
		return "", err
	}
	var out shaResponse
	if err := c.doRequest(req, &out); err != nil {
		return "", err
	}
	return out.SHA, nil
}

type commitRequest struct {
	Message   string     `json:"message"`
	Tree      string     `json:"tree"`
	Parents   []string   `json:"parents"`
	Committer *Committer `json:"committer,omitempty"`
	Author    *Committer `json:"author,omitempty"`
}

// CreateCommit records a commit pointing at the tree. Parents may be empty
// for the first commit of an orphan branch.
func (c *Client) CreateCommit(ctx context.Context, owner, repo, message, treeSHA string, parents []string, committer *Committer) (string, error) {
	payload := commitRequest{
		Message:   message,
		Tree:      treeSHA,
		Parents:   parents,
		Committer: committer,
		Author:    committer,
	}
	if payload.Parents == nil {
		payload.Parents = []string{}
	}
	req, err := c.newRequest(ctx, http.MethodPost,
		fmt.Sprintf("/repos/%s/%s/git/commits", owner, repo), payload)
	if err != nil {
		return "", err
	}
	var out shaResponse
	if err := c.doRequest(req, &out); err != nil {
		return "", err
	}
	return out.SHA, nil
}

type updateRefRequest struct {
	SHA   string `json:"sha"`
	Force bool   `json:"force"`
}

// UpdateRef moves a branch head to the given commit.
func (c *Client) UpdateRef(ctx context.Context, owner, repo, branch, sha string, force bool) error {
	payload := updateRefRequest{SHA: sha, Force: force}
	req, err := c.newRequest(ctx, http.MethodPatch,
		fmt.Sprintf("/repos/%s/%s/git/refs/heads/%s", owner, repo, branch), payload)
	if err != nil {
		return err
	}
	return c.doRequest(req, nil)
}

type createRefRequest struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// CreateRef creates a new branch pointing at the given commit.
func (c *Client) CreateRef(ctx context.Context, owner, repo, branch, sha string) error {
	payload := createRefRequest{Ref: "refs/heads/" + branch, SHA: sha}
	req, err := c.newRequest(ctx, http.MethodPost,
		fmt.Sprintf("/repos/%s/%s/git/refs", owner, repo), payload)
	if err != nil {
		return err
	}
	return c.doRequest(req, nil)
}
