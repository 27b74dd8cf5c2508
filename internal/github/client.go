// Package github provides a minimal GitHub REST API client covering the
// endpoints the generation pipeline needs: repository metadata, contents,
// issue comments, deployments and the git data API used for publishing.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/wadakatu/gitlyte/internal/config"
	glerrors "github.com/wadakatu/gitlyte/internal/errors"
	"github.com/wadakatu/gitlyte/internal/version"
)

const (
	apiVersion     = "2022-11-28"
	acceptJSON     = "application/vnd.github+json"
	defaultAPIURL  = "https://api.github.com"
	defaultTimeout = 30 * time.Second

	// RepoConfigPath is the per-repository configuration file looked up on
	// the default branch.
	RepoConfigPath = "gitlyte.json"
)

// ErrNotFound is returned when the requested resource does not exist.
var ErrNotFound = glerrors.New(glerrors.CategoryGitHub, glerrors.SeverityWarning, "resource not found")

// Client talks to the GitHub REST API.
type Client struct {
	httpClient *http.Client
	apiURL     string
	token      string
}

// NewClient builds a client from the GitHub section of the service config.
func NewClient(cfg config.GitHubConfig) *Client {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		token:      cfg.Token,
	}
}

func (c *Client) newRequest(ctx context.Context, method, apiPath string, body any) (*http.Request, error) {
	u, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, glerrors.Wrap(err, glerrors.CategoryGitHub, glerrors.SeverityError, "invalid API URL")
	}
	u.Path = path.Join(u.Path, apiPath)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, glerrors.Wrap(err, glerrors.CategoryGitHub, glerrors.SeverityError, "encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, glerrors.Wrap(err, glerrors.CategoryGitHub, glerrors.SeverityError, "create request")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", acceptJSON)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) doRequest(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return glerrors.WrapRetryable(err, glerrors.CategoryNetwork, glerrors.SeverityError,
			fmt.Sprintf("%s %s", req.Method, req.URL.Path))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return classifyResponse(req, resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return glerrors.Wrap(err, glerrors.CategoryGitHub, glerrors.SeverityError,
				fmt.Sprintf("decode response for %s %s", req.Method, req.URL.Path))
		}
	}
	return nil
}

func classifyResponse(req *http.Request, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := strings.TrimSpace(string(body))
	operation := fmt.Sprintf("%s %s", req.Method, req.URL.Path)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusForbidden && isRateLimited(resp, detail):
		return glerrors.GitHubRateLimited(operation,
			fmt.Errorf("status %d: %s", resp.StatusCode, detail))
	case resp.StatusCode == http.StatusUnauthorized:
		return glerrors.New(glerrors.CategoryAuth, glerrors.SeverityFatal,
			fmt.Sprintf("%s: authentication failed (status 401)", operation))
	case resp.StatusCode >= 500:
		return glerrors.WrapRetryable(
			fmt.Errorf("status %d: %s", resp.StatusCode, detail),
			glerrors.CategoryGitHub, glerrors.SeverityError, operation)
	default:
		return glerrors.GitHubAPIError(operation,
			fmt.Errorf("status %d: %s", resp.StatusCode, detail))
	}
}

func isRateLimited(resp *http.Response, body string) bool {
	if resp.Header.Get("X-RateLimit-Remaining") == "0" {
		return true
	}
	lower := strings.ToLower(body)
	return strings.Contains(lower, "rate limit") || strings.Contains(lower, "secondary rate")
}

// GetRepository fetches repository metadata.
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*Repository, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/repos/%s/%s", owner, repo), nil)
	if err != nil {
		return nil, err
	}
	var out Repository
	if err := c.doRequest(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListLanguages returns the byte counts per language of a repository.
func (c *Client) ListLanguages(ctx context.Context, owner, repo string) (map[string]int, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/repos/%s/%s/languages", owner, repo), nil)
	if err != nil {
		return nil, err
	}
	out := map[string]int{}
	if err := c.doRequest(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type contentResponse struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
	SHA      string `json:"sha"`
}

// GetReadme fetches the repository README as raw markdown.
func (c *Client) GetReadme(ctx context.Context, owner, repo string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/repos/%s/%s/readme", owner, repo), nil)
	if err != nil {
		return "", err
	}
	var out contentResponse
	if err := c.doRequest(req, &out); err != nil {
		return "", err
	}
	data, err := decodeContent(&out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GetFileContent fetches one file from the repository at the given ref.
// A missing file yields ErrNotFound.
func (c *Client) GetFileContent(ctx context.Context, owner, repo, filePath, ref string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet,
		fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, filePath), nil)
	if err != nil {
		return nil, err
	}
	if ref != "" {
		req.URL.RawQuery = "ref=" + url.QueryEscape(ref)
	}
	var out contentResponse
	if err := c.doRequest(req, &out); err != nil {
		return nil, err
	}
	return decodeContent(&out)
}

func decodeContent(cr *contentResponse) ([]byte, error) {
	if cr.Encoding != "" && cr.Encoding != "base64" {
		return nil, glerrors.New(glerrors.CategoryGitHub, glerrors.SeverityError,
			fmt.Sprintf("unsupported content encoding %q", cr.Encoding))
	}
	// The contents API wraps base64 at 60 columns.
	raw := strings.ReplaceAll(cr.Content, "\n", "")
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, glerrors.Wrap(err, glerrors.CategoryGitHub, glerrors.SeverityError, "decode file content")
	}
	return data, nil
}

// FetchRepoConfig loads gitlyte.json from the repository. A missing file
// falls back to defaults so generation always proceeds; a malformed file
// also yields defaults together with the parse error for the caller to log.
func (c *Client) FetchRepoConfig(ctx context.Context, owner, repo, ref string) (*config.RepoConfig, error) {
	data, err := c.GetFileContent(ctx, owner, repo, RepoConfigPath, ref)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return config.DefaultRepoConfig(), nil
		}
		return nil, err
	}
	return config.ParseRepoConfig(data)
}

// CreateIssueComment posts a comment on an issue or pull request.
func (c *Client) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error {
	payload := map[string]string{"body": body}
	req, err := c.newRequest(ctx, http.MethodPost,
		fmt.Sprintf("/repos/%s/%s/issues/%d/comments", owner, repo, number), payload)
	if err != nil {
		return err
	}
	return c.doRequest(req, nil)
}

// ListDeployments returns deployments for an environment, newest first.
func (c *Client) ListDeployments(ctx context.Context, owner, repo, environment string) ([]Deployment, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/repos/%s/%s/deployments", owner, repo), nil)
	if err != nil {
		return nil, err
	}
	if environment != "" {
		req.URL.RawQuery = "environment=" + url.QueryEscape(environment)
	}
	var out []Deployment
	if err := c.doRequest(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListDeploymentStatuses returns the statuses of one deployment, newest first.
func (c *Client) ListDeploymentStatuses(ctx context.Context, owner, repo string, deploymentID int64) ([]DeploymentStatus, error) {
	req, err := c.newRequest(ctx, http.MethodGet,
		fmt.Sprintf("/repos/%s/%s/deployments/%d/statuses", owner, repo, deploymentID), nil)
	if err != nil {
		return nil, err
	}
	var out []DeploymentStatus
	if err := c.doRequest(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}
