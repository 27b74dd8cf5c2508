package github

import (
	"strings"
	"time"
)

// Repository contains the repository metadata the generation pipeline consumes.
type Repository struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	FullName      string   `json:"full_name"`
	Description   string   `json:"description"`
	Private       bool     `json:"private"`
	HTMLURL       string   `json:"html_url"`
	Homepage      string   `json:"homepage"`
	DefaultBranch string   `json:"default_branch"`
	Language      string   `json:"language"`
	Topics        []string `json:"topics"`
	Stargazers    int      `json:"stargazers_count"`
	Forks         int      `json:"forks_count"`
	OpenIssues    int      `json:"open_issues_count"`
	Archived      bool     `json:"archived"`
	License       *License `json:"license"`
	Owner         Owner    `json:"owner"`
}

// License identifies the repository license, when detected.
type License struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Owner represents the repository owner.
type Owner struct {
	Login string `json:"login"`
	Type  string `json:"type"`
}

// Label is an issue or pull request label.
type Label struct {
	Name string `json:"name"`
}

// PullRequest contains PR metadata relevant to trigger resolution.
type PullRequest struct {
	Number  int     `json:"number"`
	Title   string  `json:"title"`
	Body    string  `json:"body"`
	State   string  `json:"state"`
	Merged  bool    `json:"merged"`
	Labels  []Label `json:"labels"`
	Head    Ref     `json:"head"`
	Base    Ref     `json:"base"`
	HTMLURL string  `json:"html_url"`
	User    Owner   `json:"user"`
}

// LabelNames returns the label names in declaration order.
func (pr *PullRequest) LabelNames() []string {
	names := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		names = append(names, l.Name)
	}
	return names
}

// Ref represents a git reference (branch).
type Ref struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// Commit is one commit inside a push event payload.
type Commit struct {
	ID       string   `json:"id"`
	Message  string   `json:"message"`
	Added    []string `json:"added"`
	Modified []string `json:"modified"`
	Removed  []string `json:"removed"`
}

// ChangedPaths returns the union of added, modified and removed paths.
func (c *Commit) ChangedPaths() []string {
	paths := make([]string, 0, len(c.Added)+len(c.Modified)+len(c.Removed))
	paths = append(paths, c.Added...)
	paths = append(paths, c.Modified...)
	paths = append(paths, c.Removed...)
	return paths
}

// Deployment is one deployment record of a repository.
type Deployment struct {
	ID          int64     `json:"id"`
	Environment string    `json:"environment"`
	CreatedAt   time.Time `json:"created_at"`
}

// DeploymentStatus is one status entry of a deployment, newest first per API order.
type DeploymentStatus struct {
	ID        int64     `json:"id"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// TreeEntry is one path in a git tree being created.
type TreeEntry struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"`
	SHA  string `json:"sha,omitempty"`
}

// --- Webhook event payloads ---

// PushEvent represents a GitHub push webhook event.
type PushEvent struct {
	Ref        string     `json:"ref"`
	Before     string     `json:"before"`
	After      string     `json:"after"`
	Commits    []Commit   `json:"commits"`
	HeadCommit *Commit    `json:"head_commit"`
	Repository Repository `json:"repository"`
	Deleted    bool       `json:"deleted"`
}

// Branch extracts the branch name from the push ref (refs/heads/main -> main).
func (e *PushEvent) Branch() string {
	return strings.TrimPrefix(e.Ref, "refs/heads/")
}

// ChangedPaths returns the union of changed paths across all commits.
func (e *PushEvent) ChangedPaths() []string {
	var paths []string
	for i := range e.Commits {
		paths = append(paths, e.Commits[i].ChangedPaths()...)
	}
	return paths
}

// PullRequestEvent represents a GitHub pull_request webhook event.
type PullRequestEvent struct {
	Action      string      `json:"action"`
	Number      int         `json:"number"`
	PullRequest PullRequest `json:"pull_request"`
	Repository  Repository  `json:"repository"`
}

// IssueCommentEvent represents a GitHub issue_comment webhook event.
type IssueCommentEvent struct {
	Action     string     `json:"action"`
	Issue      Issue      `json:"issue"`
	Comment    Comment    `json:"comment"`
	Repository Repository `json:"repository"`
}

// Issue carries the minimal issue fields needed to route comment commands.
type Issue struct {
	Number      int       `json:"number"`
	PullRequest *IssuePR  `json:"pull_request"` // non-nil when the issue is a PR
	User        Owner     `json:"user"`
	Labels      []Label   `json:"labels"`
	CreatedAt   time.Time `json:"created_at"`
}

// IssuePR marks an issue as being a pull request.
type IssuePR struct {
	URL string `json:"url"`
}

// Comment is one issue comment.
type Comment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
	User Owner  `json:"user"`
}
