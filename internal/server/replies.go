package server

import (
	"context"
	"encoding/json"

	"github.com/wadakatu/gitlyte/internal/config"
	glerrors "github.com/wadakatu/gitlyte/internal/errors"
	"github.com/wadakatu/gitlyte/internal/github"
)

const helpReply = "## GitLyte commands\n\n" +
	"| Command | Effect |\n" +
	"| --- | --- |\n" +
	"| `@gitlyte generate` | Generate and publish the site |\n" +
	"| `@gitlyte generate --force` | Generate even when the trigger mode would skip |\n" +
	"| `@gitlyte preview` | Generate a preview without touching the live branch |\n" +
	"| `@gitlyte config` | Show the effective repository configuration |\n" +
	"| `@gitlyte help` | Show this message |\n\n" +
	"Configuration is read from `gitlyte.json` in the repository root.\n"

func (s *Server) replyHelp(ctx context.Context, ev *github.IssueCommentEvent) error {
	repo := ev.Repository
	return s.gh.CreateIssueComment(ctx, repo.Owner.Login, repo.Name, ev.Issue.Number, helpReply)
}

func (s *Server) replyConfig(ctx context.Context, ev *github.IssueCommentEvent, rc *config.RepoConfig) error {
	b, err := json.MarshalIndent(rc, "", "  ")
	if err != nil {
		return glerrors.WrapError(err, glerrors.CategoryInternal, "failed to render repository config")
	}
	body := "## Effective gitlyte configuration\n\n```json\n" + string(b) + "\n```\n"
	repo := ev.Repository
	return s.gh.CreateIssueComment(ctx, repo.Owner.Login, repo.Name, ev.Issue.Number, body)
}
