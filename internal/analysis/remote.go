package analysis

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wadakatu/gitlyte/internal/github"
	"github.com/wadakatu/gitlyte/internal/logfields"
)

// RepositoryAPI is the slice of the GitHub client the remote analyzer needs.
type RepositoryAPI interface {
	GetRepository(ctx context.Context, owner, repo string) (*github.Repository, error)
	ListLanguages(ctx context.Context, owner, repo string) (map[string]int, error)
	GetReadme(ctx context.Context, owner, repo string) (string, error)
}

// RemoteAnalyzer builds an Analysis from the GitHub API.
type RemoteAnalyzer struct {
	api RepositoryAPI
}

// NewRemoteAnalyzer returns an analyzer backed by the given API client.
func NewRemoteAnalyzer(api RepositoryAPI) *RemoteAnalyzer {
	return &RemoteAnalyzer{api: api}
}

// Analyze fetches repository metadata, languages and README. Repository
// metadata is required; languages and README degrade to partial data so a
// sparse repository still produces a site.
func (ra *RemoteAnalyzer) Analyze(ctx context.Context, owner, repo string) (*Analysis, error) {
	meta, err := ra.api.GetRepository(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	result := &Analysis{
		Name:          meta.Name,
		FullName:      meta.FullName,
		Description:   meta.Description,
		Homepage:      meta.Homepage,
		HTMLURL:       meta.HTMLURL,
		DefaultBranch: meta.DefaultBranch,
		Topics:        meta.Topics,
		Stars:         meta.Stargazers,
		Forks:         meta.Forks,
		OpenIssues:    meta.OpenIssues,
	}
	if meta.License != nil {
		result.License = meta.License.Name
	}

	languages, err := ra.api.ListLanguages(ctx, owner, repo)
	switch {
	case err != nil:
		slog.Warn("language listing failed, using primary language only",
			logfields.Repository(meta.FullName), logfields.Error(err))
		if meta.Language != "" {
			result.Languages = map[string]int{meta.Language: 1}
		}
	default:
		result.Languages = languages
	}

	readme, err := ra.api.GetReadme(ctx, owner, repo)
	if err != nil {
		if !errors.Is(err, github.ErrNotFound) {
			slog.Warn("readme fetch failed, continuing without it",
				logfields.Repository(meta.FullName), logfields.Error(err))
		}
	} else {
		result.Readme = readme
	}

	return result, nil
}
