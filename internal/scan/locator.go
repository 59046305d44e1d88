package scan

import (
	"net/url"
	"strings"

	"github.com/launchpass/scand/models"
)

// ParseRepoRef validates a user-supplied repository URL and derives the
// (owner, repo, canonical URL) tuple. Only github.com URLs with at least
// two path segments are accepted; a trailing .git suffix is stripped and
// extra path segments are ignored.
func ParseRepoRef(repoURL string) (models.RepoRef, error) {
	parsed, err := url.Parse(repoURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return models.RepoRef{}, invalidRepoURL("Invalid repository URL. Use a public GitHub URL.")
	}

	if parsed.Hostname() != "github.com" {
		return models.RepoRef{}, invalidRepoURL("Invalid repository URL. Only github.com public repos are supported.")
	}

	segments := make([]string, 0, 4)
	for _, s := range strings.Split(parsed.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) < 2 {
		return models.RepoRef{}, invalidRepoURL("Invalid repository URL. Expected format: https://github.com/owner/repo")
	}

	owner := segments[0]
	repo := segments[1]
	if strings.HasSuffix(strings.ToLower(repo), ".git") {
		repo = repo[:len(repo)-len(".git")]
	}
	if repo == "" {
		return models.RepoRef{}, invalidRepoURL("Invalid repository URL. Expected format: https://github.com/owner/repo")
	}

	return models.RepoRef{
		Owner:        owner,
		Repo:         repo,
		CanonicalURL: "https://github.com/" + owner + "/" + repo,
	}, nil
}
