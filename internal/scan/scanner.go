package scan

import (
	"context"
	"log/slog"

	"github.com/launchpass/scand/models"
)

// HostClient is the hosting-API surface the orchestrator needs. The
// production implementation lives in internal/repository; tests substitute
// a fake. Every method either succeeds or returns a *scan.Error — no
// internal retries.
type HostClient interface {
	// DefaultBranch returns the repository's default branch name.
	DefaultBranch(ctx context.Context, owner, repo string) (string, error)

	// LatestCommit returns the SHA of the newest commit on branch.
	LatestCommit(ctx context.Context, owner, repo, branch string) (string, error)

	// TreeRecursive lists the full tree at commitHash. It fails with an
	// oversized-repository error when the listing was truncated upstream.
	TreeRecursive(ctx context.Context, owner, repo, commitHash string) ([]models.TreeEntry, error)

	// RawFile fetches raw file content at commitHash.
	RawFile(ctx context.Context, owner, repo, commitHash, path string) (string, error)
}

// Scanner drives the full scan pipeline: resolve → tree → candidate
// filtering → budgeted content fetch → pattern detectors. One scan runs as
// a single sequential pipeline in tree order, which keeps the running byte
// counter and the finding order deterministic.
type Scanner struct {
	host  HostClient
	rules *Rules
}

// New creates a Scanner using the given hosting client and compiled rules.
func New(host HostClient, rules *Rules) *Scanner {
	return &Scanner{host: host, rules: rules}
}

// ConfigVersion returns the version token of the active rule set.
func (s *Scanner) ConfigVersion() string { return s.rules.Version }

// Rules returns the active compiled rule set.
func (s *Scanner) Rules() *Rules { return s.rules }

// Resolve parses the repository URL and looks up its default branch and
// latest commit SHA. These are the cheap calls the cache gate performs
// before deciding whether a full scan is needed.
func (s *Scanner) Resolve(ctx context.Context, repoURL string) (ref models.RepoRef, branch, commit string, err error) {
	ref, err = ParseRepoRef(repoURL)
	if err != nil {
		return models.RepoRef{}, "", "", err
	}
	branch, err = s.host.DefaultBranch(ctx, ref.Owner, ref.Repo)
	if err != nil {
		return models.RepoRef{}, "", "", err
	}
	commit, err = s.host.LatestCommit(ctx, ref.Owner, ref.Repo, branch)
	if err != nil {
		return models.RepoRef{}, "", "", err
	}
	return ref, branch, commit, nil
}

// ScanRepository runs the whole pipeline for a repository URL.
func (s *Scanner) ScanRepository(ctx context.Context, repoURL string) (*models.ScanResult, error) {
	ref, branch, commit, err := s.Resolve(ctx, repoURL)
	if err != nil {
		return nil, err
	}
	return s.ScanAtCommit(ctx, ref, branch, commit)
}

// ScanAtCommit scans ref at an already-resolved commit. The commit SHA is
// the scan's identity key; budget violations abort the whole scan so that
// a persisted result always represents a complete pass.
func (s *Scanner) ScanAtCommit(ctx context.Context, ref models.RepoRef, branch, commit string) (*models.ScanResult, error) {
	tree, err := s.host.TreeRecursive(ctx, ref.Owner, ref.Repo, commit)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.TreeEntry, 0, len(tree))
	for _, entry := range tree {
		if entry.Type != "blob" {
			continue
		}
		if s.rules.IsSensitivePath(entry.Path) || s.rules.IsLikelyTextPath(entry.Path) {
			candidates = append(candidates, entry)
		}
	}

	if len(candidates) > MaxFilesScanned {
		return nil, oversizedRepo("Repository exceeds scan limits (max 200 files). Please scan a smaller repository.")
	}

	findings := newFindingSet()
	fetched := make([]models.FetchedFile, 0, len(candidates))
	fetchedBytes := 0

	for _, entry := range candidates {
		path := entry.Path

		// Fires on the naming convention alone, before any content fetch.
		s.rules.detectSensitiveFilename(path, findings)

		if !s.rules.IsLikelyTextPath(path) {
			continue
		}
		if entry.Size > MaxSingleFileBytes {
			slog.Debug("Skipping oversized file", "path", path, "size", entry.Size)
			continue
		}

		content, err := s.host.RawFile(ctx, ref.Owner, ref.Repo, commit, path)
		if err != nil {
			return nil, err
		}
		fetchedBytes += len(content)
		if fetchedBytes > MaxFetchedTextBytes {
			return nil, oversizedRepo("Repository content exceeds scan limits (max 2MB text). Please scan a smaller repository.")
		}

		fetched = append(fetched, models.FetchedFile{Path: path, Content: content})
		s.rules.detectSecretTokens(path, content, findings)
		s.rules.detectRiskyConfig(path, content, findings)
	}

	slog.Info("Scan pipeline complete",
		"repo", ref.CanonicalURL,
		"commit", commit,
		"candidates", len(candidates),
		"fetched_files", len(fetched),
		"fetched_bytes", fetchedBytes,
		"findings", len(findings.findings),
	)

	return &models.ScanResult{
		CanonicalRepoURL:  ref.CanonicalURL,
		DefaultBranch:     branch,
		CommitHash:        commit,
		ScanConfigVersion: s.rules.Version,
		Findings:          findings.findings,
		FetchedFiles:      fetched,
	}, nil
}

// MergeFindings folds semantic-detector findings into the rule-based set,
// dropping any candidate whose dedupe key an earlier finding already
// claimed. First-seen order is preserved.
func MergeFindings(rule, extra []models.Finding) []models.Finding {
	fs := newFindingSet()
	for _, f := range rule {
		fs.add(f)
	}
	for _, f := range extra {
		fs.add(f)
	}
	return fs.findings
}
