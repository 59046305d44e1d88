package models

// RepoRef identifies a public GitHub repository. Derived once per scan
// request from the user-supplied URL; immutable afterwards.
type RepoRef struct {
	Owner        string `json:"owner"`
	Repo         string `json:"repo"`
	CanonicalURL string `json:"canonical_url"` // https://github.com/{owner}/{repo}
}

// TreeEntry is one entry of the recursive tree listing returned by the
// hosting API. Only blob entries are scan candidates. Size comes from the
// tree listing and may be approximate; the orchestrator re-counts bytes
// during fetch.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"` // blob | tree
	Size int    `json:"size"`
	SHA  string `json:"sha"`
}

// FetchedFile is raw UTF-8 text fetched for one scan run, byte-capped by
// the orchestrator's budgets.
type FetchedFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}
