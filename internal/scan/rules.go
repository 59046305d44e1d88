package scan

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"
)

// ConfigVersion identifies the built-in detector rule set plus budget
// constants. Any persisted result carries the version it was produced
// under; a version change invalidates cache reuse.
const ConfigVersion = "v1"

// Budgets enforced by the orchestrator. The tree listing's reported sizes
// can be stale, so the true defense for the text budget is the running byte
// counter maintained during fetch.
const (
	MaxFilesScanned     = 200
	MaxFetchedTextBytes = 2 * 1024 * 1024
	MaxSingleFileBytes  = 256 * 1024
)

// SecretPattern pairs a secret-shaped regex with the short label echoed in
// finding summaries. The matched substring itself is never echoed.
type SecretPattern struct {
	Pattern string `yaml:"pattern"`
	Label   string `yaml:"label"`
}

// RuleSet is the full pattern-detector configuration. The built-in set is
// DefaultRuleSet; deployments may override it with a YAML file, which must
// carry its own version token.
type RuleSet struct {
	Version            string          `yaml:"version"`
	SensitiveFilenames []string        `yaml:"sensitive_filenames"`
	SecretPatterns     []SecretPattern `yaml:"secret_patterns"`
	RiskyConfig        []string        `yaml:"risky_config"`
	TemplateSuffixes   []string        `yaml:"template_suffixes"`
	DocFiles           []string        `yaml:"doc_files"`
	TextExtensions     []string        `yaml:"text_extensions"`
}

// Rules is a compiled RuleSet ready for matching.
type Rules struct {
	Version            string
	sensitiveFilenames []*regexp.Regexp
	secretPatterns     []*regexp.Regexp
	secretLabels       []string
	riskyConfig        []*regexp.Regexp
	templateSuffixes   []string
	docFiles           []*regexp.Regexp
	textExtensions     map[string]struct{}
}

// DefaultRuleSet returns the built-in v1 rules.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Version: ConfigVersion,
		SensitiveFilenames: []string{
			`(?i)(^|/)\.env(\..*)?$`,
			`(?i)\.pem$`,
			`(?i)(^|/)keystore(\.|$)`,
			`(?i)(^|/)credentials(\.|$)`,
			`(?i)(^|/)serviceaccount[^/]*\.json$`,
		},
		SecretPatterns: []SecretPattern{
			{Pattern: `\bsk-[A-Za-z0-9_-]{12,}\b`, Label: "sk-"},
			{Pattern: `\bAKIA[0-9A-Z]{16}\b`, Label: "AKIA"},
			{Pattern: `(?i)BEGIN\s+PRIVATE\s+KEY`, Label: "BEGIN PRIVATE KEY"},
			{Pattern: `(?i)\bMNEMONIC\b`, Label: "MNEMONIC"},
			{Pattern: `(?i)\bPRIVATE_KEY\b`, Label: "PRIVATE_KEY"},
		},
		RiskyConfig: []string{
			`(?i)Access-Control-Allow-Origin\s*:\s*\*`,
			`(?i)\bcors\s*:\s*\*`,
			`(?i)\bpublicRead\b`,
			`(?i)\ballow all\b`,
		},
		TemplateSuffixes: []string{".example", ".sample", ".template", ".dist", ".defaults"},
		DocFiles: []string{
			`(?i)\.md$`,
			`(?i)\.mdx$`,
			`(?i)\.rst$`,
			`(?i)(^|/)README(\.[^/]+)?$`,
			`(?i)(^|/)CHANGELOG(\.[^/]+)?$`,
			`(?i)(^|/)CONTRIBUTING(\.[^/]+)?$`,
			`(?i)(^|/)LICENSE(\.[^/]+)?$`,
		},
		TextExtensions: []string{
			"txt", "md", "json", "yaml", "yml", "toml", "ini", "env",
			"js", "mjs", "cjs", "ts", "tsx", "jsx",
			"py", "rb", "go", "java", "kt", "swift", "php", "rs",
			"c", "h", "cpp", "cs",
			"xml", "properties", "conf", "config", "gradle", "sql",
			"sh", "bash", "zsh", "ps1",
			"dockerfile", "gitignore", "npmrc",
		},
	}
}

// Compile validates and compiles a RuleSet.
func (rs RuleSet) Compile() (*Rules, error) {
	if rs.Version == "" {
		return nil, fmt.Errorf("rule set has no version token")
	}

	r := &Rules{
		Version:          rs.Version,
		templateSuffixes: rs.TemplateSuffixes,
		textExtensions:   make(map[string]struct{}, len(rs.TextExtensions)),
	}

	compile := func(exprs []string, dest *[]*regexp.Regexp, what string) error {
		for _, expr := range exprs {
			re, err := regexp.Compile(expr)
			if err != nil {
				return fmt.Errorf("compiling %s pattern %q: %w", what, expr, err)
			}
			*dest = append(*dest, re)
		}
		return nil
	}

	if err := compile(rs.SensitiveFilenames, &r.sensitiveFilenames, "sensitive filename"); err != nil {
		return nil, err
	}
	for _, sp := range rs.SecretPatterns {
		re, err := regexp.Compile(sp.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling secret pattern %q: %w", sp.Pattern, err)
		}
		r.secretPatterns = append(r.secretPatterns, re)
		r.secretLabels = append(r.secretLabels, sp.Label)
	}
	if err := compile(rs.RiskyConfig, &r.riskyConfig, "risky config"); err != nil {
		return nil, err
	}
	if err := compile(rs.DocFiles, &r.docFiles, "doc file"); err != nil {
		return nil, err
	}
	for _, ext := range rs.TextExtensions {
		r.textExtensions[strings.ToLower(ext)] = struct{}{}
	}
	return r, nil
}

// DefaultRules compiles the built-in rule set. The defaults are maintained
// alongside this package, so a compile failure is a programming error.
func DefaultRules() *Rules {
	r, err := DefaultRuleSet().Compile()
	if err != nil {
		panic(err)
	}
	return r
}

// LoadRules reads a YAML rule-set override from path. An empty path returns
// the built-in rules.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	compiled, err := rs.Compile()
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return compiled, nil
}

// IsSensitivePath reports whether the path alone suggests credential
// material (e.g. .env files, private keys, service-account JSON).
func (r *Rules) IsSensitivePath(path string) bool {
	for _, re := range r.sensitiveFilenames {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// IsTemplateFile reports whether the filename ends in a recognised
// placeholder suffix, meaning the file is assumed to hold non-real values.
func (r *Rules) IsTemplateFile(path string) bool {
	lower := strings.ToLower(path)
	for _, suffix := range r.templateSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// IsDocFile reports whether the path is documentation. Risky-configuration
// matching is skipped for docs to avoid false positives from prose.
func (r *Rules) IsDocFile(path string) bool {
	for _, re := range r.docFiles {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// IsLikelyTextPath reports whether the path is on the likely-text
// allow list (common source/config/script extensions, Dockerfile, and
// .env-style dotfiles).
func (r *Rules) IsLikelyTextPath(path string) bool {
	file := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		file = path[i+1:]
	}
	lower := strings.ToLower(file)
	if lower == "dockerfile" {
		return true
	}
	if strings.HasSuffix(lower, ".env") || strings.HasPrefix(lower, ".env") {
		return true
	}
	ext := lower
	if i := strings.LastIndexByte(lower, '.'); i >= 0 {
		ext = lower[i+1:]
	}
	_, ok := r.textExtensions[ext]
	return ok
}

// RedactSecrets replaces any secret-pattern match in text with a redaction
// marker. Used for anything that leaves the scan pipeline as display or
// log text; the detectors themselves run against the original content.
func (r *Rules) RedactSecrets(text string) string {
	redacted := text
	for _, re := range r.secretPatterns {
		redacted = re.ReplaceAllString(redacted, "[REDACTED_SECRET]")
	}
	return redacted
}
