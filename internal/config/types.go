package config

// Config is the root configuration structure for scand.
// Serialised to ~/.scand/config.json.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   json:"server"`
	Database DatabaseConfig `mapstructure:"database" json:"database"`
	GitHub   GitHubConfig   `mapstructure:"github"   json:"github"`
	AI       AIConfig       `mapstructure:"ai"       json:"ai"`
	Scan     ScanConfig     `mapstructure:"scan"     json:"scan"`
}

// ServerConfig controls the HTTP control plane started by `scand serve`.
type ServerConfig struct {
	// Port is the HTTP port the server listens on (default: 6180).
	Port int `mapstructure:"port" json:"port"`
}

// DatabaseConfig controls the storage backend.
type DatabaseConfig struct {
	// Driver is "sqlite" (default) or "mysql".
	Driver string `mapstructure:"driver" json:"driver"`
	// Path is the SQLite file path (expanded at runtime).
	Path string `mapstructure:"path"   json:"path"`
	// DSN is the MySQL data source name (used when Driver == "mysql").
	DSN string `mapstructure:"dsn"    json:"dsn"`
}

// GitHubConfig holds the credential and endpoint for the hosting API.
type GitHubConfig struct {
	// Token is an optional bearer credential; unauthenticated requests
	// work for public repos but hit much lower rate limits.
	Token string `mapstructure:"token" json:"token"`
	// APIBaseURL overrides the REST API endpoint (tests, proxies).
	APIBaseURL string `mapstructure:"api_base_url" json:"api_base_url"`
	// RawBaseURL overrides the raw-content endpoint.
	RawBaseURL string `mapstructure:"raw_base_url" json:"raw_base_url"`
}

// AIConfig controls the semantic-detector provider.
type AIConfig struct {
	// Provider is "openai", "ollama", or "" (disabled).
	Provider  string `mapstructure:"provider"       json:"provider"`
	OpenAIKey string `mapstructure:"openai_api_key" json:"openai_api_key"`
	Model     string `mapstructure:"model"          json:"model"`
	// BaseURL overrides the API endpoint (Azure OpenAI, proxies).
	BaseURL string `mapstructure:"base_url" json:"base_url"`
	// OllamaURL is used when Provider == "ollama".
	OllamaURL string `mapstructure:"ollama_url" json:"ollama_url"`
}

// ScanConfig controls scanning behaviour.
type ScanConfig struct {
	// RulesFile points at an optional YAML rule-set override. Empty means
	// the built-in v1 rules.
	RulesFile string `mapstructure:"rules_file" json:"rules_file"`
	// AIEnabled is the feature flag gating the semantic detector. Plan
	// entitlements are checked on top of this flag per request.
	AIEnabled bool `mapstructure:"ai_enabled" json:"ai_enabled"`
	// Schedule is an optional cron expression for periodic rescans of all
	// known projects (e.g. "@daily"). Empty disables the scheduler.
	Schedule string `mapstructure:"schedule" json:"schedule"`
}
