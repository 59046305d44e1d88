package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultConfigDir  = ".scand"
	DefaultConfigFile = "config.json"
	DefaultDBFile     = ".scand/scand.db"
)

// Load reads the config file and returns a populated Config. The
// configPath flag may override the default location; a missing file yields
// the defaults. Environment variables override file values
// (SERVER_PORT, GITHUB_TOKEN, AI_OPENAI_API_KEY, SCAN_AI_ENABLED, ...).
func Load(configPath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(filepath.Join(home, DefaultConfigDir))
	}

	setDefaults(v, home)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !isNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// No config file — run on defaults plus environment.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Database.Path = expandHome(cfg.Database.Path, home)
	cfg.Scan.RulesFile = expandHome(cfg.Scan.RulesFile, home)
	return &cfg, nil
}

// setDefaults populates viper with out-of-the-box values.
func setDefaults(v *viper.Viper, home string) {
	v.SetDefault("server.port", 6180)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", filepath.Join(home, DefaultDBFile))
	v.SetDefault("database.dsn", "")

	v.SetDefault("github.token", "")
	v.SetDefault("github.api_base_url", "")
	v.SetDefault("github.raw_base_url", "")

	v.SetDefault("ai.provider", "")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.ollama_url", "http://localhost:11434")

	v.SetDefault("scan.rules_file", "")
	v.SetDefault("scan.ai_enabled", false)
	v.SetDefault("scan.schedule", "")
}

func expandHome(path, home string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

func isNotExist(err error) bool {
	return os.IsNotExist(err) || strings.Contains(err.Error(), "no such file")
}
