// Package ai implements the optional semantic detector: a language-model
// reviewer that supplements the pattern detectors with findings they cannot
// express. It is an enhancement, never a correctness-critical step — the
// scan service swallows its failures.
package ai

import (
	"context"

	"github.com/launchpass/scand/internal/config"
	"github.com/launchpass/scand/models"
)

// Provider abstracts calls to a language model.
// To add a new provider:
//  1. Create a file in internal/ai/ (e.g. mymodel.go)
//  2. Implement Provider
//  3. Register in New()
type Provider interface {
	// Name returns the provider identifier (e.g. "openai", "ollama").
	Name() string

	// IsAvailable verifies the provider is reachable and configured.
	IsAvailable(ctx context.Context) bool

	// AnalyzeFiles reviews a bounded, prioritized subset of the fetched
	// files for issues the rule-based detectors did not already report.
	AnalyzeFiles(ctx context.Context, files []models.FetchedFile, known []models.Finding) (*Analysis, error)
}

// Analysis is the semantic detector's contribution to a scan.
type Analysis struct {
	Findings []models.Finding `json:"findings"`
	Summary  string           `json:"summary"`
}

// New returns the configured Provider. With no provider configured it
// returns a NoopProvider — callers should check IsAvailable() and degrade
// to rule-only scanning.
func New(cfg config.AIConfig) Provider {
	switch cfg.Provider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return &NoopProvider{}
		}
		return NewOpenAI(cfg)
	case "ollama":
		return NewOllama(cfg)
	default:
		return &NoopProvider{}
	}
}
