package ai

import (
	"context"
	"errors"

	"github.com/launchpass/scand/models"
)

// errNoAI is returned by NoopProvider for all analysis calls.
var errNoAI = errors.New("AI provider not configured")

// NoopProvider is used when no AI provider is configured. IsAvailable
// always returns false, so the scan service degrades to rule-only scanning
// instead of crashing.
type NoopProvider struct{}

func (n *NoopProvider) Name() string                       { return "none" }
func (n *NoopProvider) IsAvailable(_ context.Context) bool { return false }

func (n *NoopProvider) AnalyzeFiles(_ context.Context, _ []models.FetchedFile, _ []models.Finding) (*Analysis, error) {
	return nil, errNoAI
}
