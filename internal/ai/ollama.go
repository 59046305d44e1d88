package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/launchpass/scand/internal/config"
	"github.com/launchpass/scand/models"
)

// OllamaProvider implements Provider against a local Ollama server. Local
// models are slower and less schema-faithful than hosted ones, so the
// request uses plain JSON mode and a generous timeout.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllama creates an OllamaProvider from cfg.
func NewOllama(cfg config.AIConfig) *OllamaProvider {
	base := cfg.OllamaURL
	if base == "" {
		base = "http://localhost:11434"
	}
	model := cfg.Model
	if model == "" {
		model = "llama3.1"
	}
	return &OllamaProvider{
		baseURL: strings.TrimRight(base, "/"),
		model:   model,
		client:  &http.Client{Timeout: 300 * time.Second},
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type ollamaRequest struct {
	Model    string        `json:"model"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format"`
	Messages []chatMessage `json:"messages"`
}

type ollamaResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error"`
}

func (p *OllamaProvider) AnalyzeFiles(ctx context.Context, files []models.FetchedFile, known []models.Finding) (*Analysis, error) {
	selected := selectFiles(files)
	if len(selected) == 0 {
		return &Analysis{Summary: "No files to analyze."}, nil
	}

	reqBody := ollamaRequest{
		Model:  p.model,
		Stream: false,
		Format: "json",
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt + "\n\nRespond ONLY with a JSON object of the form {\"findings\": [...], \"summary\": \"...\"}."},
			{Role: "user", Content: buildUserPrompt(selected, known)},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Ollama: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading Ollama response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding Ollama response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("Ollama error: %s", parsed.Error)
	}

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(parsed.Message.Content), &raw); err != nil {
		return nil, fmt.Errorf("decoding analysis payload: %w", err)
	}
	return raw.convert(), nil
}
