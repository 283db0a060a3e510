package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
	"github.com/johnquangdev/qualcoder/internal/usecase/coding"
	"github.com/johnquangdev/qualcoder/pkg/config"
)

// GroqRater codes transcripts through the Groq chat completions API.
// It also serves as the code mapper for inductive-primary runs.
type GroqRater struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewGroqRater creates a Groq-backed rater using values from the provided config.
func NewGroqRater(cfg *config.RatersConfig, logger *zap.Logger) *GroqRater {
	base := cfg.GroqBaseURL
	if base == "" {
		base = "https://api.groq.com"
	}

	return &GroqRater{
		apiKey:  cfg.GroqAPIKey,
		model:   cfg.GroqModel,
		baseURL: base,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

// Name identifies this rater in results and failure records.
func (g *GroqRater) Name() string {
	return "groq"
}

// Code runs one coding pass over the transcript.
func (g *GroqRater) Code(ctx context.Context, req coding.CodeRequest) ([]entities.LabelProposal, error) {
	content, err := g.complete(ctx, buildCodingPrompt(req), req.Temperature)
	if err != nil {
		return nil, err
	}
	return ParseProposals(content)
}

// MapCodes aligns emergent themes with codebook codes.
func (g *GroqRater) MapCodes(ctx context.Context, themes []string, codebook *entities.Codebook) (map[string]string, error) {
	if len(themes) == 0 {
		return map[string]string{}, nil
	}
	content, err := g.complete(ctx, buildMappingPrompt(themes, codebook), 0)
	if err != nil {
		return nil, err
	}
	return ParseCodeMap(content)
}

// ChatRequest is the shape for chat completion requests
type ChatRequest struct {
	Model       string      `json:"model,omitempty"`
	Messages    interface{} `json:"messages,omitempty"`
	Temperature float64     `json:"temperature,omitempty"`
	MaxTokens   int         `json:"max_tokens,omitempty"`
}

// ChatResponse is a minimal response shape
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// complete sends one chat completion request with retry on transient errors.
func (g *GroqRater) complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	reqBody := ChatRequest{
		Model:       g.model,
		Messages:    []map[string]string{{"role": "user", "content": prompt}},
		Temperature: temperature,
		MaxTokens:   8000,
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := g.baseURL + "/openai/v1/chat/completions"

	var content string
	callFn := func() error {
		req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(b))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			err := fmt.Errorf("groq returned status %d: %s", resp.StatusCode, string(body))
			// Client errors other than rate limiting will not recover on retry
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(err)
			}
			return err
		}

		var cr ChatResponse
		if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
			return err
		}
		if len(cr.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("empty response from groq"))
		}
		content = cr.Choices[0].Message.Content
		return nil
	}

	// Retry logic with exponential backoff
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxElapsedTime = 30 * time.Second
	bo.MaxInterval = 10 * time.Second

	if err := backoff.Retry(callFn, backoff.WithContext(bo, ctx)); err != nil {
		if g.logger != nil {
			g.logger.Error("❌ Groq completion failed after retries",
				zap.String("model", g.model),
				zap.Error(err),
			)
		}
		return "", err
	}

	if g.logger != nil {
		g.logger.Debug("✅ Groq completion received",
			zap.String("model", g.model),
			zap.Int("content_length", len(content)),
		)
	}
	return content, nil
}
