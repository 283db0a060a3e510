package ai

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
	"github.com/johnquangdev/qualcoder/internal/usecase/coding"
	"github.com/johnquangdev/qualcoder/pkg/config"
)

const anthropicMaxTokens = 8192

// AnthropicRater codes transcripts through the Anthropic Messages API.
type AnthropicRater struct {
	client anthropic.Client
	model  string
	logger *zap.Logger
}

// NewAnthropicRater creates an Anthropic-backed rater. Extra request
// options are accepted so tests can point the client at a local server.
func NewAnthropicRater(cfg *config.RatersConfig, logger *zap.Logger, opts ...option.RequestOption) *AnthropicRater {
	options := append([]option.RequestOption{option.WithAPIKey(cfg.AnthropicAPIKey)}, opts...)

	return &AnthropicRater{
		client: anthropic.NewClient(options...),
		model:  cfg.AnthropicModel,
		logger: logger,
	}
}

// Name identifies this rater in results and failure records.
func (a *AnthropicRater) Name() string {
	return "anthropic"
}

// Code runs one coding pass over the transcript.
func (a *AnthropicRater) Code(ctx context.Context, req coding.CodeRequest) ([]entities.LabelProposal, error) {
	content, err := a.complete(ctx, buildCodingPrompt(req), req.Temperature)
	if err != nil {
		return nil, err
	}
	return ParseProposals(content)
}

// MapCodes aligns emergent themes with codebook codes.
func (a *AnthropicRater) MapCodes(ctx context.Context, themes []string, codebook *entities.Codebook) (map[string]string, error) {
	if len(themes) == 0 {
		return map[string]string{}, nil
	}
	content, err := a.complete(ctx, buildMappingPrompt(themes, codebook), 0)
	if err != nil {
		return nil, err
	}
	return ParseCodeMap(content)
}

func (a *AnthropicRater) complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   anthropicMaxTokens,
		Temperature: anthropic.Float(temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		if a.logger != nil {
			a.logger.Error("❌ Anthropic completion failed",
				zap.String("model", a.model),
				zap.Error(err),
			)
		}
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			if a.logger != nil {
				a.logger.Debug("✅ Anthropic completion received",
					zap.String("model", a.model),
					zap.Int("content_length", len(block.Text)),
					zap.Int64("input_tokens", message.Usage.InputTokens),
					zap.Int64("output_tokens", message.Usage.OutputTokens),
				)
			}
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in anthropic response")
}
