package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
	"github.com/johnquangdev/qualcoder/internal/usecase/coding"
)

// NoMatchSentinel is the value models return for themes that have no
// codebook equivalent.
const NoMatchSentinel = coding.NoMatch

type rawProposal struct {
	UtteranceID string  `json:"utterance_id"`
	Code        string  `json:"code"`
	Quote       string  `json:"quote"`
	Confidence  float64 `json:"confidence"`
}

// ParseProposals parses a model response into label proposals. Entries
// without an utterance id or code are skipped; full screening happens at
// the ingestion boundary, this only rejects unusable JSON.
func ParseProposals(content string) ([]entities.LabelProposal, error) {
	content = extractJSON(content)

	var raw []rawProposal
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse coding response: %w", err)
	}

	proposals := make([]entities.LabelProposal, 0, len(raw))
	for _, r := range raw {
		if r.UtteranceID == "" || r.Code == "" {
			continue
		}
		proposals = append(proposals, entities.LabelProposal{
			UtteranceID: r.UtteranceID,
			Code:        strings.TrimSpace(r.Code),
			Confidence:  r.Confidence,
			Quote:       r.Quote,
		})
	}
	return proposals, nil
}

// ParseCodeMap parses a theme-to-code mapping response.
func ParseCodeMap(content string) (map[string]string, error) {
	content = extractJSON(content)

	var mapping map[string]string
	if err := json.Unmarshal([]byte(content), &mapping); err != nil {
		return nil, fmt.Errorf("failed to parse code mapping response: %w", err)
	}

	for theme, code := range mapping {
		mapping[theme] = strings.TrimSpace(code)
	}
	return mapping, nil
}

// extractJSON extracts JSON content from markdown code blocks or plain text
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	// Check if wrapped in markdown code block
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	return strings.TrimSpace(content)
}
