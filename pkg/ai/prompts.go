package ai

import (
	"fmt"
	"strings"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
	"github.com/johnquangdev/qualcoder/internal/usecase/coding"
)

// buildCodingPrompt renders a deductive prompt when a codebook is present
// and an inductive one otherwise.
func buildCodingPrompt(req coding.CodeRequest) string {
	var sb strings.Builder

	if req.Codebook != nil {
		sb.WriteString("You are an expert qualitative researcher performing deductive coding.\n\n")
		sb.WriteString("## Codebook\n")
		sb.WriteString(formatCodebook(req.Codebook))
		sb.WriteString("\n## Transcript\n")
		sb.WriteString(formatTranscript(req.Utterances))
		sb.WriteString("\n## Task\n")
		sb.WriteString("Code each utterance using only codes from the codebook above.\n")
		sb.WriteString("Skip utterances where no code applies. For each code applied:\n")
		sb.WriteString("- quote the exact text being coded, verbatim from the utterance\n")
		sb.WriteString("- provide a confidence score between 0.0 and 1.0\n")
	} else {
		sb.WriteString("You are an expert qualitative researcher performing inductive (open) coding.\n\n")
		sb.WriteString("## Transcript\n")
		sb.WriteString(formatTranscript(req.Utterances))
		sb.WriteString("\n## Task\n")
		sb.WriteString("Discover the themes present in this transcript and code each utterance\n")
		sb.WriteString("with them. Use short snake_case names for codes. Skip utterances where\n")
		sb.WriteString("no theme applies. Quote the exact text being coded, verbatim from the\n")
		sb.WriteString("utterance, and provide a confidence score between 0.0 and 1.0.\n")
		if len(req.SeedCodes) > 0 {
			sb.WriteString(fmt.Sprintf("\nReuse these existing codes where they fit before inventing new ones: %s\n",
				strings.Join(req.SeedCodes, ", ")))
		}
	}

	sb.WriteString("\nReturn a JSON array only, no markdown and no commentary:\n")
	sb.WriteString(`[{"utterance_id": "u1", "code": "code_name", "quote": "exact quote", "confidence": 0.85}]`)
	sb.WriteString("\n")
	return sb.String()
}

// buildMappingPrompt asks the model to align emergent themes with a codebook.
func buildMappingPrompt(themes []string, codebook *entities.Codebook) string {
	var sb strings.Builder

	sb.WriteString("You are an expert qualitative researcher aligning emergent themes with an established codebook.\n\n")
	sb.WriteString("## Codebook\n")
	sb.WriteString(formatCodebook(codebook))
	sb.WriteString("\n## Emergent themes\n")
	for _, theme := range themes {
		sb.WriteString(fmt.Sprintf("- %s\n", theme))
	}
	sb.WriteString("\n## Task\n")
	sb.WriteString("Map each emergent theme to the single closest codebook code.\n")
	sb.WriteString(fmt.Sprintf("Use %q when no codebook code captures the theme.\n", NoMatchSentinel))
	sb.WriteString("\nReturn a JSON object only, no markdown and no commentary:\n")
	sb.WriteString(`{"emergent_theme": "codebook_code_or_NO_MATCH"}`)
	sb.WriteString("\n")
	return sb.String()
}

func formatCodebook(cb *entities.Codebook) string {
	var sb strings.Builder
	for _, code := range cb.Codes {
		if code.Definition != "" {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", code.Name, code.Definition))
		} else {
			sb.WriteString(fmt.Sprintf("- %s\n", code.Name))
		}
	}
	return sb.String()
}

func formatTranscript(utterances []entities.Utterance) string {
	var sb strings.Builder
	for _, u := range utterances {
		sb.WriteString(fmt.Sprintf("[%s] %s: %s\n", u.ID, u.Speaker, u.Text))
	}
	return sb.String()
}
