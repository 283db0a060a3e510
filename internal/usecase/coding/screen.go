package coding

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
)

// Screener drops malformed rater proposals at the ingestion boundary:
// missing fields, out-of-range confidence, references to unknown
// utterances, or quotes that are not verbatim substrings.
type Screener struct {
	validate *validator.Validate
	logger   *zap.Logger
}

func NewScreener(logger *zap.Logger) *Screener {
	return &Screener{
		validate: validator.New(),
		logger:   logger,
	}
}

// Screen returns only the valid proposals. Invalid ones are logged and
// dropped; they never reach consensus.
func (s *Screener) Screen(proposals []entities.LabelProposal, utterances []entities.Utterance) []entities.LabelProposal {
	texts := make(map[string]string, len(utterances))
	for _, u := range utterances {
		texts[u.ID] = u.Text
	}

	kept := make([]entities.LabelProposal, 0, len(proposals))
	for _, p := range proposals {
		if err := s.validate.Struct(p); err != nil {
			s.warn("invalid proposal structure", p, zap.Error(err))
			continue
		}
		text, ok := texts[p.UtteranceID]
		if !ok {
			s.warn("proposal references unknown utterance", p)
			continue
		}
		if p.Quote != "" && !strings.Contains(text, p.Quote) {
			s.warn("proposal quote is not verbatim", p)
			continue
		}
		p.Present = p.Confidence > 0
		kept = append(kept, p)
	}
	return kept
}

func (s *Screener) warn(msg string, p entities.LabelProposal, fields ...zap.Field) {
	if s.logger == nil {
		return
	}
	fields = append(fields,
		zap.String("rater_id", p.RaterID),
		zap.String("utterance_id", p.UtteranceID),
		zap.String("code", p.Code),
	)
	s.logger.Warn("⚠️ "+msg, fields...)
}
