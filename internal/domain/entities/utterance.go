package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Utterance represents a single speaker turn, the atomic unit of coding.
// IDs are assigned during ingestion and are stable within a transcript.
type Utterance struct {
	ID       string `json:"utterance_id" validate:"required"`
	Speaker  string `json:"speaker"`
	Text     string `json:"text" validate:"required"`
	Sequence int    `json:"sequence"`
}

// TokenCount returns the whitespace-token count of the utterance text.
func (u Utterance) TokenCount() int {
	return len(strings.Fields(u.Text))
}

// Transcript is an ordered, immutable set of utterances submitted for analysis.
type Transcript struct {
	ID             uuid.UUID                       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title          string                          `json:"title" gorm:"type:varchar(255)"`
	Utterances     datatypes.JSONSlice[Utterance]  `json:"utterances" gorm:"type:jsonb"`
	UtteranceCount int                             `json:"utterance_count" gorm:"not null;default:0"`
	CreatedAt      time.Time                       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time                       `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Transcript) TableName() string {
	return "transcripts"
}

// NewTranscript creates a transcript entity from pre-segmented utterances.
func NewTranscript(title string, utterances []Utterance) *Transcript {
	return &Transcript{
		ID:             uuid.New(),
		Title:          title,
		Utterances:     datatypes.NewJSONSlice(utterances),
		UtteranceCount: len(utterances),
	}
}

// FullText joins all utterance texts, used for domain classification.
func FullText(utterances []Utterance) string {
	var sb strings.Builder
	for i, u := range utterances {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(u.Text)
	}
	return sb.String()
}
