package analysis

// UtteranceRequest is one speaker turn in a submitted transcript.
type UtteranceRequest struct {
	Speaker string `json:"speaker" validate:"max=100"`
	Text    string `json:"text" validate:"required"`
}

// SubmitTranscriptRequest represents the request to submit a transcript
// for multi-rater analysis.
type SubmitTranscriptRequest struct {
	Title      string             `json:"title" validate:"required,min=1,max=255"`
	Utterances []UtteranceRequest `json:"utterances" validate:"required,min=1,dive"`
}

// ListTranscriptsRequest represents query parameters for listing transcripts
type ListTranscriptsRequest struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}
