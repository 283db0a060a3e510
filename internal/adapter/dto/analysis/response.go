package analysis

import (
	"encoding/json"
	"time"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
)

// SubmitTranscriptResponse returns the stored transcript and queued run.
type SubmitTranscriptResponse struct {
	TranscriptID   string `json:"transcript_id"`
	RunID          string `json:"run_id"`
	Status         string `json:"status"`
	UtteranceCount int    `json:"utterance_count"`
}

// TranscriptResponse represents a stored transcript
type TranscriptResponse struct {
	ID             string               `json:"id"`
	Title          string               `json:"title"`
	UtteranceCount int                  `json:"utterance_count"`
	Utterances     []entities.Utterance `json:"utterances,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

// RunResponse represents one analysis run with its reports. Report fields
// are raw JSON documents persisted by the worker and are omitted until the
// run completes.
type RunResponse struct {
	ID           string `json:"id"`
	TranscriptID string `json:"transcript_id"`
	Status       string `json:"status"`
	Strategy     string `json:"strategy,omitempty"`

	DomainVerdict json.RawMessage `json:"domain_verdict,omitempty"`
	Matrix        json.RawMessage `json:"matrix,omitempty"`
	Consensus     json.RawMessage `json:"consensus,omitempty"`
	Reliability   json.RawMessage `json:"reliability,omitempty"`
	Coverage      json.RawMessage `json:"coverage,omitempty"`
	Validation    json.RawMessage `json:"validation,omitempty"`
	RaterFailures json.RawMessage `json:"rater_failures,omitempty"`

	LastError   *string    `json:"last_error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewTranscriptResponse converts a transcript entity, optionally
// including the full utterance list.
func NewTranscriptResponse(t *entities.Transcript, includeUtterances bool) TranscriptResponse {
	resp := TranscriptResponse{
		ID:             t.ID.String(),
		Title:          t.Title,
		UtteranceCount: t.UtteranceCount,
		CreatedAt:      t.CreatedAt,
	}
	if includeUtterances {
		resp.Utterances = t.Utterances
	}
	return resp
}

// NewRunResponse converts an analysis run entity.
func NewRunResponse(run *entities.AnalysisRun) RunResponse {
	return RunResponse{
		ID:            run.ID.String(),
		TranscriptID:  run.TranscriptID.String(),
		Status:        string(run.Status),
		Strategy:      run.Strategy,
		DomainVerdict: json.RawMessage(run.DomainVerdict),
		Matrix:        json.RawMessage(run.Matrix),
		Consensus:     json.RawMessage(run.Consensus),
		Reliability:   json.RawMessage(run.Reliability),
		Coverage:      json.RawMessage(run.Coverage),
		Validation:    json.RawMessage(run.Validation),
		RaterFailures: json.RawMessage(run.RaterFailures),
		LastError:     run.LastError,
		StartedAt:     run.StartedAt,
		CompletedAt:   run.CompletedAt,
		CreatedAt:     run.CreatedAt,
	}
}
