package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AnalysisRunStatus represents the status of a transcript analysis run
type AnalysisRunStatus string

const (
	RunStatusPending   AnalysisRunStatus = "pending"   // Waiting to be picked up by a worker
	RunStatusRunning   AnalysisRunStatus = "running"   // Claimed by a worker, pipeline executing
	RunStatusCompleted AnalysisRunStatus = "completed" // All reports stored
	RunStatusFailed    AnalysisRunStatus = "failed"    // Pipeline failed
)

// AnalysisRun represents one full analysis of a transcript: the domain
// verdict, the coding strategy, and the derived reports. Reports are pure
// outputs of the current input set and are recomputed on every run.
type AnalysisRun struct {
	ID           uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TranscriptID uuid.UUID         `json:"transcript_id" gorm:"type:uuid;not null;index"`
	Status       AnalysisRunStatus `json:"status" gorm:"type:varchar(20);not null;index;default:'pending'"`
	Strategy     string            `json:"strategy,omitempty" gorm:"type:varchar(30)"`

	DomainVerdict datatypes.JSON `json:"domain_verdict,omitempty" gorm:"type:jsonb"`
	Matrix        datatypes.JSON `json:"matrix,omitempty" gorm:"type:jsonb"`
	Consensus     datatypes.JSON `json:"consensus,omitempty" gorm:"type:jsonb"`
	Reliability   datatypes.JSON `json:"reliability,omitempty" gorm:"type:jsonb"`
	Coverage      datatypes.JSON `json:"coverage,omitempty" gorm:"type:jsonb"`
	Validation    datatypes.JSON `json:"validation,omitempty" gorm:"type:jsonb"`
	RaterFailures datatypes.JSON `json:"rater_failures,omitempty" gorm:"type:jsonb"`

	LastError   *string    `json:"last_error,omitempty" gorm:"type:text"`
	StartedAt   *time.Time `json:"started_at,omitempty" gorm:"type:timestamp"`
	CompletedAt *time.Time `json:"completed_at,omitempty" gorm:"type:timestamp"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (AnalysisRun) TableName() string {
	return "analysis_runs"
}

// NewAnalysisRun creates a pending analysis run for a transcript.
func NewAnalysisRun(transcriptID uuid.UUID) *AnalysisRun {
	return &AnalysisRun{
		ID:           uuid.New(),
		TranscriptID: transcriptID,
		Status:       RunStatusPending,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// MarkAsCompleted marks the run as completed.
func (r *AnalysisRun) MarkAsCompleted() {
	r.Status = RunStatusCompleted
	now := time.Now()
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// MarkAsFailed marks the run as failed with an error message.
func (r *AnalysisRun) MarkAsFailed(errMsg string) {
	r.Status = RunStatusFailed
	r.LastError = &errMsg
	r.UpdatedAt = time.Now()
}
