package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
)

// AnalysisRepository handles analysis run data operations
type AnalysisRepository struct {
	db *gorm.DB
}

// NewAnalysisRepository creates a new analysis run repository
func NewAnalysisRepository(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// GetDB exposes the underlying handle for conditional updates
func (r *AnalysisRepository) GetDB() *gorm.DB {
	return r.db
}

// CreateRun creates a new analysis run
func (r *AnalysisRepository) CreateRun(ctx context.Context, run *entities.AnalysisRun) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	return r.db.WithContext(ctx).Create(run).Error
}

// GetRunByID retrieves an analysis run by ID
func (r *AnalysisRepository) GetRunByID(ctx context.Context, id uuid.UUID) (*entities.AnalysisRun, error) {
	var run entities.AnalysisRun
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

// GetRunsByStatus retrieves runs in a given status, oldest first
func (r *AnalysisRepository) GetRunsByStatus(ctx context.Context, status entities.AnalysisRunStatus, limit int) ([]entities.AnalysisRun, error) {
	var runs []entities.AnalysisRun
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// GetRunsByTranscriptID retrieves all runs for a transcript, newest first
func (r *AnalysisRepository) GetRunsByTranscriptID(ctx context.Context, transcriptID uuid.UUID) ([]entities.AnalysisRun, error) {
	var runs []entities.AnalysisRun
	if err := r.db.WithContext(ctx).
		Where("transcript_id = ?", transcriptID).
		Order("created_at DESC").
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// ClaimRun atomically moves a pending run to running. Returns false when
// another worker claimed it first.
func (r *AnalysisRepository) ClaimRun(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.AnalysisRun{}).
		Where("id = ? AND status = ?", id, entities.RunStatusPending).
		Updates(map[string]interface{}{
			"status":     entities.RunStatusRunning,
			"started_at": time.Now(),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateRun saves the full run record
func (r *AnalysisRepository) UpdateRun(ctx context.Context, run *entities.AnalysisRun) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	return r.db.WithContext(ctx).
		Model(&entities.AnalysisRun{}).
		Where("id = ?", run.ID).
		Save(run).Error
}

// MarkRunAsFailed marks a run as failed with an error message
func (r *AnalysisRepository) MarkRunAsFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	return r.db.WithContext(ctx).
		Model(&entities.AnalysisRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     entities.RunStatusFailed,
			"last_error": errMsg,
			"updated_at": time.Now(),
		}).Error
}

// ResetStaleRuns moves runs stuck in running status back to pending.
func (r *AnalysisRepository) ResetStaleRuns(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result := r.db.WithContext(ctx).
		Model(&entities.AnalysisRun{}).
		Where("status = ? AND updated_at < ?", entities.RunStatusRunning, cutoff).
		Updates(map[string]interface{}{
			"status":     entities.RunStatusPending,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}
