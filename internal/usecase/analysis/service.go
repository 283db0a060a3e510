package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/qualcoder/internal/adapter/repository"
	"github.com/johnquangdev/qualcoder/internal/domain/entities"
	"github.com/johnquangdev/qualcoder/internal/usecase/coding"
	"github.com/johnquangdev/qualcoder/internal/usecase/consensus"
	"github.com/johnquangdev/qualcoder/internal/usecase/coverage"
	"github.com/johnquangdev/qualcoder/internal/usecase/domainclass"
	"github.com/johnquangdev/qualcoder/internal/usecase/reliability"
	"github.com/johnquangdev/qualcoder/internal/usecase/validation"
	"github.com/johnquangdev/qualcoder/pkg/config"
	"github.com/johnquangdev/qualcoder/pkg/jobcontext"
)

// VerdictCache stores domain verdicts keyed by transcript content hash so
// identical transcripts skip reclassification.
type VerdictCache interface {
	GetVerdict(ctx context.Context, key string) (*entities.DomainVerdict, error)
	SetVerdict(ctx context.Context, key string, verdict *entities.DomainVerdict) error
}

// ArtifactStore archives raw run reports. A nil store disables archiving.
type ArtifactStore interface {
	SaveRunReport(ctx context.Context, runID uuid.UUID, data []byte) (string, error)
}

// Bundle is the full output of analyzing one transcript.
type Bundle struct {
	Verdict       entities.DomainVerdict     `json:"domain_verdict"`
	Strategy      string                     `json:"strategy"`
	RaterResults  []entities.RaterResult     `json:"rater_results"`
	RaterFailures []entities.RaterFailure    `json:"rater_failures,omitempty"`
	Matrix        []entities.MatrixEntry     `json:"matrix"`
	Consensus     entities.ConsensusReport   `json:"consensus"`
	Reliability   entities.ReliabilityReport `json:"reliability"`
	Coverage      entities.CoverageMetrics   `json:"coverage"`
	Validation    entities.ValidationResult  `json:"validation"`
}

// Service defines analysis orchestration methods
type Service interface {
	SubmitTranscript(ctx context.Context, title string, utterances []entities.Utterance) (*entities.Transcript, *entities.AnalysisRun, error)
	GetTranscript(ctx context.Context, id uuid.UUID) (*entities.Transcript, error)
	ListTranscripts(ctx context.Context, limit int) ([]entities.Transcript, error)
	DeleteTranscript(ctx context.Context, id uuid.UUID) error
	GetRun(ctx context.Context, id uuid.UUID) (*entities.AnalysisRun, error)
	ListRuns(ctx context.Context, transcriptID uuid.UUID) ([]entities.AnalysisRun, error)
	GetReliabilitySummary(ctx context.Context, transcriptID uuid.UUID) (*entities.ReliabilitySummary, error)
	Analyze(ctx context.Context, utterances []entities.Utterance) (*Bundle, error)
	StartWorkerPool(ctx context.Context, workerCount int) error
	StopWorkerPool() error
}

type analysisService struct {
	transcriptRepo *repository.TranscriptRepository
	runRepo        *repository.AnalysisRepository

	classifier *domainclass.Classifier
	codebooks  *coding.CodebookStore
	coders     []*coding.HybridCoder
	builder    *consensus.Builder
	calculator *reliability.Calculator
	analyzer   *coverage.Analyzer
	validator  *validation.Validator

	verdictCache VerdictCache
	artifacts    ArtifactStore
	cfg          *config.Config
	logger       *zap.Logger

	workerStopChan      chan struct{}
	workerWg            sync.WaitGroup
	isWorkerPoolRunning bool
	workerMutex         sync.Mutex
}

// NewAnalysisService constructs the analysis engine around a panel of
// rater collaborators. verdictCache and artifacts may be nil.
func NewAnalysisService(
	transcriptRepo *repository.TranscriptRepository,
	runRepo *repository.AnalysisRepository,
	classifier *domainclass.Classifier,
	codebooks *coding.CodebookStore,
	raters []coding.Rater,
	mapper coding.CodeMapper,
	verdictCache VerdictCache,
	artifacts ArtifactStore,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	screener := coding.NewScreener(logger)
	coders := make([]*coding.HybridCoder, 0, len(raters))
	for _, rater := range raters {
		coders = append(coders, coding.NewHybridCoder(rater, mapper, screener, cfg.Engine.Temperature, logger))
	}

	return &analysisService{
		transcriptRepo: transcriptRepo,
		runRepo:        runRepo,
		classifier:     classifier,
		codebooks:      codebooks,
		coders:         coders,
		builder:        consensus.NewBuilder(cfg.Engine.ConsensusThreshold, logger),
		calculator:     reliability.NewCalculator(logger),
		analyzer:       coverage.NewAnalyzer(logger),
		validator:      validation.NewValidator(logger),
		verdictCache:   verdictCache,
		artifacts:      artifacts,
		cfg:            cfg,
		logger:         logger,
		workerStopChan: make(chan struct{}),
	}
}

// SubmitTranscript stores a transcript and queues a pending analysis run.
func (s *analysisService) SubmitTranscript(ctx context.Context, title string, utterances []entities.Utterance) (*entities.Transcript, *entities.AnalysisRun, error) {
	if len(utterances) == 0 {
		return nil, nil, entities.ErrEmptyTranscript
	}

	// Assign stable IDs and sequence numbers during ingestion.
	for i := range utterances {
		if utterances[i].ID == "" {
			utterances[i].ID = fmt.Sprintf("u%d", i+1)
		}
		utterances[i].Sequence = i
	}

	transcript := entities.NewTranscript(title, utterances)
	if err := s.transcriptRepo.CreateTranscript(ctx, transcript); err != nil {
		return nil, nil, fmt.Errorf("failed to store transcript: %w", err)
	}

	run := entities.NewAnalysisRun(transcript.ID)
	if err := s.runRepo.CreateRun(ctx, run); err != nil {
		return nil, nil, fmt.Errorf("failed to queue analysis run: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("📥 Transcript submitted",
			zap.String("transcript_id", transcript.ID.String()),
			zap.String("run_id", run.ID.String()),
			zap.Int("utterances", len(utterances)),
		)
	}
	return transcript, run, nil
}

func (s *analysisService) GetTranscript(ctx context.Context, id uuid.UUID) (*entities.Transcript, error) {
	transcript, err := s.transcriptRepo.GetTranscriptByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if transcript == nil {
		return nil, entities.ErrTranscriptNotFound
	}
	return transcript, nil
}

func (s *analysisService) ListTranscripts(ctx context.Context, limit int) ([]entities.Transcript, error) {
	return s.transcriptRepo.ListTranscripts(ctx, limit)
}

func (s *analysisService) DeleteTranscript(ctx context.Context, id uuid.UUID) error {
	transcript, err := s.transcriptRepo.GetTranscriptByID(ctx, id)
	if err != nil {
		return err
	}
	if transcript == nil {
		return entities.ErrTranscriptNotFound
	}
	return s.transcriptRepo.DeleteTranscript(ctx, id)
}

func (s *analysisService) GetRun(ctx context.Context, id uuid.UUID) (*entities.AnalysisRun, error) {
	run, err := s.runRepo.GetRunByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, entities.ErrRunNotFound
	}
	return run, nil
}

func (s *analysisService) ListRuns(ctx context.Context, transcriptID uuid.UUID) ([]entities.AnalysisRun, error) {
	return s.runRepo.GetRunsByTranscriptID(ctx, transcriptID)
}

// GetReliabilitySummary aggregates reliability across all completed runs
// of one transcript, so repeated analyses can be compared as a study.
func (s *analysisService) GetReliabilitySummary(ctx context.Context, transcriptID uuid.UUID) (*entities.ReliabilitySummary, error) {
	transcript, err := s.transcriptRepo.GetTranscriptByID(ctx, transcriptID)
	if err != nil {
		return nil, err
	}
	if transcript == nil {
		return nil, entities.ErrTranscriptNotFound
	}

	runs, err := s.runRepo.GetRunsByTranscriptID(ctx, transcriptID)
	if err != nil {
		return nil, err
	}

	var reports []entities.ReliabilityReport
	for _, run := range runs {
		if run.Status != entities.RunStatusCompleted || len(run.Reliability) == 0 {
			continue
		}
		var report entities.ReliabilityReport
		if err := json.Unmarshal(run.Reliability, &report); err != nil {
			if s.logger != nil {
				s.logger.Warn("⚠️ Skipping run with unreadable reliability report",
					zap.String("run_id", run.ID.String()),
					zap.Error(err),
				)
			}
			continue
		}
		reports = append(reports, report)
	}

	summary := reliability.Aggregate(reports)
	return &summary, nil
}

// Analyze runs the full pipeline over one transcript: classify the
// domain, dispatch all raters in parallel, then derive consensus,
// reliability, coverage, and validation from the combined proposals.
func (s *analysisService) Analyze(ctx context.Context, utterances []entities.Utterance) (*Bundle, error) {
	if len(utterances) == 0 {
		return nil, entities.ErrEmptyTranscript
	}
	if len(s.coders) == 0 {
		return nil, entities.ErrNoRaters
	}

	verdict := s.classifyWithCache(ctx, utterances)

	var codebook *entities.Codebook
	if verdict.RecommendedCodebook != "" && s.codebooks != nil {
		cb, err := s.codebooks.Get(verdict.RecommendedCodebook)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("⚠️ Recommended codebook unavailable, falling back to emergent coding",
					zap.String("codebook", verdict.RecommendedCodebook),
					zap.Error(err),
				)
			}
		} else {
			codebook = cb
		}
	}

	results, failures := s.dispatchRaters(ctx, utterances, verdict, codebook)
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: all %d raters failed", entities.ErrNoRaters, len(s.coders))
	}

	consensusReport := s.builder.Build(results)
	matrix := buildMatrix(results, consensusReport)
	reliabilityReport := s.calculator.Calculate(results)
	coverageMetrics := s.analyzer.Analyze(utterances, matrix, verdict.Confidence)
	validationResult := s.validator.Validate(matrix, utterances, verdict)

	bundle := &Bundle{
		Verdict:       verdict,
		Strategy:      results[0].Strategy,
		RaterResults:  results,
		RaterFailures: failures,
		Matrix:        matrix,
		Consensus:     consensusReport,
		Reliability:   reliabilityReport,
		Coverage:      coverageMetrics,
		Validation:    validationResult,
	}

	if s.logger != nil {
		s.logger.Info("✅ Analysis complete",
			zap.String("domain", verdict.DetectedDomain),
			zap.String("strategy", bundle.Strategy),
			zap.Int("raters_succeeded", len(results)),
			zap.Int("raters_failed", len(failures)),
			zap.Float64("alpha", reliabilityReport.OverallAlpha),
			zap.Bool("is_valid", validationResult.IsValid),
		)
	}
	return bundle, nil
}

// classifyWithCache consults the verdict cache before running the
// classifier. Cache failures degrade to classification, never block it.
func (s *analysisService) classifyWithCache(ctx context.Context, utterances []entities.Utterance) entities.DomainVerdict {
	text := entities.FullText(utterances)

	key := ""
	if s.verdictCache != nil {
		sum := sha256.Sum256([]byte(text))
		key = "verdict:" + hex.EncodeToString(sum[:])

		if cached, err := s.verdictCache.GetVerdict(ctx, key); err == nil && cached != nil {
			if s.logger != nil {
				s.logger.Info("⚡ Domain verdict cache hit", zap.String("domain", cached.DetectedDomain))
			}
			return *cached
		}
	}

	verdict := s.classifier.Classify(text)

	if s.verdictCache != nil && key != "" {
		if err := s.verdictCache.SetVerdict(ctx, key, &verdict); err != nil && s.logger != nil {
			s.logger.Warn("⚠️ Failed to cache domain verdict", zap.Error(err))
		}
	}
	return verdict
}

// dispatchRaters runs every rater concurrently. One rater failing never
// aborts the others; failures are collected for the run record.
func (s *analysisService) dispatchRaters(ctx context.Context, utterances []entities.Utterance, verdict entities.DomainVerdict, codebook *entities.Codebook) ([]entities.RaterResult, []entities.RaterFailure) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		results  []entities.RaterResult
		failures []entities.RaterFailure
	)

	for _, coder := range s.coders {
		wg.Add(1)
		go func(coder *coding.HybridCoder) {
			defer wg.Done()

			result, err := coder.Run(ctx, utterances, verdict, codebook)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, entities.RaterFailure{
					RaterID: coder.Name(),
					Stage:   "coding",
					Message: err.Error(),
				})
				return
			}
			results = append(results, result)
		}(coder)
	}
	wg.Wait()

	// Deterministic ordering regardless of goroutine completion order.
	sort.Slice(results, func(i, j int) bool { return results[i].RaterID < results[j].RaterID })
	sort.Slice(failures, func(i, j int) bool { return failures[i].RaterID < failures[j].RaterID })
	return results, failures
}

// buildMatrix derives the merged decision matrix: one entry per
// (utterance, code) pair where the consensus ruled the code present and
// at least one rater proposed it on that utterance.
func buildMatrix(results []entities.RaterResult, report entities.ConsensusReport) []entities.MatrixEntry {
	seen := make(map[string]struct{})
	var matrix []entities.MatrixEntry

	for _, result := range results {
		for _, p := range result.Proposals {
			if !p.Present {
				continue
			}
			decision, ok := report.Decision(p.Code)
			if !ok || !decision.Present {
				continue
			}
			key := p.UtteranceID + "|" + p.Code
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			matrix = append(matrix, entities.MatrixEntry{
				UtteranceID: p.UtteranceID,
				Code:        p.Code,
				Present:     true,
				Confidence:  decision.Confidence,
			})
		}
	}

	sort.Slice(matrix, func(i, j int) bool {
		if matrix[i].UtteranceID != matrix[j].UtteranceID {
			return matrix[i].UtteranceID < matrix[j].UtteranceID
		}
		return matrix[i].Code < matrix[j].Code
	})
	return matrix
}

// StartWorkerPool starts background workers that process pending runs.
func (s *analysisService) StartWorkerPool(ctx context.Context, workerCount int) error {
	s.workerMutex.Lock()
	defer s.workerMutex.Unlock()

	if s.isWorkerPoolRunning {
		return fmt.Errorf("worker pool already running")
	}

	s.isWorkerPoolRunning = true
	s.workerStopChan = make(chan struct{})

	if s.logger != nil {
		s.logger.Info("🚀 Starting analysis worker pool",
			zap.Int("worker_count", workerCount),
		)
	}

	for i := 0; i < workerCount; i++ {
		s.workerWg.Add(1)
		go s.runWorker(ctx, i)
	}

	// Reclaim runs abandoned by crashed workers.
	s.workerWg.Add(1)
	go s.staleRunWorker(ctx)

	return nil
}

// StopWorkerPool gracefully stops all worker goroutines
func (s *analysisService) StopWorkerPool() error {
	s.workerMutex.Lock()
	defer s.workerMutex.Unlock()

	if !s.isWorkerPoolRunning {
		return fmt.Errorf("worker pool not running")
	}

	if s.logger != nil {
		s.logger.Info("🛑 Stopping analysis worker pool...")
	}

	close(s.workerStopChan)
	s.workerWg.Wait()
	s.isWorkerPoolRunning = false

	if s.logger != nil {
		s.logger.Info("✅ Analysis worker pool stopped")
	}
	return nil
}

// runWorker polls for pending runs and processes them one at a time.
func (s *analysisService) runWorker(parentCtx context.Context, workerID int) {
	defer s.workerWg.Done()

	ticker := time.NewTicker(s.cfg.Engine.WorkerPollInterval)
	defer ticker.Stop()

	if s.logger != nil {
		s.logger.Info("👷 Worker started", zap.Int("worker_id", workerID))
	}

	for {
		select {
		case <-s.workerStopChan:
			if s.logger != nil {
				s.logger.Info("👷 Worker stopping", zap.Int("worker_id", workerID))
			}
			return

		case <-ticker.C:
			runs, err := s.runRepo.GetRunsByStatus(parentCtx, entities.RunStatusPending, 1)
			if err != nil {
				if s.logger != nil {
					s.logger.Error("❌ Failed to poll runs",
						zap.Int("worker_id", workerID),
						zap.Error(err),
					)
				}
				continue
			}
			if len(runs) == 0 {
				continue
			}

			run := runs[0]

			// Atomically claim the run so only one worker processes it.
			claimed, err := s.runRepo.ClaimRun(parentCtx, run.ID)
			if err != nil {
				if s.logger != nil {
					s.logger.Error("❌ Failed to claim run",
						zap.String("run_id", run.ID.String()),
						zap.Error(err),
					)
				}
				continue
			}
			if !claimed {
				if s.logger != nil {
					s.logger.Info("⏭️ Run already claimed by another worker",
						zap.String("run_id", run.ID.String()),
					)
				}
				continue
			}

			if s.logger != nil {
				s.logger.Info("👷 Worker claimed run",
					zap.Int("worker_id", workerID),
					zap.String("run_id", run.ID.String()),
				)
			}

			// Bounded run context with retry on transient failures.
			runCtx, cancel := jobcontext.RunBegin(parentCtx, run.ID, workerID)
			runErr := jobcontext.RunEnd(runCtx, func(ctx context.Context) error {
				return s.processRun(ctx, &run)
			})
			cancel()

			if runErr != nil {
				if s.logger != nil {
					s.logger.Error("❌ Run failed",
						zap.String("run_id", run.ID.String()),
						zap.Error(runErr),
					)
				}
				s.runRepo.MarkRunAsFailed(parentCtx, run.ID, runErr.Error())
			}
		}
	}
}

// processRun executes the pipeline for a claimed run and persists every
// report on the run record.
func (s *analysisService) processRun(ctx context.Context, run *entities.AnalysisRun) error {
	transcript, err := s.transcriptRepo.GetTranscriptByID(ctx, run.TranscriptID)
	if err != nil {
		return fmt.Errorf("failed to load transcript: %w", err)
	}
	if transcript == nil {
		return entities.ErrTranscriptNotFound
	}

	bundle, err := s.Analyze(ctx, transcript.Utterances)
	if err != nil {
		return err
	}

	run.Strategy = bundle.Strategy
	run.DomainVerdict = mustJSON(bundle.Verdict)
	run.Matrix = mustJSON(bundle.Matrix)
	run.Consensus = mustJSON(bundle.Consensus)
	run.Reliability = mustJSON(bundle.Reliability)
	run.Coverage = mustJSON(bundle.Coverage)
	run.Validation = mustJSON(bundle.Validation)
	if len(bundle.RaterFailures) > 0 {
		run.RaterFailures = mustJSON(bundle.RaterFailures)
	}
	run.MarkAsCompleted()

	if err := s.runRepo.UpdateRun(ctx, run); err != nil {
		return fmt.Errorf("failed to persist run reports: %w", err)
	}

	s.archiveBundle(ctx, run.ID, bundle)

	if s.logger != nil {
		s.logger.Info("✅ Run completed",
			zap.String("run_id", run.ID.String()),
			zap.String("transcript_id", run.TranscriptID.String()),
		)
	}
	return nil
}

// archiveBundle stores the raw bundle in object storage. Best effort.
func (s *analysisService) archiveBundle(ctx context.Context, runID uuid.UUID, bundle *Bundle) {
	if s.artifacts == nil {
		return
	}
	data, err := json.Marshal(bundle)
	if err != nil {
		return
	}
	if _, err := s.artifacts.SaveRunReport(ctx, runID, data); err != nil && s.logger != nil {
		s.logger.Warn("⚠️ Failed to archive run report",
			zap.String("run_id", runID.String()),
			zap.Error(err),
		)
	}
}

// staleRunWorker resets runs stuck in running status back to pending.
func (s *analysisService) staleRunWorker(parentCtx context.Context) {
	defer s.workerWg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.workerStopChan:
			return

		case <-ticker.C:
			reset, err := s.runRepo.ResetStaleRuns(parentCtx, s.cfg.Engine.StaleRunTimeout)
			if err != nil {
				continue
			}
			if reset > 0 && s.logger != nil {
				s.logger.Warn("🧹 Reset stale runs back to pending",
					zap.Int64("count", reset),
				)
			}
		}
	}
}

func mustJSON(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("null")
	}
	return data
}
