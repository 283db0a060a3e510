package handler

import (
	stdErrors "errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/qualcoder/errors"
	dto "github.com/johnquangdev/qualcoder/internal/adapter/dto/analysis"
	"github.com/johnquangdev/qualcoder/internal/adapter/dto/common"
	"github.com/johnquangdev/qualcoder/internal/domain/entities"
	analysisuse "github.com/johnquangdev/qualcoder/internal/usecase/analysis"
)

// Analysis handles transcript submission and run retrieval endpoints
type Analysis struct {
	svc    analysisuse.Service
	logger *zap.Logger
}

// NewAnalysis creates a new analysis handler
func NewAnalysis(svc analysisuse.Service, logger *zap.Logger) *Analysis {
	return &Analysis{svc: svc, logger: logger}
}

// SubmitTranscript stores a transcript and queues an analysis run.
// The run is processed asynchronously by the worker pool; poll the run
// endpoint for reports.
func (h *Analysis) SubmitTranscript(c echo.Context) error {
	var req dto.SubmitTranscriptRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	utterances := make([]entities.Utterance, 0, len(req.Utterances))
	for _, u := range req.Utterances {
		utterances = append(utterances, entities.Utterance{
			Speaker: u.Speaker,
			Text:    u.Text,
		})
	}

	transcript, run, err := h.svc.SubmitTranscript(c.Request().Context(), req.Title, utterances)
	if err != nil {
		if stdErrors.Is(err, entities.ErrEmptyTranscript) {
			return HandleError(h.logger, c, errors.ErrEmptyTranscript())
		}
		return HandleError(h.logger, c, errors.ErrInternal(err))
	}

	return HandleSuccess(h.logger, c, dto.SubmitTranscriptResponse{
		TranscriptID:   transcript.ID.String(),
		RunID:          run.ID.String(),
		Status:         string(run.Status),
		UtteranceCount: transcript.UtteranceCount,
	})
}

// GetTranscript returns one transcript with its utterances.
func (h *Analysis) GetTranscript(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("invalid transcript id"))
	}

	transcript, err := h.svc.GetTranscript(c.Request().Context(), id)
	if err != nil {
		if stdErrors.Is(err, entities.ErrTranscriptNotFound) {
			return HandleError(h.logger, c, errors.ErrTranscriptNotFound())
		}
		return HandleError(h.logger, c, errors.ErrInternal(err))
	}

	return HandleSuccess(h.logger, c, dto.NewTranscriptResponse(transcript, true))
}

// ListTranscripts returns recent transcripts without utterance bodies.
func (h *Analysis) ListTranscripts(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			return HandleError(h.logger, c, errors.ErrInvalidArgument("limit must be between 1 and 100"))
		}
		limit = parsed
	}

	transcripts, err := h.svc.ListTranscripts(c.Request().Context(), limit)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInternal(err))
	}

	items := make([]dto.TranscriptResponse, 0, len(transcripts))
	for i := range transcripts {
		items = append(items, dto.NewTranscriptResponse(&transcripts[i], false))
	}
	return HandleSuccess(h.logger, c, common.NewListResponse(items, len(items)))
}

// DeleteTranscript removes a transcript.
func (h *Analysis) DeleteTranscript(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("invalid transcript id"))
	}

	if err := h.svc.DeleteTranscript(c.Request().Context(), id); err != nil {
		if stdErrors.Is(err, entities.ErrTranscriptNotFound) {
			return HandleError(h.logger, c, errors.ErrTranscriptNotFound())
		}
		return HandleError(h.logger, c, errors.ErrInternal(err))
	}

	return HandleSuccess(h.logger, c, map[string]string{"status": "deleted"})
}

// GetRun returns one analysis run with all stored reports.
func (h *Analysis) GetRun(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("invalid run id"))
	}

	run, err := h.svc.GetRun(c.Request().Context(), id)
	if err != nil {
		if stdErrors.Is(err, entities.ErrRunNotFound) {
			return HandleError(h.logger, c, errors.ErrRunNotFound())
		}
		return HandleError(h.logger, c, errors.ErrInternal(err))
	}

	return HandleSuccess(h.logger, c, dto.NewRunResponse(run))
}

// ListRuns returns all runs for a transcript, newest first.
func (h *Analysis) ListRuns(c echo.Context) error {
	transcriptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("invalid transcript id"))
	}

	runs, err := h.svc.ListRuns(c.Request().Context(), transcriptID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInternal(err))
	}

	items := make([]dto.RunResponse, 0, len(runs))
	for i := range runs {
		items = append(items, dto.NewRunResponse(&runs[i]))
	}
	return HandleSuccess(h.logger, c, common.NewListResponse(items, len(items)))
}

// GetReliabilitySummary returns reliability aggregated across all
// completed runs of a transcript.
func (h *Analysis) GetReliabilitySummary(c echo.Context) error {
	transcriptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("invalid transcript id"))
	}

	summary, err := h.svc.GetReliabilitySummary(c.Request().Context(), transcriptID)
	if err != nil {
		if stdErrors.Is(err, entities.ErrTranscriptNotFound) {
			return HandleError(h.logger, c, errors.ErrTranscriptNotFound())
		}
		return HandleError(h.logger, c, errors.ErrInternal(err))
	}

	return HandleSuccess(h.logger, c, summary)
}
